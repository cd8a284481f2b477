package client

import (
	"context"
	"net/http"

	"github.com/sallamaty/rounds-console/pkg/models"
)

// The backend serves the CAPA collection and its members under different
// prefixes.
const (
	capaCollection = "/api/capas"
	capaMember     = "/capa"
)

// ListCapas retrieves all corrective-action plans
func (c *Client) ListCapas(ctx context.Context) ([]models.CapaRecord, error) {
	return GetList[models.CapaRecord](ctx, c, capaCollection)
}

// CreateCapa opens a corrective-action plan
func (c *Client) CreateCapa(ctx context.Context, in models.CapaInput) (*models.CapaRecord, error) {
	return send[models.CapaRecord](ctx, c, http.MethodPost, capaCollection, in)
}

// UpdateCapa applies a partial update
func (c *Client) UpdateCapa(ctx context.Context, id int64, patch models.CapaPatch) (*models.CapaRecord, error) {
	return send[models.CapaRecord](ctx, c, http.MethodPatch, itemPath(capaMember, id), patch)
}

// DeleteCapa removes a corrective-action plan
func (c *Client) DeleteCapa(ctx context.Context, id int64) error {
	return remove(ctx, c, itemPath(capaMember, id))
}
