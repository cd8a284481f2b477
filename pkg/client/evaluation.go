package client

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sallamaty/rounds-console/pkg/models"
)

// ListCategories retrieves all evaluation categories
func (c *Client) ListCategories(ctx context.Context) ([]models.EvaluationCategory, error) {
	return GetList[models.EvaluationCategory](ctx, c, "/evaluation-categories")
}

// CreateCategory adds an evaluation category
func (c *Client) CreateCategory(ctx context.Context, cat models.EvaluationCategory) (*models.EvaluationCategory, error) {
	return send[models.EvaluationCategory](ctx, c, http.MethodPost, "/evaluation-categories", cat)
}

// UpdateCategory replaces an evaluation category
func (c *Client) UpdateCategory(ctx context.Context, id int64, cat models.EvaluationCategory) (*models.EvaluationCategory, error) {
	return send[models.EvaluationCategory](ctx, c, http.MethodPut, itemPath("/evaluation-categories", id), cat)
}

// DeleteCategory removes an evaluation category
func (c *Client) DeleteCategory(ctx context.Context, id int64) error {
	return remove(ctx, c, itemPath("/evaluation-categories", id))
}

// ListItems retrieves all evaluation items
func (c *Client) ListItems(ctx context.Context) ([]models.EvaluationItem, error) {
	return GetList[models.EvaluationItem](ctx, c, "/evaluation-items")
}

// CreateItem adds an evaluation item
func (c *Client) CreateItem(ctx context.Context, item models.EvaluationItem) (*models.EvaluationItem, error) {
	return send[models.EvaluationItem](ctx, c, http.MethodPost, "/evaluation-items", item)
}

// UpdateItem replaces an evaluation item
func (c *Client) UpdateItem(ctx context.Context, id int64, item models.EvaluationItem) (*models.EvaluationItem, error) {
	return send[models.EvaluationItem](ctx, c, http.MethodPut, itemPath("/evaluation-items", id), item)
}

// DeleteItem removes an evaluation item
func (c *Client) DeleteItem(ctx context.Context, id int64) error {
	return remove(ctx, c, itemPath("/evaluation-items", id))
}

// Report fetches rows from a reporting endpoint. endpoint may be given with
// or without the /api/reports prefix.
func (c *Client) Report(ctx context.Context, endpoint string, params map[string]string) ([]json.RawMessage, error) {
	if !strings.HasPrefix(endpoint, "/api/reports/") {
		endpoint = "/api/reports/" + strings.TrimPrefix(endpoint, "/")
	}

	env, err := c.Request(ctx, http.MethodGet, withQuery(endpoint, params), nil)
	if err != nil {
		return nil, err
	}

	// Summary reports answer with a single object; treat it as one row.
	if len(env.Data) > 0 && env.Data[0] == '{' {
		if rows := UnwrapList(env.Data); string(rows) == "[]" {
			return []json.RawMessage{env.Data}, nil
		}
	}
	return DecodeList[json.RawMessage](env.Data)
}
