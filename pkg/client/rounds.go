package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sallamaty/rounds-console/pkg/models"
)

// ListRounds retrieves every round visible to the caller
func (c *Client) ListRounds(ctx context.Context) ([]models.RoundRecord, error) {
	return GetList[models.RoundRecord](ctx, c, "/rounds")
}

// ListMyRounds retrieves the rounds assigned to the caller
func (c *Client) ListMyRounds(ctx context.Context) ([]models.RoundRecord, error) {
	return GetList[models.RoundRecord](ctx, c, "/rounds/my")
}

// CreateRound schedules a new round
func (c *Client) CreateRound(ctx context.Context, in models.RoundInput) (*models.RoundRecord, error) {
	return send[models.RoundRecord](ctx, c, http.MethodPost, "/rounds", in)
}

// UpdateRound replaces a round
func (c *Client) UpdateRound(ctx context.Context, id int64, in models.RoundInput) (*models.RoundRecord, error) {
	return send[models.RoundRecord](ctx, c, http.MethodPut, itemPath("/rounds", id), in)
}

// DeleteRound removes a round
func (c *Client) DeleteRound(ctx context.Context, id int64) error {
	return remove(ctx, c, itemPath("/rounds", id))
}

// FinalizeEvaluations submits the evaluation results and closes the round
func (c *Client) FinalizeEvaluations(ctx context.Context, id int64, req models.FinalizeRequest) (*models.RoundRecord, error) {
	return send[models.RoundRecord](ctx, c, http.MethodPost, fmt.Sprintf("/rounds/%d/evaluations/finalize", id), req)
}
