package queries

import (
	"context"
	"time"

	"github.com/sallamaty/rounds-console/pkg/client"
	"github.com/sallamaty/rounds-console/pkg/models"
)

// FetchRounds lists every round as view models
func (q *Queries) FetchRounds(ctx context.Context) ([]models.Round, error) {
	records, err := q.client.ListRounds(ctx)
	if err != nil {
		return nil, err
	}
	return normalizeRounds(records), nil
}

// FetchMyRounds lists the caller's rounds as view models
func (q *Queries) FetchMyRounds(ctx context.Context) ([]models.Round, error) {
	records, err := q.client.ListMyRounds(ctx)
	if err != nil {
		return nil, err
	}
	return normalizeRounds(records), nil
}

// FetchCapas lists every CAPA as view models
func (q *Queries) FetchCapas(ctx context.Context) ([]models.Capa, error) {
	records, err := q.client.ListCapas(ctx)
	if err != nil {
		return nil, err
	}
	capas := make([]models.Capa, len(records))
	for i, r := range records {
		capas[i] = r.Normalize()
	}
	return capas, nil
}

// FetchDepartments lists departments
func (q *Queries) FetchDepartments(ctx context.Context) ([]models.Department, error) {
	return q.client.ListDepartments(ctx)
}

// FetchUsers lists users
func (q *Queries) FetchUsers(ctx context.Context) ([]models.User, error) {
	return q.client.ListUsers(ctx)
}

// FetchAssessors lists users eligible for round assignment
func (q *Queries) FetchAssessors(ctx context.Context) ([]models.Assessor, error) {
	return q.client.ListAssessors(ctx)
}

// FetchRoundTypes lists round types
func (q *Queries) FetchRoundTypes(ctx context.Context) ([]models.RoundType, error) {
	return q.client.ListRoundTypes(ctx)
}

// FetchCategories lists evaluation categories, reading the local mirror
// when the backend cannot be reached
func (q *Queries) FetchCategories(ctx context.Context) ([]models.EvaluationCategory, error) {
	categories, err := q.client.ListCategories(ctx)
	if err == nil || q.legacy == nil || !client.IsNetwork(err) {
		return categories, err
	}

	q.logger.Warn("backend unreachable, serving categories from mirror", "error", err)
	mirrored, lerr := q.legacy.ListCategories(ctx)
	if lerr != nil {
		q.logger.Error("failed to read category mirror", "error", lerr)
		return nil, err
	}
	return mirrored, nil
}

// FetchItems lists evaluation items, reading the local mirror when the
// backend cannot be reached
func (q *Queries) FetchItems(ctx context.Context) ([]models.EvaluationItem, error) {
	items, err := q.client.ListItems(ctx)
	if err == nil || q.legacy == nil || !client.IsNetwork(err) {
		return items, err
	}

	q.logger.Warn("backend unreachable, serving items from mirror", "error", err)
	mirrored, lerr := q.legacy.ListItems(ctx, 0)
	if lerr != nil {
		q.logger.Error("failed to read item mirror", "error", lerr)
		return nil, err
	}
	return mirrored, nil
}

// FetchReport runs one report definition. params override the definition's
// defaults; empty values are dropped.
func (q *Queries) FetchReport(ctx context.Context, def models.ReportDefinition, params map[string]string) (models.Report, error) {
	merged := make(map[string]string, len(def.Params)+len(params))
	for k, v := range def.Params {
		merged[k] = v
	}
	for k, v := range params {
		merged[k] = v
	}

	rows, err := q.client.Report(ctx, def.Endpoint, merged)
	if err != nil {
		return models.Report{}, err
	}
	return models.Report{
		Definition: &def,
		Rows:       rows,
		FetchedAt:  time.Now().UTC(),
	}, nil
}

func normalizeRounds(records []models.RoundRecord) []models.Round {
	rounds := make([]models.Round, len(records))
	for i, r := range records {
		rounds[i] = r.Normalize()
	}
	return rounds
}
