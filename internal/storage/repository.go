package storage

import (
	"context"
	"errors"
	"time"

	"github.com/sallamaty/rounds-console/pkg/models"
)

// ErrNotFound is returned when a record or sync marker does not exist
var ErrNotFound = errors.New("not found")

// Repository is the local mirror of the evaluation catalog. It keeps the
// categories and items readable while the backend is unreachable.
type Repository interface {
	// Categories
	ListCategories(ctx context.Context) ([]models.EvaluationCategory, error)
	GetCategory(ctx context.Context, id int64) (*models.EvaluationCategory, error)
	ReplaceCategories(ctx context.Context, categories []models.EvaluationCategory) error

	// Items; categoryID 0 lists every item
	ListItems(ctx context.Context, categoryID int64) ([]models.EvaluationItem, error)
	ReplaceItems(ctx context.Context, items []models.EvaluationItem) error

	// Sync markers
	MarkSynced(ctx context.Context, kind string, at time.Time) error
	LastSynced(ctx context.Context, kind string) (time.Time, error)

	// Health
	Ping(ctx context.Context) error
	Close() error
}

// Sync marker kinds
const (
	KindCategories = "evaluation-categories"
	KindItems      = "evaluation-items"
)

var (
	_ Repository = (*PostgresRepository)(nil)
	_ Repository = (*MemoryRepository)(nil)
)
