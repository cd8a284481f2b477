// Package mirror keeps a local copy of the evaluation catalog.
package mirror

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sallamaty/rounds-console/internal/storage"
	"github.com/sallamaty/rounds-console/pkg/models"
)

// Source lists the catalog from the backend
type Source interface {
	ListCategories(ctx context.Context) ([]models.EvaluationCategory, error)
	ListItems(ctx context.Context) ([]models.EvaluationItem, error)
}

// Syncer periodically copies evaluation categories and items from the
// backend into the local mirror
type Syncer struct {
	source   Source
	repo     storage.Repository
	interval time.Duration
	now      func() time.Time
}

// NewSyncer creates a new sync worker
func NewSyncer(source Source, repo storage.Repository, interval time.Duration) *Syncer {
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	return &Syncer{
		source:   source,
		repo:     repo,
		interval: interval,
		now:      time.Now,
	}
}

// Start begins the sync worker in a goroutine
func (s *Syncer) Start(ctx context.Context) {
	go s.run(ctx)
}

func (s *Syncer) run(ctx context.Context) {
	slog.Info("catalog mirror started", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run immediately on start
	s.syncLogged(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("catalog mirror stopped")
			return
		case <-ticker.C:
			s.syncLogged(ctx)
		}
	}
}

func (s *Syncer) syncLogged(ctx context.Context) {
	if err := s.Sync(ctx); err != nil {
		slog.Error("catalog sync failed", "error", err)
	}
}

// Sync runs one sync cycle. A failed fetch leaves the mirror untouched.
func (s *Syncer) Sync(ctx context.Context) error {
	slog.Debug("running catalog sync")

	categories, err := s.source.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch categories: %w", err)
	}
	items, err := s.source.ListItems(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch items: %w", err)
	}

	if err := s.repo.ReplaceCategories(ctx, categories); err != nil {
		return fmt.Errorf("failed to store categories: %w", err)
	}
	if err := s.repo.ReplaceItems(ctx, items); err != nil {
		return fmt.Errorf("failed to store items: %w", err)
	}

	at := s.now().UTC()
	for _, kind := range []string{storage.KindCategories, storage.KindItems} {
		if err := s.repo.MarkSynced(ctx, kind, at); err != nil {
			return err
		}
	}

	slog.Info("catalog synced", "categories", len(categories), "items", len(items))
	return nil
}
