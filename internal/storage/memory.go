package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sallamaty/rounds-console/pkg/models"
)

// MemoryRepository is an in-process Repository used when no database is
// configured
type MemoryRepository struct {
	mu         sync.RWMutex
	categories map[int64]models.EvaluationCategory
	items      map[int64]models.EvaluationItem
	synced     map[string]time.Time
}

// NewMemoryRepository creates an empty MemoryRepository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		categories: make(map[int64]models.EvaluationCategory),
		items:      make(map[int64]models.EvaluationItem),
		synced:     make(map[string]time.Time),
	}
}

func (m *MemoryRepository) ListCategories(ctx context.Context) ([]models.EvaluationCategory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.EvaluationCategory, 0, len(m.categories))
	for _, c := range m.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryRepository) GetCategory(ctx context.Context, id int64) (*models.EvaluationCategory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.categories[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (m *MemoryRepository) ReplaceCategories(ctx context.Context, categories []models.EvaluationCategory) error {
	next := make(map[int64]models.EvaluationCategory, len(categories))
	for _, c := range categories {
		next[c.ID] = c
	}

	m.mu.Lock()
	m.categories = next
	m.mu.Unlock()
	return nil
}

func (m *MemoryRepository) ListItems(ctx context.Context, categoryID int64) ([]models.EvaluationItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.EvaluationItem, 0, len(m.items))
	for _, it := range m.items {
		if categoryID > 0 && it.CategoryID != categoryID {
			continue
		}
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.CategoryID != b.CategoryID {
			return a.CategoryID < b.CategoryID
		}
		if a.DisplayOrder != b.DisplayOrder {
			return a.DisplayOrder < b.DisplayOrder
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (m *MemoryRepository) ReplaceItems(ctx context.Context, items []models.EvaluationItem) error {
	next := make(map[int64]models.EvaluationItem, len(items))
	for _, it := range items {
		next[it.ID] = it
	}

	m.mu.Lock()
	m.items = next
	m.mu.Unlock()
	return nil
}

func (m *MemoryRepository) MarkSynced(ctx context.Context, kind string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.synced[kind] = at
	return nil
}

func (m *MemoryRepository) LastSynced(ctx context.Context, kind string) (time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	at, ok := m.synced[kind]
	if !ok {
		return time.Time{}, ErrNotFound
	}
	return at, nil
}

func (m *MemoryRepository) Ping(ctx context.Context) error { return nil }

func (m *MemoryRepository) Close() error { return nil }
