package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sallamaty/rounds-console/pkg/models"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int32
	MaxIdleConns int32
	MaxLifetime  time.Duration
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	} else {
		poolConfig.MaxConns = 10
	}

	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = cfg.MaxIdleConns
	} else {
		poolConfig.MinConns = 1
	}

	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	} else {
		poolConfig.MaxConnLifetime = 30 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// Pool exposes the underlying pool for migrations
func (r *PostgresRepository) Pool() *pgxpool.Pool {
	return r.pool
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

const categoryColumns = `id, name, name_en, description, color, icon, weight_percentage, is_active`

// ListCategories returns every mirrored category ordered by name
func (r *PostgresRepository) ListCategories(ctx context.Context) ([]models.EvaluationCategory, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+categoryColumns+` FROM evaluation_categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]models.EvaluationCategory, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, *c)
	}

	return categories, rows.Err()
}

// GetCategory retrieves a category by ID
func (r *PostgresRepository) GetCategory(ctx context.Context, id int64) (*models.EvaluationCategory, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM evaluation_categories WHERE id = $1`, id)
	c, err := scanCategory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return c, nil
}

// ReplaceCategories makes the mirror hold exactly the given categories
func (r *PostgresRepository) ReplaceCategories(ctx context.Context, categories []models.EvaluationCategory) error {
	ids := make([]int64, len(categories))
	batch := &pgx.Batch{}
	for i, c := range categories {
		ids[i] = c.ID
		batch.Queue(`
			INSERT INTO evaluation_categories (id, name, name_en, description, color, icon, weight_percentage, is_active, synced_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				name_en = EXCLUDED.name_en,
				description = EXCLUDED.description,
				color = EXCLUDED.color,
				icon = EXCLUDED.icon,
				weight_percentage = EXCLUDED.weight_percentage,
				is_active = EXCLUDED.is_active,
				synced_at = EXCLUDED.synced_at
		`,
			c.ID,
			c.Name,
			nullString(c.NameEn),
			nullString(c.Description),
			nullString(c.Color),
			nullString(c.Icon),
			c.WeightPct,
			c.IsActive,
		)
	}

	return r.replace(ctx, "evaluation_categories", ids, batch)
}

const itemColumns = `id, code, title, title_en, description, category_id, category_name,
	objective_elements, evaluation_criteria, risk_level, is_required, is_active, display_order`

// ListItems returns mirrored items, optionally restricted to one category
func (r *PostgresRepository) ListItems(ctx context.Context, categoryID int64) ([]models.EvaluationItem, error) {
	query := `SELECT ` + itemColumns + ` FROM evaluation_items`
	args := make([]interface{}, 0, 1)
	if categoryID > 0 {
		query += ` WHERE category_id = $1`
		args = append(args, categoryID)
	}
	query += ` ORDER BY category_id, display_order, id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	items := make([]models.EvaluationItem, 0)
	for rows.Next() {
		var it models.EvaluationItem
		var code, titleEn, description, categoryName, objective, criteria, risk sql.NullString

		err := rows.Scan(
			&it.ID,
			&code,
			&it.Title,
			&titleEn,
			&description,
			&it.CategoryID,
			&categoryName,
			&objective,
			&criteria,
			&risk,
			&it.IsRequired,
			&it.IsActive,
			&it.DisplayOrder,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}

		it.Code = code.String
		it.TitleEn = titleEn.String
		it.Description = description.String
		it.CategoryName = categoryName.String
		it.ObjectiveElements = objective.String
		it.EvaluationCriteria = criteria.String
		it.RiskLevel = risk.String
		items = append(items, it)
	}

	return items, rows.Err()
}

// ReplaceItems makes the mirror hold exactly the given items
func (r *PostgresRepository) ReplaceItems(ctx context.Context, items []models.EvaluationItem) error {
	ids := make([]int64, len(items))
	batch := &pgx.Batch{}
	for i, it := range items {
		ids[i] = it.ID
		batch.Queue(`
			INSERT INTO evaluation_items (id, code, title, title_en, description, category_id, category_name,
				objective_elements, evaluation_criteria, risk_level, is_required, is_active, display_order, synced_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
			ON CONFLICT (id) DO UPDATE SET
				code = EXCLUDED.code,
				title = EXCLUDED.title,
				title_en = EXCLUDED.title_en,
				description = EXCLUDED.description,
				category_id = EXCLUDED.category_id,
				category_name = EXCLUDED.category_name,
				objective_elements = EXCLUDED.objective_elements,
				evaluation_criteria = EXCLUDED.evaluation_criteria,
				risk_level = EXCLUDED.risk_level,
				is_required = EXCLUDED.is_required,
				is_active = EXCLUDED.is_active,
				display_order = EXCLUDED.display_order,
				synced_at = EXCLUDED.synced_at
		`,
			it.ID,
			nullString(it.Code),
			it.Title,
			nullString(it.TitleEn),
			nullString(it.Description),
			it.CategoryID,
			nullString(it.CategoryName),
			nullString(it.ObjectiveElements),
			nullString(it.EvaluationCriteria),
			nullString(it.RiskLevel),
			it.IsRequired,
			it.IsActive,
			it.DisplayOrder,
		)
	}

	return r.replace(ctx, "evaluation_items", ids, batch)
}

// replace upserts the batch and removes rows whose id is not in keep,
// all in one transaction
func (r *PostgresRepository) replace(ctx context.Context, table string, keep []int64, batch *pgx.Batch) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE NOT (id = ANY($1))`, keep); err != nil {
		return fmt.Errorf("failed to prune %s: %w", table, err)
	}

	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to upsert %s: %w", table, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit %s: %w", table, err)
	}
	return nil
}

// MarkSynced records a successful sync of kind
func (r *PostgresRepository) MarkSynced(ctx context.Context, kind string, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO sync_markers (kind, synced_at) VALUES ($1, $2)
		ON CONFLICT (kind) DO UPDATE SET synced_at = EXCLUDED.synced_at
	`, kind, at)
	if err != nil {
		return fmt.Errorf("failed to mark %s synced: %w", kind, err)
	}
	return nil
}

// LastSynced returns when kind was last synced, or ErrNotFound
func (r *PostgresRepository) LastSynced(ctx context.Context, kind string) (time.Time, error) {
	var at time.Time
	err := r.pool.QueryRow(ctx, `SELECT synced_at FROM sync_markers WHERE kind = $1`, kind).Scan(&at)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, ErrNotFound
		}
		return time.Time{}, fmt.Errorf("failed to get sync marker: %w", err)
	}
	return at, nil
}

func scanCategory(row pgx.Row) (*models.EvaluationCategory, error) {
	var c models.EvaluationCategory
	var nameEn, description, color, icon sql.NullString

	err := row.Scan(
		&c.ID,
		&c.Name,
		&nameEn,
		&description,
		&color,
		&icon,
		&c.WeightPct,
		&c.IsActive,
	)
	if err != nil {
		return nil, err
	}

	c.NameEn = nameEn.String
	c.Description = description.String
	c.Color = color.String
	c.Icon = icon.String
	return &c, nil
}

// Helper functions for nullable types

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
