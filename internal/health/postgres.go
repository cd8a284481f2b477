package health

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresChecker pings the legacy catalog database over database/sql
type PostgresChecker struct {
	db *sql.DB
}

// NewPostgresChecker opens a small dedicated pool for dsn. The connection
// is established lazily by the first check.
func NewPostgresChecker(dsn string) (*PostgresChecker, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return &PostgresChecker{db: db}, nil
}

func (p *PostgresChecker) Name() string { return "postgres" }

// Check pings the database and verifies the catalog schema is migrated
func (p *PostgresChecker) Check(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}

	var present bool
	err := p.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'schema_migrations')`,
	).Scan(&present)
	if err != nil {
		return fmt.Errorf("postgres schema check failed: %w", err)
	}
	if !present {
		return fmt.Errorf("postgres schema not migrated")
	}
	return nil
}

// Close closes the pool
func (p *PostgresChecker) Close() error {
	return p.db.Close()
}
