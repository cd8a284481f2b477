package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sallamaty/rounds-console/internal/mirror"
	"github.com/sallamaty/rounds-console/internal/storage"
)

var (
	databaseDSN   string
	migrationsDir string
)

// migrateCmd applies pending mirror database migrations
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending catalog mirror migrations",
	RunE:  runMigrate,
}

// syncCmd copies the evaluation catalog into the mirror once
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Copy the evaluation catalog into the mirror database",
	Long: `Copy evaluation categories and items from the backend into the mirror
database, using the signed-in session.`,
	RunE: runSync,
}

func init() {
	for _, c := range []*cobra.Command{migrateCmd, syncCmd} {
		c.Flags().StringVar(&databaseDSN, "dsn", "", "PostgreSQL DSN (default: database.dsn from config)")
	}
	migrateCmd.Flags().StringVar(&migrationsDir, "dir", "", "Migrations directory (default: database.migrations_dir from config)")
}

func resolveDSN() (string, error) {
	dsn := databaseDSN
	if dsn == "" {
		dsn = cfg.Database.DSN
	}
	if dsn == "" {
		return "", errors.New("no database configured, pass --dsn or set DATABASE_DSN")
	}
	return dsn, nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	dsn, err := resolveDSN()
	if err != nil {
		return err
	}
	dir := migrationsDir
	if dir == "" {
		dir = cfg.Database.MigrationsDir
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	applied, err := storage.MigrateFromDSN(ctx, dsn, dir)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Database is up to date")
		return nil
	}
	for _, name := range applied {
		fmt.Fprintf(cmd.OutOrStdout(), "Applied %s\n", name)
	}
	return nil
}

func runSync(cmd *cobra.Command, args []string) error {
	dsn, err := resolveDSN()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	repo, err := storage.NewPostgresRepository(ctx, storage.PostgresConfig{DSN: dsn})
	if err != nil {
		return err
	}
	defer repo.Close()

	_, c := openSession()
	if err := mirror.NewSyncer(c, repo, 0).Sync(ctx); err != nil {
		return err
	}

	categories, err := repo.ListCategories(ctx)
	if err != nil {
		return err
	}
	items, err := repo.ListItems(ctx, 0)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Mirrored %d categories and %d items\n", len(categories), len(items))
	return nil
}
