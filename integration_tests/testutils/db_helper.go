package testutils

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"

	competitionmigrations "github.com/d2avids/rso-sub000/app/modules/competition/infrastructure/repositories/migrations"
)

// runMigrations creates the bun migration tables, the river schema and the
// competition tables.
func runMigrations(ctx context.Context, db *bun.DB, pgConnStr string) error {
	migrator := migrate.NewMigrator(db, competitionmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize migration tables: %w", err)
	}

	if err := runRiverMigrations(ctx, pgConnStr); err != nil {
		return fmt.Errorf("failed to run River migrations: %w", err)
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("failed to run competition migrations: %w", err)
	}
	log.Printf("Ran competition migrations group #%d", group.ID)
	return nil
}

func runRiverMigrations(ctx context.Context, pgConnStr string) error {
	pool, err := pgxpool.New(ctx, pgConnStr)
	if err != nil {
		return fmt.Errorf("failed to create pgx pool for River migrations: %w", err)
	}
	defer pool.Close()

	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("failed to create River migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, &rivermigrate.MigrateOpts{}); err != nil {
		return fmt.Errorf("failed to run River migrations: %w", err)
	}
	return nil
}

var appTables = []string{
	"competition_tandem_rankings",
	"competition_rankings",
	"metric_reports",
	"tandem_pairings",
	"competition_metric_cutoffs",
	"detachments",
	"competitions",
}

// CleanupDatabase truncates every competition table and the river job table.
// Sequences keep counting so cached places of earlier tests never collide.
func CleanupDatabase(ctx context.Context, db *bun.DB) error {
	query := fmt.Sprintf("TRUNCATE TABLE %s CASCADE", strings.Join(appTables, ", "))
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}
	if _, err := db.ExecContext(ctx, "DELETE FROM river_job"); err != nil {
		return fmt.Errorf("failed to cleanup river jobs: %w", err)
	}
	return nil
}
