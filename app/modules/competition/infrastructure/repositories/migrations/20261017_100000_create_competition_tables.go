package competitionmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating competition tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS competitions (
					id BIGSERIAL PRIMARY KEY,
					name VARCHAR(255) NOT NULL,
					starts_at DATE NOT NULL,
					ends_at DATE NOT NULL,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					CHECK (ends_at >= starts_at)
				);

				CREATE TABLE IF NOT EXISTS competition_metric_cutoffs (
					competition_id BIGINT NOT NULL REFERENCES competitions(id) ON DELETE CASCADE,
					metric VARCHAR(8) NOT NULL,
					cutoff_date DATE NOT NULL,
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					PRIMARY KEY (competition_id, metric)
				);

				CREATE TABLE IF NOT EXISTS detachments (
					id BIGINT PRIMARY KEY,
					name VARCHAR(255) NOT NULL,
					founded_at DATE,
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
			`); err != nil {
				return fmt.Errorf("failed to create competition tables: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS tandem_pairings (
					id BIGSERIAL PRIMARY KEY,
					competition_id BIGINT NOT NULL REFERENCES competitions(id) ON DELETE CASCADE,
					mentor_id BIGINT NOT NULL,
					junior_id BIGINT NOT NULL,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					CHECK (mentor_id <> junior_id)
				);
				CREATE UNIQUE INDEX IF NOT EXISTS idx_tandem_pairings_mentor ON tandem_pairings(competition_id, mentor_id);
				CREATE UNIQUE INDEX IF NOT EXISTS idx_tandem_pairings_junior ON tandem_pairings(competition_id, junior_id);
			`); err != nil {
				return fmt.Errorf("failed to create tandem_pairings table: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS metric_reports (
					id BIGSERIAL PRIMARY KEY,
					competition_id BIGINT NOT NULL REFERENCES competitions(id) ON DELETE CASCADE,
					detachment_id BIGINT NOT NULL,
					metric VARCHAR(8) NOT NULL,
					data JSONB NOT NULL DEFAULT '{}'::jsonb,
					is_verified BOOLEAN NOT NULL DEFAULT FALSE,
					score DOUBLE PRECISION,
					verified_at TIMESTAMPTZ,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					UNIQUE (competition_id, detachment_id, metric)
				);
				CREATE INDEX IF NOT EXISTS idx_metric_reports_verified
					ON metric_reports(competition_id, metric) WHERE is_verified;
			`); err != nil {
				return fmt.Errorf("failed to create metric_reports table: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS competition_rankings (
					competition_id BIGINT NOT NULL REFERENCES competitions(id) ON DELETE CASCADE,
					metric VARCHAR(8) NOT NULL,
					detachment_id BIGINT NOT NULL,
					place INTEGER NOT NULL CHECK (place >= 1),
					score DOUBLE PRECISION NOT NULL,
					computed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					PRIMARY KEY (competition_id, metric, detachment_id)
				);

				CREATE TABLE IF NOT EXISTS competition_tandem_rankings (
					competition_id BIGINT NOT NULL REFERENCES competitions(id) ON DELETE CASCADE,
					metric VARCHAR(8) NOT NULL,
					mentor_id BIGINT NOT NULL,
					junior_id BIGINT NOT NULL,
					place INTEGER NOT NULL CHECK (place >= 1),
					score DOUBLE PRECISION NOT NULL,
					computed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					PRIMARY KEY (competition_id, metric, mentor_id, junior_id)
				);
			`); err != nil {
				return fmt.Errorf("failed to create ranking tables: %w", err)
			}

			fmt.Println("Competition tables created successfully!")
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Rolling back competition tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				DROP TABLE IF EXISTS competition_tandem_rankings;
				DROP TABLE IF EXISTS competition_rankings;
				DROP TABLE IF EXISTS metric_reports;
				DROP TABLE IF EXISTS tandem_pairings;
				DROP TABLE IF EXISTS detachments;
				DROP TABLE IF EXISTS competition_metric_cutoffs;
				DROP TABLE IF EXISTS competitions;
			`); err != nil {
				return fmt.Errorf("failed to drop competition tables: %w", err)
			}
			return nil
		})
	})
}
