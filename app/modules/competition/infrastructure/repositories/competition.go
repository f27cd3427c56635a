package competitiondb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new competition repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

// resolveDB returns the provided db handle, falling back to the repository's
// default connection if db is nil.
func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

func (r *Impl) CreateCompetition(ctx context.Context, db bun.IDB, c *Competition) error {
	db = r.resolveDB(db)
	if _, err := db.NewInsert().Model(c).Returning("*").Exec(ctx); err != nil {
		return fmt.Errorf("failed to create competition: %w", err)
	}
	return nil
}

func (r *Impl) GetCompetition(ctx context.Context, db bun.IDB, id int64) (*Competition, error) {
	db = r.resolveDB(db)
	c := new(Competition)
	err := db.NewSelect().Model(c).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get competition: %w", err)
	}
	return c, nil
}

// UpdateCompetition rewrites the name and window of a competition.
func (r *Impl) UpdateCompetition(ctx context.Context, db bun.IDB, c *Competition) error {
	db = r.resolveDB(db)
	result, err := db.NewUpdate().
		Model(c).
		Column("name", "starts_at", "ends_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update competition: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Impl) ListCompetitions(ctx context.Context, db bun.IDB) ([]Competition, error) {
	db = r.resolveDB(db)
	var out []Competition
	if err := db.NewSelect().Model(&out).Order("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list competitions: %w", err)
	}
	return out, nil
}

func (r *Impl) GetCutoff(ctx context.Context, db bun.IDB, competitionID int64, metric string) (*MetricCutoff, error) {
	db = r.resolveDB(db)
	cutoff := new(MetricCutoff)
	err := db.NewSelect().
		Model(cutoff).
		Where("competition_id = ?", competitionID).
		Where("metric = ?", metric).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get metric cutoff: %w", err)
	}
	return cutoff, nil
}

func (r *Impl) ListCutoffs(ctx context.Context, db bun.IDB, competitionID int64) ([]MetricCutoff, error) {
	db = r.resolveDB(db)
	var out []MetricCutoff
	err := db.NewSelect().
		Model(&out).
		Where("competition_id = ?", competitionID).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list metric cutoffs: %w", err)
	}
	return out, nil
}

func (r *Impl) UpsertCutoff(ctx context.Context, db bun.IDB, cutoff *MetricCutoff) error {
	db = r.resolveDB(db)
	cutoff.UpdatedAt = time.Now()
	_, err := db.NewInsert().
		Model(cutoff).
		On("CONFLICT (competition_id, metric) DO UPDATE").
		Set("cutoff_date = EXCLUDED.cutoff_date").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert metric cutoff: %w", err)
	}
	return nil
}

// UpsertDetachment creates or updates a registry entry.
func (r *Impl) UpsertDetachment(ctx context.Context, db bun.IDB, d *Detachment) error {
	db = r.resolveDB(db)
	d.UpdatedAt = time.Now()
	_, err := db.NewInsert().
		Model(d).
		On("CONFLICT (id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("founded_at = EXCLUDED.founded_at").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert detachment: %w", err)
	}
	return nil
}

func (r *Impl) GetDetachments(ctx context.Context, db bun.IDB, ids []int64) ([]Detachment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	db = r.resolveDB(db)
	var out []Detachment
	if err := db.NewSelect().Model(&out).Where("id IN (?)", bun.In(ids)).Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to get detachments: %w", err)
	}
	return out, nil
}
