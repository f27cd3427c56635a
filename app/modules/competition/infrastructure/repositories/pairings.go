package competitiondb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
)

func (r *Impl) CreatePairing(ctx context.Context, db bun.IDB, p *TandemPairing) error {
	db = r.resolveDB(db)
	_, err := db.NewInsert().Model(p).Returning("*").Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrPairingConflict
		}
		return fmt.Errorf("failed to create pairing: %w", err)
	}
	return nil
}

func (r *Impl) DeletePairing(ctx context.Context, db bun.IDB, competitionID, mentorID, juniorID int64) error {
	db = r.resolveDB(db)
	result, err := db.NewDelete().
		Model((*TandemPairing)(nil)).
		Where("competition_id = ?", competitionID).
		Where("mentor_id = ?", mentorID).
		Where("junior_id = ?", juniorID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete pairing: %w", err)
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

// GetPairingFor finds the pairing that references the detachment in either role.
func (r *Impl) GetPairingFor(ctx context.Context, db bun.IDB, competitionID, detachmentID int64) (*TandemPairing, error) {
	db = r.resolveDB(db)
	p := new(TandemPairing)
	err := db.NewSelect().
		Model(p).
		Where("competition_id = ?", competitionID).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("mentor_id = ?", detachmentID).WhereOr("junior_id = ?", detachmentID)
		}).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get pairing: %w", err)
	}
	return p, nil
}

func (r *Impl) ListPairings(ctx context.Context, db bun.IDB, competitionID int64) ([]TandemPairing, error) {
	db = r.resolveDB(db)
	var out []TandemPairing
	err := db.NewSelect().
		Model(&out).
		Where("competition_id = ?", competitionID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pairings: %w", err)
	}
	return out, nil
}

func (r *Impl) AcquirePairingLock(ctx context.Context, db bun.IDB, competitionID int64) error {
	db = r.resolveDB(db)
	_, err := db.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", fmt.Sprintf("pairing:%d", competitionID)).Exec(ctx)
	if err != nil {
		return fmt.Errorf("competition.AcquirePairingLock: %w", err)
	}
	return nil
}
