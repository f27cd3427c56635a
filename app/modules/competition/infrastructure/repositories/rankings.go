package competitiondb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// RankingLockKey is the advisory lock key for one (competition, metric).
func RankingLockKey(competitionID int64, metric string) string {
	return fmt.Sprintf("ranking:%d:%s", competitionID, metric)
}

func (r *Impl) AcquireRankingLock(ctx context.Context, db bun.IDB, competitionID int64, metric string) error {
	db = r.resolveDB(db)
	// hashtext() gives a stable int4 for the textual key
	_, err := db.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", RankingLockKey(competitionID, metric)).Exec(ctx)
	if err != nil {
		return fmt.Errorf("competition.AcquireRankingLock: %w", err)
	}
	return nil
}

func (r *Impl) ReplaceRankings(ctx context.Context, db bun.IDB, competitionID int64, metric string, solo []Ranking, tandem []TandemRanking, computedAt time.Time) error {
	db = r.resolveDB(db)

	if _, err := db.NewDelete().
		Model((*Ranking)(nil)).
		Where("competition_id = ?", competitionID).
		Where("metric = ?", metric).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete solo rankings: %w", err)
	}
	if _, err := db.NewDelete().
		Model((*TandemRanking)(nil)).
		Where("competition_id = ?", competitionID).
		Where("metric = ?", metric).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete tandem rankings: %w", err)
	}

	if len(solo) > 0 {
		for i := range solo {
			solo[i].ComputedAt = computedAt
		}
		if _, err := db.NewInsert().Model(&solo).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert solo rankings: %w", err)
		}
	}
	if len(tandem) > 0 {
		for i := range tandem {
			tandem[i].ComputedAt = computedAt
		}
		if _, err := db.NewInsert().Model(&tandem).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert tandem rankings: %w", err)
		}
	}
	return nil
}

func (r *Impl) GetSoloPlace(ctx context.Context, db bun.IDB, competitionID int64, metric string, detachmentID int64) (*Ranking, error) {
	db = r.resolveDB(db)
	row := new(Ranking)
	err := db.NewSelect().
		Model(row).
		Where("competition_id = ?", competitionID).
		Where("metric = ?", metric).
		Where("detachment_id = ?", detachmentID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get solo place: %w", err)
	}
	return row, nil
}

func (r *Impl) GetTandemPlace(ctx context.Context, db bun.IDB, competitionID int64, metric string, mentorID, juniorID int64) (*TandemRanking, error) {
	db = r.resolveDB(db)
	row := new(TandemRanking)
	err := db.NewSelect().
		Model(row).
		Where("competition_id = ?", competitionID).
		Where("metric = ?", metric).
		Where("mentor_id = ?", mentorID).
		Where("junior_id = ?", juniorID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get tandem place: %w", err)
	}
	return row, nil
}

func (r *Impl) ListRankings(ctx context.Context, db bun.IDB, competitionID int64, metric string) ([]Ranking, []TandemRanking, error) {
	db = r.resolveDB(db)

	var solo []Ranking
	if err := db.NewSelect().
		Model(&solo).
		Where("competition_id = ?", competitionID).
		Where("metric = ?", metric).
		Order("place ASC", "detachment_id ASC").
		Scan(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to list solo rankings: %w", err)
	}

	var tandem []TandemRanking
	if err := db.NewSelect().
		Model(&tandem).
		Where("competition_id = ?", competitionID).
		Where("metric = ?", metric).
		Order("place ASC", "junior_id ASC", "mentor_id ASC").
		Scan(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to list tandem rankings: %w", err)
	}
	return solo, tandem, nil
}
