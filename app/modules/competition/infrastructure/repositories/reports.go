package competitiondb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// CreateReport inserts a new report. A second report for the same
// (competition, detachment, metric) yields ErrDuplicateReport.
func (r *Impl) CreateReport(ctx context.Context, db bun.IDB, report *MetricReport) error {
	db = r.resolveDB(db)
	_, err := db.NewInsert().Model(report).Returning("*").Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateReport
		}
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

func (r *Impl) GetReport(ctx context.Context, db bun.IDB, competitionID, detachmentID int64, metric string) (*MetricReport, error) {
	db = r.resolveDB(db)
	report := new(MetricReport)
	err := db.NewSelect().
		Model(report).
		Where("competition_id = ?", competitionID).
		Where("detachment_id = ?", detachmentID).
		Where("metric = ?", metric).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return report, nil
}

// UpdateReport stores data, verification state and score by report id.
func (r *Impl) UpdateReport(ctx context.Context, db bun.IDB, report *MetricReport) error {
	db = r.resolveDB(db)
	report.UpdatedAt = time.Now()
	result, err := db.NewUpdate().
		Model(report).
		Column("data", "is_verified", "score", "verified_at", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update report: %w", err)
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

func (r *Impl) DeleteUnverifiedReport(ctx context.Context, db bun.IDB, competitionID, detachmentID int64, metric string) error {
	db = r.resolveDB(db)
	result, err := db.NewDelete().
		Model((*MetricReport)(nil)).
		Where("competition_id = ?", competitionID).
		Where("detachment_id = ?", detachmentID).
		Where("metric = ?", metric).
		Where("is_verified = false").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
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

func (r *Impl) ListVerifiedReports(ctx context.Context, db bun.IDB, competitionID int64, metric string) ([]MetricReport, error) {
	db = r.resolveDB(db)
	var out []MetricReport
	err := db.NewSelect().
		Model(&out).
		Where("competition_id = ?", competitionID).
		Where("metric = ?", metric).
		Where("is_verified = true").
		Order("detachment_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list verified reports: %w", err)
	}
	return out, nil
}

func (r *Impl) AnyReport(ctx context.Context, db bun.IDB, competitionID int64, metric string, detachmentIDs ...int64) (bool, error) {
	if len(detachmentIDs) == 0 {
		return false, nil
	}
	db = r.resolveDB(db)
	exists, err := db.NewSelect().
		Model((*MetricReport)(nil)).
		Where("competition_id = ?", competitionID).
		Where("metric = ?", metric).
		Where("detachment_id IN (?)", bun.In(detachmentIDs)).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check reports: %w", err)
	}
	return exists, nil
}

func (r *Impl) CountReports(ctx context.Context, db bun.IDB, competitionID int64) (int, error) {
	db = r.resolveDB(db)
	n, err := db.NewSelect().
		Model((*MetricReport)(nil)).
		Where("competition_id = ?", competitionID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count reports: %w", err)
	}
	return n, nil
}
