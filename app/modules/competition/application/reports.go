package competitionservice

import (
	"context"
	"errors"
	"fmt"

	competitiondomain "github.com/d2avids/rso-sub000/app/modules/competition/domain"
	competitiondb "github.com/d2avids/rso-sub000/app/modules/competition/infrastructure/repositories"
	"github.com/d2avids/rso-sub000/app/shared/observability/attr"
	"github.com/d2avids/rso-sub000/app/shared/results"
	"github.com/uptrace/bun"
)

type reportResult = results.OperationResult[*competitiondomain.Report, error]

func (k ReportKey) String() string {
	return fmt.Sprintf("%d:%d:%s", k.CompetitionID, k.DetachmentID, k.Metric)
}

// SubmitReport validates and stores a new unverified report.
func (s *CompetitionService) SubmitReport(ctx context.Context, req ReportRequest) (*competitiondomain.Report, error) {
	result, err := withTelemetry(s, ctx, "SubmitReport", req.String(), func(ctx context.Context) (reportResult, error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (reportResult, error) {
			return s.submitReportLogic(ctx, db, req)
		})
	})
	return unwrap(result, err)
}

func (s *CompetitionService) submitReportLogic(ctx context.Context, db bun.IDB, req ReportRequest) (reportResult, error) {
	rule, failure, err := s.checkReportable(ctx, db, req.ReportKey)
	if failure != nil || err != nil {
		return failureOr[*competitiondomain.Report](failure, err)
	}
	if err := rule.Validate(req.Data); err != nil {
		return results.FailureResult[*competitiondomain.Report, error](err), nil
	}

	row := competitiondb.ReportFromDomain(competitiondomain.Report{
		CompetitionID: req.CompetitionID,
		DetachmentID:  req.DetachmentID,
		Metric:        rule.ID,
		Data:          req.Data,
	})
	if err := s.repo.CreateReport(ctx, db, row); err != nil {
		if errors.Is(err, competitiondb.ErrDuplicateReport) {
			return results.FailureResult[*competitiondomain.Report, error](err), nil
		}
		return reportResult{}, err
	}

	report := row.ToDomain()
	return results.SuccessResult[*competitiondomain.Report, error](&report), nil
}

// EditReport replaces the data of an existing report. A verified report is
// rescored and its metric recomputed.
func (s *CompetitionService) EditReport(ctx context.Context, req ReportRequest) (*competitiondomain.Report, error) {
	result, err := withTelemetry(s, ctx, "EditReport", req.String(), func(ctx context.Context) (reportResult, error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (reportResult, error) {
			return s.editReportLogic(ctx, db, req)
		})
	})
	report, err := unwrap(result, err)
	if err != nil {
		return nil, err
	}

	if report.IsVerified {
		s.recomputeAfterWrite(ctx, report.CompetitionID, report.Metric)
	}
	return report, nil
}

func (s *CompetitionService) editReportLogic(ctx context.Context, db bun.IDB, req ReportRequest) (reportResult, error) {
	rule, failure, err := s.checkReportable(ctx, db, req.ReportKey)
	if failure != nil || err != nil {
		return failureOr[*competitiondomain.Report](failure, err)
	}
	if err := rule.Validate(req.Data); err != nil {
		return results.FailureResult[*competitiondomain.Report, error](err), nil
	}

	row, err := s.repo.GetReport(ctx, db, int64(req.CompetitionID), int64(req.DetachmentID), string(rule.ID))
	if err != nil {
		if errors.Is(err, competitiondb.ErrNotFound) {
			return results.FailureResult[*competitiondomain.Report, error](err), nil
		}
		return reportResult{}, err
	}

	row.Data = req.Data
	if row.IsVerified {
		score, err := rule.Score(row.ToDomain())
		if err != nil {
			return reportResult{}, err
		}
		row.Score = &score
	}
	if err := s.repo.UpdateReport(ctx, db, row); err != nil {
		return reportResult{}, err
	}

	report := row.ToDomain()
	return results.SuccessResult[*competitiondomain.Report, error](&report), nil
}

// VerifyReport marks a report verified, stores its score and recomputes the
// metric. A failed recompute is logged and does not fail the verification.
func (s *CompetitionService) VerifyReport(ctx context.Context, key ReportKey) (*competitiondomain.Report, error) {
	var changed bool
	result, err := withTelemetry(s, ctx, "VerifyReport", key.String(), func(ctx context.Context) (reportResult, error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (reportResult, error) {
			res, was, err := s.verifyReportLogic(ctx, db, key)
			changed = !was
			return res, err
		})
	})
	report, err := unwrap(result, err)
	if err != nil {
		return nil, err
	}

	if changed {
		s.recomputeAfterWrite(ctx, report.CompetitionID, report.Metric)
	}
	return report, nil
}

// verifyReportLogic reports whether the report was already verified.
func (s *CompetitionService) verifyReportLogic(ctx context.Context, db bun.IDB, key ReportKey) (reportResult, bool, error) {
	rule, err := competitiondomain.Lookup(key.Metric)
	if err != nil {
		return results.FailureResult[*competitiondomain.Report, error](err), false, nil
	}

	row, err := s.repo.GetReport(ctx, db, int64(key.CompetitionID), int64(key.DetachmentID), string(rule.ID))
	if err != nil {
		if errors.Is(err, competitiondb.ErrNotFound) {
			return results.FailureResult[*competitiondomain.Report, error](err), false, nil
		}
		return reportResult{}, false, err
	}
	if row.IsVerified {
		report := row.ToDomain()
		return results.SuccessResult[*competitiondomain.Report, error](&report), true, nil
	}

	now := s.clock.Now().UTC()
	row.IsVerified = true
	row.VerifiedAt = &now
	score, err := rule.Score(row.ToDomain())
	if err != nil {
		return reportResult{}, false, err
	}
	row.Score = &score

	if err := s.repo.UpdateReport(ctx, db, row); err != nil {
		return reportResult{}, false, err
	}

	report := row.ToDomain()
	return results.SuccessResult[*competitiondomain.Report, error](&report), false, nil
}

// DeleteReport removes an unverified report.
func (s *CompetitionService) DeleteReport(ctx context.Context, key ReportKey) error {
	result, err := withTelemetry(s, ctx, "DeleteReport", key.String(), func(ctx context.Context) (results.OperationResult[struct{}, error], error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[struct{}, error], error) {
			row, err := s.repo.GetReport(ctx, db, int64(key.CompetitionID), int64(key.DetachmentID), string(key.Metric))
			if err != nil {
				if errors.Is(err, competitiondb.ErrNotFound) {
					return results.FailureResult[struct{}, error](err), nil
				}
				return results.OperationResult[struct{}, error]{}, err
			}
			if row.IsVerified {
				return results.FailureResult[struct{}, error](competitiondomain.ErrReportVerified), nil
			}
			if err := s.repo.DeleteUnverifiedReport(ctx, db, row.CompetitionID, row.DetachmentID, row.Metric); err != nil {
				if errors.Is(err, competitiondb.ErrNotFound) {
					return results.FailureResult[struct{}, error](err), nil
				}
				return results.OperationResult[struct{}, error]{}, err
			}
			return results.SuccessResult[struct{}, error](struct{}{}), nil
		})
	})
	_, err = unwrap(result, err)
	return err
}

// GetReport returns one report in any verification state.
func (s *CompetitionService) GetReport(ctx context.Context, key ReportKey) (*competitiondomain.Report, error) {
	result, err := withTelemetry(s, ctx, "GetReport", key.String(), func(ctx context.Context) (reportResult, error) {
		row, err := s.repo.GetReport(ctx, nil, int64(key.CompetitionID), int64(key.DetachmentID), string(key.Metric))
		if err != nil {
			if errors.Is(err, competitiondb.ErrNotFound) {
				return results.FailureResult[*competitiondomain.Report, error](err), nil
			}
			return reportResult{}, err
		}
		report := row.ToDomain()
		return results.SuccessResult[*competitiondomain.Report, error](&report), nil
	})
	return unwrap(result, err)
}

// checkReportable resolves the metric rule and enforces the reporting
// window: reports are accepted from the competition start until the cutoff.
func (s *CompetitionService) checkReportable(ctx context.Context, db bun.IDB, key ReportKey) (rule competitiondomain.MetricRule, failure error, err error) {
	rule, err = competitiondomain.Lookup(key.Metric)
	if err != nil {
		return competitiondomain.MetricRule{}, competitiondomain.FieldError("metric", err.Error()), nil
	}

	competition, cutoff, err := s.loadCutoff(ctx, db, int64(key.CompetitionID), string(rule.ID))
	if err != nil {
		if errors.Is(err, competitiondb.ErrNotFound) {
			return rule, err, nil
		}
		return rule, nil, err
	}

	if s.today().Before(dateOnly(competition.StartsAt)) ||
		competitiondomain.StateAt(cutoff, s.clock.Now(), s.loc) == competitiondomain.StateFrozen {
		return rule, competitiondomain.ErrReportingClosed, nil
	}
	return rule, nil, nil
}

// recomputeAfterWrite runs the synchronous recompute that follows a report
// change. Errors are logged; the next trigger retries.
func (s *CompetitionService) recomputeAfterWrite(ctx context.Context, competitionID competitiondomain.CompetitionID, metric competitiondomain.MetricID) {
	outcome, err := s.Recompute(ctx, competitionID, metric)
	if err != nil {
		s.logger.ErrorContext(ctx, "Recompute after report change failed",
			attr.ExtractCorrelationID(ctx),
			attr.Int64("competition_id", int64(competitionID)),
			attr.String("metric", string(metric)),
			attr.Error(err),
		)
		return
	}
	s.logger.InfoContext(ctx, "Recompute after report change finished",
		attr.ExtractCorrelationID(ctx),
		attr.Int64("competition_id", int64(competitionID)),
		attr.String("metric", string(metric)),
		attr.String("status", string(outcome.Status)),
	)
}

// failureOr converts a domain failure or infrastructure error into the
// result shape of an operation.
func failureOr[S any](failure, err error) (results.OperationResult[S, error], error) {
	if err != nil {
		return results.OperationResult[S, error]{}, err
	}
	return results.FailureResult[S, error](failure), nil
}
