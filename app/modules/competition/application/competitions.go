package competitionservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	competitiondomain "github.com/d2avids/rso-sub000/app/modules/competition/domain"
	competitiondb "github.com/d2avids/rso-sub000/app/modules/competition/infrastructure/repositories"
	"github.com/d2avids/rso-sub000/app/shared/results"
	"github.com/uptrace/bun"
)

type competitionResult = results.OperationResult[*competitiondomain.Competition, error]

// CreateCompetition stores a new competition.
func (s *CompetitionService) CreateCompetition(ctx context.Context, c competitiondomain.Competition) (*competitiondomain.Competition, error) {
	result, err := withTelemetry(s, ctx, "CreateCompetition", c.Name, func(ctx context.Context) (competitionResult, error) {
		if err := c.Validate(); err != nil {
			return results.FailureResult[*competitiondomain.Competition, error](err), nil
		}
		row := &competitiondb.Competition{
			Name:     c.Name,
			StartsAt: dateOnly(c.StartsAt),
			EndsAt:   dateOnly(c.EndsAt),
		}
		if err := s.repo.CreateCompetition(ctx, nil, row); err != nil {
			return competitionResult{}, err
		}
		created := row.ToDomain()
		return results.SuccessResult[*competitiondomain.Competition, error](&created), nil
	})
	return unwrap(result, err)
}

// UpdateCompetition changes name and window while no report exists yet.
func (s *CompetitionService) UpdateCompetition(ctx context.Context, c competitiondomain.Competition) (*competitiondomain.Competition, error) {
	result, err := withTelemetry(s, ctx, "UpdateCompetition", fmt.Sprint(c.ID), func(ctx context.Context) (competitionResult, error) {
		if err := c.Validate(); err != nil {
			return results.FailureResult[*competitiondomain.Competition, error](err), nil
		}
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (competitionResult, error) {
			row, err := s.repo.GetCompetition(ctx, db, int64(c.ID))
			if err != nil {
				if errors.Is(err, competitiondb.ErrNotFound) {
					return results.FailureResult[*competitiondomain.Competition, error](err), nil
				}
				return competitionResult{}, err
			}

			n, err := s.repo.CountReports(ctx, db, row.ID)
			if err != nil {
				return competitionResult{}, err
			}
			if n > 0 {
				return results.FailureResult[*competitiondomain.Competition, error](competitiondomain.ErrCompetitionLocked), nil
			}

			row.Name = c.Name
			row.StartsAt = dateOnly(c.StartsAt)
			row.EndsAt = dateOnly(c.EndsAt)
			if err := s.repo.UpdateCompetition(ctx, db, row); err != nil {
				return competitionResult{}, err
			}
			updated := row.ToDomain()
			return results.SuccessResult[*competitiondomain.Competition, error](&updated), nil
		})
	})
	return unwrap(result, err)
}

// SetMetricCutoff parses input as a date in the ranking timezone and stores
// it as the metric's cutoff override.
func (s *CompetitionService) SetMetricCutoff(ctx context.Context, competitionID competitiondomain.CompetitionID, metric competitiondomain.MetricID, input string) (time.Time, error) {
	identifier := fmt.Sprintf("%d:%s", competitionID, metric)

	result, err := withTelemetry(s, ctx, "SetMetricCutoff", identifier, func(ctx context.Context) (results.OperationResult[time.Time, error], error) {
		rule, err := competitiondomain.Lookup(metric)
		if err != nil {
			return results.FailureResult[time.Time, error](competitiondomain.FieldError("metric", err.Error())), nil
		}

		cutoff, err := s.dates.ParseDate(input, s.clock.Now(), s.loc)
		if err != nil {
			return results.FailureResult[time.Time, error](competitiondomain.FieldError("cutoff_date", err.Error())), nil
		}

		if _, err := s.repo.GetCompetition(ctx, nil, int64(competitionID)); err != nil {
			if errors.Is(err, competitiondb.ErrNotFound) {
				return results.FailureResult[time.Time, error](err), nil
			}
			return results.OperationResult[time.Time, error]{}, err
		}

		if err := s.repo.UpsertCutoff(ctx, nil, &competitiondb.MetricCutoff{
			CompetitionID: int64(competitionID),
			Metric:        string(rule.ID),
			CutoffDate:    cutoff,
		}); err != nil {
			return results.OperationResult[time.Time, error]{}, err
		}
		return results.SuccessResult[time.Time, error](cutoff), nil
	})
	return unwrap(result, err)
}

// UpsertDetachment records a registry update.
func (s *CompetitionService) UpsertDetachment(ctx context.Context, d competitiondomain.Detachment) (*competitiondomain.Detachment, error) {
	result, err := withTelemetry(s, ctx, "UpsertDetachment", fmt.Sprint(d.ID), func(ctx context.Context) (results.OperationResult[*competitiondomain.Detachment, error], error) {
		verr := competitiondomain.NewValidationError()
		if d.ID <= 0 {
			verr.Add("detachment_id", "must be positive")
		}
		if d.Name == "" {
			verr.Add("name", "this field is required")
		}
		if verr.HasErrors() {
			return results.FailureResult[*competitiondomain.Detachment, error](verr), nil
		}

		row := &competitiondb.Detachment{ID: int64(d.ID), Name: d.Name, FoundedAt: d.FoundedAt}
		if err := s.repo.UpsertDetachment(ctx, nil, row); err != nil {
			return results.OperationResult[*competitiondomain.Detachment, error]{}, err
		}
		stored := row.ToDomain()
		return results.SuccessResult[*competitiondomain.Detachment, error](&stored), nil
	})
	return unwrap(result, err)
}
