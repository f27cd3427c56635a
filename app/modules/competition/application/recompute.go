package competitionservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	competitiondomain "github.com/d2avids/rso-sub000/app/modules/competition/domain"
	competitionevents "github.com/d2avids/rso-sub000/app/modules/competition/domain/events"
	competitiondb "github.com/d2avids/rso-sub000/app/modules/competition/infrastructure/repositories"
	"github.com/d2avids/rso-sub000/app/shared/observability/attr"
	competitionmetrics "github.com/d2avids/rso-sub000/app/shared/observability/metrics/competition"
	"github.com/d2avids/rso-sub000/app/shared/results"
	"github.com/uptrace/bun"
)

type recomputeResult = results.OperationResult[*competitiondomain.RecomputeOutcome, error]

// Recompute rebuilds both stored pools of (competition, metric) from its
// verified reports. A frozen metric or one without verified reports is left
// untouched and reported through the outcome status.
func (s *CompetitionService) Recompute(ctx context.Context, competitionID competitiondomain.CompetitionID, metric competitiondomain.MetricID) (*competitiondomain.RecomputeOutcome, error) {
	identifier := competitiondb.RankingLockKey(int64(competitionID), string(metric))

	result, err := withTelemetry(s, ctx, "Recompute", identifier, func(ctx context.Context) (recomputeResult, error) {
		rule, err := competitiondomain.Lookup(metric)
		if err != nil {
			return results.FailureResult[*competitiondomain.RecomputeOutcome, error](err), nil
		}

		unlock := s.locks.Lock(identifier)
		defer unlock()

		start := time.Now()
		res, err := runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (recomputeResult, error) {
			return s.recomputeLogic(ctx, db, competitionID, rule)
		})

		status := competitiondomain.RecomputeFailed
		if err == nil && res.IsSuccess() {
			status = (*res.Success).Status
		}
		if s.metrics != nil {
			s.metrics.RecordRecompute(ctx, string(metric), string(status), time.Since(start))
		}
		if err != nil || res.IsFailure() {
			return res, err
		}

		outcome := *res.Success
		s.afterRecompute(ctx, outcome)
		return res, nil
	})

	return unwrap(result, err)
}

func (s *CompetitionService) recomputeLogic(ctx context.Context, db bun.IDB, competitionID competitiondomain.CompetitionID, rule competitiondomain.MetricRule) (recomputeResult, error) {
	cid := int64(competitionID)
	metric := string(rule.ID)

	if err := s.repo.AcquireRankingLock(ctx, db, cid, metric); err != nil {
		return recomputeResult{}, err
	}

	competition, cutoff, err := s.loadCutoff(ctx, db, cid, metric)
	if err != nil {
		if errors.Is(err, competitiondb.ErrNotFound) {
			return results.FailureResult[*competitiondomain.RecomputeOutcome, error](err), nil
		}
		return recomputeResult{}, err
	}

	outcome := &competitiondomain.RecomputeOutcome{
		CompetitionID: competitionID,
		Metric:        rule.ID,
		Cutoff:        cutoff,
	}

	if competitiondomain.StateAt(cutoff, s.clock.Now(), s.loc) == competitiondomain.StateFrozen {
		s.logger.InfoContext(ctx, "Recompute skipped, metric is frozen",
			attr.ExtractCorrelationID(ctx),
			attr.Int64("competition_id", competition.ID),
			attr.String("metric", metric),
			attr.String("cutoff", cutoff.Format(time.DateOnly)),
		)
		outcome.Status = competitiondomain.RecomputeFrozen
		return results.SuccessResult[*competitiondomain.RecomputeOutcome, error](outcome), nil
	}

	rows, err := s.repo.ListVerifiedReports(ctx, db, cid, metric)
	if err != nil {
		return recomputeResult{}, fmt.Errorf("failed to load verified reports: %w", err)
	}
	if len(rows) == 0 {
		outcome.Status = competitiondomain.RecomputeNoReports
		return results.SuccessResult[*competitiondomain.RecomputeOutcome, error](outcome), nil
	}

	pairingRows, err := s.repo.ListPairings(ctx, db, cid)
	if err != nil {
		return recomputeResult{}, fmt.Errorf("failed to load pairings: %w", err)
	}

	reports := make([]competitiondomain.Report, 0, len(rows))
	for i := range rows {
		reports = append(reports, rows[i].ToDomain())
	}
	pairings := make([]competitiondomain.Pairing, 0, len(pairingRows))
	for i := range pairingRows {
		pairings = append(pairings, pairingRows[i].ToDomain())
	}

	soloPool, tandemPool, err := competitiondomain.BuildPools(rule, reports, pairings)
	if err != nil {
		return recomputeResult{}, err
	}
	soloEntries, tandemEntries := competitiondomain.Entries(competitionID, rule.ID,
		competitiondomain.Rank(soloPool, rule.BetterIsHigher),
		competitiondomain.Rank(tandemPool, rule.BetterIsHigher),
	)

	if err := s.repo.ReplaceRankings(ctx, db, cid, metric, toRankingRows(soloEntries), toTandemRows(tandemEntries), s.clock.Now()); err != nil {
		return recomputeResult{}, fmt.Errorf("failed to replace rankings: %w", err)
	}

	outcome.Status = competitiondomain.RecomputeApplied
	outcome.SoloEntries = len(soloEntries)
	outcome.TandemEntries = len(tandemEntries)
	return results.SuccessResult[*competitiondomain.RecomputeOutcome, error](outcome), nil
}

// afterRecompute runs once the transaction committed.
func (s *CompetitionService) afterRecompute(ctx context.Context, outcome *competitiondomain.RecomputeOutcome) {
	if outcome.Status == competitiondomain.RecomputeApplied {
		if s.metrics != nil {
			s.metrics.RecordRankingSize(ctx, string(outcome.Metric), competitionmetrics.PoolSolo, outcome.SoloEntries)
			s.metrics.RecordRankingSize(ctx, string(outcome.Metric), competitionmetrics.PoolTandem, outcome.TandemEntries)
		}
		s.invalidatePlaces(ctx, outcome.CompetitionID, outcome.Metric)
	}

	err := s.publishEvent(ctx, competitionevents.RankingRecomputedV1, competitionevents.RankingRecomputedPayloadV1{
		CompetitionID: int64(outcome.CompetitionID),
		Metric:        string(outcome.Metric),
		Status:        string(outcome.Status),
		SoloEntries:   outcome.SoloEntries,
		TandemEntries: outcome.TandemEntries,
		ComputedAt:    s.clock.Now().UTC(),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to publish ranking recomputed event",
			attr.ExtractCorrelationID(ctx),
			attr.Error(err),
		)
	}
}

func (s *CompetitionService) invalidatePlaces(ctx context.Context, competitionID competitiondomain.CompetitionID, metric competitiondomain.MetricID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, competitionID, metric); err != nil {
		s.logger.WarnContext(ctx, "Failed to invalidate place cache",
			attr.ExtractCorrelationID(ctx),
			attr.Int64("competition_id", int64(competitionID)),
			attr.String("metric", string(metric)),
			attr.Error(err),
		)
	}
}

// metricCutoffs returns the effective cutoff of every metric of a competition.
func (s *CompetitionService) metricCutoffs(ctx context.Context, db bun.IDB, row *competitiondb.Competition) (map[competitiondomain.MetricID]time.Time, error) {
	overrides, err := s.repo.ListCutoffs(ctx, db, row.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list metric cutoffs: %w", err)
	}
	byMetric := make(map[string]time.Time, len(overrides))
	for _, mc := range overrides {
		byMetric[mc.Metric] = mc.CutoffDate
	}

	c := row.ToDomain()
	cutoffs := make(map[competitiondomain.MetricID]time.Time, len(competitiondomain.Metrics()))
	for _, rule := range competitiondomain.Metrics() {
		var override *time.Time
		if d, ok := byMetric[string(rule.ID)]; ok {
			override = &d
		}
		cutoffs[rule.ID] = competitiondomain.CutoffDate(c, override)
	}
	return cutoffs, nil
}

// loadCutoff returns the competition and the effective cutoff date of metric.
func (s *CompetitionService) loadCutoff(ctx context.Context, db bun.IDB, competitionID int64, metric string) (*competitiondb.Competition, time.Time, error) {
	competition, err := s.repo.GetCompetition(ctx, db, competitionID)
	if err != nil {
		return nil, time.Time{}, err
	}

	var override *time.Time
	cutoff, err := s.repo.GetCutoff(ctx, db, competitionID, metric)
	switch {
	case err == nil:
		override = &cutoff.CutoffDate
	case errors.Is(err, competitiondb.ErrNotFound):
	default:
		return nil, time.Time{}, fmt.Errorf("failed to load metric cutoff: %w", err)
	}

	return competition, competitiondomain.CutoffDate(competition.ToDomain(), override), nil
}

// ListOpenMetrics lists every (competition, metric) pair that is still open.
func (s *CompetitionService) ListOpenMetrics(ctx context.Context) ([]OpenMetric, error) {
	result, err := withTelemetry(s, ctx, "ListOpenMetrics", "all", func(ctx context.Context) (results.OperationResult[[]OpenMetric, error], error) {
		competitions, err := s.repo.ListCompetitions(ctx, nil)
		if err != nil {
			return results.OperationResult[[]OpenMetric, error]{}, err
		}

		now := s.clock.Now()
		var open []OpenMetric
		for i := range competitions {
			cutoffs, err := s.metricCutoffs(ctx, nil, &competitions[i])
			if err != nil {
				return results.OperationResult[[]OpenMetric, error]{}, err
			}
			for _, rule := range competitiondomain.Metrics() {
				cutoff := cutoffs[rule.ID]
				if competitiondomain.StateAt(cutoff, now, s.loc) == competitiondomain.StateOpen {
					open = append(open, OpenMetric{CompetitionID: competitiondomain.CompetitionID(competitions[i].ID), Metric: rule.ID, Cutoff: cutoff})
				}
			}
		}
		return results.SuccessResult[[]OpenMetric, error](open), nil
	})

	return unwrap(result, err)
}

func toRankingRows(entries []competitiondomain.RankingEntry) []competitiondb.Ranking {
	out := make([]competitiondb.Ranking, 0, len(entries))
	for _, e := range entries {
		out = append(out, competitiondb.Ranking{
			CompetitionID: int64(e.CompetitionID),
			Metric:        string(e.Metric),
			DetachmentID:  int64(e.Detachment),
			Place:         e.Place,
			Score:         e.Score,
		})
	}
	return out
}

func toTandemRows(entries []competitiondomain.TandemRankingEntry) []competitiondb.TandemRanking {
	out := make([]competitiondb.TandemRanking, 0, len(entries))
	for _, e := range entries {
		out = append(out, competitiondb.TandemRanking{
			CompetitionID: int64(e.CompetitionID),
			Metric:        string(e.Metric),
			MentorID:      int64(e.Mentor),
			JuniorID:      int64(e.Junior),
			Place:         e.Place,
			Score:         e.Score,
		})
	}
	return out
}
