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

type placeResult = results.OperationResult[competitiondomain.PlaceResult, error]

// PlaceOf reports the stored place of a detachment in the pool its pairing
// selects. It reads without locking and may observe the previous ranking
// while a recompute is in flight.
func (s *CompetitionService) PlaceOf(ctx context.Context, competitionID competitiondomain.CompetitionID, metric competitiondomain.MetricID, detachmentID competitiondomain.DetachmentID) (competitiondomain.PlaceResult, error) {
	identifier := fmt.Sprintf("%d:%s:%d", competitionID, metric, detachmentID)

	result, err := withTelemetry(s, ctx, "PlaceOf", identifier, func(ctx context.Context) (placeResult, error) {
		if _, err := competitiondomain.Lookup(metric); err != nil {
			return results.FailureResult[competitiondomain.PlaceResult, error](err), nil
		}

		key := PlaceKey{CompetitionID: competitionID, Metric: metric, DetachmentID: detachmentID}
		cached, generation, hit, cacheable := s.cachedPlace(ctx, key)
		if hit {
			s.recordPlaceQuery(ctx, cached, true)
			return results.SuccessResult[competitiondomain.PlaceResult, error](cached), nil
		}

		res, err := s.placeOfLogic(ctx, nil, key)
		if err != nil || res.IsFailure() {
			return res, err
		}

		place := *res.Success
		s.recordPlaceQuery(ctx, place, false)
		// only ranked answers are stable until the next recompute
		if place.Kind == competitiondomain.PlaceRanked && cacheable {
			if err := s.cache.SetPlace(ctx, key, generation, place); err != nil {
				s.logger.WarnContext(ctx, "Failed to cache place",
					attr.ExtractCorrelationID(ctx),
					attr.String("key", identifier),
					attr.Error(err),
				)
			}
		}
		return res, nil
	})

	return unwrap(result, err)
}

func (s *CompetitionService) placeOfLogic(ctx context.Context, db bun.IDB, key PlaceKey) (placeResult, error) {
	cid, metric, did := int64(key.CompetitionID), string(key.Metric), int64(key.DetachmentID)

	var pairing *competitiondomain.Pairing
	row, err := s.repo.GetPairingFor(ctx, db, cid, did)
	switch {
	case err == nil:
		p := row.ToDomain()
		pairing = &p
	case errors.Is(err, competitiondb.ErrNotFound):
	default:
		return placeResult{}, fmt.Errorf("failed to resolve pairing: %w", err)
	}
	resolution := competitiondomain.Resolve(key.DetachmentID, pairing)

	var entry *int
	if resolution.Tandem {
		ranking, err := s.repo.GetTandemPlace(ctx, db, cid, metric, int64(resolution.Mentor), int64(resolution.Junior))
		if err != nil && !errors.Is(err, competitiondb.ErrNotFound) {
			return placeResult{}, fmt.Errorf("failed to read tandem place: %w", err)
		}
		if ranking != nil {
			entry = &ranking.Place
		}
	} else {
		ranking, err := s.repo.GetSoloPlace(ctx, db, cid, metric, did)
		if err != nil && !errors.Is(err, competitiondb.ErrNotFound) {
			return placeResult{}, fmt.Errorf("failed to read solo place: %w", err)
		}
		if ranking != nil {
			entry = &ranking.Place
		}
	}

	participates := false
	if entry == nil {
		members := []int64{did}
		if resolution.Tandem {
			members = []int64{int64(resolution.Mentor), int64(resolution.Junior)}
		}
		participates, err = s.repo.AnyReport(ctx, db, cid, metric, members...)
		if err != nil {
			return placeResult{}, fmt.Errorf("failed to check participation: %w", err)
		}
	}

	return results.SuccessResult[competitiondomain.PlaceResult, error](
		competitiondomain.DecidePlace(resolution, entry, participates),
	), nil
}

// cachedPlace runs before any repository read. The generation it returns is
// the one a miss may be filled under; cacheable is false when the cache is
// absent or unreadable.
func (s *CompetitionService) cachedPlace(ctx context.Context, key PlaceKey) (place competitiondomain.PlaceResult, generation int64, hit, cacheable bool) {
	if s.cache == nil {
		return competitiondomain.PlaceResult{}, 0, false, false
	}
	place, generation, hit, err := s.cache.GetPlace(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "Place cache read failed",
			attr.ExtractCorrelationID(ctx),
			attr.Error(err),
		)
		return competitiondomain.PlaceResult{}, 0, false, false
	}
	return place, generation, hit, true
}

func (s *CompetitionService) recordPlaceQuery(ctx context.Context, place competitiondomain.PlaceResult, cached bool) {
	if s.metrics != nil {
		s.metrics.RecordPlaceQuery(ctx, place.Kind.String(), cached)
	}
}

// GetStandings returns both stored pools of a metric with detachment names.
func (s *CompetitionService) GetStandings(ctx context.Context, competitionID competitiondomain.CompetitionID, metric competitiondomain.MetricID) (*competitiondomain.Standings, error) {
	identifier := fmt.Sprintf("%d:%s", competitionID, metric)

	result, err := withTelemetry(s, ctx, "GetStandings", identifier, func(ctx context.Context) (results.OperationResult[*competitiondomain.Standings, error], error) {
		rule, err := competitiondomain.Lookup(metric)
		if err != nil {
			return results.FailureResult[*competitiondomain.Standings, error](err), nil
		}

		competition, err := s.repo.GetCompetition(ctx, nil, int64(competitionID))
		if err != nil {
			if errors.Is(err, competitiondb.ErrNotFound) {
				return results.FailureResult[*competitiondomain.Standings, error](err), nil
			}
			return results.OperationResult[*competitiondomain.Standings, error]{}, err
		}

		solo, tandem, err := s.repo.ListRankings(ctx, nil, competition.ID, string(rule.ID))
		if err != nil {
			return results.OperationResult[*competitiondomain.Standings, error]{}, err
		}

		ids := make([]int64, 0, len(solo)+2*len(tandem))
		for _, r := range solo {
			ids = append(ids, r.DetachmentID)
		}
		for _, r := range tandem {
			ids = append(ids, r.MentorID, r.JuniorID)
		}
		detachments, err := s.repo.GetDetachments(ctx, nil, ids)
		if err != nil {
			return results.OperationResult[*competitiondomain.Standings, error]{}, err
		}
		names := make(map[int64]string, len(detachments))
		for _, d := range detachments {
			names[d.ID] = d.Name
		}

		standings := &competitiondomain.Standings{
			CompetitionID:   competitionID,
			CompetitionName: competition.Name,
			Metric:          rule.ID,
			Title:           rule.Title,
			BetterIsHigher:  rule.BetterIsHigher,
			Solo:            make([]competitiondomain.StandingRow, 0, len(solo)),
			Tandem:          make([]competitiondomain.StandingRow, 0, len(tandem)),
		}
		for _, r := range solo {
			standings.Solo = append(standings.Solo, competitiondomain.StandingRow{
				Place:          r.Place,
				Score:          r.Score,
				Detachment:     competitiondomain.DetachmentID(r.DetachmentID),
				DetachmentName: displayName(names, r.DetachmentID),
			})
		}
		for _, r := range tandem {
			standings.Tandem = append(standings.Tandem, competitiondomain.StandingRow{
				Place:          r.Place,
				Score:          r.Score,
				Detachment:     competitiondomain.DetachmentID(r.JuniorID),
				DetachmentName: displayName(names, r.JuniorID),
				Mentor:         competitiondomain.DetachmentID(r.MentorID),
				MentorName:     displayName(names, r.MentorID),
			})
		}
		return results.SuccessResult[*competitiondomain.Standings, error](standings), nil
	})

	return unwrap(result, err)
}

func displayName(names map[int64]string, id int64) string {
	if n, ok := names[id]; ok && n != "" {
		return n
	}
	return fmt.Sprintf("#%d", id)
}
