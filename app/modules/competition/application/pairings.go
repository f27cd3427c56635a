package competitionservice

import (
	"context"
	"errors"
	"fmt"

	competitiondomain "github.com/d2avids/rso-sub000/app/modules/competition/domain"
	competitiondb "github.com/d2avids/rso-sub000/app/modules/competition/infrastructure/repositories"
	"github.com/d2avids/rso-sub000/app/shared/results"
	"github.com/uptrace/bun"
)

type pairingResult = results.OperationResult[*competitiondomain.Pairing, error]

// CreatePairing joins two unpaired detachments into a tandem.
func (s *CompetitionService) CreatePairing(ctx context.Context, pairing competitiondomain.Pairing) (*competitiondomain.Pairing, error) {
	identifier := fmt.Sprintf("%d:%d:%d", pairing.CompetitionID, pairing.Mentor, pairing.Junior)

	result, err := withTelemetry(s, ctx, "CreatePairing", identifier, func(ctx context.Context) (pairingResult, error) {
		if err := pairing.Validate(); err != nil {
			return results.FailureResult[*competitiondomain.Pairing, error](err), nil
		}
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (pairingResult, error) {
			return s.createPairingLogic(ctx, db, pairing)
		})
	})
	created, err := unwrap(result, err)
	if err != nil {
		return nil, err
	}

	s.invalidateCompetition(ctx, pairing.CompetitionID)
	return created, nil
}

func (s *CompetitionService) createPairingLogic(ctx context.Context, db bun.IDB, pairing competitiondomain.Pairing) (pairingResult, error) {
	cid := int64(pairing.CompetitionID)

	if err := s.checkPairingsOpen(ctx, db, cid); err != nil {
		if isPairingRejection(err) {
			return results.FailureResult[*competitiondomain.Pairing, error](err), nil
		}
		return pairingResult{}, err
	}

	if err := s.repo.AcquirePairingLock(ctx, db, cid); err != nil {
		return pairingResult{}, err
	}

	for _, d := range []competitiondomain.DetachmentID{pairing.Mentor, pairing.Junior} {
		_, err := s.repo.GetPairingFor(ctx, db, cid, int64(d))
		switch {
		case err == nil:
			return results.FailureResult[*competitiondomain.Pairing, error](
				fmt.Errorf("%w: detachment %d", competitiondb.ErrPairingConflict, d),
			), nil
		case !errors.Is(err, competitiondb.ErrNotFound):
			return pairingResult{}, err
		}
	}

	row := &competitiondb.TandemPairing{
		CompetitionID: cid,
		MentorID:      int64(pairing.Mentor),
		JuniorID:      int64(pairing.Junior),
	}
	if err := s.repo.CreatePairing(ctx, db, row); err != nil {
		if errors.Is(err, competitiondb.ErrPairingConflict) {
			return results.FailureResult[*competitiondomain.Pairing, error](err), nil
		}
		return pairingResult{}, err
	}

	created := row.ToDomain()
	return results.SuccessResult[*competitiondomain.Pairing, error](&created), nil
}

// DeletePairing dissolves a tandem.
func (s *CompetitionService) DeletePairing(ctx context.Context, pairing competitiondomain.Pairing) error {
	identifier := fmt.Sprintf("%d:%d:%d", pairing.CompetitionID, pairing.Mentor, pairing.Junior)

	result, err := withTelemetry(s, ctx, "DeletePairing", identifier, func(ctx context.Context) (results.OperationResult[struct{}, error], error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[struct{}, error], error) {
			return s.deletePairingLogic(ctx, db, pairing)
		})
	})
	if _, err := unwrap(result, err); err != nil {
		return err
	}

	s.invalidateCompetition(ctx, pairing.CompetitionID)
	return nil
}

func (s *CompetitionService) deletePairingLogic(ctx context.Context, db bun.IDB, pairing competitiondomain.Pairing) (results.OperationResult[struct{}, error], error) {
	cid := int64(pairing.CompetitionID)

	if err := s.checkPairingsOpen(ctx, db, cid); err != nil {
		if isPairingRejection(err) {
			return results.FailureResult[struct{}, error](err), nil
		}
		return results.OperationResult[struct{}, error]{}, err
	}

	if err := s.repo.AcquirePairingLock(ctx, db, cid); err != nil {
		return results.OperationResult[struct{}, error]{}, err
	}

	err := s.repo.DeletePairing(ctx, db, cid, int64(pairing.Mentor), int64(pairing.Junior))
	if err != nil {
		if errors.Is(err, competitiondb.ErrNotFound) {
			return results.FailureResult[struct{}, error](err), nil
		}
		return results.OperationResult[struct{}, error]{}, err
	}
	return results.SuccessResult[struct{}, error](struct{}{}), nil
}

// checkPairingsOpen fails with ErrPairingsFrozen once any metric of the
// competition is frozen. A frozen ranking keeps the pools it was computed
// with, so moving a detachment between pools would orphan its stored place.
func (s *CompetitionService) checkPairingsOpen(ctx context.Context, db bun.IDB, competitionID int64) error {
	row, err := s.repo.GetCompetition(ctx, db, competitionID)
	if err != nil {
		return err
	}

	cutoffs, err := s.metricCutoffs(ctx, db, row)
	if err != nil {
		return err
	}
	now := s.clock.Now()
	for _, rule := range competitiondomain.Metrics() {
		if competitiondomain.StateAt(cutoffs[rule.ID], now, s.loc) == competitiondomain.StateFrozen {
			return fmt.Errorf("%w: %s", competitiondomain.ErrPairingsFrozen, rule.ID)
		}
	}
	return nil
}

func isPairingRejection(err error) bool {
	return errors.Is(err, competitiondb.ErrNotFound) || errors.Is(err, competitiondomain.ErrPairingsFrozen)
}

// ResolvePairing reports whether the detachment competes solo or in a tandem.
func (s *CompetitionService) ResolvePairing(ctx context.Context, competitionID competitiondomain.CompetitionID, detachmentID competitiondomain.DetachmentID) (competitiondomain.Resolution, error) {
	identifier := fmt.Sprintf("%d:%d", competitionID, detachmentID)

	result, err := withTelemetry(s, ctx, "ResolvePairing", identifier, func(ctx context.Context) (results.OperationResult[competitiondomain.Resolution, error], error) {
		row, err := s.repo.GetPairingFor(ctx, nil, int64(competitionID), int64(detachmentID))
		if err != nil {
			if errors.Is(err, competitiondb.ErrNotFound) {
				return results.SuccessResult[competitiondomain.Resolution, error](competitiondomain.Solo(detachmentID)), nil
			}
			return results.OperationResult[competitiondomain.Resolution, error]{}, err
		}
		p := row.ToDomain()
		return results.SuccessResult[competitiondomain.Resolution, error](competitiondomain.Resolve(detachmentID, &p)), nil
	})
	return unwrap(result, err)
}

// invalidateCompetition drops cached places of every metric, since a pairing
// change moves detachments between pools.
func (s *CompetitionService) invalidateCompetition(ctx context.Context, competitionID competitiondomain.CompetitionID) {
	for _, rule := range competitiondomain.Metrics() {
		s.invalidatePlaces(ctx, competitionID, rule.ID)
	}
}
