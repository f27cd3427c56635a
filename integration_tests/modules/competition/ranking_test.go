package competition_integration_tests

import (
	"context"
	"testing"
	"time"

	"github.com/d2avids/rso-sub000/app/modules/competition"
	competitionservice "github.com/d2avids/rso-sub000/app/modules/competition/application"
	competitiondomain "github.com/d2avids/rso-sub000/app/modules/competition/domain"
	"github.com/d2avids/rso-sub000/config"
	"github.com/d2avids/rso-sub000/integration_tests/testutils"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRanking_SoloEndToEnd(t *testing.T) {
	m := setupModule(t, nil, nil, competition.Options{}, nil)
	svc := m.Service
	gen := testutils.NewTestDataGenerator(1)
	cid, _ := seedCompetition(t, svc, gen, 100, 3)

	submitVerified(t, svc, gen, cid, 100, 10)
	submitVerified(t, svc, gen, cid, 101, 10)
	submitVerified(t, svc, gen, cid, 102, 7)

	if diff := cmp.Diff(solo(1, 1, 3), places(t, svc, cid, 100, 101, 102)); diff != "" {
		t.Fatalf("places mismatch (-want +got):\n%s", diff)
	}

	_, err := svc.EditReport(context.Background(), competitionservice.ReportRequest{
		ReportKey: key(cid, 102),
		Data:      gen.SportReport(12),
	})
	require.NoError(t, err)

	if diff := cmp.Diff(solo(1, 2, 2), places(t, svc, cid, 102, 100, 101)); diff != "" {
		t.Fatalf("places after edit mismatch (-want +got):\n%s", diff)
	}

	standings, err := svc.GetStandings(context.Background(), cid, sportMetric)
	require.NoError(t, err)
	require.Len(t, standings.Solo, 3)
	assert.Equal(t, competitiondomain.DetachmentID(102), standings.Solo[0].Detachment)
	assert.NotEmpty(t, standings.Solo[0].DetachmentName)
	assert.Empty(t, standings.Tandem)
}

func TestRanking_RecomputeIsIdempotent(t *testing.T) {
	m := setupModule(t, nil, nil, competition.Options{}, nil)
	svc := m.Service
	gen := testutils.NewTestDataGenerator(2)
	cid, _ := seedCompetition(t, svc, gen, 200, 4)

	for i, score := range []int{500, 495, 495, 490} {
		submitVerified(t, svc, gen, cid, competitiondomain.DetachmentID(200+i), score)
	}

	first, err := svc.GetStandings(context.Background(), cid, sportMetric)
	require.NoError(t, err)

	outcome, err := svc.Recompute(context.Background(), cid, sportMetric)
	require.NoError(t, err)
	assert.Equal(t, competitiondomain.RecomputeApplied, outcome.Status)
	assert.Equal(t, 4, outcome.SoloEntries)

	second, err := svc.GetStandings(context.Background(), cid, sportMetric)
	require.NoError(t, err)

	if diff := cmp.Diff(first.Solo, second.Solo); diff != "" {
		t.Fatalf("recompute changed the ranking (-first +second):\n%s", diff)
	}
	got := make([]int, 0, len(second.Solo))
	for _, row := range second.Solo {
		got = append(got, row.Place)
	}
	assert.Equal(t, []int{1, 2, 2, 4}, got)
}

func TestRanking_TandemPools(t *testing.T) {
	m := setupModule(t, nil, nil, competition.Options{}, nil)
	svc := m.Service
	gen := testutils.NewTestDataGenerator(3)
	cid, _ := seedCompetition(t, svc, gen, 300, 5)
	ctx := context.Background()

	// 300 mentors 301; 302 mentors 303; 304 stays solo.
	_, err := svc.CreatePairing(ctx, competitiondomain.Pairing{CompetitionID: cid, Mentor: 300, Junior: 301})
	require.NoError(t, err)
	_, err = svc.CreatePairing(ctx, competitiondomain.Pairing{CompetitionID: cid, Mentor: 302, Junior: 303})
	require.NoError(t, err)

	_, err = svc.CreatePairing(ctx, competitiondomain.Pairing{CompetitionID: cid, Mentor: 304, Junior: 301})
	assert.Error(t, err, "a detachment belongs to at most one pairing")

	submitVerified(t, svc, gen, cid, 300, 4)
	submitVerified(t, svc, gen, cid, 301, 6)
	submitVerified(t, svc, gen, cid, 303, 3)
	submitVerified(t, svc, gen, cid, 304, 1)

	got := places(t, svc, cid, 300, 301, 302, 303, 304)
	want := []competitiondomain.PlaceResult{
		competitiondomain.Ranked(competitiondomain.PoolTandem, 1),
		competitiondomain.Ranked(competitiondomain.PoolTandem, 1),
		competitiondomain.Ranked(competitiondomain.PoolTandem, 2),
		competitiondomain.Ranked(competitiondomain.PoolTandem, 2),
		competitiondomain.Ranked(competitiondomain.PoolSolo, 1),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("places mismatch (-want +got):\n%s", diff)
	}

	standings, err := svc.GetStandings(ctx, cid, sportMetric)
	require.NoError(t, err)
	require.Len(t, standings.Tandem, 2)
	assert.Equal(t, 10.0, standings.Tandem[0].Score)
	assert.Equal(t, 3.0, standings.Tandem[1].Score, "a junior-only tandem ranks on the junior score")
	require.Len(t, standings.Solo, 1)
}

func TestRanking_ParticipationStates(t *testing.T) {
	m := setupModule(t, nil, nil, competition.Options{}, nil)
	svc := m.Service
	gen := testutils.NewTestDataGenerator(4)
	cid, _ := seedCompetition(t, svc, gen, 400, 3)

	submitVerified(t, svc, gen, cid, 400, 5)
	submit(t, svc, gen, cid, 401, 8)

	got := places(t, svc, cid, 400, 401, 402)
	assert.Equal(t, competitiondomain.Ranked(competitiondomain.PoolSolo, 1), got[0])
	assert.Equal(t, competitiondomain.NotYetComputed(competitiondomain.PoolSolo), got[1])
	assert.Equal(t, competitiondomain.NotAParticipant(), got[2])

	err := svc.DeleteReport(context.Background(), key(cid, 400))
	assert.ErrorIs(t, err, competitiondomain.ErrReportVerified)
	require.NoError(t, svc.DeleteReport(context.Background(), key(cid, 401)))
	assert.Equal(t, competitiondomain.NotAParticipant(), places(t, svc, cid, 401)[0])
}

func TestRanking_CutoffFreezesStoredSet(t *testing.T) {
	m := setupModule(t, nil, nil, competition.Options{}, nil)
	svc := m.Service
	gen := testutils.NewTestDataGenerator(5)
	cid, _ := seedCompetition(t, svc, gen, 500, 3)
	ctx := context.Background()

	submitVerified(t, svc, gen, cid, 500, 3)
	submitVerified(t, svc, gen, cid, 501, 9)
	submit(t, svc, gen, cid, 502, 20)

	before, err := svc.GetStandings(ctx, cid, sportMetric)
	require.NoError(t, err)

	yesterday := time.Now().AddDate(0, 0, -2).Format(time.DateOnly)
	_, err = svc.SetMetricCutoff(ctx, cid, sportMetric, yesterday)
	require.NoError(t, err)

	_, err = svc.VerifyReport(ctx, key(cid, 502))
	require.NoError(t, err)

	outcome, err := svc.Recompute(ctx, cid, sportMetric)
	require.NoError(t, err)
	assert.Equal(t, competitiondomain.RecomputeFrozen, outcome.Status)

	after, err := svc.GetStandings(ctx, cid, sportMetric)
	require.NoError(t, err)
	if diff := cmp.Diff(before.Solo, after.Solo); diff != "" {
		t.Fatalf("frozen ranking changed (-before +after):\n%s", diff)
	}
	assert.Equal(t, competitiondomain.NotYetComputed(competitiondomain.PoolSolo), places(t, svc, cid, 502)[0])

	_, err = svc.SubmitReport(ctx, competitionservice.ReportRequest{ReportKey: key(cid, 503), Data: gen.SportReport(1)})
	assert.ErrorIs(t, err, competitiondomain.ErrReportingClosed)

	// Pools are fixed with the frozen ranking.
	_, err = svc.CreatePairing(ctx, competitiondomain.Pairing{CompetitionID: cid, Mentor: 501, Junior: 500})
	assert.ErrorIs(t, err, competitiondomain.ErrPairingsFrozen)
	assert.Equal(t, solo(2, 1), places(t, svc, cid, 500, 501))
}

func TestRanking_PlaceCacheInvalidatedByRecompute(t *testing.T) {
	m := setupModule(t, nil, nil, competition.Options{}, nil)
	svc := m.Service
	gen := testutils.NewTestDataGenerator(6)
	cid, _ := seedCompetition(t, svc, gen, 600, 2)

	submitVerified(t, svc, gen, cid, 600, 5)
	assert.Equal(t, solo(1), places(t, svc, cid, 600))
	// Second read is served from redis.
	assert.Equal(t, solo(1), places(t, svc, cid, 600))

	submitVerified(t, svc, gen, cid, 601, 9)
	assert.Equal(t, solo(2, 1), places(t, svc, cid, 600, 601))
}

func TestRanking_WithoutCache(t *testing.T) {
	m := setupModule(t, nil, nil, competition.Options{}, func(cfg *config.Config) { cfg.Redis.URL = "" })
	svc := m.Service
	gen := testutils.NewTestDataGenerator(7)
	cid, _ := seedCompetition(t, svc, gen, 700, 2)

	submitVerified(t, svc, gen, cid, 700, 2)
	submitVerified(t, svc, gen, cid, 701, 2)
	assert.Equal(t, solo(1, 1), places(t, svc, cid, 700, 701))
}
