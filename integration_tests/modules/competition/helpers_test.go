package competition_integration_tests

import (
	"context"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/d2avids/rso-sub000/app/eventbus"
	"github.com/d2avids/rso-sub000/app/modules/competition"
	competitionservice "github.com/d2avids/rso-sub000/app/modules/competition/application"
	competitiondomain "github.com/d2avids/rso-sub000/app/modules/competition/domain"
	"github.com/d2avids/rso-sub000/app/shared/observability"
	"github.com/d2avids/rso-sub000/config"
	"github.com/d2avids/rso-sub000/integration_tests/testutils"
	"github.com/stretchr/testify/require"
)

const sportMetric = competitiondomain.MetricID("q17")

// setupModule resets the database and builds a competition module over the
// shared environment. mutate may adjust the config copy before wiring.
func setupModule(t *testing.T, bus eventbus.EventBus, router *message.Router, opts competition.Options, mutate func(*config.Config)) *competition.Module {
	t.Helper()
	require.NoError(t, testEnv.Reset())

	cfg := *testEnv.Config
	if mutate != nil {
		mutate(&cfg)
	}
	if bus == nil {
		bus = eventbus.NewInMemory(observability.NewNoop().Provider.Logger)
		t.Cleanup(func() { bus.Close() })
	}

	m, err := competition.NewCompetitionModule(testEnv.Ctx, &cfg, observability.NewNoop(), testEnv.DB, bus, router, opts)
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

// seedCompetition creates a competition open today and registers detachments.
func seedCompetition(t *testing.T, svc competitionservice.Service, gen *testutils.TestDataGenerator, firstDetachment int64, count int) (competitiondomain.CompetitionID, []competitiondomain.Detachment) {
	t.Helper()
	ctx := context.Background()

	c, err := svc.CreateCompetition(ctx, gen.Competition())
	require.NoError(t, err)

	detachments := gen.Detachments(firstDetachment, count)
	for _, d := range detachments {
		_, err := svc.UpsertDetachment(ctx, d)
		require.NoError(t, err)
	}
	return c.ID, detachments
}

// submitVerified submits and verifies a q17 report with the given score.
func submitVerified(t *testing.T, svc competitionservice.Service, gen *testutils.TestDataGenerator, cid competitiondomain.CompetitionID, d competitiondomain.DetachmentID, score int) {
	t.Helper()
	submit(t, svc, gen, cid, d, score)
	_, err := svc.VerifyReport(context.Background(), key(cid, d))
	require.NoError(t, err)
}

func submit(t *testing.T, svc competitionservice.Service, gen *testutils.TestDataGenerator, cid competitiondomain.CompetitionID, d competitiondomain.DetachmentID, score int) {
	t.Helper()
	_, err := svc.SubmitReport(context.Background(), competitionservice.ReportRequest{
		ReportKey: key(cid, d),
		Data:      gen.SportReport(score),
	})
	require.NoError(t, err)
}

func key(cid competitiondomain.CompetitionID, d competitiondomain.DetachmentID) competitionservice.ReportKey {
	return competitionservice.ReportKey{CompetitionID: cid, DetachmentID: d, Metric: sportMetric}
}

// places returns PlaceOf for every detachment in order.
func places(t *testing.T, svc competitionservice.Service, cid competitiondomain.CompetitionID, ds ...competitiondomain.DetachmentID) []competitiondomain.PlaceResult {
	t.Helper()
	out := make([]competitiondomain.PlaceResult, 0, len(ds))
	for _, d := range ds {
		p, err := svc.PlaceOf(context.Background(), cid, sportMetric, d)
		require.NoError(t, err)
		out = append(out, p)
	}
	return out
}

func solo(ps ...int) []competitiondomain.PlaceResult {
	out := make([]competitiondomain.PlaceResult, 0, len(ps))
	for _, p := range ps {
		out = append(out, competitiondomain.Ranked(competitiondomain.PoolSolo, p))
	}
	return out
}
