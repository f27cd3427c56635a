package competitionservice

import (
	"context"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	competitiondomain "github.com/d2avids/rso-sub000/app/modules/competition/domain"
	competitiondb "github.com/d2avids/rso-sub000/app/modules/competition/infrastructure/repositories"
	"github.com/uptrace/bun"
)

// ------------------------
// Fake Competition Repo
// ------------------------

type FakeCompetitionRepo struct {
	mu    sync.Mutex
	trace []string

	CreateCompetitionFunc      func(ctx context.Context, db bun.IDB, c *competitiondb.Competition) error
	GetCompetitionFunc         func(ctx context.Context, db bun.IDB, id int64) (*competitiondb.Competition, error)
	UpdateCompetitionFunc      func(ctx context.Context, db bun.IDB, c *competitiondb.Competition) error
	ListCompetitionsFunc       func(ctx context.Context, db bun.IDB) ([]competitiondb.Competition, error)
	GetCutoffFunc              func(ctx context.Context, db bun.IDB, competitionID int64, metric string) (*competitiondb.MetricCutoff, error)
	ListCutoffsFunc            func(ctx context.Context, db bun.IDB, competitionID int64) ([]competitiondb.MetricCutoff, error)
	UpsertCutoffFunc           func(ctx context.Context, db bun.IDB, cutoff *competitiondb.MetricCutoff) error
	UpsertDetachmentFunc       func(ctx context.Context, db bun.IDB, d *competitiondb.Detachment) error
	GetDetachmentsFunc         func(ctx context.Context, db bun.IDB, ids []int64) ([]competitiondb.Detachment, error)
	CreateReportFunc           func(ctx context.Context, db bun.IDB, r *competitiondb.MetricReport) error
	GetReportFunc              func(ctx context.Context, db bun.IDB, competitionID, detachmentID int64, metric string) (*competitiondb.MetricReport, error)
	UpdateReportFunc           func(ctx context.Context, db bun.IDB, r *competitiondb.MetricReport) error
	DeleteUnverifiedReportFunc func(ctx context.Context, db bun.IDB, competitionID, detachmentID int64, metric string) error
	ListVerifiedReportsFunc    func(ctx context.Context, db bun.IDB, competitionID int64, metric string) ([]competitiondb.MetricReport, error)
	AnyReportFunc              func(ctx context.Context, db bun.IDB, competitionID int64, metric string, detachmentIDs ...int64) (bool, error)
	CountReportsFunc           func(ctx context.Context, db bun.IDB, competitionID int64) (int, error)
	CreatePairingFunc          func(ctx context.Context, db bun.IDB, p *competitiondb.TandemPairing) error
	DeletePairingFunc          func(ctx context.Context, db bun.IDB, competitionID, mentorID, juniorID int64) error
	GetPairingForFunc          func(ctx context.Context, db bun.IDB, competitionID, detachmentID int64) (*competitiondb.TandemPairing, error)
	ListPairingsFunc           func(ctx context.Context, db bun.IDB, competitionID int64) ([]competitiondb.TandemPairing, error)
	AcquireRankingLockFunc     func(ctx context.Context, db bun.IDB, competitionID int64, metric string) error
	AcquirePairingLockFunc     func(ctx context.Context, db bun.IDB, competitionID int64) error
	ReplaceRankingsFunc        func(ctx context.Context, db bun.IDB, competitionID int64, metric string, solo []competitiondb.Ranking, tandem []competitiondb.TandemRanking, computedAt time.Time) error
	GetSoloPlaceFunc           func(ctx context.Context, db bun.IDB, competitionID int64, metric string, detachmentID int64) (*competitiondb.Ranking, error)
	GetTandemPlaceFunc         func(ctx context.Context, db bun.IDB, competitionID int64, metric string, mentorID, juniorID int64) (*competitiondb.TandemRanking, error)
	ListRankingsFunc           func(ctx context.Context, db bun.IDB, competitionID int64, metric string) ([]competitiondb.Ranking, []competitiondb.TandemRanking, error)
}

func NewFakeCompetitionRepo() *FakeCompetitionRepo {
	return &FakeCompetitionRepo{
		trace: []string{},
	}
}

func (f *FakeCompetitionRepo) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

// --- Repository Interface Implementation ---

func (f *FakeCompetitionRepo) CreateCompetition(ctx context.Context, db bun.IDB, c *competitiondb.Competition) error {
	f.record("CreateCompetition")
	if f.CreateCompetitionFunc != nil {
		return f.CreateCompetitionFunc(ctx, db, c)
	}
	return nil
}

func (f *FakeCompetitionRepo) GetCompetition(ctx context.Context, db bun.IDB, id int64) (*competitiondb.Competition, error) {
	f.record("GetCompetition")
	if f.GetCompetitionFunc != nil {
		return f.GetCompetitionFunc(ctx, db, id)
	}
	return nil, competitiondb.ErrNotFound
}

func (f *FakeCompetitionRepo) UpdateCompetition(ctx context.Context, db bun.IDB, c *competitiondb.Competition) error {
	f.record("UpdateCompetition")
	if f.UpdateCompetitionFunc != nil {
		return f.UpdateCompetitionFunc(ctx, db, c)
	}
	return nil
}

func (f *FakeCompetitionRepo) ListCompetitions(ctx context.Context, db bun.IDB) ([]competitiondb.Competition, error) {
	f.record("ListCompetitions")
	if f.ListCompetitionsFunc != nil {
		return f.ListCompetitionsFunc(ctx, db)
	}
	return nil, nil
}

func (f *FakeCompetitionRepo) GetCutoff(ctx context.Context, db bun.IDB, competitionID int64, metric string) (*competitiondb.MetricCutoff, error) {
	f.record("GetCutoff")
	if f.GetCutoffFunc != nil {
		return f.GetCutoffFunc(ctx, db, competitionID, metric)
	}
	return nil, competitiondb.ErrNotFound
}

func (f *FakeCompetitionRepo) ListCutoffs(ctx context.Context, db bun.IDB, competitionID int64) ([]competitiondb.MetricCutoff, error) {
	f.record("ListCutoffs")
	if f.ListCutoffsFunc != nil {
		return f.ListCutoffsFunc(ctx, db, competitionID)
	}
	return nil, nil
}

func (f *FakeCompetitionRepo) UpsertCutoff(ctx context.Context, db bun.IDB, cutoff *competitiondb.MetricCutoff) error {
	f.record("UpsertCutoff")
	if f.UpsertCutoffFunc != nil {
		return f.UpsertCutoffFunc(ctx, db, cutoff)
	}
	return nil
}

func (f *FakeCompetitionRepo) UpsertDetachment(ctx context.Context, db bun.IDB, d *competitiondb.Detachment) error {
	f.record("UpsertDetachment")
	if f.UpsertDetachmentFunc != nil {
		return f.UpsertDetachmentFunc(ctx, db, d)
	}
	return nil
}

func (f *FakeCompetitionRepo) GetDetachments(ctx context.Context, db bun.IDB, ids []int64) ([]competitiondb.Detachment, error) {
	f.record("GetDetachments")
	if f.GetDetachmentsFunc != nil {
		return f.GetDetachmentsFunc(ctx, db, ids)
	}
	return nil, nil
}

func (f *FakeCompetitionRepo) CreateReport(ctx context.Context, db bun.IDB, r *competitiondb.MetricReport) error {
	f.record("CreateReport")
	if f.CreateReportFunc != nil {
		return f.CreateReportFunc(ctx, db, r)
	}
	return nil
}

func (f *FakeCompetitionRepo) GetReport(ctx context.Context, db bun.IDB, competitionID, detachmentID int64, metric string) (*competitiondb.MetricReport, error) {
	f.record("GetReport")
	if f.GetReportFunc != nil {
		return f.GetReportFunc(ctx, db, competitionID, detachmentID, metric)
	}
	return nil, competitiondb.ErrNotFound
}

func (f *FakeCompetitionRepo) UpdateReport(ctx context.Context, db bun.IDB, r *competitiondb.MetricReport) error {
	f.record("UpdateReport")
	if f.UpdateReportFunc != nil {
		return f.UpdateReportFunc(ctx, db, r)
	}
	return nil
}

func (f *FakeCompetitionRepo) DeleteUnverifiedReport(ctx context.Context, db bun.IDB, competitionID, detachmentID int64, metric string) error {
	f.record("DeleteUnverifiedReport")
	if f.DeleteUnverifiedReportFunc != nil {
		return f.DeleteUnverifiedReportFunc(ctx, db, competitionID, detachmentID, metric)
	}
	return nil
}

func (f *FakeCompetitionRepo) ListVerifiedReports(ctx context.Context, db bun.IDB, competitionID int64, metric string) ([]competitiondb.MetricReport, error) {
	f.record("ListVerifiedReports")
	if f.ListVerifiedReportsFunc != nil {
		return f.ListVerifiedReportsFunc(ctx, db, competitionID, metric)
	}
	return nil, nil
}

func (f *FakeCompetitionRepo) AnyReport(ctx context.Context, db bun.IDB, competitionID int64, metric string, detachmentIDs ...int64) (bool, error) {
	f.record("AnyReport")
	if f.AnyReportFunc != nil {
		return f.AnyReportFunc(ctx, db, competitionID, metric, detachmentIDs...)
	}
	return false, nil
}

func (f *FakeCompetitionRepo) CountReports(ctx context.Context, db bun.IDB, competitionID int64) (int, error) {
	f.record("CountReports")
	if f.CountReportsFunc != nil {
		return f.CountReportsFunc(ctx, db, competitionID)
	}
	return 0, nil
}

func (f *FakeCompetitionRepo) CreatePairing(ctx context.Context, db bun.IDB, p *competitiondb.TandemPairing) error {
	f.record("CreatePairing")
	if f.CreatePairingFunc != nil {
		return f.CreatePairingFunc(ctx, db, p)
	}
	return nil
}

func (f *FakeCompetitionRepo) DeletePairing(ctx context.Context, db bun.IDB, competitionID, mentorID, juniorID int64) error {
	f.record("DeletePairing")
	if f.DeletePairingFunc != nil {
		return f.DeletePairingFunc(ctx, db, competitionID, mentorID, juniorID)
	}
	return nil
}

func (f *FakeCompetitionRepo) GetPairingFor(ctx context.Context, db bun.IDB, competitionID, detachmentID int64) (*competitiondb.TandemPairing, error) {
	f.record("GetPairingFor")
	if f.GetPairingForFunc != nil {
		return f.GetPairingForFunc(ctx, db, competitionID, detachmentID)
	}
	return nil, competitiondb.ErrNotFound
}

func (f *FakeCompetitionRepo) ListPairings(ctx context.Context, db bun.IDB, competitionID int64) ([]competitiondb.TandemPairing, error) {
	f.record("ListPairings")
	if f.ListPairingsFunc != nil {
		return f.ListPairingsFunc(ctx, db, competitionID)
	}
	return nil, nil
}

func (f *FakeCompetitionRepo) AcquireRankingLock(ctx context.Context, db bun.IDB, competitionID int64, metric string) error {
	f.record("AcquireRankingLock")
	if f.AcquireRankingLockFunc != nil {
		return f.AcquireRankingLockFunc(ctx, db, competitionID, metric)
	}
	return nil
}

func (f *FakeCompetitionRepo) AcquirePairingLock(ctx context.Context, db bun.IDB, competitionID int64) error {
	f.record("AcquirePairingLock")
	if f.AcquirePairingLockFunc != nil {
		return f.AcquirePairingLockFunc(ctx, db, competitionID)
	}
	return nil
}

func (f *FakeCompetitionRepo) ReplaceRankings(ctx context.Context, db bun.IDB, competitionID int64, metric string, solo []competitiondb.Ranking, tandem []competitiondb.TandemRanking, computedAt time.Time) error {
	f.record("ReplaceRankings")
	if f.ReplaceRankingsFunc != nil {
		return f.ReplaceRankingsFunc(ctx, db, competitionID, metric, solo, tandem, computedAt)
	}
	return nil
}

func (f *FakeCompetitionRepo) GetSoloPlace(ctx context.Context, db bun.IDB, competitionID int64, metric string, detachmentID int64) (*competitiondb.Ranking, error) {
	f.record("GetSoloPlace")
	if f.GetSoloPlaceFunc != nil {
		return f.GetSoloPlaceFunc(ctx, db, competitionID, metric, detachmentID)
	}
	return nil, competitiondb.ErrNotFound
}

func (f *FakeCompetitionRepo) GetTandemPlace(ctx context.Context, db bun.IDB, competitionID int64, metric string, mentorID, juniorID int64) (*competitiondb.TandemRanking, error) {
	f.record("GetTandemPlace")
	if f.GetTandemPlaceFunc != nil {
		return f.GetTandemPlaceFunc(ctx, db, competitionID, metric, mentorID, juniorID)
	}
	return nil, competitiondb.ErrNotFound
}

func (f *FakeCompetitionRepo) ListRankings(ctx context.Context, db bun.IDB, competitionID int64, metric string) ([]competitiondb.Ranking, []competitiondb.TandemRanking, error) {
	f.record("ListRankings")
	if f.ListRankingsFunc != nil {
		return f.ListRankingsFunc(ctx, db, competitionID, metric)
	}
	return nil, nil, nil
}

// --- Accessors for assertions ---

func (f *FakeCompetitionRepo) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

// Ensure the fake actually satisfies the interface
var _ competitiondb.Repository = (*FakeCompetitionRepo)(nil)

// ------------------------
// Fake Place Cache
// ------------------------

type FakePlaceCache struct {
	mu          sync.Mutex
	generations map[string]int64
	places      map[cachedEntry]competitiondomain.PlaceResult
	invalidated []string

	GetPlaceFunc   func(ctx context.Context, key PlaceKey) (competitiondomain.PlaceResult, int64, bool, error)
	InvalidateFunc func(ctx context.Context, competitionID competitiondomain.CompetitionID, metric competitiondomain.MetricID) error
}

type cachedEntry struct {
	key        PlaceKey
	generation int64
}

func NewFakePlaceCache() *FakePlaceCache {
	return &FakePlaceCache{
		generations: map[string]int64{},
		places:      map[cachedEntry]competitiondomain.PlaceResult{},
	}
}

func (c *FakePlaceCache) GetPlace(ctx context.Context, key PlaceKey) (competitiondomain.PlaceResult, int64, bool, error) {
	if c.GetPlaceFunc != nil {
		return c.GetPlaceFunc(ctx, key)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	gen := c.generations[competitiondb.RankingLockKey(int64(key.CompetitionID), string(key.Metric))]
	p, ok := c.places[cachedEntry{key: key, generation: gen}]
	return p, gen, ok, nil
}

func (c *FakePlaceCache) SetPlace(_ context.Context, key PlaceKey, generation int64, result competitiondomain.PlaceResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.places[cachedEntry{key: key, generation: generation}] = result
	return nil
}

func (c *FakePlaceCache) Invalidate(ctx context.Context, competitionID competitiondomain.CompetitionID, metric competitiondomain.MetricID) error {
	lockKey := competitiondb.RankingLockKey(int64(competitionID), string(metric))
	c.mu.Lock()
	c.invalidated = append(c.invalidated, lockKey)
	c.generations[lockKey]++
	c.mu.Unlock()
	if c.InvalidateFunc != nil {
		return c.InvalidateFunc(ctx, competitionID, metric)
	}
	return nil
}

func (c *FakePlaceCache) Invalidated() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.invalidated...)
}

var _ PlaceCache = (*FakePlaceCache)(nil)

// ------------------------
// Fake Publisher
// ------------------------

type FakePublisher struct {
	mu        sync.Mutex
	published map[string][]*message.Message
}

func NewFakePublisher() *FakePublisher {
	return &FakePublisher{published: map[string][]*message.Message{}}
}

func (p *FakePublisher) Publish(topic string, msgs ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published[topic] = append(p.published[topic], msgs...)
	return nil
}

func (p *FakePublisher) Close() error { return nil }

func (p *FakePublisher) Messages(topic string) []*message.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*message.Message(nil), p.published[topic]...)
}

// ------------------------
// Fixed clock
// ------------------------

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }
