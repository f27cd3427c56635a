package testutils

import (
	"time"

	competitiondomain "github.com/d2avids/rso-sub000/app/modules/competition/domain"
	"github.com/brianvoe/gofakeit/v7"
)

// TestDataGenerator provides methods to create test data for integration tests
type TestDataGenerator struct {
	faker *gofakeit.Faker
	seed  int64
}

// NewTestDataGenerator creates a new test data generator with optional seed
func NewTestDataGenerator(seed ...int64) *TestDataGenerator {
	s := time.Now().UnixNano()
	if len(seed) > 0 {
		s = seed[0]
	}
	return &TestDataGenerator{faker: gofakeit.New(uint64(s)), seed: s}
}

// Seed returns the seed, for reproducing a failing run.
func (g *TestDataGenerator) Seed() int64 { return g.seed }

// Competition returns a competition whose reporting window contains today.
func (g *TestDataGenerator) Competition() competitiondomain.Competition {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	return competitiondomain.Competition{
		Name:     "Конкурс " + g.faker.Company(),
		StartsAt: today.AddDate(0, 0, -30),
		EndsAt:   today.AddDate(0, 0, 30),
	}
}

// Detachments returns count detachments with sequential ids starting at firstID.
func (g *TestDataGenerator) Detachments(firstID int64, count int) []competitiondomain.Detachment {
	out := make([]competitiondomain.Detachment, count)
	for i := range out {
		out[i] = competitiondomain.Detachment{
			ID:   competitiondomain.DetachmentID(firstID + int64(i)),
			Name: "ССО " + g.faker.City(),
		}
	}
	return out
}

// SportReport returns q17 data whose score equals participants.
func (g *TestDataGenerator) SportReport(participants int) competitiondomain.ReportData {
	return competitiondomain.ReportData{Events: []competitiondomain.EventEntry{{
		Name:         g.faker.Sentence(3),
		Category:     competitiondomain.CategorySport,
		Participants: participants,
		Links:        []string{g.faker.URL()},
	}}}
}
