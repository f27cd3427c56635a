package competitiondomain

import (
	"strings"
	"time"
)

type Competition struct {
	ID        CompetitionID
	Name      string
	StartsAt  time.Time
	EndsAt    time.Time
	CreatedAt time.Time
}

func (c Competition) Validate() error {
	verr := NewValidationError()
	if strings.TrimSpace(c.Name) == "" {
		verr.Add("name", "this field is required")
	}
	if c.StartsAt.IsZero() {
		verr.Add("starts_at", "this field is required")
	}
	if c.EndsAt.IsZero() {
		verr.Add("ends_at", "this field is required")
	}
	if !c.StartsAt.IsZero() && !c.EndsAt.IsZero() && c.EndsAt.Before(c.StartsAt) {
		verr.Add("ends_at", "must not be before starts_at")
	}
	return verr.OrNil()
}

// Detachment is the registry view of a team, used for names in exports.
type Detachment struct {
	ID        DetachmentID
	Name      string
	FoundedAt *time.Time
	UpdatedAt time.Time
}

// State is the recompute state of a (competition, metric) pair.
type State int

const (
	StateOpen State = iota
	StateFrozen
)

func (s State) String() string {
	if s == StateFrozen {
		return "frozen"
	}
	return "open"
}

// CutoffDate picks the per-metric override when present and the
// competition's end date otherwise.
func CutoffDate(c Competition, override *time.Time) time.Time {
	if override != nil && !override.IsZero() {
		return *override
	}
	return c.EndsAt
}

// StateAt reports Open while today, taken in loc, is strictly before the
// cutoff calendar date. The cutoff is a date value and is compared by its
// own year, month and day.
func StateAt(cutoff, now time.Time, loc *time.Location) State {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := now.In(loc).Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	cy, cm, cd := cutoff.Date()
	cutoffDay := time.Date(cy, cm, cd, 0, 0, 0, 0, time.UTC)

	if today.Before(cutoffDay) {
		return StateOpen
	}
	return StateFrozen
}
