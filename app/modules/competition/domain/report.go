package competitiondomain

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// EventEntry is one event listed in a count or threshold report.
type EventEntry struct {
	Name         string   `json:"name"`
	Category     string   `json:"category"`
	Participants int      `json:"participants,omitempty"`
	Links        []string `json:"links"`
}

// PrizePlace is one prize listed in a placement report.
type PrizePlace struct {
	Event string   `json:"event"`
	Place int      `json:"place"`
	Links []string `json:"links"`
}

// ReportData is the raw, metric-specific content of a report.
type ReportData struct {
	Events []EventEntry `json:"events,omitempty"`
	Places []PrizePlace `json:"places,omitempty"`
}

// Report is one detachment's submission for one metric of a competition.
type Report struct {
	ID            int64
	CompetitionID CompetitionID
	DetachmentID  DetachmentID
	Metric        MetricID
	Data          ReportData
	IsVerified    bool
	Score         *float64
	VerifiedAt    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate checks data against the rule's report shape. The returned error is
// a *ValidationError keyed by field path, or nil.
func (r MetricRule) Validate(data ReportData) error {
	verr := NewValidationError()
	seen := map[string]string{}

	checkLinks := func(prefix string, links []string) {
		if len(links) == 0 {
			verr.Add(prefix+".links", "at least one link is required")
			return
		}
		for i, raw := range links {
			field := fmt.Sprintf("%s.links[%d]", prefix, i)
			link := strings.TrimSpace(raw)
			u, err := url.Parse(link)
			if link == "" || err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				verr.Add(field, "must be an http(s) URL")
				continue
			}
			if first, dup := seen[link]; dup {
				verr.Add(field, "duplicates "+first)
				continue
			}
			seen[link] = field
		}
	}

	switch r.Family {
	case FamilyPlacement:
		if len(data.Events) > 0 {
			verr.Add("events", "not accepted for this metric")
		}
		if len(data.Places) == 0 {
			verr.Add("places", "at least one prize place is required")
		}
		for i, p := range data.Places {
			prefix := fmt.Sprintf("places[%d]", i)
			if strings.TrimSpace(p.Event) == "" {
				verr.Add(prefix+".event", "this field is required")
			}
			if p.Place < 1 || p.Place > r.MaxPlace {
				verr.Add(prefix+".place", fmt.Sprintf("must be between 1 and %d", r.MaxPlace))
			}
			checkLinks(prefix, p.Links)
		}
	case FamilyCount, FamilyThreshold:
		if len(data.Places) > 0 {
			verr.Add("places", "not accepted for this metric")
		}
		if len(data.Events) == 0 {
			verr.Add("events", "at least one event is required")
		}
		for i, e := range data.Events {
			prefix := fmt.Sprintf("events[%d]", i)
			if strings.TrimSpace(e.Name) == "" {
				verr.Add(prefix+".name", "this field is required")
			}
			if !r.knownCategory(e.Category) {
				verr.Add(prefix+".category", fmt.Sprintf("%q is not accepted for %s", e.Category, r.ID))
			}
			if e.Participants < 0 {
				verr.Add(prefix+".participants", "must not be negative")
			}
			if r.Family == FamilyCount && e.Participants == 0 {
				verr.Add(prefix+".participants", "must be at least 1")
			}
			checkLinks(prefix, e.Links)
		}
	default:
		verr.Add(NonFieldErrors, "metric has no report shape")
	}

	return verr.OrNil()
}
