package competitiondomain

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
)

type (
	CompetitionID int64
	DetachmentID  int64
	MetricID      string
)

func (m MetricID) String() string { return string(m) }

// Family selects the scoring rule applied to a metric's reports.
type Family int

const (
	// FamilyCount sums participants across qualifying events.
	FamilyCount Family = iota + 1
	// FamilyPlacement takes the reported prize place, averaged over several prizes.
	FamilyPlacement
	// FamilyThreshold awards one point per satisfied category threshold.
	FamilyThreshold
)

func (f Family) String() string {
	switch f {
	case FamilyCount:
		return "count"
	case FamilyPlacement:
		return "placement"
	case FamilyThreshold:
		return "threshold"
	default:
		return "unknown"
	}
}

// CategoryThreshold is satisfied when a report lists at least Min events of Category.
type CategoryThreshold struct {
	Category string
	Min      int
}

// MetricRule describes how one metric is reported, scored and ordered.
type MetricRule struct {
	ID             MetricID
	Title          string
	Family         Family
	BetterIsHigher bool
	// Categories restricts which events count for FamilyCount. Empty accepts all.
	Categories []string
	Thresholds []CategoryThreshold
	MaxPlace   int
}

// Event categories used by the rule table.
const (
	CategoryAllRussian    = "all_russian"
	CategoryDistrict      = "district"
	CategoryInterregional = "interregional"
	CategoryRegional      = "regional"
	CategoryLocal         = "local"
	CategorySport         = "sport"
	CategoryPatriotic     = "patriotic"
	CategoryVolunteer     = "volunteer"
	CategoryProfessional  = "professional"
	CategoryCulture       = "culture"
	CategorySocialPost    = "social_post"
	CategoryPress         = "press"
	CategoryTelevision    = "television"
	CategoryVideo         = "video"
	CategoryBriefing      = "safety_briefing"
	CategoryFirstAid      = "first_aid_training"
	CategoryInspection    = "safety_inspection"
)

const prizePlaces = 3

var metricRules = map[MetricID]MetricRule{
	"q7": {
		Title:          "Participation in all-Russian events",
		Family:         FamilyCount,
		BetterIsHigher: true,
		Categories:     []string{CategoryAllRussian},
	},
	"q8": {
		Title:          "Participation in district and interregional events",
		Family:         FamilyCount,
		BetterIsHigher: true,
		Categories:     []string{CategoryDistrict, CategoryInterregional},
	},
	"q9": {
		Title:          "Participation in regional and local events",
		Family:         FamilyCount,
		BetterIsHigher: true,
		Categories:     []string{CategoryRegional, CategoryLocal},
	},
	"q10": {
		Title:          "Participation in professional skill contests",
		Family:         FamilyCount,
		BetterIsHigher: true,
		Categories:     []string{CategoryProfessional},
	},
	"q11": {
		Title:          "Prize places at all-Russian contests",
		Family:         FamilyPlacement,
		BetterIsHigher: false,
		MaxPlace:       prizePlaces,
	},
	"q12": {
		Title:          "Prize places at district and interregional contests",
		Family:         FamilyPlacement,
		BetterIsHigher: false,
		MaxPlace:       prizePlaces,
	},
	"q13": {
		Title:          "Events organised by the detachment",
		Family:         FamilyThreshold,
		BetterIsHigher: true,
		Thresholds: []CategoryThreshold{
			{Category: CategorySport, Min: 1},
			{Category: CategoryPatriotic, Min: 1},
			{Category: CategoryVolunteer, Min: 5},
			{Category: CategoryProfessional, Min: 1},
			{Category: CategoryCulture, Min: 1},
		},
	},
	"q14": {
		Title:          "Prize places at labour project contests",
		Family:         FamilyPlacement,
		BetterIsHigher: false,
		MaxPlace:       prizePlaces,
	},
	"q15": {
		Title:          "Members involved in volunteer work",
		Family:         FamilyCount,
		BetterIsHigher: true,
		Categories:     []string{CategoryVolunteer},
	},
	"q16": {
		Title:          "Media presence",
		Family:         FamilyThreshold,
		BetterIsHigher: true,
		Thresholds: []CategoryThreshold{
			{Category: CategorySocialPost, Min: 10},
			{Category: CategoryPress, Min: 1},
			{Category: CategoryTelevision, Min: 1},
			{Category: CategoryVideo, Min: 3},
		},
	},
	"q17": {
		Title:          "Members in sport events",
		Family:         FamilyCount,
		BetterIsHigher: true,
		Categories:     []string{CategorySport},
	},
	"q18": {
		Title:          "Members in patriotic events",
		Family:         FamilyCount,
		BetterIsHigher: true,
		Categories:     []string{CategoryPatriotic},
	},
	"q19": {
		Title:          "Labour safety practices",
		Family:         FamilyThreshold,
		BetterIsHigher: true,
		Thresholds: []CategoryThreshold{
			{Category: CategoryBriefing, Min: 1},
			{Category: CategoryFirstAid, Min: 1},
			{Category: CategoryInspection, Min: 1},
		},
	},
}

func init() {
	for id, rule := range metricRules {
		rule.ID = id
		metricRules[id] = rule
	}
}

// Lookup returns the rule for id.
func Lookup(id MetricID) (MetricRule, error) {
	rule, ok := metricRules[id]
	if !ok {
		return MetricRule{}, fmt.Errorf("%w: %q", ErrUnknownMetric, id)
	}
	return rule, nil
}

// ParseMetricID normalises "Q7", "q7" and "7" to "q7" and checks the metric exists.
func ParseMetricID(raw string) (MetricID, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if !strings.HasPrefix(s, "q") {
		s = "q" + s
	}
	id := MetricID(s)
	if _, err := Lookup(id); err != nil {
		return "", err
	}
	return id, nil
}

// Metrics returns every rule ordered by question number.
func Metrics() []MetricRule {
	out := make([]MetricRule, 0, len(metricRules))
	for _, rule := range metricRules {
		out = append(out, rule)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID.number() < out[j].ID.number()
	})
	return out
}

func (m MetricID) number() int {
	n, err := strconv.Atoi(strings.TrimPrefix(string(m), "q"))
	if err != nil {
		return -1
	}
	return n
}

func (r MetricRule) acceptsCategory(category string) bool {
	return len(r.Categories) == 0 || slices.Contains(r.Categories, category)
}

func (r MetricRule) knownCategory(category string) bool {
	switch r.Family {
	case FamilyCount:
		return r.acceptsCategory(category)
	case FamilyThreshold:
		return slices.ContainsFunc(r.Thresholds, func(t CategoryThreshold) bool {
			return t.Category == category
		})
	default:
		return true
	}
}
