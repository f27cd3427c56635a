package competitiondomain

import (
	"cmp"
	"slices"
)

// Competitor identifies a ranked unit. Mentor is zero for solo detachments;
// for tandems Detachment holds the junior.
type Competitor struct {
	Detachment DetachmentID
	Mentor     DetachmentID
}

func (c Competitor) IsTandem() bool { return c.Mentor != 0 }

type Scored struct {
	Competitor
	Score float64
}

type Placed struct {
	Scored
	Place int
}

// Rank orders scored competitors and assigns standard competition places:
// equal scores share a place and the next distinct score skips ahead, so
// 500, 495, 495, 490 yields 1, 2, 2, 4. Ties are ordered by detachment id so
// repeated runs agree.
func Rank(scored []Scored, betterIsHigher bool) []Placed {
	sorted := slices.Clone(scored)
	slices.SortStableFunc(sorted, func(a, b Scored) int {
		if c := cmp.Compare(a.Score, b.Score); c != 0 {
			if betterIsHigher {
				return -c
			}
			return c
		}
		if c := cmp.Compare(a.Detachment, b.Detachment); c != 0 {
			return c
		}
		return cmp.Compare(a.Mentor, b.Mentor)
	})

	out := make([]Placed, len(sorted))
	place := 1
	for i, s := range sorted {
		if i != 0 && s.Score != sorted[i-1].Score {
			place = i + 1
		}
		out[i] = Placed{Scored: s, Place: place}
	}
	return out
}

// BuildPools scores verified reports and splits competitors into the solo
// and tandem pools. Tandem scores are merged from both partners; a pairing
// with no verified report on either side is left out.
func BuildPools(rule MetricRule, reports []Report, pairings []Pairing) (solo, tandem []Scored, err error) {
	scores := make(map[DetachmentID]float64, len(reports))
	for _, r := range reports {
		s, err := rule.Score(r)
		if err != nil {
			return nil, nil, err
		}
		scores[r.DetachmentID] = s
	}

	lookup := func(d DetachmentID) *float64 {
		if s, ok := scores[d]; ok {
			return &s
		}
		return nil
	}

	paired := make(map[DetachmentID]bool, len(pairings)*2)
	for _, p := range pairings {
		paired[p.Mentor] = true
		paired[p.Junior] = true

		m, j := lookup(p.Mentor), lookup(p.Junior)
		if m == nil && j == nil {
			continue
		}
		tandem = append(tandem, Scored{
			Competitor: Competitor{Detachment: p.Junior, Mentor: p.Mentor},
			Score:      MergeScore(m, j, rule.BetterIsHigher),
		})
	}

	for _, r := range reports {
		if paired[r.DetachmentID] {
			continue
		}
		solo = append(solo, Scored{
			Competitor: Competitor{Detachment: r.DetachmentID},
			Score:      scores[r.DetachmentID],
		})
	}
	return solo, tandem, nil
}
