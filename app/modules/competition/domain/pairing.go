package competitiondomain

import (
	"errors"
	"math"
)

var ErrSelfPairing = errors.New("a detachment cannot be paired with itself")

// Pairing is a tandem of a senior mentor detachment and a junior detachment
// inside one competition.
type Pairing struct {
	CompetitionID CompetitionID
	Mentor        DetachmentID
	Junior        DetachmentID
}

func (p Pairing) Involves(d DetachmentID) bool {
	return p.Mentor == d || p.Junior == d
}

// Partner returns the other side of the pairing for d.
func (p Pairing) Partner(d DetachmentID) (DetachmentID, bool) {
	switch d {
	case p.Mentor:
		return p.Junior, true
	case p.Junior:
		return p.Mentor, true
	}
	return 0, false
}

func (p Pairing) Validate() error {
	verr := NewValidationError()
	if p.Mentor <= 0 {
		verr.Add("mentor", "this field is required")
	}
	if p.Junior <= 0 {
		verr.Add("junior", "this field is required")
	}
	if p.Mentor > 0 && p.Mentor == p.Junior {
		verr.Add(NonFieldErrors, ErrSelfPairing.Error())
	}
	return verr.OrNil()
}

// Resolution is the outcome of resolving a detachment's pairing.
type Resolution struct {
	Tandem bool
	Mentor DetachmentID
	Junior DetachmentID
}

// Solo resolves d as a solo competitor.
func Solo(d DetachmentID) Resolution {
	return Resolution{Junior: d}
}

// Resolve yields the same Resolution for either side of p. A nil pairing
// means d competes solo.
func Resolve(d DetachmentID, p *Pairing) Resolution {
	if p == nil || !p.Involves(d) {
		return Solo(d)
	}
	return Resolution{Tandem: true, Mentor: p.Mentor, Junior: p.Junior}
}

// Detachment returns the solo competitor. Meaningless for tandems.
func (r Resolution) Detachment() DetachmentID { return r.Junior }

// Sentinel is the score that always sorts last for the given direction.
func Sentinel(betterIsHigher bool) float64 {
	if betterIsHigher {
		return 0
	}
	return math.MaxFloat64
}

// MergeScore combines the partners' scores. A missing side contributes
// nothing. Both missing yields the sentinel; BuildPools drops such pairs
// before merging, so only direct callers ever see it.
func MergeScore(mentor, junior *float64, betterIsHigher bool) float64 {
	switch {
	case mentor != nil && junior != nil:
		return *mentor + *junior
	case mentor != nil:
		return *mentor
	case junior != nil:
		return *junior
	default:
		return Sentinel(betterIsHigher)
	}
}
