package competitiondomain

// Score converts a verified report into its numeric score. It has no side
// effects and only fails for unverified reports or a rule without a family.
func (r MetricRule) Score(report Report) (float64, error) {
	if !report.IsVerified {
		return 0, &InvalidStateError{Op: "Score", Err: ErrUnverifiedReport}
	}

	switch r.Family {
	case FamilyCount:
		total := 0
		for _, e := range report.Data.Events {
			if e.Participants > 0 && r.acceptsCategory(e.Category) {
				total += e.Participants
			}
		}
		return float64(total), nil

	case FamilyPlacement:
		if len(report.Data.Places) == 0 {
			return 0, nil
		}
		sum := 0
		for _, p := range report.Data.Places {
			sum += p.Place
		}
		return float64(sum) / float64(len(report.Data.Places)), nil

	case FamilyThreshold:
		counts := make(map[string]int, len(r.Thresholds))
		for _, e := range report.Data.Events {
			counts[e.Category]++
		}
		points := 0
		for _, t := range r.Thresholds {
			if counts[t.Category] >= t.Min {
				points++
			}
		}
		return float64(points), nil
	}

	return 0, &InvalidStateError{Op: "Score", Err: ErrUnknownMetric}
}
