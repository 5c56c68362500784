package analyzer

import "voldecomp/pkg/model"

// DayBoundaries returns the offsets where the calendar date changes, starting
// with 0 and ending with a sentinel equal to len(obs). Each consecutive pair
// (b[i-1], b[i]) delimits one trading day as a half-open interval.
//
// Input must already be in ascending time order; days are detected by a
// change of date relative to the previous observation, not by lookup.
func DayBoundaries(obs []model.Observation) []int {
	if len(obs) == 0 {
		return []int{0}
	}

	boundaries := []int{0}
	current := obs[0].Date
	for i, o := range obs {
		if o.Date != current {
			current = o.Date
			boundaries = append(boundaries, i)
		}
	}

	return append(boundaries, len(obs))
}

// SplitDays returns one sub-slice per trading day.
// The sub-slices share the backing array of obs.
func SplitDays(obs []model.Observation) [][]model.Observation {
	boundaries := DayBoundaries(obs)
	days := make([][]model.Observation, 0, len(boundaries)-1)
	for i := 1; i < len(boundaries); i++ {
		days = append(days, obs[boundaries[i-1]:boundaries[i]])
	}
	return days
}
