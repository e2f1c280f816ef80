package bmi

import (
	"errors"
	"sort"
)

var ErrEmptySeries = errors.New("series has no points")

type Summary struct {
	Count          int      `json:"count"`
	InitialBMI     float64  `json:"initial_bmi"`
	LatestBMI      float64  `json:"latest_bmi"`
	LatestCategory Category `json:"latest_category"`
	// ProgressPercent is nil until there are two points to compare.
	ProgressPercent *float64 `json:"progress_percent,omitempty"`
	StartingWeight  float64  `json:"starting_weight"`
	CurrentWeight   float64  `json:"current_weight"`
	WeightChange    float64  `json:"weight_change"`
	HighestBMI      float64  `json:"highest_bmi"`
	LowestBMI       float64  `json:"lowest_bmi"`
}

// Summarize reads the series in timestamp order regardless of the order it
// was passed in.
func Summarize(points []Point) (Summary, error) {
	if len(points) == 0 {
		return Summary{}, ErrEmptySeries
	}

	sorted := Chronological(points)
	first, last := sorted[0], sorted[len(sorted)-1]

	s := Summary{
		Count:          len(sorted),
		InitialBMI:     first.BMI,
		LatestBMI:      last.BMI,
		LatestCategory: last.Category,
		StartingWeight: first.Weight,
		CurrentWeight:  last.Weight,
		WeightChange:   roundTo(last.Weight-first.Weight, 1),
		HighestBMI:     first.BMI,
		LowestBMI:      first.BMI,
	}

	for _, p := range sorted[1:] {
		s.HighestBMI = max(s.HighestBMI, p.BMI)
		s.LowestBMI = min(s.LowestBMI, p.BMI)
	}

	if len(sorted) > 1 && first.BMI > 0 {
		progress := Round((last.BMI - first.BMI) / first.BMI * 100)
		s.ProgressPercent = &progress
	}

	return s, nil
}

// Chronological returns a copy sorted oldest first. Points sharing a
// timestamp keep their relative order.
func Chronological(points []Point) []Point {
	sorted := make([]Point, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return sorted
}

// NewestFirst returns a copy sorted newest first, the order used by tables.
func NewestFirst(points []Point) []Point {
	sorted := make([]Point, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})
	return sorted
}
