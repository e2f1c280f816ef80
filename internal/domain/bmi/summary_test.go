package bmi

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

var day0 = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func point(days int, weight, value float64) Point {
	c, _ := Categorize(value)
	return Point{
		Weight:    weight,
		Timestamp: day0.AddDate(0, 0, days),
		BMI:       value,
		Category:  c,
	}
}

func TestSummarize(t *testing.T) {
	// Passed out of order on purpose.
	points := []Point{
		point(2, 80, 24.69),
		point(0, 81, 25),
		point(1, 82, 25.31),
		point(3, 79.5, 24.54),
	}

	s, err := Summarize(points)
	require.NoError(t, err)

	assert.Equal(t, 4, s.Count)
	assert.Equal(t, 25.0, s.InitialBMI)
	assert.Equal(t, 24.54, s.LatestBMI)
	assert.Equal(t, NormalWeight, s.LatestCategory)
	assert.Equal(t, 81.0, s.StartingWeight)
	assert.Equal(t, 79.5, s.CurrentWeight)
	assert.Equal(t, -1.5, s.WeightChange)
	assert.Equal(t, 25.31, s.HighestBMI)
	assert.Equal(t, 24.54, s.LowestBMI)
	require.NotNil(t, s.ProgressPercent)
	assert.Equal(t, -1.84, *s.ProgressPercent)
}

func TestSummarize_SinglePoint(t *testing.T) {
	s, err := Summarize([]Point{point(0, 81, 25)})
	require.NoError(t, err)

	assert.Equal(t, 1, s.Count)
	assert.Nil(t, s.ProgressPercent)
	assert.Equal(t, 0.0, s.WeightChange)
	assert.Equal(t, s.InitialBMI, s.LatestBMI)
}

func TestSummarize_Empty(t *testing.T) {
	_, err := Summarize(nil)
	assert.ErrorIs(t, err, ErrEmptySeries)
}

func TestOrdering(t *testing.T) {
	a := point(1, 80, 24.69)
	b := point(0, 81, 25)
	c := point(1, 79, 24.38)

	points := []Point{a, b, c}

	assert.Equal(t, []Point{b, a, c}, Chronological(points))
	assert.Equal(t, []Point{a, c, b}, NewestFirst(points))
	assert.Equal(t, []Point{a, b, c}, points, "input must not be reordered")
}
