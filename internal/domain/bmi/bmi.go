// Package bmi holds the body-mass-index formula, the category bands and the
// single rounding policy used by every view that shows a BMI value.
package bmi

import (
	"errors"
	"math"
	"time"
)

var (
	ErrInvalidHeight = errors.New("height must be a positive number of centimeters")
	ErrInvalidWeight = errors.New("weight must be a positive number of kilograms")
	ErrInvalidBMI    = errors.New("bmi must be a finite non-negative number")
)

type Category string

const (
	Underweight  Category = "Underweight"
	NormalWeight Category = "Normal weight"
	Overweight   Category = "Overweight"
	Obese        Category = "Obese"
)

// Lower bounds of the bands. Each bound belongs to the band it opens.
const (
	NormalWeightFrom = 18.5
	OverweightFrom   = 25.0
	ObeseFrom        = 30.0
)

// Accepted body measurements. Anything outside is rejected before it is
// stored, which keeps every derived value finite.
const (
	MinHeightCm = 30.0
	MaxHeightCm = 300.0
	MaxWeightKg = 700.0
)

// Precision is the number of decimal places kept in every rendered BMI value.
const Precision = 2

// Compute returns weightKg / (heightCm/100)^2, unrounded. The division is
// done in square centimeters so whole inputs such as 81kg at 180cm give 25
// exactly.
func Compute(weightKg, heightCm float64) (float64, error) {
	if !isPositive(heightCm) {
		return 0, ErrInvalidHeight
	}
	if !isPositive(weightKg) {
		return 0, ErrInvalidWeight
	}
	v := weightKg * 10000 / (heightCm * heightCm)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrInvalidBMI
	}
	return v, nil
}

// ValidHeight reports whether heightCm is within MinHeightCm..MaxHeightCm.
func ValidHeight(heightCm float64) bool {
	return isPositive(heightCm) && heightCm >= MinHeightCm && heightCm <= MaxHeightCm
}

// ValidWeight reports whether weightKg is positive and below MaxWeightKg.
func ValidWeight(weightKg float64) bool {
	return isPositive(weightKg) && weightKg < MaxWeightKg
}

func Categorize(v float64) (Category, error) {
	if math.IsNaN(v) || v < 0 {
		return "", ErrInvalidBMI
	}
	switch {
	case v < NormalWeightFrom:
		return Underweight, nil
	case v < OverweightFrom:
		return NormalWeight, nil
	case v < ObeseFrom:
		return Overweight, nil
	default:
		return Obese, nil
	}
}

// Round applies the display precision, half away from zero.
func Round(v float64) float64 {
	return roundTo(v, Precision)
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Point is one weight entry enriched with its derived BMI.
// It is computed on every read and never stored.
type Point struct {
	Weight    float64   `json:"weight"`
	Timestamp time.Time `json:"timestamp"`
	BMI       float64   `json:"bmi"`
	Category  Category  `json:"category"`
}

// NewPoint categorises the rounded value, so the category always agrees
// with the number shown next to it.
func NewPoint(weightKg, heightCm float64, ts time.Time) (Point, error) {
	v, err := Compute(weightKg, heightCm)
	if err != nil {
		return Point{}, err
	}
	v = Round(v)
	c, err := Categorize(v)
	if err != nil {
		return Point{}, err
	}
	return Point{
		Weight:    weightKg,
		Timestamp: ts,
		BMI:       v,
		Category:  c,
	}, nil
}

func isPositive(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
