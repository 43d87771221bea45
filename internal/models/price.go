package models

import (
	"math"

	"github.com/shopspring/decimal"
)

// DateLayout is the canonical textual form of a PricePoint date.
const DateLayout = "2006-01-02"

type PricePoint struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}

// Round2 rounds a price to 2 decimal places, half away from zero.
func Round2(price float64) float64 {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return price
	}
	return decimal.NewFromFloat(price).Round(2).InexactFloat64()
}

// Last returns the final point of a series, or nil for an empty one.
func Last(points []PricePoint) *PricePoint {
	if len(points) == 0 {
		return nil
	}
	p := points[len(points)-1]
	return &p
}

// ClonePoints returns a copy that shares no backing array with points.
func ClonePoints(points []PricePoint) []PricePoint {
	if points == nil {
		return nil
	}
	out := make([]PricePoint, len(points))
	copy(out, points)
	return out
}
