package models

import "time"

type Forecast struct {
	Horizon     int          `json:"horizon"`
	Points      []PricePoint `json:"forecastData"`
	Summary     string       `json:"summary"`
	Trends      string       `json:"trends"`
	Model       string       `json:"model"`
	GeneratedAt time.Time    `json:"generatedAt"`
}

// Target is the price of the final forecast point, if any.
func (f *Forecast) Target() *float64 {
	if f == nil {
		return nil
	}
	last := Last(f.Points)
	if last == nil {
		return nil
	}
	return &last.Price
}

type SavedModel struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Horizon   int       `json:"horizon"`
	CreatedAt time.Time `json:"createdAt"`
	Forecast  Forecast  `json:"forecast"`
}
