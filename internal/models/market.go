package models

const (
	SentimentBullish = "bullish"
	SentimentBearish = "bearish"
	SentimentNeutral = "neutral"
)

type MarketSnapshot struct {
	AsOf            string   `json:"asOf"`
	SpotPrice       float64  `json:"spotPrice"`
	PreviousPrice   float64  `json:"previousPrice"`
	Change          float64  `json:"change"`
	ChangePercent   float64  `json:"changePercent"`
	ResistanceLevel float64  `json:"resistanceLevel"`
	ForecastTarget  *float64 `json:"forecastTarget,omitempty"`
	ForecastHorizon *int     `json:"forecastHorizon,omitempty"`
	Sentiment       string   `json:"sentiment"`
}

// NewMarketSnapshot builds the dashboard header cards from a history series
// and an optional forecast. The spot price is the last history point and the
// change is measured against the point before it.
func NewMarketSnapshot(history []PricePoint, forecast *Forecast, resistance float64) MarketSnapshot {
	snap := MarketSnapshot{
		ResistanceLevel: resistance,
		Sentiment:       SentimentNeutral,
	}

	n := len(history)
	if n > 0 {
		snap.AsOf = history[n-1].Date
		snap.SpotPrice = history[n-1].Price
	}
	if n > 1 {
		snap.PreviousPrice = history[n-2].Price
		snap.Change = Round2(snap.SpotPrice - snap.PreviousPrice)
		if snap.PreviousPrice != 0 {
			snap.ChangePercent = Round2(snap.Change / snap.PreviousPrice * 100)
		}
	}

	if target := forecast.Target(); target != nil {
		snap.ForecastTarget = target
		h := forecast.Horizon
		snap.ForecastHorizon = &h
		switch {
		case *target > snap.SpotPrice:
			snap.Sentiment = SentimentBullish
		case *target < snap.SpotPrice:
			snap.Sentiment = SentimentBearish
		}
	}
	return snap
}
