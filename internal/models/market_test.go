package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRound2(t *testing.T) {
	assert.Equal(t, 1900.5, Round2(1900.499999))
	assert.Equal(t, 1234.57, Round2(1234.5678))
	assert.Equal(t, 800.0, Round2(800))
	assert.Equal(t, -2.35, Round2(-2.345))
}

func TestNewMarketSnapshot_Empty(t *testing.T) {
	snap := NewMarketSnapshot(nil, nil, 5602)
	assert.Equal(t, 0.0, snap.SpotPrice)
	assert.Equal(t, 0.0, snap.ChangePercent)
	assert.Nil(t, snap.ForecastTarget)
	assert.Equal(t, SentimentNeutral, snap.Sentiment)
	assert.Equal(t, 5602.0, snap.ResistanceLevel)
}

func TestNewMarketSnapshot_SinglePoint(t *testing.T) {
	snap := NewMarketSnapshot([]PricePoint{{Date: "2026-10-18", Price: 4964}}, nil, 5602)
	assert.Equal(t, "2026-10-18", snap.AsOf)
	assert.Equal(t, 4964.0, snap.SpotPrice)
	assert.Equal(t, 0.0, snap.Change)
	assert.Equal(t, 0.0, snap.ChangePercent)
}

func TestNewMarketSnapshot_ChangeAndSentiment(t *testing.T) {
	history := []PricePoint{
		{Date: "2026-10-17", Price: 4900},
		{Date: "2026-10-18", Price: 4949},
	}
	forecast := &Forecast{
		Horizon: 2027,
		Points:  []PricePoint{{Date: "2027-12-01", Price: 5400}},
	}

	snap := NewMarketSnapshot(history, forecast, 5602)
	assert.Equal(t, 49.0, snap.Change)
	assert.Equal(t, 1.0, snap.ChangePercent)
	require.NotNil(t, snap.ForecastTarget)
	assert.Equal(t, 5400.0, *snap.ForecastTarget)
	require.NotNil(t, snap.ForecastHorizon)
	assert.Equal(t, 2027, *snap.ForecastHorizon)
	assert.Equal(t, SentimentBullish, snap.Sentiment)

	forecast.Points = []PricePoint{{Date: "2027-12-01", Price: 4000}}
	snap = NewMarketSnapshot(history, forecast, 5602)
	assert.Equal(t, SentimentBearish, snap.Sentiment)
}

func TestNewMarketSnapshot_ZeroPrevious(t *testing.T) {
	history := []PricePoint{
		{Date: "2026-10-17", Price: 0},
		{Date: "2026-10-18", Price: 10},
	}
	snap := NewMarketSnapshot(history, nil, 0)
	assert.Equal(t, 10.0, snap.Change)
	assert.Equal(t, 0.0, snap.ChangePercent)
}

func TestForecastTarget_NoPoints(t *testing.T) {
	var f *Forecast
	assert.Nil(t, f.Target())
	assert.Nil(t, (&Forecast{}).Target())
}
