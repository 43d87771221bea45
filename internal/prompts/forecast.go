package prompts

import (
	"fmt"
	"strings"
)

// SystemPrompt returns the system prompt shared by both model calls.
func SystemPrompt() string {
	return "You are an expert financial analyst specializing in XAUUSD (gold) price forecasting. " +
		"Respond with ONLY a single valid JSON object. Do not wrap it in Markdown and do not add commentary outside the JSON."
}

// ForecastPrompt asks for a monthly forecast through December of horizon,
// anchored on the spot price the history ends with.
func ForecastPrompt(historicalCSV string, horizon int, spotPrice, allTimeHigh float64) string {
	return fmt.Sprintf(`Based on the historical XAUUSD price data below, generate a monthly price forecast up to December of %d.

CRITICAL CONTEXT:
- Current Spot Price: %s (stable support).
- All-Time High (ATH): %s (primary resistance).
- Treat %s as the starting point for every projection.

Historical dataset (CSV):
%s

Required JSON format:
{
  "forecastData": [{"date": "YYYY-MM-DD", "price": 0.00}],
  "summary": "brief reasoning for the trajectory from the %s level, covering global economic factors and technical indicators"
}

Use the first day of each month for dates and plain numbers for prices.`,
		horizon,
		usd(spotPrice), usd(allTimeHigh), usd(spotPrice),
		strings.TrimSpace(historicalCSV),
		usd(spotPrice))
}

// TrendsPrompt asks for a narrative of the key trends in a forecast.
func TrendsPrompt(forecastData string) string {
	return fmt.Sprintf(`Summarize the key market trends and insights in the following XAUUSD forecast, highlighting potential opportunities and risks.

Forecast data (CSV):
%s

Required JSON format:
{
  "summary": "concise summary of key trends, opportunities and risks"
}`, strings.TrimSpace(forecastData))
}

// usd formats a price as whole dollars with thousands separators, e.g. $4,964.
func usd(v float64) string {
	s := fmt.Sprintf("%.0f", v)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-$" + b.String()
	}
	return "$" + b.String()
}
