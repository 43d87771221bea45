// Package pricecsv converts price series to and from the two-column CSV text
// exchanged with the forecasting model.
package pricecsv

import (
	"math"
	"strconv"
	"strings"

	"github.com/kjannette/goldsight-backend/internal/models"
)

const Header = "Date,Price"

// Encode renders points as "Date,Price" followed by one "date,price" row per
// point, newline separated and in input order. Empty input yields the header
// and a trailing newline only.
func Encode(points []models.PricePoint) string {
	var sb strings.Builder
	sb.WriteString(Header)
	sb.WriteByte('\n')

	for i, p := range points {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(p.Date)
		sb.WriteByte(',')
		sb.WriteString(strconv.FormatFloat(p.Price, 'f', -1, 64))
	}
	return sb.String()
}

// Decode parses CSV text back into points. The first line is always a header.
// Rows with fewer than two fields are skipped. Dates are kept verbatim. A
// price that does not parse becomes NaN and the row is kept; use Finite to
// drop such rows.
func Decode(text string) []models.PricePoint {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) <= 1 {
		return []models.PricePoint{}
	}

	out := make([]models.PricePoint, 0, len(lines)-1)
	for _, line := range lines[1:] {
		fields := strings.Split(line, ",")
		if len(fields) < 2 {
			continue
		}
		out = append(out, models.PricePoint{
			Date:  fields[0],
			Price: parsePrice(fields[1]),
		})
	}
	return out
}

// Finite returns the points whose price is a finite number.
func Finite(points []models.PricePoint) []models.PricePoint {
	out := make([]models.PricePoint, 0, len(points))
	for _, p := range points {
		if math.IsNaN(p.Price) || math.IsInf(p.Price, 0) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func parsePrice(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return f
}
