// Package series generates the synthetic XAUUSD history shown on the dashboard.
//
// The history is a random walk that drifts toward a table of milestone prices,
// recorded daily near "today" and monthly further back. After the walk, the
// yesterday and today points are pinned to fixed anchor prices so the headline
// numbers quoted by the forecast prompt always match the chart.
package series

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/kjannette/goldsight-backend/internal/models"
)

const (
	DefaultStartYear     = 2008
	DefaultReferenceYear = 2015
)

var ErrInvalidConfig = errors.New("invalid series config")

type Config struct {
	Milestones []Milestone

	// Walks starting before ReferenceYear seed from EarlySeed, later ones
	// from LateSeed.
	ReferenceYear int
	EarlySeed     float64
	LateSeed      float64

	Smoothing       float64 // drift divisor, must be > 0
	NoiseAmplitude  float64
	Floor           float64
	DenseWindowDays int

	CurrentPrice   float64 // pinned on today
	YesterdayPrice float64 // pinned on today-1

	Clock func() time.Time
	Noise func() float64 // uniform in [0,1)
}

func DefaultConfig() Config {
	return Config{
		Milestones:      DefaultMilestones,
		ReferenceYear:   DefaultReferenceYear,
		EarlySeed:       1100,
		LateSeed:        1180,
		Smoothing:       30,
		NoiseAmplitude:  15,
		Floor:           800,
		DenseWindowDays: 90,
		CurrentPrice:    4964,
		YesterdayPrice:  4951.30,
	}
}

func (c Config) validate() error {
	if c.Smoothing <= 0 {
		return fmt.Errorf("%w: smoothing must be positive, got %v", ErrInvalidConfig, c.Smoothing)
	}
	if c.Floor < 0 {
		return fmt.Errorf("%w: floor must not be negative, got %v", ErrInvalidConfig, c.Floor)
	}
	if c.DenseWindowDays < 1 {
		return fmt.Errorf("%w: dense window must be at least 1 day, got %d", ErrInvalidConfig, c.DenseWindowDays)
	}
	if c.NoiseAmplitude < 0 {
		return fmt.Errorf("%w: noise amplitude must not be negative, got %v", ErrInvalidConfig, c.NoiseAmplitude)
	}
	for i := 1; i < len(c.Milestones); i++ {
		prev, cur := c.Milestones[i-1], c.Milestones[i]
		if cur.UntilYear < prev.UntilYear || (cur.UntilYear == prev.UntilYear && cur.UntilMonth < prev.UntilMonth) {
			return fmt.Errorf("%w: milestone %d (%d-%02d) is out of order", ErrInvalidConfig, i, cur.UntilYear, cur.UntilMonth)
		}
	}
	return nil
}

type Generator struct {
	cfg Config
}

func NewGenerator(cfg Config) (*Generator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Noise == nil {
		cfg.Noise = rand.Float64
	}
	return &Generator{cfg: cfg}, nil
}

// Generate returns the history from January 1 of startYear through today.
// It never fails: a startYear in the future still yields the pinned
// yesterday and today anchors.
func (g *Generator) Generate(startYear int) []models.PricePoint {
	today := civilDate(g.cfg.Clock())
	walked := g.walk(startYear, today)
	return pinAnchors(walked, today, g.cfg.YesterdayPrice, g.cfg.CurrentPrice)
}

// Today is the civil date the generator treats as "now".
func (g *Generator) Today() string {
	return civilDate(g.cfg.Clock()).Format(models.DateLayout)
}

type walkState struct {
	price  float64
	points []models.PricePoint
}

func (g *Generator) walk(startYear int, today time.Time) []models.PricePoint {
	state := walkState{price: g.seedFor(startYear)}
	denseFrom := today.AddDate(0, 0, -(g.cfg.DenseWindowDays - 1))

	for day := time.Date(startYear, time.January, 1, 0, 0, 0, 0, time.UTC); !day.After(today); day = day.AddDate(0, 0, 1) {
		state = g.step(state, day, denseFrom)
	}
	return state.points
}

func (g *Generator) step(s walkState, day, denseFrom time.Time) walkState {
	target := targetFor(g.cfg.Milestones, day.Year(), int(day.Month()), g.cfg.CurrentPrice)

	drift := (target - s.price) / g.cfg.Smoothing
	noise := (g.cfg.Noise()*2 - 1) * g.cfg.NoiseAmplitude
	price := max(s.price+drift+noise, g.cfg.Floor)

	points := s.points
	if !day.Before(denseFrom) || day.Day() == 1 {
		points = append(points, models.PricePoint{
			Date:  day.Format(models.DateLayout),
			Price: models.Round2(price),
		})
	}
	return walkState{price: price, points: points}
}

func (g *Generator) seedFor(startYear int) float64 {
	if startYear < g.cfg.ReferenceYear {
		return g.cfg.EarlySeed
	}
	return g.cfg.LateSeed
}

// pinAnchors overwrites (or inserts) the yesterday and today points with the
// anchor prices and re-sorts by date. The walk output is not modified.
func pinAnchors(walked []models.PricePoint, today time.Time, yesterdayPrice, currentPrice float64) []models.PricePoint {
	out := models.ClonePoints(walked)
	out = upsert(out, today.AddDate(0, 0, -1).Format(models.DateLayout), models.Round2(yesterdayPrice))
	out = upsert(out, today.Format(models.DateLayout), models.Round2(currentPrice))

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date < out[j].Date
	})
	return out
}

func upsert(points []models.PricePoint, date string, price float64) []models.PricePoint {
	for i := range points {
		if points[i].Date == date {
			points[i].Price = price
			return points
		}
	}
	return append(points, models.PricePoint{Date: date, Price: price})
}

// civilDate truncates t to its UTC calendar day.
func civilDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
