// Package risk bounds what the forecast boundary may spend and accept.
package risk

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var ErrBudgetExhausted = errors.New("daily forecast limit reached")

// DailyForecastCounter abstracts the call-counting dependency so Guardian
// can be tested without shared state.
type DailyForecastCounter interface {
	CountToday(ctx context.Context) (int, error)
	Record(ctx context.Context) error
}

// Limits holds the forecast thresholds from config.
// A zero value for any field means that check is disabled.
type Limits struct {
	MaxDailyForecasts int
	MaxDropPercent    float64
	MaxRisePercent    float64
}

type Guardian struct {
	limits  Limits
	counter DailyForecastCounter
}

func NewGuardian(limits Limits, counter DailyForecastCounter) *Guardian {
	if counter == nil {
		counter = NewDayCounter(nil)
	}
	return &Guardian{limits: limits, counter: counter}
}

// PreForecastCheck reserves one model call from today's budget.
// Returns an error wrapping ErrBudgetExhausted when the budget is spent.
func (g *Guardian) PreForecastCheck(ctx context.Context) error {
	if g.limits.MaxDailyForecasts <= 0 {
		return nil
	}

	count, err := g.counter.CountToday(ctx)
	if err != nil {
		return fmt.Errorf("forecast blocked: unable to verify daily forecast count: %w", err)
	}
	if count >= g.limits.MaxDailyForecasts {
		return fmt.Errorf("%w: %d of %d model calls used today",
			ErrBudgetExhausted, count, g.limits.MaxDailyForecasts)
	}
	return g.counter.Record(ctx)
}

// ForecastCheck rejects a forecast whose target moves implausibly far from
// the spot price.
func (g *Guardian) ForecastCheck(spot, target float64) error {
	if spot <= 0 {
		return nil
	}
	movePercent := (target - spot) / spot * 100

	if g.limits.MaxDropPercent > 0 && movePercent <= -g.limits.MaxDropPercent {
		return fmt.Errorf("forecast rejected: target $%.2f is %.2f%% below spot (threshold: -%.2f%%)",
			target, -movePercent, g.limits.MaxDropPercent)
	}

	if g.limits.MaxRisePercent > 0 && movePercent >= g.limits.MaxRisePercent {
		return fmt.Errorf("forecast rejected: target $%.2f is %.2f%% above spot (threshold: +%.2f%%)",
			target, movePercent, g.limits.MaxRisePercent)
	}

	return nil
}

// DayCounter counts model calls per UTC day in memory.
type DayCounter struct {
	mu    sync.Mutex
	clock func() time.Time
	day   string
	count int
}

func NewDayCounter(clock func() time.Time) *DayCounter {
	if clock == nil {
		clock = time.Now
	}
	return &DayCounter{clock: clock}
}

func (c *DayCounter) CountToday(_ context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rollover()
	return c.count, nil
}

func (c *DayCounter) Record(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rollover()
	c.count++
	return nil
}

func (c *DayCounter) rollover() {
	today := c.clock().UTC().Format("2006-01-02")
	if today != c.day {
		c.day = today
		c.count = 0
	}
}
