package risk

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type mockCounter struct {
	count    int
	err      error
	recorded int
}

func (m *mockCounter) CountToday(_ context.Context) (int, error) {
	return m.count, m.err
}

func (m *mockCounter) Record(_ context.Context) error {
	m.recorded++
	return nil
}

// --- PreForecastCheck ---

func TestPreForecastCheck_Allowed(t *testing.T) {
	c := &mockCounter{count: 49}
	g := NewGuardian(Limits{MaxDailyForecasts: 50}, c)
	if err := g.PreForecastCheck(context.Background()); err != nil {
		t.Fatalf("expected forecast to be allowed (49/50), got: %v", err)
	}
	if c.recorded != 1 {
		t.Fatalf("allowed call should be recorded once, got %d", c.recorded)
	}
}

func TestPreForecastCheck_Blocked(t *testing.T) {
	c := &mockCounter{count: 50}
	g := NewGuardian(Limits{MaxDailyForecasts: 50}, c)
	err := g.PreForecastCheck(context.Background())
	if !errors.Is(err, ErrBudgetExhausted) {
		t.Fatalf("expected ErrBudgetExhausted, got: %v", err)
	}
	if c.recorded != 0 {
		t.Fatal("blocked call must not be recorded")
	}
	t.Logf("Correctly blocked: %v", err)
}

func TestPreForecastCheck_CounterError(t *testing.T) {
	g := NewGuardian(Limits{MaxDailyForecasts: 50}, &mockCounter{err: fmt.Errorf("db down")})
	err := g.PreForecastCheck(context.Background())
	if err == nil {
		t.Fatal("expected forecast to be blocked when counter fails")
	}
	if errors.Is(err, ErrBudgetExhausted) {
		t.Fatal("counter failure is not budget exhaustion")
	}
}

func TestPreForecastCheck_DisabledWhenZero(t *testing.T) {
	c := &mockCounter{count: 9999}
	g := NewGuardian(Limits{}, c)
	if err := g.PreForecastCheck(context.Background()); err != nil {
		t.Fatalf("zero limit should disable check, got: %v", err)
	}
	if c.recorded != 0 {
		t.Fatal("disabled budget should not record")
	}
}

// --- ForecastCheck ---

func TestForecastCheck_Drop_Triggered(t *testing.T) {
	g := NewGuardian(Limits{MaxDropPercent: 50}, nil)
	err := g.ForecastCheck(4964, 2000)
	if err == nil {
		t.Fatal("expected drop bound to reject forecast")
	}
	t.Logf("Correctly rejected: %v", err)
}

func TestForecastCheck_Drop_NotTriggered(t *testing.T) {
	g := NewGuardian(Limits{MaxDropPercent: 50}, nil)
	if err := g.ForecastCheck(4964, 4000); err != nil {
		t.Fatalf("expected forecast to pass, got: %v", err)
	}
}

func TestForecastCheck_Rise_Triggered(t *testing.T) {
	g := NewGuardian(Limits{MaxRisePercent: 100}, nil)
	if err := g.ForecastCheck(4964, 10000); err == nil {
		t.Fatal("expected rise bound to reject forecast")
	}
}

func TestForecastCheck_Rise_NotTriggered(t *testing.T) {
	g := NewGuardian(Limits{MaxRisePercent: 100}, nil)
	if err := g.ForecastCheck(4964, 5602); err != nil {
		t.Fatalf("expected forecast to pass, got: %v", err)
	}
}

func TestForecastCheck_BothDisabled(t *testing.T) {
	g := NewGuardian(Limits{}, nil)
	for _, target := range []float64{1, 4964, 1e6} {
		if err := g.ForecastCheck(4964, target); err != nil {
			t.Fatalf("disabled bounds should pass %v, got: %v", target, err)
		}
	}
}

func TestForecastCheck_ExactBoundary(t *testing.T) {
	g := NewGuardian(Limits{MaxDropPercent: 50, MaxRisePercent: 100}, nil)
	if err := g.ForecastCheck(1000, 500); err == nil {
		t.Fatal("exactly -50% should trigger the drop bound")
	}
	if err := g.ForecastCheck(1000, 2000); err == nil {
		t.Fatal("exactly +100% should trigger the rise bound")
	}
}

func TestForecastCheck_NoSpot(t *testing.T) {
	g := NewGuardian(Limits{MaxDropPercent: 1, MaxRisePercent: 1}, nil)
	if err := g.ForecastCheck(0, 5000); err != nil {
		t.Fatalf("missing spot should skip the check, got: %v", err)
	}
}

// --- DayCounter ---

func TestDayCounter_RollsOverAtUTCMidnight(t *testing.T) {
	now := time.Date(2026, 10, 18, 23, 59, 0, 0, time.UTC)
	c := NewDayCounter(func() time.Time { return now })
	ctx := context.Background()

	c.Record(ctx)
	c.Record(ctx)
	if n, _ := c.CountToday(ctx); n != 2 {
		t.Fatalf("count: got %d, want 2", n)
	}

	now = now.Add(2 * time.Minute)
	if n, _ := c.CountToday(ctx); n != 0 {
		t.Fatalf("count after midnight: got %d, want 0", n)
	}
}

func TestGuardian_WithDayCounter(t *testing.T) {
	g := NewGuardian(Limits{MaxDailyForecasts: 2}, nil)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := g.PreForecastCheck(ctx); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if err := g.PreForecastCheck(ctx); !errors.Is(err, ErrBudgetExhausted) {
		t.Fatalf("third call: got %v, want ErrBudgetExhausted", err)
	}
}
