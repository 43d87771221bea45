package scheduler_test

import (
	"context"
	"sync"
	"testing"

	"github.com/kjannette/goldsight-backend/internal/models"
	"github.com/kjannette/goldsight-backend/internal/scheduler"
)

type fakeRefresher struct {
	mu       sync.Mutex
	triggers []string
}

func (f *fakeRefresher) RefreshHistory(trigger string) []models.PricePoint {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.triggers = append(f.triggers, trigger)
	return []models.PricePoint{{Date: "2026-10-18", Price: 4964}}
}

func TestHistoryScheduler_StartStop(t *testing.T) {
	sched := scheduler.NewHistoryScheduler(&fakeRefresher{}, scheduler.HistorySchedulerConfig{})

	if sched.Running() {
		t.Fatal("should not be running before Start")
	}
	if err := sched.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !sched.Running() {
		t.Fatal("should be running after Start")
	}
	if err := sched.Start(); err != nil {
		t.Fatalf("second Start: %v", err)
	}

	sched.Stop()
	if sched.Running() {
		t.Fatal("should not be running after Stop")
	}
	sched.Stop()
}

func TestHistoryScheduler_InvalidSpec(t *testing.T) {
	sched := scheduler.NewHistoryScheduler(&fakeRefresher{}, scheduler.HistorySchedulerConfig{Spec: "every tuesday"})
	if err := sched.Start(); err == nil {
		t.Fatal("expected error for invalid cron spec")
	}
	if sched.Running() {
		t.Fatal("should not be running after failed Start")
	}
}

func TestHistoryScheduler_RefreshNow(t *testing.T) {
	ref := &fakeRefresher{}
	var got []models.PricePoint
	sched := scheduler.NewHistoryScheduler(ref, scheduler.HistorySchedulerConfig{
		OnRefresh: func(points []models.PricePoint) { got = points },
	})

	if err := sched.RefreshNow(context.Background()); err != nil {
		t.Fatalf("RefreshNow: %v", err)
	}
	if len(ref.triggers) != 1 || ref.triggers[0] != "manual" {
		t.Fatalf("triggers: got %v", ref.triggers)
	}
	if len(got) != 1 || got[0].Price != 4964 {
		t.Fatalf("OnRefresh points: got %v", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sched.RefreshNow(ctx); err == nil {
		t.Fatal("expected error for cancelled context")
	}
	if len(ref.triggers) != 1 {
		t.Fatalf("cancelled refresh should not run, got %v", ref.triggers)
	}
}
