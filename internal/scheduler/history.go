package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kjannette/goldsight-backend/internal/models"
)

// DefaultRefreshSpec runs just after midnight UTC, when the "today" anchor
// of the history rolls over.
const DefaultRefreshSpec = "5 0 * * *"

// HistoryRefresher regenerates the history snapshot.
type HistoryRefresher interface {
	RefreshHistory(trigger string) []models.PricePoint
}

type HistorySchedulerConfig struct {
	Spec      string // five-field cron expression, evaluated in UTC
	OnRefresh func(points []models.PricePoint)
}

type HistoryScheduler struct {
	target HistoryRefresher
	cfg    HistorySchedulerConfig

	mu      sync.Mutex
	running bool
	cron    *cron.Cron
}

func NewHistoryScheduler(target HistoryRefresher, cfg HistorySchedulerConfig) *HistoryScheduler {
	if cfg.Spec == "" {
		cfg.Spec = DefaultRefreshSpec
	}
	return &HistoryScheduler{target: target, cfg: cfg}
}

func (s *HistoryScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		fmt.Println("[SCHEDULER] Already running")
		return nil
	}

	c := cron.New(cron.WithLocation(time.UTC))
	if _, err := c.AddFunc(s.cfg.Spec, func() { s.refresh("cron") }); err != nil {
		return fmt.Errorf("schedule history refresh %q: %w", s.cfg.Spec, err)
	}
	c.Start()

	s.cron = c
	s.running = true
	fmt.Printf("[SCHEDULER] Started (history refresh at %q UTC)\n", s.cfg.Spec)
	return nil
}

// Stop halts the schedule and waits for a running refresh to finish.
func (s *HistoryScheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	c := s.cron
	s.cron = nil
	s.running = false
	s.mu.Unlock()

	<-c.Stop().Done()
	fmt.Println("[SCHEDULER] Stopped")
}

func (s *HistoryScheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// RefreshNow triggers a refresh outside the normal schedule.
func (s *HistoryScheduler) RefreshNow(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fmt.Println("[SCHEDULER] Manual history refresh triggered")
	s.refresh("manual")
	return nil
}

func (s *HistoryScheduler) refresh(trigger string) {
	points := s.target.RefreshHistory(trigger)
	if s.cfg.OnRefresh != nil {
		s.cfg.OnRefresh(points)
	}
}
