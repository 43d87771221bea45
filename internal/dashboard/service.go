// Package dashboard holds the server-side state behind the GoldSight
// dashboard: the current history snapshot, the latest forecast and the saved
// model library.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/kjannette/goldsight-backend/internal/cache"
	"github.com/kjannette/goldsight-backend/internal/external"
	"github.com/kjannette/goldsight-backend/internal/models"
	"github.com/kjannette/goldsight-backend/internal/notifications"
	"github.com/kjannette/goldsight-backend/internal/observability"
	"github.com/kjannette/goldsight-backend/internal/pricecsv"
	"github.com/kjannette/goldsight-backend/internal/repository"
	"github.com/kjannette/goldsight-backend/internal/risk"
	"github.com/kjannette/goldsight-backend/internal/series"
)

var (
	ErrGenerationFailed = errors.New("generation failed, please retry")
	ErrInvalidHorizon   = errors.New("invalid forecast horizon")
	ErrNothingToSave    = errors.New("generate a forecast before saving a model")
)

type Forecaster interface {
	GenerateForecast(ctx context.Context, historicalCSV string, horizon int) (*external.ForecastResponse, error)
	SummarizeTrends(ctx context.Context, forecastData string) (string, error)
	Model() string
}

// ForecastCache returns (nil, nil) on a miss.
type ForecastCache interface {
	Get(ctx context.Context, key string) (*models.Forecast, error)
	Set(ctx context.Context, key string, f *models.Forecast) error
}

type Options struct {
	Generator  *series.Generator
	Forecaster Forecaster
	Store      repository.ModelStore

	Cache    ForecastCache          // optional
	Notifier notifications.Notifier // optional
	Metrics  *observability.Metrics // optional
	Guardian *risk.Guardian         // optional

	StartYear        int
	DefaultHorizon   int
	MaxForecastYears int
	Resistance       float64
	LLMTimeout       time.Duration
	Clock            func() time.Time
}

type Service struct {
	gen        *series.Generator
	forecaster Forecaster
	store      repository.ModelStore
	cache      ForecastCache
	notifier   notifications.Notifier
	metrics    *observability.Metrics
	guard      *risk.Guardian

	startYear      int
	defaultHorizon int
	maxYears       int
	resistance     float64
	llmTimeout     time.Duration
	clock          func() time.Time

	mu      sync.RWMutex
	history []models.PricePoint
	latest  *models.Forecast

	saveMu sync.Mutex
	group  singleflight.Group

	noteMu     sync.RWMutex
	noteClosed bool
	notes      chan string
	notesDone  chan struct{}
}

// notifyBuffer bounds queued notifications; further messages are dropped
// while the notifier is stalled.
const notifyBuffer = 64

// NewService builds the service and generates the first history snapshot.
func NewService(opts Options) (*Service, error) {
	if opts.Generator == nil {
		return nil, fmt.Errorf("dashboard: generator is required")
	}
	if opts.Forecaster == nil {
		return nil, fmt.Errorf("dashboard: forecaster is required")
	}
	if opts.Store == nil {
		opts.Store = repository.NewMemoryModelStore()
	}
	if opts.StartYear == 0 {
		opts.StartYear = series.DefaultStartYear
	}
	if opts.MaxForecastYears <= 0 {
		opts.MaxForecastYears = 5
	}
	if opts.LLMTimeout <= 0 {
		opts.LLMTimeout = 90 * time.Second
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	s := &Service{
		gen:            opts.Generator,
		forecaster:     opts.Forecaster,
		store:          opts.Store,
		cache:          opts.Cache,
		notifier:       opts.Notifier,
		metrics:        opts.Metrics,
		guard:          opts.Guardian,
		startYear:      opts.StartYear,
		defaultHorizon: opts.DefaultHorizon,
		maxYears:       opts.MaxForecastYears,
		resistance:     opts.Resistance,
		llmTimeout:     opts.LLMTimeout,
		clock:          opts.Clock,
		notesDone:      make(chan struct{}),
	}
	if s.notifier != nil {
		s.notes = make(chan string, notifyBuffer)
		go s.dispatchNotes()
	} else {
		close(s.notesDone)
	}
	s.RefreshHistory("startup")
	return s, nil
}

// --- history ---

// RefreshHistory regenerates the snapshot so "today" follows the clock.
func (s *Service) RefreshHistory(trigger string) []models.PricePoint {
	points := s.gen.Generate(s.startYear)

	s.mu.Lock()
	s.history = points
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.HistoryPoints.Set(float64(len(points)))
		s.metrics.HistoryRefreshes.WithLabelValues(trigger).Inc()
	}
	fmt.Printf("[DASHBOARD] History refreshed (%s): %d points from %d through %s\n",
		trigger, len(points), s.startYear, s.gen.Today())
	return models.ClonePoints(points)
}

// History returns the snapshot for the configured start year, or a fresh
// series for any other start year.
func (s *Service) History(startYear int) []models.PricePoint {
	if startYear == 0 || startYear == s.startYear {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return models.ClonePoints(s.history)
	}
	return s.gen.Generate(startYear)
}

func (s *Service) HistoryCSV() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return pricecsv.Encode(s.history)
}

func (s *Service) StartYear() int {
	return s.startYear
}

// --- forecasts ---

// ResolveHorizon applies the default and checks that horizon falls between
// the current year and MaxForecastYears after it.
func (s *Service) ResolveHorizon(horizon int) (int, error) {
	year := s.clock().UTC().Year()
	if horizon == 0 {
		horizon = max(s.defaultHorizon, year)
	}
	if horizon < year || horizon > year+s.maxYears {
		return 0, fmt.Errorf("%w: %d is outside %d..%d", ErrInvalidHorizon, horizon, year, year+s.maxYears)
	}
	return horizon, nil
}

// GenerateForecast asks the forecaster for a forecast of the current
// history. Identical concurrent requests share one model call. Apart from
// ErrInvalidHorizon and risk.ErrBudgetExhausted, every failure is reported
// as ErrGenerationFailed.
func (s *Service) GenerateForecast(ctx context.Context, horizon int) (*models.Forecast, error) {
	horizon, err := s.ResolveHorizon(horizon)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	csv := pricecsv.Encode(s.history)
	spot := 0.0
	if last := models.Last(s.history); last != nil {
		spot = last.Price
	}
	s.mu.RUnlock()

	// Callers share a call only when they would send the model the same
	// prompt, so the key is the cache key over the exact CSV.
	key := cache.Key(horizon, csv)
	v, err, shared := s.group.Do(key, func() (any, error) {
		// The shared call outlives any single caller's cancellation.
		genCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.llmTimeout)
		defer cancel()
		return s.generate(genCtx, key, horizon, csv, spot)
	})
	if shared {
		fmt.Printf("[DASHBOARD] Shared in-flight forecast for %s\n", key)
	}
	if err != nil {
		return nil, err
	}
	return cloneForecast(v.(*models.Forecast)), nil
}

func (s *Service) generate(ctx context.Context, cacheKey string, horizon int, csv string, spot float64) (*models.Forecast, error) {
	start := time.Now()

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, cacheKey)
		if err != nil {
			fmt.Printf("[CACHE] Lookup failed, calling model: %v\n", err)
		} else if cached != nil {
			if s.metrics != nil {
				s.metrics.ForecastCacheHits.Inc()
				s.metrics.ForecastsTotal.WithLabelValues(observability.ResultCached).Inc()
			}
			s.setLatest(cached)
			return cached, nil
		}
	}

	if s.guard != nil {
		if err := s.guard.PreForecastCheck(ctx); err != nil {
			if errors.Is(err, risk.ErrBudgetExhausted) {
				fmt.Printf("[DASHBOARD] Forecast for %d refused: %v\n", horizon, err)
				if s.metrics != nil {
					s.metrics.ForecastsTotal.WithLabelValues(observability.ResultRefused).Inc()
				}
				return nil, err
			}
			return nil, s.fail(horizon, err)
		}
	}

	f, err := s.callForecaster(ctx, horizon, csv, spot)
	if err != nil {
		return nil, s.fail(horizon, err)
	}

	s.setLatest(f)
	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, f); err != nil {
			fmt.Printf("[CACHE] Store failed: %v\n", err)
		}
	}
	if s.metrics != nil {
		s.metrics.ForecastsTotal.WithLabelValues(observability.ResultSuccess).Inc()
		s.metrics.ForecastDuration.Observe(time.Since(start).Seconds())
	}

	target := f.Target()
	fmt.Printf("[DASHBOARD] Forecast for %d ready: %d points, target $%.2f (%s)\n",
		horizon, len(f.Points), *target, time.Since(start).Round(time.Millisecond))
	s.Notify(fmt.Sprintf("forecast generated: %d target $%.2f (%d points)", horizon, *target, len(f.Points)))
	return f, nil
}

func (s *Service) fail(horizon int, err error) error {
	fmt.Printf("[DASHBOARD] Forecast for %d failed: %v\n", horizon, err)
	if s.metrics != nil {
		s.metrics.ForecastsTotal.WithLabelValues(observability.ResultFailure).Inc()
	}
	s.Notify(fmt.Sprintf("forecast generation for %d failed", horizon))
	return fmt.Errorf("%w: %w", ErrGenerationFailed, err)
}

func (s *Service) callForecaster(ctx context.Context, horizon int, csv string, spot float64) (*models.Forecast, error) {
	resp, err := s.forecaster.GenerateForecast(ctx, csv, horizon)
	if err != nil {
		return nil, fmt.Errorf("forecast prompt: %w", err)
	}

	points := pricecsv.Finite(resp.Points)
	if len(points) == 0 {
		return nil, fmt.Errorf("forecast reply had no usable points")
	}
	if s.guard != nil {
		if err := s.guard.ForecastCheck(spot, models.Last(points).Price); err != nil {
			return nil, err
		}
	}

	trends, err := s.forecaster.SummarizeTrends(ctx, pricecsv.Encode(points))
	if err != nil {
		return nil, fmt.Errorf("trends prompt: %w", err)
	}

	return &models.Forecast{
		Horizon:     horizon,
		Points:      points,
		Summary:     resp.Summary,
		Trends:      trends,
		Model:       s.forecaster.Model(),
		GeneratedAt: s.clock().UTC(),
	}, nil
}

func (s *Service) setLatest(f *models.Forecast) {
	s.mu.Lock()
	s.latest = cloneForecast(f)
	s.mu.Unlock()
}

func (s *Service) LatestForecast() (*models.Forecast, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return nil, false
	}
	return cloneForecast(s.latest), true
}

// Snapshot builds the market summary cards from the history and the latest
// forecast.
func (s *Service) Snapshot() models.MarketSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.NewMarketSnapshot(s.history, s.latest, s.resistance)
}

func (s *Service) ForecasterModel() string {
	return s.forecaster.Model()
}

// --- saved models ---

// SaveModel stores the latest forecast as Gold-<horizon>-Project-<n>.
func (s *Service) SaveModel(ctx context.Context) (*models.SavedModel, error) {
	latest, ok := s.LatestForecast()
	if !ok {
		return nil, ErrNothingToSave
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	n, err := s.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count saved models: %w", err)
	}

	m := &models.SavedModel{
		ID:        uuid.NewString(),
		Name:      fmt.Sprintf("Gold-%d-Project-%d", latest.Horizon, n+1),
		Horizon:   latest.Horizon,
		CreatedAt: s.clock().UTC(),
		Forecast:  *latest,
	}
	if err := s.store.Save(ctx, m); err != nil {
		return nil, fmt.Errorf("save model: %w", err)
	}

	if s.metrics != nil {
		s.metrics.SavedModels.Inc()
	}
	fmt.Printf("[DASHBOARD] Saved %s (%s)\n", m.Name, m.ID)
	s.Notify(fmt.Sprintf("model saved: %s", m.Name))
	return m, nil
}

func (s *Service) ListModels(ctx context.Context, limit int) ([]models.SavedModel, error) {
	return s.store.List(ctx, limit)
}

func (s *Service) GetModel(ctx context.Context, id string) (*models.SavedModel, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) DeleteModel(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// Notify queues msg for the configured notifier without waiting on delivery.
func (s *Service) Notify(msg string) {
	s.noteMu.RLock()
	defer s.noteMu.RUnlock()
	if s.notes == nil || s.noteClosed {
		return
	}
	select {
	case s.notes <- msg:
	default:
		fmt.Printf("[DASHBOARD] Notification dropped, queue full: %s\n", msg)
	}
}

func (s *Service) dispatchNotes() {
	defer close(s.notesDone)
	for msg := range s.notes {
		s.notifier.Send(msg)
	}
}

// Close stops accepting notifications and waits for queued ones to be sent.
func (s *Service) Close() {
	s.noteMu.Lock()
	if !s.noteClosed {
		s.noteClosed = true
		if s.notes != nil {
			close(s.notes)
		}
	}
	s.noteMu.Unlock()
	<-s.notesDone
}

func cloneForecast(f *models.Forecast) *models.Forecast {
	cp := *f
	cp.Points = models.ClonePoints(f.Points)
	return &cp
}
