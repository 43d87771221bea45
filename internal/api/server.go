package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kjannette/goldsight-backend/internal/dashboard"
	"github.com/kjannette/goldsight-backend/internal/observability"
)

const (
	maxQueryLimit = 1000
	maxBodyBytes  = 1 << 20
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Refresher triggers an out-of-schedule history refresh.
type Refresher interface {
	RefreshNow(ctx context.Context) error
	Running() bool
}

type Options struct {
	Port         int
	APIKey       string
	CORSOrigin   string
	WriteTimeout time.Duration // must cover a full forecast generation

	Dashboard *dashboard.Service
	Metrics   *observability.Metrics // optional, serves /metrics
	DB        Pinger                 // optional
	Cache     Pinger                 // optional
	Scheduler Refresher              // optional
}

type Server struct {
	dash       *dashboard.Service
	db         Pinger
	cache      Pinger
	scheduler  Refresher
	httpServer *http.Server
	apiKey     string
}

func NewServer(opts Options) *Server {
	s := &Server{
		dash:      opts.Dashboard,
		db:        opts.DB,
		cache:     opts.Cache,
		scheduler: opts.Scheduler,
		apiKey:    opts.APIKey,
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 2 * time.Minute
	}

	mux := http.NewServeMux()

	// History routes
	mux.HandleFunc("GET /v1/history", s.handleHistory)
	mux.HandleFunc("GET /v1/history/csv", s.handleHistoryCSV)
	mux.HandleFunc("POST /v1/history/refresh", s.handleHistoryRefresh)
	mux.HandleFunc("POST /v1/csv/decode", s.handleDecodeCSV)
	mux.HandleFunc("GET /v1/market/summary", s.handleMarketSummary)

	// Forecast routes
	mux.HandleFunc("POST /v1/forecasts", s.handleGenerateForecast)
	mux.HandleFunc("GET /v1/forecasts/latest", s.handleLatestForecast)

	// Saved model routes
	mux.HandleFunc("POST /v1/models", s.handleSaveModel)
	mux.HandleFunc("GET /v1/models", s.handleListModels)
	mux.HandleFunc("GET /v1/models/{id}", s.handleGetModel)
	mux.HandleFunc("DELETE /v1/models/{id}", s.handleDeleteModel)

	// No auth required
	mux.HandleFunc("GET /health", s.handleHealth)
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics.Handler())
	}

	handler := s.authMiddleware(corsMiddleware(mux, opts.CORSOrigin))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", opts.Port),
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: opts.WriteTimeout,
	}

	return s
}

func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	fmt.Printf("[API] REST API server started on http://localhost%s\n", s.httpServer.Addr)
	fmt.Printf("[API] Health check: http://localhost%s/health\n", s.httpServer.Addr)
	if s.apiKey != "" {
		fmt.Println("[API] Authentication: enabled (Bearer token)")
	} else {
		fmt.Println("[API] Authentication: disabled (no API_KEY configured)")
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// --- middleware ---

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" || r.URL.Path == "/health" || r.URL.Path == "/metrics" || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		auth := r.Header.Get("Authorization")
		if auth == "" {
			writeError(w, http.StatusUnauthorized, "missing Authorization header")
			return
		}

		token := strings.TrimPrefix(auth, "Bearer ")
		if token == auth || token != s.apiKey {
			writeError(w, http.StatusUnauthorized, "invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(next http.Handler, allowOrigin string) http.Handler {
	if allowOrigin == "" {
		allowOrigin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- validation helpers ---

// parseStartYear returns 0 when start_year is absent.
func parseStartYear(r *http.Request, now time.Time) (int, error) {
	v := r.URL.Query().Get("start_year")
	if v == "" {
		return 0, nil
	}
	year, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("start_year must be a year, got %q", v)
	}
	if year < 1970 || year > now.Year()+1 {
		return 0, fmt.Errorf("start_year must be between 1970 and %d", now.Year()+1)
	}
	return year, nil
}

func parseLimit(r *http.Request, defaultLimit int) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return defaultLimit
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return defaultLimit
	}
	if n > maxQueryLimit {
		return maxQueryLimit
	}
	return n
}

// --- response helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
