package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kjannette/goldsight-backend/internal/api"
	"github.com/kjannette/goldsight-backend/internal/cache"
	"github.com/kjannette/goldsight-backend/internal/config"
	"github.com/kjannette/goldsight-backend/internal/dashboard"
	"github.com/kjannette/goldsight-backend/internal/db"
	"github.com/kjannette/goldsight-backend/internal/external"
	"github.com/kjannette/goldsight-backend/internal/models"
	"github.com/kjannette/goldsight-backend/internal/notifications"
	"github.com/kjannette/goldsight-backend/internal/observability"
	"github.com/kjannette/goldsight-backend/internal/repository"
	"github.com/kjannette/goldsight-backend/internal/risk"
	"github.com/kjannette/goldsight-backend/internal/scheduler"
	"github.com/kjannette/goldsight-backend/internal/series"
)

const banner = `
╔══════════════════════════════════════╗
║     GoldSight XAUUSD Backend v0.1    ║
║                                      ║
╚══════════════════════════════════════╝
`

func main() {
	fmt.Print(banner)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	cfg.Print()

	apiOpts := api.Options{
		Port:         cfg.APIPort,
		APIKey:       cfg.APIKey,
		CORSOrigin:   cfg.CORSAllowOrigin,
		WriteTimeout: cfg.LLMTimeout() + 30*time.Second,
	}

	// Saved model storage
	var store repository.ModelStore = repository.NewMemoryModelStore()
	if cfg.Storage == config.StoragePostgres {
		fmt.Printf("\n[DB] Connecting to %s:%d/%s ...\n", cfg.DBHost, cfg.DBPort, cfg.DBName)
		pool, err := db.Connect(context.Background(), cfg.DSN(), db.PoolOptions{
			MaxConns: int32(cfg.DBMaxConns),
			MinConns: int32(cfg.DBMinConns),
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "[DB] Connection failed: %v\n", err)
			os.Exit(1)
		}
		defer func() {
			pool.Close()
			fmt.Println("[DB] Connection pool closed")
		}()

		if err := db.TestConnection(context.Background(), pool); err != nil {
			fmt.Fprintf(os.Stderr, "[DB] Test query failed: %v\n", err)
			os.Exit(1)
		}
		if err := db.Migrate(context.Background(), pool); err != nil {
			fmt.Fprintf(os.Stderr, "[DB] %v\n", err)
			os.Exit(1)
		}
		store = repository.NewModelRepo(pool)
		apiOpts.DB = pool
	}

	// Forecast cache
	var forecastCache dashboard.ForecastCache
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedisForecastCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.ForecastCacheTTL())
		if err != nil {
			fmt.Fprintf(os.Stderr, "[CACHE] %v, continuing without cache\n", err)
		} else {
			defer func() {
				rc.Close()
				fmt.Println("[CACHE] Redis client closed")
			}()
			fmt.Printf("[CACHE] Redis forecast cache at %s (ttl %s)\n", cfg.RedisAddr, cfg.ForecastCacheTTL())
			forecastCache = rc
			apiOpts.Cache = rc
		}
	}

	// Notifications
	notify := notifications.Multi{notifications.NewSender(cfg.WebhookURL, cfg.BotName)}
	if cfg.TelegramEnabled() {
		tg, err := notifications.NewTelegramSender(cfg.TelegramBotToken, cfg.TelegramChatID, cfg.BotName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[NOTIFY] Telegram disabled: %v\n", err)
		} else {
			notify = append(notify, tg)
		}
	}

	// Series generator
	seriesCfg := series.DefaultConfig()
	seriesCfg.DenseWindowDays = cfg.DenseWindowDays
	seriesCfg.Floor = cfg.PriceFloor
	seriesCfg.CurrentPrice = cfg.CurrentPrice
	seriesCfg.YesterdayPrice = cfg.YesterdayPrice
	gen, err := series.NewGenerator(seriesCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[SERIES] %v\n", err)
		os.Exit(1)
	}

	forecaster := external.NewOpenAIForecaster(external.OpenAIOptions{
		APIKey:      cfg.OpenAIAPIKey,
		Model:       cfg.OpenAIModel,
		BaseURL:     cfg.OpenAIBaseURL,
		Timeout:     cfg.LLMTimeout(),
		SpotPrice:   cfg.CurrentPrice,
		AllTimeHigh: cfg.AllTimeHigh,
	})

	metrics := observability.NewMetrics(cfg.MetricsNamespace)
	apiOpts.Metrics = metrics

	dash, err := dashboard.NewService(dashboard.Options{
		Generator:  gen,
		Forecaster: forecaster,
		Store:      store,
		Cache:      forecastCache,
		Notifier:   notify,
		Metrics:    metrics,
		Guardian: risk.NewGuardian(risk.Limits{
			MaxDailyForecasts: cfg.MaxDailyForecasts,
			MaxDropPercent:    cfg.MaxForecastDropPercent,
			MaxRisePercent:    cfg.MaxForecastRisePercent,
		}, nil),
		StartYear:        cfg.HistoryStartYear,
		DefaultHorizon:   cfg.ForecastHorizon,
		MaxForecastYears: cfg.MaxForecastYears,
		Resistance:       cfg.AllTimeHigh,
		LLMTimeout:       cfg.LLMTimeout(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "[DASHBOARD] %v\n", err)
		os.Exit(1)
	}
	apiOpts.Dashboard = dash

	// Graceful shutdown context
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. History scheduler
	var histSched *scheduler.HistoryScheduler
	if cfg.HistoryRefreshEnabled {
		histSched = scheduler.NewHistoryScheduler(dash, scheduler.HistorySchedulerConfig{
			Spec: cfg.HistoryRefreshCron,
			OnRefresh: func(points []models.PricePoint) {
				if last := models.Last(points); last != nil {
					dash.Notify(fmt.Sprintf("history rolled to %s ($%.2f)", last.Date, last.Price))
				}
			},
		})
		if err := histSched.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "[SCHEDULER] Start failed: %v\n", err)
			os.Exit(1)
		}
		apiOpts.Scheduler = histSched
	} else {
		fmt.Println("[SCHEDULER] Skipped - HISTORY_REFRESH_ENABLED=false")
	}

	// 2. API server
	srv := api.NewServer(apiOpts)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "[API] Server error: %v\n", err)
			os.Exit(1)
		}
	}()

	fmt.Println("\nAll services started successfully")

	// Wait for shutdown signal
	<-ctx.Done()
	fmt.Println("\nShutting down gracefully...")

	if histSched != nil {
		histSched.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "[API] Shutdown error: %v\n", err)
	}
	fmt.Println("[API] Server closed")

	dash.Close()
	fmt.Println("[NOTIFY] Pending notifications flushed")
	fmt.Println("Shutdown complete")
}
