package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	// Secrets (from .env)
	OpenAIAPIKey     string
	APIKey           string
	WebhookURL       string
	TelegramBotToken string
	TelegramChatID   int64

	// Server
	APIPort          int
	CORSAllowOrigin  string
	BotName          string
	MetricsNamespace string

	// Storage
	Storage     string
	DatabaseURL string
	DBHost      string
	DBPort      int
	DBName      string
	DBUser      string
	DBPassword  string
	DBMaxConns  int
	DBMinConns  int

	// Forecast cache
	RedisAddr               string
	RedisPassword           string
	RedisDB                 int
	ForecastCacheTTLMinutes int

	// LLM
	OpenAIModel       string
	OpenAIBaseURL     string
	LLMTimeoutSeconds int

	// Series
	HistoryStartYear int
	DenseWindowDays  int
	PriceFloor       float64
	CurrentPrice     float64
	YesterdayPrice   float64
	AllTimeHigh      float64

	// Forecasts
	ForecastHorizon  int
	MaxForecastYears int

	// Forecast limits, 0 disables
	MaxDailyForecasts      int
	MaxForecastDropPercent float64
	MaxForecastRisePercent float64

	// Timing
	HistoryRefreshEnabled bool
	HistoryRefreshCron    string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		// Secrets
		OpenAIAPIKey:     envStr("OPENAI_API_KEY", ""),
		APIKey:           envStr("API_KEY", ""),
		WebhookURL:       envStr("WEBHOOK_URL", ""),
		TelegramBotToken: envStr("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   envInt64("TELEGRAM_CHAT_ID", 0),

		// Server
		APIPort:          envInt("API_PORT", 3001),
		CORSAllowOrigin:  envStr("CORS_ALLOW_ORIGIN", "*"),
		BotName:          envStr("BOT_NAME", "GoldSight"),
		MetricsNamespace: envStr("METRICS_NAMESPACE", "goldsight"),

		// Storage
		Storage:     strings.ToLower(envStr("STORAGE", StorageMemory)),
		DatabaseURL: envStr("DATABASE_URL", ""),
		DBHost:      envStr("DB_HOST", "localhost"),
		DBPort:      envInt("DB_PORT", 5432),
		DBName:      envStr("DB_NAME", "goldsight"),
		DBUser:      envStr("DB_USER", ""),
		DBPassword:  envStr("DB_PASSWORD", ""),
		DBMaxConns:  envInt("DB_MAX_CONNS", 10),
		DBMinConns:  envInt("DB_MIN_CONNS", 1),

		// Forecast cache
		RedisAddr:               envStr("REDIS_ADDR", ""),
		RedisPassword:           envStr("REDIS_PASSWORD", ""),
		RedisDB:                 envInt("REDIS_DB", 0),
		ForecastCacheTTLMinutes: envInt("FORECAST_CACHE_TTL_MINUTES", 60),

		// LLM
		OpenAIModel:       envStr("OPENAI_MODEL", "gpt-4o"),
		OpenAIBaseURL:     envStr("OPENAI_BASE_URL", ""),
		LLMTimeoutSeconds: envInt("LLM_TIMEOUT_SECONDS", 90),

		// Series
		HistoryStartYear: envInt("HISTORY_START_YEAR", 2008),
		DenseWindowDays:  envInt("DENSE_WINDOW_DAYS", 90),
		PriceFloor:       envFloat("PRICE_FLOOR", 800),
		CurrentPrice:     envFloat("CURRENT_PRICE", 4964),
		YesterdayPrice:   envFloat("YESTERDAY_PRICE", 4951.30),
		AllTimeHigh:      envFloat("ALL_TIME_HIGH", 5602),

		// Forecasts
		ForecastHorizon:  envInt("FORECAST_HORIZON", 2026),
		MaxForecastYears: envInt("MAX_FORECAST_YEARS", 5),

		// Forecast limits
		MaxDailyForecasts:      envInt("MAX_DAILY_FORECASTS", 200),
		MaxForecastDropPercent: envFloat("MAX_FORECAST_DROP_PERCENT", 60),
		MaxForecastRisePercent: envFloat("MAX_FORECAST_RISE_PERCENT", 150),

		// Timing
		HistoryRefreshEnabled: envBool("HISTORY_REFRESH_ENABLED", true),
		HistoryRefreshCron:    envStr("HISTORY_REFRESH_CRON", "5 0 * * *"),
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string

	switch c.Storage {
	case StorageMemory:
	case StoragePostgres:
		if c.DatabaseURL == "" && c.DBUser == "" {
			errs = append(errs, "DB_USER or DATABASE_URL is required when STORAGE=postgres")
		}
		if c.DBMaxConns < 1 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
			errs = append(errs, fmt.Sprintf("DB_MIN_CONNS (%d) must be between 0 and DB_MAX_CONNS (%d), which must be at least 1", c.DBMinConns, c.DBMaxConns))
		}
	default:
		errs = append(errs, fmt.Sprintf("STORAGE must be %q or %q, got %q", StorageMemory, StoragePostgres, c.Storage))
	}
	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs = append(errs, fmt.Sprintf("API_PORT out of range: %d", c.APIPort))
	}
	if c.DenseWindowDays < 1 {
		errs = append(errs, "DENSE_WINDOW_DAYS must be at least 1")
	}
	if c.PriceFloor < 0 {
		errs = append(errs, "PRICE_FLOOR must not be negative")
	}
	if c.MaxForecastYears < 1 {
		errs = append(errs, "MAX_FORECAST_YEARS must be at least 1")
	}
	if c.MaxDailyForecasts < 0 || c.MaxForecastDropPercent < 0 || c.MaxForecastRisePercent < 0 {
		errs = append(errs, "forecast limits must not be negative")
	}
	if c.LLMTimeoutSeconds < 1 {
		errs = append(errs, "LLM_TIMEOUT_SECONDS must be at least 1")
	}
	if c.HistoryRefreshEnabled {
		if _, err := cron.ParseStandard(c.HistoryRefreshCron); err != nil {
			errs = append(errs, fmt.Sprintf("HISTORY_REFRESH_CRON is invalid: %v", err))
		}
	}

	if c.OpenAIAPIKey == "" {
		fmt.Println("[WARN] OPENAI_API_KEY not set, forecast generation will fail")
	}
	if c.MaxDailyForecasts == 0 {
		fmt.Println("[WARN] MAX_DAILY_FORECASTS is 0, model calls are unlimited")
	}
	if c.APIKey == "" {
		fmt.Println("[WARN] API_KEY not set, REST API has no authentication")
	}
	if c.Storage == StorageMemory {
		fmt.Println("[WARN] STORAGE=memory, saved models are lost on restart")
	}
	if c.CurrentPrice < c.PriceFloor || c.YesterdayPrice < c.PriceFloor {
		fmt.Println("[WARN] CURRENT_PRICE or YESTERDAY_PRICE is below PRICE_FLOOR")
	}
	if (c.TelegramBotToken == "") != (c.TelegramChatID == 0) {
		fmt.Println("[WARN] TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID must both be set, Telegram disabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

func (c *Config) Print() {
	fmt.Println("=== GoldSight Backend Configuration ===")
	fmt.Printf("API Port: %d\n", c.APIPort)
	fmt.Printf("Storage: %s\n", c.Storage)
	if c.Storage == StoragePostgres {
		fmt.Printf("  Pool: %d-%d conns\n", c.DBMinConns, c.DBMaxConns)
	}
	fmt.Printf("Forecast Cache: %s\n", boolLabel(c.RedisAddr != "", c.RedisAddr, "disabled"))
	fmt.Println("--------------------------------------")
	fmt.Println("Series:")
	fmt.Printf("  Start Year: %d\n", c.HistoryStartYear)
	fmt.Printf("  Dense Window: %d days\n", c.DenseWindowDays)
	fmt.Printf("  Floor: $%.2f\n", c.PriceFloor)
	fmt.Printf("  Spot / Yesterday: $%.2f / $%.2f\n", c.CurrentPrice, c.YesterdayPrice)
	fmt.Printf("  All-Time High: $%.2f\n", c.AllTimeHigh)
	fmt.Println("--------------------------------------")
	fmt.Println("Forecasts:")
	fmt.Printf("  Model: %s\n", c.OpenAIModel)
	fmt.Printf("  Default Horizon: %d (max %d years ahead)\n", c.ForecastHorizon, c.MaxForecastYears)
	fmt.Printf("  Timeout: %ds\n", c.LLMTimeoutSeconds)
	fmt.Printf("  Daily Limit: %s\n", boolLabel(c.MaxDailyForecasts > 0, fmt.Sprintf("%d model calls", c.MaxDailyForecasts), "unlimited"))
	fmt.Printf("  Target Bounds: -%.0f%% / +%.0f%%\n", c.MaxForecastDropPercent, c.MaxForecastRisePercent)
	fmt.Printf("  OpenAI API: %s\n", boolLabel(c.OpenAIAPIKey != "", "configured", "not set"))
	fmt.Println("--------------------------------------")
	fmt.Printf("History Refresh: %s\n", boolLabel(c.HistoryRefreshEnabled, c.HistoryRefreshCron+" UTC", "disabled"))
	fmt.Printf("Webhook: %s\n", boolLabel(c.WebhookURL != "", "configured", "not set"))
	fmt.Printf("Telegram: %s\n", boolLabel(c.TelegramEnabled(), "configured", "not set"))
	fmt.Println("======================================")
}

func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != 0
}

func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutSeconds) * time.Second
}

func (c *Config) ForecastCacheTTL() time.Duration {
	return time.Duration(c.ForecastCacheTTLMinutes) * time.Minute
}

// --- helpers ---

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		v = strings.ToLower(v)
		return v == "true" || v == "1" || v == "yes"
	}
	return fallback
}

func boolLabel(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
