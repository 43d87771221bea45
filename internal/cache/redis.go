package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kjannette/goldsight-backend/internal/models"
)

const keyPrefix = "goldsight:forecast"

// RedisForecastCache stores generated forecasts keyed by horizon and a digest
// of the historical CSV that produced them.
type RedisForecastCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisForecastCache(addr, password string, db int, ttl time.Duration) (*RedisForecastCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}

	return newRedisForecastCache(client, ttl), nil
}

func newRedisForecastCache(client *redis.Client, ttl time.Duration) *RedisForecastCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisForecastCache{client: client, ttl: ttl}
}

// Key derives the cache key for a forecast request.
func Key(horizon int, historicalCSV string) string {
	sum := sha256.Sum256([]byte(historicalCSV))
	return fmt.Sprintf("%s:%d:%s", keyPrefix, horizon, hex.EncodeToString(sum[:8]))
}

// Get returns the cached forecast, or nil without error on a miss.
func (c *RedisForecastCache) Get(ctx context.Context, key string) (*models.Forecast, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	var f models.Forecast
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("unmarshal cached forecast: %w", err)
	}
	return &f, nil
}

func (c *RedisForecastCache) Set(ctx context.Context, key string, f *models.Forecast) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal forecast: %w", err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (c *RedisForecastCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisForecastCache) Close() error {
	return c.client.Close()
}
