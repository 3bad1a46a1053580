package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/openbloodbank/openbloodbank/internal/models"
)

// alertChannel is the pub/sub channel notification subscribers listen on.
const alertChannel = "blood-alerts"

// RedisStore wraps a redis client and context for operations.
type RedisStore struct {
	Client *redis.Client
	Ctx    context.Context
}

// InitRedis initializes a Redis client and returns a RedisStore.
func InitRedis(addr string) (*RedisStore, error) {
	rs := &RedisStore{
		Client: redis.NewClient(&redis.Options{Addr: addr}),
		Ctx:    context.Background(),
	}

	// Add OpenTelemetry instrumentation to Redis client
	if err := redisotel.InstrumentTracing(rs.Client); err != nil {
		return nil, fmt.Errorf("failed to instrument redis tracing: %w", err)
	}

	if err := rs.Client.Ping(rs.Ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	zap.L().Info("Connected to Redis", zap.String("addr", addr))
	return rs, nil
}

func stockKey(location string, bt models.BloodType) string {
	return fmt.Sprintf("stock:%s:%s", location, bt)
}

// GetStock returns the live stock counter for a blood type at a
// location. A missing key reads as zero.
func (r *RedisStore) GetStock(location string, bt models.BloodType) (int, error) {
	val, err := r.Client.Get(r.Ctx, stockKey(location, bt)).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get stock %s/%s: %w", location, bt, err)
	}
	return val, nil
}

// SetStock overwrites the live stock counter.
func (r *RedisStore) SetStock(location string, bt models.BloodType, units int) error {
	if err := r.Client.Set(r.Ctx, stockKey(location, bt), units, 0).Err(); err != nil {
		return fmt.Errorf("set stock %s/%s: %w", location, bt, err)
	}
	return nil
}

// AdjustStock applies a signed delta to the live counter and returns
// the new value. Issues and donations both flow through here.
func (r *RedisStore) AdjustStock(location string, bt models.BloodType, delta int) (int, error) {
	val, err := r.Client.IncrBy(r.Ctx, stockKey(location, bt), int64(delta)).Result()
	if err != nil {
		return 0, fmt.Errorf("adjust stock %s/%s: %w", location, bt, err)
	}
	return int(val), nil
}

func forecastKey(bt models.BloodType, days int) string {
	return fmt.Sprintf("forecast:%s:%d", bt, days)
}

// GetCachedForecast returns a previously cached forecast, or nil on a
// cache miss.
func (r *RedisStore) GetCachedForecast(bt models.BloodType, days int) (*models.ForecastResult, error) {
	raw, err := r.Client.Get(r.Ctx, forecastKey(bt, days)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cached forecast: %w", err)
	}
	var fc models.ForecastResult
	if err := json.Unmarshal(raw, &fc); err != nil {
		return nil, fmt.Errorf("decode cached forecast: %w", err)
	}
	return &fc, nil
}

// CacheForecast stores a forecast with the given TTL. Training
// invalidates these entries via InvalidateForecasts.
func (r *RedisStore) CacheForecast(bt models.BloodType, days int, fc *models.ForecastResult, ttl time.Duration) error {
	raw, err := json.Marshal(fc)
	if err != nil {
		return fmt.Errorf("encode forecast: %w", err)
	}
	if err := r.Client.Set(r.Ctx, forecastKey(bt, days), raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache forecast: %w", err)
	}
	return nil
}

// InvalidateForecasts drops all cached forecasts for a blood type,
// called after the model for that type retrains.
func (r *RedisStore) InvalidateForecasts(bt models.BloodType) error {
	iter := r.Client.Scan(r.Ctx, 0, fmt.Sprintf("forecast:%s:*", bt), 100).Iterator()
	for iter.Next(r.Ctx) {
		if err := r.Client.Del(r.Ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("invalidate forecast %s: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan forecasts: %w", err)
	}
	return nil
}

// PublishAlert broadcasts an alert on the pub/sub channel for external
// notification subscribers. Delivery is best effort.
func (r *RedisStore) PublishAlert(alert models.Alert) error {
	raw, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("encode alert: %w", err)
	}
	if err := r.Client.Publish(r.Ctx, alertChannel, raw).Err(); err != nil {
		return fmt.Errorf("publish alert: %w", err)
	}
	return nil
}

// Close shuts down the Redis client.
func (r *RedisStore) Close() {
	if r != nil && r.Client != nil {
		if err := r.Client.Close(); err != nil {
			zap.L().Error("redis close", zap.Error(err))
		}
	}
}
