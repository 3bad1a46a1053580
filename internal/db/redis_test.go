package db

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbloodbank/openbloodbank/internal/models"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rs := &RedisStore{
		Client: redis.NewClient(&redis.Options{Addr: mr.Addr()}),
		Ctx:    context.Background(),
	}
	t.Cleanup(rs.Close)
	return rs, mr
}

func TestStockCounters(t *testing.T) {
	rs, _ := newTestStore(t)

	// Missing key reads as zero stock.
	units, err := rs.GetStock("central", models.OPositive)
	require.NoError(t, err)
	assert.Equal(t, 0, units)

	require.NoError(t, rs.SetStock("central", models.OPositive, 40))
	units, err = rs.GetStock("central", models.OPositive)
	require.NoError(t, err)
	assert.Equal(t, 40, units)

	units, err = rs.AdjustStock("central", models.OPositive, -15)
	require.NoError(t, err)
	assert.Equal(t, 25, units)

	units, err = rs.AdjustStock("central", models.OPositive, 5)
	require.NoError(t, err)
	assert.Equal(t, 30, units)

	// Counters are per location and blood type.
	units, err = rs.GetStock("north", models.OPositive)
	require.NoError(t, err)
	assert.Equal(t, 0, units)
}

func TestForecastCacheRoundTrip(t *testing.T) {
	rs, mr := newTestStore(t)

	fc := &models.ForecastResult{
		BloodType: models.APositive,
		Points: []models.ForecastPoint{
			{Date: time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), PredictedDemand: 42, ConfidenceLower: 35, ConfidenceUpper: 49},
		},
		ConfidenceScore: 80,
		GeneratedAt:     time.Date(2026, 8, 24, 6, 0, 0, 0, time.UTC),
	}

	cached, err := rs.GetCachedForecast(models.APositive, 7)
	require.NoError(t, err)
	assert.Nil(t, cached, "cache miss returns nil without error")

	require.NoError(t, rs.CacheForecast(models.APositive, 7, fc, 10*time.Minute))

	cached, err = rs.GetCachedForecast(models.APositive, 7)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, fc.BloodType, cached.BloodType)
	require.Len(t, cached.Points, 1)
	assert.Equal(t, 42, cached.Points[0].PredictedDemand)

	// TTL expiry drops the entry.
	mr.FastForward(11 * time.Minute)
	cached, err = rs.GetCachedForecast(models.APositive, 7)
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestInvalidateForecastsIsPerBloodType(t *testing.T) {
	rs, _ := newTestStore(t)

	fc := &models.ForecastResult{BloodType: models.OPositive}
	require.NoError(t, rs.CacheForecast(models.OPositive, 7, fc, time.Hour))
	require.NoError(t, rs.CacheForecast(models.OPositive, 14, fc, time.Hour))
	other := &models.ForecastResult{BloodType: models.BNegative}
	require.NoError(t, rs.CacheForecast(models.BNegative, 7, other, time.Hour))

	require.NoError(t, rs.InvalidateForecasts(models.OPositive))

	cached, err := rs.GetCachedForecast(models.OPositive, 7)
	require.NoError(t, err)
	assert.Nil(t, cached)
	cached, err = rs.GetCachedForecast(models.OPositive, 14)
	require.NoError(t, err)
	assert.Nil(t, cached)

	cached, err = rs.GetCachedForecast(models.BNegative, 7)
	require.NoError(t, err)
	assert.NotNil(t, cached, "other blood types keep their entries")
}

func TestPublishAlert(t *testing.T) {
	rs, _ := newTestStore(t)

	err := rs.PublishAlert(models.Alert{
		ID:        "a1",
		Urgency:   models.UrgencyCritical,
		BloodType: models.ONegative,
		Message:   "critical shortage",
	})
	require.NoError(t, err)
}
