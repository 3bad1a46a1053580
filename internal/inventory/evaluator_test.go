package inventory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/openbloodbank/openbloodbank/internal/config"
	"github.com/openbloodbank/openbloodbank/internal/models"
)

func testConfig() config.Config {
	return config.Config{
		UrgencyCriticalPct: 25,
		UrgencyHighPct:     50,
		UrgencyMediumPct:   75,
		LeadTimeDays:       3,
	}
}

// flatForecast predicts the same demand every day for days days.
func flatForecast(bt models.BloodType, demand, days int) *models.ForecastResult {
	start := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	points := make([]models.ForecastPoint, 0, days)
	for d := 0; d < days; d++ {
		points = append(points, models.ForecastPoint{
			Date:            start.AddDate(0, 0, d),
			PredictedDemand: demand,
			ConfidenceLower: demand - 2,
			ConfidenceUpper: demand + 2,
		})
	}
	return &models.ForecastResult{BloodType: bt, Points: points, GeneratedAt: start}
}

func TestEvaluateOptimalStock(t *testing.T) {
	e := NewEvaluator(testConfig(), zap.NewNop(), nil)

	// 10 units/day forecast, 3 day lead time, safety 50: optimal 80.
	snap := e.Evaluate(models.OPositive, "central", 40, 0, flatForecast(models.OPositive, 10, 7))
	assert.Equal(t, 50, snap.SafetyStock)
	assert.Equal(t, 80, snap.OptimalStock)
	assert.Equal(t, 70, snap.PredictedDemandWindow)
	assert.Equal(t, 40, snap.CurrentStock)
	assert.InDelta(t, 50.0, snap.StockPercentage, 0.01)
}

func TestEvaluateSafetyStockOverride(t *testing.T) {
	e := NewEvaluator(testConfig(), zap.NewNop(), nil)

	snap := e.Evaluate(models.OPositive, "central", 40, 100, flatForecast(models.OPositive, 10, 7))
	assert.Equal(t, 100, snap.SafetyStock)
	assert.Equal(t, 130, snap.OptimalStock)
}

func TestUrgencyBoundaries(t *testing.T) {
	e := NewEvaluator(testConfig(), zap.NewNop(), nil)

	// Thresholds are strictly-below: exactly 25% is high, not critical.
	cases := []struct {
		pct  float64
		want models.UrgencyLevel
	}{
		{24.999, models.UrgencyCritical},
		{25.0, models.UrgencyHigh},
		{49.999, models.UrgencyHigh},
		{50.0, models.UrgencyMedium},
		{74.999, models.UrgencyMedium},
		{75.0, models.UrgencyLow},
		{120.0, models.UrgencyLow},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, e.classify(tc.pct), "pct=%v", tc.pct)
	}
}

func TestDaysUntilShortage(t *testing.T) {
	fc := flatForecast(models.APositive, 10, 7)

	// 25 units at 10/day: day 0 leaves 15, day 1 leaves 5, day 2 goes
	// negative, so the shortage lands on day 2.
	days, unbounded := daysUntilShortage(25, fc.Points)
	assert.False(t, unbounded)
	assert.Equal(t, 2, days)

	days, unbounded = daysUntilShortage(1000, fc.Points)
	assert.True(t, unbounded)
	assert.Equal(t, models.UnboundedShortage, days)

	days, unbounded = daysUntilShortage(0, fc.Points)
	assert.False(t, unbounded)
	assert.Equal(t, 0, days)
}

func TestDaysUntilShortageNeverExceedsStockFloor(t *testing.T) {
	fc := flatForecast(models.BPositive, 3, 14)
	for stock := 0; stock <= 50; stock += 5 {
		days, unbounded := daysUntilShortage(stock, fc.Points)
		if unbounded {
			continue
		}
		// Demand consumed through the shortage day must exceed stock.
		consumed := (days + 1) * 3
		assert.Greater(t, consumed, stock, "stock=%d", stock)
	}
}

func TestRecommendationMentionsShortfall(t *testing.T) {
	e := NewEvaluator(testConfig(), zap.NewNop(), nil)

	snap := e.Evaluate(models.ONegative, "central", 5, 0, flatForecast(models.ONegative, 5, 7))
	assert.Equal(t, models.UrgencyCritical, snap.UrgencyLevel)
	assert.Contains(t, snap.Recommendation, "URGENT")

	surplus := e.Evaluate(models.ONegative, "central", 500, 0, flatForecast(models.ONegative, 5, 7))
	assert.Equal(t, models.UrgencyLow, surplus.UrgencyLevel)
	assert.Contains(t, surplus.Recommendation, "redistributing")
}

func TestOverallHealthRollup(t *testing.T) {
	snap := func(u models.UrgencyLevel) models.InventorySnapshot {
		return models.InventorySnapshot{UrgencyLevel: u}
	}

	assert.Equal(t, models.HealthHealthy, OverallHealth(nil))
	assert.Equal(t, models.HealthHealthy, OverallHealth([]models.InventorySnapshot{snap(models.UrgencyLow)}))
	assert.Equal(t, models.HealthCaution, OverallHealth([]models.InventorySnapshot{snap(models.UrgencyHigh), snap(models.UrgencyLow)}))
	assert.Equal(t, models.HealthWarning, OverallHealth([]models.InventorySnapshot{
		snap(models.UrgencyHigh), snap(models.UrgencyHigh), snap(models.UrgencyHigh),
	}))
	assert.Equal(t, models.HealthCritical, OverallHealth([]models.InventorySnapshot{
		snap(models.UrgencyLow), snap(models.UrgencyCritical),
	}))
}
