package inventory

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/openbloodbank/openbloodbank/internal/config"
	"github.com/openbloodbank/openbloodbank/internal/models"
	"github.com/openbloodbank/openbloodbank/internal/observability"
)

// DefaultSafetyStock is the per-type minimum buffer used when a
// deployment has not overridden it. O- carries a higher buffer relative
// to its demand because it is the universal donor type.
var DefaultSafetyStock = map[models.BloodType]int{
	models.OPositive:  50,
	models.APositive:  40,
	models.BPositive:  30,
	models.ONegative:  25,
	models.ANegative:  20,
	models.ABPositive: 15,
	models.BNegative:  12,
	models.ABNegative: 10,
}

// Evaluator converts current stock plus a forecast into a per-type
// health record. It is a pure function of its inputs: no caching, no
// side effects beyond metrics, safe to call concurrently.
type Evaluator struct {
	cfg     config.Config
	logger  *zap.Logger
	metrics observability.MetricsRegistry
}

// NewEvaluator constructs an Evaluator.
func NewEvaluator(cfg config.Config, logger *zap.Logger, metrics observability.MetricsRegistry) *Evaluator {
	if metrics == nil {
		metrics = observability.NewNoOpRegistry()
	}
	return &Evaluator{cfg: cfg, logger: logger, metrics: metrics}
}

// Evaluate computes the inventory snapshot for one blood type at one
// location. safetyStock <= 0 selects the default table value.
func (e *Evaluator) Evaluate(bt models.BloodType, location string, currentStock, safetyStock int, forecast *models.ForecastResult) models.InventorySnapshot {
	if safetyStock <= 0 {
		safetyStock = DefaultSafetyStock[bt]
	}

	var windowDemand int
	for _, p := range forecast.Points {
		windowDemand += p.PredictedDemand
	}

	avgDaily := 0.0
	if len(forecast.Points) > 0 {
		avgDaily = float64(windowDemand) / float64(len(forecast.Points))
	}

	optimal := safetyStock + int(math.Ceil(avgDaily*float64(e.cfg.LeadTimeDays)))
	if optimal < 1 {
		optimal = 1
	}

	stockPct := float64(currentStock) / float64(optimal) * 100

	days, unbounded := daysUntilShortage(currentStock, forecast.Points)

	snap := models.InventorySnapshot{
		BloodType:             bt,
		Location:              location,
		CurrentStock:          currentStock,
		SafetyStock:           safetyStock,
		OptimalStock:          optimal,
		PredictedDemandWindow: windowDemand,
		DaysUntilShortage:     days,
		ShortageUnbounded:     unbounded,
		UrgencyLevel:          e.classify(stockPct),
		StockPercentage:       stockPct,
	}
	snap.Recommendation = e.recommendation(snap)

	e.metrics.SetStockPercentage(string(bt), location, stockPct)
	e.logger.Debug("inventory evaluated",
		zap.String("blood_type", string(bt)),
		zap.String("location", location),
		zap.Int("current_stock", currentStock),
		zap.Float64("stock_percentage", stockPct),
		zap.String("urgency", string(snap.UrgencyLevel)),
	)

	return snap
}

// daysUntilShortage simulates depleting stock day by day against the
// forecast: the largest d where stock minus the first d days' demand
// stays non-negative. Unbounded when stock outlasts the window.
func daysUntilShortage(stock int, points []models.ForecastPoint) (int, bool) {
	remaining := stock
	for i, p := range points {
		remaining -= p.PredictedDemand
		if remaining < 0 {
			return i, false
		}
	}
	return models.UnboundedShortage, true
}

// classify maps a stock percentage onto an urgency level using the
// configured thresholds. The config is the single source of truth for
// these boundaries; the tests pin the boundary semantics.
func (e *Evaluator) classify(stockPct float64) models.UrgencyLevel {
	switch {
	case stockPct < e.cfg.UrgencyCriticalPct:
		return models.UrgencyCritical
	case stockPct < e.cfg.UrgencyHighPct:
		return models.UrgencyHigh
	case stockPct < e.cfg.UrgencyMediumPct:
		return models.UrgencyMedium
	default:
		return models.UrgencyLow
	}
}

// recommendation derives deterministic action text from the urgency and
// the shortfall against optimal stock.
func (e *Evaluator) recommendation(snap models.InventorySnapshot) string {
	shortfall := snap.OptimalStock - snap.CurrentStock
	switch snap.UrgencyLevel {
	case models.UrgencyCritical:
		return fmt.Sprintf("URGENT: stock %d units of %s immediately; current stock is critically below safety level", shortfall, snap.BloodType)
	case models.UrgencyHigh:
		return fmt.Sprintf("Stock %d units of %s soon; predicted demand over the window is %d units", shortfall, snap.BloodType, snap.PredictedDemandWindow)
	case models.UrgencyMedium:
		return fmt.Sprintf("Plan replenishment of %d units of %s", shortfall, snap.BloodType)
	default:
		if shortfall < 0 {
			return fmt.Sprintf("Consider redistributing excess %s stock to prevent wastage", snap.BloodType)
		}
		return fmt.Sprintf("%s stock levels are adequate", snap.BloodType)
	}
}

// OverallHealth rolls up a set of snapshots into a fleet-wide rating:
// any critical snapshot dominates, then the count of high-urgency ones.
func OverallHealth(snaps []models.InventorySnapshot) models.OverallHealth {
	var high int
	for _, s := range snaps {
		switch s.UrgencyLevel {
		case models.UrgencyCritical:
			return models.HealthCritical
		case models.UrgencyHigh:
			high++
		}
	}
	switch {
	case high > 2:
		return models.HealthWarning
	case high > 0:
		return models.HealthCaution
	default:
		return models.HealthHealthy
	}
}
