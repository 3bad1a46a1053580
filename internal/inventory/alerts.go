package inventory

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openbloodbank/openbloodbank/internal/config"
	"github.com/openbloodbank/openbloodbank/internal/models"
	"github.com/openbloodbank/openbloodbank/internal/observability"
)

// AlertGenerator produces ephemeral alerts from forecasts and inventory
// snapshots. Alerts are computed fresh per request and never persisted;
// delivery belongs to whatever subscribes to them.
type AlertGenerator struct {
	cfg     config.Config
	logger  *zap.Logger
	metrics observability.MetricsRegistry
	now     func() time.Time
}

// NewAlertGenerator constructs an AlertGenerator.
func NewAlertGenerator(cfg config.Config, logger *zap.Logger, metrics observability.MetricsRegistry) *AlertGenerator {
	if metrics == nil {
		metrics = observability.NewNoOpRegistry()
	}
	return &AlertGenerator{cfg: cfg, logger: logger, metrics: metrics, now: time.Now}
}

// HighDemandAlerts flags forecast days whose predicted demand exceeds
// the configured multiple of the historical average. One alert per
// triggering day.
func (g *AlertGenerator) HighDemandAlerts(bt models.BloodType, histAvg float64, forecast *models.ForecastResult) []models.Alert {
	threshold := histAvg * g.cfg.AlertDemandMultiplier
	if threshold <= 0 {
		return nil
	}

	var alerts []models.Alert
	for _, p := range forecast.Points {
		if float64(p.PredictedDemand) <= threshold {
			continue
		}
		alerts = append(alerts, g.emit(models.UrgencyHigh, bt, fmt.Sprintf(
			"High demand predicted for %s on %s: %d units (%.0f%% above the historical average of %.1f)",
			bt, p.Date.Format("2006-01-02"), p.PredictedDemand,
			(float64(p.PredictedDemand)/histAvg-1)*100, histAvg,
		)))
	}
	return alerts
}

// ShortageAlerts raises one alert per snapshot whose urgency is high or
// critical. The alert urgency mirrors the snapshot's.
func (g *AlertGenerator) ShortageAlerts(snaps []models.InventorySnapshot) []models.Alert {
	var alerts []models.Alert
	for _, snap := range snaps {
		switch snap.UrgencyLevel {
		case models.UrgencyCritical:
			alerts = append(alerts, g.emit(models.UrgencyCritical, snap.BloodType, fmt.Sprintf(
				"CRITICAL: %s stock at %s is at %.1f%% of optimal (%d of %d units); immediate restocking required",
				snap.BloodType, snap.Location, snap.StockPercentage, snap.CurrentStock, snap.OptimalStock,
			)))
		case models.UrgencyHigh:
			msg := fmt.Sprintf("%s stock at %s is low: %d of %d units (%.1f%% of optimal)",
				snap.BloodType, snap.Location, snap.CurrentStock, snap.OptimalStock, snap.StockPercentage)
			if !snap.ShortageUnbounded {
				msg += fmt.Sprintf("; projected shortage in %d days", snap.DaysUntilShortage)
			}
			alerts = append(alerts, g.emit(models.UrgencyHigh, snap.BloodType, msg))
		}
	}
	return alerts
}

func (g *AlertGenerator) emit(urgency models.UrgencyLevel, bt models.BloodType, msg string) models.Alert {
	g.metrics.IncrementAlerts(string(urgency))
	g.logger.Info("alert generated",
		zap.String("urgency", string(urgency)),
		zap.String("blood_type", string(bt)),
	)
	return models.Alert{
		ID:          uuid.NewString(),
		Urgency:     urgency,
		BloodType:   bt,
		Message:     msg,
		GeneratedAt: g.now().UTC(),
	}
}

// FilterAlerts keeps only alerts at or above the given urgency.
func FilterAlerts(alerts []models.Alert, min models.UrgencyLevel) []models.Alert {
	rank := map[models.UrgencyLevel]int{
		models.UrgencyLow:      0,
		models.UrgencyMedium:   1,
		models.UrgencyHigh:     2,
		models.UrgencyCritical: 3,
	}
	out := make([]models.Alert, 0, len(alerts))
	for _, a := range alerts {
		if rank[a.Urgency] >= rank[min] {
			out = append(out, a)
		}
	}
	return out
}
