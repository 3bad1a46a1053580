package api

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/openbloodbank/openbloodbank/internal/inventory"
	"github.com/openbloodbank/openbloodbank/internal/models"
)

// AlertsHandler lists the active alerts for a location: shortage alerts
// from the live stock counters plus high-demand warnings from fresh
// forecasts. An optional urgency query parameter keeps only alerts at
// or above that level.
func (s *Server) AlertsHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	endpoint := "/alerts"
	method := r.Method

	if r.Method != http.MethodGet {
		s.Metrics.IncrementRequests(endpoint, method, "405")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	location := q.Get("location")
	if location == "" {
		s.Metrics.IncrementRequests(endpoint, method, "400")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "location is required", http.StatusBadRequest)
		return
	}

	var minUrgency models.UrgencyLevel
	if raw := q.Get("urgency"); raw != "" {
		parsed, err := models.ParseUrgency(raw)
		if err != nil {
			status, msg := httpError(err)
			s.Metrics.IncrementRequests(endpoint, method, "400")
			s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
			http.Error(w, msg, status)
			return
		}
		minUrgency = parsed
	}

	daysAhead := 7
	if raw := q.Get("days_ahead"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			s.Metrics.IncrementRequests(endpoint, method, "400")
			s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
			http.Error(w, "days_ahead must be an integer", http.StatusBadRequest)
			return
		}
		daysAhead = parsed
	}

	if s.Store == nil {
		s.Metrics.IncrementRequests(endpoint, method, "503")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "stock counters unavailable", http.StatusServiceUnavailable)
		return
	}

	overrides := s.safetyOverrides(r.Context())

	snaps := make([]models.InventorySnapshot, 0, len(models.AllBloodTypes))
	var alerts []models.Alert
	for _, bt := range models.AllBloodTypes {
		units, err := s.Store.GetStock(location, bt)
		if err != nil {
			status, msg := httpError(err)
			s.Logger.Error("stock read failed", zap.Error(err))
			s.Metrics.IncrementRequests(endpoint, method, strconv.Itoa(status))
			s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
			http.Error(w, msg, status)
			return
		}
		forecast, err := s.Forecaster.Predict(r.Context(), bt, daysAhead)
		if err != nil {
			status, msg := httpError(err)
			s.Logger.Error("alert forecast failed", zap.Error(err), zap.String("blood_type", string(bt)))
			s.Metrics.IncrementRequests(endpoint, method, strconv.Itoa(status))
			s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
			http.Error(w, msg, status)
			return
		}
		snap := s.Evaluator.Evaluate(bt, location, units, resolveSafetyStock(overrides, location, bt), forecast)
		snaps = append(snaps, snap)

		alerts = append(alerts, s.Alerts.HighDemandAlerts(bt, s.Forecaster.HistoricalAverage(bt), forecast)...)
	}
	alerts = append(alerts, s.Alerts.ShortageAlerts(snaps)...)

	if minUrgency != "" {
		alerts = inventory.FilterAlerts(alerts, minUrgency)
	}

	s.writeJSON(w, models.AlertsResponse{
		Location:    location,
		Alerts:      alerts,
		GeneratedAt: time.Now().UTC(),
	})
	s.Metrics.IncrementRequests(endpoint, method, "200")
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))

	s.Logger.Info("alerts listed",
		zap.String("location", location),
		zap.Int("alerts", len(alerts)),
		zap.Duration("duration", time.Since(start)),
	)
}
