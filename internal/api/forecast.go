package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/openbloodbank/openbloodbank/internal/models"
)

// ForecastHandler serves demand forecasts. Results are cached in Redis
// per (blood type, horizon) until the model retrains.
func (s *Server) ForecastHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	endpoint := "/forecast"
	method := r.Method

	if r.Method != http.MethodPost {
		s.Metrics.IncrementRequests(endpoint, method, "405")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.ForecastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.Logger.Error("invalid forecast request", zap.Error(err))
		s.Metrics.IncrementRequests(endpoint, method, "400")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	bt, err := models.ParseBloodType(req.BloodType)
	if err != nil {
		status, msg := httpError(err)
		s.Metrics.IncrementRequests(endpoint, method, "400")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, msg, status)
		return
	}
	if req.DaysAhead == 0 {
		req.DaysAhead = 7
	}

	if s.Store != nil {
		if cached, err := s.Store.GetCachedForecast(bt, req.DaysAhead); err != nil {
			s.Logger.Warn("forecast cache read failed", zap.Error(err))
		} else if cached != nil {
			s.writeJSON(w, cached)
			s.Metrics.IncrementRequests(endpoint, method, "200")
			s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
			return
		}
	}

	result, err := s.Forecaster.Predict(r.Context(), bt, req.DaysAhead)
	if err != nil {
		status, msg := httpError(err)
		s.Logger.Error("forecast failed", zap.Error(err), zap.String("blood_type", string(bt)))
		s.Metrics.IncrementRequests(endpoint, method, strconv.Itoa(status))
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, msg, status)
		return
	}

	if s.Store != nil {
		if err := s.Store.CacheForecast(bt, req.DaysAhead, result, s.Config.ForecastCacheTTL); err != nil {
			s.Logger.Warn("forecast cache write failed", zap.Error(err))
		}
	}

	s.writeJSON(w, result)
	s.Metrics.IncrementRequests(endpoint, method, "200")
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))

	s.Logger.Info("forecast completed",
		zap.String("blood_type", string(bt)),
		zap.Int("days_ahead", req.DaysAhead),
		zap.Bool("used_fallback", result.UsedFallback),
		zap.Duration("duration", time.Since(start)),
	)
}
