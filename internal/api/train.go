package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/openbloodbank/openbloodbank/internal/models"
)

// TrainHandler trains demand models. An explicit history in the
// request body trains on that series; otherwise the stored observation
// log is used, with the synthetic generator as fallback. Types already
// carrying a model are skipped unless retrain is set. Cached forecasts
// for retrained types are invalidated.
func (s *Server) TrainHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	endpoint := "/train"
	method := r.Method

	if r.Method != http.MethodPost {
		s.Metrics.IncrementRequests(endpoint, method, "405")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.TrainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.Logger.Error("invalid train request", zap.Error(err))
		s.Metrics.IncrementRequests(endpoint, method, "400")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	targets := models.AllBloodTypes
	if req.BloodType != "" && req.BloodType != "all" {
		bt, err := models.ParseBloodType(req.BloodType)
		if err != nil {
			status, msg := httpError(err)
			s.Metrics.IncrementRequests(endpoint, method, "400")
			s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
			http.Error(w, msg, status)
			return
		}
		targets = []models.BloodType{bt}
	}

	if len(req.History) > 0 && len(targets) != 1 {
		s.Metrics.IncrementRequests(endpoint, method, "400")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "history upload requires a single blood_type", http.StatusBadRequest)
		return
	}

	summaries := make([]*models.TrainingSummary, 0, len(targets))
	for _, bt := range targets {
		var summary *models.TrainingSummary
		var err error
		if len(req.History) > 0 {
			history := make([]models.DemandObservation, 0, len(req.History))
			for _, u := range req.History {
				history = append(history, models.NewObservation(u.Date, bt, u.Demand, u.IsHoliday))
			}
			summary, err = s.Forecaster.Train(r.Context(), bt, history)
		} else if existing := s.Forecaster.Summary(bt); existing != nil && !req.Retrain {
			// The model is current and the caller did not ask for a
			// refit; report it as-is and keep the forecast cache warm.
			summaries = append(summaries, existing)
			continue
		} else {
			summary, err = s.Forecaster.TrainFromStore(r.Context(), bt)
		}
		if err != nil {
			status, msg := httpError(err)
			s.Logger.Error("training failed", zap.Error(err), zap.String("blood_type", string(bt)))
			s.Metrics.IncrementRequests(endpoint, method, strconv.Itoa(status))
			s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
			http.Error(w, msg, status)
			return
		}
		if depth, derr := s.History.ObservationCount(r.Context(), bt); derr == nil {
			summary.StoredObservations = depth
		}
		summaries = append(summaries, summary)

		if s.Store != nil {
			if err := s.Store.InvalidateForecasts(bt); err != nil {
				s.Logger.Warn("forecast cache invalidation failed",
					zap.String("blood_type", string(bt)), zap.Error(err))
			}
		}
	}

	s.writeJSON(w, summaries)
	s.Metrics.IncrementRequests(endpoint, method, "200")
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))

	s.Logger.Info("training completed",
		zap.Int("models", len(summaries)),
		zap.Duration("duration", time.Since(start)),
	)
}
