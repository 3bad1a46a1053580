package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/openbloodbank/openbloodbank/internal/inventory"
	"github.com/openbloodbank/openbloodbank/internal/models"
)

// RedistributionHandler suggests inter-location transfers. Explicit
// stocks in the request are used as-is; otherwise the persisted levels
// from Postgres feed the optimizer, with optimal stock derived from
// fresh forecasts.
func (s *Server) RedistributionHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	endpoint := "/redistribution"
	method := r.Method

	if r.Method != http.MethodPost {
		s.Metrics.IncrementRequests(endpoint, method, "405")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.RedistributionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.Logger.Error("invalid redistribution request", zap.Error(err))
		s.Metrics.IncrementRequests(endpoint, method, "400")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.DaysAhead == 0 {
		req.DaysAhead = 7
	}

	var uploads []models.LocationStockUpload
	if len(req.Stocks) > 0 {
		uploads = req.Stocks
	} else {
		if s.PG == nil {
			s.Metrics.IncrementRequests(endpoint, method, "400")
			s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
			http.Error(w, "stocks are required when no database is configured", http.StatusBadRequest)
			return
		}
		levels, err := s.PG.LoadStockLevels(r.Context())
		if err != nil {
			status, msg := httpError(err)
			s.Logger.Error("stock level load failed", zap.Error(err))
			s.Metrics.IncrementRequests(endpoint, method, strconv.Itoa(status))
			s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
			http.Error(w, msg, status)
			return
		}
		for _, lv := range levels {
			uploads = append(uploads, models.LocationStockUpload{
				Location:     lv.Location,
				BloodType:    string(lv.BloodType),
				CurrentStock: lv.Units,
			})
		}
	}

	overrides := s.safetyOverrides(r.Context())

	stocks := make([]inventory.LocationStock, 0, len(uploads))
	for _, u := range uploads {
		bt, err := models.ParseBloodType(u.BloodType)
		if err != nil {
			status, msg := httpError(err)
			s.Metrics.IncrementRequests(endpoint, method, "400")
			s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
			http.Error(w, msg, status)
			return
		}

		safety := u.SafetyStock
		if safety <= 0 {
			safety = resolveSafetyStock(overrides, u.Location, bt)
		}
		if safety <= 0 {
			safety = inventory.DefaultSafetyStock[bt]
		}

		forecast, err := s.Forecaster.Predict(r.Context(), bt, req.DaysAhead)
		if err != nil {
			status, msg := httpError(err)
			s.Logger.Error("redistribution forecast failed", zap.Error(err), zap.String("blood_type", string(bt)))
			s.Metrics.IncrementRequests(endpoint, method, strconv.Itoa(status))
			s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
			http.Error(w, msg, status)
			return
		}
		snap := s.Evaluator.Evaluate(bt, u.Location, u.CurrentStock, safety, forecast)

		stocks = append(stocks, inventory.LocationStock{
			Location:     u.Location,
			BloodType:    bt,
			CurrentStock: u.CurrentStock,
			SafetyStock:  safety,
			OptimalStock: snap.OptimalStock,
		})
	}

	suggestions := s.Optimizer.Suggest(stocks)
	var totalUnits int
	for _, sg := range suggestions {
		totalUnits += sg.Units
	}

	s.writeJSON(w, models.RedistributionResponse{
		Suggestions: suggestions,
		TotalUnits:  totalUnits,
		GeneratedAt: time.Now().UTC(),
	})
	s.Metrics.IncrementRequests(endpoint, method, "200")
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))

	s.Logger.Info("redistribution completed",
		zap.Int("suggestions", len(suggestions)),
		zap.Int("total_units", totalUnits),
		zap.Duration("duration", time.Since(start)),
	)
}
