package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/openbloodbank/openbloodbank/internal/models"
)

// SimulateHandler runs an emergency scenario against current baselines.
func (s *Server) SimulateHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	endpoint := "/simulate"
	method := r.Method

	if r.Method != http.MethodPost {
		s.Metrics.IncrementRequests(endpoint, method, "405")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.SimulationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.Logger.Error("invalid simulation request", zap.Error(err))
		s.Metrics.IncrementRequests(endpoint, method, "400")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Severity == "" {
		req.Severity = string(models.SeverityMedium)
	}

	result, err := s.Simulator.Simulate(models.Scenario(req.Scenario), models.Severity(req.Severity))
	if err != nil {
		status, msg := httpError(err)
		s.Metrics.IncrementRequests(endpoint, method, strconv.Itoa(status))
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, msg, status)
		return
	}

	s.writeJSON(w, result)
	s.Metrics.IncrementRequests(endpoint, method, "200")
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))

	s.Logger.Info("simulation completed",
		zap.String("scenario", req.Scenario),
		zap.String("severity", req.Severity),
		zap.Duration("duration", time.Since(start)),
	)
}
