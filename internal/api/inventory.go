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

// InventoryHandler evaluates inventory health for a location: one
// snapshot per blood type, shortage alerts, collection plans and the
// overall health rollup. Stock comes from the request body when given,
// otherwise from the live Redis counters.
func (s *Server) InventoryHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	endpoint := "/inventory/status"
	method := r.Method

	if r.Method != http.MethodPost {
		s.Metrics.IncrementRequests(endpoint, method, "405")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.InventoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.Logger.Error("invalid inventory request", zap.Error(err))
		s.Metrics.IncrementRequests(endpoint, method, "400")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Location == "" {
		s.Metrics.IncrementRequests(endpoint, method, "400")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "location is required", http.StatusBadRequest)
		return
	}
	if req.DaysAhead == 0 {
		req.DaysAhead = 7
	}

	stock := make(map[models.BloodType]int, len(models.AllBloodTypes))
	if len(req.Stock) > 0 {
		for raw, units := range req.Stock {
			bt, err := models.ParseBloodType(raw)
			if err != nil {
				status, msg := httpError(err)
				s.Metrics.IncrementRequests(endpoint, method, "400")
				s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
				http.Error(w, msg, status)
				return
			}
			stock[bt] = units
		}
	} else if s.Store != nil {
		for _, bt := range models.AllBloodTypes {
			units, err := s.Store.GetStock(req.Location, bt)
			if err != nil {
				status, msg := httpError(err)
				s.Logger.Error("stock read failed", zap.Error(err))
				s.Metrics.IncrementRequests(endpoint, method, strconv.Itoa(status))
				s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
				http.Error(w, msg, status)
				return
			}
			stock[bt] = units
		}
	} else {
		s.Metrics.IncrementRequests(endpoint, method, "400")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "stock is required when no live counters are configured", http.StatusBadRequest)
		return
	}

	overrides := s.safetyOverrides(r.Context())

	snaps := make([]models.InventorySnapshot, 0, len(stock))
	var alerts []models.Alert
	for _, bt := range models.AllBloodTypes {
		units, ok := stock[bt]
		if !ok {
			continue
		}
		forecast, err := s.Forecaster.Predict(r.Context(), bt, req.DaysAhead)
		if err != nil {
			status, msg := httpError(err)
			s.Logger.Error("inventory forecast failed", zap.Error(err), zap.String("blood_type", string(bt)))
			s.Metrics.IncrementRequests(endpoint, method, strconv.Itoa(status))
			s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
			http.Error(w, msg, status)
			return
		}
		snap := s.Evaluator.Evaluate(bt, req.Location, units, resolveSafetyStock(overrides, req.Location, bt), forecast)
		snaps = append(snaps, snap)

		alerts = append(alerts, s.Alerts.HighDemandAlerts(bt, s.Forecaster.HistoricalAverage(bt), forecast)...)
	}
	alerts = append(alerts, s.Alerts.ShortageAlerts(snaps)...)

	if s.Store != nil {
		for _, a := range alerts {
			if err := s.Store.PublishAlert(a); err != nil {
				s.Logger.Warn("alert publish failed", zap.Error(err))
			}
		}
	}

	resp := models.InventoryResponse{
		Location:      req.Location,
		OverallHealth: inventory.OverallHealth(snaps),
		Snapshots:     snaps,
		Alerts:        alerts,
		Collections:   inventory.PlanCollections(snaps, time.Now()),
		GeneratedAt:   time.Now().UTC(),
	}

	s.writeJSON(w, resp)
	s.Metrics.IncrementRequests(endpoint, method, "200")
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
}

// StockHandler sets or adjusts the live stock counter for one blood
// type at one location and persists the durable copy when Postgres is
// configured.
func (s *Server) StockHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	endpoint := "/inventory/stock"
	method := r.Method

	if r.Method != http.MethodPost {
		s.Metrics.IncrementRequests(endpoint, method, "405")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.StockUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
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
	if req.Location == "" || (req.Units == nil && req.Delta == nil) {
		s.Metrics.IncrementRequests(endpoint, method, "400")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "location and one of units or delta are required", http.StatusBadRequest)
		return
	}
	if s.Store == nil {
		s.Metrics.IncrementRequests(endpoint, method, "503")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "stock counters unavailable", http.StatusServiceUnavailable)
		return
	}

	var current int
	if req.Units != nil {
		if err := s.Store.SetStock(req.Location, bt, *req.Units); err == nil {
			current = *req.Units
		} else {
			status, msg := httpError(err)
			s.Logger.Error("stock set failed", zap.Error(err))
			s.Metrics.IncrementRequests(endpoint, method, strconv.Itoa(status))
			s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
			http.Error(w, msg, status)
			return
		}
	} else {
		current, err = s.Store.AdjustStock(req.Location, bt, *req.Delta)
		if err != nil {
			status, msg := httpError(err)
			s.Logger.Error("stock adjust failed", zap.Error(err))
			s.Metrics.IncrementRequests(endpoint, method, strconv.Itoa(status))
			s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
			http.Error(w, msg, status)
			return
		}
	}

	if s.PG != nil {
		if err := s.PG.SaveStockLevel(r.Context(), req.Location, bt, current); err != nil {
			s.Logger.Warn("stock persistence failed",
				zap.String("location", req.Location), zap.Error(err))
		}
	}

	s.writeJSON(w, models.StockLevel{Location: req.Location, BloodType: bt, Units: current})
	s.Metrics.IncrementRequests(endpoint, method, "200")
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
}

// ObservationHandler appends a daily demand observation to the history
// store. Issued units recorded here feed the next training run.
func (s *Server) ObservationHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	endpoint := "/observations"
	method := r.Method

	if r.Method != http.MethodPost {
		s.Metrics.IncrementRequests(endpoint, method, "405")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Location  string    `json:"location"`
		BloodType string    `json:"blood_type"`
		Date      time.Time `json:"date"`
		Demand    int       `json:"demand"`
		IsHoliday bool      `json:"is_holiday"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
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
	if req.Demand < 0 {
		s.Metrics.IncrementRequests(endpoint, method, "400")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "demand must be non-negative", http.StatusBadRequest)
		return
	}
	if req.Date.IsZero() {
		req.Date = time.Now().UTC()
	}

	obs := models.NewObservation(req.Date, bt, req.Demand, req.IsHoliday)
	if err := s.History.AppendObservation(r.Context(), req.Location, obs); err != nil {
		status, msg := httpError(err)
		s.Logger.Error("observation append failed", zap.Error(err))
		s.Metrics.IncrementRequests(endpoint, method, strconv.Itoa(status))
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, msg, status)
		return
	}

	w.WriteHeader(http.StatusAccepted)
	s.writeJSON(w, obs)
	s.Metrics.IncrementRequests(endpoint, method, "202")
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
}
