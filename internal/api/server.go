package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/openbloodbank/openbloodbank/internal/config"
	"github.com/openbloodbank/openbloodbank/internal/db"
	"github.com/openbloodbank/openbloodbank/internal/forecasting"
	"github.com/openbloodbank/openbloodbank/internal/history"
	"github.com/openbloodbank/openbloodbank/internal/inventory"
	"github.com/openbloodbank/openbloodbank/internal/models"
	"github.com/openbloodbank/openbloodbank/internal/observability"
	"github.com/openbloodbank/openbloodbank/internal/simulation"
)

// Server groups dependencies for HTTP handlers. Store, PG and History
// may be nil in tests; handlers degrade to per-request computation.
type Server struct {
	Logger     *zap.Logger
	Store      *db.RedisStore
	PG         *db.Postgres
	History    *history.Store
	Forecaster *forecasting.Forecaster
	Evaluator  *inventory.Evaluator
	Alerts     *inventory.AlertGenerator
	Optimizer  *inventory.Optimizer
	Simulator  *simulation.Simulator
	Metrics    observability.MetricsRegistry
	Config     config.Config
}

// NewServer constructs a Server and its domain engines.
func NewServer(logger *zap.Logger, store *db.RedisStore, pg *db.Postgres, hist *history.Store, fc *forecasting.Forecaster, metrics observability.MetricsRegistry, cfg config.Config) *Server {
	if metrics == nil {
		metrics = observability.NewNoOpRegistry()
	}
	if fc == nil {
		fc = forecasting.NewForecaster(cfg, hist, logger, metrics)
	}
	return &Server{
		Logger:     logger,
		Store:      store,
		PG:         pg,
		History:    hist,
		Forecaster: fc,
		Evaluator:  inventory.NewEvaluator(cfg, logger, metrics),
		Alerts:     inventory.NewAlertGenerator(cfg, logger, metrics),
		Optimizer:  inventory.NewOptimizer(cfg, logger, metrics),
		Simulator:  simulation.NewSimulator(fc, logger, metrics),
		Metrics:    metrics,
		Config:     cfg,
	}
}

// safetyOverrides loads the per-deployment safety stock overrides. A
// load failure degrades to the default table with a warning; handlers
// never fail a request over a missing override.
func (s *Server) safetyOverrides(ctx context.Context) map[string]map[models.BloodType]int {
	if s.PG == nil {
		return nil
	}
	overrides, err := s.PG.LoadSafetyStockOverrides(ctx)
	if err != nil {
		s.Logger.Warn("safety stock override load failed", zap.Error(err))
		return nil
	}
	return overrides
}

// resolveSafetyStock picks the override for a location and blood type,
// or 0 to signal the evaluator's default table.
func resolveSafetyStock(overrides map[string]map[models.BloodType]int, location string, bt models.BloodType) int {
	if byType, ok := overrides[location]; ok {
		if units, ok := byType[bt]; ok {
			return units
		}
	}
	return 0
}

// writeJSON encodes v as the response body.
func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("encode response", zap.Error(err))
	}
}

// httpError maps domain errors onto status codes: validation failures
// are the client's fault, everything else is ours.
func httpError(err error) (int, string) {
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, ve.Error()
	}
	if errors.Is(err, models.ErrUnknownScenario) {
		return http.StatusBadRequest, err.Error()
	}
	if errors.Is(err, models.ErrInsufficientHistory) {
		return http.StatusUnprocessableEntity, err.Error()
	}
	if errors.Is(err, models.ErrUnavailable) {
		return http.StatusServiceUnavailable, err.Error()
	}
	return http.StatusInternalServerError, "internal error"
}
