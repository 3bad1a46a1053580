package forecasting

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/openbloodbank/openbloodbank/internal/config"
	"github.com/openbloodbank/openbloodbank/internal/models"
	"github.com/openbloodbank/openbloodbank/internal/observability"
)

// confidenceZ is the z-score for the ~95% interval around the point
// forecast. The interval formula assumes the two regressors' errors are
// exchangeable; revisit it before moving to weighted blending.
const confidenceZ = 1.96

// tailWindow is how many trailing observations a model keeps so future
// feature rows can carry trailing averages forward.
const tailWindow = 7 * sameWeekdayPeriod

// HistoryProvider supplies recorded demand series from the persistence
// collaborator. The forecaster only reads; it never writes history back.
type HistoryProvider interface {
	DemandHistory(ctx context.Context, bt models.BloodType, days int) ([]models.DemandObservation, error)
}

// modelState holds one blood type's trained ensemble. It is immutable
// once published; retraining builds a replacement off to the side and
// swaps it in, so readers never observe a partially trained model.
type modelState struct {
	forest      *forestModel
	boost       *boostModel
	residualStd float64
	samples     int
	trainedAt   time.Time
	synthetic   bool
	histAvg     float64   // mean observed demand across the training series
	tail        []float64 // last tailWindow demands, chronological
	lastDate    time.Time
}

// Forecaster trains and serves the per-blood-type demand ensemble.
// Construct instances explicitly; state is owned by the instance, not
// package-level, so tests can build isolated forecasters.
type Forecaster struct {
	cfg     config.Config
	logger  *zap.Logger
	metrics observability.MetricsRegistry
	history HistoryProvider // may be nil; synthetic fallback covers it

	mu     sync.RWMutex
	states map[models.BloodType]*modelState
}

// NewForecaster creates a Forecaster. history may be nil, in which case
// auto-training always uses the synthetic generator.
func NewForecaster(cfg config.Config, history HistoryProvider, logger *zap.Logger, metrics observability.MetricsRegistry) *Forecaster {
	if metrics == nil {
		metrics = observability.NewNoOpRegistry()
	}
	return &Forecaster{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		history: history,
		states:  make(map[models.BloodType]*modelState),
	}
}

// Train fits the two regressors on the supplied history and atomically
// replaces the blood type's model state. Training for different blood
// types is independent and may run concurrently.
func (f *Forecaster) Train(ctx context.Context, bt models.BloodType, history []models.DemandObservation) (*models.TrainingSummary, error) {
	return f.train(ctx, bt, history, false)
}

func (f *Forecaster) train(ctx context.Context, bt models.BloodType, history []models.DemandObservation, synthetic bool) (*models.TrainingSummary, error) {
	if !bt.Valid() {
		return nil, &models.ValidationError{Field: "blood_type", Reason: "unknown blood type: " + string(bt)}
	}
	start := time.Now()

	set, err := BuildFeatures(history, f.cfg.MinHistoryDays)
	if err != nil {
		return nil, fmt.Errorf("build features for %s: %w", bt, err)
	}

	// Chronological hold-out: the series is ordered, so shuffling would
	// leak future information into the fit.
	split := len(set.Y) - int(float64(len(set.Y))*f.cfg.HoldoutFraction)
	if split < f.cfg.MinHistoryDays/2 {
		split = len(set.Y)
	}
	trainX, trainY := set.X[:split], set.Y[:split]

	seed := syntheticSeed(bt)
	forest := trainForest(trainX, trainY, f.cfg.ForestTrees, f.cfg.ForestMaxDepth, seed)
	boost := trainBoost(trainX, trainY, f.cfg.BoostRounds, f.cfg.BoostMaxDepth, f.cfg.BoostLearnRate, seed+1)

	// Residual spread of the averaged ensemble on the held-out fold.
	evalX, evalY := set.X[split:], set.Y[split:]
	if len(evalY) == 0 {
		evalX, evalY = trainX, trainY
	}
	var sq float64
	for i, row := range evalX {
		pred := (forest.predict(row) + boost.predict(row)) / 2
		d := evalY[i] - pred
		sq += d * d
	}
	residualStd := math.Sqrt(sq / float64(len(evalY)))

	var histSum float64
	for _, obs := range history {
		histSum += float64(obs.Demand)
	}

	tailStart := len(history) - tailWindow
	if tailStart < 0 {
		tailStart = 0
	}
	tail := make([]float64, 0, tailWindow)
	for _, obs := range history[tailStart:] {
		tail = append(tail, float64(obs.Demand))
	}

	state := &modelState{
		forest:      forest,
		boost:       boost,
		residualStd: residualStd,
		samples:     split,
		trainedAt:   time.Now().UTC(),
		synthetic:   synthetic,
		histAvg:     histSum / float64(len(history)),
		tail:        tail,
		lastDate:    history[len(history)-1].Date,
	}

	f.mu.Lock()
	f.states[bt] = state
	f.mu.Unlock()

	f.metrics.IncrementTrainings(string(bt))
	f.metrics.RecordTrainingDuration(string(bt), time.Since(start))
	f.logger.Info("model trained",
		zap.String("blood_type", string(bt)),
		zap.Int("samples", state.samples),
		zap.Float64("residual_std", residualStd),
		zap.Bool("synthetic", synthetic),
	)

	return &models.TrainingSummary{
		BloodType:   bt,
		Samples:     state.samples,
		ResidualStd: residualStd,
		Synthetic:   synthetic,
		TrainedAt:   state.trainedAt,
	}, nil
}

// TrainFromStore trains on the best available history: the registered
// provider's series when long enough, otherwise a synthetic series, so
// prediction can always degrade gracefully instead of failing.
func (f *Forecaster) TrainFromStore(ctx context.Context, bt models.BloodType) (*models.TrainingSummary, error) {
	if f.history != nil {
		history, err := f.history.DemandHistory(ctx, bt, 365)
		if err != nil {
			f.logger.Warn("history fetch failed, using synthetic series",
				zap.String("blood_type", string(bt)), zap.Error(err))
		} else if len(history) >= f.cfg.MinHistoryDays {
			return f.train(ctx, bt, history, false)
		}
	}
	synthetic := GenerateSyntheticHistory(bt, 365, time.Now().UTC())
	return f.train(ctx, bt, synthetic, true)
}

// Predict forecasts daysAhead days of demand for one blood type.
// daysAhead must be within [1, MaxForecastDays]. A missing model is not
// an error: predict auto-trains from the store (or synthetic fallback)
// first, and the result's UsedFallback flag reports the degradation.
func (f *Forecaster) Predict(ctx context.Context, bt models.BloodType, daysAhead int) (*models.ForecastResult, error) {
	if !bt.Valid() {
		return nil, &models.ValidationError{Field: "blood_type", Reason: "unknown blood type: " + string(bt)}
	}
	if daysAhead < 1 || daysAhead > f.cfg.MaxForecastDays {
		return nil, &models.ValidationError{
			Field:  "days_ahead",
			Reason: fmt.Sprintf("%d outside [1, %d]", daysAhead, f.cfg.MaxForecastDays),
		}
	}

	f.mu.RLock()
	state := f.states[bt]
	f.mu.RUnlock()

	if state == nil {
		if _, err := f.TrainFromStore(ctx, bt); err != nil {
			// Even training on synthetic data failed; serve the naive
			// seasonal-average model rather than the error.
			f.logger.Warn("auto-train failed, serving naive forecast",
				zap.String("blood_type", string(bt)), zap.Error(err))
			result := f.naiveForecast(bt, daysAhead)
			f.metrics.IncrementForecasts(string(bt), true)
			return result, nil
		}
		f.mu.RLock()
		state = f.states[bt]
		f.mu.RUnlock()
	}

	result := f.predictWithState(bt, state, daysAhead)
	f.metrics.IncrementForecasts(string(bt), result.UsedFallback)
	return result, nil
}

func (f *Forecaster) predictWithState(bt models.BloodType, state *modelState, daysAhead int) *models.ForecastResult {
	start := today()

	window := make([]float64, len(state.tail))
	copy(window, state.tail)

	points := make([]models.ForecastPoint, 0, daysAhead)
	var widthSum, predSum float64

	for d := 0; d < daysAhead; d++ {
		date := start.AddDate(0, 0, d)
		row := calendarFeatures(date, false, bt)
		row[featTrailingAvg] = trailingAverage(window, state.histAvg)
		row[featSameWeekdayAvg] = sameWeekdayAverage(window, len(window), state.histAvg)

		pred := (state.forest.predict(row) + state.boost.predict(row)) / 2
		if pred < 0 {
			pred = 0
		}

		// Carry the forecast forward so later trailing averages see it.
		window = append(window, pred)

		point := boundedPoint(date, pred, state.residualStd)
		points = append(points, point)

		widthSum += float64(point.ConfidenceUpper - point.ConfidenceLower)
		predSum += float64(point.PredictedDemand)
	}

	return &models.ForecastResult{
		BloodType:       bt,
		Points:          points,
		ConfidenceScore: confidenceScore(widthSum, predSum, daysAhead),
		UsedFallback:    state.synthetic,
		GeneratedAt:     time.Now().UTC(),
	}
}

// boundedPoint rounds the prediction and derives the ±1.96σ interval,
// clipping at zero and keeping lower <= predicted <= upper after rounding.
func boundedPoint(date time.Time, pred, std float64) models.ForecastPoint {
	demand := int(pred + 0.5)
	lower := int(pred - confidenceZ*std + 0.5)
	upper := int(pred + confidenceZ*std + 0.5)
	if lower < 0 {
		lower = 0
	}
	if lower > demand {
		lower = demand
	}
	if upper < demand {
		upper = demand
	}
	return models.ForecastPoint{
		Date:            date,
		PredictedDemand: demand,
		ConfidenceLower: lower,
		ConfidenceUpper: upper,
	}
}

// confidenceScore is 100 minus the mean interval width normalized by the
// mean prediction, clamped to [0, 100].
func confidenceScore(widthSum, predSum float64, n int) float64 {
	meanWidth := widthSum / float64(n)
	meanPred := predSum / float64(n)
	if meanPred < 1 {
		meanPred = 1
	}
	score := 100 - meanWidth/meanPred*100
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// naiveForecast is the last-resort seasonal-average model: baseline
// demand shaped by weekday and month factors, ±15% band. Deterministic,
// so repeated calls stay idempotent.
func (f *Forecaster) naiveForecast(bt models.BloodType, daysAhead int) *models.ForecastResult {
	base := models.BaselineDemand[bt]
	if base == 0 {
		base = 20
	}
	start := today()

	points := make([]models.ForecastPoint, 0, daysAhead)
	for d := 0; d < daysAhead; d++ {
		date := start.AddDate(0, 0, d)
		demand := base
		if dow := int(date.Weekday()+6) % 7; dow < 5 {
			demand *= 1.2
		} else {
			demand *= 0.8
		}
		switch date.Month() {
		case time.June, time.July, time.August, time.October, time.November:
			demand *= 1.1
		}
		pred := int(demand + 0.5)
		lower := int(demand*0.85 + 0.5)
		upper := int(demand*1.15 + 0.5)
		if lower > pred {
			lower = pred
		}
		if upper < pred {
			upper = pred
		}
		points = append(points, models.ForecastPoint{
			Date:            date,
			PredictedDemand: pred,
			ConfidenceLower: lower,
			ConfidenceUpper: upper,
		})
	}

	return &models.ForecastResult{
		BloodType:       bt,
		Points:          points,
		ConfidenceScore: 50,
		UsedFallback:    true,
		GeneratedAt:     time.Now().UTC(),
	}
}

// HistoricalAverage returns the mean observed daily demand from the
// blood type's training series, or the static baseline when untrained.
// The alert generator compares forecast peaks against this.
func (f *Forecaster) HistoricalAverage(bt models.BloodType) float64 {
	f.mu.RLock()
	state := f.states[bt]
	f.mu.RUnlock()
	if state != nil {
		return state.histAvg
	}
	return models.BaselineDemand[bt]
}

// Summary reports the blood type's current model state without
// retraining, or nil when untrained.
func (f *Forecaster) Summary(bt models.BloodType) *models.TrainingSummary {
	f.mu.RLock()
	state := f.states[bt]
	f.mu.RUnlock()
	if state == nil {
		return nil
	}
	return &models.TrainingSummary{
		BloodType:   bt,
		Samples:     state.samples,
		ResidualStd: state.residualStd,
		Synthetic:   state.synthetic,
		TrainedAt:   state.trainedAt,
	}
}

// Trained reports whether a model state exists for the blood type.
func (f *Forecaster) Trained(bt models.BloodType) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.states[bt] != nil
}

func today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
