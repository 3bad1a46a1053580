package simulation

import (
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/openbloodbank/openbloodbank/internal/models"
	"github.com/openbloodbank/openbloodbank/internal/observability"
)

// priorityCount is how many blood types the ranked recommendations flag
// as top priority.
const priorityCount = 3

// priorityDeficitUnits is the additional-units threshold above which a
// blood type is considered critical for a surge.
const priorityDeficitUnits = 20

// BaselineProvider supplies the most recent average daily demand per
// blood type. The forecaster satisfies this; a static table works too.
type BaselineProvider interface {
	HistoricalAverage(bt models.BloodType) float64
}

// StaticBaselines is a BaselineProvider backed by the fixed demand table,
// for callers without a trained forecaster.
type StaticBaselines struct{}

func (StaticBaselines) HistoricalAverage(bt models.BloodType) float64 {
	return models.BaselineDemand[bt]
}

// Simulator applies named-event multiplier tables to baseline demand.
// Pure and stateless apart from its injected baseline source; safe for
// concurrent use.
type Simulator struct {
	baselines BaselineProvider
	logger    *zap.Logger
	metrics   observability.MetricsRegistry
}

// NewSimulator constructs a Simulator. baselines may be nil, in which
// case the static demand table is used.
func NewSimulator(baselines BaselineProvider, logger *zap.Logger, metrics observability.MetricsRegistry) *Simulator {
	if baselines == nil {
		baselines = StaticBaselines{}
	}
	if metrics == nil {
		metrics = observability.NewNoOpRegistry()
	}
	return &Simulator{baselines: baselines, logger: logger, metrics: metrics}
}

// Simulate estimates the surge demand for a named emergency scenario at
// the given severity. Unknown scenario or severity fails with
// ErrUnknownScenario; a zero baseline reports 0% increase instead of
// dividing by zero.
func (s *Simulator) Simulate(scenario models.Scenario, severity models.Severity) (*models.SimulationResult, error) {
	result := &models.SimulationResult{
		Scenario: scenario,
		Severity: severity,
		Impacts:  make(map[models.BloodType]models.ScenarioImpact, len(models.AllBloodTypes)),
	}

	for _, bt := range models.AllBloodTypes {
		mult, err := Multiplier(scenario, severity, bt)
		if err != nil {
			return nil, fmt.Errorf("simulate %s/%s: %w", scenario, severity, err)
		}

		baseline := int(s.baselines.HistoricalAverage(bt) + 0.5)
		surge := int(float64(baseline)*mult + 0.5)
		additional := surge - baseline

		var pctIncrease float64
		if baseline > 0 {
			pctIncrease = round1(float64(additional) / float64(baseline) * 100)
		}

		result.Impacts[bt] = models.ScenarioImpact{
			BaselineDemand:        baseline,
			SurgeDemand:           surge,
			AdditionalUnitsNeeded: additional,
			PercentageIncrease:    pctIncrease,
		}
	}

	result.PriorityTypes, result.Recommendations = s.recommend(result.Impacts)

	s.metrics.IncrementSimulations(string(scenario))
	s.logger.Info("scenario simulated",
		zap.String("scenario", string(scenario)),
		zap.String("severity", string(severity)),
		zap.Int("priority_types", len(result.PriorityTypes)),
	)

	return result, nil
}

// recommend ranks blood types by additional units needed, descending,
// and derives the action list for the notification collaborator.
func (s *Simulator) recommend(impacts map[models.BloodType]models.ScenarioImpact) ([]models.BloodType, []string) {
	ranked := make([]models.BloodType, 0, len(impacts))
	for bt := range impacts {
		ranked = append(ranked, bt)
	}
	sort.Slice(ranked, func(i, j int) bool {
		a, b := impacts[ranked[i]], impacts[ranked[j]]
		if a.AdditionalUnitsNeeded != b.AdditionalUnitsNeeded {
			return a.AdditionalUnitsNeeded > b.AdditionalUnitsNeeded
		}
		return ranked[i] < ranked[j]
	})

	var critical []models.BloodType
	for _, bt := range ranked {
		if impacts[bt].AdditionalUnitsNeeded > priorityDeficitUnits {
			critical = append(critical, bt)
		}
	}

	top := ranked
	if len(top) > priorityCount {
		top = top[:priorityCount]
	}

	recs := make([]string, 0, 4)
	if len(critical) > 0 {
		recs = append(recs, fmt.Sprintf("PRIORITY: increase stock for %s", joinTypes(critical, priorityCount)))
	}
	recs = append(recs,
		"Activate emergency donor notification",
		"Alert nearby hospitals of potential shortage",
		"Prepare inter-facility transfer arrangements",
	)

	return top, recs
}

func joinTypes(types []models.BloodType, limit int) string {
	if len(types) > limit {
		types = types[:limit]
	}
	out := ""
	for i, bt := range types {
		if i > 0 {
			out += ", "
		}
		out += string(bt)
	}
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
