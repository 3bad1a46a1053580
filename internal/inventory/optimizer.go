package inventory

import (
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/openbloodbank/openbloodbank/internal/config"
	"github.com/openbloodbank/openbloodbank/internal/models"
	"github.com/openbloodbank/openbloodbank/internal/observability"
)

// LocationStock is the optimizer's view of one blood type at one
// location. OptimalStock comes from the evaluator; SafetyStock bounds
// how far a source may be drained.
type LocationStock struct {
	Location     string
	BloodType    models.BloodType
	CurrentStock int
	SafetyStock  int
	OptimalStock int
}

// Optimizer proposes inter-location transfers that move surplus units
// toward deficits. Greedy largest-surplus to largest-deficit matching
// per blood type; no global optimum is attempted.
type Optimizer struct {
	cfg     config.Config
	logger  *zap.Logger
	metrics observability.MetricsRegistry
}

// NewOptimizer constructs an Optimizer.
func NewOptimizer(cfg config.Config, logger *zap.Logger, metrics observability.MetricsRegistry) *Optimizer {
	if metrics == nil {
		metrics = observability.NewNoOpRegistry()
	}
	return &Optimizer{cfg: cfg, logger: logger, metrics: metrics}
}

// Suggest matches surplus locations against deficit locations for each
// blood type independently. A transfer never pushes the source below
// its safety stock and never exceeds the destination's deficit.
// Suggestions come back ordered by estimated savings, largest first.
func (o *Optimizer) Suggest(stocks []LocationStock) []models.RedistributionSuggestion {
	byType := make(map[models.BloodType][]LocationStock)
	for _, s := range stocks {
		byType[s.BloodType] = append(byType[s.BloodType], s)
	}

	perUnit := decimal.NewFromFloat(o.cfg.WasteCostPerUnit).
		Sub(decimal.NewFromFloat(o.cfg.TransferCostPerUnit))

	var suggestions []models.RedistributionSuggestion
	for _, bt := range models.AllBloodTypes {
		suggestions = append(suggestions, o.matchType(byType[bt], perUnit)...)
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Units > suggestions[j].Units
	})

	for _, s := range suggestions {
		o.metrics.IncrementRedistributionSuggestions(s.Units)
	}
	if len(suggestions) > 0 {
		o.logger.Info("redistribution suggestions computed",
			zap.Int("count", len(suggestions)),
		)
	}

	return suggestions
}

type surplusEntry struct {
	location  string
	available int
}

type deficitEntry struct {
	location string
	needed   int
}

// matchType runs the greedy matching for one blood type. Surplus is
// stock above optimal; deficit is the gap below safety stock.
func (o *Optimizer) matchType(stocks []LocationStock, perUnit decimal.Decimal) []models.RedistributionSuggestion {
	var surpluses []surplusEntry
	var deficits []deficitEntry

	for _, s := range stocks {
		if excess := s.CurrentStock - s.OptimalStock; excess > 0 {
			// cap what can leave so the source keeps its safety buffer
			movable := s.CurrentStock - s.SafetyStock
			if movable > excess {
				movable = excess
			}
			if movable > 0 {
				surpluses = append(surpluses, surplusEntry{location: s.Location, available: movable})
			}
		} else if shortfall := s.SafetyStock - s.CurrentStock; shortfall > 0 {
			deficits = append(deficits, deficitEntry{location: s.Location, needed: shortfall})
		}
	}

	sort.Slice(surpluses, func(i, j int) bool {
		if surpluses[i].available != surpluses[j].available {
			return surpluses[i].available > surpluses[j].available
		}
		return surpluses[i].location < surpluses[j].location
	})
	sort.Slice(deficits, func(i, j int) bool {
		if deficits[i].needed != deficits[j].needed {
			return deficits[i].needed > deficits[j].needed
		}
		return deficits[i].location < deficits[j].location
	})

	var out []models.RedistributionSuggestion
	si := 0
	for di := range deficits {
		for deficits[di].needed > 0 && si < len(surpluses) {
			units := surpluses[si].available
			if units > deficits[di].needed {
				units = deficits[di].needed
			}
			if units >= o.cfg.RedistMinUnits && len(stocks) > 0 {
				out = append(out, models.RedistributionSuggestion{
					BloodType:        stocks[0].BloodType,
					SourceLocation:   surpluses[si].location,
					DestLocation:     deficits[di].location,
					Units:            units,
					EstimatedSavings: perUnit.Mul(decimal.NewFromInt(int64(units))).StringFixed(2),
				})
			}
			surpluses[si].available -= units
			deficits[di].needed -= units
			if surpluses[si].available == 0 {
				si++
			}
		}
	}

	return out
}
