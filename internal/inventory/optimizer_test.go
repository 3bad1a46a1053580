package inventory

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openbloodbank/openbloodbank/internal/config"
	"github.com/openbloodbank/openbloodbank/internal/models"
)

func optimizerConfig() config.Config {
	cfg := testConfig()
	cfg.WasteCostPerUnit = 50
	cfg.TransferCostPerUnit = 15
	cfg.RedistMinUnits = 1
	return cfg
}

func TestSuggestMovesSurplusToDeficit(t *testing.T) {
	o := NewOptimizer(optimizerConfig(), zap.NewNop(), nil)

	stocks := []LocationStock{
		{Location: "central", BloodType: models.OPositive, CurrentStock: 120, SafetyStock: 50, OptimalStock: 80},
		{Location: "north", BloodType: models.OPositive, CurrentStock: 20, SafetyStock: 50, OptimalStock: 80},
	}

	suggestions := o.Suggest(stocks)
	require.Len(t, suggestions, 1)

	sg := suggestions[0]
	assert.Equal(t, models.OPositive, sg.BloodType)
	assert.Equal(t, "central", sg.SourceLocation)
	assert.Equal(t, "north", sg.DestLocation)
	// Deficit is 30 (safety 50 - stock 20), surplus is 40; transfer the
	// smaller.
	assert.Equal(t, 30, sg.Units)
	// 30 units * (50 - 15) per unit.
	assert.Equal(t, decimal.NewFromInt(1050).StringFixed(2), sg.EstimatedSavings)
}

func TestSuggestNeverDrainsSourceBelowSafety(t *testing.T) {
	o := NewOptimizer(optimizerConfig(), zap.NewNop(), nil)

	stocks := []LocationStock{
		// Surplus over optimal is 30 but only 10 above safety.
		{Location: "central", BloodType: models.ANegative, CurrentStock: 60, SafetyStock: 50, OptimalStock: 30},
		{Location: "north", BloodType: models.ANegative, CurrentStock: 0, SafetyStock: 50, OptimalStock: 80},
	}

	suggestions := o.Suggest(stocks)
	require.Len(t, suggestions, 1)
	assert.Equal(t, 10, suggestions[0].Units)
}

func TestSuggestSplitsAcrossDeficits(t *testing.T) {
	o := NewOptimizer(optimizerConfig(), zap.NewNop(), nil)

	stocks := []LocationStock{
		{Location: "central", BloodType: models.BPositive, CurrentStock: 100, SafetyStock: 30, OptimalStock: 40},
		{Location: "north", BloodType: models.BPositive, CurrentStock: 5, SafetyStock: 30, OptimalStock: 50},
		{Location: "south", BloodType: models.BPositive, CurrentStock: 20, SafetyStock: 30, OptimalStock: 50},
	}

	suggestions := o.Suggest(stocks)
	require.Len(t, suggestions, 2)

	var total int
	for _, sg := range suggestions {
		assert.Equal(t, "central", sg.SourceLocation)
		total += sg.Units
	}
	// Deficits are 25 and 10; surplus can cover both.
	assert.Equal(t, 35, total)
	// Larger deficit is served first.
	assert.Equal(t, "north", suggestions[0].DestLocation)
	assert.Equal(t, 25, suggestions[0].Units)
}

func TestSuggestIndependentPerBloodType(t *testing.T) {
	o := NewOptimizer(optimizerConfig(), zap.NewNop(), nil)

	stocks := []LocationStock{
		{Location: "central", BloodType: models.OPositive, CurrentStock: 200, SafetyStock: 50, OptimalStock: 80},
		{Location: "north", BloodType: models.ABNegative, CurrentStock: 0, SafetyStock: 10, OptimalStock: 15},
	}

	// O+ surplus cannot serve an AB- deficit.
	assert.Empty(t, o.Suggest(stocks))
}

func TestSuggestNoSuggestionsWhenBalanced(t *testing.T) {
	o := NewOptimizer(optimizerConfig(), zap.NewNop(), nil)

	stocks := []LocationStock{
		{Location: "central", BloodType: models.OPositive, CurrentStock: 80, SafetyStock: 50, OptimalStock: 80},
		{Location: "north", BloodType: models.OPositive, CurrentStock: 55, SafetyStock: 50, OptimalStock: 80},
	}
	assert.Empty(t, o.Suggest(stocks))
}
