package simulation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openbloodbank/openbloodbank/internal/models"
)

func TestHighwayAccidentHighSeverity(t *testing.T) {
	s := NewSimulator(StaticBaselines{}, zap.NewNop(), nil)

	result, err := s.Simulate(models.ScenarioHighwayAccident, models.SeverityHigh)
	require.NoError(t, err)

	// High severity doubles the base and the trauma shape multiplies on
	// top: O+ 1.5x and O- 2.0x.
	op := result.Impacts[models.OPositive]
	assert.Equal(t, 40, op.BaselineDemand)
	assert.Equal(t, 120, op.SurgeDemand)
	assert.Equal(t, 80, op.AdditionalUnitsNeeded)
	assert.InDelta(t, 200.0, op.PercentageIncrease, 0.01)

	on := result.Impacts[models.ONegative]
	assert.Equal(t, 15, on.BaselineDemand)
	assert.Equal(t, 60, on.SurgeDemand)
	assert.Equal(t, 45, on.AdditionalUnitsNeeded)
	assert.InDelta(t, 300.0, on.PercentageIncrease, 0.01)
}

func TestSimulateCoversAllBloodTypes(t *testing.T) {
	s := NewSimulator(nil, zap.NewNop(), nil)

	result, err := s.Simulate(models.ScenarioDengueOutbreak, models.SeverityMedium)
	require.NoError(t, err)
	require.Len(t, result.Impacts, len(models.AllBloodTypes))

	for bt, impact := range result.Impacts {
		assert.GreaterOrEqual(t, impact.SurgeDemand, impact.BaselineDemand, "%s", bt)
		assert.Equal(t, impact.SurgeDemand-impact.BaselineDemand, impact.AdditionalUnitsNeeded, "%s", bt)
	}
}

func TestSimulateUnknownScenario(t *testing.T) {
	s := NewSimulator(nil, zap.NewNop(), nil)

	_, err := s.Simulate("earthquake", models.SeverityHigh)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrUnknownScenario)

	_, err = s.Simulate(models.ScenarioFestival, "extreme")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrUnknownScenario)
}

type zeroBaselines struct{}

func (zeroBaselines) HistoricalAverage(bt models.BloodType) float64 { return 0 }

func TestSimulateZeroBaselineReportsZeroIncrease(t *testing.T) {
	s := NewSimulator(zeroBaselines{}, zap.NewNop(), nil)

	result, err := s.Simulate(models.ScenarioMonsoon, models.SeverityLow)
	require.NoError(t, err)
	for bt, impact := range result.Impacts {
		assert.Equal(t, 0, impact.BaselineDemand, "%s", bt)
		assert.Equal(t, 0.0, impact.PercentageIncrease, "%s", bt)
	}
}

func TestRecommendationsRankBySurge(t *testing.T) {
	s := NewSimulator(StaticBaselines{}, zap.NewNop(), nil)

	result, err := s.Simulate(models.ScenarioHighwayAccident, models.SeverityHigh)
	require.NoError(t, err)

	require.NotEmpty(t, result.PriorityTypes)
	// O+ has the largest absolute deficit under the trauma shape.
	assert.Equal(t, models.OPositive, result.PriorityTypes[0])
	require.NotEmpty(t, result.Recommendations)
	assert.Contains(t, result.Recommendations[0], "PRIORITY")
}

func TestSeverityOrdering(t *testing.T) {
	for _, bt := range models.AllBloodTypes {
		low, err := Multiplier(models.ScenarioFestival, models.SeverityLow, bt)
		require.NoError(t, err)
		med, err := Multiplier(models.ScenarioFestival, models.SeverityMedium, bt)
		require.NoError(t, err)
		high, err := Multiplier(models.ScenarioFestival, models.SeverityHigh, bt)
		require.NoError(t, err)

		assert.Less(t, low, med, "%s", bt)
		assert.Less(t, med, high, "%s", bt)
	}
}
