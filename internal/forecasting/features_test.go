package forecasting

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbloodbank/openbloodbank/internal/models"
)

func flatHistory(bt models.BloodType, days, demand int) []models.DemandObservation {
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC) // a Monday
	history := make([]models.DemandObservation, 0, days)
	for d := 0; d < days; d++ {
		history = append(history, models.NewObservation(start.AddDate(0, 0, d), bt, demand, false))
	}
	return history
}

func TestBuildFeaturesRejectsShortHistory(t *testing.T) {
	history := flatHistory(models.OPositive, 10, 40)
	_, err := BuildFeatures(history, 30)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInsufficientHistory))
}

func TestBuildFeaturesShape(t *testing.T) {
	history := flatHistory(models.OPositive, 60, 40)
	set, err := BuildFeatures(history, 30)
	require.NoError(t, err)

	require.Equal(t, len(set.X), len(set.Y))
	require.NotEmpty(t, set.X)
	for _, row := range set.X {
		assert.Len(t, row, numFeatures)
	}
}

func TestBuildFeaturesCalendarValues(t *testing.T) {
	history := flatHistory(models.ONegative, 60, 15)
	set, err := BuildFeatures(history, 30)
	require.NoError(t, err)

	for i, row := range set.X {
		assert.GreaterOrEqual(t, row[featDayOfWeek], 0.0)
		assert.LessOrEqual(t, row[featDayOfWeek], 6.0)
		assert.GreaterOrEqual(t, row[featMonth], 1.0)
		assert.LessOrEqual(t, row[featMonth], 12.0)
		// Flat series keeps trailing averages at the constant demand.
		assert.InDelta(t, 15.0, row[featTrailingAvg], 0.001, "row %d", i)
	}
}

func TestTrailingAverageFallsBackWhenEmpty(t *testing.T) {
	assert.Equal(t, 25.0, trailingAverage(nil, 25))
	assert.InDelta(t, 10.0, trailingAverage([]float64{10, 10, 10}, 25), 0.001)
}
