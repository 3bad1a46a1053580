package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBloodType(t *testing.T) {
	for _, bt := range AllBloodTypes {
		parsed, err := ParseBloodType(string(bt))
		require.NoError(t, err)
		assert.Equal(t, bt, parsed)
		assert.True(t, parsed.Valid())
	}

	for _, raw := range []string{"", "O", "o+", "C+", "AB", "O+ "} {
		_, err := ParseBloodType(raw)
		require.Error(t, err, "raw=%q", raw)
		var ve *ValidationError
		assert.True(t, errors.As(err, &ve), "raw=%q", raw)
	}
}

func TestBaselineDemandCoversAllTypes(t *testing.T) {
	require.Len(t, BaselineDemand, len(AllBloodTypes))
	for _, bt := range AllBloodTypes {
		assert.Greater(t, BaselineDemand[bt], 0.0, "%s", bt)
	}
	// Negative types are rarer than their positive counterparts.
	assert.Greater(t, BaselineDemand[OPositive], BaselineDemand[ONegative])
	assert.Greater(t, BaselineDemand[ABPositive], BaselineDemand[ABNegative])
}

func TestNewObservationDerivesCalendarFields(t *testing.T) {
	monday := time.Date(2026, 8, 24, 15, 30, 0, 0, time.UTC)
	obs := NewObservation(monday, OPositive, 42, false)
	assert.Equal(t, 0, obs.DayOfWeek, "Monday maps to 0")
	assert.Equal(t, 8, obs.Month)
	assert.False(t, obs.IsWeekend)

	saturday := time.Date(2026, 8, 22, 0, 0, 0, 0, time.UTC)
	obs = NewObservation(saturday, OPositive, 20, true)
	assert.Equal(t, 5, obs.DayOfWeek)
	assert.True(t, obs.IsWeekend)
	assert.True(t, obs.IsHoliday)
}

func TestParseUrgency(t *testing.T) {
	u, err := ParseUrgency("critical")
	require.NoError(t, err)
	assert.Equal(t, UrgencyCritical, u)

	_, err = ParseUrgency("panic")
	assert.Error(t, err)
}
