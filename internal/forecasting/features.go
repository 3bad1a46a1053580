package forecasting

import (
	"fmt"
	"math"
	"time"

	"github.com/openbloodbank/openbloodbank/internal/models"
)

// Feature vector layout shared by training and prediction. Seasonal and
// weekend effects enter the model here as inputs, never as post-hoc
// multipliers on the prediction.
const (
	featDayOfWeek = iota
	featMonth
	featDayOfMonth
	featIsWeekend
	featIsHoliday
	featIsMonsoon
	featIsFestival
	featMonthSin
	featMonthCos
	featDOWSin
	featDOWCos
	featTrailingAvg
	featSameWeekdayAvg
	featRarity
	numFeatures
)

// trailingWindow is k for the trailing k-day average feature.
const trailingWindow = 7

// sameWeekdayPeriod is how many prior same-weekday observations feed the
// same-weekday average feature.
const sameWeekdayPeriod = 4

// FeatureSet is the engineered training table: one row per observation,
// aligned one-to-one with the input sequence.
type FeatureSet struct {
	X [][]float64
	Y []float64
}

// BuildFeatures turns an ordered demand series for one blood type into
// labeled feature rows. It is deterministic and never mutates the
// observations. Fails when fewer than minHistory observations are given.
func BuildFeatures(history []models.DemandObservation, minHistory int) (*FeatureSet, error) {
	if len(history) < minHistory {
		return nil, fmt.Errorf("%w: got %d observations, need %d", models.ErrInsufficientHistory, len(history), minHistory)
	}

	set := &FeatureSet{
		X: make([][]float64, 0, len(history)),
		Y: make([]float64, 0, len(history)),
	}

	demands := make([]float64, len(history))
	for i, obs := range history {
		demands[i] = float64(obs.Demand)
	}

	for i, obs := range history {
		row := calendarFeatures(obs.Date, obs.IsHoliday, obs.BloodType)
		row[featTrailingAvg] = trailingAverage(demands[:i], float64(obs.Demand))
		row[featSameWeekdayAvg] = sameWeekdayAverage(demands[:i], i, float64(obs.Demand))
		set.X = append(set.X, row)
		set.Y = append(set.Y, float64(obs.Demand))
	}

	return set, nil
}

// calendarFeatures fills the purely date-derived part of a feature row.
func calendarFeatures(date time.Time, holiday bool, bt models.BloodType) []float64 {
	row := make([]float64, numFeatures)

	dow := float64(int(date.Weekday()+6) % 7) // Monday=0
	month := float64(date.Month())

	row[featDayOfWeek] = dow
	row[featMonth] = month
	row[featDayOfMonth] = float64(date.Day())
	if dow >= 5 {
		row[featIsWeekend] = 1
	}
	if holiday {
		row[featIsHoliday] = 1
	}
	switch date.Month() {
	case time.June, time.July, time.August:
		row[featIsMonsoon] = 1
	case time.October, time.November:
		row[featIsFestival] = 1
	}
	row[featMonthSin] = math.Sin(2 * math.Pi * month / 12)
	row[featMonthCos] = math.Cos(2 * math.Pi * month / 12)
	row[featDOWSin] = math.Sin(2 * math.Pi * dow / 7)
	row[featDOWCos] = math.Cos(2 * math.Pi * dow / 7)
	row[featRarity] = bt.Rarity()

	return row
}

// trailingAverage averages the last trailingWindow demands before the
// current row, falling back to the row's own demand when there is no
// prior history yet.
func trailingAverage(prior []float64, fallback float64) float64 {
	if len(prior) == 0 {
		return fallback
	}
	start := len(prior) - trailingWindow
	if start < 0 {
		start = 0
	}
	var sum float64
	for _, d := range prior[start:] {
		sum += d
	}
	return sum / float64(len(prior)-start)
}

// sameWeekdayAverage averages demand on the same weekday over the last
// sameWeekdayPeriod weeks before row i.
func sameWeekdayAverage(prior []float64, i int, fallback float64) float64 {
	var sum float64
	var n int
	for back := 7; back <= 7*sameWeekdayPeriod; back += 7 {
		j := i - back
		if j < 0 {
			break
		}
		sum += prior[j]
		n++
	}
	if n == 0 {
		return fallback
	}
	return sum / float64(n)
}
