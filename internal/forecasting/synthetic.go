package forecasting

import (
	"math/rand"
	"time"

	"github.com/openbloodbank/openbloodbank/internal/models"
)

// GenerateSyntheticHistory produces a realistic demand series for one
// blood type, used as a training fallback when no real history is
// registered and as a fixture in tests. Seeded per blood type so
// repeated calls yield the same series.
func GenerateSyntheticHistory(bt models.BloodType, days int, now time.Time) []models.DemandObservation {
	rng := rand.New(rand.NewSource(syntheticSeed(bt)))
	base := models.BaselineDemand[bt]
	if base == 0 {
		base = 20
	}

	history := make([]models.DemandObservation, 0, days)
	start := now.AddDate(0, 0, -days)

	for d := 0; d < days; d++ {
		date := start.AddDate(0, 0, d)
		demand := base

		// Weekday lift, weekend dip
		if dow := int(date.Weekday()+6) % 7; dow < 5 {
			demand *= uniform(rng, 1.1, 1.3)
		} else {
			demand *= uniform(rng, 0.7, 0.9)
		}

		// Seasonal pattern
		switch date.Month() {
		case time.June, time.July, time.August:
			demand *= uniform(rng, 1.2, 1.4)
		case time.October, time.November:
			demand *= uniform(rng, 1.15, 1.35)
		case time.December, time.January, time.February:
			demand *= uniform(rng, 0.9, 1.0)
		}

		// Occasional emergency spike
		if rng.Float64() < 0.05 {
			demand *= uniform(rng, 1.5, 2.5)
		}

		demand *= uniform(rng, 0.85, 1.15)

		units := int(demand + 0.5)
		if units < 1 {
			units = 1
		}
		history = append(history, models.NewObservation(date, bt, units, false))
	}

	return history
}

func syntheticSeed(bt models.BloodType) int64 {
	var seed int64
	for _, c := range string(bt) {
		seed = seed*131 + int64(c)
	}
	return seed
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
