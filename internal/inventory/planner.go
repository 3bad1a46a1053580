package inventory

import (
	"math"
	"sort"
	"time"

	"github.com/openbloodbank/openbloodbank/internal/models"
)

// donationYield is the usable fraction of scheduled donors; some
// no-show or are deferred at screening.
const donationYield = 0.8

// PlanCollections turns deficit snapshots into donor drive plans.
// Critical types are scheduled immediately, high within the week, the
// rest the following week. Snapshots at or above medium urgency with no
// shortfall produce no plan.
func PlanCollections(snaps []models.InventorySnapshot, now time.Time) []models.CollectionPlan {
	var plans []models.CollectionPlan
	for _, snap := range snaps {
		deficit := snap.OptimalStock - snap.CurrentStock
		if deficit <= 0 {
			continue
		}

		var schedule, priority string
		var lead int
		switch snap.UrgencyLevel {
		case models.UrgencyCritical:
			schedule, priority, lead = "immediate", "critical", 0
		case models.UrgencyHigh:
			schedule, priority, lead = "this_week", "high", 2
		case models.UrgencyMedium:
			schedule, priority, lead = "next_week", "normal", 7
		default:
			continue
		}

		plans = append(plans, models.CollectionPlan{
			BloodType:       snap.BloodType,
			Schedule:        schedule,
			TargetUnits:     deficit,
			TargetDonors:    int(math.Ceil(float64(deficit) / donationYield)),
			RecommendedDate: now.UTC().AddDate(0, 0, lead),
			Priority:        priority,
		})
	}

	sort.SliceStable(plans, func(i, j int) bool {
		return plans[i].TargetUnits > plans[j].TargetUnits
	})
	return plans
}
