// Package metrics derives system-wide aggregates from a zone collection.
// All functions are pure; the regulator calls them under its lock so a
// single aggregate always reflects one consistent instant.
package metrics

import (
	"math"

	"github.com/citygrid/homeostat/internal/zone"
)

// #region aggregate
// Aggregate holds the system-wide numbers computed at read time.
//
// SystemHealth is defined as 1 - HomeostaticBalance, clamped to [0, 1]:
// the controller's own error signal is the health measure, so a perfectly
// balanced system scores 1.0 regardless of how activity is distributed
// across zones. The per-state counts are reported alongside for callers
// that want the calm-fraction view instead.
type Aggregate struct {
	AverageActivity    float64 `json:"average_activity"`
	HomeostaticBalance float64 `json:"homeostatic_balance"`
	SystemHealth       float64 `json:"system_health"`

	CalmZones           int `json:"calm_zones"`
	OverstimulatedZones int `json:"overstimulated_zones"`
	EmergentZones       int `json:"emergent_zones"`
	CriticalZones       int `json:"critical_zones"`
}

// #endregion aggregate

// #region compute
// Compute aggregates the given zones against the global target.
// An empty collection yields the zero Aggregate.
func Compute(zones []zone.Zone, target float64) Aggregate {
	if len(zones) == 0 {
		return Aggregate{}
	}

	var agg Aggregate
	var sum float64
	for _, z := range zones {
		sum += z.Activity
		switch z.State {
		case zone.StateCalm:
			agg.CalmZones++
		case zone.StateOverstimulated:
			agg.OverstimulatedZones++
		case zone.StateEmergent:
			agg.EmergentZones++
		case zone.StateCritical:
			agg.CriticalZones++
		}
	}

	agg.AverageActivity = sum / float64(len(zones))
	agg.HomeostaticBalance = math.Abs(agg.AverageActivity - target)
	agg.SystemHealth = zone.Clamp(1 - agg.HomeostaticBalance)
	return agg
}

// #endregion compute

// #region calm-fraction
// CalmFraction returns the share of zones classified calm, 0 for an empty
// collection.
func CalmFraction(zones []zone.Zone) float64 {
	if len(zones) == 0 {
		return 0
	}
	calm := 0
	for _, z := range zones {
		if z.State == zone.StateCalm {
			calm++
		}
	}
	return float64(calm) / float64(len(zones))
}

// #endregion calm-fraction
