package zone

import "time"

// #region state
// State is the discrete classification of a zone's continuous activity level.
type State string

const (
	StateCalm           State = "calm"
	StateOverstimulated State = "overstimulated"
	StateEmergent       State = "emergent"
	StateCritical       State = "critical"
)

// #endregion state

// #region zone
// Zone is a single regulated unit. Identity is assigned at construction and
// never changes; Activity is always within [0, 1] and State always equals
// Classify(Activity). Zones are owned by the regulator and mutated only
// through it.
type Zone struct {
	ID         int       `json:"id"`
	Name       string    `json:"name"`
	Activity   float64   `json:"activity"`
	Target     float64   `json:"target"`
	State      State     `json:"state"`
	LastUpdate time.Time `json:"last_update"`
}

// #endregion zone

// #region defaults
// DefaultNames are the canonical five district names.
var DefaultNames = []string{"Downtown", "Industrial", "Residential", "Commercial", "Parks"}

// DefaultSeeds are the deterministic initial activity levels, index-aligned
// with DefaultNames.
var DefaultSeeds = []float64{0.3, 0.6, 0.2, 0.8, 0.4}

// #endregion defaults
