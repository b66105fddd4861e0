package regulator

import (
	"errors"
	"time"

	"github.com/citygrid/homeostat/internal/metrics"
	"github.com/citygrid/homeostat/internal/zone"
)

// #region errors
var (
	// ErrZoneOutOfRange is returned when a zone id does not exist.
	ErrZoneOutOfRange = errors.New("zone id out of range")

	// ErrNonFiniteDelta is returned when an influence delta is NaN or ±Inf.
	// Clamping NaN is undefined, so such input is rejected before any
	// mutation instead.
	ErrNonFiniteDelta = errors.New("influence delta is not finite")
)

// #endregion errors

// #region config
// Config holds the control-law parameters and the initial zone layout.
type Config struct {
	// Names and Seeds are index-aligned; their shared length fixes the
	// zone count for the regulator's lifetime.
	Names []string
	Seeds []float64

	Target   float64 // equilibrium the controller pulls activity toward
	Eta      float64 // correction gain
	Alpha    float64 // EMA smoothing factor; new-sample weight is 1-Alpha
	Baseline float64 // activity every zone returns to on Reset
}

// DefaultConfig returns the canonical five-district layout with the
// standard control parameters.
func DefaultConfig() Config {
	return Config{
		Names:    zone.DefaultNames,
		Seeds:    zone.DefaultSeeds,
		Target:   0.5,
		Eta:      0.1,
		Alpha:    0.97,
		Baseline: 0.3,
	}
}

// #endregion config

// #region snapshot
// Snapshot is an immutable copy of all zone data plus aggregates, taken at
// a single consistent instant.
type Snapshot struct {
	Zones   []zone.Zone       `json:"zones"`
	Metrics metrics.Aggregate `json:"metrics"`
	TakenAt time.Time         `json:"taken_at"`
}

// #endregion snapshot
