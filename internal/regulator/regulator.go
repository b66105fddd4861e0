// Package regulator implements the homeostatic feedback engine: a fixed
// collection of zones whose activity is pulled toward an equilibrium target
// by an EMA-damped proportional controller.
package regulator

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/citygrid/homeostat/internal/metrics"
	"github.com/citygrid/homeostat/internal/zone"
)

// #region regulator
// Regulator owns the zone collection and its smoothing accumulators. All
// access goes through its methods; one mutex guards the whole collection,
// so tick, influence, and snapshot are totally ordered and the cross-zone
// aggregates always see a consistent view. The critical section is O(N)
// with N in the tens, so coarse locking is not a bottleneck.
type Regulator struct {
	mu sync.Mutex

	zones []zone.Zone
	ema   []float64 // index-aligned with zones; not externally settable

	target   float64
	eta      float64
	alpha    float64
	baseline float64
}

// New constructs a regulator from the given configuration. The zone count
// is fixed for the regulator's lifetime; seed activities are clamped into
// [0, 1] and the EMA accumulators start at the seed value.
func New(cfg Config) (*Regulator, error) {
	if len(cfg.Seeds) == 0 {
		return nil, fmt.Errorf("regulator: no zones configured")
	}
	if len(cfg.Names) != len(cfg.Seeds) {
		return nil, fmt.Errorf("regulator: %d names for %d seeds", len(cfg.Names), len(cfg.Seeds))
	}
	if cfg.Alpha < 0 || cfg.Alpha >= 1 {
		return nil, fmt.Errorf("regulator: alpha %v outside [0, 1)", cfg.Alpha)
	}
	if cfg.Eta <= 0 {
		return nil, fmt.Errorf("regulator: eta %v must be positive", cfg.Eta)
	}

	now := time.Now()
	zones := make([]zone.Zone, len(cfg.Seeds))
	ema := make([]float64, len(cfg.Seeds))
	for i, seed := range cfg.Seeds {
		activity := zone.Clamp(seed)
		zones[i] = zone.Zone{
			ID:         i,
			Name:       cfg.Names[i],
			Activity:   activity,
			Target:     cfg.Target,
			State:      zone.Classify(activity),
			LastUpdate: now,
		}
		ema[i] = activity
	}

	return &Regulator{
		zones:    zones,
		ema:      ema,
		target:   cfg.Target,
		eta:      cfg.Eta,
		alpha:    cfg.Alpha,
		baseline: zone.Clamp(cfg.Baseline),
	}, nil
}

// ZoneCount returns the fixed number of zones.
func (r *Regulator) ZoneCount() int {
	return len(r.zones)
}

// #endregion regulator

// #region tick
// Tick runs one correction step across all zones: blend the activity into
// the per-zone EMA, then adjust activity by eta times the error between
// target and the smoothed signal. Damping through the EMA keeps single-tick
// perturbations from being over-corrected. Tick is infallible.
func (r *Regulator) Tick() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for i := range r.zones {
		z := &r.zones[i]
		r.ema[i] = zone.Clamp(r.alpha*r.ema[i] + (1-r.alpha)*z.Activity)
		adjustment := r.eta * (z.Target - r.ema[i])
		z.Activity = zone.Clamp(z.Activity + adjustment)
		z.State = zone.Classify(z.Activity)
		z.LastUpdate = now
	}
}

// #endregion tick

// #region influence
// ApplyInfluence adds delta to the zone's activity, clamped to [0, 1].
// Influence is an instantaneous exogenous event: it bypasses the EMA, which
// only folds activity in on the next tick. The call is additive, not
// idempotent. On failure no state is mutated.
func (r *Regulator) ApplyInfluence(zoneID int, delta float64) error {
	if math.IsNaN(delta) || math.IsInf(delta, 0) {
		return fmt.Errorf("zone %d: %w (%v)", zoneID, ErrNonFiniteDelta, delta)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if zoneID < 0 || zoneID >= len(r.zones) {
		return fmt.Errorf("zone %d of %d: %w", zoneID, len(r.zones), ErrZoneOutOfRange)
	}

	z := &r.zones[zoneID]
	z.Activity = zone.Clamp(z.Activity + delta)
	z.State = zone.Classify(z.Activity)
	z.LastUpdate = time.Now()
	return nil
}

// #endregion influence

// #region reset
// Reset returns every zone and its accumulator to the baseline activity in
// one sweep under the same lock as tick.
func (r *Regulator) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	state := zone.Classify(r.baseline)
	for i := range r.zones {
		r.zones[i].Activity = r.baseline
		r.zones[i].State = state
		r.zones[i].LastUpdate = now
		r.ema[i] = r.baseline
	}
}

// #endregion reset

// #region snapshot
// Snapshot copies all zone data and computes the aggregates while holding
// the lock, so the result reflects a single consistent instant. Snapshot is
// infallible.
func (r *Regulator) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	zones := make([]zone.Zone, len(r.zones))
	copy(zones, r.zones)

	return Snapshot{
		Zones:   zones,
		Metrics: metrics.Compute(zones, r.target),
		TakenAt: time.Now(),
	}
}

// #endregion snapshot
