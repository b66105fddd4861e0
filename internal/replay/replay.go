// Package replay runs scripted tick and influence sequences against a
// regulator entirely in memory, for offline study of the control law.
package replay

import (
	"fmt"

	"github.com/citygrid/homeostat/internal/metrics"
	"github.com/citygrid/homeostat/internal/regulator"
	"github.com/citygrid/homeostat/internal/zone"
)

// #region types

// Op names a single scripted step.
type Op string

const (
	OpTick      Op = "tick"
	OpInfluence Op = "influence"
	OpReset     Op = "reset"
)

// Step is one entry in a script. ZoneID and Delta are only read for
// influence steps; Count lets a single tick step stand for many.
type Step struct {
	Op     Op      `json:"op"`
	Count  int     `json:"count,omitempty"`
	ZoneID int     `json:"zone_id,omitempty"`
	Delta  float64 `json:"delta,omitempty"`
}

// StepResult captures the outcome of replaying one step.
type StepResult struct {
	Index    int               `json:"index"`
	Op       Op                `json:"op"`
	Accepted bool              `json:"accepted"`
	Reason   string            `json:"reason,omitempty"`
	Metrics  metrics.Aggregate `json:"metrics"`
}

// Summary provides aggregate stats from a replay run.
type Summary struct {
	TotalSteps int               `json:"total_steps"`
	Ticks      int               `json:"ticks"`
	Influences int               `json:"influences"`
	Rejected   int               `json:"rejected"`
	Resets     int               `json:"resets"`
	Final      []zone.Zone       `json:"final"`
	Metrics    metrics.Aggregate `json:"metrics"`
}

// #endregion types

// #region replay

// Run replays every step of the script in order against a fresh regulator
// built from cfg. Rejected influences are recorded, not fatal.
func Run(cfg regulator.Config, script []Step) ([]StepResult, Summary, error) {
	reg, err := regulator.New(cfg)
	if err != nil {
		return nil, Summary{}, fmt.Errorf("build regulator: %w", err)
	}

	results := make([]StepResult, 0, len(script))
	summary := Summary{}

	for i, step := range script {
		res := StepResult{Index: i, Op: step.Op, Accepted: true}

		switch step.Op {
		case OpTick:
			n := step.Count
			if n <= 0 {
				n = 1
			}
			for range n {
				reg.Tick()
			}
			summary.Ticks += n
		case OpInfluence:
			summary.Influences++
			if err := reg.ApplyInfluence(step.ZoneID, step.Delta); err != nil {
				res.Accepted = false
				res.Reason = err.Error()
				summary.Rejected++
			}
		case OpReset:
			reg.Reset()
			summary.Resets++
		default:
			return nil, Summary{}, fmt.Errorf("step %d: unknown op %q", i, step.Op)
		}

		snap := reg.Snapshot()
		res.Metrics = snap.Metrics
		results = append(results, res)
	}

	summary.TotalSteps = len(results)
	final := reg.Snapshot()
	summary.Final = final.Zones
	summary.Metrics = final.Metrics
	return results, summary, nil
}

// Settle ticks a fresh regulator until every zone sits within tolerance of
// the target, up to maxTicks. It returns the tick count at which the system
// settled, or maxTicks with ok=false if it never did.
func Settle(cfg regulator.Config, tolerance float64, maxTicks int) (int, bool) {
	reg, err := regulator.New(cfg)
	if err != nil {
		return 0, false
	}
	for i := 1; i <= maxTicks; i++ {
		reg.Tick()
		snap := reg.Snapshot()
		settled := true
		for _, z := range snap.Zones {
			if z.Activity < cfg.Target-tolerance || z.Activity > cfg.Target+tolerance {
				settled = false
				break
			}
		}
		if settled {
			return i, true
		}
	}
	return maxTicks, false
}

// #endregion replay
