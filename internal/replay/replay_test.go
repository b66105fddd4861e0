package replay

import (
	"math"
	"testing"

	"github.com/citygrid/homeostat/internal/regulator"
)

func TestRunTickStep(t *testing.T) {
	cfg := regulator.DefaultConfig()
	results, summary, err := Run(cfg, []Step{{Op: OpTick}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	if summary.Ticks != 1 || summary.TotalSteps != 1 {
		t.Errorf("summary = %+v", summary)
	}

	// First zone seeds at 0.3 and moves toward target on the first tick.
	got := summary.Final[0].Activity
	if math.Abs(got-0.32) > 1e-12 {
		t.Errorf("zone 0 activity = %v, want 0.32", got)
	}
}

func TestRunTickCount(t *testing.T) {
	cfg := regulator.DefaultConfig()
	_, summary, err := Run(cfg, []Step{{Op: OpTick, Count: 50}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Ticks != 50 {
		t.Errorf("ticks = %d, want 50", summary.Ticks)
	}
}

func TestRunInfluenceAndRejection(t *testing.T) {
	cfg := regulator.DefaultConfig()
	script := []Step{
		{Op: OpInfluence, ZoneID: 0, Delta: 0.2},
		{Op: OpInfluence, ZoneID: 99, Delta: 0.1},
	}
	results, summary, err := Run(cfg, script)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !results[0].Accepted {
		t.Errorf("valid influence rejected: %s", results[0].Reason)
	}
	if results[1].Accepted {
		t.Error("out of range influence accepted")
	}
	if summary.Rejected != 1 || summary.Influences != 2 {
		t.Errorf("summary = %+v", summary)
	}
	if got := summary.Final[0].Activity; math.Abs(got-0.5) > 1e-12 {
		t.Errorf("zone 0 activity = %v, want 0.5", got)
	}
}

func TestRunResetStep(t *testing.T) {
	cfg := regulator.DefaultConfig()
	script := []Step{
		{Op: OpInfluence, ZoneID: 1, Delta: 0.5},
		{Op: OpReset},
	}
	_, summary, err := Run(cfg, script)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Resets != 1 {
		t.Errorf("resets = %d, want 1", summary.Resets)
	}
	for _, z := range summary.Final {
		if math.Abs(z.Activity-cfg.Baseline) > 1e-12 {
			t.Errorf("zone %d activity = %v after reset, want %v", z.ID, z.Activity, cfg.Baseline)
		}
	}
}

func TestRunUnknownOp(t *testing.T) {
	if _, _, err := Run(regulator.DefaultConfig(), []Step{{Op: "explode"}}); err == nil {
		t.Error("expected error for unknown op")
	}
}

func TestRunBadConfig(t *testing.T) {
	cfg := regulator.DefaultConfig()
	cfg.Seeds = nil
	cfg.Names = nil
	if _, _, err := Run(cfg, nil); err == nil {
		t.Error("expected error for empty seeds")
	}
}

func TestSettleReachesTarget(t *testing.T) {
	cfg := regulator.DefaultConfig()
	ticks, ok := Settle(cfg, 0.05, 1000)
	if !ok {
		t.Fatalf("system never settled within 0.05 in %d ticks", ticks)
	}
	if ticks <= 0 {
		t.Errorf("settle tick = %d", ticks)
	}
}

func TestSettleImpossibleTolerance(t *testing.T) {
	cfg := regulator.DefaultConfig()
	if _, ok := Settle(cfg, 0, 3); ok {
		t.Error("settled with zero tolerance in 3 ticks")
	}
}
