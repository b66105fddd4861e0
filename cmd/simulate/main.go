// Command simulate runs the regulation loop offline and prints the
// trajectory, either as a plain tick run or from a scripted JSON file.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/citygrid/homeostat/internal/regulator"
	"github.com/citygrid/homeostat/internal/replay"
)

// #region main

func main() {
	ticks := flag.Int("ticks", 100, "number of regulation ticks to run")
	every := flag.Int("every", 10, "print a trajectory row every N ticks")
	target := flag.Float64("target", 0.5, "homeostatic target activity")
	eta := flag.Float64("eta", 0.1, "correction rate")
	alpha := flag.Float64("alpha", 0.97, "accumulator smoothing factor")
	scriptPath := flag.String("script", "", "path to JSON step script (overrides --ticks)")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	cfg := regulator.DefaultConfig()
	cfg.Target = *target
	cfg.Eta = *eta
	cfg.Alpha = *alpha

	script, err := buildScript(*scriptPath, *ticks)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	results, summary, err := replay.Run(cfg, script)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *jsonOut {
		if err := printJSON(map[string]any{"steps": results, "summary": summary}); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}
	printTable(results, summary, *every)
}

// buildScript loads the step file if given, otherwise expands --ticks into
// one tick step per row so the trajectory is visible per tick.
func buildScript(path string, ticks int) ([]replay.Step, error) {
	if path == "" {
		script := make([]replay.Step, ticks)
		for i := range script {
			script[i] = replay.Step{Op: replay.OpTick}
		}
		return script, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	var script []replay.Step
	if err := json.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	return script, nil
}

// #endregion main

// #region output

func printTable(results []replay.StepResult, summary replay.Summary, every int) {
	if every <= 0 {
		every = 1
	}
	fmt.Printf("%-6s  %-10s  %-8s  %8s  %8s  %8s  %5s %5s %5s %5s\n",
		"Step", "Op", "Accepted", "Avg", "Balance", "Health", "Calm", "Over", "Emrg", "Crit")
	for i, r := range results {
		if r.Op == replay.OpTick && r.Accepted && i%every != 0 && i != len(results)-1 {
			continue
		}
		m := r.Metrics
		fmt.Printf("%-6d  %-10s  %-8v  %8.4f  %8.4f  %8.4f  %5d %5d %5d %5d\n",
			r.Index, r.Op, r.Accepted, m.AverageActivity, m.HomeostaticBalance, m.SystemHealth,
			m.CalmZones, m.OverstimulatedZones, m.EmergentZones, m.CriticalZones)
	}

	fmt.Printf("\nSummary: %d steps (%d ticks, %d influences, %d rejected, %d resets)\n",
		summary.TotalSteps, summary.Ticks, summary.Influences, summary.Rejected, summary.Resets)
	fmt.Printf("Final zones:\n")
	for _, z := range summary.Final {
		fmt.Printf("  %-14s activity %.4f  %s\n", z.Name, z.Activity, z.State)
	}
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// #endregion output
