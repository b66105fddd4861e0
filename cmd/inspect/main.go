// Command inspect reads a homeostat event log database and prints the
// recorded influence history.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/citygrid/homeostat/internal/provenance"
	"github.com/citygrid/homeostat/internal/zone"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to homeostat.db")
	last := flag.Int("last", 20, "show N most recent events")
	kind := flag.String("kind", "", "filter to one event kind (influence, biocore, reset)")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/homeostat.db [--last N] [--kind name] [--json]")
		os.Exit(2)
	}

	store, err := provenance.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := runListMode(store, *last, *kind, *jsonOut); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

func runListMode(store *provenance.Store, last int, kindFilter string, jsonOut bool) error {
	events, err := store.Recent(last)
	if err != nil {
		return err
	}
	if kindFilter != "" {
		filtered := events[:0]
		for _, e := range events {
			if e.Kind == kindFilter {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}
	if len(events) == 0 {
		fmt.Fprintln(os.Stderr, "no events found")
		return nil
	}

	// Store returns DESC, reverse for chronological reading.
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}

	if jsonOut {
		return printJSON(events)
	}
	printTable(events)
	return nil
}

func printTable(events []provenance.Event) {
	fmt.Printf("%-10s  %-10s  %-14s  %8s  %-8s  %-24s  %s\n",
		"Event", "Kind", "Zone", "Delta", "Accepted", "Time", "Reason")
	for _, e := range events {
		fmt.Printf("%-10s  %-10s  %-14s  %8.4f  %-8v  %-24s  %s\n",
			shortID(e.EventID), e.Kind, zoneLabel(e.ZoneID), e.Delta, e.Accepted,
			e.CreatedAt.Format("2006-01-02T15:04:05Z"), e.Reason)
	}
}

func zoneLabel(id int) string {
	if id < 0 {
		return "system"
	}
	if id < len(zone.DefaultNames) {
		return zone.DefaultNames[id]
	}
	return fmt.Sprintf("zone-%d", id)
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion list-mode
