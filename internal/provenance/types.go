package provenance

import "time"

// #region kinds
// Event kinds recorded in the log.
const (
	KindInfluence = "influence"
	KindBiocore   = "biocore"
	KindReset     = "reset"
)

// #endregion kinds

// #region event
// Event is one row of the append-only operations log. The engine never
// reads these back; the log exists for operators and cmd/inspect.
type Event struct {
	EventID   string    `json:"event_id"`
	Kind      string    `json:"kind"`
	ZoneID    int       `json:"zone_id"` // -1 for system-wide events
	Delta     float64   `json:"delta"`
	Accepted  bool      `json:"accepted"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// #endregion event
