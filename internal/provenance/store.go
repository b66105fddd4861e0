// Package provenance keeps an append-only SQLite log of every mutation
// request the server handled: influences, biocore effects, resets, and the
// rejections among them.
package provenance

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS event_log (
	event_id    TEXT PRIMARY KEY,
	kind        TEXT NOT NULL,
	zone_id     INTEGER NOT NULL,
	delta       REAL NOT NULL,
	accepted    INTEGER NOT NULL,
	reason      TEXT,
	created_at  TEXT NOT NULL
);
`

// #endregion schema

// #region store
// Store manages the event log database.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// #endregion store

// #region append
// Append writes one event. A zero EventID gets a fresh UUID, a zero
// CreatedAt the current time.
func (s *Store) Append(e Event) error {
	if e.EventID == "" {
		e.EventID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(
		`INSERT INTO event_log (event_id, kind, zone_id, delta, accepted, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.EventID, e.Kind, e.ZoneID, e.Delta, boolToInt(e.Accepted),
		nullIfEmpty(e.Reason), e.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// #endregion append

// #region recent
// Recent returns the newest events, most recent first. The log is
// append-only, so rowid is insertion order; created_at text is not safe to
// sort on because RFC 3339 trims trailing fractional zeros.
func (s *Store) Recent(limit int) ([]Event, error) {
	rows, err := s.db.Query(
		`SELECT event_id, kind, zone_id, delta, accepted, reason, created_at
		 FROM event_log ORDER BY rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var accepted int
		var reason sql.NullString
		var createdStr string

		if err := rows.Scan(&e.EventID, &e.Kind, &e.ZoneID, &e.Delta, &accepted, &reason, &createdStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		e.Accepted = accepted != 0
		if reason.Valid {
			e.Reason = reason.String
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		events = append(events, e)
	}
	return events, rows.Err()
}

// #endregion recent

// #region helpers
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// #endregion helpers
