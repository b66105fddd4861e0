// Package server exposes the regulation engine over HTTP with a small
// JSON API for reading snapshots and applying external influence.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/citygrid/homeostat/internal/persona"
	"github.com/citygrid/homeostat/internal/provenance"
	"github.com/citygrid/homeostat/internal/regulator"
	"github.com/citygrid/homeostat/internal/zone"
)

// #region types

// EventLog receives a record of every mutation request, accepted or not.
type EventLog interface {
	Append(provenance.Event) error
}

// Server routes HTTP requests to a shared regulator. All mutating
// endpoints are logged to the event log, including rejections.
type Server struct {
	reg          *regulator.Regulator
	events       EventLog
	log          *slog.Logger
	startedAt    time.Time
	interactions atomic.Int64
}

type influenceRequest struct {
	ZoneID int     `json:"zone_id"`
	Delta  float64 `json:"delta"`
}

type biocoreRequest struct {
	ZoneID  int     `json:"zone_id"`
	Synergy float64 `json:"synergy"`
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Response     string        `json:"response"`
	Stage        persona.Stage `json:"stage"`
	Interactions int64         `json:"interactions"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Biocore requests carry a synergy reading in [0,1]; the applied delta is
// positive only above the damping threshold.
const (
	biocoreGain    = 0.3
	biocoreDamping = 0.15
)

// #endregion types

// #region server

// New builds a Server over reg. events and log may be nil.
func New(reg *regulator.Regulator, events EventLog, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Server{
		reg:       reg,
		events:    events,
		log:       log,
		startedAt: time.Now(),
	}
}

// Handler returns the route table as an http.Handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/zones", s.handleZones)
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("POST /api/influence", s.handleInfluence)
	mux.HandleFunc("POST /api/biocore", s.handleBiocore)
	mux.HandleFunc("POST /api/reset", s.handleReset)
	mux.HandleFunc("POST /api/chat", s.handleChat)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"uptime_seconds": time.Since(s.startedAt).Seconds(),
		"zones":          s.reg.ZoneCount(),
	})
}

func (s *Server) handleZones(w http.ResponseWriter, r *http.Request) {
	snap := s.reg.Snapshot()
	writeJSON(w, http.StatusOK, snap.Zones)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.reg.Snapshot())
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snap := s.reg.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"metrics":        snap.Metrics,
		"interactions":   s.interactions.Load(),
		"uptime_seconds": time.Since(s.startedAt).Seconds(),
		"taken_at":       snap.TakenAt,
	})
}

func (s *Server) handleInfluence(w http.ResponseWriter, r *http.Request) {
	var req influenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json: " + err.Error()})
		return
	}
	s.applyDelta(w, provenance.KindInfluence, req.ZoneID, req.Delta)
}

func (s *Server) handleBiocore(w http.ResponseWriter, r *http.Request) {
	var req biocoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json: " + err.Error()})
		return
	}
	if math.IsNaN(req.Synergy) || math.IsInf(req.Synergy, 0) || req.Synergy < 0 || req.Synergy > 1 {
		s.record(provenance.KindBiocore, req.ZoneID, req.Synergy, false, "synergy outside [0,1]")
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "synergy must be in [0,1]"})
		return
	}
	delta := req.Synergy*biocoreGain - biocoreDamping
	s.applyDelta(w, provenance.KindBiocore, req.ZoneID, delta)
}

// applyDelta pushes a delta through the regulator and writes the outcome,
// mapping out-of-range zone ids to 404 and bad deltas to 400.
func (s *Server) applyDelta(w http.ResponseWriter, kind string, zoneID int, delta float64) {
	err := s.reg.ApplyInfluence(zoneID, delta)
	switch {
	case errors.Is(err, regulator.ErrZoneOutOfRange):
		s.record(kind, zoneID, delta, false, err.Error())
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	case errors.Is(err, regulator.ErrNonFiniteDelta):
		s.record(kind, zoneID, delta, false, err.Error())
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	case err != nil:
		s.record(kind, zoneID, delta, false, err.Error())
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	s.record(kind, zoneID, delta, true, "")
	snap := s.reg.Snapshot()
	z := snap.Zones[zoneID]
	s.log.Info("influence applied", "kind", kind, "zone", z.Name, "delta", delta, "activity", z.Activity, "state", z.State)
	writeJSON(w, http.StatusOK, map[string]any{
		"zone":    z,
		"metrics": snap.Metrics,
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.reg.Reset()
	s.record(provenance.KindReset, -1, 0, true, "")
	s.log.Warn("emergency reset", "zones", s.reg.ZoneCount())
	writeJSON(w, http.StatusOK, s.reg.Snapshot())
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "message is empty"})
		return
	}

	n := s.interactions.Add(1)
	snap := s.reg.Snapshot()
	focus := focusZone(snap.Zones, req.Message)
	ctx := persona.ZoneContext{
		ZoneName:        focus.Name,
		Activity:        focus.Activity,
		State:           focus.State,
		AverageActivity: snap.Metrics.AverageActivity,
		SystemHealth:    snap.Metrics.SystemHealth,
	}
	writeJSON(w, http.StatusOK, chatResponse{
		Response:     persona.Respond(req.Message, int(n), ctx),
		Stage:        persona.StageFor(int(n)),
		Interactions: n,
	})
}

// focusZone picks the zone named in the message, or failing that the zone
// furthest from its target.
func focusZone(zones []zone.Zone, message string) zone.Zone {
	lower := strings.ToLower(message)
	for _, z := range zones {
		if strings.Contains(lower, strings.ToLower(z.Name)) {
			return z
		}
	}
	focus := zones[0]
	worst := math.Abs(focus.Activity - focus.Target)
	for _, z := range zones[1:] {
		if d := math.Abs(z.Activity - z.Target); d > worst {
			worst = d
			focus = z
		}
	}
	return focus
}

func (s *Server) record(kind string, zoneID int, delta float64, accepted bool, reason string) {
	if s.events == nil {
		return
	}
	err := s.events.Append(provenance.Event{
		Kind:     kind,
		ZoneID:   zoneID,
		Delta:    delta,
		Accepted: accepted,
		Reason:   reason,
	})
	if err != nil {
		s.log.Error("event log append failed", "kind", kind, "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already out; an encode failure has nowhere to go.
	_ = json.NewEncoder(w).Encode(v)
}

// #endregion server
