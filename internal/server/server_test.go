package server

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/citygrid/homeostat/internal/provenance"
	"github.com/citygrid/homeostat/internal/regulator"
	"github.com/citygrid/homeostat/internal/zone"
)

// memLog collects events in memory for assertions.
type memLog struct {
	events []provenance.Event
}

func (m *memLog) Append(e provenance.Event) error {
	m.events = append(m.events, e)
	return nil
}

func newTestServer(t *testing.T) (*Server, *memLog) {
	t.Helper()
	reg, err := regulator.New(regulator.DefaultConfig())
	if err != nil {
		t.Fatalf("regulator: %v", err)
	}
	log := &memLog{}
	return New(reg, log, nil), log
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv.Handler(), http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode[map[string]any](t, rec)
	if body["status"] != "ok" {
		t.Errorf("status field = %v", body["status"])
	}
	if body["zones"].(float64) != 5 {
		t.Errorf("zones = %v, want 5", body["zones"])
	}
}

func TestZonesListing(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv.Handler(), http.MethodGet, "/api/zones", "")
	zones := decode[[]zone.Zone](t, rec)
	if len(zones) != 5 {
		t.Fatalf("zones = %d, want 5", len(zones))
	}
	if zones[0].Name != "Downtown" || zones[0].ID != 0 {
		t.Errorf("zone 0 = %+v", zones[0])
	}
	for _, z := range zones {
		if z.State != zone.Classify(z.Activity) {
			t.Errorf("zone %d state %q does not match activity %v", z.ID, z.State, z.Activity)
		}
	}
}

func TestStateSnapshot(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv.Handler(), http.MethodGet, "/api/state", "")
	snap := decode[regulator.Snapshot](t, rec)
	if len(snap.Zones) != 5 {
		t.Fatalf("zones = %d", len(snap.Zones))
	}
	if snap.TakenAt.IsZero() {
		t.Error("taken_at is zero")
	}
	want := (0.3 + 0.6 + 0.2 + 0.8 + 0.4) / 5
	if math.Abs(snap.Metrics.AverageActivity-want) > 1e-12 {
		t.Errorf("average = %v, want %v", snap.Metrics.AverageActivity, want)
	}
}

func TestInfluenceApplied(t *testing.T) {
	srv, log := newTestServer(t)
	rec := do(t, srv.Handler(), http.MethodPost, "/api/influence", `{"zone_id":0,"delta":0.2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	body := decode[struct {
		Zone zone.Zone `json:"zone"`
	}](t, rec)
	if math.Abs(body.Zone.Activity-0.5) > 1e-12 {
		t.Errorf("activity = %v, want 0.5", body.Zone.Activity)
	}
	if len(log.events) != 1 || !log.events[0].Accepted || log.events[0].Kind != provenance.KindInfluence {
		t.Errorf("event log = %+v", log.events)
	}
}

func TestInfluenceOutOfRange(t *testing.T) {
	srv, log := newTestServer(t)
	rec := do(t, srv.Handler(), http.MethodPost, "/api/influence", `{"zone_id":99,"delta":0.1}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if len(log.events) != 1 || log.events[0].Accepted {
		t.Errorf("rejection not logged: %+v", log.events)
	}
}

func TestInfluenceBadJSON(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv.Handler(), http.MethodPost, "/api/influence", `{"zone_id":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestBiocoreDelta(t *testing.T) {
	srv, log := newTestServer(t)

	// Full synergy raises activity by 1.0*0.3 - 0.15 = +0.15.
	rec := do(t, srv.Handler(), http.MethodPost, "/api/biocore", `{"zone_id":0,"synergy":1.0}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	body := decode[struct {
		Zone zone.Zone `json:"zone"`
	}](t, rec)
	if math.Abs(body.Zone.Activity-0.45) > 1e-12 {
		t.Errorf("activity = %v, want 0.45", body.Zone.Activity)
	}
	if log.events[0].Kind != provenance.KindBiocore {
		t.Errorf("kind = %q", log.events[0].Kind)
	}

	// Zero synergy damps.
	rec = do(t, srv.Handler(), http.MethodPost, "/api/biocore", `{"zone_id":0,"synergy":0}`)
	body = decode[struct {
		Zone zone.Zone `json:"zone"`
	}](t, rec)
	if math.Abs(body.Zone.Activity-0.30) > 1e-12 {
		t.Errorf("activity = %v, want 0.30", body.Zone.Activity)
	}
}

func TestBiocoreSynergyRange(t *testing.T) {
	srv, log := newTestServer(t)
	rec := do(t, srv.Handler(), http.MethodPost, "/api/biocore", `{"zone_id":0,"synergy":1.5}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if len(log.events) != 1 || log.events[0].Accepted {
		t.Errorf("rejection not logged: %+v", log.events)
	}
}

func TestResetRestoresBaseline(t *testing.T) {
	srv, log := newTestServer(t)
	do(t, srv.Handler(), http.MethodPost, "/api/influence", `{"zone_id":3,"delta":0.2}`)

	rec := do(t, srv.Handler(), http.MethodPost, "/api/reset", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	snap := decode[regulator.Snapshot](t, rec)
	for _, z := range snap.Zones {
		if math.Abs(z.Activity-0.3) > 1e-12 {
			t.Errorf("zone %d activity = %v after reset, want 0.3", z.ID, z.Activity)
		}
	}
	last := log.events[len(log.events)-1]
	if last.Kind != provenance.KindReset || last.ZoneID != -1 {
		t.Errorf("reset event = %+v", last)
	}
}

func TestChatMentionsNamedZone(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv.Handler(), http.MethodPost, "/api/chat", `{"message":"how is Downtown doing?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	body := decode[chatResponse](t, rec)
	if !strings.Contains(body.Response, "Downtown") {
		t.Errorf("response does not mention the zone: %q", body.Response)
	}
	if body.Interactions != 1 {
		t.Errorf("interactions = %d, want 1", body.Interactions)
	}
}

func TestChatEmptyMessage(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv.Handler(), http.MethodPost, "/api/chat", `{"message":"  "}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestChatCountsInteractions(t *testing.T) {
	srv, _ := newTestServer(t)
	var last chatResponse
	for range 12 {
		rec := do(t, srv.Handler(), http.MethodPost, "/api/chat", `{"message":"status please"}`)
		last = decode[chatResponse](t, rec)
	}
	if last.Interactions != 12 {
		t.Errorf("interactions = %d, want 12", last.Interactions)
	}
	if last.Stage == "" {
		t.Error("stage is empty")
	}
}

func TestStats(t *testing.T) {
	srv, _ := newTestServer(t)
	do(t, srv.Handler(), http.MethodPost, "/api/chat", `{"message":"hi"}`)
	rec := do(t, srv.Handler(), http.MethodGet, "/api/stats", "")
	body := decode[map[string]any](t, rec)
	if body["interactions"].(float64) != 1 {
		t.Errorf("interactions = %v", body["interactions"])
	}
	if _, ok := body["metrics"]; !ok {
		t.Error("metrics missing from stats")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv.Handler(), http.MethodGet, "/api/influence", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
