package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hazyhaar/crowdwatch/internal/store"
	_ "modernc.org/sqlite"
)

func testSources() []Source {
	return []Source{
		{Name: "luzanky", URL: "https://bazenyluzanky.starez.cz/", Strategy: "pool", Mode: "browser", Enabled: true},
		{Name: "hangar", URL: "https://hangarbrno.cz/en/home/", Strategy: "gym", Mode: "browser", Enabled: true},
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// seededStore holds three luzanky attempts: ok, error, ok (newest).
func seededStore(t *testing.T) *store.Store {
	t.Helper()
	st := store.OpenMemory(t)
	ctx := context.Background()
	runs := []*store.Run{
		{Source: "luzanky", Status: "ok", Occupancy: "57/135", DurationMs: 1200, StartedAt: 1000},
		{Source: "luzanky", Status: "error", Error: "navigate: timeout", DurationMs: 30000, StartedAt: 2000},
		{Source: "luzanky", Status: "ok", Occupancy: "61/135", DurationMs: 900, StartedAt: 3000},
	}
	for _, r := range runs {
		if err := st.InsertRun(ctx, r); err != nil {
			t.Fatal(err)
		}
	}
	return st
}

func doRequest(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	srv := NewServer(Config{Sources: testSources(), Logger: quietLogger()})
	rec := doRequest(t, srv.Router(), http.MethodGet, "/healthz")

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type: got %q", ct)
	}
	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp["status"] != "ok" {
		t.Fatalf("status: got %q", resp["status"])
	}
}

func TestListSources(t *testing.T) {
	// WHAT: GET /v1/sources merges configuration with the last recorded run.
	// WHY: the dashboard needs one call to show what is watched and how the
	// last attempt went, without joining two endpoints client-side.
	srv := NewServer(Config{Sources: testSources(), History: seededStore(t), Logger: quietLogger()})
	rec := doRequest(t, srv.Router(), http.MethodGet, "/v1/sources")

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, body: %s", rec.Code, rec.Body.String())
	}
	var resp []struct {
		Name    string     `json:"name"`
		URL     string     `json:"url"`
		Runs    int        `json:"runs"`
		LastRun *store.Run `json:"last_run"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(resp))
	}
	if resp[0].Name != "luzanky" {
		t.Fatalf("first source: got %q", resp[0].Name)
	}
	if resp[0].Runs != 3 {
		t.Fatalf("luzanky: got %d runs, want 3", resp[0].Runs)
	}
	if resp[0].LastRun == nil {
		t.Fatal("luzanky: missing last_run")
	}
	if resp[0].LastRun.StartedAt != 3000 {
		t.Fatalf("luzanky last_run: got started_at %d, want 3000", resp[0].LastRun.StartedAt)
	}
	if resp[1].Runs != 0 {
		t.Fatalf("hangar: got %d runs, want 0", resp[1].Runs)
	}
	if resp[1].LastRun != nil {
		t.Fatalf("hangar has no runs, got last_run %+v", resp[1].LastRun)
	}
}

func TestListSources_NoHistory(t *testing.T) {
	srv := NewServer(Config{Sources: testSources(), Logger: quietLogger()})
	rec := doRequest(t, srv.Router(), http.MethodGet, "/v1/sources")

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d", rec.Code)
	}
	var resp []map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(resp))
	}
	if _, ok := resp[0]["last_run"]; ok {
		t.Fatal("last_run should be omitted without history")
	}
}

func TestRuns(t *testing.T) {
	srv := NewServer(Config{Sources: testSources(), History: seededStore(t), Logger: quietLogger()})
	rec := doRequest(t, srv.Router(), http.MethodGet, "/v1/sources/luzanky/runs?limit=2")

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, body: %s", rec.Code, rec.Body.String())
	}
	var runs []*store.Run
	if err := json.NewDecoder(rec.Body).Decode(&runs); err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].StartedAt != 3000 || runs[1].StartedAt != 2000 {
		t.Fatalf("runs not newest first: %d, %d", runs[0].StartedAt, runs[1].StartedAt)
	}
}

func TestRuns_UnknownSource(t *testing.T) {
	srv := NewServer(Config{Sources: testSources(), History: seededStore(t), Logger: quietLogger()})
	rec := doRequest(t, srv.Router(), http.MethodGet, "/v1/sources/sauna/runs")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("got status %d", rec.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp["error"] == "" {
		t.Fatal("expected an error message")
	}
}

func TestRuns_NoHistory(t *testing.T) {
	// WHAT: with run history disabled, runs degrades to an empty list.
	// WHY: a CSV-only deployment still wants the API up for healthz and
	// trigger, so missing history must not 500.
	srv := NewServer(Config{Sources: testSources(), Logger: quietLogger()})
	rec := doRequest(t, srv.Router(), http.MethodGet, "/v1/sources/luzanky/runs")

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d", rec.Code)
	}
	var runs []*store.Run
	if err := json.NewDecoder(rec.Body).Decode(&runs); err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Fatalf("expected no runs, got %d", len(runs))
	}
}

func TestLatest(t *testing.T) {
	srv := NewServer(Config{Sources: testSources(), History: seededStore(t), Logger: quietLogger()})
	rec := doRequest(t, srv.Router(), http.MethodGet, "/v1/sources/luzanky/latest")

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, body: %s", rec.Code, rec.Body.String())
	}
	var run store.Run
	if err := json.NewDecoder(rec.Body).Decode(&run); err != nil {
		t.Fatal(err)
	}
	if run.Occupancy != "61/135" {
		t.Fatalf("occupancy: got %q", run.Occupancy)
	}
	if run.Status != "ok" {
		t.Fatalf("status: got %q", run.Status)
	}
}

func TestLatest_NoObservations(t *testing.T) {
	srv := NewServer(Config{Sources: testSources(), History: seededStore(t), Logger: quietLogger()})
	rec := doRequest(t, srv.Router(), http.MethodGet, "/v1/sources/hangar/latest")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("got status %d", rec.Code)
	}
}

func TestLatest_NoHistory(t *testing.T) {
	srv := NewServer(Config{Sources: testSources(), Logger: quietLogger()})
	rec := doRequest(t, srv.Router(), http.MethodGet, "/v1/sources/luzanky/latest")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("got status %d", rec.Code)
	}
}

func TestTriggerRun(t *testing.T) {
	var triggered string
	srv := NewServer(Config{
		Sources: testSources(),
		Trigger: func(name string) bool { triggered = name; return true },
		Logger:  quietLogger(),
	})
	rec := doRequest(t, srv.Router(), http.MethodPost, "/v1/sources/hangar/run")

	if rec.Code != http.StatusAccepted {
		t.Fatalf("got status %d, body: %s", rec.Code, rec.Body.String())
	}
	if triggered != "hangar" {
		t.Fatalf("trigger: got %q", triggered)
	}
	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp["status"] != "queued" {
		t.Fatalf("status: got %q", resp["status"])
	}
}

func TestTriggerRun_QueueFull(t *testing.T) {
	srv := NewServer(Config{
		Sources: testSources(),
		Trigger: func(string) bool { return false },
		Logger:  quietLogger(),
	})
	rec := doRequest(t, srv.Router(), http.MethodPost, "/v1/sources/hangar/run")

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("got status %d", rec.Code)
	}
}

func TestTriggerRun_UnknownSource(t *testing.T) {
	srv := NewServer(Config{
		Sources: testSources(),
		Trigger: func(string) bool { return true },
		Logger:  quietLogger(),
	})
	rec := doRequest(t, srv.Router(), http.MethodPost, "/v1/sources/sauna/run")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("got status %d", rec.Code)
	}
}

func TestTriggerRun_DisabledSource(t *testing.T) {
	// WHAT: POST run on a disabled source answers 409, not 503.
	// WHY: the daemon never runs disabled sources, so "queue full" would
	// send the operator chasing the wrong problem.
	var called bool
	sources := append(testSources(),
		Source{Name: "wellness", URL: "https://example.test/wellness", Strategy: "pool", Mode: "browser"})
	srv := NewServer(Config{
		Sources: sources,
		Trigger: func(string) bool { called = true; return true },
		Logger:  quietLogger(),
	})
	rec := doRequest(t, srv.Router(), http.MethodPost, "/v1/sources/wellness/run")

	if rec.Code != http.StatusConflict {
		t.Fatalf("got status %d, body: %s", rec.Code, rec.Body.String())
	}
	if called {
		t.Error("disabled source must not reach the trigger queue")
	}
	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp["error"] == "" {
		t.Fatal("expected an error message")
	}
}

func TestTriggerRun_NoDaemon(t *testing.T) {
	srv := NewServer(Config{Sources: testSources(), Logger: quietLogger()})
	rec := doRequest(t, srv.Router(), http.MethodPost, "/v1/sources/hangar/run")

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("got status %d", rec.Code)
	}
}
