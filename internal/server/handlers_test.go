package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/datawizard/internal/config"
	"github.com/hyperjump/datawizard/internal/history"
	"github.com/hyperjump/datawizard/internal/models"
	"go.uber.org/zap"
)

type mockRunner struct {
	got    []models.RunRequest
	result *models.RunResult
	err    error
}

func (m *mockRunner) Run(_ context.Context, req models.RunRequest) (*models.RunResult, error) {
	m.got = append(m.got, req)
	if m.result != nil {
		return m.result, m.err
	}
	return &models.RunResult{ID: "run-1", Request: req, Outcomes: []models.Outcome{models.OK(models.StageWriteText)}}, m.err
}

func newTestStore(t *testing.T) (*history.SQLiteStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.NewSQLiteStore(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store, path
}

func newTestServer(runner Runner, store history.Store, dbPath string) *Server {
	return NewServer(runner, store, dbPath, &config.ServerConfig{Port: 8080}, zap.NewNop())
}

func do(t *testing.T, h http.Handler, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	r := httptest.NewRequest(method, target, &buf)
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestHandleRun(t *testing.T) {
	runner := &mockRunner{}
	srv := newTestServer(runner, nil, "")

	w := do(t, srv.Handler(), http.MethodPost, "/api/v1/runs", map[string]string{
		"source": "none", "output_path": "out.txt", "instruction": "halo", "format": "TXT", "mode": "prompt-only",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	if len(runner.got) != 1 || runner.got[0].Format != models.FormatText {
		t.Errorf("runner got %+v", runner.got)
	}
	var out map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out["id"] != "run-1" || out["status"] != "ok" {
		t.Errorf("response: got %v", out)
	}
}

func TestHandleRun_BadRequest(t *testing.T) {
	tests := []struct {
		name string
		body map[string]string
		want string
	}{
		{"unknown format", map[string]string{"source": "none", "output_path": "o.txt", "format": "pdf", "mode": "file"}, "unknown output format"},
		{"unknown mode", map[string]string{"source": "none", "output_path": "o.txt", "format": "txt", "mode": "scan"}, "unknown mode"},
		{"missing output path", map[string]string{"source": "none", "format": "txt", "mode": "file"}, "output path cannot be empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &mockRunner{}
			w := do(t, newTestServer(runner, nil, "").Handler(), http.MethodPost, "/api/v1/runs", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status: got %d, want 400", w.Code)
			}
			if !strings.Contains(w.Body.String(), tt.want) {
				t.Errorf("body %q does not mention %q", w.Body.String(), tt.want)
			}
			if len(runner.got) != 0 {
				t.Error("runner should not be called for an invalid request")
			}
		})
	}
}

func TestHandleRun_InvalidBody(t *testing.T) {
	srv := newTestServer(&mockRunner{}, nil, "")
	r := httptest.NewRequest(http.MethodPost, "/api/v1/runs", strings.NewReader("{"))
	w := httptest.NewRecorder()
	srv.handleRun(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", w.Code)
	}
}

func TestHandleRun_Fatal(t *testing.T) {
	runner := &mockRunner{
		result: &models.RunResult{ID: "run-2", Outcomes: []models.Outcome{models.Fatal(models.StageWriteText, "permission denied")}},
		err:    errors.New("permission denied"),
	}
	w := do(t, newTestServer(runner, nil, "").Handler(), http.MethodPost, "/api/v1/runs", map[string]string{
		"source": "none", "output_path": "/ro/out.txt", "format": "txt", "mode": "prompt-only",
	})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want 500", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"fatal"`) {
		t.Errorf("body: %s", w.Body.String())
	}
}

func TestHandleHistory(t *testing.T) {
	store, dbPath := newTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		rec := &models.HistoryRecord{ID: id, SourcePath: id + ".txt", InputKind: models.KindText, Format: models.FormatText, Mode: models.ModeFile}
		if err := store.CreateRun(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}
	h := newTestServer(&mockRunner{}, store, dbPath).Handler()

	w := do(t, h, http.MethodGet, "/api/v1/history?limit=2", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out struct {
		Runs []models.HistoryRecord `json:"runs"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Runs) != 2 {
		t.Errorf("runs: got %d, want 2", len(out.Runs))
	}

	if w := do(t, h, http.MethodGet, "/api/v1/history?limit=abc", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad limit: got %d, want 400", w.Code)
	}
}

func TestHandleGetRun(t *testing.T) {
	store, dbPath := newTestStore(t)
	rec := &models.HistoryRecord{ID: "known", SourcePath: "a.pdf", InputKind: models.KindPDF, Format: models.FormatWord, Mode: models.ModeOCR}
	if err := store.CreateRun(context.Background(), rec); err != nil {
		t.Fatal(err)
	}
	h := newTestServer(&mockRunner{}, store, dbPath).Handler()

	if w := do(t, h, http.MethodGet, "/api/v1/runs/known", nil); w.Code != http.StatusOK {
		t.Errorf("known run: got %d", w.Code)
	}
	if w := do(t, h, http.MethodGet, "/api/v1/runs/missing", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing run: got %d, want 404", w.Code)
	}
}

func TestHandleStats(t *testing.T) {
	store, dbPath := newTestStore(t)
	ctx := context.Background()
	recs := []*models.HistoryRecord{
		{ID: "1", InputKind: models.KindPDF, Format: models.FormatText, Mode: models.ModeFile},
		{ID: "2", InputKind: models.KindPDF, Format: models.FormatText, Mode: models.ModeOCR},
		{ID: "3", InputKind: models.KindNone, Format: models.FormatWord, Mode: models.ModePromptOnly},
	}
	for _, rec := range recs {
		if err := store.CreateRun(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}
	w := do(t, newTestServer(&mockRunner{}, store, dbPath).Handler(), http.MethodGet, "/api/v1/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out struct {
		Runs          int64              `json:"runs"`
		ByKind        []models.KindCount `json:"by_kind"`
		DatabaseBytes int64              `json:"database_bytes"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Runs != 3 {
		t.Errorf("runs: got %d", out.Runs)
	}
	if len(out.ByKind) != 2 || out.ByKind[0].Kind != models.KindPDF || out.ByKind[0].Count != 2 {
		t.Errorf("by_kind: got %+v", out.ByKind)
	}
	if out.DatabaseBytes <= 0 {
		t.Errorf("database_bytes: got %d", out.DatabaseBytes)
	}
}

func TestHistoryEndpoints_NotEnabled(t *testing.T) {
	h := newTestServer(&mockRunner{}, nil, "").Handler()
	for _, target := range []string{"/api/v1/history", "/api/v1/stats", "/api/v1/runs/x"} {
		if w := do(t, h, http.MethodGet, target, nil); w.Code != http.StatusNotImplemented {
			t.Errorf("%s: got %d, want 501", target, w.Code)
		}
	}
}

func TestHandleHealth(t *testing.T) {
	w := do(t, newTestServer(&mockRunner{}, nil, "").Handler(), http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("health: %d %s", w.Code, w.Body.String())
	}
}

func TestHandler_CORS(t *testing.T) {
	cfg := &config.ServerConfig{Port: 8080, CORSOrigins: []string{"http://localhost:3000"}}
	h := NewServer(&mockRunner{}, nil, "", cfg, zap.NewNop()).Handler()

	r := httptest.NewRequest(http.MethodOptions, "/api/v1/runs", nil)
	r.Header.Set("Origin", "http://localhost:3000")
	r.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("allow origin = %q", got)
	}

	r = httptest.NewRequest(http.MethodGet, "/health", nil)
	r.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unexpected allow origin %q", got)
	}
}
