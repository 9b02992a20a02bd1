package mcpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/shaktech786/arr-suite-mcp-server/internal/config"
	"github.com/shaktech786/arr-suite-mcp-server/internal/intent"
	"github.com/shaktech786/arr-suite-mcp-server/internal/services"
	"github.com/shaktech786/arr-suite-mcp-server/internal/store"
)

func testClientSettings() config.ClientSettings {
	return config.ClientSettings{
		RequestTimeout: 2 * time.Second,
		MaxRetries:     2,
		BaseDelay:      time.Millisecond,
		Multiplier:     2,
		MaxDelay:       5 * time.Millisecond,
	}
}

func newTestServer(t *testing.T, svcs map[string]config.Service) *Server {
	t.Helper()
	cfg := &config.Config{
		Services: svcs,
		Client:   testClientSettings(),
		Backup:   config.BackupSettings{Dir: filepath.Join(t.TempDir(), "backups")},
	}
	return New(context.Background(), cfg, "test")
}

func callReq(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("result has no content")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content[0] is %T, want mcp.TextContent", res.Content[0])
	}
	return tc.Text
}

func TestNew_RegistersTools(t *testing.T) {
	s := newTestServer(t, nil)

	want := []string{
		"arr_execute",
		"arr_explain_intent",
		"arr_list_services",
		"arr_system_status",
		"arr_backup_database",
		"arr_latest_releases",
	}
	if got := s.Tools(); !reflect.DeepEqual(got, want) {
		t.Errorf("Tools() = %v, want %v", got, want)
	}
}

func TestHandleExecute_RoutesAndExecutes(t *testing.T) {
	var gotPath, gotTerm, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotTerm = r.URL.Query().Get("term")
		gotKey = r.Header.Get("X-Api-Key")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"title": "Dark", "tvdbId": 332484}]`))
	}))
	defer srv.Close()

	s := newTestServer(t, map[string]config.Service{
		"sonarr": {URL: srv.URL, APIKey: "secret", Enabled: true},
	})

	res, err := s.handleExecute(context.Background(), callReq(map[string]any{
		"text": "search for the series called 'Dark'",
	}))
	if err != nil {
		t.Fatalf("handleExecute() error = %v", err)
	}
	if res.IsError {
		t.Fatalf("handleExecute() returned error result: %s", resultText(t, res))
	}

	var out services.Result
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if out.Product != "sonarr" {
		t.Errorf("Product = %q, want %q", out.Product, "sonarr")
	}
	if out.Status != http.StatusOK {
		t.Errorf("Status = %d, want %d", out.Status, http.StatusOK)
	}
	if gotPath != "/api/v3/series/lookup" {
		t.Errorf("backend path = %q, want %q", gotPath, "/api/v3/series/lookup")
	}
	if gotTerm != "Dark" {
		t.Errorf("term = %q, want %q", gotTerm, "Dark")
	}
	if gotKey != "secret" {
		t.Errorf("X-Api-Key = %q, want %q", gotKey, "secret")
	}
}

func TestHandleExecute_DryRunSkipsNetwork(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	s := newTestServer(t, map[string]config.Service{
		"sonarr": {URL: srv.URL, APIKey: "secret", Enabled: true},
	})

	res, err := s.handleExecute(context.Background(), callReq(map[string]any{
		"text":    "search for the series called 'The Expanse'",
		"dry_run": true,
	}))
	if err != nil {
		t.Fatalf("handleExecute() error = %v", err)
	}
	if res.IsError {
		t.Fatalf("handleExecute() returned error result: %s", resultText(t, res))
	}

	var plan services.Plan
	if err := json.Unmarshal([]byte(resultText(t, res)), &plan); err != nil {
		t.Fatalf("unmarshal plan: %v", err)
	}
	if plan.Method != http.MethodGet {
		t.Errorf("Method = %q, want %q", plan.Method, http.MethodGet)
	}
	if plan.Path != "/api/v3/series/lookup" {
		t.Errorf("Path = %q, want %q", plan.Path, "/api/v3/series/lookup")
	}
	if got := plan.Query.Get("term"); got != "The Expanse" {
		t.Errorf("term = %q, want %q", got, "The Expanse")
	}
	if hits.Load() != 0 {
		t.Errorf("backend hits = %d, want 0", hits.Load())
	}
}

func TestHandleExecute_UnroutableInput(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	s := newTestServer(t, map[string]config.Service{
		"sonarr": {URL: srv.URL, APIKey: "secret", Enabled: true},
	})

	res, err := s.handleExecute(context.Background(), callReq(map[string]any{
		"text": "hello there",
	}))
	if err != nil {
		t.Fatalf("handleExecute() error = %v", err)
	}
	if !res.IsError {
		t.Fatal("expected an error result for unroutable input")
	}
	if text := resultText(t, res); !strings.Contains(text, "No service matched confidently") {
		t.Errorf("result %q does not carry the routing guidance", text)
	}
	if hits.Load() != 0 {
		t.Errorf("backend hits = %d, want 0", hits.Load())
	}
}

func TestHandleExecute_DisabledService(t *testing.T) {
	s := newTestServer(t, map[string]config.Service{
		"radarr": {URL: "http://localhost:7878", APIKey: "secret", Enabled: false},
	})

	res, err := s.handleExecute(context.Background(), callReq(map[string]any{
		"text": "search for the movie called 'Dune'",
	}))
	if err != nil {
		t.Fatalf("handleExecute() error = %v", err)
	}
	if !res.IsError {
		t.Fatal("expected an error result for a disabled service")
	}
	if text := resultText(t, res); !strings.Contains(text, "disabled") {
		t.Errorf("result %q does not mention the disabled service", text)
	}
}

func TestHandleExecute_MissingArgument(t *testing.T) {
	s := newTestServer(t, nil)

	res, err := s.handleExecute(context.Background(), callReq(map[string]any{}))
	if err != nil {
		t.Fatalf("handleExecute() error = %v", err)
	}
	if !res.IsError {
		t.Fatal("expected an error result without the text argument")
	}
}

func TestHandleExplain_ReportsRouting(t *testing.T) {
	s := newTestServer(t, nil)

	res, err := s.handleExplain(context.Background(), callReq(map[string]any{
		"text": "search for the series called 'Dark'",
	}))
	if err != nil {
		t.Fatalf("handleExplain() error = %v", err)
	}
	if res.IsError {
		t.Fatalf("handleExplain() returned error result: %s", resultText(t, res))
	}

	text := resultText(t, res)
	for _, want := range []string{"Service: series_manager", "Operation: search", "title: Dark"} {
		if !strings.Contains(text, want) {
			t.Errorf("explanation missing %q:\n%s", want, text)
		}
	}
}

func TestHandleListServices(t *testing.T) {
	s := newTestServer(t, map[string]config.Service{
		"sonarr": {URL: "http://localhost:8989", APIKey: "secret", Enabled: true},
		"radarr": {URL: "http://localhost:7878", Enabled: false},
	})

	res, err := s.handleListServices(context.Background(), callReq(nil))
	if err != nil {
		t.Fatalf("handleListServices() error = %v", err)
	}

	var out []services.Summary
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatalf("unmarshal summaries: %v", err)
	}
	if len(out) != 6 {
		t.Fatalf("len(summaries) = %d, want 6", len(out))
	}
	if out[0].Service != intent.ServiceSeries || !out[0].Enabled {
		t.Errorf("first summary = %+v, want enabled %s", out[0], intent.ServiceSeries)
	}
	for _, sum := range out {
		if sum.Service == intent.ServiceMovies && sum.Enabled {
			t.Errorf("movie manager listed as enabled: %+v", sum)
		}
	}
}

func TestHandleStatus_ProbesBackends(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"version": "4.0.10"}`))
	}))
	defer srv.Close()

	s := newTestServer(t, map[string]config.Service{
		"sonarr": {URL: srv.URL, APIKey: "secret", Enabled: true},
	})

	res, err := s.handleStatus(context.Background(), callReq(nil))
	if err != nil {
		t.Fatalf("handleStatus() error = %v", err)
	}

	var out []services.Status
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatalf("unmarshal statuses: %v", err)
	}
	for _, st := range out {
		switch st.Product {
		case "sonarr":
			if !st.Reachable || st.Version != "4.0.10" {
				t.Errorf("sonarr status = %+v, want reachable version 4.0.10", st)
			}
		default:
			if st.Error != "disabled" {
				t.Errorf("%s status error = %q, want %q", st.Product, st.Error, "disabled")
			}
		}
	}
}

func createDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sonarr.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	defer db.Close()
	if _, err := db.Exec(`CREATE TABLE series (id INTEGER PRIMARY KEY, title TEXT)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO series (title) VALUES ('Dark')`); err != nil {
		t.Fatalf("insert row: %v", err)
	}
	return path
}

func TestHandleBackup_SnapshotsDatabase(t *testing.T) {
	dbPath := createDB(t)
	s := newTestServer(t, map[string]config.Service{
		"sonarr": {URL: "http://localhost:8989", Enabled: true, DBPath: dbPath},
	})

	res, err := s.handleBackup(context.Background(), callReq(map[string]any{
		"product": "sonarr",
	}))
	if err != nil {
		t.Fatalf("handleBackup() error = %v", err)
	}
	if res.IsError {
		t.Fatalf("handleBackup() returned error result: %s", resultText(t, res))
	}

	var info store.BackupInfo
	if err := json.Unmarshal([]byte(resultText(t, res)), &info); err != nil {
		t.Fatalf("unmarshal backup info: %v", err)
	}
	if info.Bytes == 0 {
		t.Error("backup reported zero bytes")
	}
	if filepath.Dir(info.Path) != s.cfg.Backup.Dir {
		t.Errorf("backup landed in %q, want %q", filepath.Dir(info.Path), s.cfg.Backup.Dir)
	}
	if _, err := os.Stat(info.Path); err != nil {
		t.Errorf("backup file missing: %v", err)
	}
}

func TestHandleBackup_UnknownProduct(t *testing.T) {
	s := newTestServer(t, map[string]config.Service{
		"sonarr": {URL: "http://localhost:8989", Enabled: true},
	})

	res, err := s.handleBackup(context.Background(), callReq(map[string]any{
		"product": "jellyfin",
	}))
	if err != nil {
		t.Fatalf("handleBackup() error = %v", err)
	}
	if !res.IsError {
		t.Fatal("expected an error result for an unknown product")
	}
	if text := resultText(t, res); !strings.Contains(text, "unknown product") {
		t.Errorf("result %q does not name the problem", text)
	}
}

func TestHandleBackup_NoConfiguredPath(t *testing.T) {
	s := newTestServer(t, map[string]config.Service{
		"radarr": {URL: "http://localhost:7878", Enabled: true},
	})

	res, err := s.handleBackup(context.Background(), callReq(map[string]any{
		"product": "radarr",
	}))
	if err != nil {
		t.Fatalf("handleBackup() error = %v", err)
	}
	if !res.IsError {
		t.Fatal("expected an error result without a database path")
	}
	if text := resultText(t, res); !strings.Contains(text, "db_path") {
		t.Errorf("result %q does not point at the missing setting", text)
	}
}

func TestHandleReleases_UnknownProduct(t *testing.T) {
	s := newTestServer(t, nil)

	res, err := s.handleReleases(context.Background(), callReq(map[string]any{
		"product": "plex",
	}))
	if err != nil {
		t.Fatalf("handleReleases() error = %v", err)
	}
	if !res.IsError {
		t.Fatal("expected an error result for a product without an upstream repository")
	}
	if text := resultText(t, res); !strings.Contains(text, "no upstream repository") {
		t.Errorf("result %q does not name the problem", text)
	}
}
