package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bobmcallan/heritage/internal/app"
	"github.com/bobmcallan/heritage/internal/server"
	tcommon "github.com/bobmcallan/heritage/tests/common"
)

// Env runs the full server stack in-process against a SurrealDB container.
type Env struct {
	t          *testing.T
	app        *app.App
	server     *httptest.Server
	ResultsDir string
}

// NewEnv starts an isolated environment with its own database.
func NewEnv(t *testing.T) *Env {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping end-to-end test in short mode")
	}

	sc := tcommon.StartSurrealDB(t)

	datetime := time.Now().Format("20060102-150405")
	resultsDir := filepath.Join(findProjectRoot(), "tests", "results", datetime+"-"+t.Name())
	if err := os.MkdirAll(resultsDir, 0755); err != nil {
		t.Fatalf("Failed to create results dir: %v", err)
	}

	configPath := writeConfig(t, sc.Address())
	a, err := app.NewApp(context.Background(), configPath)
	if err != nil {
		t.Fatalf("Failed to initialize app: %v", err)
	}

	env := &Env{
		t:          t,
		app:        a,
		server:     httptest.NewServer(server.NewServer(a).Handler()),
		ResultsDir: resultsDir,
	}
	t.Cleanup(env.Cleanup)
	return env
}

// writeConfig points the app at a fresh database with the price feed and
// scheduler disabled.
func writeConfig(t *testing.T, address string) string {
	t.Helper()
	db := fmt.Sprintf("e2e_%s_%d", strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()), time.Now().UnixNano()%100000)
	content := fmt.Sprintf(`environment = "test"

[storage]
address = %q
namespace = "heritage_e2e"
database = %q
username = "root"
password = "root"

[cache]
backend = "memory"
ttl = "1m"

[clients.eodhd]
api_key = ""

[scheduler]
enabled = false

[logging]
level = "warn"
outputs = ["console"]
file_path = ""
`, address, db)

	path := filepath.Join(t.TempDir(), "heritage.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

// Cleanup stops the HTTP server and closes the app.
func (e *Env) Cleanup() {
	if e == nil {
		return
	}
	if e.server != nil {
		e.server.Close()
		e.server = nil
	}
	if e.app != nil {
		e.app.Close()
		e.app = nil
	}
}

// HTTPGet issues a GET against the running server.
func (e *Env) HTTPGet(path string) (*http.Response, error) {
	return e.do(http.MethodGet, path, nil)
}

// HTTPPost issues a POST with body encoded as JSON.
func (e *Env) HTTPPost(path string, body interface{}) (*http.Response, error) {
	return e.do(http.MethodPost, path, body)
}

// HTTPDelete issues a DELETE against the running server.
func (e *Env) HTTPDelete(path string) (*http.Response, error) {
	return e.do(http.MethodDelete, path, nil)
}

func (e *Env) do(method, path string, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.server.Client().Do(req)
}

// SaveResult saves test output to the results directory
func (e *Env) SaveResult(name string, data []byte) error {
	return os.WriteFile(filepath.Join(e.ResultsDir, name), data, 0644)
}

// decode reads resp into v and saves the raw body under name.
func (e *Env) decode(resp *http.Response, name string, v interface{}) {
	e.t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		e.t.Fatalf("read response: %v", err)
	}
	if err := e.SaveResult(name+".json", body); err != nil {
		e.t.Logf("Warning: failed to save result %s: %v", name, err)
	}
	if v == nil {
		return
	}
	if err := json.Unmarshal(body, v); err != nil {
		e.t.Fatalf("decode %s: %v\nbody: %s", name, err, body)
	}
}

// findProjectRoot walks up directories to find go.mod
func findProjectRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "."
		}
		dir = parent
	}
}
