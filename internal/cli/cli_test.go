package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/imartinezt/logistica-front/pkg/config"
	apperrors "github.com/imartinezt/logistica-front/pkg/errors"
	"github.com/imartinezt/logistica-front/pkg/session"
)

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "pkg", "normalize", "testdata", name))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return data
}

// isolate keeps the user's config, dotenv and LOGISTICA_* variables out of
// the test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, k := range []string{config.EnvBaseURL, config.EnvTimeout, config.EnvRedisAddr, config.EnvListen} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

// runCLI executes args against a fresh CLI configured by the given TOML and
// returns what the command wrote to stdout.
func runCLI(t *testing.T, configTOML string, args ...string) (string, error) {
	t.Helper()
	isolate(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(configTOML), 0644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	c := New(&bytes.Buffer{}, log.InfoLevel)
	c.out = &out
	root := c.RootCommand()
	root.SetArgs(append([]string{"--config", path, "--env-file", filepath.Join(dir, "missing.env")}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func fileCacheTOML(t *testing.T, apiURL string) string {
	return fmt.Sprintf("[api]\nbase_url = %q\n\n[cache]\nbackend = \"file\"\ndir = %q\n", apiURL, t.TempDir())
}

// predictionServer answers every prediction with body and records the last
// request payload.
func predictionServer(t *testing.T, status int, body []byte) (*httptest.Server, *map[string]any) {
	t.Helper()
	got := map[string]any{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
	t.Cleanup(ts.Close)
	return ts, &got
}

func TestPredictJSON(t *testing.T) {
	ts, got := predictionServer(t, http.StatusOK, loadFixture(t, "nested.json"))

	out, err := runCLI(t, fileCacheTOML(t, ts.URL), "predict", "--cp", "06600", "--sku", "LIV-004", "--qty", "2", "--json")
	if err != nil {
		t.Fatalf("predict: %v", err)
	}

	if (*got)["codigo_postal"] != "06600" || (*got)["cantidad"] != float64(2) {
		t.Errorf("payload = %v", *got)
	}

	var view session.View
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("output is not a view: %v\n%s", err, out)
	}
	if view.Degraded() || len(view.Insights) == 0 {
		t.Errorf("view degraded = %v, insights = %d", view.Degraded(), len(view.Insights))
	}
}

func TestPredictUsesConfigDefaults(t *testing.T) {
	ts, got := predictionServer(t, http.StatusOK, loadFixture(t, "flat.json"))
	cfg := fileCacheTOML(t, ts.URL) + "\n[defaults]\npostal_code = \"11000\"\nproduct_id = \"LIV-010\"\nquantity = 5\n"

	if _, err := runCLI(t, cfg, "predict", "--json"); err != nil {
		t.Fatalf("predict: %v", err)
	}
	if (*got)["codigo_postal"] != "11000" || (*got)["sku_id"] != "LIV-010" || (*got)["cantidad"] != float64(5) {
		t.Errorf("payload = %v", *got)
	}
}

func TestPredictSaveRaw(t *testing.T) {
	raw := loadFixture(t, "nested_hub.json")
	ts, _ := predictionServer(t, http.StatusOK, raw)
	saved := filepath.Join(t.TempDir(), "result.json")

	if _, err := runCLI(t, fileCacheTOML(t, ts.URL), "predict", "--json", "--save-raw", saved); err != nil {
		t.Fatalf("predict: %v", err)
	}
	data, err := os.ReadFile(saved)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, raw) {
		t.Error("saved response differs from the service response")
	}
}

func TestPredictErrors(t *testing.T) {
	ts, _ := predictionServer(t, http.StatusInternalServerError, []byte(`{"detail":"boom"}`))

	tests := []struct {
		name string
		args []string
		code apperrors.Code
	}{
		{"service error", []string{"predict", "--json"}, apperrors.ErrCodeNetwork},
		{"invalid postal code", []string{"predict", "--json", "--cp", "12"}, apperrors.ErrCodeInvalidInput},
		{"invalid quantity", []string{"predict", "--json", "--qty", "0"}, apperrors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCLI(t, fileCacheTOML(t, ts.URL), tt.args...)
			if !apperrors.Is(err, tt.code) {
				t.Errorf("err = %v, want code %s", err, tt.code)
			}
			if out != "" {
				t.Errorf("failed prediction printed %q", out)
			}
		})
	}
}

func TestRenderCommand(t *testing.T) {
	dir := t.TempDir()
	raw := loadFixture(t, "nested_hub.json")
	input := filepath.Join(dir, "prediccion.json")
	if err := os.WriteFile(input, raw, 0644); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, fileCacheTOML(t, "http://127.0.0.1:1"), "render", input, "-f", "dot,json", "--legend", "--quiet")
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	dotPath := filepath.Join(dir, "prediccion.dot")
	viewPath := filepath.Join(dir, "prediccion.view.json")
	if got := strings.Fields(out); len(got) != 2 || got[0] != dotPath || got[1] != viewPath {
		t.Errorf("written = %q", out)
	}

	dot, err := os.ReadFile(dotPath)
	if err != nil {
		t.Fatalf("read dot: %v", err)
	}
	if !strings.Contains(string(dot), "digraph") || !strings.Contains(string(dot), "cluster_legend") {
		t.Errorf("dot output missing graph or legend:\n%s", dot)
	}

	var view session.View
	data, err := os.ReadFile(viewPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(data, &view); err != nil {
		t.Fatalf("view json: %v", err)
	}
	if view.Topology.String() != "hub-routed" {
		t.Errorf("topology = %v", view.Topology)
	}

	if after, _ := os.ReadFile(input); !bytes.Equal(after, raw) {
		t.Error("render must not touch its input")
	}
}

func TestRenderDegradedInput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "error.json")
	if err := os.WriteFile(input, []byte(`{"detail": "Not Found"}`), 0644); err != nil {
		t.Fatal(err)
	}
	output := filepath.Join(dir, "fallback.dot")

	if _, err := runCLI(t, fileCacheTOML(t, "http://127.0.0.1:1"), "render", input, "-f", "dot", "-o", output, "--quiet"); err != nil {
		t.Fatalf("degraded results should still render: %v", err)
	}
	dot, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	for _, label := range []string{"SKU: N/A", "Carrier", "Cliente CP: N/A"} {
		if !strings.Contains(string(dot), label) {
			t.Errorf("fallback graph missing %s", label)
		}
	}
}

func TestRenderCommandErrors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.json")
	tests := []struct {
		name string
		args []string
		code apperrors.Code
	}{
		{"missing file", []string{"render", missing}, apperrors.ErrCodeNotFound},
		{"stdin needs output", []string{"render", "-"}, apperrors.ErrCodeInvalidInput},
		{"bad schema", []string{"render", missing, "--schema", "v3"}, apperrors.ErrCodeInvalidInput},
		{"bad format", []string{"render", missing, "-f", "pdf"}, apperrors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, fileCacheTOML(t, "http://127.0.0.1:1"), tt.args...)
			if !apperrors.Is(err, tt.code) {
				t.Errorf("err = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestCacheCommands(t *testing.T) {
	cacheDir := t.TempDir()
	cfg := fmt.Sprintf("[cache]\nbackend = \"file\"\ndir = %q\n", cacheDir)

	out, err := runCLI(t, cfg, "cache", "path")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != cacheDir {
		t.Errorf("cache path = %q, want %q", out, cacheDir)
	}

	input := filepath.Join(t.TempDir(), "flat.json")
	if err := os.WriteFile(input, loadFixture(t, "flat.json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := runCLI(t, cfg, "render", input, "-f", "dot", "--quiet"); err != nil {
		t.Fatal(err)
	}
	if entries, _ := os.ReadDir(cacheDir); len(entries) == 0 {
		t.Fatal("render should populate the cache")
	}

	if _, err := runCLI(t, cfg, "cache", "clear"); err != nil {
		t.Fatal(err)
	}
	if entries, _ := os.ReadDir(cacheDir); len(entries) != 0 {
		t.Errorf("cache clear left %d entries", len(entries))
	}
}

func TestCacheLocation(t *testing.T) {
	c := New(&bytes.Buffer{}, log.InfoLevel)

	c.Config.Cache = config.CacheConfig{Backend: config.CacheRedis, RedisAddr: "redis:6379", RedisDB: 2, KeyPrefix: "logistica:"}
	if got := c.cacheLocation(); got != `redis://redis:6379/2 (prefix "logistica:")` {
		t.Errorf("redis location = %q", got)
	}

	c.Config.Cache = config.CacheConfig{Backend: config.CacheNone}
	if got := c.cacheLocation(); got != "disabled" {
		t.Errorf("none location = %q", got)
	}

	t.Setenv("XDG_CACHE_HOME", "/tmp/custom-cache")
	c.Config.Cache = config.CacheConfig{Backend: config.CacheFile}
	if got := c.cacheLocation(); got != filepath.Join("/tmp/custom-cache", appName) {
		t.Errorf("file location = %q", got)
	}
}

func TestCompletion(t *testing.T) {
	out, err := runCLI(t, "", "completion", "bash")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, appName) {
		t.Error("completion script should name the binary")
	}
}

func TestSaveGraphThenRenderGraph(t *testing.T) {
	ts, _ := predictionServer(t, http.StatusOK, loadFixture(t, "multi_option.json"))
	dir := t.TempDir()
	saved := filepath.Join(dir, "ruta.json")

	if _, err := runCLI(t, fileCacheTOML(t, ts.URL), "predict", "--json", "--save-graph", saved); err != nil {
		t.Fatalf("predict: %v", err)
	}

	out, err := runCLI(t, fileCacheTOML(t, ts.URL), "render", "--graph", saved, "-f", "dot,json", "--quiet")
	if err != nil {
		t.Fatalf("render --graph: %v", err)
	}
	want := []string{filepath.Join(dir, "ruta.dot"), filepath.Join(dir, "ruta.graph.json")}
	if got := strings.Fields(out); len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("written = %q, want %q", got, want)
	}
	if dot, _ := os.ReadFile(want[0]); !strings.Contains(string(dot), "digraph") {
		t.Error("graph input should render to DOT")
	}
}

func TestRenderGraphRejectsResult(t *testing.T) {
	input := filepath.Join(t.TempDir(), "texto.json")
	if err := os.WriteFile(input, []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := runCLI(t, fileCacheTOML(t, "http://127.0.0.1:1"), "render", "--graph", input, "-f", "dot")
	if !apperrors.Is(err, apperrors.ErrCodeInvalidFormat) {
		t.Errorf("err = %v, want INVALID_FORMAT", err)
	}
}

func TestNamespacedCacheKeys(t *testing.T) {
	cacheDir := t.TempDir()
	input := filepath.Join(t.TempDir(), "flat.json")
	if err := os.WriteFile(input, loadFixture(t, "flat.json"), 0644); err != nil {
		t.Fatal(err)
	}

	count := func() int {
		n := 0
		_ = filepath.WalkDir(cacheDir, func(_ string, d os.DirEntry, _ error) error {
			if d != nil && !d.IsDir() {
				n++
			}
			return nil
		})
		return n
	}

	for i, ns := range []string{"staging", "staging", "prod"} {
		cfg := fmt.Sprintf("[cache]\nbackend = \"file\"\ndir = %q\nnamespace = %q\n", cacheDir, ns)
		if _, err := runCLI(t, cfg, "render", input, "-f", "dot", "--quiet"); err != nil {
			t.Fatal(err)
		}
		// graph + dot artifact per namespace
		if want := 2 * (1 + i/2); count() != want {
			t.Errorf("after %s render: %d entries, want %d", ns, count(), want)
		}
	}
}
