package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/imartinezt/logistica-front/pkg/errors"
)

// isolate points every lookup at an empty temp dir and clears the
// LOGISTICA_* variables for the duration of the test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	for _, k := range []string{EnvBaseURL, EnvTimeout, EnvRedisAddr, EnvListen} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadDefaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load("", filepath.Join(dir, "missing.env"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg != Default() {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
	if cfg.API.Timeout != 30*time.Second || cfg.Defaults.PostalCode != "05050" || cfg.Server.Listen != ":8080" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "logistica", "config.toml")
	writeFile(t, path, `
[api]
base_url = "https://fees.example.com"
timeout = "5s"

[defaults]
product_id = "LIV-010"
quantity = 1

[cache]
backend = "none"
`)

	cfg, err := Load("", filepath.Join(dir, "missing.env"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.API.BaseURL != "https://fees.example.com" || cfg.API.Timeout != 5*time.Second {
		t.Errorf("api = %+v", cfg.API)
	}
	if cfg.API.Endpoint != "/api/v1/fee/predict" {
		t.Error("unset keys should keep their defaults")
	}
	if cfg.Defaults.ProductID != "LIV-010" || cfg.Defaults.Quantity != 1 || cfg.Defaults.PostalCode != "05050" {
		t.Errorf("defaults = %+v", cfg.Defaults)
	}
	if cfg.Cache.Backend != CacheNone {
		t.Errorf("cache backend = %q", cfg.Cache.Backend)
	}
}

func TestLoadExplicitPathMustExist(t *testing.T) {
	dir := isolate(t)
	if _, err := Load(filepath.Join(dir, "nope.toml"), ""); err == nil {
		t.Error("missing explicit config should fail")
	}
}

func TestLoadRejectsBadFiles(t *testing.T) {
	tests := []struct {
		name    string
		content string
		code    apperrors.Code
	}{
		{"Syntax", "[api\nbase_url = ", apperrors.ErrCodeInvalidFormat},
		{"UnknownKey", "[api]\nbaseurl = \"http://x\"\n", apperrors.ErrCodeInvalidInput},
		{"BadBackend", "[cache]\nbackend = \"memcached\"\n", apperrors.ErrCodeInvalidInput},
		{"BadPostalCode", "[defaults]\npostal_code = \"CP1\"\n", apperrors.ErrCodeInvalidInput},
		{"BadScheme", "[api]\nbase_url = \"ftp://x\"\n", apperrors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			path := filepath.Join(dir, "config.toml")
			writeFile(t, path, tt.content)
			_, err := Load(path, filepath.Join(dir, "missing.env"))
			if !apperrors.Is(err, tt.code) {
				t.Errorf("Load() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	dir := isolate(t)
	t.Setenv(EnvBaseURL, "http://staging:8000")
	t.Setenv(EnvTimeout, "45")
	t.Setenv(EnvRedisAddr, "redis:6379")
	t.Setenv(EnvListen, ":9090")

	cfg, err := Load("", filepath.Join(dir, "missing.env"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.API.BaseURL != "http://staging:8000" {
		t.Errorf("base url = %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 45*time.Second {
		t.Errorf("timeout = %v", cfg.API.Timeout)
	}
	if cfg.Cache.Backend != CacheRedis || cfg.Cache.RedisAddr != "redis:6379" {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Server.Listen != ":9090" {
		t.Errorf("listen = %q", cfg.Server.Listen)
	}
}

func TestEnvTimeoutDuration(t *testing.T) {
	dir := isolate(t)
	t.Setenv(EnvTimeout, "1m30s")
	cfg, err := Load("", filepath.Join(dir, "missing.env"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.API.Timeout != 90*time.Second {
		t.Errorf("timeout = %v", cfg.API.Timeout)
	}

	t.Setenv(EnvTimeout, "soon")
	if _, err := Load("", filepath.Join(dir, "missing.env")); !apperrors.Is(err, apperrors.ErrCodeInvalidInput) {
		t.Errorf("bad timeout error = %v", err)
	}
}

func TestDotEnv(t *testing.T) {
	dir := isolate(t)
	t.Cleanup(func() { os.Unsetenv(EnvListen) })
	envFile := filepath.Join(dir, ".env")
	writeFile(t, envFile, EnvListen+"=:7070\n")

	cfg, err := Load("", envFile)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Listen != ":7070" {
		t.Errorf("listen = %q, want value from .env", cfg.Server.Listen)
	}
}
