// Package config loads the dashboard settings.
//
// Settings are layered, later layers winning:
//
//  1. Built-in defaults ([Default])
//  2. A TOML file, by default ~/.config/logistica/config.toml
//  3. A .env file in the working directory (loaded into the process
//     environment, never overriding variables that are already set)
//  4. LOGISTICA_* environment variables
//
// Command-line flags are applied on top by the caller.
//
// Example config.toml:
//
//	[api]
//	base_url = "http://0.0.0.0:8000"
//	timeout = "30s"
//
//	[defaults]
//	postal_code = "05050"
//	product_id = "LIV-004"
//	quantity = 3
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	apperrors "github.com/imartinezt/logistica-front/pkg/errors"
)

const appName = "logistica"

// Environment variables read by [ApplyEnv].
const (
	EnvBaseURL   = "LOGISTICA_API_BASE_URL"
	EnvTimeout   = "LOGISTICA_API_TIMEOUT"
	EnvRedisAddr = "LOGISTICA_REDIS_ADDR"
	EnvListen    = "LOGISTICA_LISTEN"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Config is the complete settings tree.
type Config struct {
	API      APIConfig     `toml:"api"`
	Defaults RequestConfig `toml:"defaults"`
	Cache    CacheConfig   `toml:"cache"`
	Server   ServerConfig  `toml:"server"`
}

// APIConfig locates the prediction service.
type APIConfig struct {
	BaseURL  string        `toml:"base_url"`
	Endpoint string        `toml:"endpoint"`
	Timeout  time.Duration `toml:"timeout"`
}

// RequestConfig prefills the prediction form.
type RequestConfig struct {
	PostalCode string `toml:"postal_code"`
	ProductID  string `toml:"product_id"`
	Quantity   int    `toml:"quantity"`
}

// CacheConfig selects the artifact cache backend.
type CacheConfig struct {
	Backend       string `toml:"backend"`
	Dir           string `toml:"dir"` // empty uses the user cache dir
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	KeyPrefix     string `toml:"key_prefix"`
	Namespace     string `toml:"namespace"` // scopes keys per environment, e.g. "staging"
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Listen string `toml:"listen"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL:  "http://0.0.0.0:8000",
			Endpoint: "/api/v1/fee/predict",
			Timeout:  30 * time.Second,
		},
		Defaults: RequestConfig{
			PostalCode: "05050",
			ProductID:  "LIV-004",
			Quantity:   3,
		},
		Cache: CacheConfig{
			Backend:   CacheFile,
			RedisAddr: "localhost:6379",
			KeyPrefix: appName + ":",
		},
		Server: ServerConfig{
			Listen: ":8080",
		},
	}
}

// DefaultPath returns ~/.config/logistica/config.toml, honoring
// XDG_CONFIG_HOME.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load builds the settings from defaults, the TOML file at path, the .env
// file at envFile and the environment.
//
// An empty path reads the default location and tolerates its absence; an
// explicit path must exist. An empty envFile means ".env", whose absence is
// never an error.
func Load(path, envFile string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err == nil {
			path = p
		}
	}
	if path != "" {
		if err := cfg.decodeFile(path); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return cfg, err
			}
		}
	}

	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load %s: %w", envFile, err)
	}

	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) decodeFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return apperrors.Wrap(apperrors.ErrCodeInvalidFormat, err, "config file %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return apperrors.New(apperrors.ErrCodeInvalidInput, "config file %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// ApplyEnv overrides settings from LOGISTICA_* variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		d, err := parseTimeout(v)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "%s", EnvTimeout)
		}
		c.API.Timeout = d
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		c.Cache.RedisAddr = v
		c.Cache.Backend = CacheRedis
	}
	if v := os.Getenv(EnvListen); v != "" {
		c.Server.Listen = v
	}
	return nil
}

// parseTimeout accepts Go durations and plain seconds ("45").
func parseTimeout(s string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}

// Validate checks the settings for values the dashboard cannot work with.
func (c Config) Validate() error {
	if err := apperrors.ValidateURL(c.API.BaseURL); err != nil {
		return err
	}
	if c.API.Timeout <= 0 {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "api timeout must be positive, got %s", c.API.Timeout)
	}
	if c.Defaults.PostalCode != "" {
		if err := apperrors.ValidatePostalCode(c.Defaults.PostalCode); err != nil {
			return err
		}
	}
	if c.Defaults.ProductID != "" {
		if err := apperrors.ValidateProductID(c.Defaults.ProductID); err != nil {
			return err
		}
	}
	if err := apperrors.ValidateQuantity(c.Defaults.Quantity); err != nil {
		return err
	}
	switch c.Cache.Backend {
	case CacheFile, CacheRedis, CacheNone:
	default:
		return apperrors.New(apperrors.ErrCodeInvalidInput, "unknown cache backend %q (want file, redis or none)", c.Cache.Backend)
	}
	return nil
}
