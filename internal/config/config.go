// Package config reads process configuration from the environment.
package config

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/hkdf"
)

// Defaults
const (
	DefaultBackendURL    = "http://localhost:5000/api"
	DefaultSessionSecret = "devsecret"
	DefaultAddr          = ":3000"
	DefaultSlowRequestMs = 200
	DefaultRateLimit     = 0 // per-IP requests per second; 0 disables limiting
)

// Config is the resolved startup configuration.
type Config struct {
	BackendURL    string
	Env           string
	Addr          string
	SessionDir    string
	SlowRequestMs int
	RateLimit     int

	SessionHashKey  []byte
	SessionBlockKey []byte
	CSRFKey         []byte
}

// Production reports whether the process runs with STUDYDESK_ENV=production.
func (c Config) Production() bool {
	return c.Env == "production"
}

var ErrDefaultSecret = errors.New("SESSION_SECRET must be set to a non-default value in production")

// Load reads .env (if present) and the environment.
// PRE: none
// POST: Returns a Config with all keys derived, or an error for invalid values
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
// PRE: getenv is non-nil
// POST: Returns a Config with all keys derived, or an error for invalid values
func FromEnv(getenv func(string) string) (Config, error) {
	env := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	cfg := Config{
		BackendURL: strings.TrimRight(env("BACKEND_API_URL", DefaultBackendURL), "/"),
		Env:        env("STUDYDESK_ENV", "development"),
		Addr:       env("STUDYDESK_ADDR", DefaultAddr),
		SessionDir: env("STUDYDESK_SESSION_DIR", filepath.Join(os.TempDir(), "studydesk-sessions")),
	}

	u, err := url.Parse(cfg.BackendURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Config{}, fmt.Errorf("BACKEND_API_URL %q must be an absolute http(s) URL", cfg.BackendURL)
	}

	if cfg.SlowRequestMs, err = positiveInt(env("STUDYDESK_SLOW_REQUEST_MS", ""), DefaultSlowRequestMs); err != nil {
		return Config{}, fmt.Errorf("STUDYDESK_SLOW_REQUEST_MS: %w", err)
	}
	if cfg.RateLimit, err = nonNegativeInt(env("STUDYDESK_RATE_LIMIT", ""), DefaultRateLimit); err != nil {
		return Config{}, fmt.Errorf("STUDYDESK_RATE_LIMIT: %w", err)
	}

	secret := env("SESSION_SECRET", DefaultSessionSecret)
	if secret == DefaultSessionSecret {
		if cfg.Production() {
			return Config{}, ErrDefaultSecret
		}
		slog.Warn("config_default_secret", "hint", "set SESSION_SECRET; sessions are forgeable with the default")
	}

	if cfg.SessionHashKey, err = deriveKey(secret, "studydesk session hash", 64); err != nil {
		return Config{}, err
	}
	if cfg.SessionBlockKey, err = deriveKey(secret, "studydesk session block", 32); err != nil {
		return Config{}, err
	}
	if cfg.CSRFKey, err = deriveKey(secret, "studydesk csrf", 32); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// deriveKey expands secret into n bytes bound to info.
func deriveKey(secret, info string, n int) ([]byte, error) {
	key := make([]byte, n)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("derive %s key: %w", info, err)
	}
	return key, nil
}

func nonNegativeInt(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%q is not a non-negative integer", raw)
	}
	return n, nil
}

func positiveInt(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%q is not a positive integer", raw)
	}
	return n, nil
}
