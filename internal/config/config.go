// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads storefront configuration.
//
// Precedence, lowest to highest: built-in defaults, the optional YAML file, then
// STOREFRONT_* environment variables. The merged result is validated once.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ManuGH/storefront/internal/session"
	"github.com/ManuGH/storefront/internal/telemetry"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Environment variable names.
const (
	EnvAPIBaseURL      = "STOREFRONT_API_BASE_URL"
	EnvAPITimeout      = "STOREFRONT_API_TIMEOUT"
	EnvAPIRateLimit    = "STOREFRONT_API_RATE_LIMIT"
	EnvAPIBurst        = "STOREFRONT_API_BURST"
	EnvAPIUserAgent    = "STOREFRONT_API_USER_AGENT"
	EnvSessionBackend  = "STOREFRONT_SESSION_BACKEND"
	EnvSessionPath     = "STOREFRONT_SESSION_PATH"
	EnvRedisAddr       = "STOREFRONT_REDIS_ADDR"
	EnvRedisPassword   = "STOREFRONT_REDIS_PASSWORD"
	EnvRedisDB         = "STOREFRONT_REDIS_DB"
	EnvLogLevel        = "STOREFRONT_LOG_LEVEL"
	EnvOTelEnabled     = "STOREFRONT_OTEL_ENABLED"
	EnvOTelExporter    = "STOREFRONT_OTEL_EXPORTER"
	EnvOTelEndpoint    = "STOREFRONT_OTEL_ENDPOINT"
	EnvOTelSampling    = "STOREFRONT_OTEL_SAMPLING"
	EnvOTelEnvironment = "STOREFRONT_OTEL_ENVIRONMENT"
)

// Config is the complete runtime configuration.
type Config struct {
	API       APIConfig       `yaml:"api"`
	Session   SessionConfig   `yaml:"session"`
	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// APIConfig configures the transport gateway.
type APIConfig struct {
	BaseURL   string        `yaml:"baseUrl"`
	Timeout   time.Duration `yaml:"timeout"`
	RateLimit float64       `yaml:"rateLimit"`
	Burst     int           `yaml:"burst"`
	UserAgent string        `yaml:"userAgent"`
}

// SessionConfig selects the session store.
type SessionConfig struct {
	Backend string      `yaml:"backend"`
	Path    string      `yaml:"path"`
	Redis   RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"samplingRate"`
	Environment  string  `yaml:"environment"`
}

// Defaults returns the built-in configuration. BaseURL has no default.
func Defaults() Config {
	return Config{
		API: APIConfig{
			Timeout:   15 * time.Second,
			Burst:     1,
			UserAgent: "storefront-client",
		},
		Session: SessionConfig{
			Backend: session.BackendMemory,
		},
		Log: LogConfig{Level: "info"},
		Telemetry: TelemetryConfig{
			Exporter:     telemetry.ExporterGRPC,
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
			Environment:  "development",
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (skipped when
// path is empty) and the environment, then validates it.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		if err := mergeFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	mergeEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// mergeFile decodes the YAML file over cfg. Unknown keys are rejected.
func mergeFile(cfg *Config, path string) error {
	path = filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}
	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return nil
}

func mergeEnv(cfg *Config) {
	cfg.API.BaseURL = ParseString(EnvAPIBaseURL, cfg.API.BaseURL)
	cfg.API.Timeout = ParseDuration(EnvAPITimeout, cfg.API.Timeout)
	cfg.API.RateLimit = ParseFloat(EnvAPIRateLimit, cfg.API.RateLimit)
	cfg.API.Burst = ParseInt(EnvAPIBurst, cfg.API.Burst)
	cfg.API.UserAgent = ParseString(EnvAPIUserAgent, cfg.API.UserAgent)

	cfg.Session.Backend = ParseString(EnvSessionBackend, cfg.Session.Backend)
	cfg.Session.Path = ParseString(EnvSessionPath, cfg.Session.Path)
	cfg.Session.Redis.Addr = ParseString(EnvRedisAddr, cfg.Session.Redis.Addr)
	cfg.Session.Redis.Password = ParseString(EnvRedisPassword, cfg.Session.Redis.Password)
	cfg.Session.Redis.DB = ParseInt(EnvRedisDB, cfg.Session.Redis.DB)

	cfg.Log.Level = ParseString(EnvLogLevel, cfg.Log.Level)

	cfg.Telemetry.Enabled = ParseBool(EnvOTelEnabled, cfg.Telemetry.Enabled)
	cfg.Telemetry.Exporter = ParseString(EnvOTelExporter, cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = ParseString(EnvOTelEndpoint, cfg.Telemetry.Endpoint)
	cfg.Telemetry.SamplingRate = ParseFloat(EnvOTelSampling, cfg.Telemetry.SamplingRate)
	cfg.Telemetry.Environment = ParseString(EnvOTelEnvironment, cfg.Telemetry.Environment)
}

// ValidationError lists every invalid field found by Validate.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.API.BaseURL == "" {
		add("api.baseUrl is required")
	} else if u, err := url.Parse(c.API.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		add("api.baseUrl must be an absolute http(s) URL, got %q", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		add("api.timeout must be positive")
	}
	if c.API.RateLimit < 0 {
		add("api.rateLimit must not be negative")
	}
	if c.API.RateLimit > 0 && c.API.Burst < 1 {
		add("api.burst must be at least 1 when rateLimit is set")
	}

	switch c.Session.Backend {
	case session.BackendMemory, session.BackendBadger:
	case session.BackendFile, session.BackendSqlite:
		if c.Session.Path == "" {
			add("session.path is required for the %s backend", c.Session.Backend)
		}
	case session.BackendRedis:
		if c.Session.Redis.Addr == "" {
			add("session.redis.addr is required for the redis backend")
		}
	default:
		add("session.backend %q is not one of memory, file, sqlite, redis, badger", c.Session.Backend)
	}

	if _, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level)); err != nil {
		add("log.level %q is not a valid level", c.Log.Level)
	}

	if c.Telemetry.Enabled {
		if c.Telemetry.Exporter != telemetry.ExporterGRPC && c.Telemetry.Exporter != telemetry.ExporterHTTP {
			add("telemetry.exporter must be grpc or http, got %q", c.Telemetry.Exporter)
		}
		if c.Telemetry.Endpoint == "" {
			add("telemetry.endpoint is required when telemetry is enabled")
		}
	}
	if c.Telemetry.SamplingRate < 0 || c.Telemetry.SamplingRate > 1 {
		add("telemetry.samplingRate must be within [0,1]")
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// SessionOptions converts the session section for session.OpenStore.
func (c Config) SessionOptions() session.Options {
	return session.Options{
		Backend:       c.Session.Backend,
		Path:          c.Session.Path,
		RedisAddr:     c.Session.Redis.Addr,
		RedisPassword: c.Session.Redis.Password,
		RedisDB:       c.Session.Redis.DB,
	}
}
