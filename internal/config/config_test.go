// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ManuGH/storefront/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "storefront.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadEnvOnly(t *testing.T) {
	t.Setenv(EnvAPIBaseURL, "https://shop.example.com")
	t.Setenv(EnvAPITimeout, "3s")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example.com", cfg.API.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.Equal(t, session.BackendMemory, cfg.Session.Backend)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFileThenEnvPrecedence(t *testing.T) {
	path := writeYAML(t, `
api:
  baseUrl: https://file.example.com
  timeout: 20s
  rateLimit: 5
  burst: 2
session:
  backend: sqlite
  path: /tmp/session.db
log:
  level: debug
`)
	t.Setenv(EnvAPIBaseURL, "https://env.example.com")
	t.Setenv(EnvAPIBurst, "4")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com", cfg.API.BaseURL, "env overrides file")
	assert.Equal(t, 20*time.Second, cfg.API.Timeout, "file overrides default")
	assert.Equal(t, 5.0, cfg.API.RateLimit)
	assert.Equal(t, 4, cfg.API.Burst)
	assert.Equal(t, session.BackendSqlite, cfg.Session.Backend)
	assert.Equal(t, "debug", cfg.Log.Level)

	opts := cfg.SessionOptions()
	assert.Equal(t, "/tmp/session.db", opts.Path)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeYAML(t, `
api:
  baseUrl: https://shop.example.com
  retries: 3
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "strict config parse error")
}

func TestLoadRejectsMultipleDocuments(t *testing.T) {
	path := writeYAML(t, "api:\n  baseUrl: https://a.example.com\n---\napi:\n  baseUrl: https://b.example.com\n")
	_, err := Load(path)
	require.EqualError(t, err, "config file contains multiple documents or trailing content")
}

func TestLoadRejectsNonYAMLExtension(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "config.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only YAML supported")
}

func TestLoadEmptyFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvAPIBaseURL, "http://localhost:8080")
	cfg, err := Load(writeYAML(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Defaults().API.Timeout, cfg.API.Timeout)
}

func TestValidateCollectsProblems(t *testing.T) {
	cfg := Defaults()
	cfg.API.BaseURL = "ftp://shop"
	cfg.API.Timeout = 0
	cfg.Session.Backend = "file"
	cfg.Log.Level = "loud"
	cfg.Telemetry.Enabled = true
	cfg.Telemetry.Exporter = "zipkin"
	cfg.Telemetry.SamplingRate = 2

	err := cfg.Validate()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Problems, 6)
}

func TestValidateBackends(t *testing.T) {
	base := Defaults()
	base.API.BaseURL = "https://shop.example.com"

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"memory", func(c *Config) {}, false},
		{"badger in memory", func(c *Config) { c.Session.Backend = session.BackendBadger }, false},
		{"file needs path", func(c *Config) { c.Session.Backend = session.BackendFile }, true},
		{"file with path", func(c *Config) { c.Session.Backend = session.BackendFile; c.Session.Path = "/tmp/s.json" }, false},
		{"redis needs addr", func(c *Config) { c.Session.Backend = session.BackendRedis }, true},
		{"redis with addr", func(c *Config) { c.Session.Backend = session.BackendRedis; c.Session.Redis.Addr = "localhost:6379" }, false},
		{"unknown", func(c *Config) { c.Session.Backend = "etcd" }, true},
		{"burst without rate limit", func(c *Config) { c.API.Burst = 0 }, false},
		{"rate limit needs burst", func(c *Config) { c.API.RateLimit = 1; c.API.Burst = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			if tt.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}
