// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Command storefront-probe drives the client facades against a live marketplace
// API and prints a JSON report of every check plus the final state snapshot.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/ManuGH/storefront/internal/app"
	"github.com/ManuGH/storefront/internal/config"
	"github.com/ManuGH/storefront/internal/domain/auth"
	"github.com/ManuGH/storefront/internal/session"
)

// ProbeReport is the JSON document written to stdout.
type ProbeReport struct {
	Timestamp time.Time      `json:"timestamp"`
	BaseURL   string         `json:"base_url"`
	Checks    []CheckResult  `json:"checks"`
	State     map[string]any `json:"state"`
}

type CheckResult struct {
	Name      string `json:"name"`
	Passed    bool   `json:"passed"`
	LatencyMs int64  `json:"latency_ms"`
	Details   string `json:"details,omitempty"`
}

// ProbeConfig holds the command-line flags.
type ProbeConfig struct {
	ConfigPath string
	BaseURL    string
	Email      string
	Password   string
	Role       string
	Domains    []string
	KeepAlert  bool
}

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config")
		baseURL    = flag.String("base-url", "", "Override "+config.EnvAPIBaseURL)
		email      = flag.String("email", "", "Sign in with this email before probing")
		role       = flag.String("role", "", "Role sent with the credentials (buyer or seller)")
		domains    = flag.String("domains", "profile,cart,category,order", "Comma-separated facades to activate")
		keepAlert  = flag.Bool("keep-alerts", false, "Skip OnDeactivate so alerts stay in the snapshot")
	)
	flag.Parse()

	cfg := ProbeConfig{
		ConfigPath: *configPath,
		BaseURL:    *baseURL,
		Email:      *email,
		Password:   config.ParseString("STOREFRONT_PROBE_PASSWORD", ""),
		Role:       *role,
		Domains:    splitList(*domains),
		KeepAlert:  *keepAlert,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := run(ctx, cfg, nil)
	if report != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(report)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Probe failed: %v\n", err)
		os.Exit(1)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// run executes the probe. Progress lines go to progress when it is non-nil.
func run(ctx context.Context, cfg ProbeConfig, progress io.Writer, opts ...app.Option) (*ProbeReport, error) {
	if cfg.BaseURL != "" {
		if err := os.Setenv(config.EnvAPIBaseURL, cfg.BaseURL); err != nil {
			return nil, err
		}
	}
	appCfg, err := config.Load(cfg.ConfigPath)
	if err != nil {
		return nil, err
	}

	a, err := app.New(ctx, appCfg, opts...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = a.Close(context.Background()) }()

	report := &ProbeReport{
		Timestamp: time.Now(),
		BaseURL:   a.Gateway.BaseURL(),
		Checks:    make([]CheckResult, 0),
	}

	runCheck := func(name string, fn func() error) {
		start := time.Now()
		err := fn()
		res := CheckResult{Name: name, Passed: err == nil, LatencyMs: time.Since(start).Milliseconds()}
		if err != nil {
			res.Details = err.Error()
		}
		report.Checks = append(report.Checks, res)
		if progress == nil {
			return
		}
		if err != nil {
			fmt.Fprintf(progress, "FAIL: %s (%s)\n", name, err)
		} else {
			fmt.Fprintf(progress, "PASS: %s (%dms)\n", name, res.LatencyMs)
		}
	}

	if cfg.Email != "" {
		runCheck("auth.signIn", func() error {
			_, err := a.Auth.SignIn(ctx, auth.Credentials{
				Email:    cfg.Email,
				Password: cfg.Password,
				Role:     session.Role(cfg.Role),
			})
			return err
		})
	}

	facades := a.Facades()
	names := append([]string(nil), cfg.Domains...)
	sort.Strings(names)
	for _, name := range names {
		f, ok := facades[name]
		if !ok {
			runCheck(name+".activate", func() error { return fmt.Errorf("unknown domain %q", name) })
			continue
		}
		runCheck(name+".activate", func() error { return f.OnActivate(ctx) })
		if !cfg.KeepAlert {
			f.OnDeactivate()
		}
	}

	report.State = a.Root.Snapshot()

	failed := 0
	for _, c := range report.Checks {
		if !c.Passed {
			failed++
		}
	}
	if failed > 0 {
		return report, fmt.Errorf("%d of %d checks failed", failed, len(report.Checks))
	}
	return report, nil
}
