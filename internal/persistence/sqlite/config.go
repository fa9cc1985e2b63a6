// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package sqlite opens SQLite databases with the pragmas every store relies on.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure Go driver
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Config defines SQLite operational parameters.
type Config struct {
	BusyTimeout  time.Duration
	MaxOpenConns int
}

// DefaultConfig suits a single-process client store: few writers, short transactions.
func DefaultConfig() Config {
	return Config{
		BusyTimeout:  5 * time.Second,
		MaxOpenConns: 4,
	}
}

// Open initializes a connection pool. File databases run in WAL mode; an
// in-memory database is pinned to one connection so every query sees the same data.
func Open(dbPath string, cfg Config) (*sql.DB, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}

	var dsn string
	maxConns := cfg.MaxOpenConns
	if dbPath == MemoryPath {
		dsn = fmt.Sprintf("file::memory:?_pragma=busy_timeout(%d)", cfg.BusyTimeout.Milliseconds())
		maxConns = 1
	} else {
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
			dbPath, cfg.BusyTimeout.Milliseconds())
	}
	if maxConns <= 0 {
		maxConns = 1
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open failed: %w", err)
	}

	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	if dbPath != MemoryPath {
		db.SetConnMaxLifetime(1 * time.Hour)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping failed: %w", err)
	}

	return db, nil
}
