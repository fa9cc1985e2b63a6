// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package session

import (
	"context"
	"fmt"
	"sync"
)

// Store is the persisted key/value surface behind a Session.
// A missing key reports ok=false with a nil error.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Backend names accepted by OpenStore.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSqlite = "sqlite"
	BackendRedis  = "redis"
	BackendBadger = "badger"
)

// Options selects and configures a backend.
type Options struct {
	Backend string
	// Path is the file, sqlite database or badger directory.
	Path string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// OpenStore creates a Store based on the backend configuration.
func OpenStore(ctx context.Context, opts Options) (Store, error) {
	backend := opts.Backend
	if backend == "" {
		backend = BackendMemory
	}

	switch backend {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendFile:
		return OpenFileStore(opts.Path)
	case BackendSqlite:
		return OpenSqliteStore(opts.Path)
	case BackendRedis:
		return OpenRedisStore(ctx, RedisConfig{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		})
	case BackendBadger:
		return OpenBadgerStore(opts.Path)
	default:
		return nil, fmt.Errorf("unknown session backend: %s", backend)
	}
}

// MemoryStore keeps keys for the life of the process.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
