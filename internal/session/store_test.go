// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ManuGH/storefront/internal/persistence/sqlite"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func setupMiniRedis(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, newRedisStore(client, zerolog.Nop())
}

func backends(t *testing.T) map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		BackendMemory: func(t *testing.T) Store { return NewMemoryStore() },
		BackendFile: func(t *testing.T) Store {
			s, err := OpenFileStore(filepath.Join(t.TempDir(), "nested", "session.json"))
			require.NoError(t, err)
			return s
		},
		BackendSqlite: func(t *testing.T) Store {
			s, err := OpenSqliteStore(sqlite.MemoryPath)
			require.NoError(t, err)
			return s
		},
		BackendBadger: func(t *testing.T) Store {
			s, err := OpenBadgerStore("")
			require.NoError(t, err)
			return s
		},
		BackendRedis: func(t *testing.T) Store {
			_, s := setupMiniRedis(t)
			return s
		},
	}
}

func TestStoreContract(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)
			t.Cleanup(func() { _ = s.Close() })

			_, ok, err := s.Get(ctx, KeyAccessToken)
			require.NoError(t, err)
			require.False(t, ok, "fresh store must be empty")

			require.NoError(t, s.Set(ctx, KeyAccessToken, "t-1"))
			v, ok, err := s.Get(ctx, KeyAccessToken)
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, "t-1", v)

			require.NoError(t, s.Set(ctx, KeyAccessToken, "t-2"))
			v, _, err = s.Get(ctx, KeyAccessToken)
			require.NoError(t, err)
			require.Equal(t, "t-2", v)

			require.NoError(t, s.Delete(ctx, KeyAccessToken))
			_, ok, err = s.Get(ctx, KeyAccessToken)
			require.NoError(t, err)
			require.False(t, ok)

			require.NoError(t, s.Delete(ctx, "never-set"))
		})
	}
}

func TestFileStorePersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")

	s, err := OpenFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, KeyAccessToken, "persisted"))

	reopened, err := OpenFileStore(path)
	require.NoError(t, err)
	v, ok, err := reopened.Get(ctx, KeyAccessToken)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "persisted", v)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not-json"), 0o600))

	_, err := OpenFileStore(path)
	require.Error(t, err)
}

func TestSqliteStorePersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.db")

	s, err := OpenSqliteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, KeyUser, `{"id":"1","role":"seller"}`))
	require.NoError(t, s.Close())

	reopened, err := OpenSqliteStore(path)
	require.NoError(t, err)
	defer reopened.Close()
	v, ok, err := reopened.Get(ctx, KeyUser)
	require.NoError(t, err)
	require.True(t, ok)
	require.JSONEq(t, `{"id":"1","role":"seller"}`, v)
}

func TestRedisStoreUsesPrefix(t *testing.T) {
	mr, s := setupMiniRedis(t)
	require.NoError(t, s.Set(context.Background(), KeyAccessToken, "abc"))

	got, err := mr.Get(RedisKeyPrefix + KeyAccessToken)
	require.NoError(t, err)
	require.Equal(t, "abc", got)
	require.NoError(t, s.HealthCheck(context.Background()))
}

func TestOpenStoreFactory(t *testing.T) {
	ctx := context.Background()

	s, err := OpenStore(ctx, Options{})
	require.NoError(t, err)
	require.IsType(t, &MemoryStore{}, s)

	s, err = OpenStore(ctx, Options{Backend: BackendSqlite, Path: sqlite.MemoryPath})
	require.NoError(t, err)
	require.IsType(t, &SqliteStore{}, s)
	require.NoError(t, s.Close())

	mr := miniredis.RunT(t)
	s, err = OpenStore(ctx, Options{Backend: BackendRedis, RedisAddr: mr.Addr()})
	require.NoError(t, err)
	require.IsType(t, &RedisStore{}, s)
	require.NoError(t, s.Close())

	_, err = OpenStore(ctx, Options{Backend: BackendRedis})
	require.Error(t, err)

	_, err = OpenStore(ctx, Options{Backend: BackendFile})
	require.Error(t, err)

	_, err = OpenStore(ctx, Options{Backend: "etcd"})
	require.EqualError(t, err, "unknown session backend: etcd")
}
