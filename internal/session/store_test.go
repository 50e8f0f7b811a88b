package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore checks the contract every Store driver shares.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "k1", "v1"))
	require.NoError(t, s.Set(ctx, "k2", "v2"))
	require.NoError(t, s.Set(ctx, "k1", "v1b"))

	v, ok, err := s.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v1b", v)

	require.NoError(t, s.Delete(ctx, "k1", "k2", "never-set"))
	for _, k := range []string{"k1", "k2"} {
		_, ok, err := s.Get(ctx, k)
		require.NoError(t, err)
		assert.False(t, ok, k)
	}
	require.NoError(t, s.Delete(ctx))
	require.NoError(t, s.Ping(ctx))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	s, err := OpenFileStore(filepath.Join(t.TempDir(), "nested", "sessions.json"))
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sessions.json")

	first, err := OpenFileStore(path)
	require.NoError(t, err)
	require.NoError(t, New(first, "b").SetToken(ctx, "T"))
	require.NoError(t, first.Close())

	second, err := OpenFileStore(path)
	require.NoError(t, err)
	token, ok, err := New(second, "b").Token(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "T", token)
}

func TestFileStoreRejectsCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	_, err := OpenFileStore(path)
	assert.Error(t, err)
}

func TestFileStoreEmptyDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	s, err := OpenFileStore(path)
	require.NoError(t, err)
	_, ok, err := s.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func newMiniredisClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore(t *testing.T) {
	_, client := newMiniredisClient(t)
	exerciseStore(t, NewRedisStore(client, time.Hour))
}

func TestRedisStoreAppliesTTL(t *testing.T) {
	ctx := context.Background()
	mr, client := newMiniredisClient(t)
	s := NewRedisStore(client, time.Minute)

	require.NoError(t, s.Set(ctx, "b:tts_token", "T"))
	assert.True(t, mr.Exists(redisKeyPrefix+"b:tts_token"))
	assert.Equal(t, time.Minute, mr.TTL(redisKeyPrefix+"b:tts_token"))

	mr.FastForward(2 * time.Minute)
	_, ok, err := s.Get(ctx, "b:tts_token")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	defer client.Close()

	_, err = NewRedisClient(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	s, err := NewPostgresStore(context.Background(), dsn)
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
}

func TestNewStore(t *testing.T) {
	ctx := context.Background()
	_, client := newMiniredisClient(t)

	tests := []struct {
		name    string
		typ     StoreType
		opts    []StoreOption
		wantErr error
	}{
		{name: "memory", typ: StoreTypeMemory},
		{name: "memory mixed case", typ: " Memory "},
		{name: "file", typ: StoreTypeFile, opts: []StoreOption{WithFilePath(filepath.Join(t.TempDir(), "s.json"))}},
		{name: "file without path", typ: StoreTypeFile, wantErr: ErrInvalidConfig},
		{name: "redis", typ: StoreTypeRedis, opts: []StoreOption{WithRedisClient(client), WithRedisTTL(time.Hour)}},
		{name: "redis without client", typ: StoreTypeRedis, wantErr: ErrInvalidConfig},
		{name: "postgres without url", typ: StoreTypePostgres, wantErr: ErrInvalidConfig},
		{name: "unknown", typ: "etcd", wantErr: ErrInvalidStoreType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewStore(ctx, tt.typ, tt.opts...)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, s)
			require.NoError(t, s.Ping(ctx))
		})
	}
}
