package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antoniostano/genesisvoice/internal/config"
	"github.com/antoniostano/genesisvoice/internal/session"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestNewLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "json", "info").Info("hello", "k", "v")
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, "v", line["k"])
	assert.Equal(t, "genesisvoice", line["app"])

	buf.Reset()
	newLogger(&buf, "text", "warn").Info("dropped")
	assert.Empty(t, buf.String())
	newLogger(&buf, "text", "warn").Warn("kept")
	assert.Contains(t, buf.String(), "msg=kept")
}

func TestOpenSessionStore(t *testing.T) {
	ctx := context.Background()

	file, err := openSessionStore(ctx, config.Config{
		SessionStoreDriver: "file",
		SessionFilePath:    filepath.Join(t.TempDir(), "sessions.json"),
	})
	require.NoError(t, err)
	require.NoError(t, file.Close())

	mr := miniredis.RunT(t)
	redisStore, err := openSessionStore(ctx, config.Config{
		SessionStoreDriver: "redis",
		SessionRedisURL:    "redis://" + mr.Addr(),
	})
	require.NoError(t, err)
	defer redisStore.Close()
	require.NoError(t, redisStore.Set(ctx, "k", "v"))
	assert.True(t, mr.Exists("genesisvoice:session:k"))

	_, err = openSessionStore(ctx, config.Config{SessionStoreDriver: "etcd"})
	assert.ErrorIs(t, err, session.ErrInvalidStoreType)
}
