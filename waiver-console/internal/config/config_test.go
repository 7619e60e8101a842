package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allVars = []string{
	"RAG_BACKEND_URL", "RAG_MEDIA_URL", "RAG_REQUEST_TIMEOUT",
	"REDIS_URL", "REDIS_PASSWORD", "REDIS_DB", "DOCUMENTS_CACHE_TTL",
	"PORT", "LOG_LEVEL", "LOG_FILE",
}

// clearEnv unsets the console's variables for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allVars {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", cfg.BackendURL)
	assert.Equal(t, time.Duration(0), cfg.RequestTimeout)
	assert.Equal(t, 10*time.Minute, cfg.DocumentsTTL)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.CacheEnabled())
}

func TestLoad_EnvFileAndOverrides(t *testing.T) {
	clearEnv(t)
	file := filepath.Join(t.TempDir(), "console.env")
	require.NoError(t, os.WriteFile(file, []byte(
		"RAG_BACKEND_URL=http://rag.internal:9000\nREDIS_URL=cache:6379\nREDIS_DB=2\nLOG_LEVEL=debug\n",
	), 0o600))
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("RAG_REQUEST_TIMEOUT", "45s")

	cfg, err := Load(file)

	require.NoError(t, err)
	assert.Equal(t, "http://rag.internal:9000", cfg.BackendURL)
	assert.True(t, cfg.CacheEnabled())
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 45*time.Second, cfg.RequestTimeout)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string][2]string{
		"bad url":      {"RAG_BACKEND_URL", "not a url"},
		"bad level":    {"LOG_LEVEL", "chatty"},
		"bad duration": {"RAG_REQUEST_TIMEOUT", "soon"},
		"bad port":     {"PORT", "http"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(kv[0], kv[1])

			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))

			assert.Error(t, err)
		})
	}
}
