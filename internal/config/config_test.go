package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/killergame/internal/model"
)

var keys = []string{
	"LISTEN_ADDR", "PORT", "STORAGE_TYPE", "REDIS_URL", "SQLITE_PATH",
	"OWNER_IDS", "API_KEY_HASHES", "LOCALE", "TX_MAX_ATTEMPTS", "LOG_LEVEL",
}

// clearEnv blanks every key for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "memory", cfg.StorageType)
	assert.Equal(t, "killergame.db", cfg.SQLitePath)
	assert.Empty(t, cfg.OwnerIDs)
	assert.Empty(t, cfg.APIKeyHashes)
	assert.Equal(t, "en", cfg.Locale)
	assert.Equal(t, 5, cfg.TxMaxAttempts)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("LISTEN_ADDR", "127.0.0.1")
	t.Setenv("PORT", "9000")
	t.Setenv("STORAGE_TYPE", "Redis")
	t.Setenv("REDIS_URL", "redis://cache:6379/1")
	t.Setenv("OWNER_IDS", " 42, -7 ,,")
	t.Setenv("API_KEY_HASHES", "$2a$10$a,$2a$10$b")
	t.Setenv("LOCALE", "ru")
	t.Setenv("TX_MAX_ATTEMPTS", "3")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "redis", cfg.StorageType)
	assert.Equal(t, "redis://cache:6379/1", cfg.RedisURL)
	assert.Equal(t, []model.PlayerID{42, -7}, cfg.OwnerIDs)
	assert.Equal(t, []string{"$2a$10$a", "$2a$10$b"}, cfg.APIKeyHashes)
	assert.Equal(t, "ru", cfg.Locale)
	assert.Equal(t, 3, cfg.TxMaxAttempts)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"port not a number", "PORT", "http"},
		{"port out of range", "PORT", "70000"},
		{"zero attempts", "TX_MAX_ATTEMPTS", "0"},
		{"owner not a number", "OWNER_IDS", "1,alice"},
		{"owner zero", "OWNER_IDS", "0"},
		{"unknown storage", "STORAGE_TYPE", "postgres"},
		{"unknown log level", "LOG_LEVEL", "loud"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestRedisRequiresURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_TYPE", "redis")

	_, err := FromEnv()
	assert.ErrorContains(t, err, "REDIS_URL")
}

func TestLoadReadsEnvFile(t *testing.T) {
	clearEnv(t)
	// godotenv only fills unset variables
	for _, k := range []string{"PORT", "LOCALE"} {
		require.NoError(t, os.Unsetenv(k))
	}

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("PORT=9100\nLOCALE=ru\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv("PORT")
		_ = os.Unsetenv("LOCALE")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "ru", cfg.Locale)
}

func TestLoadIgnoresMissingFile(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
}
