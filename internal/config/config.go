// Package config reads server settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/mcoot/killergame/internal/model"
)

// Config holds the server settings
type Config struct {
	Host          string
	Port          int
	StorageType   string
	RedisURL      string
	SQLitePath    string
	OwnerIDs      []model.PlayerID
	APIKeyHashes  []string
	Locale        string
	TxMaxAttempts int
	LogLevel      slog.Level
}

// Load reads the given .env files (".env" if none) and then the environment.
// Missing files are ignored; variables already set in the environment win.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables, applying defaults
func FromEnv() (*Config, error) {
	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil || port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid PORT %q", os.Getenv("PORT"))
	}

	attempts, err := strconv.Atoi(getEnv("TX_MAX_ATTEMPTS", "5"))
	if err != nil || attempts <= 0 {
		return nil, fmt.Errorf("invalid TX_MAX_ATTEMPTS %q", os.Getenv("TX_MAX_ATTEMPTS"))
	}

	owners, err := parseOwners(getEnv("OWNER_IDS", ""))
	if err != nil {
		return nil, err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	cfg := &Config{
		Host:          getEnv("LISTEN_ADDR", ""),
		Port:          port,
		StorageType:   strings.ToLower(getEnv("STORAGE_TYPE", "memory")),
		RedisURL:      getEnv("REDIS_URL", ""),
		SQLitePath:    getEnv("SQLITE_PATH", "killergame.db"),
		OwnerIDs:      owners,
		APIKeyHashes:  splitList(getEnv("API_KEY_HASHES", "")),
		Locale:        getEnv("LOCALE", "en"),
		TxMaxAttempts: attempts,
		LogLevel:      level,
	}

	switch cfg.StorageType {
	case "memory", "sqlite":
	case "redis":
		if cfg.RedisURL == "" {
			return nil, errors.New("REDIS_URL required when STORAGE_TYPE=redis")
		}
	default:
		return nil, fmt.Errorf("invalid STORAGE_TYPE %q: must be memory, redis or sqlite", cfg.StorageType)
	}

	return cfg, nil
}

func parseOwners(raw string) ([]model.PlayerID, error) {
	var owners []model.PlayerID
	for _, part := range splitList(raw) {
		id, err := model.ParsePlayerID(part)
		if err != nil {
			return nil, fmt.Errorf("invalid OWNER_IDS entry %q: %w", part, err)
		}
		owners = append(owners, id)
	}
	return owners, nil
}

// splitList splits a comma-separated value, dropping empty entries
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
