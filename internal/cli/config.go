package cli

import (
	"errors"
	"os"
	"strings"
)

// Config holds CLI configuration
type Config struct {
	ServerURL string
	APIKey    string
	PlayerID  string
	Output    string
	Verbose   bool
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL: getEnvOrDefault("KILLER_SERVER", "http://localhost:8080"),
		APIKey:    os.Getenv("KILLER_API_KEY"),
		PlayerID:  os.Getenv("KILLER_PLAYER"),
		Output:    "text",
		Verbose:   false,
	}
}

// Validate checks flag values that cobra cannot
func (c *Config) Validate() error {
	switch c.Output {
	case "text", "json":
	default:
		return errors.New("--output must be text or json")
	}
	if strings.TrimSpace(c.ServerURL) == "" {
		return errors.New("--server must not be empty")
	}
	return nil
}

// RequirePlayer returns an error when no acting player is configured
func (c *Config) RequirePlayer() error {
	if strings.TrimSpace(c.PlayerID) == "" {
		return errors.New("--player is required (env: KILLER_PLAYER)")
	}
	return nil
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
