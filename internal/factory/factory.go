package factory

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/killergame/internal/api/sse"
	"github.com/mcoot/killergame/internal/dependencies/clock"
	"github.com/mcoot/killergame/internal/dependencies/random"
	"github.com/mcoot/killergame/internal/model"
	"github.com/mcoot/killergame/internal/services/auth"
	"github.com/mcoot/killergame/internal/services/notify"
	"github.com/mcoot/killergame/internal/services/render"
	"github.com/mcoot/killergame/internal/services/ring"
	"github.com/mcoot/killergame/internal/storage"
	"github.com/mcoot/killergame/internal/storage/memory"
	redisstorage "github.com/mcoot/killergame/internal/storage/redis"
	"github.com/mcoot/killergame/internal/storage/sqlite"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
	StorageTypeSQLite = "sqlite"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Controller  *ring.Controller
	Renderer    *render.Renderer
	Dispatcher  *notify.Dispatcher
	AuthService *auth.Service
	HubManager  *sse.HubManager
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or "sqlite")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SQLitePath is the database file (required if StorageType is "sqlite")
	SQLitePath string
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig() with no keys
	AuthConfig auth.Config
	// Owners are players that are always admins
	Owners []model.PlayerID
	// MaxAttempts bounds transaction retries (optional)
	MaxAttempts int
	// Locale selects the message catalog (optional, defaults to English)
	Locale string
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, err := openStorage(cfg)
	if err != nil {
		return nil, err
	}

	app, err := newWithDependencies(store, clock.New(), random.New(), cfg, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return app, nil
}

// openStorage creates the storage backend selected by the config
func openStorage(cfg Config) (storage.Storage, error) {
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		return memory.New(), nil
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		return redisstorage.New(*cfg.RedisConfig)
	case StorageTypeSQLite:
		if cfg.SQLitePath == "" {
			return nil, errors.New("SQLitePath required when StorageType is sqlite")
		}
		return sqlite.Open(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be 'memory', 'redis' or 'sqlite'", storageType)
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, cfg Config, logger *slog.Logger) (*App, error) {
	renderer, err := render.New(cfg.Locale)
	if err != nil {
		return nil, err
	}

	authService, err := auth.New(clk, cfg.AuthConfig)
	if err != nil {
		return nil, err
	}

	hubManager := sse.NewHubManager(logger)
	dispatcher := notify.NewDispatcher(renderer, hubManager, logger)
	controller := ring.NewController(store, clk, rnd, logger, ring.Options{
		Owners:      cfg.Owners,
		MaxAttempts: cfg.MaxAttempts,
	})

	return &App{
		Storage:     store,
		Clock:       clk,
		Random:      rnd,
		Controller:  controller,
		Renderer:    renderer,
		Dispatcher:  dispatcher,
		AuthService: authService,
		HubManager:  hubManager,
	}, nil
}

// Close releases the hubs and the storage backend
func (a *App) Close() error {
	a.HubManager.Close()
	return a.Storage.Close()
}
