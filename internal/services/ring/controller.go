// Package ring implements the assassination ring engine.
// Every mutating operation runs as one storage transaction and returns a model.Result
// describing what the transport must send; no game state is held in memory.
package ring

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mcoot/killergame/internal/dependencies/clock"
	"github.com/mcoot/killergame/internal/dependencies/random"
	"github.com/mcoot/killergame/internal/model"
	"github.com/mcoot/killergame/internal/storage"
)

const (
	// DefaultMaxAttempts bounds how often a conflicting transaction is retried
	DefaultMaxAttempts = 5

	retryBackoff = 10 * time.Millisecond
)

// Options configures a Controller
type Options struct {
	// Owners are always treated as admins, regardless of their stored flag
	Owners []model.PlayerID

	// MaxAttempts is the number of tries for a conflicting transaction (DefaultMaxAttempts if <= 0)
	MaxAttempts int
}

// Controller runs ring operations against the player store
type Controller struct {
	storage     storage.Storage
	clock       clock.Clock
	random      random.Random
	logger      *slog.Logger
	owners      map[model.PlayerID]bool
	maxAttempts int
}

// NewController creates a new ring Controller
func NewController(
	storage storage.Storage,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
	opts Options,
) *Controller {
	owners := make(map[model.PlayerID]bool, len(opts.Owners))
	for _, id := range opts.Owners {
		owners[id] = true
	}
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Controller{
		storage:     storage,
		clock:       clock,
		random:      random,
		logger:      logger.With(slog.String("component", "ring")),
		owners:      owners,
		maxAttempts: maxAttempts,
	}
}

// update runs fn in a read-write transaction, retrying transient conflicts.
// fn may run more than once, so it must not have side effects outside tx.
func (c *Controller) update(ctx context.Context, op string, fn func(tx storage.Tx) error) error {
	var err error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		err = c.storage.Update(ctx, fn)
		if !errors.Is(err, storage.ErrConflict) {
			return err
		}

		c.logger.Warn("transaction conflict, retrying",
			slog.String("op", op),
			slog.Int("attempt", attempt),
		)
		if attempt == c.maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * retryBackoff):
		}
	}

	c.logger.Error("transaction failed after retries",
		slog.String("op", op),
		slog.Int("attempts", c.maxAttempts),
	)
	return err
}

// view runs fn against a snapshot, retrying transient conflicts
func (c *Controller) view(ctx context.Context, op string, fn func(tx storage.Tx) error) error {
	var err error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		err = c.storage.View(ctx, fn)
		if !errors.Is(err, storage.ErrConflict) {
			return err
		}
		c.logger.Debug("snapshot invalidated, retrying",
			slog.String("op", op),
			slog.Int("attempt", attempt),
		)
	}
	return err
}

// loadOrCreate returns the player row, creating a default one if missing.
// The created row is not saved until the caller calls SavePlayer.
func (c *Controller) loadOrCreate(ctx context.Context, tx storage.Tx, id model.PlayerID) (*model.Player, bool, error) {
	p, err := tx.GetPlayer(ctx, id)
	if err == nil {
		return p, false, nil
	}
	if !errors.Is(err, model.ErrPlayerNotFound) {
		return nil, false, err
	}
	return model.NewPlayer(id, c.clock.Now()), true, nil
}

// save stamps UpdatedAt and persists the row
func (c *Controller) save(ctx context.Context, tx storage.Tx, p *model.Player) error {
	p.UpdatedAt = c.clock.Now()
	return tx.SavePlayer(ctx, p)
}

// isAdmin reports whether the player may run moderation operations
func (c *Controller) isAdmin(p *model.Player) bool {
	return p.IsAdmin || c.owners[p.ID]
}

// requireAdmin loads the actor and fails with ErrAccessDenied unless it is an admin or owner.
// An unknown actor is only accepted if it is a configured owner.
func (c *Controller) requireAdmin(ctx context.Context, tx storage.Tx, actor model.PlayerID) error {
	if c.owners[actor] {
		return nil
	}
	p, err := tx.GetPlayer(ctx, actor)
	if err != nil {
		if errors.Is(err, model.ErrPlayerNotFound) {
			return model.ErrAccessDenied
		}
		return err
	}
	if !c.isAdmin(p) {
		return model.ErrAccessDenied
	}
	return nil
}

// allPlayerIDs lists the id of every known player, the audience of a broadcast
func allPlayerIDs(players []*model.Player) []model.PlayerID {
	ids := make([]model.PlayerID, 0, len(players))
	for _, p := range players {
		ids = append(ids, p.ID)
	}
	return ids
}

// params builds outcome parameters from key/value pairs
func params(kv ...string) map[string]string {
	m := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i]] = kv[i+1]
	}
	return m
}
