package storage

import (
	"context"
	"errors"

	"github.com/mcoot/killergame/internal/model"
)

var (
	// ErrConflict is returned by Update when a concurrent writer invalidated the transaction.
	// It is transient; callers may retry the whole transaction.
	ErrConflict = errors.New("storage: transaction conflict")

	// ErrReadOnly is returned when writing inside a View transaction
	ErrReadOnly = errors.New("storage: read-only transaction")
)

// Tx is a unit of work against the player store.
// Players returned from a Tx are copies; changes only persist through SavePlayer.
type Tx interface {
	// GetPlayer returns the player row, or model.ErrPlayerNotFound
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)

	// SavePlayer inserts or replaces the player row
	SavePlayer(ctx context.Context, player *model.Player) error

	// FindKiller returns the player whose target is assigned to the given id,
	// or model.ErrPlayerNotFound
	FindKiller(ctx context.Context, target model.PlayerID) (*model.Player, error)

	// ListPlayers returns every known player ordered by id
	ListPlayers(ctx context.Context) ([]*model.Player, error)
}

// Storage defines the interface for data persistence.
// All writes of one Update become visible together or not at all.
type Storage interface {
	// Update runs fn in a read-write transaction. If fn returns an error nothing is written.
	Update(ctx context.Context, fn func(tx Tx) error) error

	// View runs fn against a consistent snapshot
	View(ctx context.Context, fn func(tx Tx) error) error

	// Close releases backend resources
	Close() error
}
