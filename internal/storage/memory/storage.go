package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mcoot/killergame/internal/model"
	"github.com/mcoot/killergame/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// Update transactions are serialized by a single lock, so they never conflict.
type Storage struct {
	mu      sync.RWMutex
	players map[model.PlayerID]*model.Player
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		players: make(map[model.PlayerID]*model.Player),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) Update(ctx context.Context, fn func(tx storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{s: s, writes: make(map[model.PlayerID]*model.Player)}
	if err := fn(tx); err != nil {
		return err
	}

	// Commit buffered writes
	for id, p := range tx.writes {
		s.players[id] = p
	}
	return nil
}

func (s *Storage) View(ctx context.Context, fn func(tx storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return fn(&memTx{s: s, readOnly: true})
}

func (s *Storage) Close() error {
	return nil
}

// memTx reads through to the committed map and buffers writes until commit
type memTx struct {
	s        *Storage
	readOnly bool
	writes   map[model.PlayerID]*model.Player
}

func (t *memTx) lookup(id model.PlayerID) (*model.Player, bool) {
	if p, ok := t.writes[id]; ok {
		return p, true
	}
	p, ok := t.s.players[id]
	return p, ok
}

func (t *memTx) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	p, ok := t.lookup(id)
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return p.Clone(), nil
}

func (t *memTx) SavePlayer(ctx context.Context, player *model.Player) error {
	if t.readOnly {
		return storage.ErrReadOnly
	}
	t.writes[player.ID] = player.Clone()
	return nil
}

func (t *memTx) FindKiller(ctx context.Context, target model.PlayerID) (*model.Player, error) {
	players, err := t.ListPlayers(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range players {
		if id, ok := p.Target.Assigned(); ok && id == target {
			return p, nil
		}
	}
	return nil, model.ErrPlayerNotFound
}

func (t *memTx) ListPlayers(ctx context.Context) ([]*model.Player, error) {
	ids := make([]model.PlayerID, 0, len(t.s.players)+len(t.writes))
	for id := range t.s.players {
		ids = append(ids, id)
	}
	for id := range t.writes {
		if _, ok := t.s.players[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	players := make([]*model.Player, 0, len(ids))
	for _, id := range ids {
		p, _ := t.lookup(id)
		players = append(players, p.Clone())
	}
	return players, nil
}
