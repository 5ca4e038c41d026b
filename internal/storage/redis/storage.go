package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/killergame/internal/model"
	"github.com/mcoot/killergame/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface.
// Transactions are optimistic: every key read is WATCHed and all writes are applied
// in one MULTI/EXEC, which aborts with storage.ErrConflict if a watched key changed.
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) Update(ctx context.Context, fn func(tx storage.Tx) error) error {
	err := s.client.Watch(ctx, func(rtx *redis.Tx) error {
		tx := newTx(rtx, false)
		if err := fn(tx); err != nil {
			return err
		}
		return tx.commit(ctx)
	})
	return mapTxError(err)
}

func (s *Storage) View(ctx context.Context, fn func(tx storage.Tx) error) error {
	err := s.client.Watch(ctx, func(rtx *redis.Tx) error {
		tx := newTx(rtx, true)
		if err := fn(tx); err != nil {
			return err
		}
		// An empty EXEC fails if anything we read changed meanwhile
		return tx.commit(ctx)
	})
	return mapTxError(err)
}

func mapTxError(err error) error {
	if errors.Is(err, redis.TxFailedErr) {
		return storage.ErrConflict
	}
	return err
}

// tx buffers writes and remembers the committed state of every row it touched
type tx struct {
	rtx      *redis.Tx
	readOnly bool

	watched map[string]bool
	loaded  map[model.PlayerID]*model.Player // nil value means the row does not exist
	writes  map[model.PlayerID]*model.Player
	order   []model.PlayerID
}

func newTx(rtx *redis.Tx, readOnly bool) *tx {
	return &tx{
		rtx:      rtx,
		readOnly: readOnly,
		watched:  make(map[string]bool),
		loaded:   make(map[model.PlayerID]*model.Player),
		writes:   make(map[model.PlayerID]*model.Player),
	}
}

func (t *tx) watch(ctx context.Context, keys ...string) error {
	var fresh []string
	for _, k := range keys {
		if !t.watched[k] {
			t.watched[k] = true
			fresh = append(fresh, k)
		}
	}
	if len(fresh) == 0 {
		return nil
	}
	return t.rtx.Watch(ctx, fresh...).Err()
}

// load returns the committed row, watching its key
func (t *tx) load(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	if p, ok := t.loaded[id]; ok {
		return p, nil
	}

	key := playerKey(id)
	if err := t.watch(ctx, key); err != nil {
		return nil, err
	}

	data, err := t.rtx.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			t.loaded[id] = nil
			return nil, nil
		}
		return nil, err
	}

	var player model.Player
	if err := json.Unmarshal(data, &player); err != nil {
		return nil, err
	}
	t.loaded[id] = &player
	return &player, nil
}

func (t *tx) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	if p, ok := t.writes[id]; ok {
		return p.Clone(), nil
	}
	p, err := t.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, model.ErrPlayerNotFound
	}
	return p.Clone(), nil
}

func (t *tx) SavePlayer(ctx context.Context, player *model.Player) error {
	if t.readOnly {
		return storage.ErrReadOnly
	}
	// The committed row is needed to maintain the target index on commit
	if _, err := t.load(ctx, player.ID); err != nil {
		return err
	}
	if _, ok := t.writes[player.ID]; !ok {
		t.order = append(t.order, player.ID)
	}
	t.writes[player.ID] = player.Clone()
	return nil
}

func (t *tx) FindKiller(ctx context.Context, target model.PlayerID) (*model.Player, error) {
	// Pending writes take precedence over the committed index
	for _, id := range t.order {
		if assigned, ok := t.writes[id].Target.Assigned(); ok && assigned == target {
			return t.writes[id].Clone(), nil
		}
	}

	key := targetIndexKey(target)
	if err := t.watch(ctx, key); err != nil {
		return nil, err
	}

	raw, err := t.rtx.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	killerID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, err
	}

	killer, err := t.GetPlayer(ctx, model.PlayerID(killerID))
	if err != nil {
		return nil, err
	}
	if assigned, ok := killer.Target.Assigned(); !ok || assigned != target {
		return nil, model.ErrPlayerNotFound
	}
	return killer, nil
}

func (t *tx) ListPlayers(ctx context.Context) ([]*model.Player, error) {
	if err := t.watch(ctx, playersIndexKey()); err != nil {
		return nil, err
	}

	members, err := t.rtx.SMembers(ctx, playersIndexKey()).Result()
	if err != nil {
		return nil, err
	}

	seen := make(map[model.PlayerID]bool, len(members)+len(t.writes))
	ids := make([]model.PlayerID, 0, len(members)+len(t.writes))
	for _, m := range members {
		v, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue // Skip invalid data
		}
		id := model.PlayerID(v)
		seen[id] = true
		ids = append(ids, id)
	}
	for _, id := range t.order {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	players := make([]*model.Player, 0, len(ids))
	for _, id := range ids {
		p, err := t.GetPlayer(ctx, id)
		if err != nil {
			if errors.Is(err, model.ErrPlayerNotFound) {
				continue
			}
			return nil, err
		}
		players = append(players, p)
	}
	return players, nil
}

// commit applies buffered writes in one MULTI/EXEC
func (t *tx) commit(ctx context.Context) error {
	var staleIndexKeys []string
	type indexEntry struct {
		key    string
		killer model.PlayerID
	}
	var newIndex []indexEntry

	for _, id := range t.order {
		next := t.writes[id]
		newTarget, hasNew := next.Target.Assigned()

		var oldTarget model.PlayerID
		hadOld := false
		if prev := t.loaded[id]; prev != nil {
			oldTarget, hadOld = prev.Target.Assigned()
		}

		if hadOld && (!hasNew || newTarget != oldTarget) {
			// Only drop the index entry if it still points at this player
			key := targetIndexKey(oldTarget)
			if err := t.watch(ctx, key); err != nil {
				return err
			}
			current, err := t.rtx.Get(ctx, key).Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				return err
			}
			if current == id.String() {
				staleIndexKeys = append(staleIndexKeys, key)
			}
		}
		if hasNew && (!hadOld || newTarget != oldTarget) {
			newIndex = append(newIndex, indexEntry{key: targetIndexKey(newTarget), killer: id})
		}
	}

	_, err := t.rtx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range t.order {
			data, err := json.Marshal(t.writes[id])
			if err != nil {
				return err
			}
			pipe.Set(ctx, playerKey(id), data, 0)
			pipe.SAdd(ctx, playersIndexKey(), id.String())
		}
		// Deletes first so a key moved between players in this tx ends up set
		for _, key := range staleIndexKeys {
			pipe.Del(ctx, key)
		}
		for _, e := range newIndex {
			pipe.Set(ctx, e.key, e.killer.String(), 0)
		}
		if len(t.order) == 0 {
			pipe.Ping(ctx)
		}
		return nil
	})
	return err
}
