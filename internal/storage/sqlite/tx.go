package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mcoot/killergame/internal/model"
	"github.com/mcoot/killergame/internal/storage"
)

const playerColumns = "id, name, target_state, target_id, kills, kill_requested, is_admin, created_at, updated_at"

// tx implements storage.Tx over a database transaction.
// Writes go straight to the transaction, so callers must save rows in an order that
// keeps the unique target index satisfied after every statement.
type tx struct {
	tx       *sql.Tx
	readOnly bool
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlayer(row rowScanner) (*model.Player, error) {
	var (
		p        model.Player
		name     sql.NullString
		state    string
		targetID sql.NullInt64
	)
	if err := row.Scan(&p.ID, &name, &state, &targetID, &p.Kills, &p.KillRequested, &p.IsAdmin, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}

	if name.Valid {
		p.SetName(name.String)
	}
	switch model.TargetState(state) {
	case model.TargetAssigned:
		p.Target = model.AssignedTarget(model.PlayerID(targetID.Int64))
	case model.TargetWon:
		p.Target = model.WonTarget()
	default:
		p.Target = model.NoTarget()
	}
	return &p, nil
}

func (t *tx) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	row := t.tx.QueryRowContext(ctx, "SELECT "+playerColumns+" FROM players WHERE id = ?", int64(id))
	p, err := scanPlayer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, fmt.Errorf("get player: %w", err)
	}
	return p, nil
}

func (t *tx) SavePlayer(ctx context.Context, player *model.Player) error {
	if t.readOnly {
		return storage.ErrReadOnly
	}

	var name any
	if player.Name != nil {
		name = *player.Name
	}

	state := player.Target.State
	if state == "" {
		state = model.TargetNone
	}
	var targetID any
	if id, ok := player.Target.Assigned(); ok {
		targetID = int64(id)
	}

	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO players (`+playerColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			target_state = excluded.target_state,
			target_id = excluded.target_id,
			kills = excluded.kills,
			kill_requested = excluded.kill_requested,
			is_admin = excluded.is_admin,
			updated_at = excluded.updated_at
	`,
		int64(player.ID),
		name,
		string(state),
		targetID,
		player.Kills,
		player.KillRequested,
		player.IsAdmin,
		player.CreatedAt,
		player.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save player: %w", err)
	}
	return nil
}

func (t *tx) FindKiller(ctx context.Context, target model.PlayerID) (*model.Player, error) {
	row := t.tx.QueryRowContext(ctx,
		"SELECT "+playerColumns+" FROM players WHERE target_state = 'assigned' AND target_id = ?", int64(target))
	p, err := scanPlayer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, fmt.Errorf("find killer: %w", err)
	}
	return p, nil
}

func (t *tx) ListPlayers(ctx context.Context) ([]*model.Player, error) {
	rows, err := t.tx.QueryContext(ctx, "SELECT "+playerColumns+" FROM players ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var players []*model.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("list players: %w", err)
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	return players, nil
}
