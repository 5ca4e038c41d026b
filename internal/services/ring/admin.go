package ring

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/mcoot/killergame/internal/model"
	"github.com/mcoot/killergame/internal/storage"
)

// Reset ends the current round and clears every tally. Names and admin flags survive.
func (c *Controller) Reset(ctx context.Context, actor model.PlayerID) (*model.Result, error) {
	var (
		result model.Result
		count  int
	)
	err := c.update(ctx, "reset", func(tx storage.Tx) error {
		result = model.Result{}
		count = 0

		if err := c.requireAdmin(ctx, tx, actor); err != nil {
			return err
		}

		players, err := tx.ListPlayers(ctx)
		if err != nil {
			return err
		}
		for _, p := range players {
			p.Kills = 0
			p.Target = model.NoTarget()
			p.KillRequested = false
			if err := c.save(ctx, tx, p); err != nil {
				return err
			}
		}
		count = len(players)

		result.Add(model.Reply(model.MsgReset, params(model.ParamCount, strconv.Itoa(count))))
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("game reset",
		slog.Int64("actor_id", int64(actor)),
		slog.Int("player_count", count),
	)
	return &result, nil
}

// SetAdmin grants or revokes the admin flag of another player
func (c *Controller) SetAdmin(ctx context.Context, actor, target model.PlayerID, grant bool) (*model.Result, error) {
	var result model.Result
	err := c.update(ctx, "set_admin", func(tx storage.Tx) error {
		result = model.Result{}

		if err := c.requireAdmin(ctx, tx, actor); err != nil {
			return err
		}

		p, err := tx.GetPlayer(ctx, target)
		if err != nil {
			return err
		}

		reply := params(
			model.ParamPlayer, playerLabel(p),
			model.ParamGrant, strconv.FormatBool(grant),
		)
		if p.IsAdmin == grant {
			result.NoOp = true
			result.Add(model.Reply(model.MsgAdminUnchanged, reply))
			return nil
		}

		p.IsAdmin = grant
		if err := c.save(ctx, tx, p); err != nil {
			return err
		}
		result.Add(model.Reply(model.MsgAdminChanged, reply))
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.NoOp {
		c.logger.Info("admin flag changed",
			slog.Int64("actor_id", int64(actor)),
			slog.Int64("player_id", int64(target)),
			slog.Bool("grant", grant),
		)
	}
	return &result, nil
}

// Ring returns an audit of the current target graph. Admin only.
func (c *Controller) Ring(ctx context.Context, actor model.PlayerID) (*model.RingReport, error) {
	var report model.RingReport
	err := c.view(ctx, "ring", func(tx storage.Tx) error {
		if err := c.requireAdmin(ctx, tx, actor); err != nil {
			return err
		}
		players, err := tx.ListPlayers(ctx)
		if err != nil {
			return err
		}
		report = Analyze(players)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// playerLabel is the display name, falling back to the id for unregistered players
func playerLabel(p *model.Player) string {
	if p.IsRegistered() {
		return p.DisplayName()
	}
	return "#" + p.ID.String()
}
