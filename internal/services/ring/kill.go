package ring

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mcoot/killergame/internal/model"
	"github.com/mcoot/killergame/internal/storage"
)

// RequestKill records the killer's claim that their target is eliminated and asks the target to confirm.
// A repeated request while the claim is pending is a no-op.
func (c *Controller) RequestKill(ctx context.Context, killerID model.PlayerID) (*model.Result, error) {
	var (
		result   model.Result
		targetID model.PlayerID
	)
	err := c.update(ctx, "request_kill", func(tx storage.Tx) error {
		result = model.Result{}

		killer, err := tx.GetPlayer(ctx, killerID)
		if err != nil {
			if errors.Is(err, model.ErrPlayerNotFound) {
				return model.ErrStaleClaim
			}
			return err
		}
		var ok bool
		targetID, ok = killer.Target.Assigned()
		if !ok {
			return model.ErrStaleClaim
		}

		if killer.KillRequested {
			result.NoOp = true
			result.Add(model.Reply(model.MsgKillAwaiting, nil))
			return nil
		}

		killer.KillRequested = true
		if err := c.save(ctx, tx, killer); err != nil {
			return err
		}

		result.Add(
			model.Notify(targetID, model.MsgKillPrompt, params(model.ParamKiller, killer.DisplayName())),
			model.Reply(model.MsgKillAwaiting, nil),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.NoOp {
		c.logger.Info("kill requested",
			slog.Int64("killer_id", int64(killerID)),
			slog.Int64("target_id", int64(targetID)),
		)
	}
	return &result, nil
}

// pendingKiller returns the player with an outstanding claim against the confirmer, or ErrStaleClaim
func pendingKiller(ctx context.Context, tx storage.Tx, confirmerID model.PlayerID) (*model.Player, error) {
	killer, err := tx.FindKiller(ctx, confirmerID)
	if err != nil {
		if errors.Is(err, model.ErrPlayerNotFound) {
			return nil, model.ErrStaleClaim
		}
		return nil, err
	}
	if !killer.KillRequested {
		return nil, model.ErrStaleClaim
	}
	return killer, nil
}

// ConfirmKill is called by the claimed victim to accept their elimination.
// The killer inherits the victim's target; if that is the killer itself, the killer wins.
func (c *Controller) ConfirmKill(ctx context.Context, confirmerID model.PlayerID) (*model.Result, error) {
	var (
		result model.Result
		killer *model.Player
		won    bool
	)
	err := c.update(ctx, "confirm_kill", func(tx storage.Tx) error {
		result = model.Result{}
		won = false

		var err error
		killer, err = pendingKiller(ctx, tx, confirmerID)
		if err != nil {
			return err
		}
		confirmer, err := tx.GetPlayer(ctx, confirmerID)
		if err != nil {
			return err
		}
		next, ok := confirmer.Target.Assigned()
		if !ok {
			// A player being hunted is always in the ring
			return model.ErrStaleClaim
		}

		// The confirmer's row goes first so its target is free before the killer takes it
		confirmer.Target = model.NoTarget()
		confirmer.KillRequested = false
		if err := c.save(ctx, tx, confirmer); err != nil {
			return err
		}

		killer.KillRequested = false
		killer.Kills++
		if next == killer.ID {
			killer.Target = model.WonTarget()
			won = true
		} else {
			killer.Target = model.AssignedTarget(next)
		}
		if err := c.save(ctx, tx, killer); err != nil {
			return err
		}

		if won {
			players, err := tx.ListPlayers(ctx)
			if err != nil {
				return err
			}
			result.Add(model.Broadcast(allPlayerIDs(players), model.MsgGameOver,
				params(model.ParamWinner, killer.DisplayName())))
			return nil
		}

		nextPlayer, err := tx.GetPlayer(ctx, next)
		if err != nil {
			return err
		}
		result.Add(
			model.Notify(killer.ID, model.MsgKillConfirmed, params(model.ParamTarget, nextPlayer.DisplayName())),
			model.Reply(model.MsgKillEliminated, params(model.ParamKiller, killer.DisplayName())),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("kill confirmed",
		slog.Int64("killer_id", int64(killer.ID)),
		slog.Int64("victim_id", int64(confirmerID)),
		slog.Int("kills", killer.Kills),
	)
	if won {
		c.logger.Info("game over", slog.Int64("winner_id", int64(killer.ID)))
	}
	return &result, nil
}

// DenyKill is called by the claimed victim to reject the claim. Targets and kills are unchanged.
func (c *Controller) DenyKill(ctx context.Context, confirmerID model.PlayerID) (*model.Result, error) {
	var (
		result model.Result
		killer *model.Player
	)
	err := c.update(ctx, "deny_kill", func(tx storage.Tx) error {
		result = model.Result{}

		var err error
		killer, err = pendingKiller(ctx, tx, confirmerID)
		if err != nil {
			return err
		}
		confirmer, err := tx.GetPlayer(ctx, confirmerID)
		if err != nil {
			return err
		}

		killer.KillRequested = false
		if err := c.save(ctx, tx, killer); err != nil {
			return err
		}

		result.Add(
			model.Notify(killer.ID, model.MsgKillDenied, params(model.ParamTarget, confirmer.DisplayName())),
			model.Reply(model.MsgKillDenyAck, params(model.ParamKiller, killer.DisplayName())),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("kill denied",
		slog.Int64("killer_id", int64(killer.ID)),
		slog.Int64("victim_id", int64(confirmerID)),
	)
	return &result, nil
}
