package ring

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/mcoot/killergame/internal/model"
	"github.com/mcoot/killergame/internal/storage"
)

// MaxNameLength is the longest accepted display name, in runes
const MaxNameLength = 64

// NormalizeName trims and NFC-normalises a display name, rejecting empty,
// overlong or control-character names with model.ErrInvalidName
func NormalizeName(name string) (string, error) {
	name = norm.NFC.String(strings.TrimSpace(name))
	if !utf8.ValidString(name) {
		return "", model.ErrInvalidName
	}
	n := utf8.RuneCountInString(name)
	if n == 0 || n > MaxNameLength {
		return "", model.ErrInvalidName
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return "", model.ErrInvalidName
		}
	}
	return name, nil
}

// Touch records a player on first contact
func (c *Controller) Touch(ctx context.Context, id model.PlayerID) (*model.Result, error) {
	var result model.Result
	err := c.update(ctx, "touch", func(tx storage.Tx) error {
		result = model.Result{}
		p, created, err := c.loadOrCreate(ctx, tx, id)
		if err != nil {
			return err
		}
		if created {
			if err := c.save(ctx, tx, p); err != nil {
				return err
			}
		} else {
			result.NoOp = true
		}
		result.Add(model.Reply(model.MsgWelcome, params(model.ParamName, p.DisplayName())))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Register sets the player's display name, creating the row if needed.
// Renaming is allowed during a round since names do not affect the ring.
func (c *Controller) Register(ctx context.Context, id model.PlayerID, name string) (*model.Result, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return nil, err
	}

	var result model.Result
	err = c.update(ctx, "register", func(tx storage.Tx) error {
		result = model.Result{}
		p, _, err := c.loadOrCreate(ctx, tx, id)
		if err != nil {
			return err
		}
		if p.IsRegistered() && p.DisplayName() == name {
			result.NoOp = true
		} else {
			p.SetName(name)
			if err := c.save(ctx, tx, p); err != nil {
				return err
			}
		}
		result.Add(model.Reply(model.MsgRegistered, params(model.ParamName, name)))
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.NoOp {
		c.logger.Info("player registered",
			slog.Int64("player_id", int64(id)),
			slog.String("name", name),
		)
	}
	return &result, nil
}

// Cancel withdraws the player's registration.
// A player in an active round gets a confirmation-required result instead, see ConfirmCancel.
func (c *Controller) Cancel(ctx context.Context, id model.PlayerID) (*model.Result, error) {
	var result model.Result
	err := c.update(ctx, "cancel", func(tx storage.Tx) error {
		result = model.Result{}
		p, err := tx.GetPlayer(ctx, id)
		if errors.Is(err, model.ErrPlayerNotFound) {
			result.NoOp = true
			result.Add(model.Reply(model.MsgCancelled, nil))
			return nil
		}
		if err != nil {
			return err
		}

		if p.Target.IsSet() {
			result.ConfirmationRequired = true
			result.Add(model.Reply(model.MsgCancelConfirmRequired, params(model.ParamName, p.DisplayName())))
			return nil
		}
		return c.withdraw(ctx, tx, p, &result)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// withdraw clears the name of a player outside any round
func (c *Controller) withdraw(ctx context.Context, tx storage.Tx, p *model.Player, result *model.Result) error {
	if !p.IsRegistered() {
		result.NoOp = true
	} else {
		p.ClearName()
		if err := c.save(ctx, tx, p); err != nil {
			return err
		}
	}
	result.Add(model.Reply(model.MsgCancelled, nil))
	return nil
}

// ConfirmCancel removes the player from the game even mid-round.
// The leaver's predecessor inherits the leaver's target without a kill being credited,
// so the cycle stays intact. If that leaves the predecessor alone, it wins.
func (c *Controller) ConfirmCancel(ctx context.Context, id model.PlayerID) (*model.Result, error) {
	var (
		result    model.Result
		spliced   bool
		heir      model.PlayerID
		gameEnded bool
	)
	err := c.update(ctx, "confirm_cancel", func(tx storage.Tx) error {
		result = model.Result{}
		spliced, gameEnded, heir = false, false, 0

		p, err := tx.GetPlayer(ctx, id)
		if errors.Is(err, model.ErrPlayerNotFound) {
			result.NoOp = true
			result.Add(model.Reply(model.MsgCancelled, nil))
			return nil
		}
		if err != nil {
			return err
		}
		if !p.Target.IsSet() {
			return c.withdraw(ctx, tx, p, &result)
		}

		next, hasNext := p.Target.Assigned()
		var pred *model.Player
		if hasNext {
			pred, err = tx.FindKiller(ctx, id)
			if err != nil && !errors.Is(err, model.ErrPlayerNotFound) {
				return err
			}
		}

		// The leaver's row goes first so its target is free before the predecessor takes it
		p.Target = model.NoTarget()
		p.KillRequested = false
		p.ClearName()
		if err := c.save(ctx, tx, p); err != nil {
			return err
		}

		if pred != nil {
			spliced = true
			heir = pred.ID
			pred.KillRequested = false
			if next == pred.ID {
				pred.Target = model.WonTarget()
				gameEnded = true
			} else {
				pred.Target = model.AssignedTarget(next)
			}
			if err := c.save(ctx, tx, pred); err != nil {
				return err
			}

			if gameEnded {
				players, err := tx.ListPlayers(ctx)
				if err != nil {
					return err
				}
				result.Add(model.Broadcast(allPlayerIDs(players), model.MsgGameOver,
					params(model.ParamWinner, pred.DisplayName())))
			} else {
				nextPlayer, err := tx.GetPlayer(ctx, next)
				if err != nil {
					return err
				}
				result.Add(model.Notify(pred.ID, model.MsgTargetReassigned,
					params(model.ParamTarget, nextPlayer.DisplayName())))
			}
		}

		result.Add(model.Reply(model.MsgWithdrawn, nil))
		return nil
	})
	if err != nil {
		return nil, err
	}

	if spliced {
		c.logger.Info("player left mid-round",
			slog.Int64("player_id", int64(id)),
			slog.Int64("heir_id", int64(heir)),
			slog.Bool("game_over", gameEnded),
		)
	}
	return &result, nil
}

// Status returns the player's own view of the game. Unknown players are reported as unregistered.
func (c *Controller) Status(ctx context.Context, id model.PlayerID) (*model.Status, error) {
	status := &model.Status{PlayerID: id}
	err := c.view(ctx, "status", func(tx storage.Tx) error {
		*status = model.Status{PlayerID: id}

		players, err := tx.ListPlayers(ctx)
		if err != nil {
			return err
		}

		byID := make(map[model.PlayerID]*model.Player, len(players))
		for _, p := range players {
			byID[p.ID] = p
			if p.IsRegistered() {
				status.RegisteredCount++
			}
		}

		p, ok := byID[id]
		if !ok {
			status.IsAdmin = c.owners[id]
			return nil
		}

		status.Registered = p.IsRegistered()
		status.Name = p.DisplayName()
		status.Kills = p.Kills
		status.KillRequested = p.KillRequested
		status.IsAdmin = c.isAdmin(p)
		status.Won = p.Target.IsWon()
		if targetID, ok := p.Target.Assigned(); ok {
			status.HasTarget = true
			if t, ok := byID[targetID]; ok {
				status.TargetName = t.DisplayName()
			}
			if status.TargetName == "" {
				status.TargetName = "#" + targetID.String()
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return status, nil
}
