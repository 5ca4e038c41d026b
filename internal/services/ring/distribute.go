package ring

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/mcoot/killergame/internal/dependencies/random"
	"github.com/mcoot/killergame/internal/model"
	"github.com/mcoot/killergame/internal/storage"
)

// BuildRing shuffles the players and links each to the next one, the last wrapping to the first.
// The returned map is killer id -> target id and always forms a single cycle over all players.
func BuildRing(r random.Random, players []model.PlayerID) map[model.PlayerID]model.PlayerID {
	order := make([]model.PlayerID, len(players))
	copy(order, players)
	random.Shuffle(r, len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	ring := make(map[model.PlayerID]model.PlayerID, len(order))
	for i, id := range order {
		ring[id] = order[(i+1)%len(order)]
	}
	return ring
}

// Distribute starts a round for every registered player without a target.
// Players already in a round are untouched, so a second call mid-round forms a separate cycle.
func (c *Controller) Distribute(ctx context.Context, actor model.PlayerID) (*model.Result, error) {
	var (
		result model.Result
		count  int
	)
	err := c.update(ctx, "distribute", func(tx storage.Tx) error {
		result = model.Result{}

		if err := c.requireAdmin(ctx, tx, actor); err != nil {
			return err
		}

		players, err := tx.ListPlayers(ctx)
		if err != nil {
			return err
		}

		byID := make(map[model.PlayerID]*model.Player)
		var eligible []model.PlayerID
		for _, p := range players {
			if p.IsRegistered() && !p.Target.IsSet() {
				byID[p.ID] = p
				eligible = append(eligible, p.ID)
			}
		}
		if len(eligible) < 2 {
			return model.ErrInsufficientPlayers
		}
		count = len(eligible)

		ring := BuildRing(c.random, eligible)
		for _, id := range eligible {
			killer := byID[id]
			killer.Target = model.AssignedTarget(ring[id])
			killer.KillRequested = false
			if err := c.save(ctx, tx, killer); err != nil {
				return err
			}
		}

		for _, id := range eligible {
			result.Add(model.Notify(id, model.MsgTargetAssigned,
				params(model.ParamTarget, byID[ring[id]].DisplayName())))
		}
		result.Add(model.Reply(model.MsgDistributed, params(model.ParamCount, strconv.Itoa(count))))
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("targets distributed",
		slog.Int64("actor_id", int64(actor)),
		slog.Int("player_count", count),
	)
	return &result, nil
}
