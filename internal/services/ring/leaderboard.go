package ring

import (
	"context"
	"sort"

	"github.com/mcoot/killergame/internal/model"
	"github.com/mcoot/killergame/internal/storage"
)

// Leaderboard returns registered players by kills, highest first. Ties keep id order.
func (c *Controller) Leaderboard(ctx context.Context) ([]model.LeaderboardEntry, error) {
	var entries []model.LeaderboardEntry
	err := c.view(ctx, "leaderboard", func(tx storage.Tx) error {
		players, err := tx.ListPlayers(ctx)
		if err != nil {
			return err
		}

		entries = make([]model.LeaderboardEntry, 0, len(players))
		for _, p := range players {
			if !p.IsRegistered() {
				continue
			}
			entries = append(entries, model.LeaderboardEntry{
				PlayerID: p.ID,
				Name:     p.DisplayName(),
				Kills:    p.Kills,
				Alive:    p.Alive(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Kills > entries[j].Kills
	})
	return entries, nil
}
