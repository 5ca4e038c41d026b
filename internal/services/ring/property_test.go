package ring

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/killergame/internal/dependencies/mocks"
	"github.com/mcoot/killergame/internal/dependencies/random"
	"github.com/mcoot/killergame/internal/model"
	"github.com/mcoot/killergame/internal/storage"
	"github.com/mcoot/killergame/internal/storage/memory"
	"github.com/mcoot/killergame/internal/testutil"
)

// After any sequence of claims, confirms and denies the ring stays a single cycle until one player wins
func TestRandomGamesKeepSingleCycle(t *testing.T) {
	ctx := context.Background()
	const gm model.PlayerID = 1000

	for game := 0; game < 20; game++ {
		store := memory.New()
		controller := NewController(store, mocks.NewMockClock(time.Now()), random.New(),
			testutil.NopLogger(), Options{Owners: []model.PlayerID{gm}})
		rng := rand.New(rand.NewSource(int64(game)))

		n := 2 + rng.Intn(9)
		for i := 1; i <= n; i++ {
			id := model.PlayerID(i)
			_, err := controller.Register(ctx, id, "P"+id.String())
			require.NoError(t, err)
		}
		_, err := controller.Distribute(ctx, gm)
		require.NoError(t, err)

		winners := 0
		for step := 0; step < 200 && winners == 0; step++ {
			list := listPlayers(t, store)
			report := Analyze(list)
			require.True(t, report.Healthy(), report.Violations)
			require.Len(t, report.Cycles, 1)

			cycle := report.Cycles[0]
			killer := cycle[rng.Intn(len(cycle))]
			victim := cycle[(indexOf(cycle, killer)+1)%len(cycle)]

			_, err := controller.RequestKill(ctx, killer)
			require.NoError(t, err)

			if rng.Intn(3) == 0 {
				_, err = controller.DenyKill(ctx, victim)
				require.NoError(t, err)
				continue
			}
			result, err := controller.ConfirmKill(ctx, victim)
			require.NoError(t, err)
			winners += len(result.OutcomesOfKind(model.OutcomeBroadcast))
		}

		report := Analyze(listPlayers(t, store))
		assert.Equal(t, 1, winners)
		assert.True(t, report.Healthy(), report.Violations)
		assert.Empty(t, report.Cycles)
		require.Len(t, report.Winners, 1)

		total := 0
		for _, p := range listPlayers(t, store) {
			total += p.Kills
		}
		assert.Equal(t, n-1, total)
	}
}

func listPlayers(t *testing.T, store storage.Storage) []*model.Player {
	t.Helper()
	var players []*model.Player
	err := store.View(context.Background(), func(tx storage.Tx) error {
		var err error
		players, err = tx.ListPlayers(context.Background())
		return err
	})
	require.NoError(t, err)
	return players
}

func indexOf(ids []model.PlayerID, id model.PlayerID) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
