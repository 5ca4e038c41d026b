// Package storagetest holds the behavioural contract every storage backend must satisfy.
package storagetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/killergame/internal/model"
	"github.com/mcoot/killergame/internal/storage"
)

// ContractSuite runs the shared storage contract against a backend
type ContractSuite struct {
	suite.Suite

	// NewStorage returns a fresh, empty backend for each test
	NewStorage func(t *testing.T) storage.Storage

	store storage.Storage
	ctx   context.Context
	now   time.Time
}

func (s *ContractSuite) SetupTest() {
	s.store = s.NewStorage(s.T())
	s.ctx = context.Background()
	s.now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

func (s *ContractSuite) TearDownTest() {
	if s.store != nil {
		_ = s.store.Close()
	}
}

func (s *ContractSuite) player(id model.PlayerID, name string) *model.Player {
	p := model.NewPlayer(id, s.now)
	if name != "" {
		p.SetName(name)
	}
	return p
}

func (s *ContractSuite) seed(players ...*model.Player) {
	err := s.store.Update(s.ctx, func(tx storage.Tx) error {
		for _, p := range players {
			if err := tx.SavePlayer(s.ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
	s.Require().NoError(err)
}

func (s *ContractSuite) get(id model.PlayerID) *model.Player {
	var p *model.Player
	err := s.store.View(s.ctx, func(tx storage.Tx) error {
		var err error
		p, err = tx.GetPlayer(s.ctx, id)
		return err
	})
	s.Require().NoError(err)
	return p
}

func (s *ContractSuite) TestSaveAndGetPlayer() {
	p := s.player(1, "Alice")
	p.Target = model.AssignedTarget(2)
	p.Kills = 3
	p.KillRequested = true
	p.IsAdmin = true
	s.seed(s.player(2, "Bob"), p)

	got := s.get(1)
	s.Equal(model.PlayerID(1), got.ID)
	s.Equal("Alice", got.DisplayName())
	s.Equal(model.AssignedTarget(2), got.Target)
	s.Equal(3, got.Kills)
	s.True(got.KillRequested)
	s.True(got.IsAdmin)
	s.True(s.now.Equal(got.CreatedAt))
}

func (s *ContractSuite) TestUnregisteredPlayerHasNilName() {
	s.seed(s.player(1, ""))

	got := s.get(1)
	s.Nil(got.Name)
	s.False(got.Target.IsSet())
}

func (s *ContractSuite) TestWonTargetRoundTrips() {
	p := s.player(1, "Alice")
	p.Target = model.WonTarget()
	s.seed(p)

	got := s.get(1)
	s.True(got.Target.IsWon())
}

func (s *ContractSuite) TestGetPlayerNotFound() {
	err := s.store.View(s.ctx, func(tx storage.Tx) error {
		_, err := tx.GetPlayer(s.ctx, 404)
		return err
	})
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *ContractSuite) TestFailedUpdateWritesNothing() {
	s.seed(s.player(1, "Alice"))
	boom := errors.New("boom")

	err := s.store.Update(s.ctx, func(tx storage.Tx) error {
		p, err := tx.GetPlayer(s.ctx, 1)
		if err != nil {
			return err
		}
		p.Kills = 10
		if err := tx.SavePlayer(s.ctx, p); err != nil {
			return err
		}
		if err := tx.SavePlayer(s.ctx, s.player(2, "Bob")); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)

	s.Equal(0, s.get(1).Kills)
	err = s.store.View(s.ctx, func(tx storage.Tx) error {
		_, err := tx.GetPlayer(s.ctx, 2)
		return err
	})
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *ContractSuite) TestUpdateReadsOwnWrites() {
	err := s.store.Update(s.ctx, func(tx storage.Tx) error {
		if err := tx.SavePlayer(s.ctx, s.player(1, "Alice")); err != nil {
			return err
		}
		p, err := tx.GetPlayer(s.ctx, 1)
		if err != nil {
			return err
		}
		s.Equal("Alice", p.DisplayName())

		players, err := tx.ListPlayers(s.ctx)
		if err != nil {
			return err
		}
		s.Len(players, 1)
		return nil
	})
	s.Require().NoError(err)
}

func (s *ContractSuite) TestReturnedPlayersAreCopies() {
	s.seed(s.player(1, "Alice"))

	err := s.store.Update(s.ctx, func(tx storage.Tx) error {
		p, err := tx.GetPlayer(s.ctx, 1)
		if err != nil {
			return err
		}
		p.Kills = 99 // Not saved
		return nil
	})
	s.Require().NoError(err)
	s.Equal(0, s.get(1).Kills)
}

func (s *ContractSuite) TestViewRejectsWrites() {
	err := s.store.View(s.ctx, func(tx storage.Tx) error {
		return tx.SavePlayer(s.ctx, s.player(1, "Alice"))
	})
	s.ErrorIs(err, storage.ErrReadOnly)
}

func (s *ContractSuite) TestListPlayersOrderedByID() {
	s.seed(s.player(30, "C"), s.player(10, "A"), s.player(20, ""))

	var ids []model.PlayerID
	err := s.store.View(s.ctx, func(tx storage.Tx) error {
		players, err := tx.ListPlayers(s.ctx)
		if err != nil {
			return err
		}
		for _, p := range players {
			ids = append(ids, p.ID)
		}
		return nil
	})
	s.Require().NoError(err)
	s.Equal([]model.PlayerID{10, 20, 30}, ids)
}

func (s *ContractSuite) TestListPlayersEmpty() {
	err := s.store.View(s.ctx, func(tx storage.Tx) error {
		players, err := tx.ListPlayers(s.ctx)
		s.Empty(players)
		return err
	})
	s.Require().NoError(err)
}

func (s *ContractSuite) TestFindKiller() {
	a, b, c := s.player(1, "A"), s.player(2, "B"), s.player(3, "C")
	a.Target = model.AssignedTarget(2)
	b.Target = model.AssignedTarget(3)
	c.Target = model.AssignedTarget(1)
	s.seed(a, b, c)

	err := s.store.View(s.ctx, func(tx storage.Tx) error {
		killer, err := tx.FindKiller(s.ctx, 3)
		if err != nil {
			return err
		}
		s.Equal(model.PlayerID(2), killer.ID)
		return nil
	})
	s.Require().NoError(err)
}

func (s *ContractSuite) TestFindKillerNotFound() {
	s.seed(s.player(1, "A"))

	err := s.store.View(s.ctx, func(tx storage.Tx) error {
		_, err := tx.FindKiller(s.ctx, 1)
		return err
	})
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

// A ring contraction moves two edges in one transaction
func (s *ContractSuite) TestFindKillerFollowsContraction() {
	a, b, c := s.player(1, "A"), s.player(2, "B"), s.player(3, "C")
	a.Target = model.AssignedTarget(2)
	b.Target = model.AssignedTarget(3)
	c.Target = model.AssignedTarget(1)
	s.seed(a, b, c)

	err := s.store.Update(s.ctx, func(tx storage.Tx) error {
		confirmer, err := tx.GetPlayer(s.ctx, 2)
		if err != nil {
			return err
		}
		killer, err := tx.FindKiller(s.ctx, 2)
		if err != nil {
			return err
		}
		next := confirmer.Target
		confirmer.Target = model.NoTarget()
		if err := tx.SavePlayer(s.ctx, confirmer); err != nil {
			return err
		}
		killer.Target = next
		killer.Kills++
		return tx.SavePlayer(s.ctx, killer)
	})
	s.Require().NoError(err)

	err = s.store.View(s.ctx, func(tx storage.Tx) error {
		killer, err := tx.FindKiller(s.ctx, 3)
		if err != nil {
			return err
		}
		s.Equal(model.PlayerID(1), killer.ID)
		s.Equal(1, killer.Kills)

		_, err = tx.FindKiller(s.ctx, 2)
		s.ErrorIs(err, model.ErrPlayerNotFound)
		return nil
	})
	s.Require().NoError(err)
	s.False(s.get(2).Target.IsSet())
}

func (s *ContractSuite) TestFindKillerAfterTargetCleared() {
	a, b := s.player(1, "A"), s.player(2, "B")
	a.Target = model.AssignedTarget(2)
	b.Target = model.AssignedTarget(1)
	s.seed(a, b)

	a.Target = model.NoTarget()
	b.Target = model.NoTarget()
	s.seed(a, b)

	err := s.store.View(s.ctx, func(tx storage.Tx) error {
		_, err := tx.FindKiller(s.ctx, 2)
		return err
	})
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

// Concurrent read-modify-write transactions must not lose updates once conflicts are retried
func (s *ContractSuite) TestConcurrentUpdatesAreSerializable() {
	s.seed(s.player(1, "Alice"))

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for attempt := 0; attempt < 100; attempt++ {
				err := s.store.Update(s.ctx, func(tx storage.Tx) error {
					p, err := tx.GetPlayer(s.ctx, 1)
					if err != nil {
						return err
					}
					p.Kills++
					return tx.SavePlayer(s.ctx, p)
				})
				if errors.Is(err, storage.ErrConflict) {
					continue
				}
				errs <- err
				return
			}
			errs <- storage.ErrConflict
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		s.Require().NoError(err)
	}
	s.Equal(workers, s.get(1).Kills)
}
