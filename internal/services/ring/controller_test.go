package ring

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/killergame/internal/dependencies/mocks"
	"github.com/mcoot/killergame/internal/model"
	"github.com/mcoot/killergame/internal/storage"
	"github.com/mcoot/killergame/internal/storage/memory"
	"github.com/mcoot/killergame/internal/testutil"
)

const (
	alice model.PlayerID = 1
	bob   model.PlayerID = 2
	carol model.PlayerID = 3
	dave  model.PlayerID = 4
	admin model.PlayerID = 100
	owner model.PlayerID = 200
)

type ControllerSuite struct {
	suite.Suite
	storage    *memory.Storage
	clock      *mocks.MockClock
	random     *mocks.MockRandom
	controller *Controller
	ctx        context.Context
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.controller = NewController(s.storage, s.clock, s.random, testutil.NopLogger(), Options{
		Owners: []model.PlayerID{owner},
	})
	s.ctx = context.Background()

	s.seed(func(p *model.Player) { p.SetName("Admin"); p.IsAdmin = true }, admin)
}

// seed saves players with the given modification applied
func (s *ControllerSuite) seed(mod func(p *model.Player), ids ...model.PlayerID) {
	err := s.storage.Update(s.ctx, func(tx storage.Tx) error {
		for _, id := range ids {
			p, err := tx.GetPlayer(s.ctx, id)
			if errors.Is(err, model.ErrPlayerNotFound) {
				p = model.NewPlayer(id, s.clock.Now())
			} else if err != nil {
				return err
			}
			mod(p)
			if err := tx.SavePlayer(s.ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
	s.Require().NoError(err)
}

func (s *ControllerSuite) register(names map[model.PlayerID]string) {
	for id, name := range names {
		_, err := s.controller.Register(s.ctx, id, name)
		s.Require().NoError(err)
	}
}

// linkRing sets up targets directly: ids[i] hunts ids[i+1]
func (s *ControllerSuite) linkRing(ids ...model.PlayerID) {
	err := s.storage.Update(s.ctx, func(tx storage.Tx) error {
		for i, id := range ids {
			p, err := tx.GetPlayer(s.ctx, id)
			if err != nil {
				return err
			}
			p.Target = model.AssignedTarget(ids[(i+1)%len(ids)])
			if err := tx.SavePlayer(s.ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
	s.Require().NoError(err)
}

func (s *ControllerSuite) get(id model.PlayerID) *model.Player {
	var p *model.Player
	err := s.storage.View(s.ctx, func(tx storage.Tx) error {
		var err error
		p, err = tx.GetPlayer(s.ctx, id)
		return err
	})
	s.Require().NoError(err)
	return p
}

func (s *ControllerSuite) snapshot() []*model.Player {
	var players []*model.Player
	err := s.storage.View(s.ctx, func(tx storage.Tx) error {
		var err error
		players, err = tx.ListPlayers(s.ctx)
		return err
	})
	s.Require().NoError(err)
	return players
}

func (s *ControllerSuite) analyze() model.RingReport {
	return Analyze(s.snapshot())
}

func (s *ControllerSuite) threePlayers() {
	s.register(map[model.PlayerID]string{alice: "Alice", bob: "Bob", carol: "Carol"})
}

// Touch tests

func (s *ControllerSuite) TestTouchCreatesPlayer() {
	result, err := s.controller.Touch(s.ctx, alice)
	s.Require().NoError(err)
	s.False(result.NoOp)
	s.Equal(model.MsgWelcome, result.Outcomes[0].Key)

	p := s.get(alice)
	s.False(p.IsRegistered())
	s.False(p.Target.IsSet())
	s.Equal(0, p.Kills)
}

func (s *ControllerSuite) TestTouchExistingIsNoOp() {
	s.threePlayers()

	result, err := s.controller.Touch(s.ctx, alice)
	s.Require().NoError(err)
	s.True(result.NoOp)
	s.Equal("Alice", result.Outcomes[0].Params[model.ParamName])
	s.Equal("Alice", s.get(alice).DisplayName())
}

// Register tests

func (s *ControllerSuite) TestRegisterSetsName() {
	result, err := s.controller.Register(s.ctx, alice, "  Alice  ")
	s.Require().NoError(err)

	s.Require().Len(result.Outcomes, 1)
	s.Equal(model.OutcomeReply, result.Outcomes[0].Kind)
	s.Equal(model.MsgRegistered, result.Outcomes[0].Key)
	s.Equal("Alice", result.Outcomes[0].Params[model.ParamName])
	s.Equal("Alice", s.get(alice).DisplayName())
}

func (s *ControllerSuite) TestRegisterSameNameIsNoOp() {
	s.threePlayers()

	result, err := s.controller.Register(s.ctx, alice, "Alice")
	s.Require().NoError(err)
	s.True(result.NoOp)
}

func (s *ControllerSuite) TestRegisterRejectsInvalidName() {
	for _, name := range []string{"", "   ", "bad\x00name", "tab\tname", strings.Repeat("a", MaxNameLength+1)} {
		_, err := s.controller.Register(s.ctx, alice, name)
		s.ErrorIs(err, model.ErrInvalidName, "name %q", name)
	}
	err := s.storage.View(s.ctx, func(tx storage.Tx) error {
		_, err := tx.GetPlayer(s.ctx, alice)
		return err
	})
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *ControllerSuite) TestRenameMidRoundKeepsRing() {
	s.threePlayers()
	s.linkRing(alice, bob, carol)

	_, err := s.controller.Register(s.ctx, bob, "Robert")
	s.Require().NoError(err)

	s.Equal("Robert", s.get(bob).DisplayName())
	s.Equal(model.AssignedTarget(carol), s.get(bob).Target)
	s.True(s.analyze().Healthy())
}

// Cancel tests

func (s *ControllerSuite) TestCancelOutsideRoundClearsName() {
	s.threePlayers()

	result, err := s.controller.Cancel(s.ctx, alice)
	s.Require().NoError(err)
	s.False(result.NoOp)
	s.Equal(model.MsgCancelled, result.Outcomes[0].Key)
	s.False(s.get(alice).IsRegistered())
}

func (s *ControllerSuite) TestCancelUnregisteredIsNoOp() {
	_, err := s.controller.Touch(s.ctx, alice)
	s.Require().NoError(err)

	result, err := s.controller.Cancel(s.ctx, alice)
	s.Require().NoError(err)
	s.True(result.NoOp)

	result, err = s.controller.Cancel(s.ctx, dave)
	s.Require().NoError(err)
	s.True(result.NoOp)
}

func (s *ControllerSuite) TestCancelMidRoundRequiresConfirmation() {
	s.threePlayers()
	s.linkRing(alice, bob, carol)
	before := s.snapshot()

	result, err := s.controller.Cancel(s.ctx, bob)
	s.Require().NoError(err)
	s.True(result.ConfirmationRequired)
	s.Equal(model.MsgCancelConfirmRequired, result.Outcomes[0].Key)
	s.Equal(before, s.snapshot())
}

func (s *ControllerSuite) TestCancelWinnerRequiresConfirmation() {
	s.threePlayers()
	s.seed(func(p *model.Player) { p.Target = model.WonTarget() }, alice)

	result, err := s.controller.Cancel(s.ctx, alice)
	s.Require().NoError(err)
	s.True(result.ConfirmationRequired)
	s.True(s.get(alice).IsRegistered())
}

// ConfirmCancel tests

func (s *ControllerSuite) TestConfirmCancelSplicesRing() {
	s.threePlayers()
	s.linkRing(alice, bob, carol)
	_, err := s.controller.RequestKill(s.ctx, alice)
	s.Require().NoError(err)

	result, err := s.controller.ConfirmCancel(s.ctx, bob)
	s.Require().NoError(err)

	notifications := result.OutcomesOfKind(model.OutcomeNotify)
	s.Require().Len(notifications, 1)
	s.Equal(alice, notifications[0].Recipient)
	s.Equal(model.MsgTargetReassigned, notifications[0].Key)
	s.Equal("Carol", notifications[0].Params[model.ParamTarget])
	s.Equal(model.MsgWithdrawn, result.OutcomesOfKind(model.OutcomeReply)[0].Key)

	a, b := s.get(alice), s.get(bob)
	s.Equal(model.AssignedTarget(carol), a.Target)
	s.False(a.KillRequested)
	s.Equal(0, a.Kills)
	s.False(b.Target.IsSet())
	s.False(b.IsRegistered())

	report := s.analyze()
	s.True(report.Healthy(), report.Violations)
	s.Equal([][]model.PlayerID{{alice, carol}}, report.Cycles)
}

func (s *ControllerSuite) TestConfirmCancelLastOpponentEndsGame() {
	s.register(map[model.PlayerID]string{alice: "Alice", bob: "Bob"})
	s.linkRing(alice, bob)

	result, err := s.controller.ConfirmCancel(s.ctx, bob)
	s.Require().NoError(err)

	broadcasts := result.OutcomesOfKind(model.OutcomeBroadcast)
	s.Require().Len(broadcasts, 1)
	s.Equal(model.MsgGameOver, broadcasts[0].Key)
	s.Equal("Alice", broadcasts[0].Params[model.ParamWinner])
	s.ElementsMatch([]model.PlayerID{alice, bob, admin}, broadcasts[0].Recipients)
	s.True(s.get(alice).Target.IsWon())
}

func (s *ControllerSuite) TestConfirmCancelOutsideRoundActsLikeCancel() {
	s.threePlayers()

	result, err := s.controller.ConfirmCancel(s.ctx, alice)
	s.Require().NoError(err)
	s.Equal(model.MsgCancelled, result.Outcomes[0].Key)
	s.False(s.get(alice).IsRegistered())
}

func (s *ControllerSuite) TestConfirmCancelByWinner() {
	s.threePlayers()
	s.seed(func(p *model.Player) { p.Target = model.WonTarget(); p.Kills = 2 }, alice)

	result, err := s.controller.ConfirmCancel(s.ctx, alice)
	s.Require().NoError(err)
	s.Empty(result.OutcomesOfKind(model.OutcomeNotify))

	a := s.get(alice)
	s.False(a.Target.IsSet())
	s.Equal(2, a.Kills)
}

// Status tests

func (s *ControllerSuite) TestStatusUnknownPlayer() {
	status, err := s.controller.Status(s.ctx, dave)
	s.Require().NoError(err)
	s.False(status.Registered)
	s.Equal(1, status.RegisteredCount) // the seeded admin

	err = s.storage.View(s.ctx, func(tx storage.Tx) error {
		_, err := tx.GetPlayer(s.ctx, dave)
		return err
	})
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *ControllerSuite) TestStatusInRound() {
	s.threePlayers()
	s.linkRing(alice, bob, carol)
	_, err := s.controller.RequestKill(s.ctx, alice)
	s.Require().NoError(err)

	status, err := s.controller.Status(s.ctx, alice)
	s.Require().NoError(err)
	s.True(status.Registered)
	s.Equal("Alice", status.Name)
	s.True(status.HasTarget)
	s.Equal("Bob", status.TargetName)
	s.True(status.KillRequested)
	s.False(status.Won)
	s.False(status.IsAdmin)
	s.Equal(4, status.RegisteredCount)
}

func (s *ControllerSuite) TestStatusOwnerIsAdmin() {
	status, err := s.controller.Status(s.ctx, owner)
	s.Require().NoError(err)
	s.True(status.IsAdmin)
}

// RequestKill tests

func (s *ControllerSuite) TestRequestKillWithoutTargetIsStale() {
	s.threePlayers()

	_, err := s.controller.RequestKill(s.ctx, alice)
	s.ErrorIs(err, model.ErrStaleClaim)

	_, err = s.controller.RequestKill(s.ctx, dave)
	s.ErrorIs(err, model.ErrStaleClaim)
}

func (s *ControllerSuite) TestRequestKillNotifiesTarget() {
	s.threePlayers()
	s.linkRing(alice, bob, carol)

	result, err := s.controller.RequestKill(s.ctx, alice)
	s.Require().NoError(err)
	s.False(result.NoOp)

	notifications := result.OutcomesOfKind(model.OutcomeNotify)
	s.Require().Len(notifications, 1)
	s.Equal(bob, notifications[0].Recipient)
	s.Equal(model.MsgKillPrompt, notifications[0].Key)
	s.Equal("Alice", notifications[0].Params[model.ParamKiller])
	s.Equal(model.MsgKillAwaiting, result.OutcomesOfKind(model.OutcomeReply)[0].Key)
	s.True(s.get(alice).KillRequested)
}

func (s *ControllerSuite) TestRequestKillTwiceNotifiesOnce() {
	s.threePlayers()
	s.linkRing(alice, bob, carol)

	first, err := s.controller.RequestKill(s.ctx, alice)
	s.Require().NoError(err)
	second, err := s.controller.RequestKill(s.ctx, alice)
	s.Require().NoError(err)

	s.Len(first.OutcomesOfKind(model.OutcomeNotify), 1)
	s.True(second.NoOp)
	s.Empty(second.OutcomesOfKind(model.OutcomeNotify))
	s.True(s.get(alice).KillRequested)
}

func (s *ControllerSuite) TestRequestKillByWinnerIsStale() {
	s.threePlayers()
	s.seed(func(p *model.Player) { p.Target = model.WonTarget() }, alice)

	_, err := s.controller.RequestKill(s.ctx, alice)
	s.ErrorIs(err, model.ErrStaleClaim)
}

// ConfirmKill tests

func (s *ControllerSuite) TestFullGameScenario() {
	s.seed(func(p *model.Player) { p.ClearName() }, admin)
	s.threePlayers()

	_, err := s.controller.Distribute(s.ctx, admin)
	s.Require().NoError(err)
	// With every shuffle draw at zero the ring is Alice -> Bob -> Carol -> Alice
	s.Equal(model.AssignedTarget(bob), s.get(alice).Target)
	s.Equal(model.AssignedTarget(carol), s.get(bob).Target)
	s.Equal(model.AssignedTarget(alice), s.get(carol).Target)

	_, err = s.controller.RequestKill(s.ctx, alice)
	s.Require().NoError(err)
	result, err := s.controller.ConfirmKill(s.ctx, bob)
	s.Require().NoError(err)

	notifications := result.OutcomesOfKind(model.OutcomeNotify)
	s.Require().Len(notifications, 1)
	s.Equal(alice, notifications[0].Recipient)
	s.Equal(model.MsgKillConfirmed, notifications[0].Key)
	s.Equal("Carol", notifications[0].Params[model.ParamTarget])
	replies := result.OutcomesOfKind(model.OutcomeReply)
	s.Require().Len(replies, 1)
	s.Equal(model.MsgKillEliminated, replies[0].Key)
	s.Equal("Alice", replies[0].Params[model.ParamKiller])

	a, b := s.get(alice), s.get(bob)
	s.Equal(model.AssignedTarget(carol), a.Target)
	s.Equal(1, a.Kills)
	s.False(a.KillRequested)
	s.False(b.Target.IsSet())
	s.Equal("Bob", b.DisplayName())
	s.True(s.analyze().Healthy())

	_, err = s.controller.RequestKill(s.ctx, alice)
	s.Require().NoError(err)
	result, err = s.controller.ConfirmKill(s.ctx, carol)
	s.Require().NoError(err)

	s.Require().Len(result.Outcomes, 1)
	over := result.Outcomes[0]
	s.Equal(model.OutcomeBroadcast, over.Kind)
	s.Equal(model.MsgGameOver, over.Key)
	s.Equal("Alice", over.Params[model.ParamWinner])
	s.ElementsMatch([]model.PlayerID{alice, bob, carol, admin}, over.Recipients)

	a = s.get(alice)
	s.True(a.Target.IsWon())
	s.Equal(2, a.Kills)
	s.False(s.get(carol).Target.IsSet())

	report := s.analyze()
	s.True(report.Healthy())
	s.Empty(report.Cycles)
	s.Equal([]model.PlayerID{alice}, report.Winners)
}

func (s *ControllerSuite) TestTwoPlayerRingWin() {
	s.register(map[model.PlayerID]string{alice: "Alice", bob: "Bob"})
	s.linkRing(alice, bob)

	_, err := s.controller.RequestKill(s.ctx, alice)
	s.Require().NoError(err)
	result, err := s.controller.ConfirmKill(s.ctx, bob)
	s.Require().NoError(err)

	s.Require().Len(result.OutcomesOfKind(model.OutcomeBroadcast), 1)
	s.Empty(result.OutcomesOfKind(model.OutcomeNotify))
	a := s.get(alice)
	s.True(a.Target.IsWon())
	s.Equal(1, a.Kills)
}

func (s *ControllerSuite) TestConfirmWithoutClaimIsStale() {
	s.threePlayers()
	s.linkRing(alice, bob, carol)
	before := s.snapshot()

	_, err := s.controller.ConfirmKill(s.ctx, bob)
	s.ErrorIs(err, model.ErrStaleClaim)

	_, err = s.controller.ConfirmKill(s.ctx, dave)
	s.ErrorIs(err, model.ErrStaleClaim)
	s.Equal(before, s.snapshot())
}

func (s *ControllerSuite) TestConfirmTwiceIsStale() {
	s.threePlayers()
	s.linkRing(alice, bob, carol)
	_, err := s.controller.RequestKill(s.ctx, alice)
	s.Require().NoError(err)

	_, err = s.controller.ConfirmKill(s.ctx, bob)
	s.Require().NoError(err)
	_, err = s.controller.ConfirmKill(s.ctx, bob)
	s.ErrorIs(err, model.ErrStaleClaim)
	s.Equal(1, s.get(alice).Kills)
}

func (s *ControllerSuite) TestConcurrentConfirmsOnlyOneSucceeds() {
	s.threePlayers()
	s.linkRing(alice, bob, carol)
	_, err := s.controller.RequestKill(s.ctx, alice)
	s.Require().NoError(err)

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.controller.ConfirmKill(s.ctx, bob)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		s.ErrorIs(err, model.ErrStaleClaim)
	}
	s.Equal(1, succeeded)
	s.Equal(1, s.get(alice).Kills)
	s.True(s.analyze().Healthy())
}

// DenyKill tests

func (s *ControllerSuite) TestDenyClearsClaimOnly() {
	s.threePlayers()
	s.linkRing(alice, bob, carol)
	_, err := s.controller.RequestKill(s.ctx, alice)
	s.Require().NoError(err)

	result, err := s.controller.DenyKill(s.ctx, bob)
	s.Require().NoError(err)

	notifications := result.OutcomesOfKind(model.OutcomeNotify)
	s.Require().Len(notifications, 1)
	s.Equal(alice, notifications[0].Recipient)
	s.Equal(model.MsgKillDenied, notifications[0].Key)
	s.Equal(model.MsgKillDenyAck, result.OutcomesOfKind(model.OutcomeReply)[0].Key)

	a := s.get(alice)
	s.False(a.KillRequested)
	s.Equal(model.AssignedTarget(bob), a.Target)
	s.Equal(0, a.Kills)
	s.Equal(model.AssignedTarget(carol), s.get(bob).Target)
}

func (s *ControllerSuite) TestDenyWithoutClaimIsStale() {
	s.threePlayers()
	s.linkRing(alice, bob, carol)

	_, err := s.controller.DenyKill(s.ctx, bob)
	s.ErrorIs(err, model.ErrStaleClaim)
}

func (s *ControllerSuite) TestRequestAgainAfterDeny() {
	s.threePlayers()
	s.linkRing(alice, bob, carol)

	_, err := s.controller.RequestKill(s.ctx, alice)
	s.Require().NoError(err)
	_, err = s.controller.DenyKill(s.ctx, bob)
	s.Require().NoError(err)

	result, err := s.controller.RequestKill(s.ctx, alice)
	s.Require().NoError(err)
	s.False(result.NoOp)
	s.Len(result.OutcomesOfKind(model.OutcomeNotify), 1)
}

// Distribute tests

func (s *ControllerSuite) TestDistributeRequiresAdmin() {
	s.threePlayers()
	before := s.snapshot()

	_, err := s.controller.Distribute(s.ctx, alice)
	s.ErrorIs(err, model.ErrAccessDenied)
	_, err = s.controller.Distribute(s.ctx, dave)
	s.ErrorIs(err, model.ErrAccessDenied)
	s.Equal(before, s.snapshot())
}

func (s *ControllerSuite) TestDistributeByOwner() {
	s.threePlayers()

	result, err := s.controller.Distribute(s.ctx, owner)
	s.Require().NoError(err)
	s.Len(result.OutcomesOfKind(model.OutcomeNotify), 4)
}

func (s *ControllerSuite) TestDistributeSinglePlayerIsInsufficient() {
	s.seed(func(p *model.Player) { p.ClearName() }, admin)
	s.register(map[model.PlayerID]string{alice: "Alice"})
	before := s.snapshot()

	_, err := s.controller.Distribute(s.ctx, owner)
	s.ErrorIs(err, model.ErrInsufficientPlayers)
	s.Equal(before, s.snapshot())
}

func (s *ControllerSuite) TestDistributeSkipsUnregistered() {
	s.threePlayers()
	_, err := s.controller.Touch(s.ctx, dave)
	s.Require().NoError(err)

	result, err := s.controller.Distribute(s.ctx, admin)
	s.Require().NoError(err)

	s.False(s.get(dave).Target.IsSet())
	s.Equal("4", result.OutcomesOfKind(model.OutcomeReply)[0].Params[model.ParamCount])

	report := s.analyze()
	s.True(report.Healthy())
	s.Require().Len(report.Cycles, 1)
	s.Len(report.Cycles[0], 4)
}

func (s *ControllerSuite) TestDistributeNotifiesEveryKiller() {
	s.seed(func(p *model.Player) { p.ClearName() }, admin)
	s.threePlayers()

	result, err := s.controller.Distribute(s.ctx, admin)
	s.Require().NoError(err)

	got := map[model.PlayerID]string{}
	for _, o := range result.OutcomesOfKind(model.OutcomeNotify) {
		s.Equal(model.MsgTargetAssigned, o.Key)
		got[o.Recipient] = o.Params[model.ParamTarget]
	}
	s.Equal(map[model.PlayerID]string{alice: "Bob", bob: "Carol", carol: "Alice"}, got)
	s.Equal([]int{3, 2}, s.random.Calls)
}

func (s *ControllerSuite) TestDistributeMidRoundFormsSeparateCycle() {
	s.seed(func(p *model.Player) { p.ClearName() }, admin)
	s.threePlayers()
	s.linkRing(alice, bob, carol)
	s.register(map[model.PlayerID]string{dave: "Dave", 5: "Eve"})

	_, err := s.controller.Distribute(s.ctx, owner)
	s.Require().NoError(err)

	s.Equal(model.AssignedTarget(bob), s.get(alice).Target)
	report := s.analyze()
	s.True(report.Healthy(), report.Violations)
	s.Equal([][]model.PlayerID{{alice, bob, carol}, {dave, 5}}, report.Cycles)
}

func (s *ControllerSuite) TestDistributeAlwaysSingleCycle() {
	for n := 2; n <= 6; n++ {
		for first := 0; first < n; first++ {
			s.SetupTest()
			s.seed(func(p *model.Player) { p.ClearName() }, admin)

			ids := make([]model.PlayerID, n)
			for i := range ids {
				ids[i] = model.PlayerID(i + 1)
				_, err := s.controller.Register(s.ctx, ids[i], "P"+ids[i].String())
				s.Require().NoError(err)
			}
			s.random.QueueIntn(first)

			_, err := s.controller.Distribute(s.ctx, owner)
			s.Require().NoError(err)

			// Following targets from any player visits everyone and returns after n hops
			cur := ids[0]
			seen := map[model.PlayerID]bool{}
			for hop := 0; hop < n; hop++ {
				seen[cur] = true
				next, ok := s.get(cur).Target.Assigned()
				s.Require().True(ok)
				cur = next
			}
			s.Equal(ids[0], cur)
			s.Len(seen, n)
		}
	}
}

// Leaderboard tests

func (s *ControllerSuite) TestLeaderboardOrdersByKills() {
	s.threePlayers()
	s.seed(func(p *model.Player) { p.Kills = 2 }, carol)
	s.seed(func(p *model.Player) { p.Kills = 1; p.Target = model.AssignedTarget(carol) }, bob)
	s.seed(func(p *model.Player) { p.Target = model.AssignedTarget(bob) }, carol)
	_, err := s.controller.Touch(s.ctx, dave)
	s.Require().NoError(err)

	entries, err := s.controller.Leaderboard(s.ctx)
	s.Require().NoError(err)

	s.Require().Len(entries, 4)
	s.Equal(carol, entries[0].PlayerID)
	s.Equal(2, entries[0].Kills)
	s.True(entries[0].Alive)
	s.Equal(bob, entries[1].PlayerID)
	for _, e := range entries {
		s.NotEqual(dave, e.PlayerID)
	}
	for _, e := range entries[2:] {
		s.Equal(0, e.Kills)
		s.False(e.Alive)
	}
}

// Reset tests

func (s *ControllerSuite) TestResetRequiresAdmin() {
	s.threePlayers()
	s.linkRing(alice, bob, carol)
	before := s.snapshot()

	_, err := s.controller.Reset(s.ctx, alice)
	s.ErrorIs(err, model.ErrAccessDenied)
	s.Equal(before, s.snapshot())
}

func (s *ControllerSuite) TestResetClearsRound() {
	s.threePlayers()
	s.linkRing(alice, bob, carol)
	s.seed(func(p *model.Player) { p.Kills = 3; p.KillRequested = true }, alice)

	result, err := s.controller.Reset(s.ctx, admin)
	s.Require().NoError(err)
	s.Equal(model.MsgReset, result.Outcomes[0].Key)

	for _, p := range s.snapshot() {
		s.Equal(0, p.Kills)
		s.False(p.Target.IsSet())
		s.False(p.KillRequested)
		s.True(p.IsRegistered())
	}
	s.True(s.get(admin).IsAdmin)
}

// SetAdmin tests

func (s *ControllerSuite) TestSetAdminGrantAndRevoke() {
	s.threePlayers()

	result, err := s.controller.SetAdmin(s.ctx, owner, alice, true)
	s.Require().NoError(err)
	s.False(result.NoOp)
	s.Equal(model.MsgAdminChanged, result.Outcomes[0].Key)
	s.True(s.get(alice).IsAdmin)

	// The new admin can now moderate
	_, err = s.controller.SetAdmin(s.ctx, alice, bob, true)
	s.Require().NoError(err)

	_, err = s.controller.SetAdmin(s.ctx, alice, bob, false)
	s.Require().NoError(err)
	s.False(s.get(bob).IsAdmin)
}

func (s *ControllerSuite) TestSetAdminUnchangedIsNoOp() {
	result, err := s.controller.SetAdmin(s.ctx, owner, admin, true)
	s.Require().NoError(err)
	s.True(result.NoOp)
	s.Equal(model.MsgAdminUnchanged, result.Outcomes[0].Key)
}

func (s *ControllerSuite) TestSetAdminUnknownTarget() {
	_, err := s.controller.SetAdmin(s.ctx, admin, dave, true)
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *ControllerSuite) TestSetAdminRequiresAdmin() {
	s.threePlayers()

	_, err := s.controller.SetAdmin(s.ctx, alice, alice, true)
	s.ErrorIs(err, model.ErrAccessDenied)
	s.False(s.get(alice).IsAdmin)
}

// Ring audit tests

func (s *ControllerSuite) TestRingAudit() {
	s.threePlayers()
	s.linkRing(alice, bob, carol)

	report, err := s.controller.Ring(s.ctx, admin)
	s.Require().NoError(err)
	s.True(report.Healthy())
	s.Equal([][]model.PlayerID{{alice, bob, carol}}, report.Cycles)

	_, err = s.controller.Ring(s.ctx, alice)
	s.ErrorIs(err, model.ErrAccessDenied)
}

// Retry tests

// conflictingStorage fails the first n Update calls with ErrConflict
type conflictingStorage struct {
	storage.Storage
	mu        sync.Mutex
	remaining int
	calls     int
}

func (c *conflictingStorage) Update(ctx context.Context, fn func(tx storage.Tx) error) error {
	c.mu.Lock()
	c.calls++
	fail := c.remaining > 0
	if fail {
		c.remaining--
	}
	c.mu.Unlock()

	if fail {
		// Run the transaction body to prove results from failed attempts are discarded
		_ = c.Storage.View(ctx, func(tx storage.Tx) error { return fn(readOnlyTx{tx}) })
		return storage.ErrConflict
	}
	return c.Storage.Update(ctx, fn)
}

// readOnlyTx drops writes so a doomed attempt leaves no trace
type readOnlyTx struct{ storage.Tx }

func (readOnlyTx) SavePlayer(context.Context, *model.Player) error { return nil }

func (s *ControllerSuite) TestConflictIsRetried() {
	s.threePlayers()
	s.linkRing(alice, bob, carol)

	store := &conflictingStorage{Storage: s.storage, remaining: 2}
	controller := NewController(store, s.clock, s.random, testutil.NopLogger(), Options{})

	result, err := controller.RequestKill(s.ctx, alice)
	s.Require().NoError(err)
	s.Equal(3, store.calls)
	s.Len(result.Outcomes, 2)
	s.True(s.get(alice).KillRequested)
}

func (s *ControllerSuite) TestConflictSurfacesAfterMaxAttempts() {
	s.threePlayers()
	s.linkRing(alice, bob, carol)

	store := &conflictingStorage{Storage: s.storage, remaining: 10}
	controller := NewController(store, s.clock, s.random, testutil.NopLogger(), Options{MaxAttempts: 3})

	_, err := controller.RequestKill(s.ctx, alice)
	s.ErrorIs(err, storage.ErrConflict)
	s.Equal(3, store.calls)
	s.False(s.get(alice).KillRequested)
}
