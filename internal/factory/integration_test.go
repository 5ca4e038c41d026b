package factory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/killergame/internal/model"
	"github.com/mcoot/killergame/internal/services/auth"
	redisstorage "github.com/mcoot/killergame/internal/storage/redis"
	"github.com/mcoot/killergame/internal/storage/sqlite"
)

const (
	alice model.PlayerID = 1
	bob   model.PlayerID = 2
	carol model.PlayerID = 3
)

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
}

func (s *IntegrationSuite) TearDownTest() {
	s.Require().NoError(s.app.Close())
}

func (s *IntegrationSuite) texts(actor model.PlayerID, res *model.Result) []string {
	var out []string
	for _, r := range s.app.Dispatcher.Dispatch(s.ctx, actor, res) {
		out = append(out, r.Text)
	}
	return out
}

// Test: Complete round from registration to a winner
func (s *IntegrationSuite) TestCompleteRound() {
	c := s.app.Controller

	// Step 1: Three players register
	for id, name := range map[model.PlayerID]string{alice: "Alice", bob: "Bob", carol: "Carol"} {
		_, err := c.Register(s.ctx, id, name)
		s.Require().NoError(err)
	}

	// Step 2: The owner distributes; all-zero shuffle gives Alice -> Bob -> Carol -> Alice
	res, err := c.Distribute(s.ctx, TestOwner)
	s.Require().NoError(err)
	s.Contains(s.texts(TestOwner, res), "Targets distributed to 3 players.")

	status, err := c.Status(s.ctx, alice)
	s.Require().NoError(err)
	s.Equal("Bob", status.TargetName)

	// Step 3: Alice eliminates Bob
	_, err = c.RequestKill(s.ctx, alice)
	s.Require().NoError(err)
	res, err = c.ConfirmKill(s.ctx, bob)
	s.Require().NoError(err)
	s.Contains(s.texts(bob, res), "You have been eliminated by Alice.")

	status, err = c.Status(s.ctx, alice)
	s.Require().NoError(err)
	s.Equal("Carol", status.TargetName)
	s.Equal(1, status.Kills)

	// Step 4: Carol eliminates Alice and wins
	_, err = c.RequestKill(s.ctx, carol)
	s.Require().NoError(err)
	res, err = c.ConfirmKill(s.ctx, alice)
	s.Require().NoError(err)

	broadcasts := res.OutcomesOfKind(model.OutcomeBroadcast)
	s.Require().Len(broadcasts, 1)
	s.ElementsMatch([]model.PlayerID{alice, bob, carol}, broadcasts[0].Recipients)
	s.Contains(s.texts(alice, res), "Game over! The winner is Carol.")

	// Step 5: Leaderboard and ring reflect the outcome
	board, err := c.Leaderboard(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(board, 3)
	s.Equal(alice, board[0].PlayerID)
	s.Equal(carol, board[1].PlayerID)
	s.True(board[1].Alive)

	report, err := c.Ring(s.ctx, TestOwner)
	s.Require().NoError(err)
	s.True(report.Healthy())
	s.Equal([]model.PlayerID{carol}, report.Winners)
	s.Empty(report.Cycles)
}

// Test: Dispatch tolerates recipients without an open stream
func (s *IntegrationSuite) TestDispatchWithoutSubscribers() {
	for id, name := range map[model.PlayerID]string{alice: "Alice", bob: "Bob"} {
		_, err := s.app.Controller.Register(s.ctx, id, name)
		s.Require().NoError(err)
	}

	res, err := s.app.Controller.Distribute(s.ctx, TestOwner)
	s.Require().NoError(err)

	rendered := s.app.Dispatcher.Dispatch(s.ctx, TestOwner, res)
	s.Len(rendered, 3)
	s.Equal(TestOwner, rendered[2].Recipient)
}

func TestNewDefaultsToMemory(t *testing.T) {
	app, err := New(Config{})
	require.NoError(t, err)
	defer app.Close()

	_, err = app.Controller.Touch(context.Background(), alice)
	require.NoError(t, err)
	assert.False(t, app.AuthService.Enabled())
}

func TestNewWithSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "killer.db")

	app, err := New(Config{StorageType: StorageTypeSQLite, SQLitePath: path})
	require.NoError(t, err)
	defer app.Close()

	assert.IsType(t, &sqlite.Storage{}, app.Storage)
	_, err = app.Controller.Register(context.Background(), alice, "Alice")
	require.NoError(t, err)
}

func TestNewWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	redisCfg := redisstorage.DefaultConfig()
	redisCfg.URL = "redis://" + mr.Addr()

	app, err := New(Config{StorageType: StorageTypeRedis, RedisConfig: &redisCfg})
	require.NoError(t, err)
	defer app.Close()

	assert.IsType(t, &redisstorage.Storage{}, app.Storage)
	_, err = app.Controller.Register(context.Background(), alice, "Alice")
	require.NoError(t, err)
	assert.True(t, mr.Exists("killer:player:1"))
}

func TestNewRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"unknown storage", Config{StorageType: "postgres"}},
		{"redis without config", Config{StorageType: StorageTypeRedis}},
		{"sqlite without path", Config{StorageType: StorageTypeSQLite}},
		{"unknown locale", Config{Locale: "xx"}},
		{"bad key hash", Config{AuthConfig: authConfig("not-a-hash")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func authConfig(hashes ...string) auth.Config {
	cfg := auth.DefaultConfig()
	cfg.KeyHashes = hashes
	return cfg
}
