package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/killergame/internal/model"
	"github.com/mcoot/killergame/internal/storage"
	"github.com/mcoot/killergame/internal/storage/storagetest"
)

// createTestStore creates a new file-backed store in a temp dir
func createTestStore(t *testing.T) *Storage {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStorageContract(t *testing.T) {
	suite.Run(t, &storagetest.ContractSuite{
		NewStorage: func(t *testing.T) storage.Storage { return createTestStore(t) },
	})
}

func TestDSN(t *testing.T) {
	assert.Equal(t, "killergame.db?_txlock=immediate", dsn("killergame.db"))
	assert.Equal(t, "file:x.db?cache=shared&_txlock=immediate", dsn("file:x.db?cache=shared"))
}

func TestOpenPathWithQuery(t *testing.T) {
	path := "file:" + filepath.Join(t.TempDir(), "query.db") + "?cache=shared"
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	err = s.Update(ctx, func(tx storage.Tx) error {
		return tx.SavePlayer(ctx, model.NewPlayer(1, time.Now()))
	})
	require.NoError(t, err)

	err = s.View(ctx, func(tx storage.Tx) error {
		_, err := tx.GetPlayer(ctx, 1)
		return err
	})
	assert.NoError(t, err)
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	var version int
	require.NoError(t, s2.db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, currentSchemaVersion, version)
}

func TestPragmasApplied(t *testing.T) {
	s := createTestStore(t)

	var mode string
	require.NoError(t, s.db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	var fk int
	require.NoError(t, s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestDataSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Update(ctx, func(tx storage.Tx) error {
		p := model.NewPlayer(7, time.Now())
		p.SetName("Alice")
		p.Kills = 2
		return tx.SavePlayer(ctx, p)
	}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.View(ctx, func(tx storage.Tx) error {
		p, err := tx.GetPlayer(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, "Alice", p.DisplayName())
		assert.Equal(t, 2, p.Kills)
		return nil
	}))
}

func TestUniqueTargetIndexRejectsSharedTarget(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	err := s.Update(ctx, func(tx storage.Tx) error {
		for _, id := range []model.PlayerID{1, 2, 3} {
			p := model.NewPlayer(id, time.Now())
			if id != 3 {
				p.Target = model.AssignedTarget(3)
			}
			if err := tx.SavePlayer(ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
	require.Error(t, err)

	// Nothing from the failed transaction is visible
	err = s.View(ctx, func(tx storage.Tx) error {
		players, err := tx.ListPlayers(ctx)
		assert.Empty(t, players)
		return err
	})
	require.NoError(t, err)
}

func TestKillRequestedRequiresAssignedTarget(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	err := s.Update(ctx, func(tx storage.Tx) error {
		p := model.NewPlayer(1, time.Now())
		p.KillRequested = true
		return tx.SavePlayer(ctx, p)
	})
	assert.Error(t, err)
}
