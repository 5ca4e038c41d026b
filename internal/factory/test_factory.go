package factory

import (
	"time"

	"github.com/mcoot/killergame/internal/dependencies/mocks"
	"github.com/mcoot/killergame/internal/model"
	"github.com/mcoot/killergame/internal/storage/memory"
	"github.com/mcoot/killergame/internal/testutil"
)

// TestOwner is always an admin in apps built by NewTestApp
const TestOwner model.PlayerID = 1000

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app, err := newWithDependencies(store, mockClock, mockRandom, Config{
		Owners: []model.PlayerID{TestOwner},
	}, testutil.NopLogger())
	if err != nil {
		// Only reachable with a broken embedded catalog
		panic(err)
	}

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
