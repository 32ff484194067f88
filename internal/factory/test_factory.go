package factory

import (
	"time"

	"github.com/mcoot/bullcow/internal/dependencies/mocks"
	"github.com/mcoot/bullcow/internal/loop"
	"github.com/mcoot/bullcow/internal/services/registry"
	"github.com/mcoot/bullcow/internal/storage/memory"
	"github.com/mcoot/bullcow/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
	Memory     *memory.Storage
}

// NewTestApp creates an App configured for testing with mocked dependencies.
// Everything runs synchronously on an inline executor and bots act without delay.
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app := newWithDependencies(store, mockClock, mockRandom, loop.NewInline(), registry.DefaultConfig(), 0, testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
		Memory:     store,
	}
}
