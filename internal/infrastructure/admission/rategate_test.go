package admission

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipgate/clipgate/pkg/constants"
	"github.com/clipgate/clipgate/pkg/errors"
)

// fakeClock is a manually advanced clock for deterministic rate tests.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func testRateConfig() RateGateConfig {
	return RateGateConfig{
		Window:       20 * time.Second,
		MaxPerWindow: 3,
		Cooldown:     5 * time.Second,
	}
}

func TestRateGateAllowsFirstRequest(t *testing.T) {
	clock := newFakeClock()
	gate := NewRateGate(testRateConfig(), clock.Now)

	assert.NoError(t, gate.Check(100))
}

func TestRateGateCooldownBlocksQuickRetry(t *testing.T) {
	clock := newFakeClock()
	gate := NewRateGate(testRateConfig(), clock.Now)

	require.NoError(t, gate.Check(100))

	clock.Advance(2 * time.Second)
	err := gate.Check(100)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, constants.ErrCodeRateLimited))

	coreErr := err.(errors.CoreError)
	assert.Equal(t, 3*time.Second, coreErr.RetryAfter())
}

func TestRateGateAllowsAfterCooldown(t *testing.T) {
	clock := newFakeClock()
	gate := NewRateGate(testRateConfig(), clock.Now)

	require.NoError(t, gate.Check(100))
	clock.Advance(5 * time.Second)
	assert.NoError(t, gate.Check(100))
}

func TestRateGateWindowBudgetExhausted(t *testing.T) {
	clock := newFakeClock()
	gate := NewRateGate(testRateConfig(), clock.Now)

	for i := 0; i < 3; i++ {
		require.NoError(t, gate.Check(100))
		clock.Advance(5 * time.Second)
	}

	// 15s elapsed, three hits inside the 20s window.
	err := gate.Check(100)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, constants.ErrCodeRateLimited))

	// The oldest hit ages out at t=20s, so the remaining wait is 5s.
	coreErr := err.(errors.CoreError)
	assert.Equal(t, 5*time.Second, coreErr.RetryAfter())
}

func TestRateGateWindowSlides(t *testing.T) {
	clock := newFakeClock()
	gate := NewRateGate(testRateConfig(), clock.Now)

	for i := 0; i < 3; i++ {
		require.NoError(t, gate.Check(100))
		clock.Advance(5 * time.Second)
	}
	require.Error(t, gate.Check(100))

	// Advance past the oldest hit's expiry; one slot frees up.
	clock.Advance(6 * time.Second)
	assert.NoError(t, gate.Check(100))
}

func TestRateGateDeniedCheckConsumesNoBudget(t *testing.T) {
	clock := newFakeClock()
	gate := NewRateGate(testRateConfig(), clock.Now)

	require.NoError(t, gate.Check(100))

	// Hammering during the cooldown must not extend it.
	for i := 0; i < 10; i++ {
		clock.Advance(100 * time.Millisecond)
		require.Error(t, gate.Check(100))
	}

	clock.Advance(4 * time.Second)
	assert.NoError(t, gate.Check(100))
}

func TestRateGateUsersAreIndependent(t *testing.T) {
	clock := newFakeClock()
	gate := NewRateGate(testRateConfig(), clock.Now)

	require.NoError(t, gate.Check(100))
	require.Error(t, gate.Check(100))

	// A different user starts with a fresh budget.
	assert.NoError(t, gate.Check(200))
}

func TestShardIndexInRange(t *testing.T) {
	for _, id := range []int64{0, 1, -1, 42, 1 << 40, -1 << 40} {
		idx := shardIndex(id)
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, constants.AdmissionShardCount)
	}
}
