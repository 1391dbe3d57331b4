package viral

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrossedMultipleBelowThreshold(t *testing.T) {
	multiple, fire := crossedMultiple(3, 5, 0)
	assert.False(t, fire, "counters below the threshold never fire")
	assert.Equal(t, int64(0), multiple)
}

func TestCrossedMultipleFiresAtExactMultiples(t *testing.T) {
	multiple, fire := crossedMultiple(5, 5, 0)
	assert.True(t, fire)
	assert.Equal(t, int64(5), multiple)

	multiple, fire = crossedMultiple(10, 5, 5)
	assert.True(t, fire)
	assert.Equal(t, int64(10), multiple)
}

func TestCrossedMultipleRedeliveryIsNoOp(t *testing.T) {
	// The counter sits between multiples and the last one already fired.
	_, fire := crossedMultiple(7, 5, 5)
	assert.False(t, fire, "redelivered notification for an already-fired multiple must not fire again")

	_, fire = crossedMultiple(20, 5, 20)
	assert.False(t, fire)
}

func TestCrossedMultipleCatchesUpAfterLostNotifications(t *testing.T) {
	// Counter advanced past two crossings whose notifications were lost;
	// a single catch-up firing at the highest multiple covers both.
	multiple, fire := crossedMultiple(23, 5, 10)
	assert.True(t, fire)
	assert.Equal(t, int64(20), multiple)
}

func TestFeatureWindowSetsInitialExpiry(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	until := featureWindow(nil, now, 48*time.Hour)
	require.NotNil(t, until)
	assert.Equal(t, now.Add(48*time.Hour), *until)
}

func TestFeatureWindowExtendsForward(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	current := now.Add(24 * time.Hour)

	until := featureWindow(&current, now, 48*time.Hour)
	require.NotNil(t, until)
	assert.Equal(t, now.Add(48*time.Hour), *until, "a longer fresh window replaces a shorter outstanding one")
}

func TestFeatureWindowNeverShrinks(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	// Outstanding pro-tier window, then a free-tier firing overlaps it.
	proUntil := now.Add(168 * time.Hour)

	until := featureWindow(&proUntil, now, 48*time.Hour)
	require.NotNil(t, until)
	assert.Equal(t, proUntil, *until, "a shorter overlapping window must not pull the expiry back")
}

func TestFeatureWindowIsMonotone(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	durations := []time.Duration{48 * time.Hour, 168 * time.Hour, 48 * time.Hour, 48 * time.Hour}

	var current *time.Time
	var previous time.Time
	for i, d := range durations {
		current = featureWindow(current, now.Add(time.Duration(i)*time.Hour), d)
		require.NotNil(t, current)
		assert.False(t, current.Before(previous), "expiry moved backward on firing %d", i+1)
		previous = *current
	}
}
