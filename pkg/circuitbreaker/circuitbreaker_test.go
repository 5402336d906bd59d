package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDownstream = errors.New("downstream unavailable")

func failing() error { return errDownstream }
func succeeding() error { return nil }

func TestClosedPassesThrough(t *testing.T) {
	cb := New(Config{Name: "test", FailureThreshold: 3, Cooldown: time.Minute})

	assert.NoError(t, cb.Execute(succeeding))
	assert.Equal(t, StateClosed, cb.State())
}

func TestOpensAfterConsecutiveFailures(t *testing.T) {
	cb := New(Config{Name: "test", FailureThreshold: 3, Cooldown: time.Minute})

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Execute(failing), errDownstream)
	}
	assert.Equal(t, StateOpen, cb.State())

	// Calls fail fast without touching the downstream.
	called := false
	err := cb.Execute(func() error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
}

func TestSuccessResetsFailureCount(t *testing.T) {
	cb := New(Config{Name: "test", FailureThreshold: 2, Cooldown: time.Minute})

	require.Error(t, cb.Execute(failing))
	require.NoError(t, cb.Execute(succeeding))
	require.Error(t, cb.Execute(failing))
	assert.Equal(t, StateClosed, cb.State())
}

func TestHalfOpenProbeClosesOnSuccess(t *testing.T) {
	cb := New(Config{Name: "test", FailureThreshold: 1, Cooldown: 5 * time.Millisecond})

	require.Error(t, cb.Execute(failing))
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(10 * time.Millisecond)
	assert.NoError(t, cb.Execute(succeeding))
	assert.Equal(t, StateClosed, cb.State())
}

func TestHalfOpenProbeReopensOnFailure(t *testing.T) {
	cb := New(Config{Name: "test", FailureThreshold: 1, Cooldown: 5 * time.Millisecond})

	require.Error(t, cb.Execute(failing))
	time.Sleep(10 * time.Millisecond)

	assert.ErrorIs(t, cb.Execute(failing), errDownstream)
	assert.Equal(t, StateOpen, cb.State())
}
