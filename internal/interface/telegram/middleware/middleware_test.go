package middleware

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_Check(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(RateLimitConfig{
		RequestsPerMinute: 6,
		BurstSize:         2,
		WhitelistedUsers:  map[int64]bool{99: true},
		Now:               func() time.Time { return now },
	})

	assert.True(t, rl.Check(1).Allowed)
	assert.True(t, rl.Check(1).Allowed)

	res := rl.Check(1)
	assert.False(t, res.Allowed)
	assert.InDelta(t, 10*time.Second, res.RetryAfter, float64(time.Second))
	assert.Contains(t, res.Message(), "Försök igen")

	// Other users have their own bucket.
	assert.True(t, rl.Check(2).Allowed)

	for i := 0; i < 10; i++ {
		assert.True(t, rl.Check(99).Allowed)
	}

	now = now.Add(10 * time.Second)
	assert.True(t, rl.Check(1).Allowed)
}

func TestRateLimiter_DropsIdleBuckets(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(RateLimitConfig{IdleTTL: time.Minute, Now: func() time.Time { return now }})

	rl.Check(1)
	rl.Check(2)
	assert.Equal(t, 2, rl.Size())

	now = now.Add(2 * time.Minute)
	rl.Check(3)
	assert.Equal(t, 1, rl.Size())
}

func TestRecover(t *testing.T) {
	err := Recover(nil, "stats", 1, func() error { panic("boom") })
	var pe *PanicError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "stats", pe.Command)
	assert.Contains(t, pe.Stack, "middleware")
	assert.EqualError(t, err, "panic in /stats: boom")

	want := errors.New("plain")
	assert.Equal(t, want, Recover(nil, "stats", 1, func() error { return want }))
	assert.NoError(t, Recover(nil, "stats", 1, func() error { return nil }))
}
