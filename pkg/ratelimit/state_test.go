package ratelimit

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateStartsUnknown(t *testing.T) {
	s := NewState()
	snap := s.Get()
	assert.False(t, snap.Known)
	assert.False(t, s.Exhausted(time.Now()))
}

func TestStateUpdateFromHeaders(t *testing.T) {
	reset := time.Now().Add(2 * time.Minute).UTC().Truncate(time.Second)

	h := http.Header{}
	h.Set("X-RateLimit-Limit", "300")
	h.Set("X-RateLimit-Remaining", "255")
	h.Set("X-RateLimit-Reset", reset.Format(time.RFC3339))

	s := NewState()
	s.Update(h)

	snap := s.Get()
	assert.True(t, snap.Known)
	assert.Equal(t, 300, snap.Limit)
	assert.Equal(t, 255, snap.Remaining)
	assert.True(t, snap.ResetAt.Equal(reset))
}

func TestStateUpdateAcceptsUnixReset(t *testing.T) {
	reset := time.Now().Add(time.Minute).Unix()

	h := http.Header{}
	h.Set("X-RateLimit-Reset", fmt.Sprintf("%d", reset))

	s := NewState()
	s.Update(h)

	snap := s.Get()
	assert.True(t, snap.Known)
	assert.Equal(t, reset, snap.ResetAt.Unix())
}

func TestStateIgnoresMissingAndMalformedHeaders(t *testing.T) {
	s := NewState()

	s.Update(http.Header{})
	assert.False(t, s.Get().Known)

	h := http.Header{}
	h.Set("X-RateLimit-Limit", "not-a-number")
	s.Update(h)
	assert.False(t, s.Get().Known)

	// a later partial update leaves the other fields intact
	h = http.Header{}
	h.Set("X-RateLimit-Limit", "300")
	h.Set("X-RateLimit-Remaining", "10")
	s.Update(h)

	h = http.Header{}
	h.Set("X-RateLimit-Remaining", "9")
	s.Update(h)

	snap := s.Get()
	assert.Equal(t, 300, snap.Limit)
	assert.Equal(t, 9, snap.Remaining)
}

func TestStateExhausted(t *testing.T) {
	now := time.Now()

	h := http.Header{}
	h.Set("X-RateLimit-Remaining", "0")
	h.Set("X-RateLimit-Reset", now.Add(time.Minute).Format(time.RFC3339))

	s := NewState()
	s.Update(h)

	assert.True(t, s.Exhausted(now))
	assert.False(t, s.Exhausted(now.Add(2*time.Minute)))
}

func TestRetryAfterSeconds(t *testing.T) {
	now := time.Now()

	h := http.Header{}
	h.Set("Retry-After", "30")

	at, ok := RetryAfter(h, now)
	require.True(t, ok)
	assert.Equal(t, now.Add(30*time.Second), at)
}

func TestRetryAfterHTTPDate(t *testing.T) {
	when := time.Now().Add(time.Minute).UTC().Truncate(time.Second)

	h := http.Header{}
	h.Set("Retry-After", when.Format(http.TimeFormat))

	at, ok := RetryAfter(h, time.Now())
	require.True(t, ok)
	assert.True(t, at.Equal(when))
}

func TestRetryAfterAbsentOrInvalid(t *testing.T) {
	_, ok := RetryAfter(http.Header{}, time.Now())
	assert.False(t, ok)

	h := http.Header{}
	h.Set("Retry-After", "soon")
	_, ok = RetryAfter(h, time.Now())
	assert.False(t, ok)
}

func TestPacerAllowsBurstThenThrottles(t *testing.T) {
	// 10 requests per second with a burst of 1
	p := NewPacer(10, time.Second)

	assert.True(t, p.Allow())
}

func TestPacerDefaults(t *testing.T) {
	// nonsense inputs fall back to a working pacer
	p := NewPacer(0, 0)
	assert.True(t, p.Allow())
}
