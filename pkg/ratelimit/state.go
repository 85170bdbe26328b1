package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

// State tracks the server-reported rate-limit window for one session. The
// transport is the single mutator (Update after every response); any
// goroutine may read the latest committed snapshot.
type State struct {
	mu        sync.Mutex
	limit     int
	remaining int
	resetAt   time.Time
	known     bool
}

// Snapshot is an immutable view of the rate-limit window.
type Snapshot struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
	Known     bool
}

// NewState creates an empty rate-limit state.
func NewState() *State {
	return &State{}
}

// Update applies the vendor rate-limit headers from a response. Headers that
// are absent or malformed leave the corresponding field untouched.
func (s *State) Update(h http.Header) {
	limit, hasLimit := parseIntHeader(h, "X-RateLimit-Limit")
	remaining, hasRemaining := parseIntHeader(h, "X-RateLimit-Remaining")
	resetAt, hasReset := parseTimeHeader(h, "X-RateLimit-Reset")

	if !hasLimit && !hasRemaining && !hasReset {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if hasLimit {
		s.limit = limit
	}
	if hasRemaining {
		s.remaining = remaining
	}
	if hasReset {
		s.resetAt = resetAt
	}
	s.known = true
}

// Get returns the latest committed snapshot.
func (s *State) Get() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		Limit:     s.limit,
		Remaining: s.remaining,
		ResetAt:   s.resetAt,
		Known:     s.known,
	}
}

// Exhausted reports whether the server window has no quota left and the
// reset instant is still in the future.
func (s *State) Exhausted(now time.Time) bool {
	snap := s.Get()
	return snap.Known && snap.Remaining <= 0 && snap.ResetAt.After(now)
}

func parseIntHeader(h http.Header, key string) (int, bool) {
	v := h.Get(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseTimeHeader accepts RFC3339 (the vendor format) or a unix timestamp.
func parseTimeHeader(h http.Header, key string) (time.Time, bool) {
	v := h.Get(key)
	if v == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, true
	}
	if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Unix(secs, 0), true
	}
	return time.Time{}, false
}

// RetryAfter parses a Retry-After header as either delay-seconds or an HTTP
// date, returning the instant the client may retry at.
func RetryAfter(h http.Header, now time.Time) (time.Time, bool) {
	v := h.Get("Retry-After")
	if v == "" {
		return time.Time{}, false
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return now.Add(time.Duration(secs) * time.Second), true
	}
	if t, err := http.ParseTime(v); err == nil {
		return t, true
	}
	return time.Time{}, false
}
