package sampler

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"truthkit/pkg/paginator"
)

// Candidate is an entity eligible for random selection, weighted by its
// prominence in the source collection.
type Candidate struct {
	ID     string
	Weight float64
}

// DefaultDecay is the per-position weight decay applied to candidate pools
// built from a crawl: earlier items are favored but never guaranteed.
const DefaultDecay = 0.15

// Pool builds a candidate pool from crawled items. Weight decays
// exponentially with position in the source sequence.
func Pool[T paginator.Item](items []T, decay float64) []Candidate {
	if decay <= 0 {
		decay = DefaultDecay
	}
	pool := make([]Candidate, len(items))
	for i, item := range items {
		pool[i] = Candidate{
			ID:     item.ItemID(),
			Weight: math.Exp(-decay * float64(i)),
		}
	}
	return pool
}

// Sampler selects candidates using weighted random sampling without
// replacement. Behavior is deterministic under a supplied seed.
type Sampler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a sampler with an explicit seed, for reproducible selection.
func New(seed int64) *Sampler {
	return &Sampler{rng: rand.New(rand.NewSource(seed))}
}

var (
	entropyOnce sync.Once
	entropySeed int64
)

// NewFromEntropy creates a sampler seeded from a process-wide entropy
// source initialized once.
func NewFromEntropy() *Sampler {
	entropyOnce.Do(func() {
		entropySeed = time.Now().UnixNano()
	})
	return New(entropySeed)
}

// Sample picks up to n candidates without replacement, each draw
// proportional to the remaining candidates' weights. The pool is not
// modified.
func (s *Sampler) Sample(pool []Candidate, n int) []Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n <= 0 || len(pool) == 0 {
		return nil
	}
	if n > len(pool) {
		n = len(pool)
	}

	remaining := make([]Candidate, len(pool))
	copy(remaining, pool)

	picked := make([]Candidate, 0, n)
	for len(picked) < n && len(remaining) > 0 {
		idx := s.roulette(remaining)
		if idx < 0 {
			break
		}
		picked = append(picked, remaining[idx])
		remaining = append(remaining[:idx], remaining[idx+1:]...)
	}
	return picked
}

// roulette picks one index proportional to weight. Candidates with
// non-positive weight are only eligible when every weight is non-positive,
// in which case selection is uniform.
func (s *Sampler) roulette(cands []Candidate) int {
	total := 0.0
	for _, c := range cands {
		if c.Weight > 0 {
			total += c.Weight
		}
	}
	if total <= 0 {
		return s.rng.Intn(len(cands))
	}

	r := s.rng.Float64() * total
	for i, c := range cands {
		if c.Weight <= 0 {
			continue
		}
		r -= c.Weight
		if r <= 0 {
			return i
		}
	}
	// Floating point drift: fall back to the last positive-weight index.
	for i := len(cands) - 1; i >= 0; i-- {
		if cands[i].Weight > 0 {
			return i
		}
	}
	return -1
}
