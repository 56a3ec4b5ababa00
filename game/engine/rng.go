package engine

import (
	"math/rand/v2"
	"time"
)

// RNG is a thin wrapper around math/rand/v2 for deterministic seeding.
type RNG struct {
	r *rand.Rand
}

// NewRNG creates a deterministic RNG. A zero seed picks one from the clock.
func NewRNG(seed uint64) *RNG {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &RNG{r: rand.New(rand.NewPCG(seed, 0))}
}

// Bool is a fair coin flip
func (r *RNG) Bool() bool {
	return r.r.IntN(2) == 1
}

// IntN returns a random int in [0, n)
func (r *RNG) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	return r.r.IntN(n)
}

// ShuffleKeys permutes keys in place
func (r *RNG) ShuffleKeys(keys []ImageKey) {
	r.r.Shuffle(len(keys), func(i, j int) {
		keys[i], keys[j] = keys[j], keys[i]
	})
}
