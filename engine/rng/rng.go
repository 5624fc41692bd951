// Package rng provides the single seeded random stream shared by all
// subsystems. Identical seeds and identical call sequences reproduce
// identical playthroughs.
package rng

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math/rand"
	"strconv"
)

// countingSource counts raw draws so the stream can be restored exactly.
type countingSource struct {
	src   rand.Source
	draws int64
}

func (c *countingSource) Int63() int64 {
	c.draws++
	return c.src.Int63()
}

func (c *countingSource) Seed(seed int64) {
	c.src.Seed(seed)
	c.draws = 0
}

// RNG wraps math/rand.Rand with deterministic position tracking.
// Position counts raw source draws, enabling save/restore.
type RNG struct {
	seed string
	src  *countingSource
	r    *rand.Rand
}

// New creates a new deterministic RNG from a seed string.
func New(seed string) *RNG {
	src := &countingSource{src: rand.NewSource(SeedValue(seed))}
	return &RNG{
		seed: seed,
		src:  src,
		r:    rand.New(src),
	}
}

// SeedValue hashes a seed string into the int64 math/rand expects.
// Purely numeric seeds are used as-is.
func SeedValue(seed string) int64 {
	if n, err := strconv.ParseInt(seed, 10, 64); err == nil {
		return n
	}
	h := fnv.New64a()
	h.Write([]byte(seed))
	return int64(h.Sum64())
}

// NewSeed generates a fresh seed string using crypto/rand.
func NewSeed() (string, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return "", fmt.Errorf("read random seed: %w", err)
	}
	return strconv.FormatInt(int64(binary.LittleEndian.Uint64(b[:])>>1), 10), nil
}

// Seed returns the seed string the stream was created from.
func (r *RNG) Seed() string {
	return r.seed
}

// Roll returns a random integer in [1, sides].
func (r *RNG) Roll(sides int) int {
	return r.r.Intn(sides) + 1
}

// Intn returns a random integer in [0, n).
func (r *RNG) Intn(n int) int {
	return r.r.Intn(n)
}

// Float64 returns a random float in [0, 1).
func (r *RNG) Float64() float64 {
	return r.r.Float64()
}

// Chance reports whether a draw falls below p. Always consumes one draw.
func (r *RNG) Chance(p float64) bool {
	return r.r.Float64() < p
}

// WeightedSelect returns an index chosen by weighted random selection.
// weights must be non-empty with all positive values.
func (r *RNG) WeightedSelect(weights []int) int {
	total := 0
	for _, w := range weights {
		total += w
	}
	roll := r.r.Intn(total)
	cumulative := 0
	for i, w := range weights {
		cumulative += w
		if roll < cumulative {
			return i
		}
	}
	return len(weights) - 1
}

// Position returns the number of raw source draws made since creation.
func (r *RNG) Position() int64 {
	return r.src.draws
}

// Restore creates an RNG and advances it to the given position.
// This reproduces the exact RNG state for save/load.
func Restore(seed string, position int64) *RNG {
	r := New(seed)
	for i := int64(0); i < position; i++ {
		r.src.Int63()
	}
	return r
}
