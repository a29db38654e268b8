// Package rng provides the single sequential pseudorandom draw stream shared by
// every setup and daily phase.
//
// Every algorithm that consumes draws depends on the order in which they are
// taken, so callers must iterate places and households in registry order.
package rng

import (
	crand "crypto/rand"
	"encoding/binary"
	"math"
	"math/rand/v2"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/stat/distuv"
)

// Rand is the subset of draws the assignment engines need.
type Rand interface {
	// Float64 returns a uniform draw in [0, 1).
	Float64() float64
	// Normal returns a normally distributed draw.
	Normal(mean, std float64) float64
	// Shuffle permutes n elements in place using swap.
	Shuffle(n int, swap func(i, j int))
	// IntN returns a uniform integer in [0, n).
	IntN(n int) int
}

// Stream is a seeded PCG-backed Rand.
type Stream struct {
	seed uint64
	src  rand.Source
	r    *rand.Rand
}

// New creates a Stream from a seed. Equal seeds yield equal draw sequences.
func New(seed uint64) *Stream {
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	return &Stream{seed: seed, src: src, r: rand.New(src)}
}

// NewSeed generates a seed using crypto/rand.
func NewSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, eris.Wrap(err, "rng: read random seed")
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// Seed returns the seed the stream was created with.
func (s *Stream) Seed() uint64 { return s.seed }

func (s *Stream) Float64() float64 { return s.r.Float64() }

// Normal draws from N(mean, std). A non-positive std returns mean without
// consuming a draw.
func (s *Stream) Normal(mean, std float64) float64 {
	if std <= 0 {
		return mean
	}
	d := distuv.Normal{Mu: mean, Sigma: std, Src: s.src}
	return d.Rand()
}

func (s *Stream) Shuffle(n int, swap func(i, j int)) { s.r.Shuffle(n, swap) }

func (s *Stream) IntN(n int) int { return s.r.IntN(n) }

// RoundHalfUp rounds x to the nearest integer, halves rounding up.
func RoundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
