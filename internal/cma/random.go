package cma

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// RNG is the engine's injectable randomness source. It wraps a PCG source so
// the exact generator state can be captured in a snapshot and restored for
// bit-for-bit reproducible continuation.
type RNG struct {
	src    *rand.PCGSource
	normal distuv.Normal
}

// NewRNG creates a generator seeded deterministically from seed.
func NewRNG(seed uint64) *RNG {
	src := &rand.PCGSource{}
	src.Seed(seed)
	return &RNG{
		src:    src,
		normal: distuv.Normal{Mu: 0, Sigma: 1, Src: src},
	}
}

// Normal draws one standard-normal variate.
func (r *RNG) Normal() float64 {
	return r.normal.Rand()
}

// State returns the serialized generator state.
func (r *RNG) State() ([]byte, error) {
	state, err := r.src.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize RNG state: %w", err)
	}
	return state, nil
}

// SetState restores a generator state previously produced by State.
func (r *RNG) SetState(state []byte) error {
	if err := r.src.UnmarshalBinary(state); err != nil {
		return fmt.Errorf("failed to restore RNG state: %w", err)
	}
	return nil
}
