// Package rollinghash implements the double-stranded rolling hash used to
// enumerate de Bruijn graph junctions.
//
// A [Seed] holds N independent cyclic polynomial hash functions sharing one
// window length and output width. A [Vertex] keeps N forward and N
// reverse-complement states of one k-mer window in lockstep and derives,
// in O(1), the canonical hash of any one-symbol extension of the window.
// Those extensions are the edges of the graph.
package rollinghash

import (
	"errors"
	"fmt"
)

// MaxBitWidth is the widest hash value supported.
const MaxBitWidth = 64

var (
	// ErrInvalidHashCount is returned when a seed is asked for zero functions.
	ErrInvalidHashCount = errors.New("rollinghash: number of hash functions must be positive")

	// ErrInvalidWindow is returned for a non-positive window length.
	ErrInvalidWindow = errors.New("rollinghash: window length must be positive")

	// ErrInvalidBitWidth is returned when the bit width is outside [1, 64].
	ErrInvalidBitWidth = errors.New("rollinghash: bit width out of range")
)

// Seed is the immutable parameter set for N parallel rolling hash functions.
// It is safe to share between goroutines.
type Seed struct {
	functions []CyclicHash
}

// NewSeed creates numberOfFunctions hash functions over windows of
// windowLength symbols producing bitWidth-bit values. Function i gets its own
// character table derived from seed and i.
func NewSeed(numberOfFunctions, windowLength int, bitWidth uint, seed uint64) (*Seed, error) {
	if numberOfFunctions <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidHashCount, numberOfFunctions)
	}
	if windowLength <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWindow, windowLength)
	}
	if bitWidth == 0 || bitWidth > MaxBitWidth {
		return nil, fmt.Errorf("%w: got %d, valid range 1-%d", ErrInvalidBitWidth, bitWidth, MaxBitWidth)
	}

	functions := make([]CyclicHash, numberOfFunctions)
	for i := range functions {
		functions[i] = newCyclicHash(windowLength, bitWidth, seedFor(seed, i))
	}
	return &Seed{functions: functions}, nil
}

// VertexLength returns the window length k.
func (s *Seed) VertexLength() int {
	return s.functions[0].Window()
}

// BitsNumber returns the width of hash values in bits.
func (s *Seed) BitsNumber() uint {
	return s.functions[0].WordSize()
}

// HashFunctionsNumber returns N.
func (s *Seed) HashFunctionsNumber() int {
	return len(s.functions)
}

// Function returns an empty state of hash function i.
func (s *Seed) Function(i int) CyclicHash {
	return s.functions[i]
}
