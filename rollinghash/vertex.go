package rollinghash

import (
	"fmt"

	"github.com/jcalabro/twopaco/dna"
)

// StrandComparison tells which strand of a k-mer (or of an edge) is canonical.
type StrandComparison uint8

const (
	// PositiveLess means the forward strand hashes lower and is canonical.
	PositiveLess StrandComparison = iota
	// NegativeLess means the reverse-complement strand is canonical.
	NegativeLess
	// Tie means every hash function produced equal values on both strands.
	// It is resolved as the forward strand.
	Tie
)

func (s StrandComparison) String() string {
	switch s {
	case PositiveLess:
		return "positive"
	case NegativeLess:
		return "negative"
	case Tie:
		return "tie"
	}
	return fmt.Sprintf("StrandComparison(%d)", uint8(s))
}

// Vertex is the canonical rolling hash of a k-mer window. It keeps, for each
// of the seed's N functions, the hash of the forward k-mer and the hash of
// its reverse complement. Sliding the window updates both incrementally; the
// reverse-complement state rolls in the opposite direction.
//
// In single-strand mode no reverse-complement state is kept and the forward
// strand is always canonical.
//
// A Vertex is owned by one goroutine.
type Vertex struct {
	pos          []CyclicHash
	neg          []CyclicHash
	singleStrand bool
}

// NewVertex hashes the first k symbols of window, where k is the seed's
// vertex length. It panics if window is shorter than k.
func NewVertex(seed *Seed, window []byte, singleStrand bool) *Vertex {
	n := seed.HashFunctionsNumber()
	v := &Vertex{
		pos:          make([]CyclicHash, n),
		singleStrand: singleStrand,
	}
	if !singleStrand {
		v.neg = make([]CyclicHash, n)
	}
	for i := range v.pos {
		v.pos[i] = seed.Function(i)
	}
	for i := range v.neg {
		v.neg[i] = seed.Function(i)
	}
	v.Reset(window)
	return v
}

// Reset re-hashes the vertex from the first k symbols of window so the
// state can be reused for another sequence.
func (v *Vertex) Reset(window []byte) {
	k := v.Len()
	if len(window) < k {
		panic(fmt.Sprintf("rollinghash: window of %d symbols shorter than vertex length %d", len(window), k))
	}
	window = window[:k]

	for i := range v.pos {
		h := &v.pos[i]
		h.Reset()
		for _, c := range window {
			h.Eat(c)
		}
	}

	for i := range v.neg {
		h := &v.neg[i]
		h.Reset()
		for j := k - 1; j >= 0; j-- {
			h.Eat(dna.Complement(window[j]))
		}
	}
}

// Len returns the vertex length k.
func (v *Vertex) Len() int {
	return v.pos[0].Window()
}

// HashFunctionsNumber returns N.
func (v *Vertex) HashFunctionsNumber() int {
	return len(v.pos)
}

// BitsNumber returns the width of hash values in bits.
func (v *Vertex) BitsNumber() uint {
	return v.pos[0].WordSize()
}

// SingleStrand reports whether the reverse-complement state is disabled.
func (v *Vertex) SingleStrand() bool {
	return v.singleStrand
}

// Update slides the window one symbol: dropped leaves at the front and added
// enters at the back of the forward k-mer.
func (v *Vertex) Update(dropped, added byte) {
	for i := range v.pos {
		v.pos[i].Roll(dropped, added)
	}
	if len(v.neg) == 0 {
		return
	}

	// The reverse complement gains comp(added) at its front and loses
	// comp(dropped) at its back.
	negAdded := dna.Complement(added)
	negDropped := dna.Complement(dropped)
	for i := range v.neg {
		v.neg[i].RollBack(negAdded, negDropped)
	}
}

// RawPositiveHash returns the forward hash of function i.
func (v *Vertex) RawPositiveHash(i int) uint64 {
	return v.pos[i].value
}

// RawNegativeHash returns the reverse-complement hash of function i. It
// panics in single-strand mode.
func (v *Vertex) RawNegativeHash(i int) uint64 {
	return v.neg[i].value
}

// CanonicalHash returns min(forward, reverse) of the first function, or the
// forward hash in single-strand mode.
func (v *Vertex) CanonicalHash() uint64 {
	pos := v.pos[0].value
	if v.singleStrand {
		return pos
	}
	return min(pos, v.neg[0].value)
}

// DetermineStrand compares the forward and reverse-complement hashes of the
// k-mer itself, function by function, until one differs.
func (v *Vertex) DetermineStrand() StrandComparison {
	if v.singleStrand {
		return PositiveLess
	}
	for i := range v.pos {
		if r := compare(v.pos[i].value, v.neg[i].value); r != Tie {
			return r
		}
	}
	return Tie
}

// VertexHash returns the hash of the k-mer on the canonical strand for
// function i. Together with DetermineStrand it gives all N filter positions
// of the vertex, identical for both orientations of the k-mer.
func (v *Vertex) VertexHash(strand StrandComparison, i int) uint64 {
	if strand == NegativeLess {
		return v.neg[i].value
	}
	return v.pos[i].value
}

// DetermineStrandOnExtend decides the canonical strand of the edge formed by
// appending next to the k-mer. The forward edge Xn is compared with its
// reverse complement comp(n)rc(X) without materializing either string.
func (v *Vertex) DetermineStrandOnExtend(next byte) StrandComparison {
	if v.singleStrand {
		return PositiveLess
	}
	revNext := dna.Complement(next)
	for i := range v.pos {
		if r := compare(v.pos[i].Extend(next), v.neg[i].Prepend(revNext)); r != Tie {
			return r
		}
	}
	return Tie
}

// DetermineStrandOnPrepend decides the canonical strand of the edge formed by
// prepending prev to the k-mer.
func (v *Vertex) DetermineStrandOnPrepend(prev byte) StrandComparison {
	if v.singleStrand {
		return PositiveLess
	}
	revPrev := dna.Complement(prev)
	for i := range v.pos {
		if r := compare(v.pos[i].Prepend(prev), v.neg[i].Extend(revPrev)); r != Tie {
			return r
		}
	}
	return Tie
}

// OutgoingEdgeHash returns function i's hash of the edge X+next on the strand
// selected by DetermineStrandOnExtend(next).
func (v *Vertex) OutgoingEdgeHash(next byte, strand StrandComparison, i int) uint64 {
	if strand == NegativeLess {
		return v.neg[i].Prepend(dna.Complement(next))
	}
	return v.pos[i].Extend(next)
}

// IngoingEdgeHash returns function i's hash of the edge prev+X on the strand
// selected by DetermineStrandOnPrepend(prev).
func (v *Vertex) IngoingEdgeHash(prev byte, strand StrandComparison, i int) uint64 {
	if strand == NegativeLess {
		return v.neg[i].Extend(dna.Complement(prev))
	}
	return v.pos[i].Prepend(prev)
}

func compare(pos, neg uint64) StrandComparison {
	switch {
	case pos < neg:
		return PositiveLess
	case pos > neg:
		return NegativeLess
	}
	return Tie
}
