package dna

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// unitCapacity is the number of 2-bit symbols stored in one uint64 unit.
const unitCapacity = 32

// PackedSequence is a growable nucleotide sequence stored at 2 bits per
// symbol. Symbol i lives in unit i/32 at bit offset 2*(i%32).
//
// Bits past Len() are always zero, so two sequences holding the same symbols
// have identical storage and identical [PackedSequence.Key] values.
//
// PushBack and PopBack are amortized O(1). PushFront and PopFront shift every
// unit in use and are O(Len()/32); hot loops should slide from the back.
//
// A PackedSequence is not safe for concurrent mutation.
type PackedSequence struct {
	units []uint64
	size  int
}

// NewPackedSequence returns a sequence of n symbols, all A.
func NewPackedSequence(n int) *PackedSequence {
	if n < 0 {
		panic(fmt.Sprintf("dna: negative length %d", n))
	}
	return &PackedSequence{
		units: make([]uint64, unitsFor(n)),
		size:  n,
	}
}

// FromString packs s. Symbols outside the alphabet are stored as A.
func FromString(s string) *PackedSequence {
	p := NewPackedSequence(len(s))
	for i := 0; i < len(s); i++ {
		p.setCode(i, Encode(s[i]))
	}
	return p
}

// FromBytes packs b. Symbols outside the alphabet are stored as A.
func FromBytes(b []byte) *PackedSequence {
	p := NewPackedSequence(len(b))
	for i, c := range b {
		p.setCode(i, Encode(c))
	}
	return p
}

// Clone returns a deep copy of p.
func (p *PackedSequence) Clone() *PackedSequence {
	units := make([]uint64, len(p.units))
	copy(units, p.units)
	return &PackedSequence{units: units, size: p.size}
}

// Len returns the number of symbols.
func (p *PackedSequence) Len() int {
	return p.size
}

// Cap returns the number of symbols the current storage holds without
// growing.
func (p *PackedSequence) Cap() int {
	return len(p.units) * unitCapacity
}

// CharAt returns the symbol at index i. It panics if i is out of range.
func (p *PackedSequence) CharAt(i int) byte {
	p.checkIndex(i)
	return Decode(p.code(i))
}

// SetCharAt overwrites the symbol at index i. It panics if i is out of range.
func (p *PackedSequence) SetCharAt(i int, c byte) {
	p.checkIndex(i)
	p.setCode(i, Encode(c))
}

// PushBack appends c.
func (p *PackedSequence) PushBack(c byte) {
	if p.size == len(p.units)*unitCapacity {
		p.units = append(p.units, 0)
	}
	p.setCode(p.size, Encode(c))
	p.size++
}

// PopBack removes and returns the last symbol. It panics if p is empty.
func (p *PackedSequence) PopBack() byte {
	if p.size == 0 {
		panic("dna: PopBack on empty sequence")
	}
	p.size--
	c := Decode(p.code(p.size))
	p.setCode(p.size, 0)
	return c
}

// PushFront prepends c. Every unit in use is shifted by one symbol.
func (p *PackedSequence) PushFront(c byte) {
	p.size++
	used := unitsFor(p.size)
	if used > len(p.units) {
		p.units = append(p.units, 0)
	}

	carry := Encode(c)
	for u := 0; u < used; u++ {
		top := p.units[u] >> (2 * (unitCapacity - 1))
		p.units[u] = p.units[u]<<2 | carry
		carry = top
	}
}

// PopFront removes and returns the first symbol. It panics if p is empty.
func (p *PackedSequence) PopFront() byte {
	if p.size == 0 {
		panic("dna: PopFront on empty sequence")
	}
	c := Decode(p.code(0))
	used := unitsFor(p.size)
	for u := 0; u < used; u++ {
		p.units[u] >>= 2
		if u+1 < used {
			p.units[u] |= (p.units[u+1] & 3) << (2 * (unitCapacity - 1))
		}
	}
	p.size--
	return c
}

// String returns the symbols as a string.
func (p *PackedSequence) String() string {
	var b strings.Builder
	b.Grow(p.size)
	for i := 0; i < p.size; i++ {
		b.WriteByte(Decode(p.code(i)))
	}
	return b.String()
}

// ReverseComplement returns a new sequence of the same length with the
// symbols reversed and complemented.
func (p *PackedSequence) ReverseComplement() *PackedSequence {
	rc := NewPackedSequence(p.size)
	for i := 0; i < p.size; i++ {
		rc.setCode(p.size-1-i, 3-p.code(i))
	}
	return rc
}

// Compare orders sequences lexicographically with A < C < G < T. It returns
// -1, 0 or +1.
func (p *PackedSequence) Compare(q *PackedSequence) int {
	n := min(p.size, q.size)
	for i := 0; i < n; i++ {
		a, b := p.code(i), q.code(i)
		if a != b {
			if a < b {
				return -1
			}
			return 1
		}
	}
	switch {
	case p.size < q.size:
		return -1
	case p.size > q.size:
		return 1
	}
	return 0
}

// Equal reports whether p and q hold the same symbols.
func (p *PackedSequence) Equal(q *PackedSequence) bool {
	if p.size != q.size {
		return false
	}
	used := unitsFor(p.size)
	for u := 0; u < used; u++ {
		if p.units[u] != q.units[u] {
			return false
		}
	}
	return true
}

// Key returns a compact binary encoding of p (length followed by the packed
// units in use) suitable as a map key.
func (p *PackedSequence) Key() string {
	used := unitsFor(p.size)
	buf := make([]byte, 0, 8*(used+1))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(p.size))
	for u := 0; u < used; u++ {
		buf = binary.LittleEndian.AppendUint64(buf, p.units[u])
	}
	return string(buf)
}

func (p *PackedSequence) code(i int) uint64 {
	return (p.units[i/unitCapacity] >> (2 * uint(i%unitCapacity))) & 3
}

func (p *PackedSequence) setCode(i int, code uint64) {
	shift := 2 * uint(i%unitCapacity)
	u := &p.units[i/unitCapacity]
	*u = (*u &^ (3 << shift)) | (code&3)<<shift
}

func (p *PackedSequence) checkIndex(i int) {
	if i < 0 || i >= p.size {
		panic(fmt.Sprintf("dna: index %d out of range [0, %d)", i, p.size))
	}
}

func unitsFor(n int) int {
	return (n + unitCapacity - 1) / unitCapacity
}
