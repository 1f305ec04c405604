package rollinghash

import (
	"encoding/binary"

	"github.com/zeebo/xxh3"
)

// CyclicHash is a cyclic polynomial (buzhash) rolling hash over a window of
// n symbols producing wordSize-bit values.
//
// The hash of x0..x(m-1) is the XOR over j of rot^(m-1-j)(table[xj]), where
// rot is a left rotation within a wordSize-bit word. Because of that shape
// the value of a one-symbol longer string can be derived in O(1) with
// [CyclicHash.Extend] and [CyclicHash.Prepend] without touching the window.
//
// A CyclicHash is a value type; copying it forks the state. The table is
// shared and never mutated.
type CyclicHash struct {
	value    uint64
	n        int
	wordSize uint
	table    *[256]uint64

	mask  uint64 // wordSize bits set
	mask1 uint64 // wordSize-1 bits set
	maskN uint64 // wordSize-(n%wordSize) bits set
	rotN  uint   // n % wordSize
}

// newCyclicHash builds an empty hash state for windows of n symbols. The
// character table is derived from seed with xxh3 so the same seed always
// yields the same hash function.
func newCyclicHash(n int, wordSize uint, seed uint64) CyclicHash {
	table := new([256]uint64)
	mask := maskBits(wordSize)
	var buf [1]byte
	for c := range table {
		buf[0] = byte(c)
		table[c] = xxh3.HashSeed(buf[:], seed) & mask
	}
	return newCyclicHashWithTable(n, wordSize, table)
}

func newCyclicHashWithTable(n int, wordSize uint, table *[256]uint64) CyclicHash {
	rotN := uint(n) % wordSize
	return CyclicHash{
		n:        n,
		wordSize: wordSize,
		table:    table,
		mask:     maskBits(wordSize),
		mask1:    maskBits(wordSize - 1),
		maskN:    maskBits(wordSize - rotN),
		rotN:     rotN,
	}
}

// maskBits returns a word with the low w bits set.
func maskBits(w uint) uint64 {
	if w >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << w) - 1
}

// Value returns the hash of the symbols eaten so far.
func (h *CyclicHash) Value() uint64 {
	return h.value
}

// Window returns the window length n.
func (h *CyclicHash) Window() int {
	return h.n
}

// WordSize returns the width of hash values in bits.
func (h *CyclicHash) WordSize() uint {
	return h.wordSize
}

// Reset clears the state so the hash can eat a new window.
func (h *CyclicHash) Reset() {
	h.value = 0
}

func (h *CyclicHash) rotl1(x uint64) uint64 {
	return ((x & h.mask1) << 1) | (x >> (h.wordSize - 1))
}

func (h *CyclicHash) rotr1(x uint64) uint64 {
	return (x >> 1) | ((x & 1) << (h.wordSize - 1))
}

func (h *CyclicHash) rotlN(x uint64) uint64 {
	// For rotN == 0 the right shift is by wordSize; for wordSize 64 that is a
	// shift by 64 which Go defines as 0.
	return ((x & h.maskN) << h.rotN) | (x >> (h.wordSize - h.rotN))
}

// Eat appends c to the hashed string. It is used to fill the first window.
func (h *CyclicHash) Eat(c byte) {
	h.value = h.rotl1(h.value) ^ h.table[c]
}

// Roll slides the window forward: from the hash of [out]X to the hash of
// X[in].
func (h *CyclicHash) Roll(out, in byte) {
	h.value = h.rotl1(h.value) ^ h.rotlN(h.table[out]) ^ h.table[in]
}

// RollBack slides the window backward: from the hash of X[in] to the hash of
// [out]X. It is the exact inverse of Roll(out, in).
func (h *CyclicHash) RollBack(out, in byte) {
	h.value = h.rotr1(h.value ^ h.rotlN(h.table[out]) ^ h.table[in])
}

// Extend returns the hash of Xc, where X is the current window, without
// changing the state.
func (h *CyclicHash) Extend(c byte) uint64 {
	return h.rotl1(h.value) ^ h.table[c]
}

// Prepend returns the hash of cX, where X is the current window, without
// changing the state.
func (h *CyclicHash) Prepend(c byte) uint64 {
	return h.rotlN(h.table[c]) ^ h.value
}

// HashOf hashes s from scratch with this function's table. Its result for a
// window-length s equals the rolling value for that window.
func (h *CyclicHash) HashOf(s []byte) uint64 {
	var v uint64
	for _, c := range s {
		v = h.rotl1(v) ^ h.table[c]
	}
	return v
}

// seedFor derives the table seed of function i from the base seed.
func seedFor(base uint64, i int) uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], base)
	binary.LittleEndian.PutUint64(buf[8:], uint64(i))
	return xxh3.Hash(buf[:])
}
