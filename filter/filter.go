package filter

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/bits"
	"sync/atomic"
	"unsafe"
)

// cacheLineSize is the size of a CPU cache line in bytes.
const cacheLineSize = 64

const (
	// MinBits is the smallest supported log2 capacity.
	MinBits = 1
	// MaxBits is the largest supported log2 capacity (2^40 bits = 128 GiB).
	MaxBits = 40
)

var (
	// ErrInvalidBits is returned when the log2 capacity is out of range.
	ErrInvalidBits = errors.New("filter: log2 capacity out of range")

	// ErrInvalidK is returned when the number of hash functions is zero.
	ErrInvalidK = errors.New("filter: number of hash functions must be positive")
)

// Filter is a thread-safe bit vector of 2^bits bits used as a multi-hash
// Bloom filter. Callers hash an item with k functions producing values
// below Cap() and set or test the bit at each value.
//
// SetBit and GetBit are lock-free and may be called concurrently from any
// number of goroutines. A bit is never cleared, so once SetBit returns every
// later GetBit of the same index observes it.
type Filter struct {
	raw   []byte          // Raw allocation to keep aligned memory alive for GC
	words []atomic.Uint64 // cache-line aligned bit storage
	bits  uint8           // log2 of the capacity
	k     uint32          // hash functions per item
}

// New allocates an empty filter of 2^bits bits for items hashed with k
// functions.
func New(bits uint8, k uint32) (*Filter, error) {
	if bits < MinBits || bits > MaxBits {
		return nil, fmt.Errorf("%w: got %d, valid range %d-%d", ErrInvalidBits, bits, MinBits, MaxBits)
	}
	if k == 0 {
		return nil, ErrInvalidK
	}

	raw, words := makeAlignedAtomicUint64Slice(wordsFor(bits))
	return &Filter{
		raw:   raw,
		words: words,
		bits:  bits,
		k:     k,
	}, nil
}

func wordsFor(bits uint8) int {
	return int(max(uint64(1)<<bits/64, 1))
}

// makeAlignedAtomicUint64Slice allocates a cache-line aligned slice of atomic.Uint64.
// Returns the raw byte slice (to keep alive for GC) and the aligned atomic slice.
func makeAlignedAtomicUint64Slice(n int) ([]byte, []atomic.Uint64) {
	// atomic.Uint64 is the same size as uint64 (8 bytes)
	const atomicSize = 8
	raw := make([]byte, n*atomicSize+cacheLineSize-1)
	addr := uintptr(unsafe.Pointer(&raw[0]))
	offset := (cacheLineSize - int(addr%cacheLineSize)) % cacheLineSize
	aligned := unsafe.Slice((*atomic.Uint64)(unsafe.Pointer(&raw[offset])), n)
	return raw, aligned
}

// SetBit sets the bit at idx. It panics if idx >= Cap().
func (f *Filter) SetBit(idx uint64) {
	f.checkIndex(idx)
	mask := uint64(1) << (idx % 64)
	w := &f.words[idx/64]
	// Skip the read-modify-write when the bit is already set; most probes in
	// the second half of a run hit set bits.
	if w.Load()&mask != 0 {
		return
	}
	w.Or(mask)
}

// GetBit reports whether the bit at idx is set. It panics if idx >= Cap().
func (f *Filter) GetBit(idx uint64) bool {
	f.checkIndex(idx)
	return f.words[idx/64].Load()&(1<<(idx%64)) != 0
}

func (f *Filter) checkIndex(idx uint64) {
	if idx >= f.Cap() {
		panic(fmt.Sprintf("filter: index %d out of range, capacity %d", idx, f.Cap()))
	}
}

// Cap returns the capacity of the filter in bits.
func (f *Filter) Cap() uint64 {
	return uint64(1) << f.bits
}

// Bits returns log2 of the capacity.
func (f *Filter) Bits() uint8 {
	return f.bits
}

// K returns the number of hash functions per item.
func (f *Filter) K() uint32 {
	return f.k
}

// PopCount returns the number of set bits.
func (f *Filter) PopCount() uint64 {
	var set uint64
	for i := range f.words {
		set += uint64(bits.OnesCount64(f.words[i].Load()))
	}
	return set
}

// EstimatedFillRatio estimates the proportion of bits that are set.
func (f *Filter) EstimatedFillRatio() float64 {
	return float64(f.PopCount()) / float64(f.Cap())
}

// EstimatedFalsePositiveRate estimates the false positive rate from the
// current fill ratio: the probability that k independent probes all hit set
// bits.
func (f *Filter) EstimatedFalsePositiveRate() float64 {
	fill := f.EstimatedFillRatio()
	rate := 1.0
	for range f.k {
		rate *= fill
	}
	return rate
}

// Serialization constants and errors.
const (
	// serializeVersion is the current serialization format version.
	serializeVersion byte = 1

	// headerSize is the size of the serialization header in bytes.
	// Version (1) + Bits (1) + K (4) = 6 bytes
	headerSize = 6
)

var (
	// ErrInvalidData is returned when the serialized data is invalid or corrupted.
	ErrInvalidData = errors.New("filter: invalid serialized data")

	// ErrUnsupportedVersion is returned when the serialization version is not supported.
	ErrUnsupportedVersion = errors.New("filter: unsupported serialization version")
)

// MarshalBinary serializes the filter to a byte slice.
// The serialized format is:
//   - Version (1 byte): serialization format version
//   - Bits (1 byte): log2 of the capacity
//   - K (4 bytes): number of hash functions (little-endian uint32)
//   - Words (max(2^bits/64, 1) * 8 bytes): the bit array (little-endian uint64s)
//
// MarshalBinary may run concurrently with SetBit; bits set during the call
// may or may not be captured.
func (f *Filter) MarshalBinary() ([]byte, error) {
	buf := make([]byte, headerSize+len(f.words)*8)

	buf[0] = serializeVersion
	buf[1] = f.bits
	binary.LittleEndian.PutUint32(buf[2:6], f.k)

	offset := headerSize
	for i := range f.words {
		binary.LittleEndian.PutUint64(buf[offset:offset+8], f.words[i].Load())
		offset += 8
	}

	return buf, nil
}

// UnmarshalBinary deserializes a filter from a byte slice.
// Returns an error if the data is invalid or corrupted.
func UnmarshalBinary(data []byte) (*Filter, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: data too short (got %d bytes, need at least %d)", ErrInvalidData, len(data), headerSize)
	}

	version := data[0]
	if version != serializeVersion {
		return nil, fmt.Errorf("%w: got version %d, expected %d", ErrUnsupportedVersion, version, serializeVersion)
	}

	nbits := data[1]
	k := binary.LittleEndian.Uint32(data[2:6])
	if nbits < MinBits || nbits > MaxBits {
		return nil, fmt.Errorf("%w: bits=%d is not supported (valid range: %d-%d)", ErrInvalidData, nbits, MinBits, MaxBits)
	}
	if k == 0 {
		return nil, fmt.Errorf("%w: k cannot be zero", ErrInvalidData)
	}

	n := wordsFor(nbits)
	expectedTotalLen := headerSize + uint64(n)*8
	if uint64(len(data)) != expectedTotalLen {
		return nil, fmt.Errorf("%w: data length mismatch (got %d bytes, expected %d)", ErrInvalidData, len(data), expectedTotalLen)
	}

	raw, words := makeAlignedAtomicUint64Slice(n)
	offset := headerSize
	for i := range words {
		words[i].Store(binary.LittleEndian.Uint64(data[offset : offset+8]))
		offset += 8
	}

	return &Filter{
		raw:   raw,
		words: words,
		bits:  nbits,
		k:     k,
	}, nil
}
