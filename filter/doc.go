// Package filter provides the shared membership filter of the junction
// enumerator: a concurrent bit vector of 2^bits bits probed as a multi-hash
// Bloom filter.
//
// Unlike a general purpose Bloom filter, the filter does not hash items
// itself. The enumerator's rolling hash already produces k independent
// values of exactly bits bits for every k-mer and edge, and those values are
// used directly as bit indexes. An item is "possibly present" iff all k of
// its bits are set. False negatives are impossible; the false positive rate
// depends on:
//   - Filter capacity (2^bits)
//   - Number of hash functions (k)
//   - Number of items added
//
// # Thread Safety
//
// [Filter.SetBit] uses [sync/atomic.Uint64.Or] and [Filter.GetBit] uses an
// atomic load, so any number of goroutines may set and test bits
// concurrently without locks. Bits are never cleared.
//
// # Choosing Parameters
//
// Use [OptimalBits] with the expected number of distinct edges and the
// desired false positive rate:
//
//	nbits, _ := filter.OptimalBits(50_000_000, 0.01, 4)
//	f, err := filter.New(nbits, 4)
//
// # Memory Usage
//
//	memory_bytes = 2^bits / 8
//
// Example: bits=32 uses 512 MiB.
//
// # Dumps
//
// [Filter.MarshalBinary] and [UnmarshalBinary] write and read a versioned
// binary image of the filter, which the command line tool uses to inspect
// the fill ratio of a finished run.
package filter
