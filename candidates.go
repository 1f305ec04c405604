package twopaco

import (
	"math/bits"
	"slices"
	"sync"

	"github.com/jcalabro/twopaco/dna"
	"github.com/zeebo/xxh3"
)

// candidateShards is the number of independently locked shards of the
// candidate set. Must be a power of 2.
const candidateShards = 256

// noSymbol marks a missing neighbour at a sequence end.
const noSymbol = 0

// candidate accumulates the neighbours observed for one canonical k-mer.
// in and out hold one bit per nucleotide code.
type candidate struct {
	seq      *dna.PackedSequence
	in, out  uint8
	boundary bool
}

func (c *candidate) isJunction(markEnds bool) bool {
	return bits.OnesCount8(c.in) > 1 || bits.OnesCount8(c.out) > 1 || (markEnds && c.boundary)
}

// candidateSet is the exact verification structure of the second pass: a
// sharded map from canonical k-mer to its observed neighbours. Lookup and
// insertion of a key happen under the shard lock, so concurrent workers
// that find the same k-mer converge on a single entry.
type candidateSet struct {
	singleStrand bool
	shards       [candidateShards]struct {
		mu sync.Mutex
		m  map[string]*candidate
	}
}

func newCandidateSet(singleStrand bool) *candidateSet {
	s := &candidateSet{singleStrand: singleStrand}
	for i := range s.shards {
		s.shards[i].m = make(map[string]*candidate)
	}
	return s
}

func symbolBit(c byte) uint8 {
	if c == noSymbol {
		return 0
	}
	return 1 << dna.Encode(c)
}

func complementOrNone(c byte) byte {
	if c == noSymbol {
		return noSymbol
	}
	return dna.Complement(c)
}

// Record adds one occurrence of kmer with its neighbours prev and next
// (noSymbol at a sequence end). Neighbours are re-oriented to the canonical
// strand. It reports whether kmer was new to the set.
func (s *candidateSet) Record(kmer []byte, prev, next byte, boundary bool) bool {
	fwd := dna.FromBytes(kmer)
	canon := fwd
	in, out := symbolBit(prev), symbolBit(next)

	if !s.singleStrand {
		rc := fwd.ReverseComplement()
		switch cmp := fwd.Compare(rc); {
		case cmp > 0:
			// On the reverse strand the roles of prev and next swap.
			canon = rc
			in, out = symbolBit(complementOrNone(next)), symbolBit(complementOrNone(prev))
		case cmp == 0:
			// A palindrome is adjacent to both orientations of its
			// neighbours.
			in |= symbolBit(complementOrNone(next))
			out |= symbolBit(complementOrNone(prev))
		}
	}

	key := canon.Key()
	shard := &s.shards[xxh3.HashString(key)&(candidateShards-1)]
	shard.mu.Lock()
	defer shard.mu.Unlock()

	c, ok := shard.m[key]
	if !ok {
		c = &candidate{seq: canon}
		shard.m[key] = c
	}
	c.in |= in
	c.out |= out
	c.boundary = c.boundary || boundary
	return !ok
}

// Len returns the number of distinct candidates.
func (s *candidateSet) Len() int {
	var n int
	for i := range s.shards {
		shard := &s.shards[i]
		shard.mu.Lock()
		n += len(shard.m)
		shard.mu.Unlock()
	}
	return n
}

// Junctions returns the canonical strings of every confirmed junction in
// sorted order.
func (s *candidateSet) Junctions(markEnds bool) []string {
	var out []string
	for i := range s.shards {
		shard := &s.shards[i]
		shard.mu.Lock()
		for _, c := range shard.m {
			if c.isJunction(markEnds) {
				out = append(out, c.seq.String())
			}
		}
		shard.mu.Unlock()
	}
	slices.Sort(out)
	return out
}
