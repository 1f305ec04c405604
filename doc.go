// Package twopaco finds the junctions of the compacted de Bruijn graph of a
// large collection of DNA sequences without holding the k-mer set in memory.
//
// A junction (vertex) is a k-mer with more than one distinct neighbouring
// symbol on at least one side. Every junction is reported once, in its
// canonical form: the lexicographically smaller of the k-mer and its reverse
// complement.
//
// # Architecture
//
// The construction makes two passes over the input, both spread over a pool
// of worker goroutines.
//
// Fill pass: a double-stranded rolling hash ([rollinghash.Vertex]) slides
// over every sequence. For each window it sets, in a shared membership
// filter ([filter.Filter]), the bits of the canonical k-mer and of the edges
// ((k+1)-mers) linking it to its actual neighbours. Both strands of a locus
// produce the same bits, and the filter has no false negatives.
//
// Verify pass: the windows are hashed again. For each of the four possible
// extensions on each side, the edge's bits are tested in the filter without
// building the edge string. A window with more than one possible neighbour
// on one side is a candidate. Candidates are canonicalized through
// [dna.PackedSequence] and recorded with their real neighbours in an exact,
// sharded set. After the pass, candidates whose real neighbours do not
// branch (filter false positives) are dropped.
//
// The second pass starts only after the first completes on every worker.
//
// # Choosing Parameters
//
// Filter memory is 2^FilterBits bits. Use [filter.OptimalBits], or set
// Config.ExpectedItems, to size it for a target false positive rate. False
// positives only cost time in the verify pass; they never change the result.
//
//	cfg := twopaco.DefaultConfig()
//	cfg.K = 31
//	cfg.FilterBits = 32 // 512 MiB
//	e, err := twopaco.New(cfg, twopaco.WithLogger(logger))
//	stats, err := e.Run(ctx, source.NewFileSource(files...), sink)
//
// # Input Symbols
//
// Only A, C, G and T are represented. Lower-case nucleotides are upper-cased
// and every other byte, including N, is encoded as A. The number of replaced
// bytes is reported in [Stats] and logged.
//
// # Thread Safety
//
// An [Enumerator] runs one enumeration at a time. The hash seed is shared
// read-only between workers, the filter is updated with atomic operations,
// and the candidate set serializes insertion per key.
package twopaco
