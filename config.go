package twopaco

import (
	"fmt"
	"math"

	"github.com/jcalabro/twopaco/filter"
)

// maxFalsePositiveRate is the highest estimated false positive rate accepted
// for an explicitly sized filter.
const maxFalsePositiveRate = 0.5

// Config controls an enumeration run.
type Config struct {
	// K is the vertex (k-mer) length. Edges are (K+1)-mers.
	K int `yaml:"k"`

	// HashFunctions is the number of rolling hash functions, and so the
	// number of filter bits per k-mer or edge. When zero it is derived from
	// ExpectedItems and the filter size.
	HashFunctions int `yaml:"hash_functions"`

	// FilterBits is log2 of the filter capacity in bits. When zero it is
	// derived from ExpectedItems and FalsePositiveRate.
	FilterBits uint8 `yaml:"filter_bits"`

	// HashBits is the width of hash values. It defaults to FilterBits and
	// must not exceed it.
	HashBits uint8 `yaml:"hash_bits"`

	// ExpectedItems is the expected number of distinct k-mers and edges.
	ExpectedItems uint64 `yaml:"expected_items"`

	// FalsePositiveRate is the target filter false positive rate used when
	// FilterBits is derived.
	FalsePositiveRate float64 `yaml:"false_positive_rate"`

	// SingleStrand disables reverse-complement canonicalization.
	SingleStrand bool `yaml:"single_strand"`

	// Threads is the number of worker goroutines. Zero means GOMAXPROCS.
	Threads int `yaml:"threads"`

	// ChunkSize is the maximum number of windows handed to a worker at once.
	// Longer sequences are split so one genome can use every worker.
	ChunkSize int `yaml:"chunk_size"`

	// MarkSequenceEnds makes the first and last k-mer of every sequence a
	// junction, as needed when the graph is later compacted. This matches
	// the output of the TwoPaCo tool; without it only branching k-mers are
	// reported.
	MarkSequenceEnds bool `yaml:"mark_sequence_ends"`

	// Seed selects the hash functions. Runs with equal seeds are
	// reproducible.
	Seed uint64 `yaml:"seed"`
}

// DefaultConfig returns the configuration used by the command line tool.
func DefaultConfig() Config {
	return Config{
		K:                 25,
		HashFunctions:     4,
		FilterBits:        30,
		FalsePositiveRate: 0.01,
		ChunkSize:         1 << 20,
		Seed:              0x7770ac0,
	}
}

// Validate checks c and returns the effective configuration with derived
// fields filled in.
func (c Config) Validate() (Config, error) {
	if c.K < 1 {
		return c, fmt.Errorf("%w: k must be at least 1, got %d", ErrInvalidConfig, c.K)
	}
	if c.HashFunctions < 0 {
		return c, fmt.Errorf("%w: hash_functions must not be negative, got %d", ErrInvalidConfig, c.HashFunctions)
	}
	if c.HashFunctions == 0 && c.ExpectedItems == 0 {
		return c, fmt.Errorf("%w: hash_functions is required unless expected_items is set", ErrInvalidConfig)
	}
	if c.Threads < 0 {
		return c, fmt.Errorf("%w: threads must not be negative, got %d", ErrInvalidConfig, c.Threads)
	}
	if c.ChunkSize < 0 {
		return c, fmt.Errorf("%w: chunk_size must not be negative, got %d", ErrInvalidConfig, c.ChunkSize)
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = DefaultConfig().ChunkSize
	}

	if c.FilterBits == 0 {
		if c.ExpectedItems == 0 {
			return c, fmt.Errorf("%w: either filter_bits or expected_items is required", ErrInvalidConfig)
		}
		if c.FalsePositiveRate <= 0 || c.FalsePositiveRate >= 1 {
			return c, fmt.Errorf("%w: false_positive_rate must be in (0, 1), got %g", ErrInvalidConfig, c.FalsePositiveRate)
		}

		k := uint32(c.HashFunctions)
		if k == 0 {
			// Optimal k for the target rate: bits per item * ln(2).
			k = uint32(max(math.Round(filter.MinimumBitsPerItem(c.FalsePositiveRate)*math.Ln2), 1))
		}
		c.FilterBits, _ = filter.OptimalBits(c.ExpectedItems, c.FalsePositiveRate, k)
		if c.HashFunctions == 0 {
			c.HashFunctions = int(filter.OptimalK(c.ExpectedItems, c.FilterBits))
		}

		// OptimalBits clamps at MaxBits; past that the target is out of reach.
		if c.FilterBits == filter.MaxBits {
			est := filter.EstimateFalsePositiveRate(c.FilterBits, uint32(c.HashFunctions), c.ExpectedItems)
			if est > c.FalsePositiveRate {
				return c, fmt.Errorf("%w: %w: the largest filter (2^%d bits) gives an estimated false positive rate of %.2f for %d items, target %g",
					ErrInvalidConfig, ErrFilterTooSmall, c.FilterBits, est, c.ExpectedItems, c.FalsePositiveRate)
			}
		}
	} else if c.FilterBits < filter.MinBits || c.FilterBits > filter.MaxBits {
		return c, fmt.Errorf("%w: filter_bits must be in [%d, %d], got %d", ErrInvalidConfig, filter.MinBits, filter.MaxBits, c.FilterBits)
	} else if c.ExpectedItems > 0 {
		bits := c.FilterBits
		if c.HashBits > 0 && c.HashBits < bits {
			bits = c.HashBits
		}
		if c.HashFunctions == 0 {
			c.HashFunctions = int(filter.OptimalK(c.ExpectedItems, bits))
		}
		if est := filter.EstimateFalsePositiveRate(bits, uint32(c.HashFunctions), c.ExpectedItems); est > maxFalsePositiveRate {
			return c, fmt.Errorf("%w: %w: 2^%d bits for %d items gives an estimated false positive rate of %.2f",
				ErrInvalidConfig, ErrFilterTooSmall, bits, c.ExpectedItems, est)
		}
	}

	if c.HashBits == 0 {
		c.HashBits = c.FilterBits
	}
	if c.HashBits > c.FilterBits {
		return c, fmt.Errorf("%w: %w: %d-bit hashes address 2^%d bits but the filter holds 2^%d",
			ErrInvalidConfig, ErrFilterOverflow, c.HashBits, c.HashBits, c.FilterBits)
	}

	return c, nil
}
