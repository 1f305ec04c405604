package filter

import "math"

const (
	// ln2 is the natural logarithm of 2.
	ln2 = 0.6931471805599453
	// ln2Squared is ln(2)^2.
	ln2Squared = 0.4804530139182014
)

// OptimalBits returns the smallest log2 capacity whose filter, holding
// expectedItems items hashed with k functions, stays at or below fpRate.
// The result is clamped to [MinBits, MaxBits]. bitsPerItem is the exact
// (unrounded) number of bits per item the target requires.
func OptimalBits(expectedItems uint64, fpRate float64, k uint32) (nbits uint8, bitsPerItem float64) {
	if expectedItems == 0 {
		expectedItems = 1
	}
	if fpRate <= 0 {
		fpRate = 0.0001 // default to 0.01%
	}
	if fpRate >= 1 {
		fpRate = 0.99
	}
	if k == 0 {
		k = 1
	}

	// Solve (1 - e^(-kn/m))^k = p for m.
	kf := float64(k)
	bitsPerItem = -kf / math.Log(1-math.Pow(fpRate, 1/kf))

	totalBits := float64(expectedItems) * bitsPerItem
	exp := math.Ceil(math.Log2(totalBits))
	exp = max(exp, MinBits)
	exp = min(exp, MaxBits)
	return uint8(exp), bitsPerItem
}

// OptimalK returns the number of hash functions that minimizes the false
// positive rate of a 2^nbits filter holding expectedItems items:
// (m/n) * ln(2), clamped to [1, 16].
func OptimalK(expectedItems uint64, nbits uint8) uint32 {
	if expectedItems == 0 {
		expectedItems = 1
	}
	m := math.Ldexp(1, int(nbits))
	k := math.Round(m / float64(expectedItems) * ln2)
	k = max(k, 1)
	k = min(k, 16)
	return uint32(k)
}

// MinimumBitsPerItem is the information-theoretic optimum -ln(p)/ln(2)^2,
// reached when k is chosen optimally.
func MinimumBitsPerItem(fpRate float64) float64 {
	return -math.Log(fpRate) / ln2Squared
}

// EstimateFalsePositiveRate estimates the false positive rate for given parameters.
// Formula: (1 - e^(-kn/m))^k
func EstimateFalsePositiveRate(nbits uint8, k uint32, itemsAdded uint64) float64 {
	m := math.Ldexp(1, int(nbits))
	n := float64(itemsAdded)
	kf := float64(k)

	if n == 0 {
		return 0
	}

	return math.Pow(1-math.Exp(-kf*n/m), kf)
}
