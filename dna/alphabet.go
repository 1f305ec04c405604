// Package dna provides the nucleotide alphabet and a 2-bit packed sequence
// container used by the rolling hash and the junction enumerator.
//
// The alphabet is fixed to A, C, G and T. Any other byte encodes as A: this
// fallback is inherited from the packed encoding and is kept as is. Callers
// that want to know how many symbols were affected run [Normalize] on the
// input first, which performs the same substitution explicitly and reports
// the number of replaced bytes.
package dna

// Alphabet lists the symbols in code order.
const Alphabet = "ACGT"

// Sentinel is returned by [Complement] for symbols outside the alphabet.
const Sentinel = 'N'

var (
	encodeTable     [256]uint8
	complementTable [256]byte
	normalizeTable  [256]byte
)

func init() {
	for i := range complementTable {
		complementTable[i] = Sentinel
		normalizeTable[i] = 'A'
	}
	for code, c := range []byte(Alphabet) {
		encodeTable[c] = uint8(code)
		complementTable[c] = Alphabet[3-code]
		normalizeTable[c] = c
		normalizeTable[c|0x20] = c
	}
}

// Encode returns the 2-bit code of c. Bytes outside the alphabet encode as A.
func Encode(c byte) uint64 {
	return uint64(encodeTable[c])
}

// Decode returns the symbol for a 2-bit code.
func Decode(code uint64) byte {
	return Alphabet[code&3]
}

// Complement returns the Watson-Crick complement of c, or [Sentinel] for
// anything that is not A, C, G or T.
func Complement(c byte) byte {
	return complementTable[c]
}

// ReverseComplement returns a new slice holding the reverse complement of s.
func ReverseComplement(s []byte) []byte {
	out := make([]byte, len(s))
	for i, c := range s {
		out[len(s)-1-i] = complementTable[c]
	}
	return out
}

// ReverseComplementString is the string form of [ReverseComplement].
func ReverseComplementString(s string) string {
	return string(ReverseComplement([]byte(s)))
}

// Normalize rewrites seq in place so that it only contains A, C, G and T.
// Lower-case nucleotides are upper-cased; every other byte becomes A.
// It returns the number of bytes that were replaced by A.
func Normalize(seq []byte) (replaced int) {
	for i, c := range seq {
		n := normalizeTable[c]
		if n != c && n != c&^0x20 {
			replaced++
		}
		seq[i] = n
	}
	return replaced
}
