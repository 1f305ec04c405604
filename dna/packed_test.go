package dna

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomDNA(r *rand.Rand, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = Alphabet[r.IntN(4)]
	}
	return string(b)
}

func TestPackedRoundTrip(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for _, n := range []int{0, 1, 31, 32, 33, 63, 64, 65, 200} {
		s := randomDNA(r, n)
		p := FromString(s)
		require.Equal(t, n, p.Len())
		assert.Equal(t, s, p.String(), "length %d", n)
		assert.Equal(t, s, FromBytes([]byte(s)).String())
	}
}

func TestPackedUnknownSymbolsEncodeAsA(t *testing.T) {
	p := FromString("ACNGTx")
	assert.Equal(t, "ACAGTA", p.String())
}

func TestPackedPushBackPopFrontFIFO(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	s := randomDNA(r, 150)

	p := NewPackedSequence(0)
	for i := 0; i < len(s); i++ {
		p.PushBack(s[i])
	}
	require.Equal(t, s, p.String())

	for i := 0; i < len(s); i++ {
		require.Equal(t, s[i], p.PopFront(), "position %d", i)
		require.Equal(t, s[i+1:], p.String())
	}
	assert.Equal(t, 0, p.Len())
}

func TestPackedPushFrontPopBack(t *testing.T) {
	r := rand.New(rand.NewPCG(5, 6))
	s := randomDNA(r, 100)

	p := NewPackedSequence(0)
	for i := len(s) - 1; i >= 0; i-- {
		p.PushFront(s[i])
	}
	require.Equal(t, s, p.String())

	for i := len(s) - 1; i >= 0; i-- {
		require.Equal(t, s[i], p.PopBack())
	}
	assert.Equal(t, "", p.String())
}

func TestPackedSlidingWindow(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 8))
	s := randomDNA(r, 500)
	const k = 37

	p := FromString(s[:k])
	for i := 1; i+k <= len(s); i++ {
		p.PopFront()
		p.PushBack(s[i+k-1])
		require.Equal(t, s[i:i+k], p.String())
		require.Equal(t, FromString(s[i:i+k]).Key(), p.Key(), "storage past Len must stay zero")
	}
}

func TestPackedCharAt(t *testing.T) {
	p := FromString("ACGTACGTACGTACGTACGTACGTACGTACGTAC")
	assert.Equal(t, byte('G'), p.CharAt(2))
	assert.Equal(t, byte('C'), p.CharAt(33))

	p.SetCharAt(33, 'T')
	assert.Equal(t, byte('T'), p.CharAt(33))
	assert.True(t, strings.HasSuffix(p.String(), "AT"))

	assert.Panics(t, func() { p.CharAt(34) })
	assert.Panics(t, func() { p.SetCharAt(-1, 'A') })
}

func TestPackedPopEmptyPanics(t *testing.T) {
	p := NewPackedSequence(0)
	assert.Panics(t, func() { p.PopBack() })
	assert.Panics(t, func() { p.PopFront() })
}

func TestPackedReverseComplement(t *testing.T) {
	assert.Equal(t, "ACGT", FromString("ACGT").ReverseComplement().String())
	assert.Equal(t, "CCGTTA", FromString("TAACGG").ReverseComplement().String())

	r := rand.New(rand.NewPCG(9, 10))
	for range 20 {
		s := randomDNA(r, r.IntN(120))
		p := FromString(s)
		rc := p.ReverseComplement()
		assert.Equal(t, ReverseComplementString(s), rc.String())
		assert.Equal(t, s, rc.ReverseComplement().String())
	}
}

func TestPackedCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"ACG", "ACG", 0},
		{"ACG", "ACT", -1},
		{"TAA", "GTT", 1},
		{"AC", "ACA", -1},
		{"", "", 0},
	}
	for _, tt := range tests {
		got := FromString(tt.a).Compare(FromString(tt.b))
		assert.Equal(t, tt.want, got, "%q vs %q", tt.a, tt.b)
		assert.Equal(t, strings.Compare(tt.a, tt.b), got)
	}
}

func TestPackedKeyAndEqual(t *testing.T) {
	a := FromString("ACGTTGCA")
	b := NewPackedSequence(0)
	for _, c := range []byte("ACGTTGCA") {
		b.PushBack(c)
	}
	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Key(), b.Key())

	// Same packed bits, different length.
	assert.NotEqual(t, FromString("AC").Key(), FromString("ACA").Key())

	c := a.Clone()
	c.SetCharAt(0, 'T')
	assert.False(t, a.Equal(c))
	assert.Equal(t, byte('A'), a.CharAt(0))
}

func TestNormalize(t *testing.T) {
	seq := []byte("acgtNNxACGT")
	replaced := Normalize(seq)
	assert.Equal(t, "ACGTAAAACGT", string(seq))
	assert.Equal(t, 3, replaced)
}

func TestComplement(t *testing.T) {
	assert.Equal(t, byte('T'), Complement('A'))
	assert.Equal(t, byte('G'), Complement('C'))
	assert.Equal(t, byte(Sentinel), Complement('N'))
	assert.Equal(t, byte(Sentinel), Complement('a'))
	assert.Equal(t, "NACGT", ReverseComplementString("ACGTX"))
}
