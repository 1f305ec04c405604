package rollinghash

import (
	"math/rand/v2"
	"testing"

	"github.com/jcalabro/twopaco/dna"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomDNA(r *rand.Rand, n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = dna.Alphabet[r.IntN(4)]
	}
	return b
}

func mustSeed(t testing.TB, n, k int, bits uint) *Seed {
	t.Helper()
	s, err := NewSeed(n, k, bits, 42)
	require.NoError(t, err)
	return s
}

func TestNewSeedErrors(t *testing.T) {
	_, err := NewSeed(0, 5, 20, 1)
	assert.ErrorIs(t, err, ErrInvalidHashCount)

	_, err = NewSeed(3, 0, 20, 1)
	assert.ErrorIs(t, err, ErrInvalidWindow)

	_, err = NewSeed(3, 5, 0, 1)
	assert.ErrorIs(t, err, ErrInvalidBitWidth)

	_, err = NewSeed(3, 5, 65, 1)
	assert.ErrorIs(t, err, ErrInvalidBitWidth)

	s, err := NewSeed(3, 5, 64, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, s.HashFunctionsNumber())
	assert.Equal(t, 5, s.VertexLength())
	assert.Equal(t, uint(64), s.BitsNumber())

	v := NewVertex(s, []byte("ACGTACGT"), false)
	assert.Equal(t, 5, v.Len())
	assert.Equal(t, uint(64), v.BitsNumber())
	assert.Equal(t, 3, v.HashFunctionsNumber())
}

func TestSeedDeterministic(t *testing.T) {
	a, err := NewSeed(2, 11, 30, 7)
	require.NoError(t, err)
	b, err := NewSeed(2, 11, 30, 7)
	require.NoError(t, err)
	c, err := NewSeed(2, 11, 30, 8)
	require.NoError(t, err)

	s := []byte("ACGTTGCAACG")
	for i := range 2 {
		fa, fb, fc := a.Function(i), b.Function(i), c.Function(i)
		assert.Equal(t, fa.HashOf(s), fb.HashOf(s))
		assert.NotEqual(t, fa.HashOf(s), fc.HashOf(s))
	}

	f0, f1 := a.Function(0), a.Function(1)
	assert.NotEqual(t, f0.HashOf(s), f1.HashOf(s), "functions must be independent")
}

func TestCyclicHashValuesFitWordSize(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 1))
	for _, bits := range []uint{1, 7, 20, 33, 63, 64} {
		h := newCyclicHash(9, bits, 99)
		s := randomDNA(r, 300)
		for _, c := range s[:9] {
			h.Eat(c)
		}
		for i := 9; i < len(s); i++ {
			h.Roll(s[i-9], s[i])
			require.Equal(t, uint64(0), h.Value()&^maskBits(bits), "bits=%d", bits)
			require.Equal(t, uint64(0), h.Extend('A')&^maskBits(bits))
			require.Equal(t, uint64(0), h.Prepend('T')&^maskBits(bits))
		}
	}
}

func TestCyclicHashRollMatchesScratch(t *testing.T) {
	r := rand.New(rand.NewPCG(2, 3))
	for _, tc := range []struct {
		k    int
		bits uint
	}{{1, 16}, {5, 20}, {20, 20}, {31, 64}, {64, 64}, {70, 33}} {
		h := newCyclicHash(tc.k, tc.bits, 5)
		s := randomDNA(r, 400)
		for _, c := range s[:tc.k] {
			h.Eat(c)
		}
		require.Equal(t, h.HashOf(s[:tc.k]), h.Value())
		for i := 1; i+tc.k <= len(s); i++ {
			h.Roll(s[i-1], s[i+tc.k-1])
			require.Equal(t, h.HashOf(s[i:i+tc.k]), h.Value(), "k=%d bits=%d pos=%d", tc.k, tc.bits, i)
		}
	}
}

func TestCyclicHashRollBackInvertsRoll(t *testing.T) {
	r := rand.New(rand.NewPCG(4, 5))
	s := randomDNA(r, 200)
	const k = 13
	h := newCyclicHash(k, 27, 11)
	for _, c := range s[:k] {
		h.Eat(c)
	}
	for i := 1; i+k <= len(s); i++ {
		before := h.Value()
		h.Roll(s[i-1], s[i+k-1])
		h.RollBack(s[i-1], s[i+k-1])
		require.Equal(t, before, h.Value())
		h.Roll(s[i-1], s[i+k-1])
	}
}

func TestCyclicHashExtendPrepend(t *testing.T) {
	r := rand.New(rand.NewPCG(6, 7))
	for _, bits := range []uint{9, 20, 64} {
		const k = 10
		h := newCyclicHash(k, bits, 3)
		s := randomDNA(r, k)
		for _, c := range s {
			h.Eat(c)
		}
		for _, c := range []byte(dna.Alphabet) {
			assert.Equal(t, h.HashOf(append(append([]byte{}, s...), c)), h.Extend(c))
			assert.Equal(t, h.HashOf(append([]byte{c}, s...)), h.Prepend(c))
		}
	}
}

func TestVertexIncrementalCorrectness(t *testing.T) {
	r := rand.New(rand.NewPCG(8, 9))
	for _, k := range []int{1, 3, 16, 31, 32, 33} {
		seed := mustSeed(t, 3, k, 24)
		s := randomDNA(r, 500)
		v := NewVertex(seed, s, false)
		for pos := 0; ; pos++ {
			window := s[pos : pos+k]
			rc := dna.ReverseComplement(window)
			for i := range 3 {
				f := seed.Function(i)
				require.Equal(t, f.HashOf(window), v.RawPositiveHash(i), "k=%d pos=%d fn=%d", k, pos, i)
				require.Equal(t, f.HashOf(rc), v.RawNegativeHash(i), "k=%d pos=%d fn=%d", k, pos, i)
			}
			if pos+k >= len(s) {
				break
			}
			v.Update(s[pos], s[pos+k])
		}
	}
}

func TestVertexCanonicalSymmetry(t *testing.T) {
	r := rand.New(rand.NewPCG(10, 11))
	seed := mustSeed(t, 4, 21, 32)
	for range 200 {
		s := randomDNA(r, 21)
		rc := dna.ReverseComplement(s)
		a := NewVertex(seed, s, false)
		b := NewVertex(seed, rc, false)

		require.Equal(t, a.CanonicalHash(), b.CanonicalHash())
		require.Equal(t, AppendVertexHashes(nil, a), AppendVertexHashes(nil, b))
	}
}

func TestVertexEdgeCanonicalSymmetry(t *testing.T) {
	r := rand.New(rand.NewPCG(12, 13))
	seed := mustSeed(t, 3, 15, 28)
	for range 200 {
		s := randomDNA(r, 15)
		rc := dna.ReverseComplement(s)
		a := NewVertex(seed, s, false)
		b := NewVertex(seed, rc, false)

		for _, c := range []byte(dna.Alphabet) {
			// The edge s+c read from the other strand is comp(c)+rc(s).
			out := AppendOutgoingEdgeHashes(nil, a, c)
			in := AppendIngoingEdgeHashes(nil, b, dna.Complement(c))
			require.Equal(t, out, in)

			in = AppendIngoingEdgeHashes(nil, a, c)
			out = AppendOutgoingEdgeHashes(nil, b, dna.Complement(c))
			require.Equal(t, in, out)
		}
	}
}

func TestVertexEdgeHashesMatchScratch(t *testing.T) {
	r := rand.New(rand.NewPCG(14, 15))
	const k = 12
	seed := mustSeed(t, 2, k, 40)
	s := randomDNA(r, k)
	v := NewVertex(seed, s, false)

	for _, c := range []byte(dna.Alphabet) {
		edge := append(append([]byte{}, s...), c)
		rcEdge := dna.ReverseComplement(edge)
		strand := v.DetermineStrandOnExtend(c)
		for i := range 2 {
			f := seed.Function(i)
			want := f.HashOf(edge)
			if strand == NegativeLess {
				want = f.HashOf(rcEdge)
			}
			assert.Equal(t, want, v.OutgoingEdgeHash(c, strand, i))
		}

		edge = append([]byte{c}, s...)
		rcEdge = dna.ReverseComplement(edge)
		strand = v.DetermineStrandOnPrepend(c)
		for i := range 2 {
			f := seed.Function(i)
			want := f.HashOf(edge)
			if strand == NegativeLess {
				want = f.HashOf(rcEdge)
			}
			assert.Equal(t, want, v.IngoingEdgeHash(c, strand, i))
		}
	}
}

func TestVertexPalindromeTies(t *testing.T) {
	seed := mustSeed(t, 3, 4, 20)
	// ACGT is its own reverse complement.
	v := NewVertex(seed, []byte("ACGT"), false)
	assert.Equal(t, Tie, v.DetermineStrand())
	assert.Equal(t, v.RawPositiveHash(0), v.CanonicalHash())

	// Odd-length edges are never their own reverse complement, so the
	// extension decision comes from hash order and agrees with the
	// explicit comparison.
	f := seed.Function(0)
	edge := []byte("ACGTA")
	want := PositiveLess
	if f.HashOf(edge) > f.HashOf(dna.ReverseComplement(edge)) {
		want = NegativeLess
	}
	if f.HashOf(edge) != f.HashOf(dna.ReverseComplement(edge)) {
		assert.Equal(t, want, v.DetermineStrandOnExtend('A'))
	}
}

func TestVertexSingleStrand(t *testing.T) {
	seed := mustSeed(t, 2, 5, 20)
	s := []byte("GATTACA")
	v := NewVertex(seed, s, true)
	assert.True(t, v.SingleStrand())
	f := seed.Function(0)

	assert.Equal(t, f.HashOf(s[:5]), v.CanonicalHash())
	assert.Equal(t, PositiveLess, v.DetermineStrand())
	assert.Equal(t, PositiveLess, v.DetermineStrandOnExtend('C'))
	assert.Equal(t, PositiveLess, v.DetermineStrandOnPrepend('C'))
	assert.Equal(t, f.HashOf([]byte("GATTAC")), v.OutgoingEdgeHash('C', PositiveLess, 0))

	v.Update('G', 'C')
	assert.Equal(t, f.HashOf(s[1:6]), v.CanonicalHash())
	assert.Panics(t, func() { v.RawNegativeHash(0) })
}

func TestVertexShortWindowPanics(t *testing.T) {
	seed := mustSeed(t, 1, 5, 20)
	assert.Panics(t, func() { NewVertex(seed, []byte("ACG"), false) })
}

func TestVertexReset(t *testing.T) {
	seed := mustSeed(t, 2, 6, 22)
	v := NewVertex(seed, []byte("ACGTAC"), false)
	v.Reset([]byte("TTTGGG"))
	w := NewVertex(seed, []byte("TTTGGG"), false)
	for i := range 2 {
		assert.Equal(t, w.RawPositiveHash(i), v.RawPositiveHash(i))
		assert.Equal(t, w.RawNegativeHash(i), v.RawNegativeHash(i))
	}
}

type mapFilter map[uint64]bool

func (m mapFilter) SetBit(idx uint64)      { m[idx] = true }
func (m mapFilter) GetBit(idx uint64) bool { return m[idx] }

func TestEdgeFilterHelpers(t *testing.T) {
	seed := mustSeed(t, 3, 4, 30)
	f := mapFilter{}
	v := NewVertex(seed, []byte("GGCA"), false)

	MarkOutgoingEdge(v, f, 'T')
	MarkIngoingEdge(v, f, 'A')
	MarkVertex(v, f)

	assert.True(t, IsOutgoingEdgeInFilter(v, f, 'T'))
	assert.True(t, IsIngoingEdgeInFilter(v, f, 'A'))

	// The same edges seen from the reverse strand: rc(GGCAT) = ATGCC.
	w := NewVertex(seed, []byte("TGCC"), false)
	assert.True(t, IsIngoingEdgeInFilter(w, f, 'A'))
	// rc(AGGCA) = TGCCT.
	assert.True(t, IsOutgoingEdgeInFilter(w, f, 'T'))
	assert.Equal(t, AppendVertexHashes(nil, v), AppendVertexHashes(nil, w))
}

func TestStrandComparisonString(t *testing.T) {
	assert.Equal(t, "positive", PositiveLess.String())
	assert.Equal(t, "negative", NegativeLess.String())
	assert.Equal(t, "tie", Tie.String())
	assert.Equal(t, "StrandComparison(9)", StrandComparison(9).String())
}

func BenchmarkVertexUpdate(b *testing.B) {
	seed, err := NewSeed(4, 31, 32, 1)
	require.NoError(b, err)
	s := randomDNA(rand.New(rand.NewPCG(1, 2)), 1<<16)
	v := NewVertex(seed, s, false)
	pos := 0
	b.ResetTimer()
	for range b.N {
		if pos+31 >= len(s) {
			v.Reset(s)
			pos = 0
		}
		v.Update(s[pos], s[pos+31])
		pos++
	}
}
