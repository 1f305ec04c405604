package rollinghash

// BitReader is the read side of the membership filter.
type BitReader interface {
	GetBit(idx uint64) bool
}

// BitWriter is the write side of the membership filter.
type BitWriter interface {
	SetBit(idx uint64)
}

// IsOutgoingEdgeInFilter reports whether all N bits of the edge X+next are
// set in f.
func IsOutgoingEdgeInFilter(v *Vertex, f BitReader, next byte) bool {
	strand := v.DetermineStrandOnExtend(next)
	for i := range v.pos {
		if !f.GetBit(v.OutgoingEdgeHash(next, strand, i)) {
			return false
		}
	}
	return true
}

// IsIngoingEdgeInFilter reports whether all N bits of the edge prev+X are set
// in f.
func IsIngoingEdgeInFilter(v *Vertex, f BitReader, prev byte) bool {
	strand := v.DetermineStrandOnPrepend(prev)
	for i := range v.pos {
		if !f.GetBit(v.IngoingEdgeHash(prev, strand, i)) {
			return false
		}
	}
	return true
}

// AppendOutgoingEdgeHashes appends the N hashes of the edge X+next to dst.
func AppendOutgoingEdgeHashes(dst []uint64, v *Vertex, next byte) []uint64 {
	strand := v.DetermineStrandOnExtend(next)
	for i := range v.pos {
		dst = append(dst, v.OutgoingEdgeHash(next, strand, i))
	}
	return dst
}

// AppendIngoingEdgeHashes appends the N hashes of the edge prev+X to dst.
func AppendIngoingEdgeHashes(dst []uint64, v *Vertex, prev byte) []uint64 {
	strand := v.DetermineStrandOnPrepend(prev)
	for i := range v.pos {
		dst = append(dst, v.IngoingEdgeHash(prev, strand, i))
	}
	return dst
}

// AppendVertexHashes appends the N canonical hashes of the k-mer itself.
func AppendVertexHashes(dst []uint64, v *Vertex) []uint64 {
	strand := v.DetermineStrand()
	for i := range v.pos {
		dst = append(dst, v.VertexHash(strand, i))
	}
	return dst
}

// MarkOutgoingEdge sets the N bits of the edge X+next in f.
func MarkOutgoingEdge(v *Vertex, f BitWriter, next byte) {
	strand := v.DetermineStrandOnExtend(next)
	for i := range v.pos {
		f.SetBit(v.OutgoingEdgeHash(next, strand, i))
	}
}

// MarkIngoingEdge sets the N bits of the edge prev+X in f.
func MarkIngoingEdge(v *Vertex, f BitWriter, prev byte) {
	strand := v.DetermineStrandOnPrepend(prev)
	for i := range v.pos {
		f.SetBit(v.IngoingEdgeHash(prev, strand, i))
	}
}

// MarkVertex sets the N canonical bits of the k-mer in f.
func MarkVertex(v *Vertex, f BitWriter) {
	strand := v.DetermineStrand()
	for i := range v.pos {
		f.SetBit(v.VertexHash(strand, i))
	}
}
