// Package source supplies input sequences to the junction enumerator.
//
// A [Source] is opened once per enumeration pass, so it must be able to
// replay the same records in the same order every time it is opened.
package source

import (
	"errors"
	"fmt"
	"io"

	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
)

// Record is one input sequence. The caller of [Reader.Next] owns Seq and may
// modify it.
type Record struct {
	Name string
	Seq  []byte
}

// Reader iterates over records. Next returns io.EOF after the last record.
type Reader interface {
	Next() (Record, error)
	Close() error
}

// Source opens a fresh reader over the same records.
type Source interface {
	Open() (Reader, error)
}

// MemorySource serves sequences held in memory. Record names are their
// zero-based position.
type MemorySource struct {
	seqs []string
}

// NewMemorySource returns a source over seqs.
func NewMemorySource(seqs ...string) *MemorySource {
	return &MemorySource{seqs: seqs}
}

// Open implements [Source].
func (s *MemorySource) Open() (Reader, error) {
	return &memoryReader{seqs: s.seqs}, nil
}

type memoryReader struct {
	seqs []string
	pos  int
}

func (r *memoryReader) Next() (Record, error) {
	if r.pos >= len(r.seqs) {
		return Record{}, io.EOF
	}
	rec := Record{
		Name: fmt.Sprintf("%d", r.pos),
		Seq:  []byte(r.seqs[r.pos]),
	}
	r.pos++
	return rec, nil
}

func (r *memoryReader) Close() error {
	return nil
}

// ErrStdinUnsupported is returned by [FileSource.Open] for the path "-".
// Standard input cannot be replayed for a second pass.
var ErrStdinUnsupported = errors.New("source: standard input cannot be read more than once")

// FileSource reads FASTA or FASTQ files, plain or compressed, in the given
// order.
type FileSource struct {
	files []string
}

// NewFileSource returns a source over files.
func NewFileSource(files ...string) *FileSource {
	return &FileSource{files: files}
}

// Files returns the configured paths.
func (s *FileSource) Files() []string {
	return s.files
}

// Open implements [Source].
func (s *FileSource) Open() (Reader, error) {
	if len(s.files) == 0 {
		return nil, errors.New("source: no input files")
	}
	for _, f := range s.files {
		if f == "-" {
			return nil, ErrStdinUnsupported
		}
	}
	return &fileReader{files: s.files}, nil
}

type fileReader struct {
	files []string
	next  int
	cur   *fastx.Reader
}

func (r *fileReader) Next() (Record, error) {
	for {
		if r.cur == nil {
			if r.next >= len(r.files) {
				return Record{}, io.EOF
			}
			file := r.files[r.next]
			r.next++

			// Unlimit accepts every byte; symbol policy is applied by the
			// enumerator.
			reader, err := fastx.NewReader(seq.Unlimit, file, "")
			if err != nil {
				return Record{}, fmt.Errorf("source: open %s: %w", file, err)
			}
			r.cur = reader
		}

		rec, err := r.cur.Read()
		if err == io.EOF {
			r.cur.Close()
			r.cur = nil
			continue
		}
		if err != nil {
			return Record{}, fmt.Errorf("source: read %s: %w", r.files[r.next-1], err)
		}

		// The fastx reader reuses its buffers between calls.
		s := make([]byte, len(rec.Seq.Seq))
		copy(s, rec.Seq.Seq)
		return Record{Name: string(rec.ID), Seq: s}, nil
	}
}

func (r *fileReader) Close() error {
	if r.cur != nil {
		r.cur.Close()
		r.cur = nil
	}
	return nil
}
