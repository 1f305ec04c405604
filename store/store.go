// Package store receives the junction set produced by the enumerator.
//
// Vertices arrive once each, in sorted order. A [Sink] must be closed to
// flush buffered output.
package store

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"
)

// Sink persists canonical vertex strings.
type Sink interface {
	Write(vertex string) error
	Close() error
}

// TextSink writes one vertex per line.
type TextSink struct {
	w      *bufio.Writer
	closer io.Closer
}

// NewTextSink wraps w. If w is an io.Closer it is closed by Close.
func NewTextSink(w io.Writer) *TextSink {
	s := &TextSink{w: bufio.NewWriterSize(w, 1<<16)}
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// CreateTextSink creates (or truncates) path and writes vertices to it.
func CreateTextSink(path string) (*TextSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("store: create %s: %w", path, err)
	}
	return NewTextSink(f), nil
}

// Write implements [Sink].
func (s *TextSink) Write(vertex string) error {
	if _, err := s.w.WriteString(vertex); err != nil {
		return err
	}
	return s.w.WriteByte('\n')
}

// Close flushes buffered lines and closes the underlying writer.
func (s *TextSink) Close() error {
	err := s.w.Flush()
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// MemorySink collects vertices in memory. It is safe for concurrent use.
type MemorySink struct {
	mu       sync.Mutex
	vertices []string
}

// NewMemorySink returns an empty sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Write implements [Sink].
func (s *MemorySink) Write(vertex string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vertices = append(s.vertices, vertex)
	return nil
}

// Close implements [Sink].
func (s *MemorySink) Close() error {
	return nil
}

// Vertices returns a copy of the collected vertices.
func (s *MemorySink) Vertices() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.vertices))
	copy(out, s.vertices)
	return out
}
