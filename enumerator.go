package twopaco

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jcalabro/twopaco/dna"
	"github.com/jcalabro/twopaco/filter"
	"github.com/jcalabro/twopaco/rollinghash"
	"github.com/jcalabro/twopaco/source"
	"github.com/jcalabro/twopaco/store"
)

// Pass names used in logs and metric labels.
const (
	passFill   = "fill"
	passVerify = "verify"
)

// Stats summarizes a run.
type Stats struct {
	Records         uint64 // input records read
	SkippedRecords  uint64 // records shorter than K
	Windows         uint64 // k-mer windows per pass
	ReplacedSymbols uint64 // input bytes outside ACGT encoded as A
	Candidates      uint64 // distinct k-mers that passed the filter test
	Junctions       uint64 // confirmed and emitted junctions

	FilterFillRatio         float64
	FilterFalsePositiveRate float64
}

// Enumerator finds the junction k-mers of the de Bruijn graph of its input
// in two passes. The first pass sets the filter bits of every k-mer and
// edge. The second pass flags k-mers with more than one possible neighbour
// on either side as candidates, using the filter, and records their real
// neighbours in an exact set. Candidates whose real neighbours do not
// branch are filter false positives and are dropped.
//
// An Enumerator may be reused for several runs but not concurrently.
type Enumerator struct {
	cfg     Config
	seed    *rollinghash.Seed
	logger  *slog.Logger
	metrics *Metrics
	filter  *filter.Filter
}

// Option configures an Enumerator.
type Option func(*Enumerator)

// WithLogger sets the structured logger. By default nothing is logged.
func WithLogger(l *slog.Logger) Option {
	return func(e *Enumerator) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics sets the Prometheus instruments updated during runs.
func WithMetrics(m *Metrics) Option {
	return func(e *Enumerator) {
		e.metrics = m
	}
}

// New validates cfg and prepares the hash functions. Configuration errors
// are returned here, before any input is touched.
func New(cfg Config, opts ...Option) (*Enumerator, error) {
	cfg, err := cfg.Validate()
	if err != nil {
		return nil, err
	}
	if cfg.Threads == 0 {
		cfg.Threads = runtime.GOMAXPROCS(0)
	}

	seed, err := rollinghash.NewSeed(cfg.HashFunctions, cfg.K, uint(cfg.HashBits), cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	e := &Enumerator{
		cfg:    cfg,
		seed:   seed,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = NewMetrics(nil)
	}
	return e, nil
}

// Config returns the effective configuration.
func (e *Enumerator) Config() Config {
	return e.cfg
}

// Filter returns the membership filter of the last run, or nil before the
// first run.
func (e *Enumerator) Filter() *filter.Filter {
	return e.filter
}

// Run enumerates the junctions of src and writes each one, once, in sorted
// order to sink. The caller closes sink.
//
// src is opened once per pass. Records shorter than K are skipped. Any
// read error or cancellation of ctx aborts the run before anything is
// written to sink.
func (e *Enumerator) Run(ctx context.Context, src source.Source, sink store.Sink) (Stats, error) {
	var stats Stats

	f, err := filter.New(e.cfg.FilterBits, uint32(e.cfg.HashFunctions))
	if err != nil {
		return stats, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	e.filter = f

	e.logger.Info("starting fill pass",
		"k", e.cfg.K,
		"hash_functions", e.cfg.HashFunctions,
		"filter_bits", e.cfg.FilterBits,
		"hash_bits", e.cfg.HashBits,
		"threads", e.cfg.Threads,
		"single_strand", e.cfg.SingleStrand)

	start := time.Now()
	fill, err := e.runPass(ctx, src, passFill, e.fill(f))
	if err != nil {
		return stats, fmt.Errorf("twopaco: %s pass: %w", passFill, err)
	}
	stats.Records = fill.records.Load()
	stats.SkippedRecords = fill.skipped.Load()
	stats.Windows = fill.windows.Load()
	stats.ReplacedSymbols = fill.replaced.Load()
	stats.FilterFillRatio = f.EstimatedFillRatio()
	stats.FilterFalsePositiveRate = f.EstimatedFalsePositiveRate()
	e.metrics.FilterFillRatio.Set(stats.FilterFillRatio)

	e.logger.Info("fill pass done",
		"records", stats.Records,
		"skipped", stats.SkippedRecords,
		"windows", stats.Windows,
		"fill_ratio", stats.FilterFillRatio,
		"fp_rate", stats.FilterFalsePositiveRate,
		"elapsed", time.Since(start))
	if stats.ReplacedSymbols > 0 {
		e.logger.Warn("symbols outside ACGT were encoded as A", "replaced", stats.ReplacedSymbols)
	}

	start = time.Now()
	cands := newCandidateSet(e.cfg.SingleStrand)
	if _, err := e.runPass(ctx, src, passVerify, e.verify(f, cands)); err != nil {
		return stats, fmt.Errorf("twopaco: %s pass: %w", passVerify, err)
	}

	junctions := cands.Junctions(e.cfg.MarkSequenceEnds)
	stats.Candidates = uint64(cands.Len())
	e.logger.Info("verify pass done",
		"candidates", stats.Candidates,
		"junctions", len(junctions),
		"elapsed", time.Since(start))

	for _, j := range junctions {
		if err := sink.Write(j); err != nil {
			return stats, fmt.Errorf("twopaco: write vertex: %w", err)
		}
		stats.Junctions++
	}
	e.metrics.Junctions.Add(float64(stats.Junctions))

	return stats, nil
}

// Enumerate runs a fresh Enumerator over in-memory sequences and returns the
// sorted junction set.
func Enumerate(ctx context.Context, cfg Config, seqs ...string) ([]string, Stats, error) {
	e, err := New(cfg)
	if err != nil {
		return nil, Stats{}, err
	}
	sink := store.NewMemorySink()
	stats, err := e.Run(ctx, source.NewMemorySource(seqs...), sink)
	if err != nil {
		return nil, stats, err
	}
	return sink.Vertices(), stats, nil
}

// task is a run of window start positions [start, end) in one record. Every
// task of a record shares seq, so symbols flanking the run are available.
type task struct {
	seq        []byte
	start, end int
}

type passStats struct {
	records  atomic.Uint64
	skipped  atomic.Uint64
	replaced atomic.Uint64
	windows  atomic.Uint64
}

// worker holds per-goroutine state reused across tasks.
type worker struct {
	vertex *rollinghash.Vertex
}

// vertexAt returns the worker's rolling hash positioned on the first window
// of seq.
func (w *worker) vertexAt(e *Enumerator, seq []byte) *rollinghash.Vertex {
	if w.vertex == nil {
		w.vertex = rollinghash.NewVertex(e.seed, seq, e.cfg.SingleStrand)
	} else {
		w.vertex.Reset(seq)
	}
	return w.vertex
}

// runPass streams src through a pool of workers. It returns once every task
// has been processed, which is the barrier between passes.
func (e *Enumerator) runPass(ctx context.Context, src source.Source, name string, process func(*worker, task)) (*passStats, error) {
	start := time.Now()
	defer func() {
		e.metrics.PassDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}()

	st := &passStats{}
	tasks := make(chan task, 2*e.cfg.Threads)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(tasks)
		return e.produce(ctx, src, name, st, tasks)
	})

	windows := e.metrics.Windows.WithLabelValues(name)
	for range e.cfg.Threads {
		g.Go(func() error {
			w := &worker{}
			for t := range tasks {
				if err := ctx.Err(); err != nil {
					return err
				}
				process(w, t)
				n := uint64(t.end - t.start)
				st.windows.Add(n)
				windows.Add(float64(n))
			}
			return nil
		})
	}

	return st, g.Wait()
}

// produce reads records, applies the symbol policy and splits them into
// tasks.
func (e *Enumerator) produce(ctx context.Context, src source.Source, name string, st *passStats, tasks chan<- task) error {
	r, err := src.Open()
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer r.Close()

	k := e.cfg.K
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		st.records.Add(1)

		if replaced := dna.Normalize(rec.Seq); replaced > 0 {
			st.replaced.Add(uint64(replaced))
			if name == passFill {
				e.metrics.ReplacedSymbols.Add(float64(replaced))
				e.logger.Debug("replaced symbols outside ACGT", "record", rec.Name, "replaced", replaced)
			}
		}

		if len(rec.Seq) < k {
			st.skipped.Add(1)
			e.metrics.Records.WithLabelValues(name, "skipped").Inc()
			if name == passFill {
				e.logger.Warn("skipping record shorter than k", "record", rec.Name, "length", len(rec.Seq), "k", k)
			}
			continue
		}
		e.metrics.Records.WithLabelValues(name, "processed").Inc()

		windows := len(rec.Seq) - k + 1
		for start := 0; start < windows; start += e.cfg.ChunkSize {
			t := task{
				seq:   rec.Seq,
				start: start,
				end:   min(start+e.cfg.ChunkSize, windows),
			}
			select {
			case tasks <- t:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// fill sets the filter bits of every window and of the edges to its actual
// neighbours.
func (e *Enumerator) fill(f *filter.Filter) func(*worker, task) {
	k := e.cfg.K
	return func(w *worker, t task) {
		seq := t.seq
		v := w.vertexAt(e, seq[t.start:])
		for i := t.start; i < t.end; i++ {
			if i > t.start {
				v.Update(seq[i-1], seq[i+k-1])
			}
			rollinghash.MarkVertex(v, f)
			if i > 0 {
				rollinghash.MarkIngoingEdge(v, f, seq[i-1])
			}
			if i+k < len(seq) {
				rollinghash.MarkOutgoingEdge(v, f, seq[i+k])
			}
		}
	}
}

// verify records every window that may branch, according to the filter,
// together with its actual neighbours.
func (e *Enumerator) verify(f *filter.Filter, cands *candidateSet) func(*worker, task) {
	k := e.cfg.K
	markEnds := e.cfg.MarkSequenceEnds
	return func(w *worker, t task) {
		seq := t.seq
		v := w.vertexAt(e, seq[t.start:])
		for i := t.start; i < t.end; i++ {
			if i > t.start {
				v.Update(seq[i-1], seq[i+k-1])
			}

			boundary := i == 0 || i+k == len(seq)
			if !(markEnds && boundary) && !mayBranch(v, f) {
				continue
			}

			prev, next := byte(noSymbol), byte(noSymbol)
			if i > 0 {
				prev = seq[i-1]
			}
			if i+k < len(seq) {
				next = seq[i+k]
			}
			if cands.Record(seq[i:i+k], prev, next, boundary) {
				e.metrics.Candidates.Inc()
			}
		}
	}
}

// mayBranch reports whether more than one ingoing or more than one outgoing
// edge of v tests present in f.
func mayBranch(v *rollinghash.Vertex, f rollinghash.BitReader) bool {
	var in, out int
	for i := 0; i < len(dna.Alphabet); i++ {
		c := dna.Alphabet[i]
		if rollinghash.IsIngoingEdgeInFilter(v, f, c) {
			in++
		}
		if rollinghash.IsOutgoingEdgeInFilter(v, f, c) {
			out++
		}
		if in > 1 || out > 1 {
			return true
		}
	}
	return false
}
