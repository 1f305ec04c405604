package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/jcalabro/twopaco"
	"github.com/jcalabro/twopaco/source"
	"github.com/jcalabro/twopaco/store"
)

const (
	formatText   = "text"
	formatBadger = "badger"
)

type runOptions struct {
	cfg         twopaco.Config
	configPath  string
	out         string
	outFormat   string
	filterDump  string
	metricsAddr string
	logLevel    string
}

func runCommand() *cobra.Command {
	opts := runOptions{cfg: twopaco.DefaultConfig()}

	cmd := &cobra.Command{
		Use:   "run [flags] FILE...",
		Short: "Enumerate junction k-mers of the input sequences",
		Long: `Enumerate the junction k-mers of the de Bruijn graph built from FILE...

Each FILE is FASTA or FASTQ, optionally gzip, xz, zstd or bzip2 compressed.
The input is read twice, so standard input is not accepted.
Settings are read from --config first; flags given on the command line
override the file.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.loadConfig(cmd.Flags()); err != nil {
				return err
			}
			return opts.run(cmd.Context(), args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "YAML configuration file")
	f.StringVarP(&opts.out, "out", "o", "-", "Output file, or database directory for badger output (- is stdout)")
	f.StringVarP(&opts.outFormat, "out-format", "f", formatText, "Output format: text or badger")
	f.StringVar(&opts.filterDump, "filter-dump", "", "Write the filter of the first pass to this file")
	f.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	f.StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn or error")

	f.IntVarP(&opts.cfg.K, "kmer-size", "k", opts.cfg.K, "Vertex (k-mer) length")
	f.IntVarP(&opts.cfg.HashFunctions, "hash-functions", "n", opts.cfg.HashFunctions, "Number of hash functions (0 derives it from --expected-items)")
	f.Uint8VarP(&opts.cfg.FilterBits, "filter-bits", "b", opts.cfg.FilterBits, "Log2 of the filter size in bits (0 derives it from --expected-items)")
	f.Uint8Var(&opts.cfg.HashBits, "hash-bits", opts.cfg.HashBits, "Hash value width in bits (0 means --filter-bits)")
	f.Uint64Var(&opts.cfg.ExpectedItems, "expected-items", opts.cfg.ExpectedItems, "Expected number of distinct k-mers and edges")
	f.Float64Var(&opts.cfg.FalsePositiveRate, "fp-rate", opts.cfg.FalsePositiveRate, "Target false positive rate when deriving --filter-bits")
	f.BoolVar(&opts.cfg.SingleStrand, "single-strand", opts.cfg.SingleStrand, "Do not merge k-mers with their reverse complements")
	f.IntVarP(&opts.cfg.Threads, "threads", "t", opts.cfg.Threads, "Worker threads (0 means all CPUs)")
	f.IntVar(&opts.cfg.ChunkSize, "chunk-size", opts.cfg.ChunkSize, "Maximum k-mer windows per work item")
	f.BoolVar(&opts.cfg.MarkSequenceEnds, "mark-ends", opts.cfg.MarkSequenceEnds, "Report the first and last k-mer of every sequence")
	f.Uint64Var(&opts.cfg.Seed, "seed", opts.cfg.Seed, "Hash function seed")

	return cmd
}

// loadConfig reads the configuration file, then re-applies every flag set
// on the command line on top of it.
func (o *runOptions) loadConfig(flags *pflag.FlagSet) error {
	if o.configPath == "" {
		return nil
	}

	changed := map[string]string{}
	flags.Visit(func(f *pflag.Flag) {
		changed[f.Name] = f.Value.String()
	})

	data, err := os.ReadFile(o.configPath)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &o.cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", o.configPath, err)
	}

	for name, value := range changed {
		if err := flags.Set(name, value); err != nil {
			return fmt.Errorf("flag --%s: %w", name, err)
		}
	}
	return nil
}

func newLogger(level string) (*slog.Logger, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})), nil
}

func (o *runOptions) openSink(logger *slog.Logger) (store.Sink, error) {
	switch o.outFormat {
	case formatText:
		if o.out == "" || o.out == "-" {
			// Hide Close so the sink leaves stdout open.
			return store.NewTextSink(struct{ io.Writer }{os.Stdout}), nil
		}
		return store.CreateTextSink(o.out)
	case formatBadger:
		if o.out == "" || o.out == "-" {
			return nil, errors.New("badger output needs a directory in --out")
		}
		return store.CreateBadgerSink(store.BadgerConfig{Path: o.out, Logger: logger})
	default:
		return nil, fmt.Errorf("unknown output format %q", o.outFormat)
	}
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", addr)
	return srv
}

func (o *runOptions) run(ctx context.Context, files []string) (err error) {
	logger, err := newLogger(o.logLevel)
	if err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := twopaco.NewMetrics(reg)
	if o.metricsAddr != "" {
		srv := serveMetrics(o.metricsAddr, reg, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	e, err := twopaco.New(o.cfg, twopaco.WithLogger(logger), twopaco.WithMetrics(metrics))
	if err != nil {
		return err
	}

	sink, err := o.openSink(logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sink.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
	}()

	start := time.Now()
	stats, err := e.Run(ctx, source.NewFileSource(files...), sink)
	if err != nil {
		return err
	}

	if o.filterDump != "" {
		data, err := e.Filter().MarshalBinary()
		if err != nil {
			return fmt.Errorf("serialize filter: %w", err)
		}
		if err := os.WriteFile(o.filterDump, data, 0o644); err != nil {
			return fmt.Errorf("write filter dump: %w", err)
		}
		logger.Info("wrote filter dump", "path", o.filterDump, "bytes", len(data))
	}

	logger.Info("done",
		"records", stats.Records,
		"skipped", stats.SkippedRecords,
		"candidates", stats.Candidates,
		"junctions", stats.Junctions,
		"fp_rate", stats.FilterFalsePositiveRate,
		"elapsed", time.Since(start))
	return nil
}
