package main

import (
	"bufio"
	"context"
	stderrors "errors"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ingestion/internal/config"
	"ingestion/internal/ingest"
	"ingestion/internal/model/enum"
	"ingestion/internal/obs"
	"ingestion/internal/parser"
	"ingestion/internal/store"

	"github.com/grafana/pyroscope-go"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		logs.Errorf("ingest: %+v", err)
		os.Exit(1)
	}
}

func run() error {
	configFlag := flag.String("config", "", "YAML config path (optional)")
	envFileFlag := flag.String("env-file", ".env", "env file loaded before config (optional)")
	inputFlag := flag.String("input", "", "input file; '-' or empty reads stdin")
	delimiterFlag := flag.String("delimiter", "", "frame delimiter: newline or soh")
	strictFlag := flag.Bool("strict", false, "enable strict symbol/price/size validation")
	quietFlag := flag.Bool("quiet", false, "do not write parsed messages to stdout")
	logRejectsFlag := flag.Bool("log-rejects", false, "log every rejected frame")
	flag.Parse()

	if err := config.LoadDotEnv(*envFileFlag); err != nil {
		return err
	}
	cfg, err := config.Load(*configFlag)
	if err != nil {
		return err
	}
	if *inputFlag != "" {
		cfg.Input.Path = *inputFlag
	}
	if *delimiterFlag != "" {
		cfg.Input.Delimiter = *delimiterFlag
	}
	if *strictFlag {
		cfg.Parser.StrictValidation = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	frameOpt, err := cfg.FrameOption()
	if err != nil {
		return err
	}

	if addr := cfg.Profiling.PyroscopeAddress; addr != "" {
		profiler, err := startProfiler(addr)
		if err != nil {
			return err
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	input, closeInput, err := openInput(cfg.Input.Path)
	if err != nil {
		return err
	}
	defer closeInput()

	metrics := obs.NewMetrics()
	p := parser.New(parser.Option{
		StrictValidation: cfg.Parser.StrictValidation,
		Metrics:          metrics,
	})

	opt := ingest.Option{
		Frame:      frameOpt,
		LogRejects: *logRejectsFlag,
	}

	var out *bufio.Writer
	if !*quietFlag {
		out = bufio.NewWriter(os.Stdout)
		defer out.Flush()
		opt.Output = out
	}

	var sink *store.Sink
	if cfg.Store.Enabled {
		db, err := store.Connect(store.OptionFromConfig(cfg.Store.Postgres))
		if err != nil {
			return err
		}
		sink, err = store.NewSink(ctx, db, cfg.Store.BatchSize)
		if err != nil {
			return err
		}
		opt.Sink = sink
		logs.Info("postgres sink enabled")
	}

	use, err := ingest.NewUsecase(p, opt)
	if err != nil {
		return err
	}

	reportDone := make(chan struct{})
	go report(ctx, p, cfg.Report.Interval, reportDone)

	logs.Infof("ingest started, input: %s, delimiter: %s, max message size: %d",
		inputName(cfg.Input.Path), cfg.Input.Delimiter, cfg.Input.MaxMessageSize)

	summary, runErr := use.Run(ctx, input)
	close(reportDone)

	if sink != nil {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := sink.Close(closeCtx); err != nil {
			logs.Errorf("close sink, err: %+v", err)
		}
		cancel()
		logs.Infof("postgres rows written: %d", sink.Written())
	}

	logSummary(p, metrics, summary)

	if runErr != nil && !stderrors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open input").With("path", path)
	}
	return f, func() { _ = f.Close() }, nil
}

func inputName(path string) string {
	if path == "" || path == "-" {
		return "stdin"
	}
	return path
}

func startProfiler(addr string) (*pyroscope.Profiler, error) {
	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: "ingestion.parser",
		ServerAddress:   addr,
		Logger:          emptyLogger{},
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "start pyroscope").With("address", addr)
	}
	return profiler, nil
}

type emptyLogger struct{}

func (emptyLogger) Infof(_ string, _ ...interface{})  {}
func (emptyLogger) Debugf(_ string, _ ...interface{}) {}
func (emptyLogger) Errorf(_ string, _ ...interface{}) {}

func report(ctx context.Context, p *parser.Parser, interval time.Duration, done <-chan struct{}) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
			stats := p.Statistics()
			logs.Infof("parsed: %d, errors: %d, error rate: %.3f%%",
				stats.MessagesParsed, stats.ParseErrors, stats.ErrorRate*100)
		}
	}
}

func logSummary(p *parser.Parser, metrics *obs.Metrics, summary ingest.Summary) {
	stats := p.Statistics()
	snap := metrics.Snapshot()
	logs.Infof("frames: %d, parsed: %d, errors: %d, error rate: %.3f%%, implementation: %s",
		summary.Frames, stats.MessagesParsed, stats.ParseErrors, stats.ErrorRate*100, stats.Implementation)
	for status := enum.StatusSuccess; status.IsAvailable(); status++ {
		if n := snap.StatusCounts[status]; n > 0 {
			logs.Infof("  %s: %d", status, n)
		}
	}
	for protocol := enum.ProtocolUnknown; protocol < enum.Protocol(enum.ProtocolCount); protocol++ {
		if n := snap.ProtocolCounts[protocol]; n > 0 {
			logs.Infof("  protocol %s: %d", protocol, n)
		}
	}
	if lat := snap.ParseLatency; lat.Count > 0 {
		logs.Infof("parse latency, avg: %s, min: %s, max: %s, bytes: %d",
			lat.Avg, lat.Min, lat.Max, snap.BytesIn)
	}
}
