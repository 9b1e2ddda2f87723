package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/raaihank/hybrid-summarizer/internal/backend"
	"github.com/raaihank/hybrid-summarizer/internal/bench"
	"github.com/raaihank/hybrid-summarizer/internal/benchstore"
	"github.com/raaihank/hybrid-summarizer/internal/config"
	"github.com/raaihank/hybrid-summarizer/internal/export"
	"github.com/raaihank/hybrid-summarizer/internal/logger"
	"github.com/raaihank/hybrid-summarizer/internal/pipeline"
	"github.com/raaihank/hybrid-summarizer/internal/privacy"
)

func main() {
	var (
		configPath = flag.String("config", "", "Configuration file path")
		inputFile  = flag.String("input", "", "Input text file to summarize")
		modeList   = flag.String("modes", "plain,chunked,privacy", "Comma-separated modes to benchmark")
		runs       = flag.Int("runs", 3, "Runs per mode")
		outputFile = flag.String("output", "benchmarks.parquet", "Parquet output file")
		persist    = flag.Bool("persist", false, "Also record runs in the benchmark database")
	)
	flag.Parse()

	if *inputFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s --input document.txt [options]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --input report.txt --modes plain,chunked --runs 5\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --input record.txt --modes privacy --persist\n", os.Args[0])
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	text, err := os.ReadFile(*inputFile)
	if err != nil {
		log.Fatal("Failed to read input file", zap.Error(err))
	}

	modes, err := parseModes(*modeList)
	if err != nil {
		log.Fatal("Invalid mode list", zap.Error(err))
	}

	summarizer, err := buildSummarizer(cfg, log)
	if err != nil {
		log.Fatal("Failed to build pipeline", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal, cancelling runs...")
		cancel()
	}()

	log.Info("Starting benchmark runs",
		zap.String("input", *inputFile),
		zap.String("modes", *modeList),
		zap.Int("runs_per_mode", *runs))

	records := collectRuns(ctx, summarizer, modes, string(text), *runs, log)
	if len(records) == 0 {
		log.Fatal("No benchmark runs completed")
	}

	if err := export.WriteFile(*outputFile, records, log.Logger); err != nil {
		log.Fatal("Failed to export benchmark runs", zap.Error(err))
	}

	if *persist {
		if err := persistRuns(ctx, cfg, records, log); err != nil {
			log.Error("Failed to persist benchmark runs", zap.Error(err))
		}
	}

	printSummary(records)
}

func parseModes(list string) ([]pipeline.Mode, error) {
	var modes []pipeline.Mode
	for _, name := range strings.Split(list, ",") {
		mode, err := pipeline.ParseMode(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		modes = append(modes, mode)
	}
	return modes, nil
}

func buildSummarizer(cfg *config.Config, log *logger.Logger) (*pipeline.Summarizer, error) {
	anonymizer, err := privacy.New(cfg.Privacy, log.WithComponent("privacy"))
	if err != nil {
		return nil, fmt.Errorf("failed to create anonymizer: %w", err)
	}

	local, err := backend.FromConfig(cfg.Backends.Local, log.WithComponent("backend"))
	if err != nil {
		return nil, fmt.Errorf("failed to create local backend: %w", err)
	}
	cloud, err := backend.FromConfig(cfg.Backends.Cloud, log.WithComponent("backend"))
	if err != nil {
		return nil, fmt.Errorf("failed to create cloud backend: %w", err)
	}

	return pipeline.New(local, cloud, anonymizer, cfg.Pipeline, log.WithComponent("pipeline"))
}

// collectRuns executes every mode the requested number of times and returns
// one export record per completed run. A cancelled context stops the sweep.
func collectRuns(ctx context.Context, summarizer *pipeline.Summarizer, modes []pipeline.Mode, text string, runs int, log *logger.Logger) []export.Record {
	var records []export.Record

	for _, mode := range modes {
		for i := 0; i < runs; i++ {
			if ctx.Err() != nil {
				return records
			}

			result := summarizer.Summarize(ctx, mode, text)
			records = append(records, export.FromSnapshot(mode.String(), result.Success, result.Benchmark))

			log.Info("Benchmark run finished",
				zap.String("mode", mode.String()),
				zap.Int("run", i+1),
				zap.Bool("success", result.Success),
				zap.Float64("total_ms", result.Benchmark.TotalTimeMs),
				zap.Float64("tokens_per_sec", result.Benchmark.TokensPerSecond))
		}
	}

	return records
}

func persistRuns(ctx context.Context, cfg *config.Config, records []export.Record, log *logger.Logger) error {
	store, err := benchstore.New(&cfg.BenchStore, log.WithComponent("benchstore").Logger)
	if err != nil {
		return err
	}
	defer store.Close()

	for _, rec := range records {
		snapshot := bench.Snapshot{
			TotalTimeMs:         rec.TotalMs,
			FirstTokenLatencyMs: rec.FirstTokenMs,
			TokensPerSecond:     rec.TokensPerSec,
			MemoryDeltaBytes:    rec.MemoryDelta,
			InputWordCount:      int(rec.InputWords),
			OutputWordCount:     int(rec.OutputWords),
		}
		if _, err := store.Record(ctx, rec.Mode, rec.Success, snapshot); err != nil {
			return err
		}
	}

	return nil
}

// printSummary prints per-mode averages over successful runs
func printSummary(records []export.Record) {
	type agg struct {
		count   int
		totalMs float64
		tps     float64
	}
	byMode := make(map[string]*agg)
	for _, rec := range records {
		if !rec.Success {
			continue
		}
		a := byMode[rec.Mode]
		if a == nil {
			a = &agg{}
			byMode[rec.Mode] = a
		}
		a.count++
		a.totalMs += rec.TotalMs
		a.tps += rec.TokensPerSec
	}

	fmt.Println("\nBenchmark summary (successful runs):")
	for mode, a := range byMode {
		fmt.Printf("  %-8s runs=%d avg_total=%.1fms avg_throughput=%.2f tok/s\n",
			mode, a.count, a.totalMs/float64(a.count), a.tps/float64(a.count))
	}
}
