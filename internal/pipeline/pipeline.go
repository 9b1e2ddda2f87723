// Package pipeline orchestrates hybrid local/cloud text summarization: plain
// single-backend streaming, chunked two-phase summarization, and a
// privacy-preserving variant that anonymizes PII before any remote call.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/raaihank/hybrid-summarizer/internal/backend"
	"github.com/raaihank/hybrid-summarizer/internal/bench"
	"github.com/raaihank/hybrid-summarizer/internal/chunker"
	"github.com/raaihank/hybrid-summarizer/internal/config"
	"github.com/raaihank/hybrid-summarizer/internal/logger"
	"github.com/raaihank/hybrid-summarizer/internal/privacy"
	"go.uber.org/zap"
)

// Summarizer composes the chunker, anonymizer, benchmark computation and the
// two abstract backends into the three execution modes. It is safe for
// concurrent use: every run owns fresh per-call state (counters, placeholder
// maps, accumulators) and nothing is shared across invocations.
type Summarizer struct {
	local      backend.Client
	cloud      backend.Client
	anonymizer *privacy.Anonymizer
	cfg        config.PipelineConfig
	logger     *logger.Logger
	sink       Sink
}

// New creates a summarizer over the given backend pair
func New(local, cloud backend.Client, anonymizer *privacy.Anonymizer, cfg config.PipelineConfig, log *logger.Logger) (*Summarizer, error) {
	if local == nil || cloud == nil {
		return nil, fmt.Errorf("%w: both backends must be provided", ErrConfiguration)
	}
	if anonymizer == nil {
		return nil, fmt.Errorf("%w: anonymizer must be provided", ErrConfiguration)
	}
	if cfg.ChunkWords <= 0 {
		cfg.ChunkWords = 500
	}
	if cfg.SnapshotInterval <= 0 {
		cfg.SnapshotInterval = bench.SnapshotInterval
	}

	return &Summarizer{
		local:      local,
		cloud:      cloud,
		anonymizer: anonymizer,
		cfg:        cfg,
		logger:     log,
	}, nil
}

// SetSink installs an optional side-channel event sink
func (s *Summarizer) SetSink(sink Sink) {
	s.sink = sink
}

// Summarize runs a mode to completion and aggregates the stream into one
// terminal value. It never panics or returns an error across this boundary;
// failures are reported inside the result.
func (s *Summarizer) Summarize(ctx context.Context, mode Mode, text string) SummarizationResult {
	stream := s.SummarizeStream(ctx, mode, text)
	for range stream.Fragments() {
	}
	for range stream.Snapshots() {
	}
	return stream.Result()
}

// SummarizeStream starts a streaming run and returns its output stream. The
// run is cancelled cooperatively through ctx; a cancelled run terminates the
// fragment sequence without forwarding partial, unrestored output.
func (s *Summarizer) SummarizeStream(ctx context.Context, mode Mode, text string) *Stream {
	r := &run{
		s:          s,
		ctx:        ctx,
		mode:       mode,
		input:      text,
		stream:     newStream(),
		state:      StateNotStarted,
		inputWords: chunker.WordCount(text),
		logger:     s.logger.WithMode(mode.String()),
	}

	go r.execute()
	return r.stream
}

// run holds the per-call state of one pipeline invocation. It is owned by a
// single goroutine and never reused.
type run struct {
	s      *Summarizer
	ctx    context.Context
	mode   Mode
	input  string
	stream *Stream
	logger *logger.Logger

	state      State
	start      time.Time
	memBefore  uint64
	inputWords int
	firstToken time.Duration
	fragCount  int
	produced   strings.Builder
	findings   []privacy.Finding
}

func (r *run) execute() {
	r.start = time.Now()
	r.memBefore = bench.CurrentHeap()

	r.logger.Info("Summarization started",
		zap.Int("input_words", r.inputWords),
	)

	// Zero snapshot before any work begins.
	r.sendSnapshot(bench.Zero(r.inputWords))

	if r.mode != ModeBlocked && strings.TrimSpace(r.input) == "" {
		// Nothing to summarize: an empty, successful result with a zero
		// benchmark and no backend contact.
		r.setState(StateCompleted)
		r.stream.finish(SummarizationResult{
			Text:      "",
			Benchmark: bench.Zero(0),
			Success:   true,
			State:     StateCompleted.String(),
		})
		return
	}

	var err error
	var finalText string

	switch r.mode {
	case ModePlain:
		finalText, err = r.runPlain()
	case ModeChunkedHybrid:
		finalText, err = r.runChunked()
	case ModePrivacyHybrid:
		finalText, err = r.runPrivacy()
	case ModeBlocked:
		r.runBlocked()
		return
	default:
		err = fmt.Errorf("%w: unknown mode %d", ErrConfiguration, int(r.mode))
	}

	if err != nil {
		r.fail(err)
		return
	}
	r.complete(finalText)
}

// setState advances the per-run state machine. States are never re-entered.
func (r *run) setState(state State) {
	r.state = state
	r.logger.Debug("Pipeline state changed", zap.String("state", state.String()))
	if r.s.sink != nil {
		r.s.sink.OnStateChange(r.mode, state)
	}
}

// emit forwards one output fragment to the caller, tracking first-token
// latency and the periodic snapshot cadence. Returns the context error when
// the caller cancelled mid-send.
func (r *run) emit(text string) error {
	if text == "" {
		return r.ctx.Err()
	}

	if r.firstToken == 0 && strings.TrimSpace(text) != "" {
		r.firstToken = time.Since(r.start)
	}

	select {
	case r.stream.fragments <- text:
	case <-r.ctx.Done():
		return r.ctx.Err()
	}

	r.produced.WriteString(text)
	r.fragCount++
	if r.fragCount%r.s.cfg.SnapshotInterval == 0 {
		r.sendSnapshot(r.takeSnapshot(r.produced.String()))
	}

	return nil
}

func (r *run) takeSnapshot(output string) bench.Snapshot {
	return bench.Take(time.Since(r.start), r.firstToken, output, r.memBefore, r.inputWords)
}

func (r *run) sendSnapshot(snapshot bench.Snapshot) {
	select {
	case r.stream.snapshots <- snapshot:
	default:
		// Consumer is lagging; the terminal snapshot is still delivered
		// through the result.
	}
	if r.s.sink != nil {
		r.s.sink.OnSnapshot(r.mode, snapshot)
	}
}

// drainStream runs one streaming backend call to completion, forwarding
// fragments to the caller when forward is set and accumulating the full
// output. Cancellation and mid-stream errors abort the drain.
func (r *run) drainStream(client backend.Client, prompt string, forward bool) (string, error) {
	fragments, err := client.CompleteStream(r.ctx, prompt)
	if err != nil {
		if r.ctx.Err() != nil {
			return "", r.ctx.Err()
		}
		return "", fmt.Errorf("%w: %s: %v", ErrBackendCall, client.Name(), err)
	}

	var sb strings.Builder
	for {
		select {
		case fragment, ok := <-fragments:
			if !ok {
				return sb.String(), nil
			}
			if fragment.Err != nil {
				return sb.String(), fmt.Errorf("%w: %s: %v", ErrBackendCall, client.Name(), fragment.Err)
			}
			sb.WriteString(fragment.Text)
			if forward {
				if err := r.emit(fragment.Text); err != nil {
					return sb.String(), err
				}
			}
		case <-r.ctx.Done():
			return sb.String(), r.ctx.Err()
		}
	}
}

// probe verifies a backend responds before committing to a remote phase
func (r *run) probe(client backend.Client) error {
	if !client.Available(r.ctx) {
		if r.ctx.Err() != nil {
			return r.ctx.Err()
		}
		return fmt.Errorf("%w: %s", ErrBackendUnavailable, client.Name())
	}
	return nil
}

// complete finishes a run successfully. The terminal snapshot is computed
// over the final text and always delivered.
func (r *run) complete(finalText string) {
	r.setState(StateCompleted)

	snapshot := r.takeSnapshot(finalText)
	r.sendSnapshot(snapshot)

	r.logger.Info("Summarization completed",
		zap.Float64("total_ms", snapshot.TotalTimeMs),
		zap.Float64("first_token_ms", snapshot.FirstTokenLatencyMs),
		zap.Float64("tokens_per_sec", snapshot.TokensPerSecond),
		zap.Int("output_words", snapshot.OutputWordCount),
	)

	r.stream.finish(SummarizationResult{
		Text:      finalText,
		Benchmark: snapshot,
		Success:   true,
		State:     StateCompleted.String(),
		Findings:  r.findings,
	})
}

// fail terminates a run in Cancelled or Failed, never forwarding a partial,
// unrestored result.
func (r *run) fail(err error) {
	state := StateFailed
	message := err.Error()

	if errors.Is(err, context.Canceled) || r.ctx.Err() != nil {
		state = StateCancelled
		message = ErrCancelled.Error()
		r.logger.Info("Summarization cancelled")
	} else {
		r.logger.Error("Summarization failed", zap.Error(err))
	}

	r.setState(state)
	r.stream.finish(SummarizationResult{
		Benchmark: r.takeSnapshot(r.produced.String()),
		Success:   false,
		Error:     message,
		State:     state.String(),
		Findings:  r.findings,
	})
}
