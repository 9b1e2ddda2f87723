// Package bench computes live performance snapshots for summarization runs.
// Snapshots are pure derivations over orchestrator-owned checkpoints; the
// package keeps no history.
package bench

import (
	"runtime"
	"strings"
	"time"
)

// TokenRatio is the fixed words-to-tokens heuristic used for throughput
// estimates. It is not an exact tokenizer.
const TokenRatio = 1.3

// SnapshotInterval is the streaming checkpoint cadence: a snapshot is taken
// on every 5th emitted output fragment. Kept fixed so benchmark curves stay
// comparable across runs.
const SnapshotInterval = 5

// Snapshot is an immutable view of run performance at one checkpoint.
type Snapshot struct {
	TotalTimeMs         float64 `json:"total_time_ms"`
	FirstTokenLatencyMs float64 `json:"first_token_latency_ms"`
	TokensPerSecond     float64 `json:"tokens_per_second"`
	MemoryDeltaBytes    int64   `json:"memory_delta_bytes"`
	InputWordCount      int     `json:"input_word_count"`
	OutputWordCount     int     `json:"output_word_count"`
	OutputTokenEstimate float64 `json:"output_token_estimate"`
}

// Zero returns the pre-work snapshot for a run over inputWords words.
func Zero(inputWords int) Snapshot {
	return Snapshot{InputWordCount: inputWords}
}

// Take derives a snapshot from the current checkpoint state. memBefore is the
// heap usage sampled before work began; the delta may legitimately be
// negative when a collection ran mid-measurement and is preserved as-is.
func Take(elapsed, firstToken time.Duration, output string, memBefore uint64, inputWords int) Snapshot {
	words := len(strings.Fields(output))
	tokens := EstimateTokens(output)

	tokensPerSec := 0.0
	if elapsed > 0 {
		tokensPerSec = tokens / elapsed.Seconds()
	}

	return Snapshot{
		TotalTimeMs:         float64(elapsed.Microseconds()) / 1000,
		FirstTokenLatencyMs: float64(firstToken.Microseconds()) / 1000,
		TokensPerSecond:     tokensPerSec,
		MemoryDeltaBytes:    int64(CurrentHeap()) - int64(memBefore),
		InputWordCount:      inputWords,
		OutputWordCount:     words,
		OutputTokenEstimate: tokens,
	}
}

// EstimateTokens estimates the token count of text as words * TokenRatio.
func EstimateTokens(text string) float64 {
	return float64(len(strings.Fields(text))) * TokenRatio
}

// CurrentHeap returns the process heap usage in bytes.
func CurrentHeap() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.HeapAlloc
}
