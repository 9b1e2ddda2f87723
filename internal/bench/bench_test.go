package bench

import (
	"testing"
	"time"
)

func TestZero(t *testing.T) {
	snap := Zero(42)
	if snap.InputWordCount != 42 {
		t.Errorf("Expected input word count 42, got %d", snap.InputWordCount)
	}
	if snap.TotalTimeMs != 0 || snap.FirstTokenLatencyMs != 0 || snap.TokensPerSecond != 0 {
		t.Errorf("Zero snapshot has non-zero timing fields: %+v", snap)
	}
	if snap.OutputWordCount != 0 || snap.OutputTokenEstimate != 0 {
		t.Errorf("Zero snapshot has non-zero output fields: %+v", snap)
	}
}

func TestTake(t *testing.T) {
	t.Run("Throughput", func(t *testing.T) {
		// 10 words over 2s => 13 estimated tokens => 6.5 tok/s.
		output := "a b c d e f g h i j"
		snap := Take(2*time.Second, 500*time.Millisecond, output, CurrentHeap(), 100)

		if snap.OutputWordCount != 10 {
			t.Errorf("Expected 10 output words, got %d", snap.OutputWordCount)
		}
		if snap.OutputTokenEstimate != 13 {
			t.Errorf("Expected token estimate 13, got %f", snap.OutputTokenEstimate)
		}
		if snap.TokensPerSecond < 6.49 || snap.TokensPerSecond > 6.51 {
			t.Errorf("Expected ~6.5 tokens/sec, got %f", snap.TokensPerSecond)
		}
		if snap.TotalTimeMs != 2000 {
			t.Errorf("Expected 2000ms total, got %f", snap.TotalTimeMs)
		}
		if snap.FirstTokenLatencyMs != 500 {
			t.Errorf("Expected 500ms first token, got %f", snap.FirstTokenLatencyMs)
		}
	})

	t.Run("ZeroElapsedGuard", func(t *testing.T) {
		snap := Take(0, 0, "some output words", CurrentHeap(), 3)
		if snap.TokensPerSecond != 0 {
			t.Errorf("Expected 0 tokens/sec for zero elapsed, got %f", snap.TokensPerSecond)
		}
	})

	t.Run("TimeOrdering", func(t *testing.T) {
		snap := Take(3*time.Second, time.Second, "out", CurrentHeap(), 1)
		if snap.TotalTimeMs < snap.FirstTokenLatencyMs || snap.FirstTokenLatencyMs < 0 {
			t.Errorf("Time ordering violated: total=%f first=%f", snap.TotalTimeMs, snap.FirstTokenLatencyMs)
		}
	})

	t.Run("NegativeMemoryDeltaPreserved", func(t *testing.T) {
		// A memBefore far above any realistic heap forces a negative delta.
		snap := Take(time.Second, 0, "x", 1<<62, 1)
		if snap.MemoryDeltaBytes >= 0 {
			t.Errorf("Expected negative memory delta, got %d", snap.MemoryDeltaBytes)
		}
	})
}

func TestEstimateTokens(t *testing.T) {
	if got := EstimateTokens(""); got != 0 {
		t.Errorf("Expected 0 tokens for empty text, got %f", got)
	}
	if got := EstimateTokens("one two three four"); got != 4*TokenRatio {
		t.Errorf("Expected %f tokens, got %f", 4*TokenRatio, got)
	}
}
