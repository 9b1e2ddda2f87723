package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/raaihank/hybrid-summarizer/internal/backend"
	"github.com/raaihank/hybrid-summarizer/internal/bench"
	"github.com/raaihank/hybrid-summarizer/internal/config"
	"github.com/raaihank/hybrid-summarizer/internal/logger"
	"github.com/raaihank/hybrid-summarizer/internal/privacy"
)

func newTestSummarizer(t *testing.T, local, cloud backend.Client) *Summarizer {
	t.Helper()

	anonymizer, err := privacy.New(config.PrivacyConfig{Enabled: true, Detectors: []string{"all"}}, logger.Nop())
	if err != nil {
		t.Fatalf("Failed to create anonymizer: %v", err)
	}

	s, err := New(local, cloud, anonymizer, config.PipelineConfig{
		ChunkWords:       500,
		SnapshotInterval: 5,
	}, logger.Nop())
	if err != nil {
		t.Fatalf("Failed to create summarizer: %v", err)
	}
	return s
}

func makeWords(n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "w%d", i)
	}
	return sb.String()
}

func TestPlainMode(t *testing.T) {
	cloud := backend.NewScripted("a concise summary of the text")
	s := newTestSummarizer(t, backend.NewScripted("unused"), cloud)

	stream := s.SummarizeStream(context.Background(), ModePlain, "some input text to summarize")

	var fragments []string
	for fragment := range stream.Fragments() {
		fragments = append(fragments, fragment)
	}
	result := stream.Result()

	if !result.Success {
		t.Fatalf("Expected success, got error: %s", result.Error)
	}
	if result.State != StateCompleted.String() {
		t.Errorf("Expected completed state, got %s", result.State)
	}
	if strings.Join(fragments, "") != "a concise summary of the text" {
		t.Errorf("Fragment concatenation mismatch: %q", strings.Join(fragments, ""))
	}
	if result.Text != "a concise summary of the text" {
		t.Errorf("Unexpected result text: %q", result.Text)
	}
	if result.Benchmark.TotalTimeMs < result.Benchmark.FirstTokenLatencyMs {
		t.Errorf("Benchmark ordering violated: %+v", result.Benchmark)
	}
	if result.Benchmark.OutputWordCount != 6 {
		t.Errorf("Expected 6 output words, got %d", result.Benchmark.OutputWordCount)
	}
}

func TestSnapshotCadence(t *testing.T) {
	// 12 fragments at interval 5: zero snapshot, two periodic, one final.
	cloud := backend.NewScripted(makeWords(12))
	s := newTestSummarizer(t, backend.NewScripted(""), cloud)

	stream := s.SummarizeStream(context.Background(), ModePlain, "input")
	for range stream.Fragments() {
	}

	var snapshots []bench.Snapshot
	for snap := range stream.Snapshots() {
		snapshots = append(snapshots, snap)
	}

	if len(snapshots) != 4 {
		t.Fatalf("Expected 4 snapshots (zero, 2 periodic, final), got %d", len(snapshots))
	}
	zero := snapshots[0]
	if zero.TotalTimeMs != 0 || zero.OutputWordCount != 0 {
		t.Errorf("First snapshot should be the zero snapshot: %+v", zero)
	}
	final := snapshots[len(snapshots)-1]
	if final.OutputWordCount != 12 {
		t.Errorf("Final snapshot should cover 12 words, got %d", final.OutputWordCount)
	}
}

func TestChunkedHybridMode(t *testing.T) {
	local := backend.NewScripted("first section summary", "second section summary", "third section summary")
	cloud := backend.NewScripted("the synthesized overall summary")
	s := newTestSummarizer(t, local, cloud)

	// 1200 words at width 500 must produce exactly 3 sequential local calls.
	result := s.Summarize(context.Background(), ModeChunkedHybrid, makeWords(1200))

	if !result.Success {
		t.Fatalf("Expected success, got error: %s", result.Error)
	}
	if local.Calls() != 3 {
		t.Errorf("Expected 3 local chunk calls, got %d", local.Calls())
	}
	if cloud.Calls() != 1 {
		t.Errorf("Expected 1 cloud synthesis call, got %d", cloud.Calls())
	}
	if result.Text != "the synthesized overall summary" {
		t.Errorf("Expected synthesis output as final text, got %q", result.Text)
	}

	// Chunk prompts are labeled by section index.
	if !strings.Contains(local.Prompts[0], "section 1 of 3") {
		t.Errorf("First chunk prompt missing section label: %q", local.Prompts[0])
	}
	// The synthesis prompt carries every chunk summary.
	for _, summary := range []string{"first section summary", "second section summary", "third section summary"} {
		if !strings.Contains(cloud.Prompts[0], summary) {
			t.Errorf("Synthesis prompt missing %q", summary)
		}
	}
}

func TestPrivacyHybridMode(t *testing.T) {
	cloud := backend.NewScripted("Patient reachable at [PHONE_1] per the record.")
	s := newTestSummarizer(t, backend.NewScripted("unused"), cloud)

	stream := s.SummarizeStream(context.Background(), ModePrivacyHybrid, "Call (503) 555-0147 to reach the patient.")

	var fragments []string
	for fragment := range stream.Fragments() {
		fragments = append(fragments, fragment)
	}
	result := stream.Result()

	if !result.Success {
		t.Fatalf("Expected success, got error: %s", result.Error)
	}

	// Phase 1 report leads the stream.
	if !strings.Contains(fragments[0], "Anonymization report") {
		t.Errorf("Expected anonymization report first, got %q", fragments[0])
	}
	if len(result.Findings) == 0 {
		t.Error("Expected findings in result")
	}

	// The cloud prompt carries placeholders, never the literal phone number.
	if strings.Contains(cloud.Prompts[0], "555-0147") {
		t.Error("Literal PII leaked into the cloud prompt")
	}
	if !strings.Contains(cloud.Prompts[0], "[PHONE_1]") {
		t.Errorf("Expected placeholder in cloud prompt: %q", cloud.Prompts[0])
	}

	// Phase 3 forwards the restored text as one final block.
	last := fragments[len(fragments)-1]
	if !strings.Contains(last, "(503) 555-0147") {
		t.Errorf("Final block should contain restored PII, got %q", last)
	}
	if !strings.Contains(result.Text, "(503) 555-0147") {
		t.Errorf("Result text should be restored: %q", result.Text)
	}
	if strings.Contains(result.Text, "[PHONE_1]") {
		t.Errorf("Placeholder survived restoration: %q", result.Text)
	}
}

func TestPrivacyQuestionSubMode(t *testing.T) {
	cloud := backend.NewScripted("The dosage is 5mg daily.")
	s := newTestSummarizer(t, backend.NewScripted("unused"), cloud)

	input := "QUESTION: What is the dosage? HEALTH_RECORD: Patient: Jane Doe takes 5mg of lisinopril daily."
	result := s.Summarize(context.Background(), ModePrivacyHybrid, input)

	if !result.Success {
		t.Fatalf("Expected success, got error: %s", result.Error)
	}

	prompt := cloud.Prompts[0]
	if !strings.Contains(prompt, "Question: What is the dosage?") {
		t.Errorf("QA prompt missing question: %q", prompt)
	}
	if !strings.Contains(prompt, "personal health record") {
		t.Errorf("QA prompt missing auxiliary context: %q", prompt)
	}
	if strings.Contains(prompt, "Jane Doe") {
		t.Error("Labeled name leaked into QA prompt")
	}
}

func TestCancellationMidPhase2ProducesNoRestoredOutput(t *testing.T) {
	cloud := backend.NewScripted("the summary mentions [PHONE_1] " + makeWords(50))
	cloud.Delay = 20 * time.Millisecond
	s := newTestSummarizer(t, backend.NewScripted("unused"), cloud)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stream := s.SummarizeStream(ctx, ModePrivacyHybrid, "Call (503) 555-0147 immediately.")

	var fragments []string
	seen := 0
	for fragment := range stream.Fragments() {
		fragments = append(fragments, fragment)
		seen++
		if seen == 3 {
			// Mid-Phase-2: the report plus a couple of cloud fragments.
			cancel()
		}
	}
	result := stream.Result()

	if result.Success {
		t.Fatal("Expected unsuccessful result after cancellation")
	}
	if result.State != StateCancelled.String() {
		t.Errorf("Expected cancelled state, got %s", result.State)
	}
	if result.Error != ErrCancelled.Error() {
		t.Errorf("Expected cancelled error message, got %q", result.Error)
	}

	// No Phase 3 output: nothing restored may ever appear.
	for _, fragment := range fragments {
		if strings.Contains(fragment, "555-0147") {
			t.Errorf("Restored PII leaked after cancellation: %q", fragment)
		}
	}
	if result.Text != "" {
		t.Errorf("Cancelled run must not carry partial output, got %q", result.Text)
	}
}

func TestBackendFailureMidStream(t *testing.T) {
	cloud := backend.NewScripted(makeWords(20))
	cloud.FailAfter = 3
	s := newTestSummarizer(t, backend.NewScripted("unused"), cloud)

	result := s.Summarize(context.Background(), ModePlain, "some input")

	if result.Success {
		t.Fatal("Expected failure result")
	}
	if result.State != StateFailed.String() {
		t.Errorf("Expected failed state, got %s", result.State)
	}
	if !strings.Contains(result.Error, "backend call failed") {
		t.Errorf("Expected descriptive backend error, got %q", result.Error)
	}
}

func TestBackendUnavailable(t *testing.T) {
	cloud := backend.NewScripted("reply")
	cloud.Unavailable = true
	s := newTestSummarizer(t, backend.NewScripted("unused"), cloud)

	result := s.Summarize(context.Background(), ModePlain, "some input")

	if result.Success {
		t.Fatal("Expected failure result")
	}
	if !strings.Contains(result.Error, "backend unavailable") {
		t.Errorf("Expected unavailability error, got %q", result.Error)
	}
	if cloud.Calls() != 0 {
		t.Errorf("Unavailable backend must not be called, got %d calls", cloud.Calls())
	}
}

func TestEmptyInput(t *testing.T) {
	local := backend.NewScripted("unused")
	cloud := backend.NewScripted("unused")
	s := newTestSummarizer(t, local, cloud)

	for _, mode := range []Mode{ModePlain, ModeChunkedHybrid, ModePrivacyHybrid} {
		t.Run(mode.String(), func(t *testing.T) {
			result := s.Summarize(context.Background(), mode, "   \n ")

			if !result.Success {
				t.Fatalf("Expected success for empty input, got %s", result.Error)
			}
			if result.Text != "" {
				t.Errorf("Expected empty output, got %q", result.Text)
			}
			if result.Benchmark != bench.Zero(0) {
				t.Errorf("Expected zero benchmark, got %+v", result.Benchmark)
			}
		})
	}

	if local.Calls() != 0 || cloud.Calls() != 0 {
		t.Errorf("Empty input must not contact backends: local=%d cloud=%d", local.Calls(), cloud.Calls())
	}
}

func TestBlockedMode(t *testing.T) {
	local := backend.NewScripted("unused")
	cloud := backend.NewScripted("unused")
	s := newTestSummarizer(t, local, cloud)

	stream := s.SummarizeStream(context.Background(), ModeBlocked, "SSN 123-45-6789 must not leave the device")

	var fragments []string
	for fragment := range stream.Fragments() {
		fragments = append(fragments, fragment)
	}
	result := stream.Result()

	if result.Success {
		t.Fatal("Blocked run must not report success")
	}
	if len(fragments) != 1 || !strings.Contains(fragments[0], "blocked") {
		t.Errorf("Expected single refusal fragment, got %v", fragments)
	}
	if local.Calls() != 0 || cloud.Calls() != 0 {
		t.Errorf("Blocked mode must not contact backends: local=%d cloud=%d", local.Calls(), cloud.Calls())
	}
}

func TestParseMode(t *testing.T) {
	for name, want := range map[string]Mode{
		"plain":   ModePlain,
		"chunked": ModeChunkedHybrid,
		"privacy": ModePrivacyHybrid,
		"blocked": ModeBlocked,
	} {
		got, err := ParseMode(name)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %v, %v", name, got, err)
		}
	}
	if _, err := ParseMode("turbo"); err == nil {
		t.Error("Expected error for unknown mode")
	}
}

func TestConcurrentRunsShareNothing(t *testing.T) {
	cloud := backend.NewScripted("summary one two three four five")
	s := newTestSummarizer(t, backend.NewScripted("unused"), cloud)

	done := make(chan SummarizationResult, 4)
	for i := 0; i < 4; i++ {
		go func() {
			done <- s.Summarize(context.Background(), ModePlain, "shared summarizer distinct runs")
		}()
	}

	for i := 0; i < 4; i++ {
		result := <-done
		if !result.Success {
			t.Errorf("Concurrent run failed: %s", result.Error)
		}
	}
}
