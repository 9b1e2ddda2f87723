package pipeline

import (
	"github.com/raaihank/hybrid-summarizer/internal/chunker"
	"github.com/raaihank/hybrid-summarizer/internal/privacy"
	"go.uber.org/zap"
)

// runPlain wraps the input in a prompt and streams a single cloud call.
func (r *run) runPlain() (string, error) {
	r.setState(StateRemoteCall)
	if err := r.probe(r.s.cloud); err != nil {
		return "", err
	}

	output, err := r.drainStream(r.s.cloud, summarizePrompt(r.input), true)
	if err != nil {
		return "", err
	}

	r.setState(StateRestoreOrFinalize)
	return output, nil
}

// runChunked is the two-phase hybrid: per-chunk local summarization followed
// by one cloud synthesis call over the labeled section summaries.
func (r *run) runChunked() (string, error) {
	r.setState(StateAnonymizeOrChunk)
	chunks := chunker.Split(r.input, r.s.cfg.ChunkWords)

	r.logger.Info("Input chunked",
		zap.Int("chunks", len(chunks)),
		zap.Int("chunk_words", r.s.cfg.ChunkWords),
	)

	r.setState(StateRemoteCall)

	// Phase 1: summarize each chunk on the local backend, strictly one at a
	// time. Local inference is a serialized, resource-constrained capability.
	if err := r.probe(r.s.local); err != nil {
		return "", err
	}

	summaries := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		summary, err := r.drainStream(r.s.local, chunkPrompt(chunk, i+1, len(chunks)), true)
		if err != nil {
			return "", err
		}
		summaries = append(summaries, summary)

		r.logger.Debug("Chunk summarized",
			zap.Int("chunk", i+1),
			zap.Int("summary_words", chunker.WordCount(summary)),
		)
	}

	// Phase 2: synthesize the section summaries on the cloud backend. Phase 1
	// is fully drained before this starts; phases never interleave.
	if err := r.probe(r.s.cloud); err != nil {
		return "", err
	}

	final, err := r.drainStream(r.s.cloud, synthesisPrompt(summaries), true)
	if err != nil {
		return "", err
	}

	r.setState(StateRestoreOrFinalize)
	return final, nil
}

// runPrivacy is the three-phase hybrid: anonymize, summarize the anonymized
// text on the cloud backend, restore original values into the final output.
func (r *run) runPrivacy() (string, error) {
	// Phase 1: anonymize and report. Pure, synchronous; no suspension here.
	r.setState(StateAnonymizeOrChunk)

	anonymized := r.s.anonymizer.Anonymize(r.input)
	r.findings = anonymized.Findings

	r.logger.Info("Input anonymized",
		zap.Int("replacements", anonymized.TotalFindings()),
		zap.Int("categories", len(anonymized.Findings)),
	)
	if r.s.sink != nil {
		r.s.sink.OnAnonymization(r.mode, anonymized.Findings)
	}

	if err := r.emit(privacy.Report(anonymized.Findings) + "\n\n"); err != nil {
		return "", err
	}

	// Sub-mode selection: question-answering when the input carries the
	// QUESTION / HEALTH_RECORD markers, plain summarization otherwise.
	var prompt string
	if question, record, ok := parseQuestion(anonymized.Text); ok {
		prompt = privacyQuestionPrompt(question, record)
	} else {
		prompt = privacySummaryPrompt(anonymized.Text)
	}

	// Phase 2: one cloud streaming call over anonymized text only.
	r.setState(StateRemoteCall)
	if err := r.probe(r.s.cloud); err != nil {
		return "", err
	}

	output, err := r.drainStream(r.s.cloud, prompt, true)
	if err != nil {
		// Cancellation or failure here must not produce any Phase 3 output:
		// a partially-restored result would leak PII.
		return "", err
	}

	// Phase 3: restore original values and forward the result as one final
	// block. Fragment-level restoration would split placeholder tokens across
	// fragment boundaries.
	r.setState(StateRestoreOrFinalize)
	restored := privacy.Restore(output, anonymized.Map)
	if err := r.emit("\n\n" + restored); err != nil {
		return "", err
	}

	return restored, nil
}

// runBlocked refuses immediately without contacting any backend.
func (r *run) runBlocked() {
	r.setState(StateRestoreOrFinalize)

	if err := r.emit(blockedMessage); err != nil {
		r.fail(err)
		return
	}

	r.setState(StateCompleted)
	r.stream.finish(SummarizationResult{
		Text:      blockedMessage,
		Benchmark: r.takeSnapshot(""),
		Success:   false,
		Error:     "request blocked: identifiable text must not reach the cloud backend",
		State:     StateCompleted.String(),
	})
}
