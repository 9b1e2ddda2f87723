package pipeline

import (
	"errors"
	"fmt"

	"github.com/raaihank/hybrid-summarizer/internal/bench"
	"github.com/raaihank/hybrid-summarizer/internal/privacy"
)

// Mode selects the orchestration strategy. It is chosen once when a call is
// constructed, never re-derived mid-run.
type Mode int

const (
	// ModePlain wraps the input in a prompt and streams one cloud call.
	ModePlain Mode = iota
	// ModeChunkedHybrid summarizes bounded chunks on the local backend, then
	// synthesizes the partial summaries on the cloud backend.
	ModeChunkedHybrid
	// ModePrivacyHybrid anonymizes PII, summarizes on the cloud backend, and
	// restores original values into the final output.
	ModePrivacyHybrid
	// ModeBlocked refuses to send identifiable text to the cloud backend and
	// never contacts any backend.
	ModeBlocked
)

func (m Mode) String() string {
	switch m {
	case ModePlain:
		return "plain"
	case ModeChunkedHybrid:
		return "chunked"
	case ModePrivacyHybrid:
		return "privacy"
	case ModeBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// ParseMode parses a mode name as used in configuration and the HTTP API
func ParseMode(s string) (Mode, error) {
	switch s {
	case "plain":
		return ModePlain, nil
	case "chunked":
		return ModeChunkedHybrid, nil
	case "privacy":
		return ModePrivacyHybrid, nil
	case "blocked":
		return ModeBlocked, nil
	default:
		return ModePlain, fmt.Errorf("unknown mode: %s", s)
	}
}

// State is the per-run state machine. No state is re-entered; Cancelled is
// reachable from any non-terminal state and Failed from RemoteCall.
type State int

const (
	StateNotStarted State = iota
	StateAnonymizeOrChunk
	StateRemoteCall
	StateRestoreOrFinalize
	StateCompleted
	StateCancelled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateAnonymizeOrChunk:
		return "anonymize_or_chunk"
	case StateRemoteCall:
		return "remote_call"
	case StateRestoreOrFinalize:
		return "restore_or_finalize"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state ends a run
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateFailed
}

// SummarizationResult is the terminal value of one run
type SummarizationResult struct {
	Text      string            `json:"text"`
	Benchmark bench.Snapshot    `json:"benchmark"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	State     string            `json:"state"`
	Findings  []privacy.Finding `json:"findings,omitempty"`
}

// Error kinds surfaced through SummarizationResult. The blocking entry point
// never lets these cross its boundary as panics.
var (
	// ErrBackendUnavailable reports a failed availability probe.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrBackendCall reports a remote call that failed outright or mid-stream.
	ErrBackendCall = errors.New("backend call failed")
	// ErrCancelled reports cooperative cancellation.
	ErrCancelled = errors.New("cancelled")
	// ErrConfiguration reports a malformed pattern registry or wiring. This
	// is a programmer error, fatal at startup rather than per-call.
	ErrConfiguration = errors.New("configuration error")
)

// Sink receives orchestration side-channel events. All methods may be called
// from the run goroutine; implementations must not block.
type Sink interface {
	OnSnapshot(mode Mode, snapshot bench.Snapshot)
	OnStateChange(mode Mode, state State)
	OnAnonymization(mode Mode, findings []privacy.Finding)
}
