// Package backend defines the abstract text-completion capability consumed
// by the summarization pipeline, plus concrete clients for a local (ollama)
// and a cloud (openai-compatible) service.
package backend

import "context"

// Fragment is one item of a streaming completion. A non-nil Err reports a
// mid-stream failure; the channel is closed right after it.
type Fragment struct {
	Text string
	Err  error
}

// Client is a stateless, reentrant completion capability. Implementations
// must be safe for concurrent use by multiple pipeline invocations.
type Client interface {
	// Name identifies the client for logging.
	Name() string

	// Complete performs one synchronous completion.
	Complete(ctx context.Context, prompt string) (string, error)

	// CompleteStream performs one streaming completion. The returned channel
	// is finite, not restartable, and closed when the stream ends for any
	// reason. Connection-level failures are returned immediately.
	CompleteStream(ctx context.Context, prompt string) (<-chan Fragment, error)

	// Available probes whether the service can currently be reached.
	Available(ctx context.Context) bool
}
