package pipeline

import (
	"github.com/raaihank/hybrid-summarizer/internal/bench"
)

// Stream is the lazy output of one streaming summarization run. Fragments
// arrive strictly in the order produced; the snapshot channel carries the
// periodic benchmark side channel. Both channels are closed when the run
// reaches a terminal state, after which Result returns the terminal value.
// A Stream is finite and not restartable.
type Stream struct {
	fragments chan string
	snapshots chan bench.Snapshot
	done      chan struct{}
	result    SummarizationResult
}

func newStream() *Stream {
	return &Stream{
		fragments: make(chan string, 16),
		snapshots: make(chan bench.Snapshot, 16),
		done:      make(chan struct{}),
	}
}

// Fragments returns the output-fragment channel
func (s *Stream) Fragments() <-chan string {
	return s.fragments
}

// Snapshots returns the benchmark side channel. Snapshots are dropped rather
// than blocking the run when the consumer lags; the final snapshot is always
// available via Result.
func (s *Stream) Snapshots() <-chan bench.Snapshot {
	return s.snapshots
}

// Done is closed when the run reaches a terminal state
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Result blocks until the run terminates and returns its terminal value.
// Failures and cancellation are reported here, never as panics mid-sequence.
func (s *Stream) Result() SummarizationResult {
	<-s.done
	return s.result
}

// finish records the terminal value and closes all channels. Called exactly
// once, from the run goroutine.
func (s *Stream) finish(result SummarizationResult) {
	s.result = result
	close(s.fragments)
	close(s.snapshots)
	close(s.done)
}
