package backend

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// ErrScriptedFailure is the injected mid-stream error used by tests.
var ErrScriptedFailure = errors.New("scripted stream failure")

// Scripted is a deterministic in-memory client used in tests and demos. Each
// call pops the next scripted reply; replies are streamed word by word.
type Scripted struct {
	mu sync.Mutex

	// Replies are consumed in order; the last one repeats once exhausted.
	Replies []string
	// FailAfter injects a mid-stream error after that many fragments when
	// non-negative.
	FailAfter int
	// Delay is an optional per-fragment pause, useful for exercising
	// cancellation at suspension points.
	Delay time.Duration
	// Unavailable makes the availability probe fail.
	Unavailable bool

	calls   int
	Prompts []string
}

// NewScripted creates a scripted client with the given replies
func NewScripted(replies ...string) *Scripted {
	return &Scripted{Replies: replies, FailAfter: -1}
}

func (s *Scripted) Name() string { return "scripted" }

// Calls reports how many completion calls were made
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *Scripted) nextReply(prompt string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Prompts = append(s.Prompts, prompt)
	idx := s.calls
	s.calls++
	if idx >= len(s.Replies) {
		idx = len(s.Replies) - 1
	}
	if idx < 0 {
		return ""
	}
	return s.Replies[idx]
}

func (s *Scripted) Complete(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.nextReply(prompt), nil
}

func (s *Scripted) CompleteStream(ctx context.Context, prompt string) (<-chan Fragment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reply := s.nextReply(prompt)
	words := strings.Fields(reply)

	fragments := make(chan Fragment)
	go func() {
		defer close(fragments)

		for i, word := range words {
			if s.FailAfter >= 0 && i >= s.FailAfter {
				select {
				case fragments <- Fragment{Err: ErrScriptedFailure}:
				case <-ctx.Done():
				}
				return
			}

			if s.Delay > 0 {
				select {
				case <-time.After(s.Delay):
				case <-ctx.Done():
					return
				}
			}

			text := word
			if i < len(words)-1 {
				text += " "
			}
			select {
			case fragments <- Fragment{Text: text}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return fragments, nil
}

func (s *Scripted) Available(ctx context.Context) bool {
	return !s.Unavailable
}
