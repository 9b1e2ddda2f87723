package backend

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestScriptedComplete(t *testing.T) {
	client := NewScripted("first reply", "second reply")

	out, err := client.Complete(context.Background(), "prompt one")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "first reply" {
		t.Errorf("expected first reply, got %q", out)
	}

	out, _ = client.Complete(context.Background(), "prompt two")
	if out != "second reply" {
		t.Errorf("expected second reply, got %q", out)
	}

	// Last reply repeats once exhausted
	out, _ = client.Complete(context.Background(), "prompt three")
	if out != "second reply" {
		t.Errorf("expected last reply to repeat, got %q", out)
	}

	if client.Calls() != 3 {
		t.Errorf("expected 3 calls, got %d", client.Calls())
	}
	if len(client.Prompts) != 3 || client.Prompts[0] != "prompt one" {
		t.Errorf("prompts not recorded: %v", client.Prompts)
	}
}

func TestScriptedStreamReassembles(t *testing.T) {
	client := NewScripted("one two three")

	fragments, err := client.CompleteStream(context.Background(), "p")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var sb strings.Builder
	for f := range fragments {
		if f.Err != nil {
			t.Fatalf("unexpected stream error: %v", f.Err)
		}
		sb.WriteString(f.Text)
	}

	if sb.String() != "one two three" {
		t.Errorf("stream did not reassemble reply, got %q", sb.String())
	}
}

func TestScriptedStreamFailure(t *testing.T) {
	client := NewScripted("a b c d e")
	client.FailAfter = 2

	fragments, err := client.CompleteStream(context.Background(), "p")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got int
	var streamErr error
	for f := range fragments {
		if f.Err != nil {
			streamErr = f.Err
			break
		}
		got++
	}

	if got != 2 {
		t.Errorf("expected 2 fragments before failure, got %d", got)
	}
	if !errors.Is(streamErr, ErrScriptedFailure) {
		t.Errorf("expected scripted failure, got %v", streamErr)
	}
}

func TestRateLimitedUnwrapsZeroLimit(t *testing.T) {
	inner := NewScripted("x")

	client := NewRateLimited(inner, 0, 0)
	if client != Client(inner) {
		t.Error("non-positive limit should return the client unwrapped")
	}

	client = NewRateLimited(inner, 5, 1)
	if _, ok := client.(*RateLimited); !ok {
		t.Errorf("expected rate-limited wrapper, got %T", client)
	}
	if client.Name() != "scripted" {
		t.Errorf("wrapper must delegate Name, got %q", client.Name())
	}
}

func TestRateLimitedWaitHonorsCancellation(t *testing.T) {
	inner := NewScripted("x")
	// Burst 1: the second call has to wait a full second, far longer than
	// the context allows.
	client := NewRateLimited(inner, 1, 1)

	if _, err := client.Complete(context.Background(), "p"); err != nil {
		t.Fatalf("first call should pass: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := client.Complete(ctx, "p"); err == nil {
		t.Error("expected rate limit wait to fail under an expiring context")
	}
}

func TestScriptedAvailability(t *testing.T) {
	client := NewScripted("x")
	if !client.Available(context.Background()) {
		t.Error("scripted client should default to available")
	}

	client.Unavailable = true
	if client.Available(context.Background()) {
		t.Error("unavailable flag must fail the probe")
	}
}
