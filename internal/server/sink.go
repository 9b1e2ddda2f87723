package server

import (
	"time"

	"github.com/raaihank/hybrid-summarizer/internal/bench"
	"github.com/raaihank/hybrid-summarizer/internal/pipeline"
	"github.com/raaihank/hybrid-summarizer/internal/privacy"
	"github.com/raaihank/hybrid-summarizer/internal/websocket"
)

// hubSink forwards pipeline side-channel events to the WebSocket hub. All
// methods are non-blocking; the hub drops events when its queue is full.
type hubSink struct {
	hub *websocket.Hub
}

func (s *hubSink) OnSnapshot(mode pipeline.Mode, snapshot bench.Snapshot) {
	s.hub.BroadcastEvent(websocket.Event{
		Type:      websocket.EventTypeBenchmark,
		Timestamp: time.Now(),
		Data: websocket.BenchmarkEvent{
			Mode:     mode.String(),
			Snapshot: snapshot,
		},
	})
}

func (s *hubSink) OnStateChange(mode pipeline.Mode, state pipeline.State) {
	s.hub.BroadcastEvent(websocket.Event{
		Type:      websocket.EventTypePhase,
		Timestamp: time.Now(),
		Data: websocket.PhaseEvent{
			Mode:  mode.String(),
			State: state.String(),
		},
	})
}

func (s *hubSink) OnAnonymization(mode pipeline.Mode, findings []privacy.Finding) {
	total := 0
	for _, f := range findings {
		total += f.Count
	}

	s.hub.BroadcastEvent(websocket.Event{
		Type:      websocket.EventTypeAnonymization,
		Timestamp: time.Now(),
		Data: websocket.AnonymizationEvent{
			Mode:          mode.String(),
			Findings:      findings,
			TotalFindings: total,
		},
	})
}
