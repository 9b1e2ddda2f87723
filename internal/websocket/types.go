package websocket

import (
	"time"

	"github.com/raaihank/hybrid-summarizer/internal/bench"
	"github.com/raaihank/hybrid-summarizer/internal/privacy"
)

// EventType represents the type of WebSocket event
type EventType string

const (
	// EventTypeAnonymization reports per-category anonymization counts
	EventTypeAnonymization EventType = "anonymization"
	// EventTypeBenchmark carries a benchmark snapshot checkpoint
	EventTypeBenchmark EventType = "benchmark"
	// EventTypePhase reports a pipeline state transition
	EventTypePhase EventType = "phase"
	// EventTypeConnection represents connection events
	EventTypeConnection EventType = "connection"
)

// Event represents a WebSocket event sent to clients
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// AnonymizationEvent reports how many items one run anonymized per category.
// It never carries original values or placeholders.
type AnonymizationEvent struct {
	Mode          string            `json:"mode"`
	Findings      []privacy.Finding `json:"findings"`
	TotalFindings int               `json:"total_findings"`
}

// BenchmarkEvent carries one benchmark snapshot
type BenchmarkEvent struct {
	Mode     string         `json:"mode"`
	Snapshot bench.Snapshot `json:"snapshot"`
}

// PhaseEvent reports a pipeline state transition
type PhaseEvent struct {
	Mode  string `json:"mode"`
	State string `json:"state"`
}

// ConnectionEvent represents WebSocket connection events
type ConnectionEvent struct {
	Action   string `json:"action"` // "connected" or "disconnected"
	ClientID string `json:"client_id"`
}
