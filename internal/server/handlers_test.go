package server

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/raaihank/hybrid-summarizer/internal/backend"
	"github.com/raaihank/hybrid-summarizer/internal/config"
	"github.com/raaihank/hybrid-summarizer/internal/logger"
	"github.com/raaihank/hybrid-summarizer/internal/pipeline"
	"github.com/raaihank/hybrid-summarizer/internal/privacy"
	"github.com/raaihank/hybrid-summarizer/internal/websocket"
)

func newTestServer(t *testing.T, replies ...string) *Server {
	t.Helper()

	cfg := config.GetDefaults()
	cfg.Pipeline.CallTimeout = 0
	log := logger.Nop()

	anonymizer, err := privacy.New(cfg.Privacy, log)
	if err != nil {
		t.Fatalf("failed to create anonymizer: %v", err)
	}

	local := backend.NewScripted(replies...)
	cloud := backend.NewScripted(replies...)
	summarizer, err := pipeline.New(local, cloud, anonymizer, cfg.Pipeline, log)
	if err != nil {
		t.Fatalf("failed to create summarizer: %v", err)
	}

	hub := websocket.NewHub(&cfg.WebSocket, log.Logger)
	summarizer.SetSink(&hubSink{hub: hub})
	go hub.Run()

	s := &Server{
		config:     cfg,
		logger:     log,
		summarizer: summarizer,
		wsHub:      hub,
		router:     mux.NewRouter(),
	}
	s.setupRoutes()
	return s
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, "ok")

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "healthy") {
		t.Errorf("expected healthy status, got %s", rec.Body.String())
	}
}

func TestSummarizeEndpoint(t *testing.T) {
	s := newTestServer(t, "a concise summary of the document")

	body := `{"text":"the quick brown fox jumps over the lazy dog","mode":"plain"}`
	req := httptest.NewRequest("POST", "/v1/summarize", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var result pipeline.SummarizationResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !result.Success {
		t.Errorf("expected success, got error %q", result.Error)
	}
	if !strings.Contains(result.Text, "concise summary") {
		t.Errorf("unexpected summary text: %q", result.Text)
	}
	if result.Benchmark.InputWordCount != 9 {
		t.Errorf("expected 9 input words, got %d", result.Benchmark.InputWordCount)
	}
}

func TestSummarizeRejectsUnknownMode(t *testing.T) {
	s := newTestServer(t, "ok")

	body := `{"text":"some text","mode":"turbo"}`
	req := httptest.NewRequest("POST", "/v1/summarize", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown mode, got %d", rec.Code)
	}
}

func TestSummarizeRejectsBadBody(t *testing.T) {
	s := newTestServer(t, "ok")

	req := httptest.NewRequest("POST", "/v1/summarize", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed body, got %d", rec.Code)
	}
}

func TestSummarizeBlockedMode(t *testing.T) {
	s := newTestServer(t, "must never be used")

	body := `{"text":"Patient: John Smith, phone 555-123-4567","mode":"blocked"}`
	req := httptest.NewRequest("POST", "/v1/summarize", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var result pipeline.SummarizationResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.Success {
		t.Error("blocked mode must not report success")
	}
	if result.Error == "" {
		t.Error("blocked mode must carry a refusal error")
	}
}

func TestSummarizeStreamEndpoint(t *testing.T) {
	s := newTestServer(t, "streamed summary text here")

	body := `{"text":"a short document to summarize","mode":"plain"}`
	req := httptest.NewRequest("POST", "/v1/summarize/stream", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("expected event-stream content type, got %q", ct)
	}

	var events []string
	scanner := bufio.NewScanner(rec.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "event: ") {
			events = append(events, strings.TrimPrefix(line, "event: "))
		}
	}

	if len(events) == 0 {
		t.Fatal("expected SSE events, got none")
	}
	if events[len(events)-1] != "result" {
		t.Errorf("expected final event to be result, got %q", events[len(events)-1])
	}
	sawFragment := false
	for _, ev := range events {
		if ev == "fragment" {
			sawFragment = true
		}
	}
	if !sawFragment {
		t.Error("expected at least one fragment event")
	}
}

func TestRunsEndpointWithoutStore(t *testing.T) {
	s := newTestServer(t, "ok")

	req := httptest.NewRequest("GET", "/v1/runs", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 when store is disabled, got %d", rec.Code)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	s := newTestServer(t, "ok")
	s.limiter = rate.NewLimiter(rate.Limit(1), 1)

	body := `{"text":"short","mode":"plain"}`

	first := httptest.NewRecorder()
	s.router.ServeHTTP(first, httptest.NewRequest("POST", "/v1/summarize", strings.NewReader(body)))
	if first.Code != http.StatusOK {
		t.Fatalf("first request should pass, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	s.router.ServeHTTP(second, httptest.NewRequest("POST", "/v1/summarize", strings.NewReader(body)))
	if second.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429 after burst exhausted, got %d", second.Code)
	}
}
