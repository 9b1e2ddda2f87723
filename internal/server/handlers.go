package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/raaihank/hybrid-summarizer/internal/pipeline"
)

// SummarizeRequest is the body of POST /v1/summarize and /v1/summarize/stream
type SummarizeRequest struct {
	Text string `json:"text"`
	Mode string `json:"mode,omitempty"`
}

func (s *Server) parseRequest(r *http.Request) (SummarizeRequest, pipeline.Mode, error) {
	var req SummarizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, pipeline.ModePlain, fmt.Errorf("invalid request body: %w", err)
	}

	name := req.Mode
	if name == "" {
		name = s.config.Pipeline.DefaultMode
	}
	mode, err := pipeline.ParseMode(name)
	if err != nil {
		return req, pipeline.ModePlain, err
	}

	return req, mode, nil
}

// handleSummarize runs one blocking summarization and returns the result as
// JSON. Successful results are served from and stored into the cache.
func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	log := s.logger.WithRequestID(getRequestID(r.Context()))

	req, mode, err := s.parseRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if s.cache != nil {
		if cached, ok := s.cache.Lookup(r.Context(), mode.String(), req.Text); ok {
			log.Debug("Serving cached summary", zap.String("mode", mode.String()))
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	ctx := r.Context()
	if s.config.Pipeline.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Pipeline.CallTimeout)
		defer cancel()
	}

	result := s.summarizer.Summarize(ctx, mode, req.Text)

	if s.cache != nil {
		if err := s.cache.Store(r.Context(), mode.String(), req.Text, result); err != nil {
			log.Warn("Failed to cache summary", zap.Error(err))
		}
	}
	s.recordRun(r.Context(), mode, result)

	status := http.StatusOK
	if !result.Success && result.State == pipeline.StateFailed.String() {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, result)
}

// handleSummarizeStream runs one summarization and streams it as server-sent
// events: "fragment" events as text arrives, "benchmark" events at snapshot
// checkpoints, and one final "result" event.
func (s *Server) handleSummarizeStream(w http.ResponseWriter, r *http.Request) {
	log := s.logger.WithRequestID(getRequestID(r.Context()))

	req, mode, err := s.parseRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// The request context cancels the run when the client disconnects
	stream := s.summarizer.SummarizeStream(r.Context(), mode, req.Text)

	fragments := stream.Fragments()
	snapshots := stream.Snapshots()
	for fragments != nil || snapshots != nil {
		select {
		case fragment, open := <-fragments:
			if !open {
				fragments = nil
				continue
			}
			writeSSE(w, "fragment", map[string]string{"text": fragment})
			flusher.Flush()
		case snapshot, open := <-snapshots:
			if !open {
				snapshots = nil
				continue
			}
			writeSSE(w, "benchmark", snapshot)
			flusher.Flush()
		}
	}

	result := stream.Result()
	writeSSE(w, "result", result)
	flusher.Flush()

	s.recordRun(r.Context(), mode, result)

	log.Info("Streaming summarization finished",
		zap.String("mode", mode.String()),
		zap.String("state", result.State),
		zap.Bool("success", result.Success))
}

// handleRuns lists recent benchmark runs from the store
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.benchStore == nil {
		http.Error(w, "Benchmark store disabled", http.StatusServiceUnavailable)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	runs, err := s.benchStore.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("Failed to list benchmark runs", zap.Error(err))
		http.Error(w, "Failed to list runs", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// handleCacheStats reports summary cache hit/miss counters
func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	if s.cache == nil {
		http.Error(w, "Cache disabled", http.StatusServiceUnavailable)
		return
	}

	stats, err := s.cache.GetStats(r.Context())
	if err != nil {
		s.logger.Error("Failed to get cache stats", zap.Error(err))
		http.Error(w, "Failed to get cache stats", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// handleCacheClear drops all cached summaries
func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	if s.cache == nil {
		http.Error(w, "Cache disabled", http.StatusServiceUnavailable)
		return
	}

	if err := s.cache.Clear(r.Context()); err != nil {
		s.logger.Error("Failed to clear cache", zap.Error(err))
		http.Error(w, "Failed to clear cache", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// recordRun persists the terminal benchmark of a run, when the store is on
func (s *Server) recordRun(ctx context.Context, mode pipeline.Mode, result pipeline.SummarizationResult) {
	if s.benchStore == nil {
		return
	}

	// Recording must survive a cancelled request context
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if _, err := s.benchStore.Record(recordCtx, mode.String(), result.Success, result.Benchmark); err != nil {
		s.logger.Warn("Failed to record benchmark run", zap.Error(err))
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeSSE(w http.ResponseWriter, event string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}
