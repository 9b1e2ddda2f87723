// Package server exposes the summarization pipeline over HTTP: a JSON
// endpoint, a server-sent-events streaming endpoint, and a WebSocket feed of
// pipeline events.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/raaihank/hybrid-summarizer/internal/backend"
	"github.com/raaihank/hybrid-summarizer/internal/benchstore"
	"github.com/raaihank/hybrid-summarizer/internal/cache"
	"github.com/raaihank/hybrid-summarizer/internal/config"
	"github.com/raaihank/hybrid-summarizer/internal/logger"
	"github.com/raaihank/hybrid-summarizer/internal/pipeline"
	"github.com/raaihank/hybrid-summarizer/internal/privacy"
	"github.com/raaihank/hybrid-summarizer/internal/websocket"
)

// Server is the HTTP front of the summarization service
type Server struct {
	config     *config.Config
	logger     *logger.Logger
	summarizer *pipeline.Summarizer
	anonymizer *privacy.Anonymizer
	cache      *cache.SummaryCache
	benchStore *benchstore.Store
	wsHub      *websocket.Hub
	limiter    *rate.Limiter
	router     *mux.Router
	server     *http.Server
}

// New wires the pipeline, optional cache and benchmark store, and the
// WebSocket hub into an HTTP server.
func New(cfg *config.Config, log *logger.Logger) (*Server, error) {
	anonymizer, err := privacy.New(cfg.Privacy, log.WithComponent("privacy"))
	if err != nil {
		return nil, fmt.Errorf("failed to create anonymizer: %w", err)
	}

	local, err := backend.FromConfig(cfg.Backends.Local, log.WithComponent("backend"))
	if err != nil {
		return nil, fmt.Errorf("failed to create local backend: %w", err)
	}
	cloud, err := backend.FromConfig(cfg.Backends.Cloud, log.WithComponent("backend"))
	if err != nil {
		return nil, fmt.Errorf("failed to create cloud backend: %w", err)
	}

	summarizer, err := pipeline.New(local, cloud, anonymizer, cfg.Pipeline, log.WithComponent("pipeline"))
	if err != nil {
		return nil, fmt.Errorf("failed to create summarizer: %w", err)
	}

	wsHub := websocket.NewHub(&cfg.WebSocket, log.WithComponent("websocket").Logger)
	summarizer.SetSink(&hubSink{hub: wsHub})

	s := &Server{
		config:     cfg,
		logger:     log.WithComponent("server"),
		summarizer: summarizer,
		anonymizer: anonymizer,
		wsHub:      wsHub,
		router:     mux.NewRouter(),
	}

	if cfg.Server.RequestsPerSec > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.Server.RequestsPerSec), cfg.Server.RequestBurst)
	}

	if cfg.Cache.Enabled {
		summaryCache, err := cache.New(&cfg.Cache, log.WithComponent("cache").Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create summary cache: %w", err)
		}
		s.cache = summaryCache
	}

	if cfg.BenchStore.Enabled {
		store, err := benchstore.New(&cfg.BenchStore, log.WithComponent("benchstore").Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create benchmark store: %w", err)
		}
		s.benchStore = store
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/info", s.handleInfo).Methods("GET")

	if s.config.WebSocket.Enabled {
		s.router.HandleFunc(s.config.WebSocket.Path, s.wsHub.HandleWebSocket).Methods("GET")
	}

	api := s.router.PathPrefix("/v1").Subrouter()
	api.Use(s.loggingMiddleware)
	api.Use(s.rateLimitMiddleware)
	api.HandleFunc("/summarize", s.handleSummarize).Methods("POST")
	api.HandleFunc("/summarize/stream", s.handleSummarizeStream).Methods("POST")
	api.HandleFunc("/runs", s.handleRuns).Methods("GET")
	api.HandleFunc("/cache/stats", s.handleCacheStats).Methods("GET")
	api.HandleFunc("/cache", s.handleCacheClear).Methods("DELETE")
}

// Start starts the HTTP server and the WebSocket hub
func (s *Server) Start() error {
	s.logger.Info("Starting summarization server",
		zap.Int("port", s.config.Server.Port),
		zap.String("default_mode", s.config.Pipeline.DefaultMode),
		zap.Bool("cache_enabled", s.cache != nil),
		zap.Bool("bench_store_enabled", s.benchStore != nil),
	)

	go s.wsHub.Run()

	return s.server.ListenAndServe()
}

// Stop gracefully stops the HTTP server and closes backing connections
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping summarization server")

	err := s.server.Shutdown(ctx)

	if s.cache != nil {
		if cerr := s.cache.Close(); cerr != nil {
			s.logger.Warn("Failed to close summary cache", zap.Error(cerr))
		}
	}
	if s.benchStore != nil {
		if serr := s.benchStore.Close(); serr != nil {
			s.logger.Warn("Failed to close benchmark store", zap.Error(serr))
		}
	}

	return err
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","timestamp":"%s"}`, time.Now().Format(time.RFC3339))
}

// handleInfo handles info requests
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	detectors := 0
	if s.anonymizer != nil {
		detectors = len(s.anonymizer.EnabledRules())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{
		"name":"hybrid-summarizer",
		"version":"0.1.0",
		"default_mode":"%s",
		"privacy_enabled":%t,
		"detectors_count":%d,
		"chunk_words":%d
	}`, s.config.Pipeline.DefaultMode, s.config.Privacy.Enabled, detectors, s.config.Pipeline.ChunkWords)
}
