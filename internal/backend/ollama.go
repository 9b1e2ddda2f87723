package backend

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/raaihank/hybrid-summarizer/internal/config"
	"github.com/raaihank/hybrid-summarizer/internal/logger"
	"go.uber.org/zap"
)

// OllamaClient talks to a local ollama server. Generation is assumed to be a
// serialized, resource-constrained capability, so callers drain one stream at
// a time.
type OllamaClient struct {
	baseURL string
	model   string
	http    *http.Client
	logger  *logger.Logger
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// NewOllama creates a client for a local ollama server
func NewOllama(cfg config.BackendConfig, log *logger.Logger) *OllamaClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &OllamaClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		http:    &http.Client{Timeout: timeout},
		logger:  log,
	}
}

func (c *OllamaClient) Name() string { return "ollama" }

// Complete performs one synchronous completion
func (c *OllamaClient) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(ollamaGenerateRequest{Model: c.model, Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama returned HTTP %d", resp.StatusCode)
	}

	var out ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode ollama response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("ollama error: %s", out.Error)
	}

	return out.Response, nil
}

// CompleteStream performs one streaming completion over NDJSON lines
func (c *OllamaClient) CompleteStream(ctx context.Context, prompt string) (<-chan Fragment, error) {
	body, err := json.Marshal(ollamaGenerateRequest{Model: c.model, Prompt: prompt, Stream: true})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("ollama returned HTTP %d", resp.StatusCode)
	}

	fragments := make(chan Fragment)
	go func() {
		defer close(fragments)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}

			var chunk ollamaGenerateResponse
			if err := json.Unmarshal(line, &chunk); err != nil {
				c.sendErr(ctx, fragments, fmt.Errorf("failed to decode stream chunk: %w", err))
				return
			}
			if chunk.Error != "" {
				c.sendErr(ctx, fragments, fmt.Errorf("ollama error: %s", chunk.Error))
				return
			}

			if chunk.Response != "" {
				select {
				case fragments <- Fragment{Text: chunk.Response}:
				case <-ctx.Done():
					return
				}
			}
			if chunk.Done {
				return
			}
		}

		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			c.sendErr(ctx, fragments, fmt.Errorf("ollama stream failed: %w", err))
		}
	}()

	return fragments, nil
}

// Available probes the server's tag listing endpoint
func (c *OllamaClient) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("Ollama availability probe failed", zap.Error(err))
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

func (c *OllamaClient) sendErr(ctx context.Context, fragments chan<- Fragment, err error) {
	select {
	case fragments <- Fragment{Err: err}:
	case <-ctx.Done():
	}
}
