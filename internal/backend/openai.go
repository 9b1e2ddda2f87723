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

// OpenAIClient talks to an openai-compatible chat completions API. This is
// the untrusted "cloud" side of the hybrid pipeline: callers are expected to
// anonymize identifiable text before it reaches this client.
type OpenAIClient struct {
	baseURL string
	model   string
	apiKey  string
	http    *http.Client
	logger  *logger.Logger
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type chatCompletionChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

// NewOpenAI creates a client for an openai-compatible API
func NewOpenAI(cfg config.BackendConfig, log *logger.Logger) *OpenAIClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &OpenAIClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
		logger:  log,
	}
}

func (c *OpenAIClient) Name() string { return "openai" }

// Complete performs one synchronous completion
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.post(ctx, chatCompletionRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("cloud backend returned HTTP %d", resp.StatusCode)
	}

	var out chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("cloud backend error: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("cloud backend returned no choices")
	}

	return out.Choices[0].Message.Content, nil
}

// CompleteStream performs one streaming completion over server-sent events
func (c *OpenAIClient) CompleteStream(ctx context.Context, prompt string) (<-chan Fragment, error) {
	resp, err := c.post(ctx, chatCompletionRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
		Stream:   true,
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("cloud backend returned HTTP %d", resp.StatusCode)
	}

	fragments := make(chan Fragment)
	go func() {
		defer close(fragments)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if !strings.HasPrefix(line, "data:") {
				continue
			}

			payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if payload == "[DONE]" {
				return
			}

			var chunk chatCompletionChunk
			if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
				c.sendErr(ctx, fragments, fmt.Errorf("failed to decode stream event: %w", err))
				return
			}
			if len(chunk.Choices) == 0 {
				continue
			}

			if delta := chunk.Choices[0].Delta.Content; delta != "" {
				select {
				case fragments <- Fragment{Text: delta}:
				case <-ctx.Done():
					return
				}
			}
			if chunk.Choices[0].FinishReason != nil {
				return
			}
		}

		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			c.sendErr(ctx, fragments, fmt.Errorf("cloud stream failed: %w", err))
		}
	}()

	return fragments, nil
}

// Available probes the model listing endpoint
func (c *OpenAIClient) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/models", nil)
	if err != nil {
		return false
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("Cloud availability probe failed", zap.Error(err))
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

func (c *OpenAIClient) post(ctx context.Context, payload chatCompletionRequest) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cloud request failed: %w", err)
	}
	return resp, nil
}

func (c *OpenAIClient) sendErr(ctx context.Context, fragments chan<- Fragment, err error) {
	select {
	case fragments <- Fragment{Err: err}:
	case <-ctx.Done():
	}
}
