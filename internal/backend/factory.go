package backend

import (
	"fmt"

	"github.com/raaihank/hybrid-summarizer/internal/config"
	"github.com/raaihank/hybrid-summarizer/internal/logger"
)

// FromConfig builds a client from configuration, applying the configured rate
// limit when one is set.
func FromConfig(cfg config.BackendConfig, log *logger.Logger) (Client, error) {
	var client Client

	switch cfg.Kind {
	case "ollama":
		client = NewOllama(cfg, log)
	case "openai":
		client = NewOpenAI(cfg, log)
	default:
		return nil, fmt.Errorf("unknown backend kind: %s", cfg.Kind)
	}

	return NewRateLimited(client, cfg.RateLimit, cfg.RateBurst), nil
}
