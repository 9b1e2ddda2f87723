package cache

import (
	"time"

	"github.com/raaihank/hybrid-summarizer/internal/pipeline"
)

// Entry is a cached summarization result. Entries are TTL-bounded; the cache
// is a lookaside accelerator, not durable storage.
type Entry struct {
	Result   pipeline.SummarizationResult `json:"result"`
	Mode     string                       `json:"mode"`
	CachedAt time.Time                    `json:"cached_at"`
	TTL      int64                        `json:"ttl"`
}

// Stats represents cache performance statistics
type Stats struct {
	Hits        int64   `json:"hits"`
	Misses      int64   `json:"misses"`
	HitRate     float64 `json:"hit_rate"`
	TotalKeys   int64   `json:"total_keys"`
	MemoryUsage int64   `json:"memory_usage_bytes"`
}
