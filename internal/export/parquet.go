// Package export writes benchmark run records to parquet files for offline
// comparison of mode performance curves.
package export

import (
	"fmt"
	"os"

	"github.com/segmentio/parquet-go"
	"go.uber.org/zap"

	"github.com/raaihank/hybrid-summarizer/internal/bench"
)

// Record is one exported benchmark row
type Record struct {
	Mode         string  `parquet:"mode" json:"mode"`
	Success      bool    `parquet:"success" json:"success"`
	InputWords   int32   `parquet:"input_words" json:"input_words"`
	OutputWords  int32   `parquet:"output_words" json:"output_words"`
	TotalMs      float64 `parquet:"total_ms" json:"total_ms"`
	FirstTokenMs float64 `parquet:"first_token_ms" json:"first_token_ms"`
	TokensPerSec float64 `parquet:"tokens_per_sec" json:"tokens_per_sec"`
	MemoryDelta  int64   `parquet:"memory_delta" json:"memory_delta"`
}

// FromSnapshot converts a benchmark snapshot into an export record
func FromSnapshot(mode string, success bool, snapshot bench.Snapshot) Record {
	return Record{
		Mode:         mode,
		Success:      success,
		InputWords:   int32(snapshot.InputWordCount),
		OutputWords:  int32(snapshot.OutputWordCount),
		TotalMs:      snapshot.TotalTimeMs,
		FirstTokenMs: snapshot.FirstTokenLatencyMs,
		TokensPerSec: snapshot.TokensPerSecond,
		MemoryDelta:  snapshot.MemoryDeltaBytes,
	}
}

// WriteFile writes records to a parquet file at path
func WriteFile(path string, records []Record, logger *zap.Logger) error {
	if len(records) == 0 {
		return fmt.Errorf("no records to export")
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[Record](file)
	if _, err := writer.Write(records); err != nil {
		return fmt.Errorf("failed to write parquet records: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}

	logger.Info("Benchmark runs exported",
		zap.String("path", path),
		zap.Int("records", len(records)))

	return nil
}

// ReadFile reads previously exported records back, mainly for verification
func ReadFile(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open export file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat export file: %w", err)
	}

	reader := parquet.NewGenericReader[Record](file, parquet.SchemaOf(Record{}))
	defer reader.Close()

	records := make([]Record, 0, info.Size()/64)
	buf := make([]Record, 64)
	for {
		n, err := reader.Read(buf)
		records = append(records, buf[:n]...)
		if err != nil {
			break
		}
	}

	return records, nil
}
