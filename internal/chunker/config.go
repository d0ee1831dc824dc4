package chunker

import (
	"errors"
	"fmt"
)

// Config controls chunking behavior. All sizes are in characters (Unicode code points).
type Config struct {
	MaxChunkSize int // Upper bound for a fragment before overlap is added.
	OverlapSize  int // Trailing context carried into the next fragment.
	MinChunkSize int // Fragments shorter than this are dropped.
}

// DefaultConfig returns sensible defaults: roughly 500 tokens per chunk at
// 4 characters per token, with 10% overlap.
func DefaultConfig() Config {
	return Config{
		MaxChunkSize: 2000,
		OverlapSize:  200,
		MinChunkSize: 50,
	}
}

// ErrInvalidConfig is matched by every *ConfigError.
var ErrInvalidConfig = errors.New("invalid chunking configuration")

// ConfigError reports a Config value that violates its constraints.
// It is not retryable: the caller must fix the configuration.
type ConfigError struct {
	Field  string
	Value  int
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("chunker: %s=%d: %s", e.Field, e.Value, e.Reason)
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// Validate checks the config. It never looks at any text.
func (c Config) Validate() error {
	if c.MaxChunkSize <= 0 {
		return &ConfigError{Field: "max_chunk_size", Value: c.MaxChunkSize, Reason: "must be greater than zero"}
	}
	if c.OverlapSize < 0 {
		return &ConfigError{Field: "overlap_size", Value: c.OverlapSize, Reason: "cannot be negative"}
	}
	if c.OverlapSize >= c.MaxChunkSize {
		return &ConfigError{
			Field:  "overlap_size",
			Value:  c.OverlapSize,
			Reason: fmt.Sprintf("must be smaller than max_chunk_size %d", c.MaxChunkSize),
		}
	}
	if c.MinChunkSize < 0 {
		return &ConfigError{Field: "min_chunk_size", Value: c.MinChunkSize, Reason: "cannot be negative"}
	}
	if c.MinChunkSize >= c.MaxChunkSize {
		return &ConfigError{
			Field:  "min_chunk_size",
			Value:  c.MinChunkSize,
			Reason: fmt.Sprintf("must be smaller than max_chunk_size %d", c.MaxChunkSize),
		}
	}
	return nil
}
