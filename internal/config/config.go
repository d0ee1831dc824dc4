package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/dgallion1/docchunk/internal/chunker"
	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	// Pathstore connection
	PathstoreURL    string
	PathstoreAPIKey string

	// Auth
	DocchunkAPIKey string

	// Worker pool
	WorkerCount        int
	MaxQueueSize       int
	MaxConcurrentStore int

	// Upload limits
	MaxUploadBytes int64

	// Chunking defaults, overridable per job
	ChunkMaxSize int
	ChunkOverlap int
	ChunkMinSize int

	// Job state
	JobTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool
}

// LoadDotEnv copies variables from an env file into the process environment.
// Variables already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func Load() Config {
	defaults := chunker.DefaultConfig()

	cfg := Config{
		Port: envOr("PORT", "8091"),

		PathstoreURL:    envOr("PATHSTORE_URL", "http://localhost:8080"),
		PathstoreAPIKey: os.Getenv("PATHSTORE_API_KEY"),

		DocchunkAPIKey: os.Getenv("DOCCHUNK_API_KEY"),

		WorkerCount:        envInt("WORKER_COUNT", 4),
		MaxQueueSize:       envInt("MAX_QUEUE_SIZE", 100),
		MaxConcurrentStore: envInt("MAX_CONCURRENT_STORE", 10),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		ChunkMaxSize: envInt("CHUNK_MAX_SIZE", defaults.MaxChunkSize),
		ChunkOverlap: envInt("CHUNK_OVERLAP", defaults.OverlapSize),
		ChunkMinSize: envInt("CHUNK_MIN_SIZE", defaults.MinChunkSize),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxConcurrentStore <= 0 {
		cfg.MaxConcurrentStore = 10
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

// ChunkConfig returns the service-wide chunking defaults.
func (c Config) ChunkConfig() chunker.Config {
	return chunker.Config{
		MaxChunkSize: c.ChunkMaxSize,
		OverlapSize:  c.ChunkOverlap,
		MinChunkSize: c.ChunkMinSize,
	}
}

func (c Config) Validate() error {
	if c.PathstoreAPIKey == "" {
		return fmt.Errorf("PATHSTORE_API_KEY is required")
	}
	if c.DocchunkAPIKey == "" {
		return fmt.Errorf("DOCCHUNK_API_KEY is required")
	}
	if err := c.ChunkConfig().Validate(); err != nil {
		return fmt.Errorf("chunk settings: %w", err)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
