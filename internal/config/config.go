package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Quote setting ranges offered to callers.
const (
	MinQuoteMinLength = 20
	MaxQuoteMinLength = 100
	MinQuoteMaxLength = 100
	MaxQuoteMaxLength = 500
	MaxQuoteCount     = 10
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Optional LLM narrator for drafts.
	AnthropicAPIKey string
	AnthropicModel  string
	AnthropicURL    string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Quote defaults
	QuoteMinLength    int
	QuoteMaxLength    int
	QuoteCount        int
	QuotePreviewLimit int
	QuoteExcerptRunes int

	// Sentence segmenter: "punkt" or "rules".
	Segmenter string

	// Job state
	JobTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("QUOTEGEST_API_KEY"),

		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  envOr("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),
		AnthropicURL:    os.Getenv("ANTHROPIC_MESSAGES_URL"),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		QuoteMinLength:    envInt("QUOTE_MIN_LENGTH", 50),
		QuoteMaxLength:    envInt("QUOTE_MAX_LENGTH", 300),
		QuoteCount:        envInt("QUOTE_COUNT", 5),
		QuotePreviewLimit: envInt("QUOTE_PREVIEW_LIMIT", 20),
		QuoteExcerptRunes: envInt("QUOTE_EXCERPT_RUNES", 100),

		Segmenter: envOr("SENTENCE_SEGMENTER", "punkt"),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.QuotePreviewLimit <= 0 {
		cfg.QuotePreviewLimit = 20
	}
	if cfg.QuoteExcerptRunes < 0 {
		cfg.QuoteExcerptRunes = 0
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("QUOTEGEST_API_KEY is required")
	}
	if c.QuoteMinLength < MinQuoteMinLength || c.QuoteMinLength > MaxQuoteMinLength {
		return fmt.Errorf("QUOTE_MIN_LENGTH must be between %d and %d, got %d", MinQuoteMinLength, MaxQuoteMinLength, c.QuoteMinLength)
	}
	if c.QuoteMaxLength < MinQuoteMaxLength || c.QuoteMaxLength > MaxQuoteMaxLength {
		return fmt.Errorf("QUOTE_MAX_LENGTH must be between %d and %d, got %d", MinQuoteMaxLength, MaxQuoteMaxLength, c.QuoteMaxLength)
	}
	if c.QuoteCount < 1 || c.QuoteCount > MaxQuoteCount {
		return fmt.Errorf("QUOTE_COUNT must be between 1 and %d, got %d", MaxQuoteCount, c.QuoteCount)
	}
	switch c.Segmenter {
	case "punkt", "rules":
	default:
		return fmt.Errorf("SENTENCE_SEGMENTER must be punkt or rules, got %q", c.Segmenter)
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
