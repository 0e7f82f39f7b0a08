// Package llm is the model gateway: one entry point that asks an external
// language model for structured JSON, with response caching and a
// deterministic mock used both as a mode and as the failure fallback.
package llm

import "time"

// Gateway modes.
const (
	ModeMock = "mock"
	ModeLive = "live"
)

// Supported live backends.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderClaude = "claude"
)

// Defaults applied by NewGateway.
const (
	DefaultTemperature     = 0.1
	DefaultMaxOutputTokens = 512
	DefaultCacheSize       = 256
	DefaultCacheTTL        = time.Hour
)

// Config is fixed at construction; nothing is read from the environment per call.
type Config struct {
	Mode            string
	Provider        string
	Model           string
	APIKey          string
	BaseURL         string
	Temperature     float64
	MaxOutputTokens int
	CacheSize       int
	CacheTTL        time.Duration
	SharedCacheTTL  time.Duration
}

func (c Config) withDefaults() Config {
	if c.Mode != ModeMock {
		c.Mode = ModeLive
	}
	if c.Temperature <= 0 {
		c.Temperature = DefaultTemperature
	}
	if c.MaxOutputTokens <= 0 {
		c.MaxOutputTokens = DefaultMaxOutputTokens
	}
	if c.CacheSize <= 0 {
		c.CacheSize = DefaultCacheSize
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = DefaultCacheTTL
	}
	if c.SharedCacheTTL <= 0 {
		c.SharedCacheTTL = 24 * time.Hour
	}
	return c
}
