package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)

	require.NotNil(t, cfg)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, AIModeLive, cfg.AI.Mode)
	assert.Equal(t, "gemini", cfg.AI.Provider)
	assert.Equal(t, 512, cfg.AI.MaxOutputTokens)
	assert.InDelta(t, 0.1, cfg.AI.Temperature, 1e-9)
	assert.Equal(t, time.Hour, cfg.AI.CacheTTL)
	assert.Equal(t, StorageDriverLocal, cfg.Documents.StorageDriver)
	assert.Equal(t, int64(10*1024*1024), cfg.Documents.MaxFileSizeBytes)
	assert.Contains(t, cfg.Documents.AllowedExtensions, ".pdf")
	assert.Equal(t, 30*time.Second, cfg.OCR.Timeout)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("AI_MODE", " MOCK ")
	v.Set("GEMINI_API_KEY", "gemini-key")
	v.Set("AI_CACHE_TTL", "not-a-duration")
	v.Set("DOCUMENTS_MAX_FILE_SIZE", -1)
	v.Set("ALLOWED_ORIGINS", "http://a.test, ,http://b.test")

	cfg := fromViper(v)

	assert.Equal(t, AIModeMock, cfg.AI.Mode)
	assert.Equal(t, "gemini-key", cfg.AI.APIKey)
	assert.Equal(t, time.Hour, cfg.AI.CacheTTL)
	assert.Equal(t, int64(10*1024*1024), cfg.Documents.MaxFileSizeBytes)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
}

func TestUnknownAIModeFallsBackToLive(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("AI_MODE", "offline")

	assert.Equal(t, AIModeLive, fromViper(v).AI.Mode)
}
