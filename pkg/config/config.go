package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// AI operating modes.
const (
	AIModeMock = "mock"
	AIModeLive = "live"
)

// Document storage drivers.
const (
	StorageDriverLocal = "local"
	StorageDriverS3    = "s3"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	AI        AIConfig
	Documents DocumentsConfig
	OCR       OCRConfig
	Jobs      JobsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Issuer     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// AIConfig selects the model gateway mode and backend.
type AIConfig struct {
	Mode            string
	Provider        string
	Model           string
	APIKey          string
	BaseURL         string
	Temperature     float64
	MaxOutputTokens int
	CacheSize       int
	CacheTTL        time.Duration
	SharedCache     bool
	SharedCacheTTL  time.Duration
}

// DocumentsConfig controls upload validation, storage and processing.
type DocumentsConfig struct {
	StorageDriver     string
	StorageDir        string
	S3Bucket          string
	S3Region          string
	S3Prefix          string
	MaxFileSizeBytes  int64
	AllowedExtensions []string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	AsyncProcessing   bool
}

// OCRConfig configures the tesseract invocation used for image documents.
type OCRConfig struct {
	Binary   string
	Language string
	Timeout  time.Duration
}

// JobsConfig tunes the background document processing pool.
type JobsConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Issuer:     v.GetString("JWT_ISSUER"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 30*time.Minute),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	mode := strings.ToLower(strings.TrimSpace(v.GetString("AI_MODE")))
	if mode != AIModeMock {
		mode = AIModeLive
	}
	cfg.AI = AIConfig{
		Mode:            mode,
		Provider:        strings.ToLower(v.GetString("AI_PROVIDER")),
		Model:           v.GetString("AI_MODEL"),
		APIKey:          firstNonEmpty(v.GetString("AI_API_KEY"), v.GetString("GEMINI_API_KEY")),
		BaseURL:         v.GetString("AI_BASE_URL"),
		Temperature:     v.GetFloat64("AI_TEMPERATURE"),
		MaxOutputTokens: v.GetInt("AI_MAX_OUTPUT_TOKENS"),
		CacheSize:       v.GetInt("AI_CACHE_SIZE"),
		CacheTTL:        parseDuration(v.GetString("AI_CACHE_TTL"), time.Hour),
		SharedCache:     v.GetBool("AI_SHARED_CACHE"),
		SharedCacheTTL:  parseDuration(v.GetString("AI_SHARED_CACHE_TTL"), 24*time.Hour),
	}

	maxSize := v.GetInt64("DOCUMENTS_MAX_FILE_SIZE")
	if maxSize <= 0 {
		maxSize = 10 * 1024 * 1024
	}
	cfg.Documents = DocumentsConfig{
		StorageDriver:     strings.ToLower(v.GetString("DOCUMENTS_STORAGE_DRIVER")),
		StorageDir:        v.GetString("DOCUMENTS_STORAGE_DIR"),
		S3Bucket:          v.GetString("DOCUMENTS_S3_BUCKET"),
		S3Region:          v.GetString("DOCUMENTS_S3_REGION"),
		S3Prefix:          v.GetString("DOCUMENTS_S3_PREFIX"),
		MaxFileSizeBytes:  maxSize,
		AllowedExtensions: splitAndTrim(v.GetString("DOCUMENTS_ALLOWED_EXTENSIONS")),
		SignedURLSecret:   v.GetString("DOCUMENTS_SIGNED_URL_SECRET"),
		SignedURLTTL:      parseDuration(v.GetString("DOCUMENTS_SIGNED_URL_TTL"), 15*time.Minute),
		AsyncProcessing:   v.GetBool("DOCUMENTS_ASYNC_PROCESSING"),
	}

	cfg.OCR = OCRConfig{
		Binary:   v.GetString("OCR_TESSERACT_BINARY"),
		Language: v.GetString("OCR_LANGUAGE"),
		Timeout:  parseDuration(v.GetString("OCR_TIMEOUT"), 30*time.Second),
	}

	cfg.Jobs = JobsConfig{
		Workers:    v.GetInt("JOBS_WORKERS"),
		BufferSize: v.GetInt("JOBS_BUFFER_SIZE"),
		MaxRetries: v.GetInt("JOBS_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("JOBS_RETRY_DELAY"), 2*time.Second),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "hr_onboarding")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "hr-onboarding-api")
	v.SetDefault("JWT_EXPIRATION", "30m")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("AI_MODE", AIModeLive)
	v.SetDefault("AI_PROVIDER", "gemini")
	v.SetDefault("AI_MODEL", "gemini-1.5-flash-latest")
	v.SetDefault("AI_API_KEY", "")
	v.SetDefault("AI_BASE_URL", "")
	v.SetDefault("AI_TEMPERATURE", 0.1)
	v.SetDefault("AI_MAX_OUTPUT_TOKENS", 512)
	v.SetDefault("AI_CACHE_SIZE", 256)
	v.SetDefault("AI_CACHE_TTL", "1h")
	v.SetDefault("AI_SHARED_CACHE", false)
	v.SetDefault("AI_SHARED_CACHE_TTL", "24h")

	v.SetDefault("DOCUMENTS_STORAGE_DRIVER", StorageDriverLocal)
	v.SetDefault("DOCUMENTS_STORAGE_DIR", "./uploads/documents")
	v.SetDefault("DOCUMENTS_S3_BUCKET", "")
	v.SetDefault("DOCUMENTS_S3_REGION", "")
	v.SetDefault("DOCUMENTS_S3_PREFIX", "documents")
	v.SetDefault("DOCUMENTS_MAX_FILE_SIZE", 10*1024*1024)
	v.SetDefault("DOCUMENTS_ALLOWED_EXTENSIONS", ".pdf,.jpg,.jpeg,.png,.bmp,.gif,.txt,.text,.doc,.docx")
	v.SetDefault("DOCUMENTS_SIGNED_URL_SECRET", "dev_documents_secret")
	v.SetDefault("DOCUMENTS_SIGNED_URL_TTL", "15m")
	v.SetDefault("DOCUMENTS_ASYNC_PROCESSING", false)

	v.SetDefault("OCR_TESSERACT_BINARY", "tesseract")
	v.SetDefault("OCR_LANGUAGE", "eng")
	v.SetDefault("OCR_TIMEOUT", "30s")

	v.SetDefault("JOBS_WORKERS", 2)
	v.SetDefault("JOBS_BUFFER_SIZE", 32)
	v.SetDefault("JOBS_MAX_RETRIES", 2)
	v.SetDefault("JOBS_RETRY_DELAY", "2s")
}

func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
