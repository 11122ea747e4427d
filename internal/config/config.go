package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server
	Port           string
	AllowedOrigins string
	Environment    string

	// Engine selection: "paddle" (remote model runtime) or "tesseract"
	OCREngine string

	// Remote model runtime
	InferURL     string
	InferToken   string
	InferTimeout time.Duration

	// Generation and preprocessing limits
	DefaultMaxTokens int
	MaxTokensLimit   int
	DefaultResizeMax int
	MaxUploadBytes   int64

	// Local engine pool
	OCRPoolSize int

	// Service auth
	AuthRequired bool
	JWTSecret    string

	// Extraction history
	DatabaseURL string
	Retention   time.Duration

	// S3/MinIO archive
	S3Enabled   bool
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3UseSSL    bool
	S3Region    string
}

func Load() *Config {
	return &Config{
		Port:             getEnv("PORT", "8080"),
		AllowedOrigins:   getEnv("ALLOWED_ORIGINS", "*"),
		Environment:      getEnv("ENVIRONMENT", "development"),
		OCREngine:        getEnv("OCR_ENGINE", "paddle"),
		InferURL:         getEnv("INFER_URL", "http://localhost:9100"),
		InferToken:       getEnv("INFER_TOKEN", ""),
		InferTimeout:     getDurationEnv("INFER_TIMEOUT_SECONDS", 120) * time.Second,
		DefaultMaxTokens: getIntEnv("DEFAULT_MAX_TOKENS", 512),
		MaxTokensLimit:   getIntEnv("MAX_TOKENS_LIMIT", 4096),
		DefaultResizeMax: getIntEnv("DEFAULT_RESIZE_MAX", 1200),
		MaxUploadBytes:   int64(getIntEnv("MAX_UPLOAD_MB", 10)) * 1024 * 1024,
		OCRPoolSize:      getIntEnv("OCR_POOL_SIZE", 4),
		AuthRequired:     getBoolEnv("AUTH_REQUIRED", false),
		JWTSecret:        getEnv("JWT_SECRET", "change-me-in-production-please"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		Retention:        getDurationEnv("RETENTION_HOURS", 168) * time.Hour,
		S3Enabled:        getBoolEnv("S3_ENABLED", false),
		S3Endpoint:       getEnv("S3_ENDPOINT", "localhost:9000"),
		S3AccessKey:      getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:      getEnv("S3_SECRET_KEY", ""),
		S3Bucket:         getEnv("S3_BUCKET", "extractions"),
		S3UseSSL:         getBoolEnv("S3_USE_SSL", false),
		S3Region:         getEnv("S3_REGION", "us-east-1"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int) time.Duration {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return time.Duration(intVal)
		}
	}
	return time.Duration(defaultValue)
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// ArchiveConfigured reports whether the S3 archive can be initialized
func (c *Config) ArchiveConfigured() bool {
	return c.S3Enabled && c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}
