package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	ImageFetchTimeout  time.Duration
	RecognitionTimeout time.Duration
	MaxRequestBodySize int64

	// Recognition defaults
	RecognitionMode string
	OCRLanguage     string
	MaxWorkers      int

	// Filesystem layout
	UploadDir string
	TempDir   string

	// Append-only diagnostic log for offline threshold tuning.
	// Empty disables the file log without changing results.
	DebugLogPath string

	// Optional Azure blob image source
	AzureAccountName string
	AzureAccountKey  string
}

func (c *Config) ServerAddress() string {
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// AzureEnabled reports whether blob-addressed receipt images can be fetched.
func (c *Config) AzureEnabled() bool {
	return c.AzureAccountName != "" && c.AzureAccountKey != ""
}

func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 60*time.Second),
		ImageFetchTimeout:  parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", 15*time.Second),
		RecognitionTimeout: parseDurationOrDefault("RECOGNITION_TIMEOUT", 45*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 10*1024*1024), // 10MB
		RecognitionMode:    getEnvOrDefault("RECOGNITION_MODE", "medium"),
		OCRLanguage:        getEnvOrDefault("OCR_LANGUAGE", "eng"),
		MaxWorkers:         int(parseIntOrDefault("MAX_WORKERS", int64(runtime.NumCPU()))),
		UploadDir:          getEnvOrDefault("UPLOAD_DIR", "uploads"),
		TempDir:            getEnvOrDefault("TEMP_DIR", filepath.Join(os.TempDir(), "receipt-recognizer")),
		DebugLogPath:       os.Getenv("OCR_DEBUG_LOG"),
		AzureAccountName:   os.Getenv("AZURE_ACCOUNT_NAME"),
		AzureAccountKey:    os.Getenv("AZURE_ACCOUNT_KEY"),
	}

	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	if cfg.MaxRequestBodySize <= 0 {
		return nil, fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", cfg.MaxRequestBodySize)
	}
	if cfg.RequestTimeout <= 0 || cfg.ImageFetchTimeout <= 0 || cfg.RecognitionTimeout <= 0 {
		return nil, fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s, recognition=%s)",
			cfg.RequestTimeout, cfg.ImageFetchTimeout, cfg.RecognitionTimeout)
	}
	switch cfg.RecognitionMode {
	case "low", "medium", "high":
	default:
		return nil, fmt.Errorf("invalid RECOGNITION_MODE: %q (want low, medium or high)", cfg.RecognitionMode)
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = runtime.NumCPU()
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
