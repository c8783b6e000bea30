package config

import (
	"fmt"
	"net"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	ImageFetchTimeout  time.Duration
	AnalysisTimeout    time.Duration
	MaxRequestBodySize int64
	AllowedOrigins     []string
	GinMode            string

	// Card number assembly
	ClusterThreshold float64

	// OCR collaborator
	OCRLanguage       string
	OCRWorkers        int
	OCRTessdataPrefix string

	// Image normalization
	PreprocessMaxDimension int

	// URL image source restrictions; empty hosts means any public host
	AllowedImageHosts      []string
	BlockPrivateImageHosts bool

	// Optional Azure blob image source
	AzureStorageAccount string
	AzureStorageKey     string

	// Optional prediction audit store
	MongoURI    string
	MongoDBName string
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// AzureEnabled reports whether blob credentials are configured
func (c *Config) AzureEnabled() bool {
	return c.AzureStorageAccount != "" && c.AzureStorageKey != ""
}

// MongoEnabled reports whether the audit store is configured
func (c *Config) MongoEnabled() bool {
	return c.MongoURI != ""
}

// LoadFromEnv reads a .env file when present and then the process environment
func LoadFromEnv() (*Config, error) {
	// A missing .env file is fine; real deployments use the environment
	_ = godotenv.Load()
	return Load()
}

// Load builds the configuration from the process environment only
func Load() (*Config, error) {
	// Set defaults
	cfg := &Config{
		Host:                   getEnvOrDefault("HOST", "0.0.0.0"),
		Port:                   getEnvOrDefault("PORT", "8080"),
		RequestTimeout:         parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		ImageFetchTimeout:      parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", 15*time.Second),
		AnalysisTimeout:        parseDurationOrDefault("ANALYSIS_TIMEOUT", 20*time.Second),
		MaxRequestBodySize:     parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 10*1024*1024), // 10MB
		AllowedOrigins:         parseListOrDefault("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		GinMode:                getEnvOrDefault("GIN_MODE", "debug"),
		ClusterThreshold:       parseFloatOrDefault("CLUSTER_THRESHOLD", 10),
		OCRLanguage:            getEnvOrDefault("OCR_LANGUAGE", "eng"),
		OCRWorkers:             int(parseIntOrDefault("OCR_WORKERS", int64(runtime.NumCPU()))),
		OCRTessdataPrefix:      os.Getenv("OCR_TESSDATA_PREFIX"),
		PreprocessMaxDimension: int(parseIntOrDefault("PREPROCESS_MAX_DIMENSION", 2000)),
		AllowedImageHosts:      parseListOrDefault("ALLOWED_IMAGE_HOSTS", nil),
		BlockPrivateImageHosts: parseBoolOrDefault("BLOCK_PRIVATE_IMAGE_HOSTS", true),
		AzureStorageAccount:    os.Getenv("AZURE_STORAGE_ACCOUNT"),
		AzureStorageKey:        os.Getenv("AZURE_STORAGE_KEY"),
		MongoURI:               os.Getenv("MONGO_URI"),
		MongoDBName:            getEnvOrDefault("MONGO_DB_NAME", "card_reader"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges that would otherwise fail at request time
func (c *Config) Validate() error {
	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.RequestTimeout <= 0 || c.ImageFetchTimeout <= 0 || c.AnalysisTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s, analysis=%s)",
			c.RequestTimeout, c.ImageFetchTimeout, c.AnalysisTimeout)
	}
	if !(c.ClusterThreshold > 0) {
		return fmt.Errorf("CLUSTER_THRESHOLD must be > 0 (got %v)", c.ClusterThreshold)
	}
	if c.OCRWorkers < 0 {
		return fmt.Errorf("OCR_WORKERS must be >= 0 (got %d)", c.OCRWorkers)
	}
	if c.PreprocessMaxDimension < 0 {
		return fmt.Errorf("PREPROCESS_MAX_DIMENSION must be >= 0 (got %d)", c.PreprocessMaxDimension)
	}
	if (c.AzureStorageAccount == "") != (c.AzureStorageKey == "") {
		return fmt.Errorf("AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY must be set together")
	}
	return nil
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

// The threshold is not silently defaulted on a parse error; a typo must not
// turn into a different clustering tolerance.
func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return 0
		}
		return f
	}
	return defaultValue
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

func parseListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
