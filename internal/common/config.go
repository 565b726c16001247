package common

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/lab-report-tracker/constants"
)

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	Upload     UploadConfig
	Extraction ExtractionConfig
	Archive    ArchiveConfig
	Worker     WorkerConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// UploadConfig holds upload acceptance configuration
type UploadConfig struct {
	Dir     string
	MaxSize int64
}

// ExtractionConfig holds the vision extraction service configuration
type ExtractionConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// ArchiveConfig holds the document archive service configuration.
// Archival is disabled when BaseURL is empty.
type ArchiveConfig struct {
	BaseURL         string
	APIToken        string
	Timeout         time.Duration
	CorrespondentID int
	DocumentTypeID  int
	TagIDs          []int
}

// WorkerConfig holds the background worker pool configuration
type WorkerConfig struct {
	Workers        int
	QueueSize      int
	ProcessTimeout time.Duration
	MaxRetries     int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:             getEnv("DB_URL", ""),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Server: ServerConfig{
			Addr:         getEnv("HTTP_ADDR", ":8080"),
			ReadTimeout:  getEnvAsDuration("HTTP_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvAsDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getEnvAsDuration("HTTP_IDLE_TIMEOUT", time.Minute),
		},
		Upload: UploadConfig{
			Dir:     getEnv("UPLOAD_DIR", "uploads"),
			MaxSize: getEnvAsInt64("UPLOAD_MAX_SIZE", constants.MaxUploadSizeDefault),
		},
		Extraction: ExtractionConfig{
			BaseURL:     getEnv("EXTRACTION_BASE_URL", "https://api.openai.com/v1"),
			APIKey:      getEnv("EXTRACTION_API_KEY", ""),
			Model:       getEnv("EXTRACTION_MODEL", "gpt-4o-mini"),
			Temperature: getEnvAsFloat32("EXTRACTION_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("EXTRACTION_TIMEOUT", 45*time.Second),
		},
		Archive: ArchiveConfig{
			BaseURL:         getEnv("ARCHIVE_BASE_URL", ""),
			APIToken:        getEnv("ARCHIVE_API_TOKEN", ""),
			Timeout:         getEnvAsDuration("ARCHIVE_TIMEOUT", 30*time.Second),
			CorrespondentID: getEnvAsInt("ARCHIVE_CORRESPONDENT_ID", 0),
			DocumentTypeID:  getEnvAsInt("ARCHIVE_DOCUMENT_TYPE_ID", 0),
			TagIDs:          getEnvAsIntSlice("ARCHIVE_TAG_IDS", nil),
		},
		Worker: WorkerConfig{
			Workers:        getEnvAsInt("WORKER_COUNT", 4),
			QueueSize:      getEnvAsInt("WORKER_QUEUE_SIZE", 256),
			ProcessTimeout: getEnvAsDuration("WORKER_PROCESS_TIMEOUT", 3*time.Minute),
			MaxRetries:     getEnvAsInt("WORKER_MAX_RETRIES", 3),
		},
	}
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return Validation("CONFIG_ERROR", "DB_URL is required")
	}
	if c.Extraction.APIKey == "" {
		return Validation("CONFIG_ERROR", "EXTRACTION_API_KEY is required")
	}
	if c.Archive.BaseURL != "" && c.Archive.APIToken == "" {
		return Validation("CONFIG_ERROR", "ARCHIVE_API_TOKEN is required when ARCHIVE_BASE_URL is set")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsIntSlice(key string, defaultValue []int) []int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []int
	for _, part := range strings.Split(value, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return defaultValue
		}
		out = append(out, n)
	}
	return out
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
