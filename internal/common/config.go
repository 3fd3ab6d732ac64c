package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	Acquire AcquireConfig
	OCR     OCRConfig
	Batch   BatchConfig
}

// ServerConfig holds the HTTP daemon configuration
type ServerConfig struct {
	HTTPAddr        string
	MaxBodyBytes    int64
	ShutdownTimeout time.Duration
}

// AcquireConfig holds acquisition-side configuration
type AcquireConfig struct {
	Pdftotext  string
	Pdftoppm   string
	DPI        int
	MaxPages   int
	MinTextLen int
}

// OCRConfig holds recognition-engine configuration
type OCRConfig struct {
	Tesseract        string
	Lang             string
	TessdataDir      string
	PoolSize         int
	QualityThreshold float64
}

// BatchConfig holds the batch processor configuration
type BatchConfig struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
			MaxBodyBytes:    getEnvAsInt64("HTTP_MAX_BODY_BYTES", 32<<20),
			ShutdownTimeout: getEnvAsDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Acquire: AcquireConfig{
			Pdftotext:  getEnv("PDFTOTEXT_BIN", "pdftotext"),
			Pdftoppm:   getEnv("PDFTOPPM_BIN", "pdftoppm"),
			DPI:        getEnvAsInt("OCR_DPI", 300),
			MaxPages:   getEnvAsInt("OCR_MAX_PAGES", 20),
			MinTextLen: getEnvAsInt("PDF_MIN_TEXT_LEN", 32),
		},
		OCR: OCRConfig{
			Tesseract:        getEnv("TESSERACT_BIN", "tesseract"),
			Lang:             getEnv("TESSERACT_LANG", "fra+eng"),
			TessdataDir:      getEnv("TESSDATA_PREFIX", ""),
			PoolSize:         getEnvAsInt("OCR_POOL_SIZE", 2),
			QualityThreshold: getEnvAsFloat64("OCR_QUALITY_THRESHOLD", 0.70),
		},
		Batch: BatchConfig{
			Workers:   getEnvAsInt("BATCH_WORKERS", 4),
			QueueSize: getEnvAsInt("BATCH_QUEUE_SIZE", 256),
			Timeout:   getEnvAsDuration("BATCH_TIMEOUT", 3*time.Minute),
		},
	}
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

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.OCR.PoolSize <= 0 {
		return NewAppError("CONFIG_ERROR", "OCR_POOL_SIZE must be positive", ErrInvalidInput)
	}
	if c.OCR.QualityThreshold <= 0 || c.OCR.QualityThreshold > 1 {
		return NewAppError("CONFIG_ERROR", "OCR_QUALITY_THRESHOLD must be in (0,1]", ErrInvalidInput)
	}
	if c.Batch.Workers <= 0 {
		return NewAppError("CONFIG_ERROR", "BATCH_WORKERS must be positive", ErrInvalidInput)
	}
	return nil
}
