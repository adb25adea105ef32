package common

import (
	"os"
	"strconv"
	"time"

	"github.com/invoicegate/invoice-gate/internal/money"
)

// Config holds all application configuration
type Config struct {
	Database  DatabaseConfig
	OCR       OCRConfig
	LLM       LLMConfig
	Tolerance ToleranceConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Path string // sqlite file path
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Pdftotext     string
	Pdftoppm      string
	Tesseract     string
	TesseractLang string
	DPI           int
	MaxPages      int
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// ToleranceConfig holds the comparison tolerance policy. Defaults follow the
// standard regimes; deployments override per environment.
type ToleranceConfig struct {
	ItemRel  float64
	ItemAbs  float64
	TotalRel float64
	TotalAbs float64
}

// Item returns the configured line-item tolerance regime.
func (t ToleranceConfig) Item() money.Tolerance {
	return money.Tolerance{Rel: t.ItemRel, Abs: t.ItemAbs}
}

// Total returns the configured document-total tolerance regime.
func (t ToleranceConfig) Total() money.Tolerance {
	return money.Tolerance{Rel: t.TotalRel, Abs: t.TotalAbs}
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	itemTol := money.ItemTolerance()
	totalTol := money.TotalTolerance()

	return &Config{
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/invoice-gate.db"),
		},
		OCR: OCRConfig{
			Pdftotext:     getEnv("PDFTOTEXT_BIN", "pdftotext"),
			Pdftoppm:      getEnv("PDFTOPPM_BIN", "pdftoppm"),
			Tesseract:     getEnv("TESSERACT_BIN", "tesseract"),
			TesseractLang: getEnv("TESSERACT_LANG", "eng"),
			DPI:           getEnvAsInt("OCR_DPI", 300),
			MaxPages:      getEnvAsInt("OCR_MAX_PAGES", 5),
		},
		LLM: LLMConfig{
			APIKey:      getEnv("MISTRAL_API_KEY", ""),
			BaseURL:     getEnv("MISTRAL_BASE_URL", "https://api.mistral.ai/v1"),
			Model:       getEnv("MISTRAL_MODEL", "mistral-large-latest"),
			Temperature: getEnvAsFloat32("MISTRAL_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("MISTRAL_TIMEOUT", 120*time.Second),
		},
		Tolerance: ToleranceConfig{
			ItemRel:  getEnvAsFloat64("TOLERANCE_ITEM_REL", itemTol.Rel),
			ItemAbs:  getEnvAsFloat64("TOLERANCE_ITEM_ABS", itemTol.Abs),
			TotalRel: getEnvAsFloat64("TOLERANCE_TOTAL_REL", totalTol.Rel),
			TotalAbs: getEnvAsFloat64("TOLERANCE_TOTAL_ABS", totalTol.Abs),
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

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
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
