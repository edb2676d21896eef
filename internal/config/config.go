package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Perplexity completion endpoint
	PerplexityAPIKey  string
	PerplexityBaseURL string
	PerplexityModel   string
	Temperature       float64
	MaxTokens         int
	RequestTimeout    time.Duration

	// Conversation
	HistoryLimit int

	// Transcript database
	SQLiteDBPath string

	// Snapshot source selection
	SnapshotSource string
	SnapshotPath   string

	// Google Sheets snapshot source
	GoogleSpreadsheetID    string
	GoogleSummarySheet     string
	GoogleIncomeSheet      string
	GoogleAssetsSheet      string
	GoogleCashFlowsSheet   string
	GoogleProjectionsSheet string

	// AMQP transcript events (disabled when URL is empty)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

func Load() *Config {
	cfg := &Config{
		PerplexityAPIKey:  getEnv("PERPLEXITY_API_KEY", ""),
		PerplexityBaseURL: getEnv("PERPLEXITY_BASE_URL", "https://api.perplexity.ai/chat/completions"),
		PerplexityModel:   getEnv("PERPLEXITY_MODEL", "sonar"),
		Temperature:       getEnvFloat("PERPLEXITY_TEMPERATURE", 0.7),
		MaxTokens:         getEnvInt("PERPLEXITY_MAX_TOKENS", 1000),
		RequestTimeout:    getEnvDuration("PERPLEXITY_TIMEOUT", 120*time.Second),

		HistoryLimit: getEnvInt("HISTORY_LIMIT", 20),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/finchat.db"),

		SnapshotSource: getEnv("SNAPSHOT_SOURCE", "json"),
		SnapshotPath:   getEnv("SNAPSHOT_PATH", "./data/snapshot.json"),

		GoogleSpreadsheetID:    getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSummarySheet:     getEnv("GOOGLE_SUMMARY_SHEET_NAME", "Summary"),
		GoogleIncomeSheet:      getEnv("GOOGLE_INCOME_SHEET_NAME", "Income"),
		GoogleAssetsSheet:      getEnv("GOOGLE_ASSETS_SHEET_NAME", "Assets"),
		GoogleCashFlowsSheet:   getEnv("GOOGLE_CASH_FLOWS_SHEET_NAME", "Cash Flows"),
		GoogleProjectionsSheet: getEnv("GOOGLE_PROJECTIONS_SHEET_NAME", "Projections"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "finchat"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "transcript_events"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid.
// A missing API key is deliberately not a validation error: absence is
// detected per request and answered with a fixed user-facing message.
func (c *Config) Validate() error {
	var errors []string

	if c.Temperature < 0 || c.Temperature > 2 {
		errors = append(errors, fmt.Sprintf("invalid temperature %v: must be between 0 and 2", c.Temperature))
	}

	if c.MaxTokens < 1 {
		errors = append(errors, fmt.Sprintf("invalid max tokens %d: must be at least 1", c.MaxTokens))
	} else if c.MaxTokens > 8192 {
		errors = append(errors, fmt.Sprintf("invalid max tokens %d: must be at most 8192", c.MaxTokens))
	}

	if c.RequestTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid request timeout %v: must be at least 1 second", c.RequestTimeout))
	} else if c.RequestTimeout > 10*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid request timeout %v: must be at most 10 minutes", c.RequestTimeout))
	}

	if c.HistoryLimit < 0 {
		errors = append(errors, fmt.Sprintf("invalid history limit %d: must not be negative", c.HistoryLimit))
	}

	// Validate snapshot source selection
	validSources := []string{"json", "sheets"}
	isValidSource := false
	for _, source := range validSources {
		if c.SnapshotSource == source {
			isValidSource = true
			break
		}
	}
	if !isValidSource {
		errors = append(errors, fmt.Sprintf("invalid snapshot source '%s': must be one of %v", c.SnapshotSource, validSources))
	}

	if c.SnapshotSource == "json" && c.SnapshotPath == "" {
		errors = append(errors, "snapshot path cannot be empty when using json snapshot source")
	}

	if c.SnapshotSource == "sheets" && c.GoogleSpreadsheetID == "" {
		errors = append(errors, "Google Spreadsheet ID is required when using sheets snapshot source")
	}

	// Validate SQLite configuration
	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}

		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
