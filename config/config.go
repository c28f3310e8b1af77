// Package config loads runtime configuration from the environment, with a
// .env file honored during local development.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Store backend selectors.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendDynamo = "dynamo"
)

// Model provider selectors.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config is the runtime configuration of the diet assistant.
type Config struct {
	// Port is the HTTP listen port.
	Port int

	// StoreBackend selects where sessions persist: memory, sqlite or dynamo.
	StoreBackend string
	// SQLitePath is the database file used by the sqlite backend.
	SQLitePath string
	// DynamoTable is the table used by the dynamo backend.
	DynamoTable string
	// MaxDocSize overrides the per-document size ceiling when positive.
	MaxDocSize int

	// ModelProvider selects the completion provider: openai or anthropic.
	ModelProvider string
	OpenAIAPIKey  string
	AnthropicKey  string

	// CatalogPath is the CSV product catalog for pricing.
	CatalogPath string

	// LogLevel is debug, info, warn or error.
	LogLevel string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:          8080,
		StoreBackend:  BackendMemory,
		SQLitePath:    "data/dietflow.db",
		DynamoTable:   "dietflow-sessions",
		ModelProvider: ProviderOpenAI,
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		AnthropicKey:  os.Getenv("ANTHROPIC_API_KEY"),
		CatalogPath:   os.Getenv("CATALOG_PATH"),
		LogLevel:      "info",
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("config: parse PORT %q: %w", v, err)
		}
		cfg.Port = port
	}
	if v := os.Getenv("STORE_BACKEND"); v != "" {
		switch v {
		case BackendMemory, BackendSQLite, BackendDynamo:
			cfg.StoreBackend = v
		default:
			return nil, fmt.Errorf("config: unknown STORE_BACKEND %q", v)
		}
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.SQLitePath = v
	}
	if v := os.Getenv("DYNAMO_TABLE"); v != "" {
		cfg.DynamoTable = v
	}
	if v := os.Getenv("MAX_DOC_SIZE"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil || size <= 0 {
			return nil, fmt.Errorf("config: MAX_DOC_SIZE must be a positive integer, got %q", v)
		}
		cfg.MaxDocSize = size
	}
	if v := os.Getenv("MODEL_PROVIDER"); v != "" {
		switch v {
		case ProviderOpenAI, ProviderAnthropic:
			cfg.ModelProvider = v
		default:
			return nil, fmt.Errorf("config: unknown MODEL_PROVIDER %q", v)
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	return cfg, nil
}
