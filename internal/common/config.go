package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string        `toml:"environment"` // "development" or "production"
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Logging     LoggingConfig `toml:"logging"`
	Roster      RosterConfig  `toml:"roster"`
	FMP         FMPConfig     `toml:"fmp"`
	Search      SearchConfig  `toml:"search"`
	Scrape      ScrapeConfig  `toml:"scrape"`
	Gateway     GatewayConfig `toml:"gateway"`
	Scan        ScanConfig    `toml:"scan"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"min=1,max=65535"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	SQLite SQLiteConfig `toml:"sqlite"`
}

// SQLiteConfig represents SQLite-specific configuration
type SQLiteConfig struct {
	Path          string `toml:"path" validate:"required"`
	CacheSizeMB   int    `toml:"cache_size_mb"`
	BusyTimeoutMS int    `toml:"busy_timeout_ms"`
	WALMode       bool   `toml:"wal_mode"`
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Format string   `toml:"format"` // "json" or "text"
	Output []string `toml:"output"` // "stdout", "file"
}

// RosterConfig points at the company roster seed file
type RosterConfig struct {
	Path string `toml:"path"`
}

// FMPConfig contains Financial Modeling Prep API configuration.
// The provider has two API generations; both base URLs are configurable
// for tests but default to the production surfaces.
type FMPConfig struct {
	APIKey        string        `toml:"api_key"`
	StableBaseURL string        `toml:"stable_base_url"`
	V3BaseURL     string        `toml:"v3_base_url"`
	CacheTTL      time.Duration `toml:"cache_ttl"`
	RateLimit     int           `toml:"rate_limit"` // requests per second
	Timeout       time.Duration `toml:"timeout"`
}

// SearchConfig contains Perplexity web-search configuration
type SearchConfig struct {
	APIKey  string        `toml:"api_key"`
	BaseURL string        `toml:"base_url"`
	Model   string        `toml:"model"`
	Recency string        `toml:"recency"` // search_recency_filter value
	Timeout time.Duration `toml:"timeout"`
}

// ScrapeConfig contains Firecrawl scrape-provider configuration.
// When APIKey is empty the local extractor is used instead.
type ScrapeConfig struct {
	APIKey    string        `toml:"api_key"`
	BaseURL   string        `toml:"base_url"`
	UserAgent string        `toml:"user_agent"`
	Timeout   time.Duration `toml:"timeout"`
}

// GatewayConfig contains the model-serving gateway configuration
// (OpenAI-style chat completions with tool calling).
type GatewayConfig struct {
	APIKey  string        `toml:"api_key"`
	BaseURL string        `toml:"base_url"`
	Model   string        `toml:"model"`
	Timeout time.Duration `toml:"timeout"`
}

// ScanConfig controls the bottleneck scan pipeline
type ScanConfig struct {
	Enabled           bool   `toml:"enabled"`            // enable scheduled scans
	Schedule          string `toml:"schedule"`           // cron expression for scheduled scans
	FetchConcurrency  int    `toml:"fetch_concurrency" validate:"min=1"`
	SearchConcurrency int    `toml:"search_concurrency" validate:"min=1"`
	SearchLimit       int    `toml:"search_limit"` // max companies enriched with news per run
	BatchSize         int    `toml:"batch_size" validate:"min=1"`
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			SQLite: SQLiteConfig{
				Path:          "./data/chainscan.db",
				CacheSizeMB:   50,
				BusyTimeoutMS: 5000,
				WALMode:       true,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
		Roster: RosterConfig{
			Path: "./config/companies.yaml",
		},
		FMP: FMPConfig{
			StableBaseURL: "https://financialmodelingprep.com/stable",
			V3BaseURL:     "https://financialmodelingprep.com/api/v3",
			CacheTTL:      5 * time.Minute,
			RateLimit:     10,
			Timeout:       30 * time.Second,
		},
		Search: SearchConfig{
			BaseURL: "https://api.perplexity.ai",
			Model:   "sonar",
			Recency: "month",
			Timeout: 30 * time.Second,
		},
		Scrape: ScrapeConfig{
			BaseURL:   "https://api.firecrawl.dev",
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			Timeout:   30 * time.Second,
		},
		Gateway: GatewayConfig{
			BaseURL: "https://ai.gateway.lovable.dev/v1",
			Model:   "google/gemini-3-flash-preview",
			Timeout: 2 * time.Minute,
		},
		Scan: ScanConfig{
			Enabled:           false,
			Schedule:          "0 6 * * *", // daily, pre-market
			FetchConcurrency:  3,
			SearchConcurrency: 2,
			SearchLimit:       15,
			BatchSize:         15,
		},
	}
}

// LoadFromFile loads configuration with priority: defaults -> file -> env
func LoadFromFile(path string) (*Config, error) {
	config := NewDefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the configuration for structural and semantic errors
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Scan.Enabled {
		parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
		if _, err := parser.Parse(c.Scan.Schedule); err != nil {
			return fmt.Errorf("invalid scan schedule %q: %w", c.Scan.Schedule, err)
		}
	}

	return nil
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("CHAINSCAN_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("CHAINSCAN_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("CHAINSCAN_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if path := os.Getenv("CHAINSCAN_SQLITE_PATH"); path != "" {
		config.Storage.SQLite.Path = path
	}

	if level := os.Getenv("CHAINSCAN_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("CHAINSCAN_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Provider credentials are normally supplied via environment
	if key := os.Getenv("FMP_API_KEY"); key != "" {
		config.FMP.APIKey = key
	}
	if key := os.Getenv("PERPLEXITY_API_KEY"); key != "" {
		config.Search.APIKey = key
	}
	if key := os.Getenv("FIRECRAWL_API_KEY"); key != "" {
		config.Scrape.APIKey = key
	}
	if key := os.Getenv("AI_GATEWAY_API_KEY"); key != "" {
		config.Gateway.APIKey = key
	}

	if schedule := os.Getenv("CHAINSCAN_SCAN_SCHEDULE"); schedule != "" {
		config.Scan.Schedule = schedule
	}
	if enabled := os.Getenv("CHAINSCAN_SCAN_ENABLED"); enabled != "" {
		config.Scan.Enabled = enabled == "true" || enabled == "1"
	}
}
