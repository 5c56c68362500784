package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. VOLDECOMP_BATCH_WORKERS
const EnvPrefix = "VOLDECOMP"

// Config represents the application configuration
type Config struct {
	Paths   PathsConfig   `yaml:"paths" envconfig:"PATHS"`
	API     APIConfig     `yaml:"api" envconfig:"API"`
	Batch   BatchConfig   `yaml:"batch" envconfig:"BATCH"`
	Cache   CacheConfig   `yaml:"cache" envconfig:"CACHE"`
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`

	// Shares is a fixed symbol -> shares outstanding table used before any
	// network provider
	Shares map[string]float64 `yaml:"shares" ignored:"true" validate:"dive,keys,required,endkeys,gt=0"`
}

// PathsConfig holds input and output locations
type PathsConfig struct {
	Input  string `yaml:"input" envconfig:"INPUT" validate:"required"`   // per-symbol minute CSVs
	Output string `yaml:"output" envconfig:"OUTPUT" validate:"required"` // per-symbol result tables
}

// APIConfig holds shares-outstanding provider configurations
type APIConfig struct {
	Finviz       ProviderConfig `yaml:"finviz" envconfig:"FINVIZ"`
	Finnhub      ProviderConfig `yaml:"finnhub" envconfig:"FINNHUB"`
	AlphaVantage ProviderConfig `yaml:"alphavantage" envconfig:"ALPHAVANTAGE"`
	Timeout      time.Duration  `yaml:"timeout" envconfig:"TIMEOUT" validate:"gte=0"`
	MaxRetries   uint           `yaml:"max_retries" envconfig:"MAX_RETRIES" validate:"lte=10"`
}

// ProviderConfig holds individual provider settings
type ProviderConfig struct {
	Enabled   bool   `yaml:"enabled" envconfig:"ENABLED"`
	Key       string `yaml:"key" envconfig:"KEY"`
	RateLimit int    `yaml:"rate_limit" envconfig:"RATE_LIMIT" validate:"gte=0"` // requests per minute
}

// BatchConfig holds batch driver settings
type BatchConfig struct {
	Workers int    `yaml:"workers" envconfig:"WORKERS" validate:"gte=0"` // 0 = one per CPU
	Format  string `yaml:"format" envconfig:"FORMAT" validate:"oneof=csv json parquet xlsx"`
	Force   bool   `yaml:"force" envconfig:"FORCE"`
}

// CacheConfig holds the shares-outstanding cache settings
type CacheConfig struct {
	Enabled    bool          `yaml:"enabled" envconfig:"ENABLED"`
	TTL        time.Duration `yaml:"ttl" envconfig:"TTL" validate:"gte=0"`
	MaxEntries int           `yaml:"max_entries" envconfig:"MAX_ENTRIES" validate:"gte=0"`
}

// LoggingConfig holds log output settings
type LoggingConfig struct {
	Level string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	File  string `yaml:"file" envconfig:"FILE"` // empty logs to stderr
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Paths: PathsConfig{
			Input:  "Minute Prices",
			Output: "Volatility Data",
		},
		API: APIConfig{
			Finviz: ProviderConfig{
				Enabled:   true,
				RateLimit: 30,
			},
			Finnhub: ProviderConfig{
				Enabled:   true,
				Key:       os.Getenv("FINNHUB_API_KEY"),
				RateLimit: 60,
			},
			AlphaVantage: ProviderConfig{
				Enabled:   true,
				Key:       os.Getenv("ALPHAVANTAGE_API_KEY"),
				RateLimit: 5,
			},
			Timeout:    30 * time.Second,
			MaxRetries: 2,
		},
		Batch: BatchConfig{
			Workers: 0,
			Format:  "csv",
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        24 * time.Hour,
			MaxEntries: 1000,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "Logs/run.log",
		},
	}
}

// Load loads configuration from a YAML file, then applies environment
// overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	// Override with environment variables if set
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	if key := os.Getenv("FINNHUB_API_KEY"); key != "" {
		cfg.API.Finnhub.Key = key
	}
	if key := os.Getenv("ALPHAVANTAGE_API_KEY"); key != "" {
		cfg.API.AlphaVantage.Key = key
	}

	return cfg, nil
}

var validate = validator.New()

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if !c.API.Finviz.Enabled && !c.hasKeyedProvider() && len(c.Shares) == 0 {
		return fmt.Errorf("no shares outstanding source: enable finviz, set FINNHUB_API_KEY or ALPHAVANTAGE_API_KEY, or list shares in the config")
	}
	return nil
}

func (c *Config) hasKeyedProvider() bool {
	return (c.API.Finnhub.Enabled && c.API.Finnhub.Key != "") ||
		(c.API.AlphaVantage.Enabled && c.API.AlphaVantage.Key != "")
}
