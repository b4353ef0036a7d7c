package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration. The provider API key is a
// secret and is only ever read from the environment or a local config
// file, never compiled in.
type Config struct {
	APIKey     string        `mapstructure:"api_key"`
	BaseURL    string        `mapstructure:"base_url"`
	Logger     LoggerConfig  `mapstructure:"logger"`
	Quote      QuoteConfig   `mapstructure:"quote"`
	Tracker    TrackerConfig `mapstructure:"tracker"`
	LedgerPath string        `mapstructure:"ledger_path"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

// QuoteConfig holds settings for the quote service.
type QuoteConfig struct {
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
}

// TrackerConfig holds settings for transaction status tracking.
type TrackerConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// Load reads configuration from environment variables and an optional
// .flowswap.yaml config file.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".flowswap")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME")
	v.AddConfigPath(".")

	v.SetDefault("base_url", "https://api.changenow.io/v1")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "console")
	v.SetDefault("quote.cache_ttl", "5m")
	v.SetDefault("quote.retry_delay", "5s")
	v.SetDefault("quote.http_timeout", "15s")
	v.SetDefault("tracker.poll_interval", "10s")
	v.SetDefault("ledger_path", "")

	v.SetEnvPrefix("FLOWSWAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// HasAPIKey reports whether a provider API key is configured. Without
// one, provider calls fail and the CLI falls back to demo mode.
func (c *Config) HasAPIKey() bool {
	return c.APIKey != ""
}
