package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	DataSource struct {
		BaseURL       string        `yaml:"base_url"`
		APIKey        string        `yaml:"api_key"`
		Symbol        string        `yaml:"symbol"`
		Period        string        `yaml:"period"`
		Timeout       time.Duration `yaml:"timeout"`
		RatePerSecond float64       `yaml:"rate_per_second"`
		Mock          bool          `yaml:"mock"`
	} `yaml:"data_source"`
	Schedule struct {
		AutoRetryCron string `yaml:"auto_retry_cron"`
	} `yaml:"schedule"`
	Server struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"server"`
	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then a .env file next to the process,
// then applies environment variable overrides and defaults. Missing files
// are not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	// Environment variable overrides
	if v := os.Getenv("FMP_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("FMP_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("FMP_SYMBOL"); v != "" {
		cfg.DataSource.Symbol = v
	}
	if v := os.Getenv("FMP_PERIOD"); v != "" {
		cfg.DataSource.Period = v
	}
	if v := os.Getenv("FETCH_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.DataSource.Timeout = d
		}
	}
	if v := os.Getenv("FETCH_RATE"); v != "" {
		if r, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.DataSource.RatePerSecond = r
		}
	}
	if v := os.Getenv("USE_MOCK_DATA"); v != "" {
		cfg.DataSource.Mock = v == "true" || v == "1"
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("AUTO_RETRY_CRON"); v != "" {
		cfg.Schedule.AutoRetryCron = v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.Server.ListenAddr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	// Defaults
	if cfg.DataSource.BaseURL == "" {
		cfg.DataSource.BaseURL = "https://financialmodelingprep.com"
	}
	if cfg.DataSource.Symbol == "" {
		cfg.DataSource.Symbol = "AAPL"
	}
	if cfg.DataSource.Period == "" {
		cfg.DataSource.Period = "annual"
	}
	if cfg.DataSource.Timeout == 0 {
		cfg.DataSource.Timeout = 30 * time.Second
	}
	if cfg.DataSource.RatePerSecond == 0 {
		cfg.DataSource.RatePerSecond = 0.5
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.DataSource.APIKey == "" && !c.DataSource.Mock {
		return fmt.Errorf("data_source.api_key is required (or set FMP_API_KEY)")
	}
	if c.DataSource.Period != "annual" && c.DataSource.Period != "quarter" {
		return fmt.Errorf("data_source.period must be annual or quarter, got %q", c.DataSource.Period)
	}
	if c.DataSource.Timeout < 0 {
		return fmt.Errorf("data_source.timeout must not be negative")
	}
	if c.Schedule.AutoRetryCron != "" {
		if _, err := cron.ParseStandard(c.Schedule.AutoRetryCron); err != nil {
			return fmt.Errorf("schedule.auto_retry_cron: %w", err)
		}
	}
	return nil
}
