package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"FMP_API_KEY", "FMP_BASE_URL", "FMP_SYMBOL", "FMP_PERIOD", "FETCH_TIMEOUT",
		"FETCH_RATE", "USE_MOCK_DATA", "HTTPS_PROXY", "AUTO_RETRY_CRON", "LISTEN_ADDR", "LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
	// .env is resolved against the working directory.
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataSource.Symbol != "AAPL" || cfg.DataSource.Period != "annual" {
		t.Errorf("unexpected defaults: %+v", cfg.DataSource)
	}
	if cfg.DataSource.BaseURL != "https://financialmodelingprep.com" {
		t.Errorf("unexpected base url %q", cfg.DataSource.BaseURL)
	}
	if cfg.DataSource.Timeout != 30*time.Second || cfg.DataSource.RatePerSecond != 0.5 {
		t.Errorf("unexpected timeout/rate: %v %v", cfg.DataSource.Timeout, cfg.DataSource.RatePerSecond)
	}
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "api_key") {
		t.Errorf("expected missing api key error, got %v", err)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
data_source:
  api_key: file-key
  symbol: MSFT
  period: quarter
  timeout: 5s
schedule:
  auto_retry_cron: "*/10 * * * *"
server:
  listen_addr: ":8080"
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FMP_SYMBOL", "NVDA")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataSource.APIKey != "file-key" || cfg.DataSource.Period != "quarter" {
		t.Errorf("file values not applied: %+v", cfg.DataSource)
	}
	if cfg.DataSource.Symbol != "NVDA" {
		t.Errorf("env override not applied, symbol %q", cfg.DataSource.Symbol)
	}
	if cfg.DataSource.Timeout != 5*time.Second {
		t.Errorf("expected 5s timeout, got %v", cfg.DataSource.Timeout)
	}
	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("unexpected listen addr %q", cfg.Server.ListenAddr)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("validate: %v", err)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("FMP_API_KEY")
	if err := os.WriteFile(".env", []byte("FMP_API_KEY=dotenv-key\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("FMP_API_KEY") })

	cfg, err := Load("missing.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataSource.APIKey != "dotenv-key" {
		t.Errorf("expected key from .env, got %q", cfg.DataSource.APIKey)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"mock needs no key", func(c *Config) { c.DataSource.APIKey = ""; c.DataSource.Mock = true }, ""},
		{"bad period", func(c *Config) { c.DataSource.Period = "monthly" }, "period"},
		{"bad cron", func(c *Config) { c.Schedule.AutoRetryCron = "every tuesday" }, "auto_retry_cron"},
		{"descriptor cron", func(c *Config) { c.Schedule.AutoRetryCron = "@every 5m" }, ""},
		{"negative timeout", func(c *Config) { c.DataSource.Timeout = -time.Second }, "timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{}
			c.DataSource.APIKey = "k"
			c.DataSource.Period = "annual"
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
