package config

import (
	"os"
	"path/filepath"
	"testing"
)

// ── Load / Defaults ──

func TestLoadReturnsDefaults(t *testing.T) {
	t.Setenv("FHATALX_MARKET_API_KEY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Market defaults
	if cfg.Market.CoinGeckoURL != "https://api.coingecko.com/api/v3" {
		t.Errorf("Market.CoinGeckoURL: got %q", cfg.Market.CoinGeckoURL)
	}
	if cfg.Market.PerPage != 200 {
		t.Errorf("Market.PerPage: got %d, want 200", cfg.Market.PerPage)
	}
	if cfg.Market.DefaultFiat != "usd" {
		t.Errorf("Market.DefaultFiat: got %q, want %q", cfg.Market.DefaultFiat, "usd")
	}
	if !cfg.SupportsFiat("EUR") {
		t.Error("EUR should be supported by default")
	}

	// Exchange defaults
	if cfg.Exchange.BinanceURL != "https://api.binance.com" {
		t.Errorf("Exchange.BinanceURL: got %q", cfg.Exchange.BinanceURL)
	}

	// News defaults
	if len(cfg.News.Sources) != 2 {
		t.Fatalf("News.Sources: got %d, want 2", len(cfg.News.Sources))
	}
	if cfg.News.Sources[0].Name != "CoinDesk" || cfg.News.Sources[0].Format != "rss2json" {
		t.Errorf("News.Sources[0]: got %+v", cfg.News.Sources[0])
	}
	if cfg.News.Limit != 10 {
		t.Errorf("News.Limit: got %d, want 10", cfg.News.Limit)
	}

	// Limits
	if cfg.Limits.Movers != 5 {
		t.Errorf("Limits.Movers: got %d, want 5", cfg.Limits.Movers)
	}
	if cfg.Limits.Ideas != 8 {
		t.Errorf("Limits.Ideas: got %d, want 8", cfg.Limits.Ideas)
	}

	// Storage
	if cfg.Storage.Driver != "bolt" {
		t.Errorf("Storage.Driver: got %q, want %q", cfg.Storage.Driver, "bolt")
	}

	// HTTP / refresh
	if cfg.HTTP.TimeoutSec != 30 {
		t.Errorf("HTTP.TimeoutSec: got %d, want 30", cfg.HTTP.TimeoutSec)
	}
	if cfg.Refresh.Interval() != 0 {
		t.Errorf("Refresh.Interval: got %v, want 0", cfg.Refresh.Interval())
	}

	// API defaults
	if cfg.API.Addr() != "0.0.0.0:8080" {
		t.Errorf("API.Addr: got %q, want %q", cfg.API.Addr(), "0.0.0.0:8080")
	}

	// Logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format: got %q, want %q", cfg.Logging.Format, "text")
	}
}

// ── LoadFromFile ──

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv("FHATALX_MARKET_API_KEY", "")

	path := writeConfig(t, `
market:
  default_fiat: "EUR"
  per_page: 100
news:
  limit: 5
  sources:
    - name: "Decrypt"
      url: "https://decrypt.co/feed"
      format: "rss"
    - name: "Proxy"
      url: "https://rss2json.com/api.json?rss_url=https://example.com/rss"
storage:
  driver: "sqlite"
  path: "/tmp/fx.db"
refresh:
  interval_sec: 60
api:
  port: 9090
logging:
  level: "debug"
  format: "json"
`)

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if cfg.File() != path {
		t.Errorf("File: got %q, want %q", cfg.File(), path)
	}
	if cfg.Market.DefaultFiat != "eur" {
		t.Errorf("Market.DefaultFiat: got %q, want %q", cfg.Market.DefaultFiat, "eur")
	}
	if cfg.Market.PerPage != 100 {
		t.Errorf("Market.PerPage: got %d, want 100", cfg.Market.PerPage)
	}
	if len(cfg.News.Sources) != 2 {
		t.Fatalf("News.Sources: got %d, want 2", len(cfg.News.Sources))
	}
	if cfg.News.Sources[0].Format != "rss" {
		t.Errorf("News.Sources[0].Format: got %q, want rss", cfg.News.Sources[0].Format)
	}
	if cfg.News.Sources[1].Format != "rss2json" {
		t.Errorf("News.Sources[1].Format should default to rss2json, got %q", cfg.News.Sources[1].Format)
	}
	if cfg.Storage.Driver != "sqlite" || cfg.Storage.Path != "/tmp/fx.db" {
		t.Errorf("Storage: got %+v", cfg.Storage)
	}
	if cfg.Refresh.Interval().Seconds() != 60 {
		t.Errorf("Refresh.Interval: got %v", cfg.Refresh.Interval())
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port: got %d, want 9090", cfg.API.Port)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format: got %q, want %q", cfg.Logging.Format, "json")
	}
}

func TestLoadFromFileNotFound(t *testing.T) {
	if _, err := LoadFromFile("/nonexistent/path/config.yaml"); err == nil {
		t.Error("LoadFromFile() with nonexistent path should return error")
	}
}

func TestLoadFromFileRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unsupported default fiat", "market:\n  default_fiat: \"xyz\"\n"},
		{"per_page too large", "market:\n  per_page: 1000\n"},
		{"unknown storage driver", "storage:\n  driver: \"redis\"\n"},
		{"unknown feed format", "news:\n  sources:\n    - name: \"x\"\n      url: \"http://x\"\n      format: \"atom-json\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadFromFile(writeConfig(t, tt.content)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("FHATALX_API_PORT", "7070")
	t.Setenv("FHATALX_MARKET_DEFAULT_FIAT", "gbp")

	cfg, err := LoadFromFile(writeConfig(t, "api:\n  port: 9090\n"))
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if cfg.API.Port != 7070 {
		t.Errorf("API.Port: got %d, want 7070", cfg.API.Port)
	}
	if cfg.Market.DefaultFiat != "gbp" {
		t.Errorf("Market.DefaultFiat: got %q, want gbp", cfg.Market.DefaultFiat)
	}
}

// ── overrideFromEnv ──

func TestOverrideFromEnv(t *testing.T) {
	t.Setenv("FHATALX_MARKET_API_KEY", "CG-demo-key-123456")

	cfg := &Config{}
	overrideFromEnv(cfg)

	if cfg.Market.APIKey != "CG-demo-key-123456" {
		t.Errorf("Market.APIKey: got %q", cfg.Market.APIKey)
	}
}

func TestOverrideFromEnvNoEnvSet(t *testing.T) {
	t.Setenv("FHATALX_MARKET_API_KEY", "")

	cfg := &Config{Market: MarketConfig{APIKey: "from-config"}}
	overrideFromEnv(cfg)

	if cfg.Market.APIKey != "from-config" {
		t.Errorf("APIKey should stay as 'from-config' when env is unset, got %q", cfg.Market.APIKey)
	}
}

// ── Keys ──

func TestMaskKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "***"},
		{"short", "***"},
		{"12345678", "***"},
		{"CG-abcdefghijk", "CG-...ijk"},
	}
	for _, tt := range tests {
		if got := maskKey(tt.in); got != tt.want {
			t.Errorf("maskKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCheckAPIKeys(t *testing.T) {
	t.Setenv("FHATALX_MARKET_API_KEY", "")

	keys := CheckAPIKeys(&Config{})
	if len(keys) != 1 {
		t.Fatalf("got %d keys, want 1", len(keys))
	}
	if keys[0].IsSet || keys[0].Source != KeySourceNone {
		t.Errorf("unset key: got %+v", keys[0])
	}

	keys = CheckAPIKeys(&Config{Market: MarketConfig{APIKey: "CG-config-value-xyz"}})
	if !keys[0].IsSet || keys[0].Source != KeySourceConfig {
		t.Errorf("config key: got %+v", keys[0])
	}
	if keys[0].Masked != "CG-...xyz" {
		t.Errorf("Masked: got %q", keys[0].Masked)
	}
}
