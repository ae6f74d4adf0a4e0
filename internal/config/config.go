// Package config handles configuration loading for FhatalX.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "FHATALX"

// Config represents the complete application configuration.
type Config struct {
	Market   MarketConfig   `mapstructure:"market"   yaml:"market"   json:"market"`
	Exchange ExchangeConfig `mapstructure:"exchange" yaml:"exchange" json:"exchange"`
	News     NewsConfig     `mapstructure:"news"     yaml:"news"     json:"news"`
	Limits   LimitsConfig   `mapstructure:"limits"   yaml:"limits"   json:"limits"`
	Storage  StorageConfig  `mapstructure:"storage"  yaml:"storage"  json:"storage"`
	HTTP     HTTPConfig     `mapstructure:"http"     yaml:"http"     json:"http"`
	Refresh  RefreshConfig  `mapstructure:"refresh"  yaml:"refresh"  json:"refresh"`
	API      APIConfig      `mapstructure:"api"      yaml:"api"      json:"api"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"  json:"logging"`

	file string // config file actually read, if any
}

// MarketConfig holds market-data provider (CoinGecko) settings.
type MarketConfig struct {
	CoinGeckoURL   string   `mapstructure:"coingecko_url"   yaml:"coingecko_url"   json:"coingecko_url"`
	APIKey         string   `mapstructure:"api_key"         yaml:"api_key"         json:"-"` // optional demo key
	PerPage        int      `mapstructure:"per_page"        yaml:"per_page"        json:"per_page"`
	DefaultFiat    string   `mapstructure:"default_fiat"    yaml:"default_fiat"    json:"default_fiat"`
	SupportedFiats []string `mapstructure:"supported_fiats" yaml:"supported_fiats" json:"supported_fiats"`
	RateLimit      int      `mapstructure:"rate_limit"      yaml:"rate_limit"      json:"rate_limit"` // requests per second, 0 = unlimited
}

// ExchangeConfig holds exchange (Binance) settings.
type ExchangeConfig struct {
	BinanceURL string `mapstructure:"binance_url" yaml:"binance_url" json:"binance_url"`
}

// NewsSourceConfig describes one news feed.
type NewsSourceConfig struct {
	Name   string `mapstructure:"name"   yaml:"name"   json:"name"`
	URL    string `mapstructure:"url"    yaml:"url"    json:"url"`
	Format string `mapstructure:"format" yaml:"format" json:"format"` // "rss2json" or "rss"
}

// NewsConfig holds news aggregation settings.
type NewsConfig struct {
	Sources []NewsSourceConfig `mapstructure:"sources" yaml:"sources" json:"sources"`
	Limit   int                `mapstructure:"limit"   yaml:"limit"   json:"limit"`
}

// LimitsConfig caps the projected views.
type LimitsConfig struct {
	Movers int `mapstructure:"movers" yaml:"movers" json:"movers"`
	Ideas  int `mapstructure:"ideas"  yaml:"ideas"  json:"ideas"`
}

// StorageConfig selects the durable key-value backend.
type StorageConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver" json:"driver"` // "bolt", "sqlite" or "memory"
	Path   string `mapstructure:"path"   yaml:"path"   json:"path"`
}

// HTTPConfig holds outbound HTTP client settings.
type HTTPConfig struct {
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	UserAgent  string `mapstructure:"user_agent"  yaml:"user_agent"  json:"user_agent"`
}

// Timeout returns the client timeout as a duration.
func (h HTTPConfig) Timeout() time.Duration {
	return time.Duration(h.TimeoutSec) * time.Second
}

// RefreshConfig controls periodic snapshot refresh while serving.
type RefreshConfig struct {
	IntervalSec int `mapstructure:"interval_sec" yaml:"interval_sec" json:"interval_sec"` // 0 = manual only
}

// Interval returns the refresh interval, zero when disabled.
func (r RefreshConfig) Interval() time.Duration {
	if r.IntervalSec <= 0 {
		return 0
	}
	return time.Duration(r.IntervalSec) * time.Second
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"         json:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"         json:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins" json:"cors_origins"`
}

// Addr returns host:port.
func (a APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"  json:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format" json:"format"` // "text" or "json"
}

// File returns the path of the config file that was read, or "" when
// only defaults and environment were used.
func (c *Config) File() string { return c.file }

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml
//  2. ~/.fhatalx/config.yaml
//  3. /etc/fhatalx/config.yaml
//
// Environment variables override config file values.
// Format: FHATALX_<SECTION>_<KEY>, e.g. FHATALX_MARKET_DEFAULT_FIAT
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".fhatalx"))
	v.AddConfigPath("/etc/fhatalx")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return unmarshal(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.file = v.ConfigFileUsed()

	overrideFromEnv(&cfg)
	normalize(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults sets defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Market data
	v.SetDefault("market.coingecko_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("market.per_page", 200)
	v.SetDefault("market.default_fiat", "usd")
	v.SetDefault("market.supported_fiats", []string{"usd", "eur", "gbp", "jpy", "aud", "cad", "chf", "inr", "try", "brl"})
	v.SetDefault("market.rate_limit", 5)

	// Exchange
	v.SetDefault("exchange.binance_url", "https://api.binance.com")

	// News
	v.SetDefault("news.sources", []map[string]any{
		{
			"name":   "CoinDesk",
			"url":    "https://rss2json.com/api.json?rss_url=https://www.coindesk.com/arc/outboundfeeds/rss/?outputType=xml",
			"format": "rss2json",
		},
		{
			"name":   "Cointelegraph",
			"url":    "https://rss2json.com/api.json?rss_url=https://cointelegraph.com/rss",
			"format": "rss2json",
		},
	})
	v.SetDefault("news.limit", 10)

	// View limits
	v.SetDefault("limits.movers", 5)
	v.SetDefault("limits.ideas", 8)

	// Storage
	v.SetDefault("storage.driver", "bolt")
	v.SetDefault("storage.path", filepath.Join(homeDir(), ".fhatalx", "fhatalx.db"))

	// Outbound HTTP
	v.SetDefault("http.timeout_sec", 30)
	v.SetDefault("http.user_agent", "FhatalX/1.0 (+https://github.com/Fhatal-Studios/FhatalX)")

	// Refresh
	v.SetDefault("refresh.interval_sec", 0)

	// API
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv(EnvPrefix + "_MARKET_API_KEY"); key != "" {
		cfg.Market.APIKey = key
	}
}

// normalize lower-cases fiat codes and fills feed formats.
func normalize(cfg *Config) {
	cfg.Market.DefaultFiat = strings.ToLower(strings.TrimSpace(cfg.Market.DefaultFiat))
	for i, f := range cfg.Market.SupportedFiats {
		cfg.Market.SupportedFiats[i] = strings.ToLower(strings.TrimSpace(f))
	}
	for i := range cfg.News.Sources {
		if cfg.News.Sources[i].Format == "" {
			cfg.News.Sources[i].Format = "rss2json"
		}
	}
	cfg.Storage.Driver = strings.ToLower(cfg.Storage.Driver)
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	if c.Market.PerPage <= 0 || c.Market.PerPage > 250 {
		return fmt.Errorf("market.per_page must be in 1..250, got %d", c.Market.PerPage)
	}
	if !c.SupportsFiat(c.Market.DefaultFiat) {
		return fmt.Errorf("market.default_fiat %q is not in market.supported_fiats", c.Market.DefaultFiat)
	}
	switch c.Storage.Driver {
	case "bolt", "sqlite", "memory":
	default:
		return fmt.Errorf("storage.driver must be bolt, sqlite or memory, got %q", c.Storage.Driver)
	}
	for _, s := range c.News.Sources {
		if s.Format != "rss2json" && s.Format != "rss" {
			return fmt.Errorf("news source %q: unknown format %q", s.Name, s.Format)
		}
	}
	return nil
}

// SupportsFiat reports whether code is one of the supported fiat codes.
func (c *Config) SupportsFiat(code string) bool {
	code = strings.ToLower(strings.TrimSpace(code))
	for _, f := range c.Market.SupportedFiats {
		if f == code {
			return true
		}
	}
	return false
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
