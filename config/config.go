// Package config loads the Sherpa runtime configuration: YAML file on top of
// built-in defaults, then environment overrides (optionally seeded from .env
// files), then validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Supported provider names.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderMock      = "mock"
)

// Supported store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config is the top-level application configuration.
type Config struct {
	Provider         string        `yaml:"provider"`
	APIKeys          APIKeysConfig `yaml:"api_keys"`
	Models           Models        `yaml:"models"`
	Breaker          BreakerConfig `yaml:"breaker"`
	Search           SearchConfig  `yaml:"search"`
	Server           ServerConfig  `yaml:"server"`
	Store            StoreConfig   `yaml:"store"`
	Logger           LoggerConfig  `yaml:"logger"`
	ResponseLanguage string        `yaml:"response_language"`
}

// APIKeysConfig holds provider credentials. Prefer environment variables
// over committing keys to YAML.
type APIKeysConfig struct {
	Google    string `yaml:"google"`
	OpenAI    string `yaml:"openai"`
	Anthropic string `yaml:"anthropic"`
	Tavily    string `yaml:"tavily"`
}

// Models holds the two named model profiles.
type Models struct {
	Routing    Profile `yaml:"routing"`
	Generation Profile `yaml:"generation"`
}

// Profile configures one model role.
type Profile struct {
	// Model is the provider model id. Empty selects the provider default.
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// ModelName returns the configured model id or the provider default.
func (p Profile) ModelName(provider string) string {
	if p.Model != "" {
		return p.Model
	}

	return DefaultModelName(provider)
}

// DefaultModelName returns the default model id of a provider.
func DefaultModelName(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "gpt-4o-mini"
	case ProviderAnthropic:
		return "claude-sonnet-4-5"
	case ProviderMock:
		return "mock"
	default:
		return "gemini-2.5-flash"
	}
}

// BreakerConfig configures the circuit breaker wrapped around providers.
type BreakerConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxFailures uint32        `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
}

// SearchConfig configures the web search tool.
type SearchConfig struct {
	MaxResults int    `yaml:"max_results"`
	Depth      string `yaml:"depth"`
}

// ServerConfig configures the HTTP transport.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	RateLimitRPM   int           `yaml:"rate_limit_rpm"`
	RateLimitBurst int           `yaml:"rate_limit_burst"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// StoreConfig selects the thread store backend.
type StoreConfig struct {
	Type       string `yaml:"type"`
	SQLitePath string `yaml:"sqlite_path"`
}

// LoggerConfig configures structured logging.
type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: Models{
			Routing:    Profile{Temperature: 0.3, MaxTokens: 1024},
			Generation: Profile{Temperature: 0.7, MaxTokens: 8192},
		},
		Breaker: BreakerConfig{
			Enabled:     true,
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		},
		Search: SearchConfig{
			MaxResults: 3,
			Depth:      "basic",
		},
		Server: ServerConfig{
			Addr:           ":8000",
			AllowedOrigins: []string{"http://localhost:3000", "http://127.0.0.1:3000"},
			RateLimitRPM:   60,
			RateLimitBurst: 10,
			RequestTimeout: 2 * time.Minute,
		},
		Store: StoreConfig{
			Type:       StoreMemory,
			SQLitePath: "sherpa.db",
		},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "json",
		},
		ResponseLanguage: "Korean",
	}
}

// Load reads the YAML file at path on top of Defaults, applies environment
// overrides and validates the result. An empty path or a missing file
// yields the defaults plus overrides.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)

		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	ApplyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadDotEnv loads .env and then overloads .env.<APP_ENV> into the process
// environment. Missing files are ignored.
func LoadDotEnv() {
	_ = godotenv.Load(".env")

	if appEnv := os.Getenv("APP_ENV"); appEnv != "" {
		_ = godotenv.Overload(".env." + appEnv)
	}
}

// ApplyEnvOverrides maps environment variables onto cfg.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SHERPA_PROVIDER"); v != "" {
		cfg.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
		cfg.APIKeys.Google = v
	} else if v := os.Getenv("GEMINI_API_KEY"); v != "" && cfg.APIKeys.Google == "" {
		cfg.APIKeys.Google = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.APIKeys.OpenAI = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.APIKeys.Anthropic = v
	}
	if v := os.Getenv("TAVILY_API_KEY"); v != "" {
		cfg.APIKeys.Tavily = v
	}
	if v := os.Getenv("SHERPA_ROUTING_MODEL"); v != "" {
		cfg.Models.Routing.Model = v
	}
	if v := os.Getenv("SHERPA_GENERATION_MODEL"); v != "" {
		cfg.Models.Generation.Model = v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = splitAndTrim(v, ",")
	}
	if v := os.Getenv("SHERPA_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("SHERPA_STORE"); v != "" {
		cfg.Store.Type = strings.ToLower(v)
	}
	if v := os.Getenv("SHERPA_SQLITE_PATH"); v != "" {
		cfg.Store.SQLitePath = v
	}
	if v := os.Getenv("SHERPA_RATE_LIMIT_RPM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.RateLimitRPM = n
		}
	}
	if v := os.Getenv("SHERPA_LOG_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("SHERPA_LOG_FORMAT"); v != "" {
		cfg.Logger.Format = v
	}
}

// APIKey returns the credential of the configured provider.
func (c *Config) APIKey() string {
	switch c.Provider {
	case ProviderGemini:
		return c.APIKeys.Google
	case ProviderOpenAI:
		return c.APIKeys.OpenAI
	case ProviderAnthropic:
		return c.APIKeys.Anthropic
	default:
		return ""
	}
}

func splitAndTrim(s, sep string) []string {
	var out []string
	for _, p := range strings.Split(s, sep) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}
