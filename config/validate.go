package config

import (
	"fmt"
	"strings"

	"github.com/hupe1980/sherpa/logging"
)

// ValidationError accumulates config validation errors.
type ValidationError struct {
	Errors []string
}

func (v *ValidationError) Error() string {
	return "config validation failed:\n  - " + strings.Join(v.Errors, "\n  - ")
}

// HasErrors reports whether any validation errors have been recorded.
func (v *ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}

// Add records a formatted validation error.
func (v *ValidationError) Add(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

// Validate checks cfg and returns a *ValidationError listing every problem.
func Validate(cfg *Config) error {
	ve := &ValidationError{}
	validateProvider(cfg, ve)
	validateProfile("models.routing", cfg.Models.Routing, ve)
	validateProfile("models.generation", cfg.Models.Generation, ve)
	validateSearch(cfg, ve)
	validateServer(cfg, ve)
	validateStore(cfg, ve)
	validateLogger(cfg, ve)

	if ve.HasErrors() {
		return ve
	}

	return nil
}

func validateProvider(cfg *Config, ve *ValidationError) {
	switch cfg.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic, ProviderMock:
	default:
		ve.Add("provider %q is not supported (gemini, openai, anthropic, mock)", cfg.Provider)
		return
	}

	if cfg.Provider != ProviderMock && cfg.APIKey() == "" {
		ve.Add("api key for provider %q is missing", cfg.Provider)
	}

	if cfg.Breaker.Enabled && cfg.Breaker.MaxFailures == 0 {
		ve.Add("breaker.max_failures must be > 0 when the breaker is enabled")
	}
}

func validateProfile(name string, p Profile, ve *ValidationError) {
	if p.Temperature < 0 || p.Temperature > 2 {
		ve.Add("%s.temperature must be within [0, 2], got %v", name, p.Temperature)
	}
	if p.MaxTokens < 0 {
		ve.Add("%s.max_tokens must be >= 0", name)
	}
}

func validateSearch(cfg *Config, ve *ValidationError) {
	if cfg.Search.MaxResults <= 0 {
		ve.Add("search.max_results must be > 0")
	}
}

func validateServer(cfg *Config, ve *ValidationError) {
	if cfg.Server.Addr == "" {
		ve.Add("server.addr is required")
	}
	if cfg.Server.RateLimitRPM < 0 {
		ve.Add("server.rate_limit_rpm must be >= 0")
	}
	if cfg.Server.RateLimitRPM > 0 && cfg.Server.RateLimitBurst <= 0 {
		ve.Add("server.rate_limit_burst must be > 0 when rate limiting is enabled")
	}
}

func validateStore(cfg *Config, ve *ValidationError) {
	switch cfg.Store.Type {
	case StoreMemory:
	case StoreSQLite:
		if cfg.Store.SQLitePath == "" {
			ve.Add("store.sqlite_path is required for the sqlite store")
		}
	default:
		ve.Add("store.type %q is not supported (memory, sqlite)", cfg.Store.Type)
	}
}

func validateLogger(cfg *Config, ve *ValidationError) {
	if _, err := logging.ParseLevel(cfg.Logger.Level); err != nil {
		ve.Add("logger.level: %v", err)
	}
	switch cfg.Logger.Format {
	case "json", "text":
	default:
		ve.Add("logger.format %q is not supported (json, text)", cfg.Logger.Format)
	}
}
