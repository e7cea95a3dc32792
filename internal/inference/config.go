package inference

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"
)

// Providers reachable through the OpenAI-compatible chat completions API.
const (
	ProviderOpenAI = "openai"
	ProviderAzure  = "azure"
	ProviderOllama = "ollama"
)

var providers = []string{ProviderOpenAI, ProviderAzure, ProviderOllama}

const defaultOllamaURL = "http://localhost:11434/v1"

// Config holds inference service connection parameters.
type Config struct {
	Provider          string  `toml:"provider"`
	BaseURL           string  `toml:"base_url"`
	APIVersion        string  `toml:"api_version"`
	Model             string  `toml:"model"`
	APIKey            string  `toml:"api_key"`
	CorpusAccess      bool    `toml:"corpus_access"`
	Temperature       float64 `toml:"temperature"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
	RequestTimeout    string  `toml:"request_timeout"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Provider          string
	BaseURL           string
	APIVersion        string
	Model             string
	APIKey            string
	CorpusAccess      string
	RequestsPerSecond string
	Burst             string
	RequestTimeout    string
}

// RequestTimeoutDuration returns RequestTimeout as a time.Duration.
func (c *Config) RequestTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.RequestTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	c.loadProviderDefaults()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay. An overlay can enable
// CorpusAccess but not disable it.
func (c *Config) Merge(overlay *Config) {
	if overlay.Provider != "" {
		c.Provider = overlay.Provider
	}
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.APIVersion != "" {
		c.APIVersion = overlay.APIVersion
	}
	if overlay.Model != "" {
		c.Model = overlay.Model
	}
	if overlay.APIKey != "" {
		c.APIKey = overlay.APIKey
	}
	if overlay.CorpusAccess {
		c.CorpusAccess = true
	}
	if overlay.Temperature != 0 {
		c.Temperature = overlay.Temperature
	}
	if overlay.RequestsPerSecond != 0 {
		c.RequestsPerSecond = overlay.RequestsPerSecond
	}
	if overlay.Burst != 0 {
		c.Burst = overlay.Burst
	}
	if overlay.RequestTimeout != "" {
		c.RequestTimeout = overlay.RequestTimeout
	}
}

func (c *Config) loadDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderOpenAI
	}
	if c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
	if c.Burst == 0 {
		c.Burst = 1
	}
	if c.RequestTimeout == "" {
		c.RequestTimeout = "2m"
	}
}

func (c *Config) loadProviderDefaults() {
	if c.Provider == ProviderOllama && c.BaseURL == "" {
		c.BaseURL = defaultOllamaURL
	}
	if c.Provider == ProviderAzure && c.APIVersion == "" {
		c.APIVersion = "2024-10-21"
	}
}

func (c *Config) loadEnv(env *Env) {
	setString := func(name string, dst *string) {
		if name == "" {
			return
		}
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	setString(env.Provider, &c.Provider)
	setString(env.BaseURL, &c.BaseURL)
	setString(env.APIVersion, &c.APIVersion)
	setString(env.Model, &c.Model)
	setString(env.APIKey, &c.APIKey)
	setString(env.RequestTimeout, &c.RequestTimeout)

	if env.CorpusAccess != "" {
		if v := os.Getenv(env.CorpusAccess); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				c.CorpusAccess = b
			}
		}
	}
	if env.RequestsPerSecond != "" {
		if v := os.Getenv(env.RequestsPerSecond); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				c.RequestsPerSecond = f
			}
		}
	}
	if env.Burst != "" {
		if v := os.Getenv(env.Burst); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.Burst = n
			}
		}
	}
}

func (c *Config) validate() error {
	if !slices.Contains(providers, c.Provider) {
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	if c.Model == "" {
		return fmt.Errorf("model required")
	}
	if c.Provider != ProviderOllama && c.APIKey == "" {
		return fmt.Errorf("api_key required for provider %s", c.Provider)
	}
	if c.Provider == ProviderAzure && c.BaseURL == "" {
		return fmt.Errorf("base_url required for provider %s", c.Provider)
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("requests_per_second must not be negative")
	}
	if c.Burst < 1 {
		return fmt.Errorf("burst must be at least 1")
	}
	if _, err := time.ParseDuration(c.RequestTimeout); err != nil {
		return fmt.Errorf("invalid request_timeout: %w", err)
	}
	return nil
}
