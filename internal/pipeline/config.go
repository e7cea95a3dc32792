package pipeline

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds routing thresholds and batch execution parameters.
type Config struct {
	RegexThreshold  float64 `toml:"regex_threshold"`
	RuleThreshold   float64 `toml:"rule_threshold"`
	QuotaPerBucket  int     `toml:"quota_per_bucket"`
	Workers         int     `toml:"workers"`
	CitationTimeout string  `toml:"citation_timeout"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	RegexThreshold  string
	RuleThreshold   string
	QuotaPerBucket  string
	Workers         string
	CitationTimeout string
}

// CitationTimeoutDuration returns CitationTimeout as a time.Duration.
func (c *Config) CitationTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.CitationTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.RegexThreshold != 0 {
		c.RegexThreshold = overlay.RegexThreshold
	}
	if overlay.RuleThreshold != 0 {
		c.RuleThreshold = overlay.RuleThreshold
	}
	if overlay.QuotaPerBucket != 0 {
		c.QuotaPerBucket = overlay.QuotaPerBucket
	}
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
	if overlay.CitationTimeout != "" {
		c.CitationTimeout = overlay.CitationTimeout
	}
}

func (c *Config) loadDefaults() {
	if c.RegexThreshold == 0 {
		c.RegexThreshold = 0.9
	}
	if c.RuleThreshold == 0 {
		c.RuleThreshold = 0.85
	}
	if c.QuotaPerBucket == 0 {
		c.QuotaPerBucket = 5
	}
	if c.Workers == 0 {
		c.Workers = 4
	}
	if c.CitationTimeout == "" {
		c.CitationTimeout = "3m"
	}
}

func (c *Config) loadEnv(env *Env) {
	setFloat := func(name string, dst *float64) {
		if name == "" {
			return
		}
		if v := os.Getenv(name); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				*dst = f
			}
		}
	}
	setInt := func(name string, dst *int) {
		if name == "" {
			return
		}
		if v := os.Getenv(name); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setFloat(env.RegexThreshold, &c.RegexThreshold)
	setFloat(env.RuleThreshold, &c.RuleThreshold)
	setInt(env.QuotaPerBucket, &c.QuotaPerBucket)
	setInt(env.Workers, &c.Workers)

	if env.CitationTimeout != "" {
		if v := os.Getenv(env.CitationTimeout); v != "" {
			c.CitationTimeout = v
		}
	}
}

func (c *Config) validate() error {
	if c.RegexThreshold < 0 || c.RegexThreshold > 1 {
		return fmt.Errorf("regex_threshold %v outside [0,1]", c.RegexThreshold)
	}
	if c.RuleThreshold < 0 || c.RuleThreshold > 1 {
		return fmt.Errorf("rule_threshold %v outside [0,1]", c.RuleThreshold)
	}
	if c.QuotaPerBucket < 1 {
		return fmt.Errorf("quota_per_bucket must be positive")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive")
	}
	d, err := time.ParseDuration(c.CitationTimeout)
	if err != nil {
		return fmt.Errorf("invalid citation_timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("citation_timeout must be positive")
	}
	return nil
}
