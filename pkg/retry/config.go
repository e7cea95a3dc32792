package retry

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the file form of a Policy.
type Config struct {
	MaxAttempts int      `toml:"max_attempts"`
	Delays      []string `toml:"delays"`
}

// Env maps config fields to environment variable names for override injection.
// Delays is read as a comma-separated list.
type Env struct {
	MaxAttempts string
	Delays      string
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
	if overlay.MaxAttempts != 0 {
		c.MaxAttempts = overlay.MaxAttempts
	}
	if len(overlay.Delays) > 0 {
		c.Delays = overlay.Delays
	}
}

// Policy converts the config into a Policy. Call after Finalize.
func (c *Config) Policy() Policy {
	delays := make([]time.Duration, 0, len(c.Delays))
	for _, s := range c.Delays {
		d, _ := time.ParseDuration(s)
		delays = append(delays, d)
	}
	return Policy{MaxAttempts: c.MaxAttempts, Delays: delays}
}

func (c *Config) loadDefaults() {
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 7
	}
	if len(c.Delays) == 0 {
		for _, d := range DefaultDelays() {
			c.Delays = append(c.Delays, d.String())
		}
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.MaxAttempts != "" {
		if v := os.Getenv(env.MaxAttempts); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.MaxAttempts = n
			}
		}
	}
	if env.Delays != "" {
		if v := os.Getenv(env.Delays); v != "" {
			var delays []string
			for part := range strings.SplitSeq(v, ",") {
				if part = strings.TrimSpace(part); part != "" {
					delays = append(delays, part)
				}
			}
			c.Delays = delays
		}
	}
}

func (c *Config) validate() error {
	for i, s := range c.Delays {
		if _, err := time.ParseDuration(s); err != nil {
			return fmt.Errorf("invalid delay %d: %w", i, err)
		}
	}
	return c.Policy().Validate()
}
