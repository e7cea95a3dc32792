package rules

import (
	"context"
	"fmt"
	"os"

	"github.com/JaimeStill/bluecite/pkg/storage"
)

// Config locates the rule corpus. A blob key takes precedence over a file path.
type Config struct {
	Path     string `toml:"path"`
	BlobKey  string `toml:"blob_key"`
	Format   string `toml:"format"`
	Patterns string `toml:"patterns"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Path     string
	BlobKey  string
	Format   string
	Patterns string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	if env != nil {
		c.loadEnv(env)
	}
	c.loadDefaults()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Path != "" {
		c.Path = overlay.Path
	}
	if overlay.BlobKey != "" {
		c.BlobKey = overlay.BlobKey
	}
	if overlay.Format != "" {
		c.Format = overlay.Format
	}
	if overlay.Patterns != "" {
		c.Patterns = overlay.Patterns
	}
}

// Source describes where the corpus is read from, for logging.
func (c *Config) Source() string {
	if c.BlobKey != "" {
		return "blob:" + c.BlobKey
	}
	return "file:" + c.Path
}

func (c *Config) loadDefaults() {
	if c.Path == "" && c.BlobKey == "" {
		c.Path = "corpus/rules.yaml"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Path != "" {
		if v := os.Getenv(env.Path); v != "" {
			c.Path = v
		}
	}
	if env.BlobKey != "" {
		if v := os.Getenv(env.BlobKey); v != "" {
			c.BlobKey = v
		}
	}
	if env.Format != "" {
		if v := os.Getenv(env.Format); v != "" {
			c.Format = v
		}
	}
	if env.Patterns != "" {
		if v := os.Getenv(env.Patterns); v != "" {
			c.Patterns = v
		}
	}
}

func (c *Config) validate() error {
	if _, err := ParseFormat(c.Format); err != nil {
		return err
	}
	return nil
}

// Open loads the configured corpus. Storage is only consulted for blob sources.
func Open(ctx context.Context, cfg *Config, store storage.System) (*Corpus, error) {
	format, err := ParseFormat(cfg.Format)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorpusLoad, err)
	}

	if cfg.BlobKey != "" {
		if store == nil {
			return nil, fmt.Errorf("%w: blob source %s requires storage", ErrCorpusLoad, cfg.BlobKey)
		}
		return LoadBlob(ctx, store, cfg.BlobKey, format)
	}

	return Load(cfg.Path, format)
}
