package storage

import (
	"fmt"
	"os"
	"strings"
)

const (
	BackendAzure  = "azure"
	BackendMemory = "memory"
)

// Config holds blob storage parameters. The memory backend keeps blobs in process
// and is meant for local runs and tests.
type Config struct {
	Backend          string `toml:"backend"`
	ContainerName    string `toml:"container_name"`
	ConnectionString string `toml:"connection_string"`
	ArchivePrefix    string `toml:"archive_prefix"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Backend          string
	ContainerName    string
	ConnectionString string
	ArchivePrefix    string
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
	if overlay.Backend != "" {
		c.Backend = overlay.Backend
	}
	if overlay.ContainerName != "" {
		c.ContainerName = overlay.ContainerName
	}
	if overlay.ConnectionString != "" {
		c.ConnectionString = overlay.ConnectionString
	}
	if overlay.ArchivePrefix != "" {
		c.ArchivePrefix = overlay.ArchivePrefix
	}
}

// ArchiveKey returns the blob key for a document stored under the archive prefix.
func (c *Config) ArchiveKey(name string) string {
	return strings.TrimSuffix(c.ArchivePrefix, "/") + "/" + name
}

func (c *Config) loadDefaults() {
	if c.Backend == "" {
		c.Backend = BackendAzure
	}
	if c.ContainerName == "" {
		c.ContainerName = "bluecite"
	}
	if c.ArchivePrefix == "" {
		c.ArchivePrefix = "runs"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Backend != "" {
		if v := os.Getenv(env.Backend); v != "" {
			c.Backend = v
		}
	}
	if env.ContainerName != "" {
		if v := os.Getenv(env.ContainerName); v != "" {
			c.ContainerName = v
		}
	}
	if env.ConnectionString != "" {
		if v := os.Getenv(env.ConnectionString); v != "" {
			c.ConnectionString = v
		}
	}
	if env.ArchivePrefix != "" {
		if v := os.Getenv(env.ArchivePrefix); v != "" {
			c.ArchivePrefix = v
		}
	}
}

func (c *Config) validate() error {
	switch c.Backend {
	case BackendAzure:
		if c.ConnectionString == "" {
			return fmt.Errorf("connection_string required")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unsupported storage backend %q", c.Backend)
	}
	if c.ContainerName == "" {
		return fmt.Errorf("container_name required")
	}
	if strings.Contains(c.ArchivePrefix, "..") {
		return fmt.Errorf("archive_prefix must not contain '..'")
	}
	return nil
}
