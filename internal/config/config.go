// Package config loads the service configuration from config.toml, an optional
// environment overlay, and BLUECITE_ environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/bluecite/internal/inference"
	"github.com/JaimeStill/bluecite/internal/pipeline"
	"github.com/JaimeStill/bluecite/internal/rules"
	"github.com/JaimeStill/bluecite/pkg/database"
	"github.com/JaimeStill/bluecite/pkg/retry"
	"github.com/JaimeStill/bluecite/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvBlueciteEnv             = "BLUECITE_ENV"
	EnvBlueciteConfig          = "BLUECITE_CONFIG"
	EnvBlueciteShutdownTimeout = "BLUECITE_SHUTDOWN_TIMEOUT"
	EnvBlueciteVersion         = "BLUECITE_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "BLUECITE_DB_HOST",
	Port:            "BLUECITE_DB_PORT",
	Name:            "BLUECITE_DB_NAME",
	User:            "BLUECITE_DB_USER",
	Password:        "BLUECITE_DB_PASSWORD",
	SSLMode:         "BLUECITE_DB_SSL_MODE",
	MaxOpenConns:    "BLUECITE_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "BLUECITE_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "BLUECITE_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "BLUECITE_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	Backend:          "BLUECITE_STORAGE_BACKEND",
	ContainerName:    "BLUECITE_STORAGE_CONTAINER_NAME",
	ConnectionString: "BLUECITE_STORAGE_CONNECTION_STRING",
	ArchivePrefix:    "BLUECITE_STORAGE_ARCHIVE_PREFIX",
}

var corpusEnv = &rules.Env{
	Path:     "BLUECITE_CORPUS_PATH",
	BlobKey:  "BLUECITE_CORPUS_BLOB_KEY",
	Format:   "BLUECITE_CORPUS_FORMAT",
	Patterns: "BLUECITE_CORPUS_PATTERNS",
}

var pipelineEnv = &pipeline.Env{
	RegexThreshold:  "BLUECITE_PIPELINE_REGEX_THRESHOLD",
	RuleThreshold:   "BLUECITE_PIPELINE_RULE_THRESHOLD",
	QuotaPerBucket:  "BLUECITE_PIPELINE_QUOTA_PER_BUCKET",
	Workers:         "BLUECITE_PIPELINE_WORKERS",
	CitationTimeout: "BLUECITE_PIPELINE_CITATION_TIMEOUT",
}

var retryEnv = &retry.Env{
	MaxAttempts: "BLUECITE_RETRY_MAX_ATTEMPTS",
	Delays:      "BLUECITE_RETRY_DELAYS",
}

var inferenceEnv = &inference.Env{
	Provider:          "BLUECITE_INFERENCE_PROVIDER",
	BaseURL:           "BLUECITE_INFERENCE_BASE_URL",
	APIVersion:        "BLUECITE_INFERENCE_API_VERSION",
	Model:             "BLUECITE_INFERENCE_MODEL",
	APIKey:            "BLUECITE_INFERENCE_API_KEY",
	CorpusAccess:      "BLUECITE_INFERENCE_CORPUS_ACCESS",
	RequestsPerSecond: "BLUECITE_INFERENCE_REQUESTS_PER_SECOND",
	Burst:             "BLUECITE_INFERENCE_BURST",
	RequestTimeout:    "BLUECITE_INFERENCE_REQUEST_TIMEOUT",
}

// Config is the root configuration for the bluecite service and CLI.
type Config struct {
	Server          ServerConfig     `toml:"server"`
	Database        database.Config  `toml:"database"`
	Storage         storage.Config   `toml:"storage"`
	API             APIConfig        `toml:"api"`
	Corpus          rules.Config     `toml:"corpus"`
	Pipeline        pipeline.Config  `toml:"pipeline"`
	Retry           retry.Config     `toml:"retry"`
	Inference       inference.Config `toml:"inference"`
	ShutdownTimeout string           `toml:"shutdown_timeout"`
	Version         string           `toml:"version"`
}

// Env returns the BLUECITE_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvBlueciteEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. BLUECITE_CONFIG replaces the default base file path.
// If no base file exists, defaults and environment variables provide all configuration.
func Load() (*Config, error) {
	path := BaseConfigFile
	if v := os.Getenv(EnvBlueciteConfig); v != "" {
		path = v
	}
	return LoadFile(path)
}

// LoadFile is Load with an explicit base file. A missing file is only an error
// when the path was named explicitly.
func LoadFile(path string) (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(path); err == nil {
		loaded, err := load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else if path != BaseConfigFile {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if overlay := overlayPath(); overlay != "" {
		o, err := load(overlay)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", overlay, err)
		}
		cfg.Merge(o)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Corpus.Merge(&overlay.Corpus)
	c.Pipeline.Merge(&overlay.Pipeline)
	c.Retry.Merge(&overlay.Retry)
	c.Inference.Merge(&overlay.Inference)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Corpus.Finalize(corpusEnv); err != nil {
		return fmt.Errorf("corpus: %w", err)
	}
	if err := c.Pipeline.Finalize(pipelineEnv); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	if err := c.Retry.Finalize(retryEnv); err != nil {
		return fmt.Errorf("retry: %w", err)
	}
	if err := c.Inference.Finalize(inferenceEnv); err != nil {
		return fmt.Errorf("inference: %w", err)
	}
	if err := c.Server.CheckWriteBudget(c.Pipeline.CitationTimeoutDuration()); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvBlueciteShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvBlueciteVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvBlueciteEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
