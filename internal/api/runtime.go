package api

import (
	"github.com/JaimeStill/bluecite/internal/config"
	"github.com/JaimeStill/bluecite/internal/infrastructure"
	"github.com/JaimeStill/bluecite/pkg/pagination"
	"github.com/JaimeStill/bluecite/pkg/storage"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination     pagination.Config
	StorageConfig  *storage.Config
	QuotaPerBucket int
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    infra.Logger.With("module", "api"),
			Database:  infra.Database,
			Storage:   infra.Storage,
			Engine:    infra.Engine,
		},
		Pagination:     cfg.API.Pagination,
		StorageConfig:  &cfg.Storage,
		QuotaPerBucket: cfg.Pipeline.QuotaPerBucket,
	}
}
