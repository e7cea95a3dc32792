package api

import (
	"github.com/JaimeStill/bluecite/internal/prompts"
	"github.com/JaimeStill/bluecite/internal/validations"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Prompts     prompts.System
	Validations validations.System
	Rules       *rulesHandler
}

// NewDomain creates all domain systems from the API runtime. The LLM stage
// reads its tier instructions through the prompts system, so active overrides
// take effect on the next citation without a restart.
func NewDomain(runtime *Runtime) *Domain {
	promptsSystem := prompts.New(
		runtime.Database.Connection(),
		runtime.Logger,
		runtime.Pagination,
	)

	validationsSystem := validations.New(
		runtime.Database.Connection(),
		runtime.Engine.Orchestrator(promptsSystem),
		runtime.Storage,
		runtime.StorageConfig,
		runtime.Logger,
		runtime.Pagination,
	)

	return &Domain{
		Prompts:     promptsSystem,
		Validations: validationsSystem,
		Rules: newRulesHandler(
			runtime.Engine.Retriever,
			runtime.QuotaPerBucket,
			runtime.Logger,
		),
	}
}
