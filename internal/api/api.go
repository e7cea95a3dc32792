// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"net/http"

	"github.com/JaimeStill/bluecite/internal/config"
	"github.com/JaimeStill/bluecite/internal/infrastructure"
	"github.com/JaimeStill/bluecite/pkg/middleware"
	"github.com/JaimeStill/bluecite/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	mux := http.NewServeMux()
	registerRoutes(mux, domain)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.MaxBytes(cfg.API.MaxRequestBytes()))
	m.Use(middleware.Logger(runtime.Logger))

	return m, nil
}
