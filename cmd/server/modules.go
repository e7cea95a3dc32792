package main

import (
	"encoding/json"
	"net/http"

	"github.com/JaimeStill/bluecite/internal/api"
	"github.com/JaimeStill/bluecite/internal/config"
	"github.com/JaimeStill/bluecite/internal/infrastructure"
	"github.com/JaimeStill/bluecite/pkg/module"
)

type Modules struct {
	API *module.Module
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiModule, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}

	return &Modules{API: apiModule}, nil
}

func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
}

type readiness struct {
	Status  string   `json:"status"`
	Pending []string `json:"pending,omitempty"`
}

func buildRouter(infra *infrastructure.Infrastructure) *module.Router {
	router := module.NewRouter()

	router.HandleNative("GET /healthz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, readiness{Status: "ok"})
	}))

	router.HandleNative("GET /readyz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !infra.Lifecycle.Ready() {
			writeStatus(w, http.StatusServiceUnavailable, readiness{
				Status:  "not ready",
				Pending: infra.Lifecycle.Pending(),
			})
			return
		}
		writeStatus(w, http.StatusOK, readiness{Status: "ready"})
	}))

	router.HandleNative("GET /metrics", infra.Engine.Metrics.Handler())

	return router
}

func writeStatus(w http.ResponseWriter, status int, body readiness) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
