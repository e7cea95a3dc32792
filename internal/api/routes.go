package api

import (
	"net/http"

	"github.com/JaimeStill/bluecite/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain) {
	routes.Register(
		mux,
		domain.Prompts.Handler().Routes(),
		domain.Validations.Handler().Routes(),
		domain.Rules.routes(),
	)
}
