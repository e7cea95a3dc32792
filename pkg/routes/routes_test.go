package routes_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JaimeStill/bluecite/pkg/routes"
)

func TestRegisterNestedGroups(t *testing.T) {
	hit := ""
	handler := func(name string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) { hit = name + ":" + r.PathValue("id") }
	}

	group := routes.Group{
		Prefix: "/validations",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{id}", Handler: handler("run")},
		},
		Children: []routes.Group{{
			Prefix: "/reports",
			Routes: []routes.Route{
				{Method: "POST", Pattern: "/{id}/review", Handler: handler("review")},
			},
		}},
	}

	assert.Equal(t, []string{
		"GET /validations/{id}",
		"POST /validations/reports/{id}/review",
	}, group.Patterns())

	mux := http.NewServeMux()
	routes.Register(mux, group)

	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/validations/reports/r1/review", nil))
	assert.Equal(t, "review:r1", hit)

	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/validations/v9", nil))
	assert.Equal(t, "run:v9", hit)
}
