package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/openeduhub/kidra/internal/httpserver/deps"
	"github.com/openeduhub/kidra/internal/httpserver/handlers"
)

func init() { Register("openapi", registerOpenAPI) }

func registerOpenAPI(r chi.Router, d deps.Deps) {
	h := handlers.OpenAPI(d)
	r.Get("/v3/api-docs", h)
	r.Get("/openapi.json", h)
}
