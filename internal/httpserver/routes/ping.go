package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/openeduhub/kidra/internal/httpserver/deps"
	"github.com/openeduhub/kidra/internal/httpserver/handlers"
)

func init() { Register("ping", registerPing) }

func registerPing(r chi.Router, _ deps.Deps) {
	r.Get("/_ping", handlers.Ping)
}
