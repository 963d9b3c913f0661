package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/openeduhub/kidra/internal/config"
	"github.com/openeduhub/kidra/internal/httpserver/deps"
	"github.com/openeduhub/kidra/internal/httpserver/handlers"
)

func init() { Register("services", registerServices) }

// registerServices exposes POST /<name> for every backend.
// Static routes are fixed at startup; the dynamic route resolves the name per request.
func registerServices(r chi.Router, d deps.Deps) {
	if d.RoutingMode == config.RoutingStatic {
		for _, name := range d.Registry.Names() {
			r.Post("/"+name, handlers.ForwardTo(d, name))
		}
		// any other single segment answers like an unknown name in dynamic mode
		r.Post("/{service}", handlers.UnknownService)
		return
	}
	r.Post("/{service}", handlers.Forward(d))
}
