// internal/app/features/circles/routes.go
package circles

import (
	"github.com/dalemusser/circlehub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the /circles subrouter. Every route requires a signed-in
// caller; membership and admin checks happen per operation.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Post("/", h.ServeCreate)
	r.Post("/join", h.ServeJoin)

	r.Route("/{circleID}", func(r chi.Router) {
		r.Get("/", h.ServeGet)
		r.Patch("/", h.ServeUpdate)

		r.Post("/groups", h.ServeAddGroup)
		r.Patch("/groups/{groupID}", h.ServeRenameGroup)

		r.Put("/members/{memberID}/role", h.ServeUpdateRole)
		r.Post("/members/{memberID}/groups/{groupID}/toggle", h.ServeToggleGroup)

		r.Get("/events", h.ServeListEvents)
		r.Post("/events", h.ServeCreateEvent)
	})
	return r
}
