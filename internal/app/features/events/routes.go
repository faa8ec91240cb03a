// internal/app/features/events/routes.go
package events

import (
	"github.com/dalemusser/circlehub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the /events subrouter. Creating and listing a circle's
// events live under /circles/{circleID}/events.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Get("/mine", h.ServeMine)
	r.Route("/{eventID}", func(r chi.Router) {
		r.Get("/", h.ServeGet)
		r.Patch("/", h.ServeUpdate)
		r.Delete("/", h.ServeDelete)
		r.Get("/attendees", h.ServeAttendees)
		r.Post("/bookmark", h.ServeBookmark)
		r.Post("/attendance", h.ServeAttendance)
	})
	return r
}
