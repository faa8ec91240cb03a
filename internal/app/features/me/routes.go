// internal/app/features/me/routes.go
package me

import (
	"github.com/dalemusser/circlehub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the /me subrouter. Every route requires a signed-in caller.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Post("/", h.ServeRegister)
	r.Get("/", h.ServeGet)
	r.Put("/", h.ServeUpdate)
	r.Get("/memberships", h.ServeMemberships)
	r.Get("/active-circle", h.ServeActiveCircle)
	r.Put("/active-circle", h.ServeSetActiveCircle)
	r.Get("/bookmarks", h.ServeBookmarks)
	return r
}
