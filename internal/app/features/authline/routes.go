// internal/app/features/authline/routes.go
package authline

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the public LINE login endpoints on r. limit guards
// both endpoints and may be nil.
func MountRoutes(r chi.Router, h *Handler, limit func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		if limit != nil {
			r.Use(limit)
		}
		// GET /api/auth/line - start LINE login
		r.Get("/api/auth/line", h.ServeLogin)
		// POST /api/auth/line-callback - finish LINE login, returns a bearer token
		r.Post("/api/auth/line-callback", h.ServeCallback)
	})
}
