// internal/app/features/assist/routes.go
package assist

import (
	"net/http"

	"github.com/dalemusser/circlehub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers POST /rewrite and POST /make_event on r. limit
// wraps both endpoints and may be nil.
func MountRoutes(r chi.Router, h *Handler, limit func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSignedIn)
		if limit != nil {
			r.Use(limit)
		}
		r.Post("/rewrite", h.ServeRewrite)
		r.Post("/make_event", h.ServeMakeEvent)
	})
}
