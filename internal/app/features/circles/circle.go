package circles

import (
	"context"
	"net/http"

	"github.com/dalemusser/circlehub/internal/app/core"
	"github.com/dalemusser/circlehub/internal/app/system/auth"
	"github.com/dalemusser/circlehub/internal/app/system/respond"
	"github.com/dalemusser/circlehub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type createRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Groups      []string `json:"groups"`
}

// ServeCreate handles POST /circles. The new circle becomes the caller's
// active circle.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	res, err := h.Coord.CreateCircle(ctx, auth.UserID(r), core.CircleInput{
		Name:        req.Name,
		Description: req.Description,
		GroupNames:  req.Groups,
	})
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.setActive(w, r, res.Circle.ID)
	respond.JSON(w, http.StatusCreated, res)
}

type joinRequest struct {
	InvitationCode string `json:"invitation_code"`
}

// ServeJoin handles POST /circles/join. The joined circle becomes the
// caller's active circle.
func (h *Handler) ServeJoin(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	res, err := h.Coord.JoinCircle(ctx, auth.UserID(r), req.InvitationCode)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	h.setActive(w, r, res.Circle.ID)
	respond.JSON(w, http.StatusCreated, res)
}

// ServeGet handles GET /circles/{circleID}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	agg, err := h.Circles.LoadCircleAs(ctx, auth.UserID(r), chi.URLParam(r, "circleID"))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, agg)
}

type updateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ServeUpdate handles PATCH /circles/{circleID}.
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, err := h.Circles.UpdateCircle(ctx, auth.UserID(r), chi.URLParam(r, "circleID"), req.Name, req.Description)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, c)
}

// setActive is best effort; the write already succeeded.
func (h *Handler) setActive(w http.ResponseWriter, r *http.Request, circleID string) {
	if h.Active == nil {
		return
	}
	if err := h.Active.Set(w, r, circleID); err != nil {
		h.Log.Warn("could not store active circle", zap.String("circle_id", circleID), zap.Error(err))
	}
}
