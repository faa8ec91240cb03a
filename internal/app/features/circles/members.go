package circles

import (
	"context"
	"net/http"

	"github.com/dalemusser/circlehub/internal/app/system/auth"
	"github.com/dalemusser/circlehub/internal/app/system/respond"
	"github.com/dalemusser/circlehub/internal/app/system/timeouts"
	"github.com/dalemusser/circlehub/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

type roleRequest struct {
	Role string `json:"role"`
}

// ServeUpdateRole handles PUT /circles/{circleID}/members/{memberID}/role.
func (h *Handler) ServeUpdateRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	m, err := h.Circles.UpdateRole(ctx, auth.UserID(r),
		chi.URLParam(r, "circleID"), chi.URLParam(r, "memberID"), models.Role(req.Role))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, m)
}

// ServeToggleGroup handles
// POST /circles/{circleID}/members/{memberID}/groups/{groupID}/toggle.
func (h *Handler) ServeToggleGroup(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	m, err := h.Circles.ToggleMemberGroup(ctx, auth.UserID(r),
		chi.URLParam(r, "circleID"), chi.URLParam(r, "memberID"), chi.URLParam(r, "groupID"))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, m)
}

type groupRequest struct {
	Name string `json:"name"`
}

// ServeAddGroup handles POST /circles/{circleID}/groups.
func (h *Handler) ServeAddGroup(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	g, err := h.Circles.AddGroup(ctx, auth.UserID(r), chi.URLParam(r, "circleID"), req.Name)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, g)
}

// ServeRenameGroup handles PATCH /circles/{circleID}/groups/{groupID}.
func (h *Handler) ServeRenameGroup(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	g, err := h.Circles.RenameGroup(ctx, auth.UserID(r),
		chi.URLParam(r, "circleID"), chi.URLParam(r, "groupID"), req.Name)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, g)
}
