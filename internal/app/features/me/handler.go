// internal/app/features/me/handler.go
package me

import (
	"context"
	"net/http"

	"github.com/dalemusser/circlehub/internal/app/core"
	"github.com/dalemusser/circlehub/internal/app/policy/circlepolicy"
	"github.com/dalemusser/circlehub/internal/app/system/activecircle"
	"github.com/dalemusser/circlehub/internal/app/system/apperr"
	"github.com/dalemusser/circlehub/internal/app/system/auth"
	"github.com/dalemusser/circlehub/internal/app/system/normalize"
	"github.com/dalemusser/circlehub/internal/app/system/respond"
	"github.com/dalemusser/circlehub/internal/app/system/timeouts"
	"github.com/dalemusser/circlehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the signed-in user's own resources.
type Handler struct {
	DB       *mongo.Database
	Coord    *core.Coordinator
	Resolver *core.MembershipResolver
	Events   *core.EventLoader
	Active   *activecircle.Store
	Log      *zap.Logger
}

func NewHandler(db *mongo.Database, active *activecircle.Store, logger *zap.Logger) *Handler {
	st := core.NewStores(db)
	return &Handler{
		DB:       db,
		Coord:    core.NewCoordinator(st, logger),
		Resolver: core.NewMembershipResolver(st, logger),
		Events:   core.NewEventLoader(st, logger),
		Active:   active,
		Log:      logger,
	}
}

type profileRequest struct {
	LastName      string `json:"last_name"`
	FirstName     string `json:"first_name"`
	LastNameKana  string `json:"last_name_kana"`
	FirstNameKana string `json:"first_name_kana"`
	Affiliation   string `json:"affiliation"`
	Grade         string `json:"grade"`
}

func (p profileRequest) profile() models.Profile {
	return models.Profile{
		LastName:      p.LastName,
		FirstName:     p.FirstName,
		LastNameKana:  p.LastNameKana,
		FirstNameKana: p.FirstNameKana,
		Affiliation:   p.Affiliation,
		Grade:         p.Grade,
	}
}

// ServeRegister handles POST /me. The email comes from the token, not the body.
func (h *Handler) ServeRegister(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.CurrentUser(r)

	var req profileRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Coord.RegisterUser(ctx, id.UserID, id.Email, req.profile())
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, u)
}

// ServeGet handles GET /me.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Coord.GetUser(ctx, auth.UserID(r))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, u)
}

// ServeUpdate handles PUT /me.
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Coord.UpdateProfile(ctx, auth.UserID(r), req.profile())
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, u)
}

// ServeMemberships handles GET /me/memberships.
func (h *Handler) ServeMemberships(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Resolver.ResolveMemberships(ctx, auth.UserID(r))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

type activeCircleResponse struct {
	Circle *core.MembershipEntry `json:"circle"`
}

// ServeActiveCircle handles GET /me/active-circle. When the stored selection
// is missing or stale the first membership is returned instead.
func (h *Handler) ServeActiveCircle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	entry, err := h.Resolver.ResolveActiveCircle(ctx, auth.UserID(r), h.Active.Get(r))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, activeCircleResponse{Circle: entry})
}

type setActiveCircleRequest struct {
	CircleID string `json:"circle_id"`
}

// ServeSetActiveCircle handles PUT /me/active-circle. An empty circle_id
// clears the selection.
func (h *Handler) ServeSetActiveCircle(w http.ResponseWriter, r *http.Request) {
	var req setActiveCircleRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	circleID := normalize.ID(req.CircleID)

	if circleID == "" {
		if err := h.Active.Clear(w, r); err != nil {
			respond.Error(w, h.Log, err)
			return
		}
		respond.JSON(w, http.StatusOK, activeCircleResponse{})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	uid := auth.UserID(r)
	ok, err := circlepolicy.IsMember(ctx, h.DB, circleID, uid)
	if err != nil {
		respond.Error(w, h.Log, apperr.Upstream("checking membership", err))
		return
	}
	if !ok {
		respond.Error(w, h.Log, apperr.Forbidden("not a member of this circle"))
		return
	}

	entry, err := h.Resolver.ResolveActiveCircle(ctx, uid, circleID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if err := h.Active.Set(w, r, circleID); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, activeCircleResponse{Circle: entry})
}

// ServeBookmarks handles GET /me/bookmarks.
func (h *Handler) ServeBookmarks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	events, err := h.Events.ListBookmarked(ctx, auth.UserID(r))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"events": events})
}
