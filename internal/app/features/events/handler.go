// internal/app/features/events/handler.go
package events

import (
	"context"
	"net/http"

	"github.com/dalemusser/circlehub/internal/app/core"
	"github.com/dalemusser/circlehub/internal/app/system/auth"
	"github.com/dalemusser/circlehub/internal/app/system/respond"
	"github.com/dalemusser/circlehub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves single-event reads and writes.
type Handler struct {
	Coord  *core.Coordinator
	Events *core.EventLoader
	Log    *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	st := core.NewStores(db)
	return &Handler{
		Coord:  core.NewCoordinator(st, logger),
		Events: core.NewEventLoader(st, logger),
		Log:    logger,
	}
}

// ServeMine handles GET /events/mine.
func (h *Handler) ServeMine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	events, err := h.Events.ListEventsCreatedBy(ctx, auth.UserID(r))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"events": events})
}

// ServeGet handles GET /events/{eventID}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	v, err := h.Events.GetEvent(ctx, chi.URLParam(r, "eventID"), auth.UserID(r))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, v)
}

type patchRequest struct {
	Name               *string `json:"name"`
	Date               *string `json:"date"`
	Time               *string `json:"time"`
	Location           *string `json:"location"`
	Description        *string `json:"description"`
	GroupID            *string `json:"group_id"`
	AttendanceRequired *bool   `json:"attendance_required"`
}

// ServeUpdate handles PATCH /events/{eventID}. Omitted fields are kept;
// "group_id": "" clears the group.
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	var req patchRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	e, err := h.Coord.UpdateEvent(ctx, auth.UserID(r), chi.URLParam(r, "eventID"), core.EventPatch{
		Name:               req.Name,
		Date:               req.Date,
		Time:               req.Time,
		Location:           req.Location,
		Description:        req.Description,
		GroupID:            req.GroupID,
		AttendanceRequired: req.AttendanceRequired,
	})
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, e)
}

// ServeDelete handles DELETE /events/{eventID}.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	res, err := h.Coord.DeleteEvent(ctx, auth.UserID(r), chi.URLParam(r, "eventID"))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, res)
}

// ServeAttendees handles GET /events/{eventID}/attendees.
func (h *Handler) ServeAttendees(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Events.ListAttendees(ctx, auth.UserID(r), chi.URLParam(r, "eventID"))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"attendees": list})
}

// ServeBookmark handles POST /events/{eventID}/bookmark.
func (h *Handler) ServeBookmark(w http.ResponseWriter, r *http.Request) {
	h.serveToggle(w, r, h.Coord.ToggleBookmark)
}

// ServeAttendance handles POST /events/{eventID}/attendance.
func (h *Handler) ServeAttendance(w http.ResponseWriter, r *http.Request) {
	h.serveToggle(w, r, h.Coord.ToggleAttendance)
}

func (h *Handler) serveToggle(w http.ResponseWriter, r *http.Request, flip func(context.Context, string, string) (core.ToggleResult, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	res, err := flip(ctx, auth.UserID(r), chi.URLParam(r, "eventID"))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, res)
}
