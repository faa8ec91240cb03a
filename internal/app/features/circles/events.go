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

// ServeListEvents handles GET /circles/{circleID}/events.
func (h *Handler) ServeListEvents(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Events.ListEvents(ctx, chi.URLParam(r, "circleID"), auth.UserID(r))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

type eventRequest struct {
	Name               string  `json:"name"`
	Date               string  `json:"date"`
	Time               string  `json:"time"`
	Location           string  `json:"location"`
	Description        string  `json:"description"`
	GroupID            *string `json:"group_id"`
	AttendanceRequired bool    `json:"attendance_required"`
}

// ServeCreateEvent handles POST /circles/{circleID}/events.
func (h *Handler) ServeCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	e, err := h.Coord.CreateEvent(ctx, auth.UserID(r), chi.URLParam(r, "circleID"), models.EventFields{
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
	respond.JSON(w, http.StatusCreated, e)
}
