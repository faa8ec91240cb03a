package core

import (
	"context"

	"github.com/dalemusser/circlehub/internal/app/policy/circlepolicy"
	"github.com/dalemusser/circlehub/internal/app/system/apperr"
	"github.com/dalemusser/circlehub/internal/app/system/normalize"
	"github.com/dalemusser/circlehub/internal/domain/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventPatch holds the fields UpdateEvent should change; nil means keep.
// An empty GroupID clears the event's group.
type EventPatch struct {
	Name               *string
	Date               *string
	Time               *string
	Location           *string
	Description        *string
	GroupID            *string
	AttendanceRequired *bool
}

// CreateEvent inserts an event in circleID created by actorID. circleID is
// the caller's active circle; an empty value means none is selected.
func (c *Coordinator) CreateEvent(ctx context.Context, actorID, circleID string, f models.EventFields) (models.Event, error) {
	circleID = normalize.ID(circleID)
	if circleID == "" {
		return models.Event{}, apperr.Conflict(apperr.CodeNoActiveCircle, "select a circle before creating an event")
	}
	if err := cleanEventFields(&f); err != nil {
		return models.Event{}, err
	}
	if err := requireMember(ctx, c.st, circleID, actorID); err != nil {
		return models.Event{}, err
	}
	if f.GroupID != nil {
		if err := requireGroupInCircle(ctx, c.st, circleID, *f.GroupID); err != nil {
			return models.Event{}, err
		}
	}

	e, err := c.st.Events.Create(ctx, models.Event{
		ID:          uuid.NewString(),
		EventFields: f,
		CircleID:    circleID,
		CreatedBy:   actorID,
	})
	if err != nil {
		return models.Event{}, apperr.Upstream("creating event", err)
	}
	c.log.Info("event created",
		zap.String("event_id", e.ID), zap.String("circle_id", circleID), zap.String("actor_id", actorID))
	return e, nil
}

// UpdateEvent applies patch. Only the creator or a circle admin may edit.
func (c *Coordinator) UpdateEvent(ctx context.Context, actorID, eventID string, patch EventPatch) (models.Event, error) {
	e, err := c.loadManagedEvent(ctx, actorID, eventID)
	if err != nil {
		return models.Event{}, err
	}

	f := e.EventFields
	if patch.Name != nil {
		f.Name = *patch.Name
	}
	if patch.Date != nil {
		f.Date = *patch.Date
	}
	if patch.Time != nil {
		f.Time = *patch.Time
	}
	if patch.Location != nil {
		f.Location = *patch.Location
	}
	if patch.Description != nil {
		f.Description = *patch.Description
	}
	if patch.GroupID != nil {
		f.GroupID = patch.GroupID
	}
	if patch.AttendanceRequired != nil {
		f.AttendanceRequired = *patch.AttendanceRequired
	}

	if err := cleanEventFields(&f); err != nil {
		return models.Event{}, err
	}
	if f.GroupID != nil {
		if err := requireGroupInCircle(ctx, c.st, e.CircleID, *f.GroupID); err != nil {
			return models.Event{}, err
		}
	}

	updated, err := c.st.Events.Update(ctx, eventID, f)
	if err != nil {
		return models.Event{}, apperr.FromStore(err, "event")
	}
	return updated, nil
}

// DeleteResult reports a completed event deletion.
type DeleteResult struct {
	EventID      string `json:"event_id"`
	UsersCleaned int64  `json:"users_cleaned"`
}

// DeleteEvent removes the event and pulls its id from every user's bookmark
// and attendance sets. A failed cleanup is logged; loaders already tolerate
// the dangling ids.
func (c *Coordinator) DeleteEvent(ctx context.Context, actorID, eventID string) (DeleteResult, error) {
	e, err := c.loadManagedEvent(ctx, actorID, eventID)
	if err != nil {
		return DeleteResult{}, err
	}
	if err := c.st.Events.Delete(ctx, e.ID); err != nil {
		return DeleteResult{}, apperr.FromStore(err, "event")
	}

	res := DeleteResult{EventID: e.ID}
	n, err := c.st.Users.PullEventRefs(ctx, e.ID)
	if err != nil {
		c.log.Warn("event deleted but user references not cleaned",
			zap.String("event_id", e.ID), zap.Error(err))
	} else {
		res.UsersCleaned = n
	}
	c.log.Info("event deleted",
		zap.String("event_id", e.ID), zap.String("actor_id", actorID), zap.Int64("users_cleaned", res.UsersCleaned))
	return res, nil
}

func (c *Coordinator) loadManagedEvent(ctx context.Context, actorID, eventID string) (models.Event, error) {
	e, err := c.st.Events.GetByID(ctx, eventID)
	if err != nil {
		return models.Event{}, apperr.FromStore(err, "event")
	}
	ok, err := circlepolicy.CanManageEvent(ctx, c.st.DB, e, actorID)
	if err != nil {
		return models.Event{}, apperr.Upstream("checking permissions", err)
	}
	if !ok {
		return models.Event{}, apperr.Forbidden("only the event creator or a circle admin can change this event")
	}
	return e, nil
}

// ToggleResult is the state of a bookmark or attendance flag after a toggle.
type ToggleResult struct {
	EventID string `json:"event_id"`
	Active  bool   `json:"active"`
}

// ToggleBookmark flips eventID in actorID's bookmarks.
func (c *Coordinator) ToggleBookmark(ctx context.Context, actorID, eventID string) (ToggleResult, error) {
	return c.toggle(ctx, actorID, eventID, c.st.Users.ToggleBookmark)
}

// ToggleAttendance flips eventID in actorID's attendance set.
func (c *Coordinator) ToggleAttendance(ctx context.Context, actorID, eventID string) (ToggleResult, error) {
	return c.toggle(ctx, actorID, eventID, c.st.Users.ToggleAttendance)
}

func (c *Coordinator) toggle(ctx context.Context, actorID, eventID string, flip func(context.Context, string, string) (bool, error)) (ToggleResult, error) {
	e, err := c.st.Events.GetByID(ctx, eventID)
	if err != nil {
		return ToggleResult{}, apperr.FromStore(err, "event")
	}
	if err := requireMember(ctx, c.st, e.CircleID, actorID); err != nil {
		return ToggleResult{}, err
	}
	on, err := flip(ctx, actorID, e.ID)
	if err != nil {
		return ToggleResult{}, apperr.FromStore(err, "user")
	}
	return ToggleResult{EventID: e.ID, Active: on}, nil
}
