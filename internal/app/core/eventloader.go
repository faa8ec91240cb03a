package core

import (
	"context"
	"errors"
	"sort"

	"github.com/dalemusser/circlehub/internal/app/policy/circlepolicy"
	"github.com/dalemusser/circlehub/internal/app/system/apperr"
	"github.com/dalemusser/circlehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EventView is an event decorated for one viewer.
type EventView struct {
	models.Event
	GroupName    *string `json:"group_name"`
	IsBookmarked bool    `json:"is_bookmarked"`
	IsAttending  bool    `json:"is_attending"`
}

// EventList is the result of ListEvents.
type EventList struct {
	Events   []EventView `json:"events"`
	Problems []Problem   `json:"problems,omitempty"`
}

// Attendee is one user attending an event.
type Attendee struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// EventLoader reads events joined with group names and the viewer's flags.
type EventLoader struct {
	st  Stores
	log *zap.Logger
}

func NewEventLoader(st Stores, logger *zap.Logger) *EventLoader {
	return &EventLoader{st: st, log: logger}
}

// ListEvents returns the circle's events in date/time order, decorated for
// userID. The user document is read once for all events. A group id that
// does not name a group of this circle leaves GroupName nil.
func (l *EventLoader) ListEvents(ctx context.Context, circleID, userID string) (EventList, error) {
	if err := requireMember(ctx, l.st, circleID, userID); err != nil {
		return EventList{}, err
	}

	events, err := l.st.Events.ListByCircle(ctx, circleID)
	if err != nil {
		return EventList{}, apperr.Upstream("loading events", err)
	}
	out := EventList{Events: make([]EventView, 0, len(events))}

	viewer, problem := l.loadViewer(ctx, userID)
	if problem != nil {
		out.Problems = append(out.Problems, *problem)
	}

	names, problem := l.groupNames(ctx, circleID, events)
	if problem != nil {
		out.Problems = append(out.Problems, *problem)
	}

	for _, e := range events {
		out.Events = append(out.Events, decorate(e, viewer, names))
	}
	return out, nil
}

// GetEvent returns one event decorated for userID, who must belong to the
// event's circle.
func (l *EventLoader) GetEvent(ctx context.Context, eventID, userID string) (EventView, error) {
	e, err := l.st.Events.GetByID(ctx, eventID)
	if err != nil {
		return EventView{}, apperr.FromStore(err, "event")
	}
	if err := requireMember(ctx, l.st, e.CircleID, userID); err != nil {
		return EventView{}, err
	}

	viewer, _ := l.loadViewer(ctx, userID)
	names, _ := l.groupNames(ctx, e.CircleID, []models.Event{e})
	return decorate(e, viewer, names), nil
}

// ListEventsCreatedBy returns every event userID created, across circles.
func (l *EventLoader) ListEventsCreatedBy(ctx context.Context, userID string) ([]models.Event, error) {
	events, err := l.st.Events.ListByCreator(ctx, userID)
	if err != nil {
		return nil, apperr.Upstream("loading events", err)
	}
	return events, nil
}

// ListAttendees returns the users attending eventID. Only the event's
// creator or an admin of its circle may see the list.
func (l *EventLoader) ListAttendees(ctx context.Context, actorID, eventID string) ([]Attendee, error) {
	e, err := l.st.Events.GetByID(ctx, eventID)
	if err != nil {
		return nil, apperr.FromStore(err, "event")
	}
	ok, err := circlepolicy.CanManageEvent(ctx, l.st.DB, e, actorID)
	if err != nil {
		return nil, apperr.Upstream("checking permissions", err)
	}
	if !ok {
		return nil, apperr.Forbidden("only the event creator or a circle admin can view attendees")
	}

	users, err := l.st.Users.ListAttending(ctx, eventID)
	if err != nil {
		return nil, apperr.Upstream("loading attendees", err)
	}
	out := make([]Attendee, 0, len(users))
	for _, u := range users {
		out = append(out, Attendee{ID: u.ID, DisplayName: u.DisplayName()})
	}
	return out, nil
}

// ListBookmarked resolves the user's bookmark set to events. Ids of deleted
// events are dropped.
func (l *EventLoader) ListBookmarked(ctx context.Context, userID string) ([]models.Event, error) {
	u, err := l.st.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, apperr.FromStore(err, "user")
	}
	byID, err := l.st.Events.GetMany(ctx, uniqueStrings(u.BookmarkedEvents))
	if err != nil {
		return nil, apperr.Upstream("loading bookmarked events", err)
	}

	out := make([]models.Event, 0, len(byID))
	for _, e := range byID {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// loadViewer reads the requesting user. A missing or unreadable user yields
// nil (all flags false) plus a recorded problem.
func (l *EventLoader) loadViewer(ctx context.Context, userID string) (*models.User, *Problem) {
	u, err := l.st.Users.GetByID(ctx, userID)
	if err == nil {
		return &u, nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &Problem{Kind: ProblemMissingUser, Ref: userID, Reason: "user not found"}
	}
	l.log.Warn("viewer lookup failed; event flags default to false",
		zap.String("user_id", userID), zap.Error(err))
	return nil, &Problem{Kind: ProblemLookupFailed, Ref: userID, Reason: err.Error()}
}

// groupNames maps the circle's group ids to names. If the list query fails
// it falls back to a direct lookup of the referenced ids, keeping only
// groups that belong to circleID.
func (l *EventLoader) groupNames(ctx context.Context, circleID string, events []models.Event) (map[string]string, *Problem) {
	names := map[string]string{}

	groups, err := l.st.Groups.ListByCircle(ctx, circleID)
	if err == nil {
		for _, g := range groups {
			names[g.ID] = g.Name
		}
		return names, nil
	}
	l.log.Warn("group list unavailable; resolving referenced groups directly",
		zap.String("circle_id", circleID), zap.Error(err))

	var ids []string
	for _, e := range events {
		if e.GroupID != nil {
			ids = append(ids, *e.GroupID)
		}
	}
	byID, err := l.st.Groups.GetMany(ctx, uniqueStrings(ids))
	if err != nil {
		return names, &Problem{Kind: ProblemLookupFailed, Ref: "groups", Reason: err.Error()}
	}
	for id, g := range byID {
		if g.CircleID == circleID {
			names[id] = g.Name
		}
	}
	return names, nil
}

func decorate(e models.Event, viewer *models.User, groupNames map[string]string) EventView {
	v := EventView{Event: e}
	if e.GroupID != nil {
		if name, ok := groupNames[*e.GroupID]; ok {
			n := name
			v.GroupName = &n
		}
	}
	if viewer != nil {
		v.IsBookmarked = viewer.HasBookmarked(e.ID)
		v.IsAttending = viewer.IsAttending(e.ID)
	}
	return v
}
