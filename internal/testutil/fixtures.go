package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/circlehub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that call a handler method directly.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

// Fixtures inserts documents directly, bypassing the services, so tests can
// set up states (including inconsistent ones) precisely.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a user whose id is uid.
func (f *Fixtures) CreateUser(ctx context.Context, uid, lastName, firstName string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID: uid,
		Profile: models.Profile{
			LastName:  lastName,
			FirstName: firstName,
		},
		Email:            uid + "@example.test",
		BookmarkedEvents: []string{},
		AttendingEvents:  []string{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateCircle inserts a circle with the given invitation code.
func (f *Fixtures) CreateCircle(ctx context.Context, name, code, createdBy string) models.Circle {
	f.t.Helper()

	now := time.Now().UTC()
	c := models.Circle{
		ID:             uuid.NewString(),
		Name:           name,
		NameCI:         text.Fold(name),
		InvitationCode: code,
		CreatedBy:      createdBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := f.db.Collection("circles").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test circle: %v", err)
	}
	return c
}

// CreateMembership inserts a membership with the deterministic id.
func (f *Fixtures) CreateMembership(ctx context.Context, userID, circleID string, role models.Role, groups ...string) models.CircleMembership {
	f.t.Helper()

	if groups == nil {
		groups = []string{}
	}
	m := models.CircleMembership{
		ID:       models.MembershipID(userID, circleID),
		UserID:   userID,
		CircleID: circleID,
		Role:     role,
		Groups:   groups,
		JoinedAt: time.Now().UTC(),
	}
	if _, err := f.db.Collection("circle_memberships").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test membership: %v", err)
	}
	return m
}

// CreateGroup inserts a group in circleID.
func (f *Fixtures) CreateGroup(ctx context.Context, circleID, name string) models.Group {
	f.t.Helper()

	g := models.Group{
		ID:        uuid.NewString(),
		Name:      name,
		NameCI:    text.Fold(name),
		CircleID:  circleID,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := f.db.Collection("groups").InsertOne(ctx, g); err != nil {
		f.t.Fatalf("failed to create test group: %v", err)
	}
	return g
}

// CreateEvent inserts an event. groupID may be nil.
func (f *Fixtures) CreateEvent(ctx context.Context, circleID, createdBy, name, date, tm string, groupID *string) models.Event {
	f.t.Helper()

	now := time.Now().UTC()
	e := models.Event{
		ID: uuid.NewString(),
		EventFields: models.EventFields{
			Name:    name,
			Date:    date,
			Time:    tm,
			GroupID: groupID,
		},
		CircleID:  circleID,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("events").InsertOne(ctx, e); err != nil {
		f.t.Fatalf("failed to create test event: %v", err)
	}
	return e
}

// SetUserEvents overwrites a user's bookmark and attendance sets.
func (f *Fixtures) SetUserEvents(ctx context.Context, uid string, bookmarked, attending []string) {
	f.t.Helper()

	if bookmarked == nil {
		bookmarked = []string{}
	}
	if attending == nil {
		attending = []string{}
	}
	_, err := f.db.Collection("users").UpdateByID(ctx, uid, map[string]any{
		"$set": map[string]any{"bookmarked_events": bookmarked, "attending_events": attending},
	})
	if err != nil {
		f.t.Fatalf("failed to set user events: %v", err)
	}
}

// StrPtr returns &s.
func StrPtr(s string) *string { return &s }
