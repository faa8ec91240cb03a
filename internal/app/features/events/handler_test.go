package events_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/circlehub/internal/app/core"
	"github.com/dalemusser/circlehub/internal/app/features/events"
	"github.com/dalemusser/circlehub/internal/app/system/timeouts"
	"github.com/dalemusser/circlehub/internal/domain/models"
	"github.com/dalemusser/circlehub/internal/testutil"
	"go.uber.org/zap"
)

func newRouter(t *testing.T) (http.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return events.Routes(events.NewHandler(db, zap.NewNop())), testutil.NewFixtures(t, db)
}

func do(h http.Handler, r *http.Request) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

type world struct {
	circle models.Circle
	group  models.Group
	event  models.Event
}

func seed(t *testing.T, fx *testutil.Fixtures) world {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateUser(ctx, "creator", "Sato", "Hana")
	fx.CreateUser(ctx, "member", "Suzuki", "Ken")
	c := fx.CreateCircle(ctx, "Tennis", "TEN001", "creator")
	fx.CreateMembership(ctx, "creator", c.ID, models.RoleMember)
	fx.CreateMembership(ctx, "member", c.ID, models.RoleMember)
	g := fx.CreateGroup(ctx, c.ID, "Beginners")
	e := fx.CreateEvent(ctx, c.ID, "creator", "Practice", "2026-05-01", "10:00", &g.ID)
	return world{circle: c, group: g, event: e}
}

func TestGetEvent(t *testing.T) {
	h, fx := newRouter(t)
	w := seed(t, fx)

	rec := do(h, testutil.NewAuthenticatedRequest(http.MethodGet, "/"+w.event.ID, "member", nil))
	rec.AssertStatus(t, http.StatusOK)
	var v core.EventView
	rec.DecodeJSON(t, &v)
	if v.GroupName == nil || *v.GroupName != "Beginners" {
		t.Errorf("group name: got %v", v.GroupName)
	}

	rec = do(h, testutil.NewAuthenticatedRequest(http.MethodGet, "/missing", "member", nil))
	rec.AssertStatus(t, http.StatusNotFound)

	rec = do(h, testutil.NewAuthenticatedRequest(http.MethodGet, "/"+w.event.ID, "outsider", nil))
	rec.AssertStatus(t, http.StatusForbidden)
}

func TestToggleAndAttendees(t *testing.T) {
	h, fx := newRouter(t)
	w := seed(t, fx)
	path := "/" + w.event.ID

	rec := do(h, testutil.NewAuthenticatedRequest(http.MethodPost, path+"/attendance", "member", nil))
	rec.AssertStatus(t, http.StatusOK)
	var tr core.ToggleResult
	rec.DecodeJSON(t, &tr)
	if !tr.Active {
		t.Error("expected attendance on")
	}

	rec = do(h, testutil.NewAuthenticatedRequest(http.MethodPost, path+"/bookmark", "member", nil))
	rec.AssertStatus(t, http.StatusOK)

	rec = do(h, testutil.NewAuthenticatedRequest(http.MethodGet, path+"/attendees", "member", nil))
	rec.AssertStatus(t, http.StatusForbidden)

	rec = do(h, testutil.NewAuthenticatedRequest(http.MethodGet, path+"/attendees", "creator", nil))
	rec.AssertStatus(t, http.StatusOK)
	var body struct {
		Attendees []core.Attendee `json:"attendees"`
	}
	rec.DecodeJSON(t, &body)
	if len(body.Attendees) != 1 || body.Attendees[0].DisplayName != "Suzuki Ken" {
		t.Errorf("attendees: got %+v", body.Attendees)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	h, fx := newRouter(t)
	w := seed(t, fx)
	path := "/" + w.event.ID

	rec := do(h, testutil.NewAuthenticatedRequest(http.MethodPatch, path, "member", map[string]any{"name": "Hijack"}))
	rec.AssertStatus(t, http.StatusForbidden)

	rec = do(h, testutil.NewAuthenticatedRequest(http.MethodPatch, path, "creator", map[string]any{
		"name": "Match", "group_id": "",
	}))
	rec.AssertStatus(t, http.StatusOK)
	var e models.Event
	rec.DecodeJSON(t, &e)
	if e.Name != "Match" || e.GroupID != nil || e.Date != "2026-05-01" {
		t.Errorf("updated: got %+v", e)
	}

	rec = do(h, testutil.NewAuthenticatedRequest(http.MethodGet, "/mine", "creator", nil))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, w.event.ID)

	rec = do(h, testutil.NewAuthenticatedRequest(http.MethodDelete, path, "member", nil))
	rec.AssertStatus(t, http.StatusForbidden)

	rec = do(h, testutil.NewAuthenticatedRequest(http.MethodDelete, path, "creator", nil))
	rec.AssertStatus(t, http.StatusOK)

	rec = do(h, testutil.NewAuthenticatedRequest(http.MethodGet, path, "creator", nil))
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestRequiresSignIn(t *testing.T) {
	h, _ := newRouter(t)

	rec := do(h, testutil.NewRequest(http.MethodGet, "/mine"))
	rec.AssertStatus(t, http.StatusUnauthorized)
}

// Deleting an event also rewrites user attendance lists, so it runs under the
// long deadline even when the list deadline is too short to finish anything.
func TestDeleteRunsUnderLongDeadline(t *testing.T) {
	h, fx := newRouter(t)
	w := seed(t, fx)
	path := "/" + w.event.ID

	timeouts.Configure(timeouts.Config{Medium: time.Nanosecond})
	t.Cleanup(timeouts.Reset)

	rec := do(h, testutil.NewAuthenticatedRequest(http.MethodDelete, path, "creator", nil))
	rec.AssertStatus(t, http.StatusOK)

	rec = do(h, testutil.NewAuthenticatedRequest(http.MethodGet, path, "creator", nil))
	rec.AssertStatus(t, http.StatusNotFound)
}
