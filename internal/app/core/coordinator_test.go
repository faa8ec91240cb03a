package core_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/dalemusser/circlehub/internal/app/core"
	"github.com/dalemusser/circlehub/internal/app/system/apperr"
	"github.com/dalemusser/circlehub/internal/domain/models"
	"github.com/dalemusser/circlehub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
)

func countMemberships(t *testing.T, s services, ctx context.Context, circleID string) int64 {
	t.Helper()
	n, err := s.db.Collection("circle_memberships").CountDocuments(ctx, bson.M{"circle_id": circleID})
	if err != nil {
		t.Fatalf("count memberships: %v", err)
	}
	return n
}

func TestNewInvitationCode_Format(t *testing.T) {
	re := regexp.MustCompile(`^[0-9A-Z]{6}$`)
	for i := 0; i < 50; i++ {
		code, err := core.NewInvitationCode()
		if err != nil {
			t.Fatalf("NewInvitationCode failed: %v", err)
		}
		if !re.MatchString(code) {
			t.Fatalf("code %q does not match %s", code, re)
		}
	}
}

func TestCreateCircle(t *testing.T) {
	s := newServices(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	res, err := s.coord.CreateCircle(ctx, "u1", core.CircleInput{
		Name:        "  Tennis   Club ",
		Description: "<script>x</script>Weekly",
		GroupNames:  []string{"Beginners", "beginners", " ", "Advanced"},
	})
	if err != nil {
		t.Fatalf("CreateCircle failed: %v", err)
	}
	if res.Circle.Name != "Tennis Club" {
		t.Errorf("name: got %q", res.Circle.Name)
	}
	if res.Circle.Description != "Weekly" {
		t.Errorf("description: got %q", res.Circle.Description)
	}
	if len(res.Circle.InvitationCode) != 6 {
		t.Errorf("invitation code: got %q", res.Circle.InvitationCode)
	}
	if res.Membership.Role != models.RoleAdmin || res.Membership.UserID != "u1" {
		t.Errorf("membership: got %+v", res.Membership)
	}
	if len(res.Groups) != 2 || len(res.FailedGroups) != 0 {
		t.Errorf("groups: got %d created, %d failed", len(res.Groups), len(res.FailedGroups))
	}

	_, err = s.coord.CreateCircle(ctx, "u1", core.CircleInput{Name: "  "})
	wantKind(t, err, apperr.KindInvalidInput)
}

func TestCreateCircle_RetriesCodeCollision(t *testing.T) {
	s := newServices(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s.fx.CreateCircle(ctx, "Existing", "AAAAAA", "u0")

	codes := []string{"AAAAAA", "AAAAAA", "BBBBBB"}
	calls := 0
	s.coord.SetCodeGenerator(func() (string, error) {
		code := codes[calls]
		calls++
		return code, nil
	})

	res, err := s.coord.CreateCircle(ctx, "u1", core.CircleInput{Name: "New"})
	if err != nil {
		t.Fatalf("CreateCircle failed: %v", err)
	}
	if res.Circle.InvitationCode != "BBBBBB" {
		t.Errorf("code: got %q, want BBBBBB", res.Circle.InvitationCode)
	}
	if calls != 3 {
		t.Errorf("generator calls: got %d, want 3", calls)
	}
}

func TestCreateCircle_CodeExhausted(t *testing.T) {
	s := newServices(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s.fx.CreateCircle(ctx, "Existing", "AAAAAA", "u0")
	s.coord.SetCodeGenerator(func() (string, error) { return "AAAAAA", nil })

	_, err := s.coord.CreateCircle(ctx, "u1", core.CircleInput{Name: "New"})
	wantKind(t, err, apperr.KindConflict)
	wantCode(t, err, apperr.CodeCodeExhausted)

	n, err := s.db.Collection("circles").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("count circles: %v", err)
	}
	if n != 1 {
		t.Errorf("circles: got %d, want 1", n)
	}
}

func TestScenario_JoinCircle(t *testing.T) {
	s := newServices(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := s.fx.CreateCircle(ctx, "Tennis", "ABC123", "userA")
	s.fx.CreateMembership(ctx, "userA", c.ID, models.RoleAdmin)

	res, err := s.coord.JoinCircle(ctx, "userB", " abc123 ")
	if err != nil {
		t.Fatalf("JoinCircle failed: %v", err)
	}
	if res.Circle.ID != c.ID || res.Membership.Role != models.RoleMember {
		t.Errorf("join result: got %+v", res)
	}
	if n := countMemberships(t, s, ctx, c.ID); n != 2 {
		t.Fatalf("memberships after join: got %d, want 2", n)
	}

	_, err = s.coord.JoinCircle(ctx, "userB", "ABC123")
	wantKind(t, err, apperr.KindConflict)
	wantCode(t, err, apperr.CodeAlreadyMember)
	if n := countMemberships(t, s, ctx, c.ID); n != 2 {
		t.Errorf("memberships after repeat join: got %d, want 2", n)
	}
}

func TestJoinCircle_InvalidCode(t *testing.T) {
	s := newServices(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := s.coord.JoinCircle(ctx, "userB", "NOPE00")
	wantKind(t, err, apperr.KindConflict)
	wantCode(t, err, apperr.CodeInvalidCode)

	_, err = s.coord.JoinCircle(ctx, "userB", "   ")
	wantKind(t, err, apperr.KindInvalidInput)

	n, err := s.db.Collection("circle_memberships").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("count memberships: %v", err)
	}
	if n != 0 {
		t.Errorf("memberships: got %d, want 0", n)
	}
}

func TestCreateEvent(t *testing.T) {
	s := newServices(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := s.fx.CreateCircle(ctx, "Tennis", "TEN001", "u1")
	other := s.fx.CreateCircle(ctx, "Chess", "CHS001", "u2")
	s.fx.CreateMembership(ctx, "u1", c.ID, models.RoleMember)
	g := s.fx.CreateGroup(ctx, c.ID, "Beginners")
	foreign := s.fx.CreateGroup(ctx, other.ID, "Openings")

	fields := models.EventFields{Name: "Practice", Date: "2026-05-01", Time: "18:30", GroupID: &g.ID}

	t.Run("no active circle", func(t *testing.T) {
		_, err := s.coord.CreateEvent(ctx, "u1", "", fields)
		wantKind(t, err, apperr.KindConflict)
		wantCode(t, err, apperr.CodeNoActiveCircle)
	})

	t.Run("non-member", func(t *testing.T) {
		_, err := s.coord.CreateEvent(ctx, "outsider", c.ID, fields)
		wantKind(t, err, apperr.KindForbidden)
	})

	t.Run("bad date", func(t *testing.T) {
		f := fields
		f.Date = "05/01/2026"
		_, err := s.coord.CreateEvent(ctx, "u1", c.ID, f)
		wantKind(t, err, apperr.KindInvalidInput)
	})

	t.Run("bad time", func(t *testing.T) {
		f := fields
		f.Time = "25:00"
		_, err := s.coord.CreateEvent(ctx, "u1", c.ID, f)
		wantKind(t, err, apperr.KindInvalidInput)
	})

	t.Run("group from another circle", func(t *testing.T) {
		f := fields
		f.GroupID = &foreign.ID
		_, err := s.coord.CreateEvent(ctx, "u1", c.ID, f)
		wantCode(t, err, apperr.CodeGroupNotInCircle)
	})

	t.Run("created", func(t *testing.T) {
		e, err := s.coord.CreateEvent(ctx, "u1", c.ID, fields)
		if err != nil {
			t.Fatalf("CreateEvent failed: %v", err)
		}
		if e.ID == "" || e.CircleID != c.ID || e.CreatedBy != "u1" {
			t.Errorf("event: got %+v", e)
		}
		if e.GroupID == nil || *e.GroupID != g.ID {
			t.Errorf("group id: got %v", e.GroupID)
		}
	})
}

func TestUpdateEvent(t *testing.T) {
	s := newServices(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := s.fx.CreateCircle(ctx, "Tennis", "TEN001", "creator")
	s.fx.CreateMembership(ctx, "creator", c.ID, models.RoleMember)
	s.fx.CreateMembership(ctx, "member", c.ID, models.RoleMember)
	s.fx.CreateMembership(ctx, "admin", c.ID, models.RoleAdmin)
	g := s.fx.CreateGroup(ctx, c.ID, "Beginners")
	e := s.fx.CreateEvent(ctx, c.ID, "creator", "Practice", "2026-05-01", "10:00", &g.ID)

	_, err := s.coord.UpdateEvent(ctx, "member", e.ID, core.EventPatch{Name: strPtr("Hijack")})
	wantKind(t, err, apperr.KindForbidden)

	got, err := s.coord.UpdateEvent(ctx, "creator", e.ID, core.EventPatch{
		Name:               strPtr("Match"),
		GroupID:            strPtr(""),
		AttendanceRequired: boolPtr(true),
	})
	if err != nil {
		t.Fatalf("UpdateEvent failed: %v", err)
	}
	if got.Name != "Match" || got.GroupID != nil || !got.AttendanceRequired {
		t.Errorf("updated: got %+v", got)
	}
	if got.Date != "2026-05-01" || got.Time != "10:00" {
		t.Errorf("untouched fields changed: date=%q time=%q", got.Date, got.Time)
	}

	got, err = s.coord.UpdateEvent(ctx, "admin", e.ID, core.EventPatch{Location: strPtr("Court 3")})
	if err != nil {
		t.Fatalf("UpdateEvent as admin failed: %v", err)
	}
	if got.Location != "Court 3" || got.Name != "Match" {
		t.Errorf("admin update: got %+v", got)
	}

	_, err = s.coord.UpdateEvent(ctx, "creator", e.ID, core.EventPatch{Name: strPtr(" ")})
	wantKind(t, err, apperr.KindInvalidInput)
}

func TestScenario_AttendThenDelete(t *testing.T) {
	s := newServices(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := s.fx.CreateCircle(ctx, "Tennis", "TEN001", "creator")
	s.fx.CreateUser(ctx, "creator", "Sato", "Hana")
	s.fx.CreateUser(ctx, "member", "Suzuki", "Ken")
	s.fx.CreateMembership(ctx, "creator", c.ID, models.RoleAdmin)
	s.fx.CreateMembership(ctx, "member", c.ID, models.RoleMember)
	e := s.fx.CreateEvent(ctx, c.ID, "creator", "Practice", "2026-05-01", "", nil)

	res, err := s.coord.ToggleAttendance(ctx, "member", e.ID)
	if err != nil {
		t.Fatalf("ToggleAttendance failed: %v", err)
	}
	if !res.Active {
		t.Fatal("expected attendance on after first toggle")
	}
	if _, err := s.coord.ToggleBookmark(ctx, "member", e.ID); err != nil {
		t.Fatalf("ToggleBookmark failed: %v", err)
	}

	attendees, err := s.events.ListAttendees(ctx, "creator", e.ID)
	if err != nil {
		t.Fatalf("ListAttendees failed: %v", err)
	}
	if len(attendees) != 1 || attendees[0].ID != "member" {
		t.Fatalf("attendees: got %+v", attendees)
	}

	_, err = s.coord.DeleteEvent(ctx, "member", e.ID)
	wantKind(t, err, apperr.KindForbidden)

	del, err := s.coord.DeleteEvent(ctx, "creator", e.ID)
	if err != nil {
		t.Fatalf("DeleteEvent failed: %v", err)
	}
	if del.UsersCleaned != 1 {
		t.Errorf("users cleaned: got %d, want 1", del.UsersCleaned)
	}

	u, err := s.coord.GetUser(ctx, "member")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if u.IsAttending(e.ID) || u.HasBookmarked(e.ID) {
		t.Errorf("event still referenced: %+v", u)
	}

	list, err := s.events.ListEvents(ctx, c.ID, "member")
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(list.Events) != 0 {
		t.Errorf("events after delete: got %d, want 0", len(list.Events))
	}

	_, err = s.coord.DeleteEvent(ctx, "creator", e.ID)
	wantKind(t, err, apperr.KindNotFound)
}

func TestToggleBookmark_Idempotence(t *testing.T) {
	s := newServices(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := s.fx.CreateCircle(ctx, "Tennis", "TEN001", "u1")
	s.fx.CreateUser(ctx, "u1", "Sato", "Hana")
	s.fx.CreateMembership(ctx, "u1", c.ID, models.RoleMember)
	e := s.fx.CreateEvent(ctx, c.ID, "u1", "Practice", "2026-05-01", "", nil)

	want := []bool{true, false, true, false}
	for i, w := range want {
		res, err := s.coord.ToggleBookmark(ctx, "u1", e.ID)
		if err != nil {
			t.Fatalf("toggle %d failed: %v", i, err)
		}
		if res.Active != w {
			t.Errorf("toggle %d: got %v, want %v", i, res.Active, w)
		}
	}

	u, _ := s.coord.GetUser(ctx, "u1")
	if len(u.BookmarkedEvents) != 0 {
		t.Errorf("bookmarks after even toggles: got %v", u.BookmarkedEvents)
	}

	_, err := s.coord.ToggleBookmark(ctx, "outsider", e.ID)
	wantKind(t, err, apperr.KindForbidden)
	_, err = s.coord.ToggleAttendance(ctx, "outsider", e.ID)
	wantKind(t, err, apperr.KindForbidden)
	if u, err := s.coord.GetUser(ctx, "outsider"); err == nil && len(u.AttendingEvents) != 0 {
		t.Errorf("outsider attendance written: %v", u.AttendingEvents)
	}

	_, err = s.coord.ToggleAttendance(ctx, "u1", "missing")
	wantKind(t, err, apperr.KindNotFound)
}

func TestRegisterAndUpdateProfile(t *testing.T) {
	s := newServices(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := s.coord.GetUser(ctx, "line:abc")
	wantKind(t, err, apperr.KindNotFound)
	wantCode(t, err, apperr.CodeNotRegistered)

	_, err = s.coord.RegisterUser(ctx, "line:abc", "a@example.test", models.Profile{LastName: "Sato"})
	wantKind(t, err, apperr.KindInvalidInput)

	u, err := s.coord.RegisterUser(ctx, "line:abc", " A@Example.test ", models.Profile{
		LastName: "Sato", FirstName: "Hana", Grade: "2",
	})
	if err != nil {
		t.Fatalf("RegisterUser failed: %v", err)
	}
	if u.ID != "line:abc" || u.Email != "a@example.test" {
		t.Errorf("user: got %+v", u)
	}

	_, err = s.coord.RegisterUser(ctx, "line:abc", "a@example.test", models.Profile{LastName: "Sato", FirstName: "Hana"})
	wantKind(t, err, apperr.KindConflict)
	wantCode(t, err, apperr.CodeAlreadyRegistered)

	updated, err := s.coord.UpdateProfile(ctx, "line:abc", models.Profile{
		LastName: "Sato", FirstName: "Hanako", Affiliation: "Engineering",
	})
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if updated.FirstName != "Hanako" || updated.Affiliation != "Engineering" {
		t.Errorf("profile: got %+v", updated.Profile)
	}
	if updated.Email != "a@example.test" {
		t.Errorf("email changed: got %q", updated.Email)
	}

	_, err = s.coord.UpdateProfile(ctx, "line:nobody", models.Profile{LastName: "A", FirstName: "B"})
	wantKind(t, err, apperr.KindNotFound)
}
