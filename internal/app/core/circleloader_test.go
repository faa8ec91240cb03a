package core_test

import (
	"testing"

	"github.com/dalemusser/circlehub/internal/app/core"
	"github.com/dalemusser/circlehub/internal/app/system/apperr"
	"github.com/dalemusser/circlehub/internal/domain/models"
	"github.com/dalemusser/circlehub/internal/testutil"
)

func TestScenario_CreateCircleThenLoad(t *testing.T) {
	s := newServices(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s.fx.CreateUser(ctx, "userA", "Sato", "Hana")

	res, err := s.coord.CreateCircle(ctx, "userA", core.CircleInput{
		Name:       "Tennis Club",
		GroupNames: []string{"Beginners", "Advanced"},
	})
	if err != nil {
		t.Fatalf("CreateCircle failed: %v", err)
	}

	agg, err := s.circles.LoadCircle(ctx, res.Circle.ID)
	if err != nil {
		t.Fatalf("LoadCircle failed: %v", err)
	}
	if len(agg.Members) != 1 {
		t.Fatalf("members: got %d, want 1", len(agg.Members))
	}
	if m := agg.Members[0]; m.ID != "userA" || m.Role != models.RoleAdmin || m.DisplayName != "Sato Hana" {
		t.Errorf("member: got %+v", m)
	}
	if len(agg.Groups) != 2 {
		t.Errorf("groups: got %d, want 2", len(agg.Groups))
	}
}

func TestLoadCircle_NotFound(t *testing.T) {
	s := newServices(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := s.circles.LoadCircle(ctx, "missing")
	wantKind(t, err, apperr.KindNotFound)
}

func TestLoadCircle_DropsMissingUsers(t *testing.T) {
	s := newServices(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := s.fx.CreateCircle(ctx, "Tennis", "TEN001", "u1")
	s.fx.CreateUser(ctx, "u1", "Sato", "Hana")
	s.fx.CreateMembership(ctx, "u1", c.ID, models.RoleAdmin)
	ghost := s.fx.CreateMembership(ctx, "ghost", c.ID, models.RoleMember)

	agg, err := s.circles.LoadCircle(ctx, c.ID)
	if err != nil {
		t.Fatalf("LoadCircle failed: %v", err)
	}
	if len(agg.Members) != 1 {
		t.Errorf("members: got %d, want 1", len(agg.Members))
	}
	if len(agg.Problems) != 1 || agg.Problems[0].Ref != ghost.ID || agg.Problems[0].Kind != core.ProblemMissingUser {
		t.Errorf("problems: got %+v", agg.Problems)
	}
}

func TestLoadCircleAs_NonMember(t *testing.T) {
	s := newServices(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := s.fx.CreateCircle(ctx, "Tennis", "TEN001", "u1")

	_, err := s.circles.LoadCircleAs(ctx, "outsider", c.ID)
	wantKind(t, err, apperr.KindForbidden)
}

func TestUpdateRole(t *testing.T) {
	s := newServices(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := s.fx.CreateCircle(ctx, "Tennis", "TEN001", "admin")
	s.fx.CreateMembership(ctx, "admin", c.ID, models.RoleAdmin)
	s.fx.CreateMembership(ctx, "member", c.ID, models.RoleMember)
	s.fx.CreateMembership(ctx, "other", c.ID, models.RoleMember)

	t.Run("non-admin is forbidden and nothing changes", func(t *testing.T) {
		_, err := s.circles.UpdateRole(ctx, "member", c.ID, "other", models.RoleAdmin)
		wantKind(t, err, apperr.KindForbidden)

		agg, _ := s.circles.LoadCircle(ctx, c.ID)
		for _, m := range agg.Members {
			if m.ID == "other" && m.Role != models.RoleMember {
				t.Errorf("role changed to %q", m.Role)
			}
		}
	})

	t.Run("invalid role", func(t *testing.T) {
		_, err := s.circles.UpdateRole(ctx, "admin", c.ID, "other", models.Role("owner"))
		wantKind(t, err, apperr.KindInvalidInput)
	})

	t.Run("unknown member", func(t *testing.T) {
		_, err := s.circles.UpdateRole(ctx, "admin", c.ID, "stranger", models.RoleAdmin)
		wantKind(t, err, apperr.KindNotFound)
	})

	t.Run("admin promotes member", func(t *testing.T) {
		m, err := s.circles.UpdateRole(ctx, "admin", c.ID, "member", models.RoleAdmin)
		if err != nil {
			t.Fatalf("UpdateRole failed: %v", err)
		}
		if m.Role != models.RoleAdmin {
			t.Errorf("role: got %q, want admin", m.Role)
		}
	})

	t.Run("admin steps down while another admin remains", func(t *testing.T) {
		m, err := s.circles.UpdateRole(ctx, "admin", c.ID, "admin", models.RoleMember)
		if err != nil {
			t.Fatalf("UpdateRole failed: %v", err)
		}
		if m.Role != models.RoleMember {
			t.Errorf("role: got %q, want member", m.Role)
		}
	})

	t.Run("last admin cannot step down", func(t *testing.T) {
		_, err := s.circles.UpdateRole(ctx, "member", c.ID, "member", models.RoleMember)
		wantKind(t, err, apperr.KindConflict)
		wantCode(t, err, apperr.CodeLastAdmin)
	})
}

func TestToggleMemberGroup(t *testing.T) {
	s := newServices(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := s.fx.CreateCircle(ctx, "Band", "BAND01", "admin")
	other := s.fx.CreateCircle(ctx, "Other", "OTHR01", "admin")
	g := s.fx.CreateGroup(ctx, c.ID, "Drums")
	foreign := s.fx.CreateGroup(ctx, other.ID, "Drums")
	s.fx.CreateMembership(ctx, "admin", c.ID, models.RoleAdmin)
	s.fx.CreateMembership(ctx, "member", c.ID, models.RoleMember)

	m, err := s.circles.ToggleMemberGroup(ctx, "admin", c.ID, "member", g.ID)
	if err != nil {
		t.Fatalf("first toggle failed: %v", err)
	}
	if !m.InGroup(g.ID) {
		t.Errorf("expected member in group after first toggle, got %v", m.Groups)
	}
	m, err = s.circles.ToggleMemberGroup(ctx, "admin", c.ID, "member", g.ID)
	if err != nil {
		t.Fatalf("second toggle failed: %v", err)
	}
	if m.InGroup(g.ID) {
		t.Errorf("expected member out of group after second toggle, got %v", m.Groups)
	}

	_, err = s.circles.ToggleMemberGroup(ctx, "admin", c.ID, "member", foreign.ID)
	wantKind(t, err, apperr.KindInvalidInput)
	wantCode(t, err, apperr.CodeGroupNotInCircle)

	_, err = s.circles.ToggleMemberGroup(ctx, "member", c.ID, "member", g.ID)
	wantKind(t, err, apperr.KindForbidden)
}

func TestAddAndRenameGroup(t *testing.T) {
	s := newServices(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := s.fx.CreateCircle(ctx, "Band", "BAND01", "admin")
	s.fx.CreateMembership(ctx, "admin", c.ID, models.RoleAdmin)
	s.fx.CreateMembership(ctx, "member", c.ID, models.RoleMember)

	_, err := s.circles.AddGroup(ctx, "admin", c.ID, "   ")
	wantKind(t, err, apperr.KindInvalidInput)

	_, err = s.circles.AddGroup(ctx, "member", c.ID, "Vocals")
	wantKind(t, err, apperr.KindForbidden)

	g, err := s.circles.AddGroup(ctx, "admin", c.ID, "  Vocals ")
	if err != nil {
		t.Fatalf("AddGroup failed: %v", err)
	}
	if g.ID == "" || g.Name != "Vocals" || g.CircleID != c.ID {
		t.Errorf("group: got %+v", g)
	}

	_, err = s.circles.AddGroup(ctx, "admin", c.ID, "VOCALS")
	wantKind(t, err, apperr.KindConflict)
	wantCode(t, err, apperr.CodeDuplicateGroup)

	renamed, err := s.circles.RenameGroup(ctx, "admin", c.ID, g.ID, "Lead Vocals")
	if err != nil {
		t.Fatalf("RenameGroup failed: %v", err)
	}
	if renamed.Name != "Lead Vocals" {
		t.Errorf("name: got %q, want %q", renamed.Name, "Lead Vocals")
	}
}

func TestUpdateCircle(t *testing.T) {
	s := newServices(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := s.fx.CreateCircle(ctx, "Band", "BAND01", "admin")
	s.fx.CreateMembership(ctx, "admin", c.ID, models.RoleAdmin)
	s.fx.CreateMembership(ctx, "member", c.ID, models.RoleMember)

	_, err := s.circles.UpdateCircle(ctx, "member", c.ID, "Renamed", "")
	wantKind(t, err, apperr.KindForbidden)

	_, err = s.circles.UpdateCircle(ctx, "admin", c.ID, "  ", "")
	wantKind(t, err, apperr.KindInvalidInput)

	got, err := s.circles.UpdateCircle(ctx, "admin", c.ID, "Jazz Band", "<b>Weekly</b> sessions")
	if err != nil {
		t.Fatalf("UpdateCircle failed: %v", err)
	}
	if got.Name != "Jazz Band" || got.Description != "Weekly sessions" {
		t.Errorf("circle: got %+v", got)
	}
	if got.InvitationCode != "BAND01" {
		t.Errorf("invitation code changed: %q", got.InvitationCode)
	}
}
