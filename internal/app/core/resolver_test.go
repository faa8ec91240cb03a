package core_test

import (
	"testing"
	"time"

	"github.com/dalemusser/circlehub/internal/app/core"
	"github.com/dalemusser/circlehub/internal/domain/models"
	"github.com/dalemusser/circlehub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
)

func TestResolveMemberships(t *testing.T) {
	s := newServices(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	tennis := s.fx.CreateCircle(ctx, "Tennis", "TEN001", "u1")
	brass := s.fx.CreateCircle(ctx, "Brass", "BRS001", "u2")
	g := s.fx.CreateGroup(ctx, tennis.ID, "Beginners")
	s.fx.CreateMembership(ctx, "u1", tennis.ID, models.RoleAdmin, g.ID)
	s.fx.CreateMembership(ctx, "u1", brass.ID, models.RoleMember)

	list, err := s.resolver.ResolveMemberships(ctx, "u1")
	if err != nil {
		t.Fatalf("ResolveMemberships failed: %v", err)
	}
	if len(list.Memberships) != 2 {
		t.Fatalf("memberships: got %d, want 2", len(list.Memberships))
	}
	byCircle := map[string]core.MembershipEntry{}
	for _, e := range list.Memberships {
		byCircle[e.CircleID] = e
	}
	te := byCircle[tennis.ID]
	if te.Role != models.RoleAdmin || te.InvitationCode != "TEN001" || te.CircleName != "Tennis" {
		t.Errorf("tennis entry: %+v", te)
	}
	if len(te.GroupNames) != 1 || te.GroupNames[0] != "Beginners" {
		t.Errorf("group names: got %v, want [Beginners]", te.GroupNames)
	}
	if be := byCircle[brass.ID]; be.Role != models.RoleMember || len(be.GroupNames) != 0 {
		t.Errorf("brass entry: %+v", be)
	}
}

func TestResolveMemberships_SkipsOrphans(t *testing.T) {
	s := newServices(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := s.fx.CreateCircle(ctx, "Tennis", "TEN001", "u1")
	s.fx.CreateMembership(ctx, "u1", c.ID, models.RoleMember)
	orphan := s.fx.CreateMembership(ctx, "u1", "deleted-circle", models.RoleAdmin)

	list, err := s.resolver.ResolveMemberships(ctx, "u1")
	if err != nil {
		t.Fatalf("ResolveMemberships failed: %v", err)
	}
	if len(list.Memberships) != 1 || list.Memberships[0].CircleID != c.ID {
		t.Errorf("memberships: got %+v", list.Memberships)
	}
	if len(list.Problems) != 1 {
		t.Fatalf("problems: got %d, want 1", len(list.Problems))
	}
	if p := list.Problems[0]; p.Kind != core.ProblemOrphanMembership || p.Ref != orphan.ID {
		t.Errorf("problem: got %+v", p)
	}
}

func TestResolveMemberships_IgnoresForeignGroups(t *testing.T) {
	s := newServices(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := s.fx.CreateCircle(ctx, "A", "AAAAAA", "u1")
	b := s.fx.CreateCircle(ctx, "B", "BBBBBB", "u1")
	foreign := s.fx.CreateGroup(ctx, b.ID, "Other circle")
	s.fx.CreateMembership(ctx, "u1", a.ID, models.RoleMember, foreign.ID)

	list, err := s.resolver.ResolveMemberships(ctx, "u1")
	if err != nil {
		t.Fatalf("ResolveMemberships failed: %v", err)
	}
	if names := list.Memberships[0].GroupNames; len(names) != 0 {
		t.Errorf("group names: got %v, want none", names)
	}
}

func TestResolveMemberships_None(t *testing.T) {
	s := newServices(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	list, err := s.resolver.ResolveMemberships(ctx, "nobody")
	if err != nil {
		t.Fatalf("ResolveMemberships failed: %v", err)
	}
	if list.Memberships == nil || len(list.Memberships) != 0 {
		t.Errorf("expected empty non-nil list, got %v", list.Memberships)
	}
}

func TestResolveActiveCircle(t *testing.T) {
	s := newServices(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if got, err := s.resolver.ResolveActiveCircle(ctx, "u1", ""); err != nil || got != nil {
		t.Fatalf("no memberships: got (%v, %v), want (nil, nil)", got, err)
	}

	first := s.fx.CreateCircle(ctx, "First", "FIRST1", "u1")
	second := s.fx.CreateCircle(ctx, "Second", "SECND2", "u1")
	m1 := s.fx.CreateMembership(ctx, "u1", first.ID, models.RoleAdmin)
	m2 := s.fx.CreateMembership(ctx, "u1", second.ID, models.RoleMember)
	if _, err := s.db.Collection("circle_memberships").UpdateByID(ctx, m2.ID,
		bson.M{"$set": bson.M{"joined_at": m1.JoinedAt.Add(time.Hour)}}); err != nil {
		t.Fatalf("reorder memberships: %v", err)
	}

	tests := []struct {
		name      string
		preferred string
		want      string
	}{
		{"preferred member circle", second.ID, second.ID},
		{"no preference", "", first.ID},
		{"stale preference", "left-circle", first.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.resolver.ResolveActiveCircle(ctx, "u1", tt.preferred)
			if err != nil {
				t.Fatalf("ResolveActiveCircle failed: %v", err)
			}
			if got == nil || got.CircleID != tt.want {
				t.Errorf("active circle: got %+v, want %s", got, tt.want)
			}
		})
	}
}
