package circlepolicy_test

import (
	"testing"

	"github.com/dalemusser/circlehub/internal/app/policy/circlepolicy"
	"github.com/dalemusser/circlehub/internal/domain/models"
	"github.com/dalemusser/circlehub/internal/testutil"
)

func TestRoleChecks(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateMembership(ctx, "admin", "c1", models.RoleAdmin)
	fixtures.CreateMembership(ctx, "member", "c1", models.RoleMember)

	tests := []struct {
		name       string
		userID     string
		wantMember bool
		wantAdmin  bool
	}{
		{"admin", "admin", true, true},
		{"member", "member", true, false},
		{"outsider", "outsider", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isMember, err := circlepolicy.IsMember(ctx, db, "c1", tt.userID)
			if err != nil {
				t.Fatalf("IsMember: %v", err)
			}
			if isMember != tt.wantMember {
				t.Errorf("IsMember: got %v, want %v", isMember, tt.wantMember)
			}
			isAdmin, err := circlepolicy.IsAdmin(ctx, db, "c1", tt.userID)
			if err != nil {
				t.Fatalf("IsAdmin: %v", err)
			}
			if isAdmin != tt.wantAdmin {
				t.Errorf("IsAdmin: got %v, want %v", isAdmin, tt.wantAdmin)
			}
		})
	}
}

func TestCanManageEvent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateMembership(ctx, "creator", "c1", models.RoleMember)
	fixtures.CreateMembership(ctx, "admin", "c1", models.RoleAdmin)
	fixtures.CreateMembership(ctx, "member", "c1", models.RoleMember)
	e := fixtures.CreateEvent(ctx, "c1", "creator", "Practice", "2026-05-01", "", nil)

	tests := []struct {
		userID string
		want   bool
	}{
		{"creator", true},
		{"admin", true},
		{"member", false},
		{"outsider", false},
	}

	for _, tt := range tests {
		t.Run(tt.userID, func(t *testing.T) {
			got, err := circlepolicy.CanManageEvent(ctx, db, e, tt.userID)
			if err != nil {
				t.Fatalf("CanManageEvent: %v", err)
			}
			if got != tt.want {
				t.Errorf("CanManageEvent(%s): got %v, want %v", tt.userID, got, tt.want)
			}
		})
	}
}
