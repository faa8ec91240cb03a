// internal/app/policy/circlepolicy/circlepolicy.go
package circlepolicy

import (
	"context"
	"errors"

	membershipstore "github.com/dalemusser/circlehub/internal/app/store/memberships"
	"github.com/dalemusser/circlehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

// RoleOf returns the user's role in the circle according to the
// authoritative circle_memberships collection. ok is false when the user is
// not a member. Callers can distinguish "not a member" (ok=false, nil) from
// "database error" (ok=false, err).
func RoleOf(ctx context.Context, db *mongo.Database, circleID, userID string) (role models.Role, ok bool, err error) {
	m, err := membershipstore.New(db).Get(ctx, userID, circleID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return m.Role, true, nil
}

// IsMember reports whether the user belongs to the circle in any role.
func IsMember(ctx context.Context, db *mongo.Database, circleID, userID string) (bool, error) {
	_, ok, err := RoleOf(ctx, db, circleID, userID)
	return ok, err
}

// IsAdmin reports whether the user is an admin of the circle.
func IsAdmin(ctx context.Context, db *mongo.Database, circleID, userID string) (bool, error) {
	role, ok, err := RoleOf(ctx, db, circleID, userID)
	if err != nil || !ok {
		return false, err
	}
	return role == models.RoleAdmin, nil
}

// CanManageEvent reports whether the user may edit or delete the event:
// its creator can, as can any admin of the event's circle.
func CanManageEvent(ctx context.Context, db *mongo.Database, e models.Event, userID string) (bool, error) {
	if e.CreatedBy == userID {
		return true, nil
	}
	return IsAdmin(ctx, db, e.CircleID, userID)
}
