// internal/domain/models/circlemembership.go
package models

import "time"

// Role is a member's role inside one circle.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Valid reports whether r is a role a membership may carry.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

// CircleMembership is the authoritative join between users and circles.
// Exactly one document per (user_id, circle_id); the _id is MembershipID.
type CircleMembership struct {
	ID       string    `bson:"_id" json:"id"`
	UserID   string    `bson:"user_id" json:"user_id"`
	CircleID string    `bson:"circle_id" json:"circle_id"`
	Role     Role      `bson:"role" json:"role"`
	Groups   []string  `bson:"groups" json:"groups"`
	JoinedAt time.Time `bson:"joined_at" json:"joined_at"`
}

// MembershipID is the deterministic key for a (user, circle) pair.
func MembershipID(userID, circleID string) string {
	return userID + "_" + circleID
}

// InGroup reports whether the membership is tagged with groupID.
func (m CircleMembership) InGroup(groupID string) bool {
	return containsID(m.Groups, groupID)
}
