// Package core holds the circle aggregation and mutation services.
//
// Loaders join documents across collections with batched reads and tolerate
// dangling references: a missing circle, user or group is skipped and
// reported as a Problem instead of failing the whole view. Mutations check
// authorization against circle_memberships before writing and report
// failures as *apperr.Error values.
//
// Every service takes the acting user's id explicitly; nothing reads an
// ambient "current circle".
package core

import (
	"context"

	circlestore "github.com/dalemusser/circlehub/internal/app/store/circles"
	eventstore "github.com/dalemusser/circlehub/internal/app/store/events"
	groupstore "github.com/dalemusser/circlehub/internal/app/store/groups"
	membershipstore "github.com/dalemusser/circlehub/internal/app/store/memberships"
	userstore "github.com/dalemusser/circlehub/internal/app/store/users"
	"github.com/dalemusser/circlehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

// CircleStore is the part of store/circles the services use.
type CircleStore interface {
	Create(ctx context.Context, c models.Circle) (models.Circle, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (models.Circle, error)
	GetMany(ctx context.Context, ids []string) (map[string]models.Circle, error)
	FindByInvitationCode(ctx context.Context, code string) (models.Circle, error)
	UpdateInfo(ctx context.Context, id, name, nameCI, description string) (models.Circle, error)
}

// GroupStore is the part of store/groups the services use.
type GroupStore interface {
	Create(ctx context.Context, g models.Group) (models.Group, error)
	GetByID(ctx context.Context, id string) (models.Group, error)
	GetMany(ctx context.Context, ids []string) (map[string]models.Group, error)
	ListByCircle(ctx context.Context, circleID string) ([]models.Group, error)
	Rename(ctx context.Context, id, name, nameCI string) (models.Group, error)
}

// MembershipStore is the part of store/memberships the services use.
type MembershipStore interface {
	Create(ctx context.Context, userID, circleID string, role models.Role) (models.CircleMembership, error)
	Get(ctx context.Context, userID, circleID string) (models.CircleMembership, error)
	ListByUser(ctx context.Context, userID string) ([]models.CircleMembership, error)
	ListByCircle(ctx context.Context, circleID string) ([]models.CircleMembership, error)
	UpdateRole(ctx context.Context, id string, role models.Role) (models.CircleMembership, error)
	DemoteIfOtherAdmin(ctx context.Context, id, circleID string) (bool, error)
	ToggleGroup(ctx context.Context, id, groupID string) (models.CircleMembership, error)
}

// Stores bundles the collection stores the services read and write.
// Circles, Groups and Memberships are interfaces so a caller can wrap one
// store to change how it fails.
type Stores struct {
	DB          *mongo.Database
	Users       *userstore.Store
	Circles     CircleStore
	Memberships MembershipStore
	Groups      GroupStore
	Events      *eventstore.Store
}

func NewStores(db *mongo.Database) Stores {
	return Stores{
		DB:          db,
		Users:       userstore.New(db),
		Circles:     circlestore.New(db),
		Memberships: membershipstore.New(db),
		Groups:      groupstore.New(db),
		Events:      eventstore.New(db),
	}
}

// Problem kinds recorded by the loaders.
const (
	ProblemOrphanMembership = "orphan_membership"
	ProblemMissingUser      = "missing_user"
	ProblemLookupFailed     = "lookup_failed"
)

// Problem records one reference a loader could not resolve.
type Problem struct {
	Kind   string `json:"kind"`
	Ref    string `json:"ref"`
	Reason string `json:"reason"`
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
