package core

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/circlehub/internal/app/policy/circlepolicy"
	groupstore "github.com/dalemusser/circlehub/internal/app/store/groups"
	"github.com/dalemusser/circlehub/internal/app/system/apperr"
	"github.com/dalemusser/circlehub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/circlehub/internal/app/system/normalize"
	"github.com/dalemusser/circlehub/internal/domain/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Member is a membership joined with its user's display name.
type Member struct {
	ID          string      `json:"id"`
	DisplayName string      `json:"display_name"`
	Role        models.Role `json:"role"`
	Groups      []string    `json:"groups"`
	JoinedAt    time.Time   `json:"joined_at"`
}

// CircleAggregate is everything the circle management view shows.
type CircleAggregate struct {
	Circle   models.Circle  `json:"circle"`
	Groups   []models.Group `json:"groups"`
	Members  []Member       `json:"members"`
	Problems []Problem      `json:"problems,omitempty"`
}

// CircleLoader reads circle aggregates and performs admin-only circle edits.
type CircleLoader struct {
	st  Stores
	log *zap.Logger
}

func NewCircleLoader(st Stores, logger *zap.Logger) *CircleLoader {
	return &CircleLoader{st: st, log: logger}
}

// LoadCircle loads the circle, its groups, and its members. Memberships whose
// user document is missing are dropped and recorded.
func (l *CircleLoader) LoadCircle(ctx context.Context, circleID string) (CircleAggregate, error) {
	c, err := l.st.Circles.GetByID(ctx, circleID)
	if err != nil {
		return CircleAggregate{}, apperr.FromStore(err, "circle")
	}
	agg := CircleAggregate{Circle: c, Groups: []models.Group{}, Members: []Member{}}

	groups, err := l.st.Groups.ListByCircle(ctx, circleID)
	if err != nil {
		return CircleAggregate{}, apperr.Upstream("loading groups", err)
	}
	agg.Groups = groups

	ms, err := l.st.Memberships.ListByCircle(ctx, circleID)
	if err != nil {
		return CircleAggregate{}, apperr.Upstream("loading memberships", err)
	}
	userIDs := make([]string, 0, len(ms))
	for _, m := range ms {
		userIDs = append(userIDs, m.UserID)
	}
	users, err := l.st.Users.GetMany(ctx, uniqueStrings(userIDs))
	if err != nil {
		return CircleAggregate{}, apperr.Upstream("loading members", err)
	}

	for _, m := range ms {
		u, ok := users[m.UserID]
		if !ok {
			l.log.Warn("membership references missing user",
				zap.String("membership_id", m.ID),
				zap.String("circle_id", circleID),
				zap.String("user_id", m.UserID))
			agg.Problems = append(agg.Problems, Problem{Kind: ProblemMissingUser, Ref: m.ID, Reason: "user not found"})
			continue
		}
		groups := m.Groups
		if groups == nil {
			groups = []string{}
		}
		agg.Members = append(agg.Members, Member{
			ID:          u.ID,
			DisplayName: u.DisplayName(),
			Role:        m.Role,
			Groups:      groups,
			JoinedAt:    m.JoinedAt,
		})
	}
	return agg, nil
}

// LoadCircleAs is LoadCircle restricted to members of the circle.
func (l *CircleLoader) LoadCircleAs(ctx context.Context, actorID, circleID string) (CircleAggregate, error) {
	if err := requireMember(ctx, l.st, circleID, actorID); err != nil {
		return CircleAggregate{}, err
	}
	return l.LoadCircle(ctx, circleID)
}

// UpdateRole sets memberID's role in the circle. Only admins may change
// roles, and the last admin cannot be demoted.
func (l *CircleLoader) UpdateRole(ctx context.Context, actorID, circleID, memberID string, newRole models.Role) (models.CircleMembership, error) {
	newRole = models.Role(normalize.Role(string(newRole)))
	if !newRole.Valid() {
		return models.CircleMembership{}, apperr.InvalidInput(`role must be "admin" or "member"`)
	}
	if err := requireAdmin(ctx, l.st, circleID, actorID); err != nil {
		return models.CircleMembership{}, err
	}

	m, err := l.st.Memberships.Get(ctx, memberID, circleID)
	if err != nil {
		return models.CircleMembership{}, apperr.FromStore(err, "membership")
	}
	if m.Role == newRole {
		return m, nil
	}

	if m.Role == models.RoleAdmin && newRole == models.RoleMember {
		ok, err := l.st.Memberships.DemoteIfOtherAdmin(ctx, m.ID, circleID)
		if err != nil {
			return models.CircleMembership{}, apperr.Upstream("updating role", err)
		}
		if !ok {
			return models.CircleMembership{}, apperr.Conflict(apperr.CodeLastAdmin, "a circle must keep at least one admin")
		}
		m.Role = models.RoleMember
		l.log.Info("member role changed",
			zap.String("actor_id", actorID), zap.String("circle_id", circleID),
			zap.String("member_id", memberID), zap.String("role", string(newRole)))
		return m, nil
	}

	updated, err := l.st.Memberships.UpdateRole(ctx, m.ID, newRole)
	if err != nil {
		return models.CircleMembership{}, apperr.FromStore(err, "membership")
	}
	l.log.Info("member role changed",
		zap.String("actor_id", actorID), zap.String("circle_id", circleID),
		zap.String("member_id", memberID), zap.String("role", string(newRole)))
	return updated, nil
}

// ToggleMemberGroup adds groupID to memberID's groups if absent, removes it
// if present. The flip is a single atomic update.
func (l *CircleLoader) ToggleMemberGroup(ctx context.Context, actorID, circleID, memberID, groupID string) (models.CircleMembership, error) {
	if err := requireAdmin(ctx, l.st, circleID, actorID); err != nil {
		return models.CircleMembership{}, err
	}
	if err := requireGroupInCircle(ctx, l.st, circleID, groupID); err != nil {
		return models.CircleMembership{}, err
	}

	m, err := l.st.Memberships.Get(ctx, memberID, circleID)
	if err != nil {
		return models.CircleMembership{}, apperr.FromStore(err, "membership")
	}
	updated, err := l.st.Memberships.ToggleGroup(ctx, m.ID, groupID)
	if err != nil {
		return models.CircleMembership{}, apperr.FromStore(err, "membership")
	}
	return updated, nil
}

// AddGroup creates a group in the circle.
func (l *CircleLoader) AddGroup(ctx context.Context, actorID, circleID, name string) (models.Group, error) {
	name = normalize.Name(name)
	if name == "" {
		return models.Group{}, apperr.InvalidInput("group name is required")
	}
	if err := requireAdmin(ctx, l.st, circleID, actorID); err != nil {
		return models.Group{}, err
	}
	return createGroup(ctx, l.st, circleID, name)
}

// RenameGroup changes a group's name.
func (l *CircleLoader) RenameGroup(ctx context.Context, actorID, circleID, groupID, name string) (models.Group, error) {
	name = normalize.Name(name)
	if name == "" {
		return models.Group{}, apperr.InvalidInput("group name is required")
	}
	if err := requireAdmin(ctx, l.st, circleID, actorID); err != nil {
		return models.Group{}, err
	}
	if err := requireGroupInCircle(ctx, l.st, circleID, groupID); err != nil {
		return models.Group{}, err
	}

	g, err := l.st.Groups.Rename(ctx, groupID, name, normalize.NameCI(name))
	if errors.Is(err, groupstore.ErrDuplicateGroupName) {
		return models.Group{}, apperr.Conflict(apperr.CodeDuplicateGroup, err.Error())
	}
	if err != nil {
		return models.Group{}, apperr.FromStore(err, "group")
	}
	return g, nil
}

// UpdateCircle changes the circle's name and description.
func (l *CircleLoader) UpdateCircle(ctx context.Context, actorID, circleID, name, description string) (models.Circle, error) {
	name = normalize.Name(name)
	if name == "" {
		return models.Circle{}, apperr.InvalidInput("circle name is required")
	}
	if err := requireAdmin(ctx, l.st, circleID, actorID); err != nil {
		return models.Circle{}, err
	}
	c, err := l.st.Circles.UpdateInfo(ctx, circleID, name, normalize.NameCI(name),
		htmlsanitize.StripTags(normalize.Text(description)))
	if err != nil {
		return models.Circle{}, apperr.FromStore(err, "circle")
	}
	return c, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| shared checks                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

func requireMember(ctx context.Context, st Stores, circleID, userID string) error {
	ok, err := circlepolicy.IsMember(ctx, st.DB, circleID, userID)
	if err != nil {
		return apperr.Upstream("checking membership", err)
	}
	if !ok {
		return apperr.Forbidden("not a member of this circle")
	}
	return nil
}

func requireAdmin(ctx context.Context, st Stores, circleID, userID string) error {
	ok, err := circlepolicy.IsAdmin(ctx, st.DB, circleID, userID)
	if err != nil {
		return apperr.Upstream("checking membership", err)
	}
	if !ok {
		return apperr.Forbidden("circle admin role required")
	}
	return nil
}

func requireGroupInCircle(ctx context.Context, st Stores, circleID, groupID string) error {
	g, err := st.Groups.GetByID(ctx, groupID)
	if err != nil {
		if apperr.Is(apperr.FromStore(err, "group"), apperr.KindNotFound) {
			return apperr.InvalidInput("group does not belong to this circle").WithCode(apperr.CodeGroupNotInCircle)
		}
		return apperr.Upstream("loading group", err)
	}
	if g.CircleID != circleID {
		return apperr.InvalidInput("group does not belong to this circle").WithCode(apperr.CodeGroupNotInCircle)
	}
	return nil
}

func createGroup(ctx context.Context, st Stores, circleID, name string) (models.Group, error) {
	g, err := st.Groups.Create(ctx, models.Group{
		ID:       uuid.NewString(),
		Name:     name,
		NameCI:   normalize.NameCI(name),
		CircleID: circleID,
	})
	if errors.Is(err, groupstore.ErrDuplicateGroupName) {
		return models.Group{}, apperr.Conflict(apperr.CodeDuplicateGroup, err.Error())
	}
	if err != nil {
		return models.Group{}, apperr.Upstream("creating group", err)
	}
	return g, nil
}
