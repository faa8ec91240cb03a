package core

import (
	"context"
	"errors"

	circlestore "github.com/dalemusser/circlehub/internal/app/store/circles"
	membershipstore "github.com/dalemusser/circlehub/internal/app/store/memberships"
	"github.com/dalemusser/circlehub/internal/app/system/apperr"
	"github.com/dalemusser/circlehub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/circlehub/internal/app/system/normalize"
	"github.com/dalemusser/circlehub/internal/domain/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Coordinator performs writes that touch more than one document or carry an
// authorization precondition.
type Coordinator struct {
	st      Stores
	log     *zap.Logger
	newCode func() (string, error)
}

func NewCoordinator(st Stores, logger *zap.Logger) *Coordinator {
	return &Coordinator{st: st, log: logger, newCode: NewInvitationCode}
}

// SetCodeGenerator replaces the invitation code source. Used by tests.
func (c *Coordinator) SetCodeGenerator(fn func() (string, error)) {
	c.newCode = fn
}

// CircleInput is the payload for CreateCircle.
type CircleInput struct {
	Name        string
	Description string
	GroupNames  []string
}

// FailedGroup is a group that could not be created with its circle.
type FailedGroup struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// CreateCircleResult reports what CreateCircle wrote. A non-empty
// FailedGroups means the circle exists without some of the requested groups.
type CreateCircleResult struct {
	Circle       models.Circle           `json:"circle"`
	Membership   models.CircleMembership `json:"membership"`
	Groups       []models.Group          `json:"groups"`
	FailedGroups []FailedGroup           `json:"failed_groups,omitempty"`
}

// CreateCircle inserts the circle, makes actorID its admin, then creates the
// requested groups. Group failures do not undo the circle.
func (c *Coordinator) CreateCircle(ctx context.Context, actorID string, in CircleInput) (CreateCircleResult, error) {
	if actorID == "" {
		return CreateCircleResult{}, apperr.Forbidden("authentication required")
	}
	name := normalize.Name(in.Name)
	if name == "" {
		return CreateCircleResult{}, apperr.InvalidInput("circle name is required")
	}

	circle, err := c.insertCircle(ctx, models.Circle{
		Name:        name,
		NameCI:      normalize.NameCI(name),
		Description: htmlsanitize.StripTags(normalize.Text(in.Description)),
		CreatedBy:   actorID,
	})
	if err != nil {
		return CreateCircleResult{}, err
	}

	m, err := c.st.Memberships.Create(ctx, actorID, circle.ID, models.RoleAdmin)
	if err != nil {
		// A circle without an admin can never be managed; take it back out.
		if derr := c.st.Circles.Delete(ctx, circle.ID); derr != nil {
			c.log.Error("circle left without admin membership",
				zap.String("circle_id", circle.ID), zap.String("actor_id", actorID),
				zap.NamedError("membership_error", err), zap.NamedError("delete_error", derr))
		} else {
			c.log.Warn("circle removed after admin membership failed",
				zap.String("circle_id", circle.ID), zap.String("actor_id", actorID), zap.Error(err))
		}
		return CreateCircleResult{}, apperr.Upstream("creating admin membership", err)
	}

	res := CreateCircleResult{Circle: circle, Membership: m, Groups: []models.Group{}}
	seen := map[string]bool{}
	for _, raw := range in.GroupNames {
		gname := normalize.Name(raw)
		if gname == "" || seen[normalize.NameCI(gname)] {
			continue
		}
		seen[normalize.NameCI(gname)] = true

		g, err := createGroup(ctx, c.st, circle.ID, gname)
		if err != nil {
			res.FailedGroups = append(res.FailedGroups, FailedGroup{Name: gname, Reason: err.Error()})
			continue
		}
		res.Groups = append(res.Groups, g)
	}
	if len(res.FailedGroups) > 0 {
		c.log.Warn("circle created with missing groups",
			zap.String("circle_id", circle.ID),
			zap.Int("failed", len(res.FailedGroups)),
			zap.Int("created", len(res.Groups)))
	}

	c.log.Info("circle created",
		zap.String("circle_id", circle.ID), zap.String("actor_id", actorID), zap.Int("groups", len(res.Groups)))
	return res, nil
}

// insertCircle assigns an id and an unused invitation code, retrying on
// code collisions reported by the unique index.
func (c *Coordinator) insertCircle(ctx context.Context, circle models.Circle) (models.Circle, error) {
	for attempt := 1; attempt <= inviteCodeAttempts; attempt++ {
		code, err := c.newCode()
		if err != nil {
			return models.Circle{}, apperr.Upstream("generating invitation code", err)
		}
		circle.ID = uuid.NewString()
		circle.InvitationCode = code

		created, err := c.st.Circles.Create(ctx, circle)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, circlestore.ErrDuplicateInvitationCode) {
			return models.Circle{}, apperr.Upstream("creating circle", err)
		}
		c.log.Debug("invitation code collision", zap.Int("attempt", attempt))
	}
	return models.Circle{}, apperr.Conflict(apperr.CodeCodeExhausted, "could not allocate a unique invitation code")
}

// JoinResult is returned by JoinCircle.
type JoinResult struct {
	Circle     models.Circle           `json:"circle"`
	Membership models.CircleMembership `json:"membership"`
}

// JoinCircle adds actorID to the circle identified by code as a member.
// Nothing is written unless the code resolves to exactly one circle and the
// actor is not already a member.
func (c *Coordinator) JoinCircle(ctx context.Context, actorID, code string) (JoinResult, error) {
	code = normalize.InvitationCode(code)
	if code == "" {
		return JoinResult{}, apperr.InvalidInput("invitation code is required")
	}

	circle, err := c.st.Circles.FindByInvitationCode(ctx, code)
	if err != nil {
		if errors.Is(err, circlestore.ErrAmbiguousInvitationCode) || apperr.Is(apperr.FromStore(err, "circle"), apperr.KindNotFound) {
			return JoinResult{}, apperr.Conflict(apperr.CodeInvalidCode, "invitation code is not valid")
		}
		return JoinResult{}, apperr.Upstream("looking up invitation code", err)
	}

	if _, err := c.st.Memberships.Get(ctx, actorID, circle.ID); err == nil {
		return JoinResult{}, apperr.Conflict(apperr.CodeAlreadyMember, "already a member of this circle")
	} else if !apperr.Is(apperr.FromStore(err, "membership"), apperr.KindNotFound) {
		return JoinResult{}, apperr.Upstream("checking membership", err)
	}

	m, err := c.st.Memberships.Create(ctx, actorID, circle.ID, models.RoleMember)
	if errors.Is(err, membershipstore.ErrDuplicateMembership) {
		return JoinResult{}, apperr.Conflict(apperr.CodeAlreadyMember, "already a member of this circle")
	}
	if err != nil {
		return JoinResult{}, apperr.Upstream("creating membership", err)
	}

	c.log.Info("circle joined", zap.String("circle_id", circle.ID), zap.String("user_id", actorID))
	return JoinResult{Circle: circle, Membership: m}, nil
}
