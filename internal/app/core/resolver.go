package core

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/circlehub/internal/app/system/apperr"
	"github.com/dalemusser/circlehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// MembershipEntry is one circle in a user's membership list.
type MembershipEntry struct {
	CircleID       string      `json:"circle_id"`
	CircleName     string      `json:"circle_name"`
	Role           models.Role `json:"role"`
	InvitationCode string      `json:"invitation_code"`
	GroupNames     []string    `json:"group_names"`
	JoinedAt       time.Time   `json:"joined_at"`
}

// MembershipList is the resolver result. Problems lists memberships that
// were skipped.
type MembershipList struct {
	Memberships []MembershipEntry `json:"memberships"`
	Problems    []Problem         `json:"problems,omitempty"`
}

// MembershipResolver builds a user's circle list from circle_memberships.
type MembershipResolver struct {
	st  Stores
	log *zap.Logger
}

func NewMembershipResolver(st Stores, logger *zap.Logger) *MembershipResolver {
	return &MembershipResolver{st: st, log: logger}
}

// ResolveMemberships returns every circle the user belongs to, in join order.
// Only the initial membership query is fatal; circles and groups are loaded
// with one batched read each and unresolvable memberships are skipped.
func (r *MembershipResolver) ResolveMemberships(ctx context.Context, userID string) (MembershipList, error) {
	out := MembershipList{Memberships: []MembershipEntry{}}

	ms, err := r.st.Memberships.ListByUser(ctx, userID)
	if err != nil {
		return out, apperr.Upstream("loading memberships", err)
	}
	if len(ms) == 0 {
		return out, nil
	}

	circleIDs := make([]string, 0, len(ms))
	var groupIDs []string
	for _, m := range ms {
		circleIDs = append(circleIDs, m.CircleID)
		groupIDs = append(groupIDs, m.Groups...)
	}

	circles, failed := r.loadCircles(ctx, uniqueStrings(circleIDs))

	groupNames := map[string]models.Group{}
	if ids := uniqueStrings(groupIDs); len(ids) > 0 {
		gs, err := r.st.Groups.GetMany(ctx, ids)
		if err != nil {
			r.log.Warn("group names unavailable for membership list",
				zap.String("user_id", userID), zap.Error(err))
			out.Problems = append(out.Problems, Problem{Kind: ProblemLookupFailed, Ref: "groups", Reason: err.Error()})
		} else {
			groupNames = gs
		}
	}

	for _, m := range ms {
		c, ok := circles[m.CircleID]
		if !ok {
			if reason, lookupErr := failed[m.CircleID]; lookupErr {
				out.Problems = append(out.Problems, Problem{Kind: ProblemLookupFailed, Ref: m.ID, Reason: reason})
				continue
			}
			r.log.Warn("orphan membership: circle missing",
				zap.String("membership_id", m.ID),
				zap.String("user_id", m.UserID),
				zap.String("circle_id", m.CircleID))
			out.Problems = append(out.Problems, Problem{Kind: ProblemOrphanMembership, Ref: m.ID, Reason: "circle not found"})
			continue
		}

		names := []string{}
		for _, gid := range m.Groups {
			if g, ok := groupNames[gid]; ok && g.CircleID == m.CircleID {
				names = append(names, g.Name)
			}
		}

		out.Memberships = append(out.Memberships, MembershipEntry{
			CircleID:       c.ID,
			CircleName:     c.Name,
			Role:           m.Role,
			InvitationCode: c.InvitationCode,
			GroupNames:     names,
			JoinedAt:       m.JoinedAt,
		})
	}
	return out, nil
}

// loadCircles fetches circles in one query. If that fails it falls back to
// one read per circle; the returned map of failures holds ids whose read
// failed for a reason other than "not found".
func (r *MembershipResolver) loadCircles(ctx context.Context, ids []string) (map[string]models.Circle, map[string]string) {
	failed := map[string]string{}

	circles, err := r.st.Circles.GetMany(ctx, ids)
	if err == nil {
		return circles, failed
	}
	r.log.Warn("batched circle read failed; falling back to single reads", zap.Error(err))

	circles = make(map[string]models.Circle, len(ids))
	for _, id := range ids {
		c, err := r.st.Circles.GetByID(ctx, id)
		switch {
		case err == nil:
			circles[id] = c
		case errors.Is(err, mongo.ErrNoDocuments):
			// orphan, reported by the caller
		default:
			failed[id] = err.Error()
		}
	}
	return circles, failed
}

// ResolveActiveCircle picks the circle a client should scope its views to:
// preferred if the user still belongs to it, else the earliest joined
// circle. It returns nil when the user has no memberships.
func (r *MembershipResolver) ResolveActiveCircle(ctx context.Context, userID, preferred string) (*MembershipEntry, error) {
	list, err := r.ResolveMemberships(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(list.Memberships) == 0 {
		return nil, nil
	}
	for i := range list.Memberships {
		if list.Memberships[i].CircleID == preferred {
			return &list.Memberships[i], nil
		}
	}
	return &list.Memberships[0], nil
}
