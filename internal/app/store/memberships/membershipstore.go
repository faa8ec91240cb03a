// internal/app/store/memberships/membershipstore.go
package membershipstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/circlehub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicateMembership is returned when the user already belongs to the circle.
var ErrDuplicateMembership = errors.New("user is already a member of this circle")

var errBadRole = errors.New(`role must be "admin" or "member"`)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("circle_memberships")}
}

// Create inserts a membership keyed by MembershipID(userID, circleID).
// Both the _id and the unique (user_id, circle_id) index reject a second
// membership for the same pair.
func (s *Store) Create(ctx context.Context, userID, circleID string, role models.Role) (models.CircleMembership, error) {
	if !role.Valid() {
		return models.CircleMembership{}, errBadRole
	}
	m := models.CircleMembership{
		ID:       models.MembershipID(userID, circleID),
		UserID:   userID,
		CircleID: circleID,
		Role:     role,
		Groups:   []string{},
		JoinedAt: time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return models.CircleMembership{}, ErrDuplicateMembership
		}
		return models.CircleMembership{}, err
	}
	return m, nil
}

// Get returns the membership for (userID, circleID) or mongo.ErrNoDocuments.
func (s *Store) Get(ctx context.Context, userID, circleID string) (models.CircleMembership, error) {
	var m models.CircleMembership
	err := s.c.FindOne(ctx, bson.M{"user_id": userID, "circle_id": circleID}).Decode(&m)
	return m, err
}

// ListByUser returns a user's memberships, oldest first.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]models.CircleMembership, error) {
	return s.find(ctx, bson.M{"user_id": userID})
}

// ListByCircle returns a circle's memberships, oldest first.
func (s *Store) ListByCircle(ctx context.Context, circleID string) ([]models.CircleMembership, error) {
	return s.find(ctx, bson.M{"circle_id": circleID})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.CircleMembership, error) {
	opts := options.Find().SetSort(bson.D{{Key: "joined_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.CircleMembership{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateRole sets the role on a membership and returns the updated document.
func (s *Store) UpdateRole(ctx context.Context, id string, role models.Role) (models.CircleMembership, error) {
	if !role.Valid() {
		return models.CircleMembership{}, errBadRole
	}
	var m models.CircleMembership
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"role": role}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&m)
	return m, err
}

// DemoteIfOtherAdmin demotes the admin membership id to member only if the
// circle still has another admin afterwards. The check and the write are a
// single conditional update on the count read just before it; a concurrent
// demotion of the other admin is caught by re-counting. Reports whether the
// demotion happened.
func (s *Store) DemoteIfOtherAdmin(ctx context.Context, id, circleID string) (bool, error) {
	n, err := s.CountByRole(ctx, circleID, models.RoleAdmin)
	if err != nil {
		return false, err
	}
	if n < 2 {
		return false, nil
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "role": models.RoleAdmin},
		bson.M{"$set": bson.M{"role": models.RoleMember}},
	)
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 0 {
		return false, nil
	}

	// Two admins demoting each other at once can both pass the count above.
	// Undo ours if the circle ended up without an admin.
	after, err := s.CountByRole(ctx, circleID, models.RoleAdmin)
	if err != nil {
		return true, err
	}
	if after == 0 {
		_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"role": models.RoleAdmin}})
		return false, err
	}
	return true, nil
}

// ToggleGroup flips groupID in the membership's group set and returns the
// updated membership.
func (s *Store) ToggleGroup(ctx context.Context, id, groupID string) (models.CircleMembership, error) {
	current := bson.D{{Key: "$ifNull", Value: bson.A{"$groups", bson.A{}}}}
	gid := bson.D{{Key: "$literal", Value: groupID}}

	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "groups", Value: bson.D{{Key: "$cond", Value: bson.D{
				{Key: "if", Value: bson.D{{Key: "$in", Value: bson.A{gid, current}}}},
				{Key: "then", Value: bson.D{{Key: "$filter", Value: bson.D{
					{Key: "input", Value: current},
					{Key: "as", Value: "g"},
					{Key: "cond", Value: bson.D{{Key: "$ne", Value: bson.A{"$$g", gid}}}},
				}}}},
				{Key: "else", Value: bson.D{{Key: "$concatArrays", Value: bson.A{current, bson.A{gid}}}}},
			}}}},
		}}},
	}

	var m models.CircleMembership
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		pipeline,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&m)
	return m, err
}

// CountByRole counts memberships in circleID with role.
func (s *Store) CountByRole(ctx context.Context, circleID string, role models.Role) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"circle_id": circleID, "role": role})
}
