// internal/app/store/circles/circlestore.go
package circlestore

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

// ErrDuplicateInvitationCode is returned by Create when the unique index on
// invitation_code rejects the insert.
var ErrDuplicateInvitationCode = errors.New("invitation code already in use")

// ErrAmbiguousInvitationCode means more than one circle carries the code,
// which the unique index should prevent.
var ErrAmbiguousInvitationCode = errors.New("invitation code matches more than one circle")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("circles")}
}

func (s *Store) Create(ctx context.Context, c models.Circle) (models.Circle, error) {
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Circle{}, ErrDuplicateInvitationCode
		}
		return models.Circle{}, err
	}
	return c, nil
}

func (s *Store) GetByID(ctx context.Context, id string) (models.Circle, error) {
	var c models.Circle
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	return c, err
}

// GetMany loads circles by id in one query. Missing ids are absent from the map.
func (s *Store) GetMany(ctx context.Context, ids []string) (map[string]models.Circle, error) {
	out := make(map[string]models.Circle, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var c models.Circle
		if err := cur.Decode(&c); err != nil {
			return nil, err
		}
		out[c.ID] = c
	}
	return out, cur.Err()
}

// FindByInvitationCode returns the single circle with code, or
// mongo.ErrNoDocuments.
func (s *Store) FindByInvitationCode(ctx context.Context, code string) (models.Circle, error) {
	cur, err := s.c.Find(ctx, bson.M{"invitation_code": code}, options.Find().SetLimit(2))
	if err != nil {
		return models.Circle{}, err
	}
	defer cur.Close(ctx)

	var found []models.Circle
	if err := cur.All(ctx, &found); err != nil {
		return models.Circle{}, err
	}
	switch len(found) {
	case 0:
		return models.Circle{}, mongo.ErrNoDocuments
	case 1:
		return found[0], nil
	default:
		return models.Circle{}, ErrAmbiguousInvitationCode
	}
}

// Delete removes the circle document. It does not touch memberships,
// groups or events; callers only use it to undo a circle nothing refers to.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// UpdateInfo changes name and description. The invitation code is immutable.
func (s *Store) UpdateInfo(ctx context.Context, id, name, nameCI, description string) (models.Circle, error) {
	var c models.Circle
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"name":        name,
			"name_ci":     nameCI,
			"description": description,
			"updated_at":  time.Now().UTC(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&c)
	return c, err
}
