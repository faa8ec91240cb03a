// internal/app/store/groups/groupstore.go
package groupstore

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

// ErrDuplicateGroupName is returned when the circle already has a group with
// the same case-folded name.
var ErrDuplicateGroupName = errors.New("a group with this name already exists in the circle")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("groups")}
}

func (s *Store) Create(ctx context.Context, g models.Group) (models.Group, error) {
	g.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, g); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Group{}, ErrDuplicateGroupName
		}
		return models.Group{}, err
	}
	return g, nil
}

func (s *Store) GetByID(ctx context.Context, id string) (models.Group, error) {
	var g models.Group
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&g)
	return g, err
}

// GetMany loads groups by id in one query. Missing ids are absent from the map.
func (s *Store) GetMany(ctx context.Context, ids []string) (map[string]models.Group, error) {
	out := make(map[string]models.Group, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var g models.Group
		if err := cur.Decode(&g); err != nil {
			return nil, err
		}
		out[g.ID] = g
	}
	return out, cur.Err()
}

// ListByCircle returns a circle's groups ordered by folded name.
func (s *Store) ListByCircle(ctx context.Context, circleID string) ([]models.Group, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"circle_id": circleID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Group{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Rename changes the display and folded names of a group.
func (s *Store) Rename(ctx context.Context, id, name, nameCI string) (models.Group, error) {
	var g models.Group
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"name": name, "name_ci": nameCI}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&g)
	if err != nil && wafflemongo.IsDup(err) {
		return models.Group{}, ErrDuplicateGroupName
	}
	return g, err
}
