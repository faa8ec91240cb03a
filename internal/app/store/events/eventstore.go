// internal/app/store/events/eventstore.go
package eventstore

import (
	"context"
	"time"

	"github.com/dalemusser/circlehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("events")}
}

func (s *Store) Create(ctx context.Context, e models.Event) (models.Event, error) {
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, e); err != nil {
		return models.Event{}, err
	}
	return e, nil
}

func (s *Store) GetByID(ctx context.Context, id string) (models.Event, error) {
	var e models.Event
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&e)
	return e, err
}

// GetMany loads events by id in one query. Missing ids are absent from the map.
func (s *Store) GetMany(ctx context.Context, ids []string) (map[string]models.Event, error) {
	out := make(map[string]models.Event, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var e models.Event
		if err := cur.Decode(&e); err != nil {
			return nil, err
		}
		out[e.ID] = e
	}
	return out, cur.Err()
}

var chronological = bson.D{{Key: "date", Value: 1}, {Key: "time", Value: 1}, {Key: "_id", Value: 1}}

// ListByCircle returns a circle's events ordered by date then time.
func (s *Store) ListByCircle(ctx context.Context, circleID string) ([]models.Event, error) {
	return s.find(ctx, bson.M{"circle_id": circleID})
}

// ListByCreator returns events created by userID across all circles.
func (s *Store) ListByCreator(ctx context.Context, userID string) ([]models.Event, error) {
	return s.find(ctx, bson.M{"created_by": userID})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Event, error) {
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(chronological))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Event{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update replaces the editable fields of an event and returns the result.
func (s *Store) Update(ctx context.Context, id string, f models.EventFields) (models.Event, error) {
	var e models.Event
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"name":                f.Name,
			"date":                f.Date,
			"time":                f.Time,
			"location":            f.Location,
			"description":         f.Description,
			"group_id":            f.GroupID,
			"attendance_required": f.AttendanceRequired,
			"updated_at":          time.Now().UTC(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&e)
	return e, err
}

// Delete removes an event. It returns mongo.ErrNoDocuments if nothing matched.
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
