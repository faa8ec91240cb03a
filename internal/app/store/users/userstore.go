// internal/app/store/users/userstore.go
package userstore

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

// ErrDuplicateUser is returned by Create when a user document already exists.
var ErrDuplicateUser = errors.New("user already registered")

const (
	FieldBookmarked = "bookmarked_events"
	FieldAttending  = "attending_events"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// Create inserts u. Nil event sets are stored as empty arrays.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	if u.BookmarkedEvents == nil {
		u.BookmarkedEvents = []string{}
	}
	if u.AttendingEvents == nil {
		u.AttendingEvents = []string{}
	}
	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateUser
		}
		return models.User{}, err
	}
	return u, nil
}

// GetByID returns mongo.ErrNoDocuments when the user does not exist.
func (s *Store) GetByID(ctx context.Context, id string) (models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	return u, err
}

// GetMany loads users by id in one query. Missing ids are absent from the map.
func (s *Store) GetMany(ctx context.Context, ids []string) (map[string]models.User, error) {
	out := make(map[string]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var u models.User
		if err := cur.Decode(&u); err != nil {
			return nil, err
		}
		out[u.ID] = u
	}
	return out, cur.Err()
}

// UpdateProfile replaces the editable profile fields and returns the result.
func (s *Store) UpdateProfile(ctx context.Context, id string, p models.Profile) (models.User, error) {
	var u models.User
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"last_name":       p.LastName,
			"first_name":      p.FirstName,
			"last_name_kana":  p.LastNameKana,
			"first_name_kana": p.FirstNameKana,
			"affiliation":     p.Affiliation,
			"grade":           p.Grade,
			"updated_at":      time.Now().UTC(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&u)
	return u, err
}

// ToggleBookmark flips eventID in the bookmark set and reports the new state.
func (s *Store) ToggleBookmark(ctx context.Context, userID, eventID string) (bool, error) {
	return s.toggle(ctx, userID, FieldBookmarked, eventID)
}

// ToggleAttendance flips eventID in the attendance set and reports the new state.
func (s *Store) ToggleAttendance(ctx context.Context, userID, eventID string) (bool, error) {
	return s.toggle(ctx, userID, FieldAttending, eventID)
}

// toggle adds or removes eventID from an array field in a single pipeline
// update, so concurrent toggles never read stale arrays.
func (s *Store) toggle(ctx context.Context, userID, field, eventID string) (bool, error) {
	current := bson.D{{Key: "$ifNull", Value: bson.A{"$" + field, bson.A{}}}}
	id := bson.D{{Key: "$literal", Value: eventID}}

	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: field, Value: bson.D{{Key: "$cond", Value: bson.D{
				{Key: "if", Value: bson.D{{Key: "$in", Value: bson.A{id, current}}}},
				{Key: "then", Value: bson.D{{Key: "$filter", Value: bson.D{
					{Key: "input", Value: current},
					{Key: "as", Value: "e"},
					{Key: "cond", Value: bson.D{{Key: "$ne", Value: bson.A{"$$e", id}}}},
				}}}},
				{Key: "else", Value: bson.D{{Key: "$concatArrays", Value: bson.A{current, bson.A{id}}}}},
			}}}},
			{Key: "updated_at", Value: time.Now().UTC()},
		}}},
	}

	var u models.User
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": userID},
		pipeline,
		options.FindOneAndUpdate().
			SetReturnDocument(options.After).
			SetProjection(bson.M{field: 1}),
	).Decode(&u)
	if err != nil {
		return false, err
	}
	if field == FieldBookmarked {
		return u.HasBookmarked(eventID), nil
	}
	return u.IsAttending(eventID), nil
}

// ListAttending returns users whose attendance set contains eventID,
// ordered by last then first name.
func (s *Store) ListAttending(ctx context.Context, eventID string) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "last_name_kana", Value: 1}, {Key: "last_name", Value: 1}, {Key: "first_name", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{FieldAttending: eventID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PullEventRefs removes eventID from every user's bookmark and attendance
// sets. Returns the number of users modified.
func (s *Store) PullEventRefs(ctx context.Context, eventID string) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"$or": bson.A{
			bson.M{FieldBookmarked: eventID},
			bson.M{FieldAttending: eventID},
		}},
		bson.M{"$pull": bson.M{
			FieldBookmarked: eventID,
			FieldAttending:  eventID,
		}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
