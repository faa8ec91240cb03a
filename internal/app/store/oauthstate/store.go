// internal/app/store/oauthstate/store.go
package oauthstate

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// State is a pending sign-in started by the identity provider redirect.
// Verifier is the PKCE code verifier bound to the state.
type State struct {
	State     string    `bson:"state"`
	Verifier  string    `bson:"verifier"`
	ReturnURL string    `bson:"return_url,omitempty"`
	ExpiresAt time.Time `bson:"expires_at"`
	CreatedAt time.Time `bson:"created_at"`
}

// Store manages sign-in state tokens. Expired documents are removed by the
// TTL index on expires_at.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("oauth_states")}
}

// Save stores st. CreatedAt is stamped here.
func (s *Store) Save(ctx context.Context, st State) error {
	st.CreatedAt = time.Now().UTC()
	_, err := s.c.InsertOne(ctx, st)
	return err
}

// Consume returns and deletes the state if it exists and has not expired.
// A state can be consumed exactly once.
func (s *Store) Consume(ctx context.Context, state string) (State, bool, error) {
	var st State
	err := s.c.FindOneAndDelete(ctx, bson.M{
		"state":      state,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}).Decode(&st)

	if err == mongo.ErrNoDocuments {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, err
	}
	return st, true, nil
}

// CleanupExpired removes expired states, backing up the TTL monitor.
func (s *Store) CleanupExpired(ctx context.Context) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{
		"expires_at": bson.M{"$lt": time.Now().UTC()},
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
