// internal/domain/models/group.go
package models

import "time"

// Group is a sub-division of a circle used to tag events and memberships.
type Group struct {
	ID        string    `bson:"_id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	NameCI    string    `bson:"name_ci" json:"-"`
	CircleID  string    `bson:"circle_id" json:"circle_id"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
