// internal/domain/models/circle.go
package models

import "time"

// Circle is the tenant boundary for memberships, groups and events.
type Circle struct {
	ID             string    `bson:"_id" json:"id"`
	Name           string    `bson:"name" json:"name"`
	NameCI         string    `bson:"name_ci" json:"-"`
	Description    string    `bson:"description" json:"description"`
	InvitationCode string    `bson:"invitation_code" json:"invitation_code"`
	CreatedBy      string    `bson:"created_by" json:"created_by"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at" json:"updated_at"`
}
