// internal/domain/models/user.go
package models

import (
	"strings"
	"time"
)

// Profile holds the editable part of a user document.
type Profile struct {
	LastName      string `bson:"last_name" json:"last_name"`
	FirstName     string `bson:"first_name" json:"first_name"`
	LastNameKana  string `bson:"last_name_kana" json:"last_name_kana"`
	FirstNameKana string `bson:"first_name_kana" json:"first_name_kana"`
	Affiliation   string `bson:"affiliation" json:"affiliation"`
	Grade         string `bson:"grade" json:"grade"`
}

// User is keyed by the identity provider's subject id.
//
// NOTE:
//   - Email mirrors the identity provider and is never changed by profile edits.
//   - BookmarkedEvents and AttendingEvents are sets; the stores only modify
//     them through atomic toggles, so they never hold duplicates.
type User struct {
	ID      string `bson:"_id" json:"id"`
	Profile `bson:",inline"`
	Email   string `bson:"email" json:"email"`

	BookmarkedEvents []string `bson:"bookmarked_events" json:"bookmarked_events"`
	AttendingEvents  []string `bson:"attending_events" json:"attending_events"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// DisplayName is "last first", the order used across the circle views.
func (u User) DisplayName() string {
	return strings.TrimSpace(strings.TrimSpace(u.LastName) + " " + strings.TrimSpace(u.FirstName))
}

// HasBookmarked reports whether eventID is in the user's bookmark set.
func (u User) HasBookmarked(eventID string) bool {
	return containsID(u.BookmarkedEvents, eventID)
}

// IsAttending reports whether eventID is in the user's attendance set.
func (u User) IsAttending(eventID string) bool {
	return containsID(u.AttendingEvents, eventID)
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
