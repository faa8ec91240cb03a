// internal/domain/models/event.go
package models

import "time"

// EventFields are the user-editable fields of an event.
// Date is YYYY-MM-DD and Time is HH:MM (or empty), as entered in the client.
type EventFields struct {
	Name               string  `bson:"name" json:"name"`
	Date               string  `bson:"date" json:"date"`
	Time               string  `bson:"time" json:"time"`
	Location           string  `bson:"location" json:"location"`
	Description        string  `bson:"description" json:"description"`
	GroupID            *string `bson:"group_id" json:"group_id"`
	AttendanceRequired bool    `bson:"attendance_required" json:"attendance_required"`
}

// Event belongs to exactly one circle.
type Event struct {
	ID          string `bson:"_id" json:"id"`
	EventFields `bson:",inline"`
	CircleID    string    `bson:"circle_id" json:"circle_id"`
	CreatedBy   string    `bson:"created_by" json:"created_by"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}
