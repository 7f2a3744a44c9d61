package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Recurrence options for events.
const (
	RecurringNone    = "none"
	RecurringDaily   = "daily"
	RecurringWeekly  = "weekly"
	RecurringMonthly = "monthly"
)

// ValidRecurring reports whether s is an accepted recurrence value.
func ValidRecurring(s string) bool {
	switch s {
	case RecurringNone, RecurringDaily, RecurringWeekly, RecurringMonthly:
		return true
	}
	return false
}

// Event is a church calendar entry (services, bible study, outreach, ...).
type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`

	Title       string               `bson:"title" json:"title"`
	Description string               `bson:"description,omitempty" json:"description,omitempty"`
	Date        time.Time            `bson:"date" json:"date"`
	Location    string               `bson:"location" json:"location"`
	Recurring   string               `bson:"recurring" json:"recurring"`
	Attendees   []primitive.ObjectID `bson:"attendees" json:"attendees"`
	CreatedBy   primitive.ObjectID   `bson:"created_by" json:"created_by"`
	NotifyUsers []primitive.ObjectID `bson:"notify_users,omitempty" json:"notify_users,omitempty"`
}
