package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VoiceChat records a completed call between two members.
type VoiceChat struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`

	User1     primitive.ObjectID `bson:"user_1" json:"user_1"`
	User2     primitive.ObjectID `bson:"user_2" json:"user_2"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
	Duration  int64              `bson:"duration,omitempty" json:"duration,omitempty"` // seconds
}
