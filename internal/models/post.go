package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post is a public bulletin-board entry.
type Post struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`

	Title   string             `bson:"title" json:"title"`
	Content string             `bson:"content" json:"content"`
	UserID  primitive.ObjectID `bson:"user_id" json:"user_id"`
}
