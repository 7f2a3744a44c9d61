package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Profile is a member's extended profile, one per user.
type Profile struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`

	UserID  primitive.ObjectID `bson:"user_id" json:"user_id"`
	Bio     string             `bson:"bio,omitempty" json:"bio,omitempty"`
	Skills  []string           `bson:"skills" json:"skills"`
	Picture string             `bson:"picture,omitempty" json:"picture,omitempty"`
}
