package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Token kinds recorded in the token store.
const (
	TokenKindAccess  = "access"
	TokenKindRefresh = "refresh"
)

// IssuedToken is one outstanding access or refresh token. A signature-valid
// JWT is only honored while its row exists here, which is what makes logout
// and reset-time revocation possible. Expired rows are removed by a TTL
// index on expires_at.
type IssuedToken struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`

	Token     string             `bson:"token" json:"-"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Kind      string             `bson:"kind" json:"kind"`
	ExpiresAt time.Time          `bson:"expires_at" json:"expires_at"`
}
