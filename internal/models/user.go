package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a member of the congregation. Emails are stored lowercased and are
// unique across all users (enforced by a unique multikey index on "emails").
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`

	Name     string   `bson:"name" json:"name"`
	Emails   []string `bson:"emails" json:"emails"`
	Password string   `bson:"password" json:"-"` // bcrypt hash, never plaintext

	Bio      string `bson:"bio,omitempty" json:"bio,omitempty"`
	Verified bool   `bson:"verified" json:"verified"`
	Picture  string `bson:"picture,omitempty" json:"picture,omitempty"`

	// Password reset state: only the SHA-256 digest of the raw token is kept.
	ResetPasswordToken   string     `bson:"reset_password_token,omitempty" json:"-"`
	ResetPasswordExpires *time.Time `bson:"reset_password_expires,omitempty" json:"-"`
}

// Public returns the fields safe to embed in API responses.
func (u *User) Public() map[string]interface{} {
	out := map[string]interface{}{
		"id":     u.ID.Hex(),
		"name":   u.Name,
		"emails": u.Emails,
	}
	if u.Picture != "" {
		out["picture"] = u.Picture
	}
	return out
}
