package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/MULLAZMUSH/victors-assembly-church/internal/database"
	"github.com/MULLAZMUSH/victors-assembly-church/internal/models"
)

// TokenStore records every issued token so that a signature-valid JWT can
// still be revoked (logout, password reset). Implementations must treat a
// lookup failure as an error, not as "token absent": the auth middleware
// fails closed on store errors.
type TokenStore interface {
	Record(ctx context.Context, token string, userID primitive.ObjectID, kind string, expiresAt time.Time) error
	Exists(ctx context.Context, token, kind string) (bool, error)
	Delete(ctx context.Context, token string) error
	DeleteForUser(ctx context.Context, userID primitive.ObjectID) error
}

// MongoTokenStore keeps issued tokens in the "tokens" collection. Expired
// rows are swept by the TTL index on expires_at, so the store never grows
// unbounded.
type MongoTokenStore struct{}

func NewMongoTokenStore() *MongoTokenStore {
	return &MongoTokenStore{}
}

func (s *MongoTokenStore) col() *mongo.Collection {
	return database.DB.Collection("tokens")
}

func (s *MongoTokenStore) Record(ctx context.Context, token string, userID primitive.ObjectID, kind string, expiresAt time.Time) error {
	_, err := s.col().InsertOne(ctx, models.IssuedToken{
		CreatedAt: time.Now(),
		Token:     token,
		UserID:    userID,
		Kind:      kind,
		ExpiresAt: expiresAt,
	})
	return err
}

func (s *MongoTokenStore) Exists(ctx context.Context, token, kind string) (bool, error) {
	// The expiry filter guards the window between a token expiring and the
	// TTL monitor deleting the row.
	filter := bson.M{
		"token":      token,
		"kind":       kind,
		"expires_at": bson.M{"$gt": time.Now()},
	}
	err := s.col().FindOne(ctx, filter).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *MongoTokenStore) Delete(ctx context.Context, token string) error {
	_, err := s.col().DeleteOne(ctx, bson.M{"token": token})
	return err
}

// DeleteForUser revokes every outstanding token for a user. Called when a
// password is reset so stolen sessions die with the old password.
func (s *MongoTokenStore) DeleteForUser(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.col().DeleteMany(ctx, bson.M{"user_id": userID})
	return err
}
