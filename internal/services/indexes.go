package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/MULLAZMUSH/victors-assembly-church/internal/database"
)

// EnsureIndexes configures all MongoDB indexes. Called on startup from main
// after Mongo has connected.
func EnsureIndexes(ctx context.Context) error {
	// users: emails is a multikey index, so uniqueness holds across every
	// address of every user; reset token lookups are filtered by digest.
	userModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "emails", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_emails_unique"),
		},
		{
			Keys:    bson.D{{Key: "reset_password_token", Value: 1}},
			Options: options.Index().SetSparse(true).SetName("idx_reset_token"),
		},
	}
	if err := createIndexes(ctx, "users", userModels); err != nil {
		return err
	}

	// tokens: unique token string plus a TTL sweep on expires_at, so the
	// revocation store cleans itself up.
	tokenModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_token_unique"),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("idx_token_ttl"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("idx_token_user"),
		},
	}
	if err := createIndexes(ctx, "tokens", tokenModels); err != nil {
		return err
	}

	// chat_messages: compound index for newest-first room pagination.
	chatModels := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "room", Value: 1},
				{Key: "timestamp", Value: -1},
			},
			Options: options.Index().SetName("idx_room_timestamp"),
		},
	}
	return createIndexes(ctx, "chat_messages", chatModels)
}

func createIndexes(ctx context.Context, collection string, models []mongo.IndexModel) error {
	col := database.DB.Collection(collection)
	for _, m := range models {
		if _, err := col.Indexes().CreateOne(ctx, m); err != nil {
			return err
		}
	}
	return nil
}
