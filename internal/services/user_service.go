package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/MULLAZMUSH/victors-assembly-church/internal/database"
	"github.com/MULLAZMUSH/victors-assembly-church/internal/models"
)

func usersCol() *mongo.Collection {
	return database.DB.Collection("users")
}

// FindUserByEmail looks a user up by any of their addresses. Returns
// (nil, nil) when no user matches. email must already be normalized.
func FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := usersCol().FindOne(ctx, bson.M{"emails": email}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindUserByAnyEmail returns the first user owning any address in emails.
func FindUserByAnyEmail(ctx context.Context, emails []string) (*models.User, error) {
	var user models.User
	err := usersCol().FindOne(ctx, bson.M{"emails": bson.M{"$in": emails}}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByID returns (nil, nil) when the user does not exist.
func GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := usersCol().FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUsersByIDs loads a batch of users keyed by id, for embedding author /
// sender details into list responses.
func GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error) {
	out := make(map[primitive.ObjectID]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	cursor, err := usersCol().Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}
