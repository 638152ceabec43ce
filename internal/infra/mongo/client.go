package mongo

import (
	"context"
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	challengesCollection  = "challenges"
	usersCollection       = "users"
	submissionsCollection = "submissions"
)

// Connect dials MongoDB and verifies the primary is reachable.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the uniqueness and ranking indexes. It is idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	caseInsensitive := &options.Collation{Locale: "en", Strength: 2}
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true).SetCollation(caseInsensitive)},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "points", Value: -1}, {Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}},
		},
		challengesCollection: {
			{Keys: bson.D{{Key: "active", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "difficulty", Value: 1}}},
			{Keys: bson.D{{Key: "category", Value: 1}}},
		},
		submissionsCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "submittedAt", Value: -1}}},
			{Keys: bson.D{{Key: "challengeId", Value: 1}, {Key: "submittedAt", Value: -1}}},
		},
	}
	for collection, models := range indexes {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", collection, err)
		}
	}
	return nil
}

// Test case inputs and outputs are arbitrary JSON; they are stored as JSON text so
// they round-trip as plain values instead of BSON documents.
func encodeJSON(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decodeJSON(s string) (any, error) {
	if s == "" {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, err
	}
	return v, nil
}
