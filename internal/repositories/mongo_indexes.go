package repositories

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// mongoIndexes mirrors the secondary indexes declared in migrations/.
var mongoIndexes = map[string][]mongo.IndexModel{
	"registrations": {
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "submittedAt", Value: -1}}},
		{Keys: bson.D{{Key: "submittedAt", Value: -1}}},
	},
	"blog_posts": {
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
	},
	"events": {
		{Keys: bson.D{{Key: "startsAt", Value: 1}}},
	},
}

// EnsureMongoIndexes creates the indexes the Mongo repositories rely on.
// Existing indexes with the same keys are left untouched.
func EnsureMongoIndexes(ctx context.Context, database *mongo.Database) error {
	for collection, indexes := range mongoIndexes {
		if _, err := database.Collection(collection).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("create %s indexes: %w", collection, err)
		}
	}
	return nil
}
