package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/diasporalink/backend/internal/models"
)

// MongoRegistrationRepository stores registrations in a MongoDB collection.
type MongoRegistrationRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewMongoRegistrationRepository constructs a repository over the
// "registrations" collection of database.
func NewMongoRegistrationRepository(database *mongo.Database) *MongoRegistrationRepository {
	return &MongoRegistrationRepository{
		coll: database.Collection("registrations"),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Create inserts a new registration.
func (r *MongoRegistrationRepository) Create(ctx context.Context, reg models.Registration) (models.Registration, error) {
	if _, err := r.coll.InsertOne(ctx, reg); err != nil {
		if isDuplicate(err) {
			return models.Registration{}, ErrConflict
		}
		return models.Registration{}, fmt.Errorf("insert registration: %w", err)
	}
	return reg, nil
}

// List returns registrations newest first, optionally filtered by status.
func (r *MongoRegistrationRepository) List(ctx context.Context, status models.RegistrationStatus) ([]models.Registration, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "submittedAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("query registrations: %w", err)
	}

	registrations := []models.Registration{}
	if err := cursor.All(ctx, &registrations); err != nil {
		return nil, fmt.Errorf("decode registrations: %w", err)
	}
	return registrations, nil
}

// FindByID fetches a registration by its identifier.
func (r *MongoRegistrationRepository) FindByID(ctx context.Context, id string) (models.Registration, error) {
	var reg models.Registration
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&reg); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Registration{}, ErrNotFound
		}
		return models.Registration{}, fmt.Errorf("select registration: %w", err)
	}
	return reg, nil
}

// UpdateStatus records an admin decision on a registration.
func (r *MongoRegistrationRepository) UpdateStatus(ctx context.Context, id string, status models.RegistrationStatus) (models.Registration, error) {
	update := bson.M{"$set": bson.M{"status": status, "updatedAt": r.now()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var reg models.Registration
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&reg); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Registration{}, ErrNotFound
		}
		return models.Registration{}, fmt.Errorf("update registration status: %w", err)
	}
	return reg, nil
}

// Delete removes a registration.
func (r *MongoRegistrationRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MongoDocumentRepository stores one content kind in its own collection.
type MongoDocumentRepository[T any, P documentPtr[T]] struct {
	coll *mongo.Collection
}

// NewMongoDocumentRepository constructs a document repository over collection.
func NewMongoDocumentRepository[T any, P documentPtr[T]](database *mongo.Database, collection string) *MongoDocumentRepository[T, P] {
	return &MongoDocumentRepository[T, P]{coll: database.Collection(collection)}
}

// List returns every document, newest first.
func (r *MongoDocumentRepository[T, P]) List(ctx context.Context) ([]T, error) {
	cursor, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", r.coll.Name(), err)
	}

	docs := []T{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.coll.Name(), err)
	}
	return docs, nil
}

// Get fetches a document by id.
func (r *MongoDocumentRepository[T, P]) Get(ctx context.Context, id string) (T, error) {
	var doc T
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return doc, ErrNotFound
		}
		return doc, fmt.Errorf("select %s: %w", r.coll.Name(), err)
	}
	return doc, nil
}

// Insert stores a new document.
func (r *MongoDocumentRepository[T, P]) Insert(ctx context.Context, doc T) error {
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert %s: %w", r.coll.Name(), err)
	}
	return nil
}

// Replace overwrites an existing document.
func (r *MongoDocumentRepository[T, P]) Replace(ctx context.Context, doc T) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": P(&doc).DocumentID()}, doc)
	if err != nil {
		return fmt.Errorf("replace %s: %w", r.coll.Name(), err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a document.
func (r *MongoDocumentRepository[T, P]) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete %s: %w", r.coll.Name(), err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

var _ RegistrationRepository = (*MongoRegistrationRepository)(nil)
