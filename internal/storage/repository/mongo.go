package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type storageDocument struct {
	ID        string    `bson:"_id"`
	Value     string    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoRepository keeps one document per entry, keyed by prefix+key.
type MongoRepository struct {
	collection *mongo.Collection
	prefix     string
}

func NewMongoRepository(collection *mongo.Collection, prefix string) *MongoRepository {
	return &MongoRepository{collection: collection, prefix: prefix}
}

func (r *MongoRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var doc storageDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": r.prefix + key}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", false, nil
		}
		return "", false, err
	}
	return doc.Value, true, nil
}

func (r *MongoRepository) Set(ctx context.Context, key, value string) error {
	update := bson.M{"$set": bson.M{"value": value, "updated_at": time.Now().UTC()}}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": r.prefix + key}, update, options.Update().SetUpsert(true))
	return err
}

func (r *MongoRepository) Remove(ctx context.Context, key string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": r.prefix + key})
	return err
}
