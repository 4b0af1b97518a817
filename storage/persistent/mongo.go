package persistent

import (
	"bulletin/storage"
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoCollection = "kv"

type kvDocument struct {
	Key       string `bson:"_id"`
	Value     string `bson:"value"`
	UpdatedAt string `bson:"updatedAt"`
}

type MongoKV struct {
	client *mongo.Client
	kv     *mongo.Collection
}

func CreateMongoKV(ctx context.Context, dbUrl, dbName string) (*MongoKV, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(dbUrl))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	kv := client.Database(dbName).Collection(mongoCollection)
	if err := ensureKVIndexes(ctx, kv); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return &MongoKV{
		client: client,
		kv:     kv,
	}, nil
}

func (s *MongoKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var result kvDocument
	err := s.kv.FindOne(ctx, bson.M{"_id": key}).Decode(&result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to find key %s: %s %w", key, err.Error(), storage.InternalError)
	}
	return []byte(result.Value), true, nil
}

func (s *MongoKV) Set(ctx context.Context, key string, value []byte) error {
	doc := kvDocument{
		Key:       key,
		Value:     string(value),
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	opts := options.Replace().SetUpsert(true)
	_, err := s.kv.ReplaceOne(ctx, bson.M{"_id": key}, doc, opts)
	if err != nil {
		return fmt.Errorf("failed to upsert key %s: %s %w", key, err.Error(), storage.InternalError)
	}
	return nil
}

func (s *MongoKV) Del(ctx context.Context, key string) error {
	_, err := s.kv.DeleteOne(ctx, bson.M{"_id": key})
	if err != nil {
		return fmt.Errorf("failed to delete key %s: %s %w", key, err.Error(), storage.InternalError)
	}
	return nil
}

func (s *MongoKV) Name() string {
	return "mongo"
}

func (s *MongoKV) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
