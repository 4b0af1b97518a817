package persistent

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/bsonx"
)

func ensureKVIndexes(ctx context.Context, kv *mongo.Collection) error {
	indexModels := []mongo.IndexModel{
		{
			Keys: bsonx.Doc{
				{Key: "updatedAt", Value: bsonx.Int32(-1)},
			},
		},
	}
	opts := options.CreateIndexes().SetMaxTime(10 * time.Second)

	_, err := kv.Indexes().CreateMany(ctx, indexModels, opts)
	if err != nil {
		return fmt.Errorf("kv: failed to ensure indexes %w", err)
	}
	return nil
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS bulletin_kv (
	key        TEXT PRIMARY KEY,
	value      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS bulletin_kv_updated_at_idx ON bulletin_kv (updated_at DESC);
`

func ensurePostgresSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("kv: failed to ensure schema %w", err)
	}
	return nil
}
