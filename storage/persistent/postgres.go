package persistent

import (
	"bulletin/storage"
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresKV struct {
	pool *pgxpool.Pool
}

func CreatePostgresKV(ctx context.Context, dsn string) (*PostgresKV, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	cfg.MaxConns = 20
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheStatement
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := ensurePostgresSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresKV{pool: pool}, nil
}

func (s *PostgresKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value string
	err := s.pool.QueryRow(ctx, `SELECT value::text FROM bulletin_kv WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("postgres get %s: %s %w", key, err.Error(), storage.InternalError)
	}
	return []byte(value), true, nil
}

func (s *PostgresKV) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO bulletin_kv (key, value, updated_at) VALUES ($1, $2::text::jsonb, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		key, string(value))
	if err != nil {
		return fmt.Errorf("postgres set %s: %s %w", key, err.Error(), storage.InternalError)
	}
	return nil
}

func (s *PostgresKV) Del(ctx context.Context, key string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM bulletin_kv WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("postgres del %s: %s %w", key, err.Error(), storage.InternalError)
	}
	return nil
}

func (s *PostgresKV) Name() string {
	return "postgres"
}

func (s *PostgresKV) Close(_ context.Context) error {
	s.pool.Close()
	return nil
}
