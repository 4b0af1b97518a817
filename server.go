package main

import (
	"bulletin/board"
	"bulletin/config"
	"bulletin/handlers"
	"bulletin/storage"
	"bulletin/storage/in_memory"
	"bulletin/storage/persistent"
	"bulletin/storage/resilient"
	"bulletin/utils"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// CreateRemote connects the backend selected by the storage mode. The
// in-memory mode has no remote and returns nil.
func CreateRemote(ctx context.Context, cfg *config.ServerConfig) (storage.RemoteKV, error) {
	switch cfg.StorageMode {
	case config.InMemory:
		return nil, nil
	case config.Redis:
		return persistent.CreateRedisKV(cfg.RedisUrl), nil
	case config.Mongo:
		return persistent.CreateMongoKV(ctx, cfg.MongoUrl, cfg.MongoDbName)
	case config.Postgres:
		return persistent.CreatePostgresKV(ctx, cfg.PostgresUrl)
	default:
		return nil, fmt.Errorf("invalid storage mode %q", cfg.StorageMode)
	}
}

func CreateRouter(cfg *config.ServerConfig, store *resilient.ResilientStore) http.Handler {
	r := mux.NewRouter()
	clock := utils.RealClock{}
	handler := &handlers.HTTPHandler{
		Board: board.New(store, clock),
		Store: store,
	}
	handler.Register(r)

	return handlers.Wrap(r, handlers.TimeoutGuardOptions{
		Timeout:         cfg.RequestTimeout,
		Clock:           clock,
		CancelOnTimeout: cfg.CancelOnTimeout,
	})
}

// CreateServer wires backend, store and router. The returned function
// releases the backend connection.
func CreateServer(ctx context.Context, cfg *config.ServerConfig) (*http.Server, func(context.Context) error, error) {
	remote, err := CreateRemote(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	opts := resilient.Options{RemoteTimeout: cfg.RemoteTimeout}
	if cfg.BrokerUrl != "" && remote != nil {
		broker, err := persistent.CreateBroker(cfg.BrokerUrl)
		if err != nil {
			_ = remote.Close(ctx)
			return nil, nil, err
		}
		opts.Purger = broker
	}
	store := resilient.New(remote, in_memory.CreateFallbackStore(), opts)

	backend := store.Health().Backend
	slog.Info("Storage configured", "mode", cfg.StorageMode, "backend", backend, "async_purge", opts.Purger != nil)

	cleanup := func(ctx context.Context) error {
		if remote == nil {
			return nil
		}
		return remote.Close(ctx)
	}
	return &http.Server{
		Handler:      CreateRouter(cfg, store),
		Addr:         cfg.Addr(),
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		ReadTimeout:  15 * time.Second,
	}, cleanup, nil
}
