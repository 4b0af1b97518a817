package main

import (
	"bulletin/config"
	"bulletin/storage/persistent"
	"context"
	"errors"
	"log/slog"
)

const consumerTag = "bulletin_worker"

// CreateWorker runs the machinery worker that purges comment collections
// from the remote backend. It blocks until the worker stops.
func CreateWorker(ctx context.Context, cfg *config.ServerConfig) error {
	if cfg.BrokerUrl == "" {
		return errors.New("'broker-url' is required in worker mode")
	}
	remote, err := CreateRemote(ctx, cfg)
	if err != nil {
		return err
	}
	if remote == nil {
		return errors.New("worker mode needs a remote storage mode, not 'inmemory'")
	}
	defer remote.Close(context.Background())

	broker, err := persistent.CreateBroker(cfg.BrokerUrl)
	if err != nil {
		return err
	}
	if err := broker.RegisterPurge(remote); err != nil {
		return err
	}
	slog.Info("Starting worker", "backend", remote.Name(), "concurrency", cfg.WorkerConcurrency)
	return broker.Launch(consumerTag, cfg.WorkerConcurrency)
}
