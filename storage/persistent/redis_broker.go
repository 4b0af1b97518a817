package persistent

import (
	"bulletin/storage"
	"bulletin/storage/models"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/RichardKnop/machinery/v1"
	"github.com/RichardKnop/machinery/v1/config"
	"github.com/RichardKnop/machinery/v1/tasks"
)

const (
	PurgeCommentsTask = "purgeComments"

	purgeTimeout = 30 * time.Second
)

// Broker moves best-effort remote deletions of comment collections out of
// the request path. The server side only sends; a worker process registers
// the task and executes it against its own remote backend.
type Broker struct {
	server *machinery.Server
}

func CreateBroker(brokerUrl string) (*Broker, error) {
	cnf := &config.Config{
		DefaultQueue:    "bulletin_tasks",
		ResultsExpireIn: 3600,
		Broker:          brokerUrl, // "redis://localhost:6379"
		ResultBackend:   brokerUrl,
		Redis: &config.RedisConfig{
			MaxIdle:                3,
			IdleTimeout:            240,
			ReadTimeout:            15,
			WriteTimeout:           15,
			ConnectTimeout:         15,
			NormalTasksPollPeriod:  1000,
			DelayedTasksPollPeriod: 500,
		},
	}
	server, err := machinery.NewServer(cnf)
	if err != nil {
		return nil, fmt.Errorf("start broker: %w", err)
	}
	return &Broker{server: server}, nil
}

// DispatchPurge enqueues deletion of a comment collection key.
func (b *Broker) DispatchPurge(ctx context.Context, key string) error {
	if _, ok := models.PostIdFromCommentsKey(key); !ok {
		return fmt.Errorf("refusing to purge non-comment key %q: %w", key, storage.InvalidArgumentError)
	}
	signature := createPurgeCommentsTask(key)
	_, err := b.server.SendTaskWithContext(ctx, &signature)
	if err != nil {
		return fmt.Errorf("send %s task: %w", PurgeCommentsTask, err)
	}
	return nil
}

// RegisterPurge binds the purge task to kv. Only workers need it.
func (b *Broker) RegisterPurge(kv storage.RemoteKV) error {
	return b.server.RegisterTasks(map[string]interface{}{
		PurgeCommentsTask: purgeComments(kv),
	})
}

func (b *Broker) Launch(consumerTag string, concurrency int) error {
	worker := b.server.NewWorker(consumerTag, concurrency)

	errorhandler := func(err error) {
		slog.Error("Task failed", "error", err)
	}
	worker.SetErrorHandler(errorhandler)

	return worker.Launch()
}

func purgeComments(kv storage.RemoteKV) func(key string) error {
	return func(key string) error {
		if _, ok := models.PostIdFromCommentsKey(key); !ok {
			// Not retryable; report and drop.
			slog.Error("Dropping purge of non-comment key", "key", key)
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
		defer cancel()
		if err := kv.Del(ctx, key); err != nil {
			slog.Warn("Failed to purge comments", "key", key, "backend", kv.Name(), "error", err)
			return err
		}
		slog.Info("Purged comments", "key", key, "backend", kv.Name())
		return nil
	}
}

func createPurgeCommentsTask(key string) tasks.Signature {
	task := tasks.Signature{
		Name: PurgeCommentsTask,
		Args: []tasks.Arg{
			{
				Type:  "string",
				Value: key,
			},
		},
	}
	return task
}
