// Package resilient composes a remote key-value backend with a process-local
// fallback behind the storage.Store contract.
//
// Reads try the remote once and fall back to the local snapshot on any failure,
// timeout or malformed payload. Writes always land in the local snapshot first
// and are then passed through to the remote once; the result tells the caller
// whether the remote accepted them. Nothing here retries, and nothing here
// returns an error for backend unavailability.
//
// Consistency is per process only: a write that never reached the remote is
// invisible to other processes. Concurrent writers of the same collection race
// and the last local assignment wins.
package resilient

import (
	"bulletin/observability"
	"bulletin/storage"
	"bulletin/storage/in_memory"
	"bulletin/storage/models"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

const DefaultRemoteTimeout = 2 * time.Second

var errRemoteTimeout = errors.New("remote call timed out")

// Purger hands remote deletion of a comment collection to someone else.
type Purger interface {
	DispatchPurge(ctx context.Context, key string) error
}

type Options struct {
	// RemoteTimeout bounds every single remote call. Zero means DefaultRemoteTimeout.
	RemoteTimeout time.Duration
	// Purger is optional; without it comment collections are deleted inline.
	Purger Purger
	Logger *slog.Logger
}

type ResilientStore struct {
	remote        storage.RemoteKV
	fallback      *in_memory.FallbackStore
	remoteTimeout time.Duration
	purger        Purger
	logger        *slog.Logger

	// reachable is advisory; every operation still tries the remote.
	reachable atomic.Bool
}

// New builds the store. remote may be nil, which behaves like a backend that
// is permanently down.
func New(remote storage.RemoteKV, fallback *in_memory.FallbackStore, opts Options) *ResilientStore {
	if fallback == nil {
		fallback = in_memory.CreateFallbackStore()
	}
	if opts.RemoteTimeout <= 0 {
		opts.RemoteTimeout = DefaultRemoteTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &ResilientStore{
		remote:        remote,
		fallback:      fallback,
		remoteTimeout: opts.RemoteTimeout,
		purger:        opts.Purger,
		logger:        opts.Logger.With("component", "store"),
	}
	s.reachable.Store(remote != nil)
	return s
}

func (s *ResilientStore) GetPosts(ctx context.Context) ([]models.Post, storage.Tier) {
	return readCollection[models.Post](ctx, s, "get_posts", models.PostsKey)
}

func (s *ResilientStore) SetPosts(ctx context.Context, posts []models.Post) storage.WriteResult {
	return writeCollection(ctx, s, "set_posts", models.PostsKey, posts)
}

func (s *ResilientStore) GetComments(ctx context.Context, postId string) ([]models.Comment, storage.Tier) {
	return readCollection[models.Comment](ctx, s, "get_comments", models.CommentsKey(postId))
}

func (s *ResilientStore) SetComments(ctx context.Context, postId string, comments []models.Comment) storage.WriteResult {
	return writeCollection(ctx, s, "set_comments", models.CommentsKey(postId), comments)
}

// DeleteCommentsFor drops the comment collection of a post from both tiers.
// It never fails; remote problems are only logged.
func (s *ResilientStore) DeleteCommentsFor(ctx context.Context, postId string) {
	key := models.CommentsKey(postId)
	s.fallback.Delete(key)
	if s.remote == nil {
		return
	}

	if s.purger != nil {
		err := bounded(ctx, s.remoteTimeout, func(ctx context.Context) error {
			return s.purger.DispatchPurge(ctx, key)
		})
		if err == nil {
			return
		}
		s.logger.Warn("Purge dispatch failed, deleting inline", "key", key, "error", err)
	}

	err := s.callRemote(ctx, "delete_comments", func(ctx context.Context) error {
		return s.remote.Del(ctx, key)
	})
	if err != nil {
		s.logger.Warn("Failed to delete remote comments", "key", key, "error", err)
	}
}

func (s *ResilientStore) Health() storage.Health {
	h := storage.Health{
		RemoteConfigured:    s.remote != nil,
		Backend:             "none",
		Reachable:           s.reachable.Load(),
		FallbackPosts:       s.fallback.Len(models.PostsKey),
		FallbackCollections: s.fallback.Keys(),
	}
	if s.remote != nil {
		h.Backend = s.remote.Name()
	}
	return h
}

func readCollection[T any](ctx context.Context, s *ResilientStore, op, key string) ([]T, storage.Tier) {
	if s.remote != nil {
		var raw []byte
		var found bool
		err := s.callRemote(ctx, op, func(ctx context.Context) error {
			var err error
			raw, found, err = s.remote.Get(ctx, key)
			return err
		})
		if err == nil {
			if !found {
				return []T{}, storage.TierRemote
			}
			items, err := decodeCollection[T](raw)
			if err == nil {
				return items, storage.TierRemote
			}
			observability.RemoteCallsTotal.WithLabelValues(op, observability.OutcomeMalformed).Inc()
			s.logger.Warn("Malformed remote collection, serving fallback", "op", op, "key", key, "error", err)
		} else {
			s.logger.Warn("Remote read failed, serving fallback", "op", op, "key", key, "error", err)
		}
	}
	observability.DegradedTotal.WithLabelValues(op).Inc()
	return fallbackCollection[T](s, key), storage.TierFallback
}

func writeCollection[T any](ctx context.Context, s *ResilientStore, op, key string, items []T) storage.WriteResult {
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		panic(fmt.Sprintf("resilient: encode %s: %v", key, err))
	}

	s.fallback.Set(key, raw)
	if s.remote == nil {
		observability.DegradedTotal.WithLabelValues(op).Inc()
		return storage.WriteResult{Persisted: false}
	}

	err = s.callRemote(ctx, op, func(ctx context.Context) error {
		return s.remote.Set(ctx, key, raw)
	})
	if err != nil {
		observability.DegradedTotal.WithLabelValues(op).Inc()
		s.logger.Warn("Remote write failed, kept in memory only", "op", op, "key", key, "error", err)
		return storage.WriteResult{Persisted: false}
	}
	return storage.WriteResult{Persisted: true}
}

func fallbackCollection[T any](s *ResilientStore, key string) []T {
	raw, found := s.fallback.Get(key)
	if !found {
		return []T{}
	}
	items, err := decodeCollection[T](raw)
	if err != nil {
		s.logger.Error("Corrupt fallback collection", "key", key, "error", err)
		return []T{}
	}
	return items
}

func decodeCollection[T any](raw []byte) ([]T, error) {
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// callRemote makes exactly one bounded attempt and records its outcome.
func (s *ResilientStore) callRemote(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	start := time.Now()
	err := bounded(ctx, s.remoteTimeout, fn)

	outcome := observability.OutcomeSuccess
	switch {
	case errors.Is(err, errRemoteTimeout):
		outcome = observability.OutcomeTimeout
	case err != nil:
		outcome = observability.OutcomeError
	default:
		observability.RemoteLatencySeconds.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
	observability.RemoteCallsTotal.WithLabelValues(op, outcome).Inc()
	// a caller that gave up says nothing about the backend
	if !errors.Is(err, context.Canceled) || ctx.Err() == nil {
		s.reachable.Store(err == nil)
	}
	return err
}

// bounded runs fn in its own goroutine and returns when fn does or when the
// timeout (or ctx) expires, whichever comes first. A client that ignores
// context cancellation keeps its goroutine until it returns on its own.
func bounded(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- fn(callCtx)
	}()

	select {
	case err := <-done:
		return err
	case <-callCtx.Done():
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return errRemoteTimeout
		}
		return callCtx.Err()
	}
}
