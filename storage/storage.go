package storage

import (
	"bulletin/storage/models"
	"context"
	"errors"
	"fmt"
)

var (
	InternalError        = errors.New("storage internal error")
	ClientError          = errors.New("storage client error")
	NotFoundError        = fmt.Errorf("%w.not_found", ClientError)
	InvalidArgumentError = fmt.Errorf("%w.invalid_argument", ClientError)
)

// RemoteKV is the network key-value backend. Any call may fail or hang.
// Get reports a missing key with found == false and a nil error.
type RemoteKV interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
	Name() string
	Close(ctx context.Context) error
}

// Tier names the storage tier a read was served from.
type Tier string

const (
	TierRemote   Tier = "remote"
	TierFallback Tier = "fallback"
)

// WriteResult reports whether a write reached the remote backend.
// The fallback copy is always written, so Persisted == false is a
// "may not persist" caveat rather than a failure.
type WriteResult struct {
	Persisted bool
}

type Health struct {
	RemoteConfigured    bool   `json:"remoteConfigured"`
	Backend             string `json:"backend"`
	Reachable           bool   `json:"reachable"`
	FallbackPosts       int    `json:"fallbackPosts"`
	FallbackCollections int    `json:"fallbackCollections"`
}

type Store interface {
	GetPosts(ctx context.Context) ([]models.Post, Tier)
	SetPosts(ctx context.Context, posts []models.Post) WriteResult
	GetComments(ctx context.Context, postId string) ([]models.Comment, Tier)
	SetComments(ctx context.Context, postId string, comments []models.Comment) WriteResult
	DeleteCommentsFor(ctx context.Context, postId string)
	Health() Health
}
