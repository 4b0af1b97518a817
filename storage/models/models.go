package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	PostsKey          = "posts"
	commentsKeyPrefix = "comments:"

	DefaultAvatar = "default-avatar.png"
)

var ErrNegativeCounter = errors.New("counter must not be negative")

type Post struct {
	Id        string `json:"id"`
	Content   string `json:"content"`
	Author    string `json:"author"`
	CreatedAt string `json:"createdAt"`
	Likes     int    `json:"likes"`
	Comments  int    `json:"comments"`
	Shares    int    `json:"shares"`
	Liked     bool   `json:"liked"`
}

type Comment struct {
	Id        string `json:"id"`
	PostId    string `json:"postId"`
	Content   string `json:"content"`
	Author    string `json:"author"`
	Avatar    string `json:"avatar"`
	CreatedAt string `json:"createdAt"`
}

// PostPatch is the allow-list of mutable Post fields. Decoding a request body
// into it drops every other field.
type PostPatch struct {
	Likes    *int  `json:"likes,omitempty"`
	Comments *int  `json:"comments,omitempty"`
	Shares   *int  `json:"shares,omitempty"`
	Liked    *bool `json:"liked,omitempty"`
}

func (p PostPatch) Validate() error {
	for name, v := range map[string]*int{"likes": p.Likes, "comments": p.Comments, "shares": p.Shares} {
		if v != nil && *v < 0 {
			return fmt.Errorf("%s: %w", name, ErrNegativeCounter)
		}
	}
	return nil
}

// Apply returns a copy of post with the patched fields overwritten.
func (p PostPatch) Apply(post Post) Post {
	if p.Likes != nil {
		post.Likes = *p.Likes
	}
	if p.Comments != nil {
		post.Comments = *p.Comments
	}
	if p.Shares != nil {
		post.Shares = *p.Shares
	}
	if p.Liked != nil {
		post.Liked = *p.Liked
	}
	return post
}

// NewId builds "<unix millis>-<random>" so ids sort roughly by creation time
// and stay unique under concurrent creation.
func NewId(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%d-%s", now.UnixMilli(), suffix)
}

func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func CommentsKey(postId string) string {
	if postId == "" {
		panic("models: empty post id for comments key")
	}
	return commentsKeyPrefix + postId
}

// PostIdFromCommentsKey is the inverse of CommentsKey.
func PostIdFromCommentsKey(key string) (string, bool) {
	if !strings.HasPrefix(key, commentsKeyPrefix) || len(key) == len(commentsKeyPrefix) {
		return "", false
	}
	return strings.TrimPrefix(key, commentsKeyPrefix), true
}
