// Package board implements the bulletin board operations (posts, likes and
// comments) as read-modify-write cycles over a storage.Store.
//
// Posts are kept newest first. Comments are append-only and never update the
// counters of their post; counters only change through PatchPost.
package board

import (
	"bulletin/storage"
	"bulletin/storage/models"
	"bulletin/utils"
	"context"
	"fmt"
	"strings"
)

type Board struct {
	store storage.Store
	clock utils.Clock
}

func New(store storage.Store, clock utils.Clock) *Board {
	if clock == nil {
		clock = utils.RealClock{}
	}
	return &Board{store: store, clock: clock}
}

type NewPost struct {
	Content string `json:"content"`
	Author  string `json:"author"`
}

type NewComment struct {
	PostId  string `json:"postId"`
	Content string `json:"content"`
	Author  string `json:"author"`
	Avatar  string `json:"avatar"`
}

func (b *Board) ListPosts(ctx context.Context) []models.Post {
	posts, _ := b.store.GetPosts(ctx)
	return posts
}

func (b *Board) GetPost(ctx context.Context, id string) (models.Post, error) {
	posts, _ := b.store.GetPosts(ctx)
	idx := indexOf(posts, id)
	if idx < 0 {
		return models.Post{}, fmt.Errorf("no post with id %v: %w", id, storage.NotFoundError)
	}
	return posts[idx], nil
}

func (b *Board) CreatePost(ctx context.Context, in NewPost) (models.Post, storage.WriteResult, error) {
	content := strings.TrimSpace(in.Content)
	author := strings.TrimSpace(in.Author)
	if content == "" || author == "" {
		return models.Post{}, storage.WriteResult{}, fmt.Errorf("content and author are required: %w", storage.InvalidArgumentError)
	}

	posts, _ := b.store.GetPosts(ctx)
	now := b.clock.Now()
	id := models.NewId(now)
	for indexOf(posts, id) >= 0 {
		id = models.NewId(now)
	}
	post := models.Post{
		Id:        id,
		Content:   content,
		Author:    author,
		CreatedAt: models.FormatTime(now),
	}

	updated := make([]models.Post, 0, len(posts)+1)
	updated = append(updated, post)
	updated = append(updated, posts...)
	res := b.store.SetPosts(ctx, updated)
	return post, res, nil
}

func (b *Board) PatchPost(ctx context.Context, id string, patch models.PostPatch) (models.Post, storage.WriteResult, error) {
	if err := patch.Validate(); err != nil {
		return models.Post{}, storage.WriteResult{}, fmt.Errorf("%s: %w", err.Error(), storage.InvalidArgumentError)
	}
	posts, _ := b.store.GetPosts(ctx)
	idx := indexOf(posts, id)
	if idx < 0 {
		return models.Post{}, storage.WriteResult{}, fmt.Errorf("no post with id %v: %w", id, storage.NotFoundError)
	}

	updated := append([]models.Post(nil), posts...)
	updated[idx] = patch.Apply(posts[idx])
	res := b.store.SetPosts(ctx, updated)
	return updated[idx], res, nil
}

// DeletePost removes the post and then, best effort, its comments.
func (b *Board) DeletePost(ctx context.Context, id string) (storage.WriteResult, error) {
	posts, _ := b.store.GetPosts(ctx)
	idx := indexOf(posts, id)
	if idx < 0 {
		return storage.WriteResult{}, fmt.Errorf("no post with id %v: %w", id, storage.NotFoundError)
	}

	updated := make([]models.Post, 0, len(posts)-1)
	updated = append(updated, posts[:idx]...)
	updated = append(updated, posts[idx+1:]...)
	res := b.store.SetPosts(ctx, updated)
	b.store.DeleteCommentsFor(ctx, id)
	return res, nil
}

func (b *Board) ListComments(ctx context.Context, postId string) ([]models.Comment, error) {
	if strings.TrimSpace(postId) == "" {
		return nil, fmt.Errorf("postId is required: %w", storage.InvalidArgumentError)
	}
	comments, _ := b.store.GetComments(ctx, postId)
	return comments, nil
}

// AddComment appends a comment. The parent post is not looked up; comments
// of unknown or deleted posts are accepted.
func (b *Board) AddComment(ctx context.Context, in NewComment) (models.Comment, storage.WriteResult, error) {
	postId := strings.TrimSpace(in.PostId)
	content := strings.TrimSpace(in.Content)
	author := strings.TrimSpace(in.Author)
	if postId == "" || content == "" || author == "" {
		return models.Comment{}, storage.WriteResult{}, fmt.Errorf("postId, content and author are required: %w", storage.InvalidArgumentError)
	}
	avatar := strings.TrimSpace(in.Avatar)
	if avatar == "" {
		avatar = models.DefaultAvatar
	}

	comments, _ := b.store.GetComments(ctx, postId)
	now := b.clock.Now()
	id := models.NewId(now)
	for commentIndexOf(comments, id) >= 0 {
		id = models.NewId(now)
	}
	comment := models.Comment{
		Id:        id,
		PostId:    postId,
		Content:   content,
		Author:    author,
		Avatar:    avatar,
		CreatedAt: models.FormatTime(now),
	}

	updated := make([]models.Comment, 0, len(comments)+1)
	updated = append(updated, comments...)
	updated = append(updated, comment)
	res := b.store.SetComments(ctx, postId, updated)
	return comment, res, nil
}

func indexOf(posts []models.Post, id string) int {
	for i := range posts {
		if posts[i].Id == id {
			return i
		}
	}
	return -1
}

func commentIndexOf(comments []models.Comment, id string) int {
	for i := range comments {
		if comments[i].Id == id {
			return i
		}
	}
	return -1
}
