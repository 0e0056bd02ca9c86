// Package service holds the business rules of BookFinder.
//
// The layers are the same everywhere in this module:
//
//	Handler (HTTP)  → parses requests, writes responses
//	Service         → validates, enforces ownership, orchestrates
//	Repository      → reads/writes the database
//
// Services take narrow interfaces, never concrete stores, so tests can pass
// in-memory fakes and main.go can choose SQLite or Postgres.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/bookfinder/internal/apperror"
	"github.com/sakif/bookfinder/internal/auth"
	"github.com/sakif/bookfinder/internal/model"
	"github.com/sakif/bookfinder/internal/repository"
)

// Validation limits for posts, counted in characters.
const (
	MaxPostTitleLength   = 200
	MaxPostContentLength = 50000
)

// PostService manages locally authored posts.
type PostService struct {
	posts  repository.PostRepository
	guard  *OwnershipGuard
	logger *slog.Logger
}

func NewPostService(posts repository.PostRepository, guard *OwnershipGuard, logger *slog.Logger) *PostService {
	return &PostService{
		posts:  posts,
		guard:  guard,
		logger: logger,
	}
}

// Create validates and saves a post authored by authorID.
func (s *PostService) Create(ctx context.Context, authorID, title, content, thumbnailURL string) (*model.Post, error) {
	title, content, err := validatePost(title, content)
	if err != nil {
		return nil, err
	}

	post := &model.Post{
		Title:        title,
		Content:      content,
		AuthorID:     authorID,
		ThumbnailURL: strings.TrimSpace(thumbnailURL),
	}
	if err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("creating post: %w", err)
	}

	s.logger.Info("post created",
		slog.String("id", post.ID),
		slog.String("authorID", authorID),
	)
	return post, nil
}

// Get returns a post by id. Any authenticated user may read any post.
func (s *PostService) Get(ctx context.Context, id string) (*model.Post, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "post id is required")
	}
	return s.posts.GetPost(ctx, id)
}

// ListByAuthor returns the author's posts, most recently updated first.
func (s *PostService) ListByAuthor(ctx context.Context, authorID string) ([]model.PostSummary, error) {
	posts, err := s.posts.ListPostsByAuthor(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	return posts, nil
}

// Update replaces a post's title and content. Only the author may update.
func (s *PostService) Update(ctx context.Context, id string, requester auth.Identity, title, content string) (*model.Post, error) {
	title, content, err := validatePost(title, content)
	if err != nil {
		return nil, err
	}
	if err := s.guard.AssertPostOwner(ctx, id, requester.UserID); err != nil {
		return nil, err
	}

	post, err := s.posts.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	post.Title = title
	post.Content = content

	if err := s.posts.UpdatePost(ctx, post); err != nil {
		return nil, err
	}

	s.logger.Info("post updated", slog.String("id", id))
	return post, nil
}

// Delete removes a post. Only the author may delete; deleting twice yields
// NotFound the second time.
func (s *PostService) Delete(ctx context.Context, id string, requester auth.Identity) error {
	if err := s.guard.AssertPostOwner(ctx, id, requester.UserID); err != nil {
		return err
	}
	if err := s.posts.DeletePost(ctx, id); err != nil {
		return err
	}

	s.logger.Info("post deleted", slog.String("id", id))
	return nil
}

func validatePost(title, content string) (string, string, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)

	if title == "" {
		return "", "", apperror.ValidationFailed("title", "title is required")
	}
	if utf8.RuneCountInString(title) > MaxPostTitleLength {
		return "", "", apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or fewer", MaxPostTitleLength))
	}
	if content == "" {
		return "", "", apperror.ValidationFailed("content", "content is required")
	}
	if utf8.RuneCountInString(content) > MaxPostContentLength {
		return "", "", apperror.ValidationFailed("content",
			fmt.Sprintf("content must be %d characters or fewer", MaxPostContentLength))
	}
	return title, content, nil
}
