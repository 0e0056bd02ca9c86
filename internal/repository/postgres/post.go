package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/xid"

	"github.com/sakif/bookfinder/internal/apperror"
	"github.com/sakif/bookfinder/internal/model"
	"github.com/sakif/bookfinder/internal/repository"
)

// CreatePost inserts a new post.
func (s *Storage) CreatePost(ctx context.Context, post *model.Post) error {
	const op = "postgres.CreatePost"

	post.ID = xid.New().String()
	now := time.Now().UTC()
	post.CreatedAt = now
	post.UpdatedAt = now

	_, err := s.db.Exec(ctx,
		`INSERT INTO posts (id, title, content, author_id, thumbnail_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		post.ID,
		post.Title,
		post.Content,
		post.AuthorID,
		post.ThumbnailURL,
		post.CreatedAt,
		post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetPost finds a post by id.
func (s *Storage) GetPost(ctx context.Context, id string) (*model.Post, error) {
	const op = "postgres.GetPost"

	var p model.Post
	err := s.db.QueryRow(ctx,
		`SELECT id, title, content, author_id, thumbnail_url, created_at, updated_at
		 FROM posts WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Title, &p.Content, &p.AuthorID, &p.ThumbnailURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("post", id)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &p, nil
}

// ListPostsByAuthor returns summaries, most recently updated first.
func (s *Storage) ListPostsByAuthor(ctx context.Context, authorID string) ([]model.PostSummary, error) {
	const op = "postgres.ListPostsByAuthor"

	rows, err := s.db.Query(ctx,
		`SELECT id, title, author_id, thumbnail_url, created_at, updated_at
		 FROM posts
		 WHERE author_id = $1
		 ORDER BY updated_at DESC, id DESC`,
		authorID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	posts := make([]model.PostSummary, 0)
	for rows.Next() {
		var p model.PostSummary
		if err := rows.Scan(&p.ID, &p.Title, &p.AuthorID, &p.ThumbnailURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return posts, nil
}

// UpdatePost writes title and content and refreshes updated_at.
func (s *Storage) UpdatePost(ctx context.Context, post *model.Post) error {
	const op = "postgres.UpdatePost"

	post.UpdatedAt = time.Now().UTC()
	tag, err := s.db.Exec(ctx,
		`UPDATE posts SET title = $1, content = $2, updated_at = $3 WHERE id = $4`,
		post.Title, post.Content, post.UpdatedAt, post.ID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("post", post.ID)
	}
	return nil
}

// DeletePost removes a post by id.
func (s *Storage) DeletePost(ctx context.Context, id string) error {
	const op = "postgres.DeletePost"

	tag, err := s.db.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("post", id)
	}
	return nil
}

// PostAuthorID returns the owning user id of a post.
func (s *Storage) PostAuthorID(ctx context.Context, id string) (string, error) {
	const op = "postgres.PostAuthorID"

	var authorID string
	err := s.db.QueryRow(ctx, `SELECT author_id FROM posts WHERE id = $1`, id).Scan(&authorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperror.NotFound("post", id)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return authorID, nil
}

// SearchPosts matches query against title or content with ILIKE.
func (s *Storage) SearchPosts(ctx context.Context, query string, limit int) ([]model.PostMatch, error) {
	const op = "postgres.SearchPosts"

	rows, err := s.db.Query(ctx,
		`SELECT p.id, p.title, p.content, p.author_id, p.thumbnail_url,
		        p.created_at, p.updated_at, u.username
		 FROM posts p
		 JOIN users u ON u.id = p.author_id
		 WHERE p.title ILIKE $1 ESCAPE '\' OR p.content ILIKE $1 ESCAPE '\'
		 ORDER BY p.updated_at DESC, p.id DESC
		 LIMIT $2`,
		repository.ContainsPattern(query), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	matches := make([]model.PostMatch, 0, limit)
	for rows.Next() {
		var m model.PostMatch
		if err := rows.Scan(
			&m.ID, &m.Title, &m.Content, &m.AuthorID, &m.ThumbnailURL,
			&m.CreatedAt, &m.UpdatedAt, &m.AuthorUsername,
		); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return matches, nil
}
