package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/bookfinder/internal/apperror"
	"github.com/sakif/bookfinder/internal/model"
	"github.com/sakif/bookfinder/internal/repository"
)

// CreatePost inserts a new post and fills in ID, CreatedAt and UpdatedAt.
func (db *DB) CreatePost(ctx context.Context, post *model.Post) error {
	post.ID = xid.New().String()
	now := time.Now().UTC()
	post.CreatedAt = now
	post.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO posts (id, title, content, author_id, thumbnail_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		post.ID,
		post.Title,
		post.Content,
		post.AuthorID,
		post.ThumbnailURL,
		post.CreatedAt,
		post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating post: %w", err)
	}

	return nil
}

// GetPost retrieves a single post by ID.
// Returns apperror.ErrNotFound if the post doesn't exist.
func (db *DB) GetPost(ctx context.Context, id string) (*model.Post, error) {
	var p model.Post

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, title, content, author_id, thumbnail_url, created_at, updated_at
		 FROM posts
		 WHERE id = ?`,
		id,
	).Scan(
		&p.ID,
		&p.Title,
		&p.Content,
		&p.AuthorID,
		&p.ThumbnailURL,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("post", id)
		}
		return nil, fmt.Errorf("sqlite: getting post %s: %w", id, err)
	}

	return &p, nil
}

// ListPostsByAuthor returns the author's posts, most recently updated first.
func (db *DB) ListPostsByAuthor(ctx context.Context, authorID string) ([]model.PostSummary, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, title, author_id, thumbnail_url, created_at, updated_at
		 FROM posts
		 WHERE author_id = ?
		 ORDER BY updated_at DESC, id DESC`,
		authorID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing posts for %s: %w", authorID, err)
	}
	defer rows.Close()

	posts := make([]model.PostSummary, 0)
	for rows.Next() {
		var s model.PostSummary
		if err := rows.Scan(
			&s.ID, &s.Title, &s.AuthorID, &s.ThumbnailURL,
			&s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning post row: %w", err)
		}
		posts = append(posts, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating posts: %w", err)
	}

	return posts, nil
}

// UpdatePost writes title and content and refreshes UpdatedAt.
// Returns apperror.ErrNotFound if no row matched.
func (db *DB) UpdatePost(ctx context.Context, post *model.Post) error {
	post.UpdatedAt = time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE posts
		 SET title = ?, content = ?, updated_at = ?
		 WHERE id = ?`,
		post.Title,
		post.Content,
		post.UpdatedAt,
		post.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating post %s: %w", post.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("post", post.ID)
	}

	return nil
}

// DeletePost removes a post. Same RowsAffected check as UpdatePost.
func (db *DB) DeletePost(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting post %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("post", id)
	}

	return nil
}

// PostAuthorID returns the owning user id of a post.
func (db *DB) PostAuthorID(ctx context.Context, id string) (string, error) {
	var authorID string
	err := db.conn.QueryRowContext(ctx,
		`SELECT author_id FROM posts WHERE id = ?`, id,
	).Scan(&authorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", apperror.NotFound("post", id)
		}
		return "", fmt.Errorf("sqlite: getting author of post %s: %w", id, err)
	}
	return authorID, nil
}

// SearchPosts matches query against title or content. Both columns go
// through unicode_lower so they compare against the lower-cased pattern
// byte for byte, including non-ASCII letters.
func (db *DB) SearchPosts(ctx context.Context, query string, limit int) ([]model.PostMatch, error) {
	pattern := repository.ContainsPattern(query)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT p.id, p.title, p.content, p.author_id, p.thumbnail_url,
		        p.created_at, p.updated_at, u.username
		 FROM posts p
		 JOIN users u ON u.id = p.author_id
		 WHERE unicode_lower(p.title) LIKE ? ESCAPE '\' OR unicode_lower(p.content) LIKE ? ESCAPE '\'
		 ORDER BY p.updated_at DESC, p.id DESC
		 LIMIT ?`,
		pattern, pattern, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: searching posts: %w", err)
	}
	defer rows.Close()

	matches := make([]model.PostMatch, 0, limit)
	for rows.Next() {
		var m model.PostMatch
		if err := rows.Scan(
			&m.ID, &m.Title, &m.Content, &m.AuthorID, &m.ThumbnailURL,
			&m.CreatedAt, &m.UpdatedAt, &m.AuthorUsername,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning search row: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating search rows: %w", err)
	}

	return matches, nil
}
