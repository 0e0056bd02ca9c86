// Package repository declares the storage interfaces used by the service
// layer. Implementations live in the sqlite and postgres sub-packages.
package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/sakif/bookfinder/internal/model"
)

// ErrDuplicate is returned when an insert violates a unique constraint.
var ErrDuplicate = errors.New("repository: duplicate")

// UserRepository is the credential store.
type UserRepository interface {
	// CreateUser inserts the user and fills in ID and CreatedAt.
	// Returns ErrDuplicate if the username is taken.
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
}

// PostRepository is the content store for posts.
type PostRepository interface {
	CreatePost(ctx context.Context, post *model.Post) error
	GetPost(ctx context.Context, id string) (*model.Post, error)
	ListPostsByAuthor(ctx context.Context, authorID string) ([]model.PostSummary, error)
	UpdatePost(ctx context.Context, post *model.Post) error
	DeletePost(ctx context.Context, id string) error

	// PostAuthorID loads only the owning user id of a post.
	PostAuthorID(ctx context.Context, id string) (string, error)

	// SearchPosts does a case-insensitive substring match of query against
	// title OR content, newest update first, at most limit rows.
	SearchPosts(ctx context.Context, query string, limit int) ([]model.PostMatch, error)
}

// FavoriteRepository is the content store for favorites.
type FavoriteRepository interface {
	// AddFavorite is idempotent: adding an existing pair is not an error.
	AddFavorite(ctx context.Context, fav *model.Favorite) error
	// RemoveFavorite is idempotent: removing a missing pair is not an error.
	RemoveFavorite(ctx context.Context, userID, bookID string) error
	ListFavorites(ctx context.Context, userID string) ([]model.Favorite, error)
}

// Store bundles every repository; both backends implement it.
type Store interface {
	UserRepository
	PostRepository
	FavoriteRepository
	Close() error
}

// ContainsPattern builds a LIKE pattern matching query as a literal,
// case-insensitive substring. Backslash is the escape character, so
// callers must use ESCAPE '\' in their SQL.
func ContainsPattern(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 2)
	b.WriteByte('%')
	for _, r := range strings.ToLower(query) {
		switch r {
		case '\\', '%', '_':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('%')
	return b.String()
}
