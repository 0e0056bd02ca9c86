package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/bookfinder/internal/apperror"
	"github.com/sakif/bookfinder/internal/auth"
	"github.com/sakif/bookfinder/internal/catalog"
	"github.com/sakif/bookfinder/internal/fanout"
	"github.com/sakif/bookfinder/internal/model"
	"github.com/sakif/bookfinder/internal/repository"
)

const (
	// MaxFavoriteLookups bounds concurrent lookups while resolving a list.
	MaxFavoriteLookups = 4

	// FavoriteResolveTimeout bounds the whole resolution step, including
	// time spent waiting on the catalog rate limiter. Entries not resolved
	// in time become stubs.
	FavoriteResolveTimeout = 8 * time.Second
)

// VolumeFetcher is the part of catalog.Client the favorites list needs.
type VolumeFetcher interface {
	Volume(ctx context.Context, id string) (*catalog.Volume, error)
}

// FavoriteService manages a user's favorite books. Every operation is
// addressed by username and guarded by AssertSelf.
type FavoriteService struct {
	favorites repository.FavoriteRepository
	posts     repository.PostRepository
	users     repository.UserRepository
	catalog   VolumeFetcher
	guard     *OwnershipGuard
	logger    *slog.Logger

	maxLookups     int
	resolveTimeout time.Duration
}

func NewFavoriteService(
	favorites repository.FavoriteRepository,
	posts repository.PostRepository,
	users repository.UserRepository,
	cat VolumeFetcher,
	guard *OwnershipGuard,
	logger *slog.Logger,
) *FavoriteService {
	return &FavoriteService{
		favorites: favorites,
		posts:     posts,
		users:     users,
		catalog:   cat,
		guard:     guard,
		logger:    logger,

		maxLookups:     MaxFavoriteLookups,
		resolveTimeout: FavoriteResolveTimeout,
	}
}

// Add marks bookID as a favorite. Adding it again is not an error.
func (s *FavoriteService) Add(ctx context.Context, username, bookID string, requester auth.Identity) error {
	bookID = strings.TrimSpace(bookID)
	if bookID == "" {
		return apperror.ValidationFailed("bookId", "book id is required")
	}
	if err := s.guard.AssertSelf(ctx, username, requester); err != nil {
		return err
	}

	fav := &model.Favorite{UserID: requester.UserID, BookID: bookID}
	if err := s.favorites.AddFavorite(ctx, fav); err != nil {
		return fmt.Errorf("adding favorite: %w", err)
	}

	s.logger.Info("favorite added",
		slog.String("userID", requester.UserID),
		slog.String("bookID", bookID),
	)
	return nil
}

// Remove unmarks bookID. Removing a book that is not a favorite is not an
// error.
func (s *FavoriteService) Remove(ctx context.Context, username, bookID string, requester auth.Identity) error {
	if err := s.guard.AssertSelf(ctx, username, requester); err != nil {
		return err
	}
	if err := s.favorites.RemoveFavorite(ctx, requester.UserID, bookID); err != nil {
		return fmt.Errorf("removing favorite: %w", err)
	}

	s.logger.Info("favorite removed",
		slog.String("userID", requester.UserID),
		slog.String("bookID", bookID),
	)
	return nil
}

// List returns the user's favorites as books, oldest favorite first. Book
// ids are resolved concurrently, at most maxLookups at a time and within
// resolveTimeout; one that cannot be resolved becomes a stub so the list
// never loses an entry.
func (s *FavoriteService) List(ctx context.Context, username string, requester auth.Identity) ([]model.Book, error) {
	if err := s.guard.AssertSelf(ctx, username, requester); err != nil {
		return nil, err
	}

	favs, err := s.favorites.ListFavorites(ctx, requester.UserID)
	if err != nil {
		return nil, fmt.Errorf("listing favorites: %w", err)
	}

	ops := make([]fanout.Op[model.Book], 0, len(favs))
	for _, f := range favs {
		ops = append(ops, s.resolve(f.BookID))
	}

	resolveCtx, cancel := context.WithTimeout(ctx, s.resolveTimeout)
	defer cancel()

	books := make([]model.Book, 0, len(favs))
	for i, r := range fanout.JoinLimit(resolveCtx, s.maxLookups, ops...) {
		if r.Err != nil {
			s.logger.Warn("favorite could not be resolved",
				slog.String("bookID", favs[i].BookID),
				slog.String("error", r.Err.Error()),
			)
		}
		books = append(books, r.ValueOr(stubBook(favs[i].BookID)))
	}
	return books, nil
}

func (s *FavoriteService) resolve(bookID string) fanout.Op[model.Book] {
	return func(ctx context.Context) (model.Book, error) {
		if postID, ok := strings.CutPrefix(bookID, model.LocalIDPrefix); ok {
			return s.resolveLocal(ctx, postID)
		}

		v, err := s.catalog.Volume(ctx, bookID)
		if err != nil {
			return model.Book{}, err
		}
		return bookFromVolume(*v), nil
	}
}

func (s *FavoriteService) resolveLocal(ctx context.Context, postID string) (model.Book, error) {
	post, err := s.posts.GetPost(ctx, postID)
	if err != nil {
		return model.Book{}, err
	}

	match := model.PostMatch{Post: *post}
	author, err := s.users.GetUserByID(ctx, post.AuthorID)
	switch {
	case err == nil:
		match.AuthorUsername = author.Username
	case !errors.Is(err, apperror.ErrNotFound):
		return model.Book{}, err
	}
	return bookFromPost(match), nil
}
