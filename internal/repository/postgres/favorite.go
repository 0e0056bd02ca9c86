package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/bookfinder/internal/model"
)

// AddFavorite inserts the pair unless it already exists.
func (s *Storage) AddFavorite(ctx context.Context, fav *model.Favorite) error {
	const op = "postgres.AddFavorite"

	fav.ID = xid.New().String()
	fav.CreatedAt = time.Now().UTC()

	_, err := s.db.Exec(ctx,
		`INSERT INTO favorites (id, user_id, book_id, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, book_id) DO NOTHING`,
		fav.ID, fav.UserID, fav.BookID, fav.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// RemoveFavorite deletes the pair if present.
func (s *Storage) RemoveFavorite(ctx context.Context, userID, bookID string) error {
	const op = "postgres.RemoveFavorite"

	if _, err := s.db.Exec(ctx,
		`DELETE FROM favorites WHERE user_id = $1 AND book_id = $2`, userID, bookID,
	); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListFavorites returns the user's favorites, oldest first.
func (s *Storage) ListFavorites(ctx context.Context, userID string) ([]model.Favorite, error) {
	const op = "postgres.ListFavorites"

	rows, err := s.db.Query(ctx,
		`SELECT id, user_id, book_id, created_at
		 FROM favorites WHERE user_id = $1
		 ORDER BY created_at, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	favs := make([]model.Favorite, 0)
	for rows.Next() {
		var f model.Favorite
		if err := rows.Scan(&f.ID, &f.UserID, &f.BookID, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		favs = append(favs, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return favs, nil
}
