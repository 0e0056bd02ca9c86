package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/bookfinder/internal/model"
)

// AddFavorite inserts the (user, book) pair unless it already exists.
func (db *DB) AddFavorite(ctx context.Context, fav *model.Favorite) error {
	fav.ID = xid.New().String()
	fav.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO favorites (id, user_id, book_id, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id, book_id) DO NOTHING`,
		fav.ID,
		fav.UserID,
		fav.BookID,
		fav.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: adding favorite %s for %s: %w", fav.BookID, fav.UserID, err)
	}
	return nil
}

// RemoveFavorite deletes the pair; a missing pair is not an error.
func (db *DB) RemoveFavorite(ctx context.Context, userID, bookID string) error {
	_, err := db.conn.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = ? AND book_id = ?`,
		userID, bookID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: removing favorite %s for %s: %w", bookID, userID, err)
	}
	return nil
}

// ListFavorites returns the user's favorites, oldest first.
func (db *DB) ListFavorites(ctx context.Context, userID string) ([]model.Favorite, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, book_id, created_at
		 FROM favorites
		 WHERE user_id = ?
		 ORDER BY created_at, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing favorites for %s: %w", userID, err)
	}
	defer rows.Close()

	favs := make([]model.Favorite, 0)
	for rows.Next() {
		var f model.Favorite
		if err := rows.Scan(&f.ID, &f.UserID, &f.BookID, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning favorite row: %w", err)
		}
		favs = append(favs, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating favorites: %w", err)
	}
	return favs, nil
}
