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

const userColumns = `id, username, password_hash, first_name, last_name, email, created_at`

// CreateUser inserts a new user.
func (s *Storage) CreateUser(ctx context.Context, user *model.User) error {
	const op = "postgres.CreateUser"

	user.ID = xid.New().String()
	user.CreatedAt = time.Now().UTC()

	_, err := s.db.Exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Email,
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: %w", op, repository.ErrDuplicate)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetUserByID finds a user by id.
func (s *Storage) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	const op = "postgres.GetUserByID"

	u, err := scanUser(s.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByUsername finds a user by username.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	const op = "postgres.GetUserByUsername"

	u, err := scanUser(s.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("user", username)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}
