package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/mypeople/backend/internal/apperror"
	"github.com/mypeople/backend/internal/model"
	"github.com/mypeople/backend/internal/repository"
)

// UserDB implements repository.UserRepository over the shared pool.
type UserDB struct {
	conn *sql.DB
}

// compile-time check that *UserDB implements repository.UserRepository
var _ repository.UserRepository = (*UserDB)(nil)

// userColumns is the canonical SELECT list; scanUser must match its order.
const userColumns = `id, email, username, display_name, password_hash, profile_image_url, created_at, updated_at`

// scanUser reads one users row. username is nullable in the schema (so the
// unique index allows many unset handles), hence the NullString dance.
func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var username sql.NullString

	err := row.Scan(
		&u.ID,
		&u.Email,
		&username,
		&u.DisplayName,
		&u.PasswordHash,
		&u.ProfileImageURL,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.Username = username.String
	return &u, nil
}

// Create inserts a new user, assigning a fresh xid and timestamps in place.
//
// The UNIQUE constraints on email and username surface as
// apperror.ErrConflict so the sign-up handler can answer 409 instead of 500.
func (r *UserDB) Create(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, username, display_name, password_hash, profile_image_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		nullIfEmpty(user.Username),
		user.DisplayName,
		user.PasswordHash,
		user.ProfileImageURL,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", "email or username already registered")
		}
		return fmt.Errorf("sqlite: creating user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (r *UserDB) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := r.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}

	return user, nil
}

// GetByEmail retrieves a user by their login email.
func (r *UserDB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)

	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}

	return user, nil
}

// Update writes the mutable profile fields (username, display name, avatar).
// Email, password hash, ID, and created_at are not written here — each of
// those changes through its own flow or not at all.
func (r *UserDB) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now()

	result, err := r.conn.ExecContext(ctx,
		`UPDATE users
		 SET username = ?, display_name = ?, profile_image_url = ?, updated_at = ?
		 WHERE id = ?`,
		nullIfEmpty(user.Username),
		user.DisplayName,
		user.ProfileImageURL,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", "username already taken")
		}
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("user", user.ID)
	}

	return nil
}
