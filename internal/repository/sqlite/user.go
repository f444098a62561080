package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/grindboard/internal/apperror"
	"github.com/sakif/grindboard/internal/model"
	"github.com/sakif/grindboard/internal/repository"
)

// compile-time check that *DB implements repository.Store
var _ repository.Store = (*DB)(nil)

const userColumns = `id, name, email, phone_number, role, onboarding_completed,
	daily_grind_time, roast_intensity, external_username, created_at, updated_at`

// ListUsers returns the whole directory, oldest first.
//
// The dispatcher filters in memory (role, onboarding, slot) so the query
// stays dumb; the directory is small enough to read in one go.
func (db *DB) ListUsers(ctx context.Context) ([]model.User, error) {
	users := []model.User{}
	err := db.conn.SelectContext(ctx, &users,
		`SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	return users, nil
}

// GetUserByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := db.conn.GetContext(ctx, &u,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return &u, nil
}

// UpsertUser inserts or updates a user keyed by email.
//
// An existing row keeps its ID and CreatedAt; everything else is replaced.
// The struct is updated in place so the caller sees the stored ID and
// timestamps.
func (db *DB) UpsertUser(ctx context.Context, user *model.User) error {
	if user.Role == "" {
		user.Role = model.RoleUser
	}

	var existing struct {
		ID        string    `db:"id"`
		CreatedAt time.Time `db:"created_at"`
	}
	err := db.conn.GetContext(ctx, &existing,
		`SELECT id, created_at FROM users WHERE email = ?`, user.Email)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("sqlite: looking up user by email: %w", err)
	}

	now := time.Now().UTC()
	user.UpdatedAt = now

	if existing.ID != "" {
		user.ID = existing.ID
		user.CreatedAt = existing.CreatedAt
		_, err = db.conn.NamedExecContext(ctx, `
			UPDATE users SET
				name = :name,
				phone_number = :phone_number,
				role = :role,
				onboarding_completed = :onboarding_completed,
				daily_grind_time = :daily_grind_time,
				roast_intensity = :roast_intensity,
				external_username = :external_username,
				updated_at = :updated_at
			WHERE id = :id`, user)
		if err != nil {
			return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
		}
		return nil
	}

	if user.ID == "" {
		user.ID = xid.New().String()
	}
	user.CreatedAt = now
	_, err = db.conn.NamedExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (:id, :name, :email, :phone_number, :role, :onboarding_completed,
			:daily_grind_time, :roast_intensity, :external_username, :created_at, :updated_at)`, user)
	if err != nil {
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Email, err)
	}
	return nil
}
