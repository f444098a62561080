package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/xid"

	"github.com/sakif/grindboard/internal/apperror"
	"github.com/sakif/grindboard/internal/model"
	"github.com/sakif/grindboard/internal/repository"
)

var _ repository.Store = (*DB)(nil)

const userColumns = `id, name, email, phone_number, role, onboarding_completed,
	daily_grind_time, roast_intensity, external_username, created_at, updated_at`

// ListUsers returns the whole directory, oldest first.
func (db *DB) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := db.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing users: %w", err)
	}
	users, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.User])
	if err != nil {
		return nil, fmt.Errorf("postgres: scanning users: %w", err)
	}
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

// GetUserByID returns apperror.ErrNotFound when no row matches.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	rows, err := db.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("postgres: getting user %s: %w", id, err)
	}
	u, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[model.User])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("postgres: getting user %s: %w", id, err)
	}
	return &u, nil
}

// UpsertUser inserts or updates by email in one statement. RETURNING hands
// back the surviving id and created_at, so an existing user keeps both.
func (db *DB) UpsertUser(ctx context.Context, user *model.User) error {
	if user.Role == "" {
		user.Role = model.RoleUser
	}
	if user.ID == "" {
		user.ID = xid.New().String()
	}
	now := time.Now().UTC()
	user.UpdatedAt = now

	err := db.pool.QueryRow(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		ON CONFLICT (email) DO UPDATE SET
			name = EXCLUDED.name,
			phone_number = EXCLUDED.phone_number,
			role = EXCLUDED.role,
			onboarding_completed = EXCLUDED.onboarding_completed,
			daily_grind_time = EXCLUDED.daily_grind_time,
			roast_intensity = EXCLUDED.roast_intensity,
			external_username = EXCLUDED.external_username,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at`,
		user.ID, user.Name, user.Email, user.PhoneNumber, string(user.Role), user.OnboardingCompleted,
		user.DailyGrindTime, user.RoastIntensity, user.ExternalUsername, now,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: upserting user %s: %w", user.Email, err)
	}
	return nil
}
