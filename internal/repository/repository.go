// Package repository declares the storage contracts the services depend on.
// Implementations live in sub-packages (sqlite, postgres); services only
// ever see these interfaces.
package repository

import (
	"context"
	"time"

	"github.com/sakif/grindboard/internal/model"
)

// UserRepository is the member directory.
type UserRepository interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	// UpsertUser inserts or updates by email, keeping an existing user's ID.
	UpsertUser(ctx context.Context, user *model.User) error
}

// SettingsRepository owns the single shared settings row.
type SettingsRepository interface {
	// GetSettings returns the row, creating it with defaults on first access.
	GetSettings(ctx context.Context) (*model.Settings, error)
	UpdateToggles(ctx context.Context, patch model.SettingsPatch) (*model.Settings, error)
	SaveContent(ctx context.Context, bundle *model.RoastBundle) error
	// IncrementCounters adds totals to the counters for day in one atomic
	// statement. Counters stamped with a different day restart from zero.
	// Last-sent timestamps move to now only for a positive delta.
	IncrementCounters(ctx context.Context, day string, totals model.SendTotals, now time.Time) error
}

// Store is everything the server needs from a storage backend.
type Store interface {
	UserRepository
	SettingsRepository
	Close() error
}
