package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/sakif/grindboard/internal/model"
)

// StatsUpdater refreshes a member's practice stats from their judge profile.
//
// The refresh runs before any reminder goes out and is bounded by a short
// deadline. Implementations must honor ctx and return once it is done.
type StatsUpdater interface {
	UpdateUserStats(ctx context.Context, userID, externalUsername string) error
}

// NoopStats is the StatsUpdater used when no profile source is configured.
type NoopStats struct{}

func (NoopStats) UpdateUserStats(context.Context, string, string) error { return nil }

const (
	// statsConcurrency bounds parallel profile refreshes.
	statsConcurrency = 5
	// defaultStatsTimeout caps the whole refresh, not each call.
	defaultStatsTimeout = 10 * time.Second
)

// refreshStats calls the updater for every user with an external username.
// Failures are logged and swallowed; a stale stat never blocks a reminder.
func refreshStats(ctx context.Context, updater StatsUpdater, users []model.User, timeout time.Duration, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	p := pool.New().WithMaxGoroutines(statsConcurrency)
	for _, u := range users {
		if u.ExternalUsername == nil || *u.ExternalUsername == "" {
			continue
		}
		p.Go(func() {
			if err := updater.UpdateUserStats(ctx, u.ID, *u.ExternalUsername); err != nil {
				logger.Warn("stats refresh failed",
					slog.String("userID", u.ID),
					slog.String("error", err.Error()),
				)
			}
		})
	}
	p.Wait()
}
