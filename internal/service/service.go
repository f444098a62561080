// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// DispatchService is also driven by cmd/dispatch, which is why none of the
// run logic lives in a handler: the CLI and the cron endpoint share one
// implementation and differ only in how they print the report.
//
// DEPENDENCY INJECTION:
// Services take repository interfaces, not *sqlite.DB or *postgres.DB.
// Tests pass in-memory fakes; main.go picks the backend.
package service

import (
	"time"

	"github.com/sakif/grindboard/internal/model"
)

// Clock returns the current time. Tests pin it; production uses time.Now.
type Clock func() time.Time

// DateLayout is how run dates and content dates are written.
const DateLayout = "2006-01-02"

// TodayContent returns the bundle to dispatch on date, or nil when there is
// nothing to send: no bundle, a bundle for another day, or no usable tier.
// A nil result is a normal outcome, not an error.
func TodayContent(s *model.Settings, date string) *model.RoastBundle {
	if s == nil || !s.AIRoast.ValidFor(date) || s.AIRoast.Empty() {
		return nil
	}
	return s.AIRoast
}
