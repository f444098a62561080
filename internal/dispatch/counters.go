package dispatch

import (
	"time"

	"github.com/sakif/grindboard/internal/model"
)

// ApplyResults folds one run's totals into a settings snapshot.
//
// Counters are added to, never overwritten. A timestamp moves to now only
// when at least one message of its kind went out.
//
// The persisted form is repository.SettingsRepository.IncrementCounters, which
// runs the same arithmetic as a single UPDATE so concurrent runs cannot lose
// increments. Storage tests check both forms agree; fakes use this one.
func ApplyResults(s model.Settings, totals model.SendTotals, now time.Time) model.Settings {
	s.EmailsSentToday += totals.EmailsSent
	s.WhatsappSentToday += totals.WhatsappSent
	if totals.EmailsSent > 0 {
		t := now
		s.LastEmailSent = &t
	}
	if totals.WhatsappSent > 0 {
		t := now
		s.LastWhatsappSent = &t
	}
	s.UpdatedAt = now
	return s
}
