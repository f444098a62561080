package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sakif/grindboard/internal/model"
)

// settingsRow mirrors the settings table. Nullable columns use sql.Null*
// and the content bundle is stored as JSON text.
type settingsRow struct {
	AutomationEnabled         bool           `db:"automation_enabled"`
	EmailAutomationEnabled    bool           `db:"email_automation_enabled"`
	WhatsappAutomationEnabled bool           `db:"whatsapp_automation_enabled"`
	EmailsSentToday           int            `db:"emails_sent_today"`
	WhatsappSentToday         int            `db:"whatsapp_sent_today"`
	LastEmailSent             sql.NullTime   `db:"last_email_sent"`
	LastWhatsappSent          sql.NullTime   `db:"last_whatsapp_sent"`
	CountersDate              string         `db:"counters_date"`
	AIRoast                   sql.NullString `db:"ai_roast"`
	UpdatedAt                 time.Time      `db:"updated_at"`
}

func (r settingsRow) toModel() (*model.Settings, error) {
	s := &model.Settings{
		AutomationEnabled:         r.AutomationEnabled,
		EmailAutomationEnabled:    r.EmailAutomationEnabled,
		WhatsappAutomationEnabled: r.WhatsappAutomationEnabled,
		EmailsSentToday:           r.EmailsSentToday,
		WhatsappSentToday:         r.WhatsappSentToday,
		CountersDate:              r.CountersDate,
		UpdatedAt:                 r.UpdatedAt,
	}
	if r.LastEmailSent.Valid {
		t := r.LastEmailSent.Time
		s.LastEmailSent = &t
	}
	if r.LastWhatsappSent.Valid {
		t := r.LastWhatsappSent.Time
		s.LastWhatsappSent = &t
	}
	if r.AIRoast.Valid && r.AIRoast.String != "" {
		var b model.RoastBundle
		if err := json.Unmarshal([]byte(r.AIRoast.String), &b); err != nil {
			return nil, fmt.Errorf("decoding ai_roast: %w", err)
		}
		s.AIRoast = &b
	}
	return s, nil
}

// ensureSettings creates the settings row with defaults if it is missing.
func (db *DB) ensureSettings(ctx context.Context) error {
	d := model.DefaultSettings()
	_, err := db.conn.ExecContext(ctx, `
		INSERT OR IGNORE INTO settings (id, automation_enabled, email_automation_enabled,
			whatsapp_automation_enabled, updated_at)
		VALUES (1, ?, ?, ?, ?)`,
		d.AutomationEnabled, d.EmailAutomationEnabled, d.WhatsappAutomationEnabled, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating settings row: %w", err)
	}
	return nil
}

// GetSettings returns the settings row, creating it on first access.
func (db *DB) GetSettings(ctx context.Context) (*model.Settings, error) {
	if err := db.ensureSettings(ctx); err != nil {
		return nil, err
	}

	var row settingsRow
	err := db.conn.GetContext(ctx, &row, `
		SELECT automation_enabled, email_automation_enabled, whatsapp_automation_enabled,
			emails_sent_today, whatsapp_sent_today, last_email_sent, last_whatsapp_sent,
			counters_date, ai_roast, updated_at
		FROM settings WHERE id = 1`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: reading settings: %w", err)
	}

	s, err := row.toModel()
	if err != nil {
		return nil, fmt.Errorf("sqlite: %w", err)
	}
	return s, nil
}

// UpdateToggles flips the automation switches present in patch.
// COALESCE keeps the stored value for every nil field.
func (db *DB) UpdateToggles(ctx context.Context, patch model.SettingsPatch) (*model.Settings, error) {
	if err := db.ensureSettings(ctx); err != nil {
		return nil, err
	}

	_, err := db.conn.ExecContext(ctx, `
		UPDATE settings SET
			automation_enabled = COALESCE(?, automation_enabled),
			email_automation_enabled = COALESCE(?, email_automation_enabled),
			whatsapp_automation_enabled = COALESCE(?, whatsapp_automation_enabled),
			updated_at = ?
		WHERE id = 1`,
		patch.AutomationEnabled, patch.EmailAutomationEnabled, patch.WhatsappAutomationEnabled,
		time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating toggles: %w", err)
	}
	return db.GetSettings(ctx)
}

// SaveContent replaces the stored content bundle.
func (db *DB) SaveContent(ctx context.Context, bundle *model.RoastBundle) error {
	if err := db.ensureSettings(ctx); err != nil {
		return err
	}

	raw, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("sqlite: encoding content: %w", err)
	}
	_, err = db.conn.ExecContext(ctx,
		`UPDATE settings SET ai_roast = ?, updated_at = ? WHERE id = 1`,
		string(raw), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: saving content: %w", err)
	}
	return nil
}

// IncrementCounters applies one run's totals in a single UPDATE.
//
// WHY ONE STATEMENT?
// Loading the row, adding in Go and writing it back loses an increment
// whenever two runs overlap. `x = x + :delta` is evaluated by SQLite under
// its write lock, so overlapping runs both land.
func (db *DB) IncrementCounters(ctx context.Context, day string, totals model.SendTotals, now time.Time) error {
	if err := db.ensureSettings(ctx); err != nil {
		return err
	}

	_, err := db.conn.NamedExecContext(ctx, `
		UPDATE settings SET
			emails_sent_today =
				CASE WHEN counters_date = :day THEN emails_sent_today ELSE 0 END + :emails,
			whatsapp_sent_today =
				CASE WHEN counters_date = :day THEN whatsapp_sent_today ELSE 0 END + :whatsapp,
			last_email_sent =
				CASE WHEN :emails > 0 THEN :now ELSE last_email_sent END,
			last_whatsapp_sent =
				CASE WHEN :whatsapp > 0 THEN :now ELSE last_whatsapp_sent END,
			counters_date = :day,
			updated_at = :now
		WHERE id = 1`,
		map[string]any{
			"day":      day,
			"emails":   totals.EmailsSent,
			"whatsapp": totals.WhatsappSent,
			"now":      now.UTC(),
		},
	)
	if err != nil {
		return fmt.Errorf("sqlite: incrementing counters: %w", err)
	}
	return nil
}
