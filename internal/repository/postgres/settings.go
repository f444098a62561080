package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sakif/grindboard/internal/model"
)

const settingsColumns = `automation_enabled, email_automation_enabled, whatsapp_automation_enabled,
	emails_sent_today, whatsapp_sent_today, last_email_sent, last_whatsapp_sent,
	counters_date, ai_roast, updated_at`

func (db *DB) ensureSettings(ctx context.Context) error {
	_, err := db.pool.Exec(ctx, `INSERT INTO settings (id) VALUES (1) ON CONFLICT (id) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("postgres: creating settings row: %w", err)
	}
	return nil
}

func scanSettings(row pgx.Row) (*model.Settings, error) {
	var (
		s   model.Settings
		raw []byte
	)
	err := row.Scan(
		&s.AutomationEnabled, &s.EmailAutomationEnabled, &s.WhatsappAutomationEnabled,
		&s.EmailsSentToday, &s.WhatsappSentToday, &s.LastEmailSent, &s.LastWhatsappSent,
		&s.CountersDate, &raw, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(raw) > 0 {
		var b model.RoastBundle
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, fmt.Errorf("decoding ai_roast: %w", err)
		}
		s.AIRoast = &b
	}
	return &s, nil
}

// GetSettings returns the settings row, creating it on first access.
func (db *DB) GetSettings(ctx context.Context) (*model.Settings, error) {
	if err := db.ensureSettings(ctx); err != nil {
		return nil, err
	}
	s, err := scanSettings(db.pool.QueryRow(ctx, `SELECT `+settingsColumns+` FROM settings WHERE id = 1`))
	if err != nil {
		return nil, fmt.Errorf("postgres: reading settings: %w", err)
	}
	return s, nil
}

// UpdateToggles flips the switches present in patch and returns the new row.
func (db *DB) UpdateToggles(ctx context.Context, patch model.SettingsPatch) (*model.Settings, error) {
	if err := db.ensureSettings(ctx); err != nil {
		return nil, err
	}
	s, err := scanSettings(db.pool.QueryRow(ctx, `
		UPDATE settings SET
			automation_enabled = COALESCE($1, automation_enabled),
			email_automation_enabled = COALESCE($2, email_automation_enabled),
			whatsapp_automation_enabled = COALESCE($3, whatsapp_automation_enabled),
			updated_at = now()
		WHERE id = 1
		RETURNING `+settingsColumns,
		patch.AutomationEnabled, patch.EmailAutomationEnabled, patch.WhatsappAutomationEnabled,
	))
	if err != nil {
		return nil, fmt.Errorf("postgres: updating toggles: %w", err)
	}
	return s, nil
}

// SaveContent replaces the stored content bundle.
func (db *DB) SaveContent(ctx context.Context, bundle *model.RoastBundle) error {
	if err := db.ensureSettings(ctx); err != nil {
		return err
	}
	raw, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("postgres: encoding content: %w", err)
	}
	if _, err := db.pool.Exec(ctx,
		`UPDATE settings SET ai_roast = $1, updated_at = now() WHERE id = 1`, raw); err != nil {
		return fmt.Errorf("postgres: saving content: %w", err)
	}
	return nil
}

// IncrementCounters applies one run's totals in a single UPDATE; the row
// lock taken by UPDATE serializes overlapping runs.
func (db *DB) IncrementCounters(ctx context.Context, day string, totals model.SendTotals, now time.Time) error {
	if err := db.ensureSettings(ctx); err != nil {
		return err
	}
	_, err := db.pool.Exec(ctx, `
		UPDATE settings SET
			emails_sent_today =
				CASE WHEN counters_date = $1 THEN emails_sent_today ELSE 0 END + $2,
			whatsapp_sent_today =
				CASE WHEN counters_date = $1 THEN whatsapp_sent_today ELSE 0 END + $3,
			last_email_sent =
				CASE WHEN $2 > 0 THEN $4 ELSE last_email_sent END,
			last_whatsapp_sent =
				CASE WHEN $3 > 0 THEN $4 ELSE last_whatsapp_sent END,
			counters_date = $1,
			updated_at = $4
		WHERE id = 1`,
		day, totals.EmailsSent, totals.WhatsappSent, now.UTC(),
	)
	if err != nil {
		return fmt.Errorf("postgres: incrementing counters: %w", err)
	}
	return nil
}
