package model

import "time"

// Settings is the single shared automation record.
//
// The three toggles are independent kill switches; AutomationEnabled
// short-circuits every dispatch run. Counters only ever grow within a
// calendar day (CountersDate) and are bumped by storage-level atomic
// increments, never written back from memory.
type Settings struct {
	AutomationEnabled         bool         `json:"automationEnabled"`
	EmailAutomationEnabled    bool         `json:"emailAutomationEnabled"`
	WhatsappAutomationEnabled bool         `json:"whatsappAutomationEnabled"`
	EmailsSentToday           int          `json:"emailsSentToday"`
	WhatsappSentToday         int          `json:"whatsappSentToday"`
	LastEmailSent             *time.Time   `json:"lastEmailSent,omitempty"`
	LastWhatsappSent          *time.Time   `json:"lastWhatsappSent,omitempty"`
	CountersDate              string       `json:"countersDate,omitempty"`
	AIRoast                   *RoastBundle `json:"aiRoast,omitempty"`
	UpdatedAt                 time.Time    `json:"updatedAt"`
}

// DefaultSettings is the row created on first access.
func DefaultSettings() Settings {
	return Settings{
		AutomationEnabled:         true,
		EmailAutomationEnabled:    true,
		WhatsappAutomationEnabled: true,
	}
}

// SendTotals is the per-run delta applied to the settings counters.
type SendTotals struct {
	EmailsSent   int `json:"emailsSent"`
	WhatsappSent int `json:"whatsappSent"`
}

// SettingsPatch holds the toggles an admin may change. Nil leaves a toggle as is.
type SettingsPatch struct {
	AutomationEnabled         *bool `json:"automationEnabled,omitempty"`
	EmailAutomationEnabled    *bool `json:"emailAutomationEnabled,omitempty"`
	WhatsappAutomationEnabled *bool `json:"whatsappAutomationEnabled,omitempty"`
}
