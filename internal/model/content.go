package model

import (
	"strings"
	"time"
)

// NamePlaceholder is replaced with the recipient's first name before sending.
const NamePlaceholder = "[NAME]"

// RoastTier is the pre-generated copy for one intensity.
//
// FullMessage is the only required field. EmailSubject and EmailBody are
// optional; when both are present, channels send the templated variant,
// otherwise they fall back to FullMessage.
type RoastTier struct {
	FullMessage      string `json:"fullMessage"`
	DashboardMessage string `json:"dashboardMessage,omitempty"` // short variant shown on the dashboard
	EmailSubject     string `json:"emailSubject,omitempty"`
	EmailBody        string `json:"emailBody,omitempty"`
}

// Usable reports whether the tier carries a message that can be sent.
func (t *RoastTier) Usable() bool {
	return t != nil && strings.TrimSpace(t.FullMessage) != ""
}

// RoastBundle is the dated content produced once per day.
//
// WHY FIXED FIELDS INSTEAD OF map[string]*RoastTier?
// There are exactly three tiers. Named fields plus Tier() give every lookup an
// explicit presence check and keep typos like bundle["savgae"] from compiling.
type RoastBundle struct {
	Date        string     `json:"date"` // YYYY-MM-DD in the dispatcher's timezone
	Mild        *RoastTier `json:"mild,omitempty"`
	Medium      *RoastTier `json:"medium,omitempty"`
	Savage      *RoastTier `json:"savage,omitempty"`
	GeneratedAt time.Time  `json:"generatedAt"`
}

// Tier returns the content for an intensity and whether it is usable.
func (b *RoastBundle) Tier(i Intensity) (*RoastTier, bool) {
	if b == nil {
		return nil, false
	}
	var t *RoastTier
	switch i {
	case IntensityMild:
		t = b.Mild
	case IntensityMedium:
		t = b.Medium
	case IntensitySavage:
		t = b.Savage
	}
	return t, t.Usable()
}

// ValidFor reports whether the bundle was generated for the given date.
func (b *RoastBundle) ValidFor(date string) bool {
	return b != nil && b.Date == date
}

// Empty reports whether no tier is usable.
func (b *RoastBundle) Empty() bool {
	for _, i := range Intensities {
		if _, ok := b.Tier(i); ok {
			return false
		}
	}
	return true
}
