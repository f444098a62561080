// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data, similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import (
	"strings"
	"time"
)

// Role separates regular members from administrative or placeholder accounts.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is one entry of the member directory.
//
// The onboarding flow owns these rows; the dispatcher only reads them.
//
// WHY POINTERS FOR THE OPTIONAL FIELDS?
// PhoneNumber, DailyGrindTime, RoastIntensity and ExternalUsername can be
// missing, and "missing" means something different from "empty string" for
// the dispatcher: a nil DailyGrindTime keeps the user out of every time slot,
// a nil PhoneNumber silently skips the WhatsApp leg. A nil pointer maps
// directly to SQL NULL.
type User struct {
	ID                  string    `json:"id"                         db:"id"`
	Name                string    `json:"name"                       db:"name"`
	Email               string    `json:"email"                      db:"email"`
	PhoneNumber         *string   `json:"phoneNumber,omitempty"      db:"phone_number"`
	Role                Role      `json:"role"                       db:"role"`
	OnboardingCompleted bool      `json:"onboardingCompleted"        db:"onboarding_completed"`
	DailyGrindTime      *string   `json:"dailyGrindTime,omitempty"   db:"daily_grind_time"`  // "HH:MM", local time
	RoastIntensity      *string   `json:"roastIntensity,omitempty"   db:"roast_intensity"`   // mild|medium|savage
	ExternalUsername    *string   `json:"externalUsername,omitempty" db:"external_username"` // judge handle for stats refresh
	CreatedAt           time.Time `json:"createdAt"                  db:"created_at"`
	UpdatedAt           time.Time `json:"updatedAt"                  db:"updated_at"`
}

// IsAdmin reports whether the account is administrative.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Intensity returns the user's roast tier, falling back to medium for
// missing or unknown values.
func (u User) Intensity() Intensity {
	if u.RoastIntensity == nil {
		return IntensityMedium
	}
	if i, ok := ParseIntensity(*u.RoastIntensity); ok {
		return i
	}
	return IntensityMedium
}

// FirstName returns the first whitespace-separated token of Name.
// Users without a name are greeted generically.
func (u User) FirstName() string {
	fields := strings.Fields(u.Name)
	if len(fields) == 0 {
		return "there"
	}
	return fields[0]
}

// Phone returns the WhatsApp number and whether one is set.
func (u User) Phone() (string, bool) {
	if u.PhoneNumber == nil {
		return "", false
	}
	p := strings.TrimSpace(*u.PhoneNumber)
	return p, p != ""
}
