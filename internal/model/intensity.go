package model

import "strings"

// Intensity is the tone of the daily reminder a user asked for.
type Intensity string

const (
	IntensityMild   Intensity = "mild"
	IntensityMedium Intensity = "medium"
	IntensitySavage Intensity = "savage"
)

// Intensities lists every tier in dispatch order.
var Intensities = []Intensity{IntensityMild, IntensityMedium, IntensitySavage}

// ParseIntensity maps a stored string onto a known tier.
// The second return value is false for anything outside the three tiers.
func ParseIntensity(s string) (Intensity, bool) {
	switch Intensity(strings.ToLower(strings.TrimSpace(s))) {
	case IntensityMild:
		return IntensityMild, true
	case IntensityMedium:
		return IntensityMedium, true
	case IntensitySavage:
		return IntensitySavage, true
	}
	return "", false
}
