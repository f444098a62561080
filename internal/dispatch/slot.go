package dispatch

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// SlotMinutes is the width of one dispatch bucket. 48 buckets per day.
const SlotMinutes = 30

var hhmmPattern = regexp.MustCompile(`^\d{2}:\d{2}$`)

// Slot is the active 30-minute bucket.
//
// Start is 0 or 30. EndHour/End describe where the bucket stops for display:
// the 23:30 bucket ends at 00:00, so End is 0 on EndHour 0 rather than minute
// 60 of hour 23. Membership never looks at End; it is always
// [Start, Start+SlotMinutes) within Hour.
type Slot struct {
	Hour    int    `json:"hour"`
	Start   int    `json:"slotStart"`
	EndHour int    `json:"endHour"`
	End     int    `json:"slotEnd"`
	Label   string `json:"label"`
}

// CurrentSlot returns the bucket containing now, in now's location.
func CurrentSlot(now time.Time) Slot {
	hour := now.Hour()
	start := 0
	if now.Minute() >= SlotMinutes {
		start = SlotMinutes
	}

	endHour, end := hour, start+SlotMinutes
	if end == 60 {
		endHour, end = (hour+1)%24, 0
	}

	return Slot{
		Hour:    hour,
		Start:   start,
		EndHour: endHour,
		End:     end,
		Label:   fmt.Sprintf("%02d:%02d-%02d:%02d", hour, start, endHour, end),
	}
}

// Contains reports whether an "HH:MM" string falls inside the slot.
// Anything that does not look like HH:MM is simply not in the slot.
func (s Slot) Contains(hhmm string) bool {
	if !hhmmPattern.MatchString(hhmm) {
		return false
	}
	h, err := strconv.Atoi(hhmm[:2])
	if err != nil {
		return false
	}
	m, err := strconv.Atoi(hhmm[3:])
	if err != nil {
		return false
	}
	return h == s.Hour && m >= s.Start && m < s.Start+SlotMinutes
}

// InSlot is Contains for an optional preference; nil is never in a slot.
func InSlot(hhmm *string, s Slot) bool {
	return hhmm != nil && s.Contains(*hhmm)
}

// ValidTime reports whether hhmm is a real clock time (00:00–23:59).
// Used when accepting preferences, not when dispatching.
func ValidTime(hhmm string) bool {
	if _, err := time.Parse("15:04", hhmm); err != nil {
		return false
	}
	return hhmmPattern.MatchString(hhmm)
}
