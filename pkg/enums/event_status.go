package enums

import "fmt"

// EventStatus is the derived lifecycle state of a prediction event. It is
// computed from the clock and the stored cancellation mark, never persisted
// as its own column.
type EventStatus string

const (
	EventStatusScheduled EventStatus = "scheduled"
	EventStatusLive      EventStatus = "live"
	EventStatusEnded     EventStatus = "ended"
	EventStatusCancelled EventStatus = "cancelled"
)

var validEventStatuses = []EventStatus{
	EventStatusScheduled,
	EventStatusLive,
	EventStatusEnded,
	EventStatusCancelled,
}

// IsValid reports whether the value matches the canonical event status set.
func (s EventStatus) IsValid() bool {
	for _, candidate := range validEventStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Joinable reports whether stakes may still be placed in this state.
func (s EventStatus) Joinable() bool {
	return s == EventStatusScheduled || s == EventStatusLive
}

// Terminal reports whether the event can no longer change outcome.
func (s EventStatus) Terminal() bool {
	return s == EventStatusEnded || s == EventStatusCancelled
}

// ParseEventStatus converts raw input into EventStatus.
func ParseEventStatus(value string) (EventStatus, error) {
	for _, candidate := range validEventStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event status %q", value)
}
