package models

import (
	"time"
)

// FeedKind identifies what a calendar token grants access to.
type FeedKind string

const (
	// FeedKindICalPull authenticates anonymous HTTP pulls of a staff
	// member's iCalendar feed.
	FeedKindICalPull FeedKind = "ical-pull"
	// FeedKindProviderPush authorizes pushing the schedule into a
	// connected external calendar provider.
	FeedKindProviderPush FeedKind = "provider-push"
)

// Valid reports whether the feed kind is one of the known values.
func (k FeedKind) Valid() bool {
	return k == FeedKindICalPull || k == FeedKindProviderPush
}

// CalendarToken represents a capability to read one staff member's schedule.
// Only the keyed hash of the secret is ever stored; the raw secret exists
// transiently at mint time and in the single response that returns it.
type CalendarToken struct {
	ID             string     `json:"id"`
	StaffID        string     `json:"staff_id"`
	TokenHash      string     `json:"-"`
	FeedKind       FeedKind   `json:"feed_kind"`
	Active         bool       `json:"active"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	LastAccessedAt *time.Time `json:"last_accessed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
