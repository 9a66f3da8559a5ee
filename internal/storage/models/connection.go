package models

import (
	"time"
)

// ProviderConnection links a staff member to an external calendar provider
// account. Credentials holds the provider's OAuth token material encrypted
// at rest; it is never returned in API responses.
type ProviderConnection struct {
	ID                 string     `json:"id"`
	StaffID            string     `json:"staff_id"`
	Provider           string     `json:"provider"`
	Credentials        string     `json:"-"`
	ProviderCalendarID string     `json:"provider_calendar_id"`
	Status             string     `json:"status"`
	SyncError          *string    `json:"sync_error,omitempty"`
	LastSyncedAt       *time.Time `json:"last_synced_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Provider constants
const (
	ProviderGoogle = "google"
)

// Connection status constants
const (
	ConnectionStatusConnected = "connected"
	ConnectionStatusSyncing   = "syncing"
	ConnectionStatusError     = "error"
	ConnectionStatusDisabled  = "disabled"
)
