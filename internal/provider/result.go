package provider

import (
	"fmt"
	"time"
)

// DefaultMaxSyncAge is the staleness threshold after which a connection is
// due for another sync.
const DefaultMaxSyncAge = time.Hour

// Result is the outcome of one synchronization pass against a provider
// calendar. It is constructed fresh per invocation and consumed by the
// caller for logging; it is not persisted.
type Result struct {
	ConnectionID string    `json:"connection_id"`
	StaffID      string    `json:"staff_id"`
	Success      bool      `json:"success"`
	Created      int       `json:"created"`
	Updated      int       `json:"updated"`
	Deleted      int       `json:"deleted"`
	Errors       []string  `json:"errors,omitempty"`
	SyncedAt     time.Time `json:"synced_at"`
}

// Summary returns a terse human-readable description of the pass.
func (r *Result) Summary() string {
	if r.Created == 0 && r.Updated == 0 && r.Deleted == 0 && len(r.Errors) == 0 {
		return "no changes"
	}

	return fmt.Sprintf("%d created, %d updated, %d deleted, %d error(s)",
		r.Created, r.Updated, r.Deleted, len(r.Errors))
}

// ShouldSync reports whether a sync is due: always when never synced,
// otherwise once the elapsed time since the last sync exceeds maxAge.
// A non-positive maxAge falls back to DefaultMaxSyncAge.
func ShouldSync(lastSyncedAt *time.Time, maxAge time.Duration) bool {
	if lastSyncedAt == nil {
		return true
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxSyncAge
	}
	return time.Since(*lastSyncedAt) > maxAge
}
