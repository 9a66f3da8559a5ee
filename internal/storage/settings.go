package storage

import (
	"context"
	"fmt"
	"strconv"
)

// Settings holds the business-wide configuration stored in the settings table.
type Settings struct {
	BusinessName      string
	BusinessURL       string
	BusinessTimeZone  string
	TokenLifetimeDays int
	SyncIntervalMin   int
}

// LoadSettings reads all settings rows and applies defaults for missing keys.
func LoadSettings(ctx context.Context, db *DB) (*Settings, error) {
	rows, err := db.QueryContext(ctx, "SELECT key, value FROM settings")
	if err != nil {
		return nil, fmt.Errorf("querying settings: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scanning setting: %w", err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	s := &Settings{
		BusinessName:      "Salon Scheduler",
		BusinessURL:       "https://salon.example.com",
		BusinessTimeZone:  "America/New_York",
		TokenLifetimeDays: 30,
		SyncIntervalMin:   15,
	}

	if v := values["business_name"]; v != "" {
		s.BusinessName = v
	}
	if v := values["business_url"]; v != "" {
		s.BusinessURL = v
	}
	if v := values["business_time_zone"]; v != "" {
		s.BusinessTimeZone = v
	}
	if n, err := strconv.Atoi(values["token_lifetime_days"]); err == nil && n > 0 {
		s.TokenLifetimeDays = n
	}
	if n, err := strconv.Atoi(values["sync_interval_min"]); err == nil && n >= 5 {
		s.SyncIntervalMin = n
	}

	return s, nil
}

// SaveSetting upserts one settings row.
func SaveSetting(ctx context.Context, db *DB, key, value string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = ?, updated_at = CURRENT_TIMESTAMP
	`, key, value, value)
	if err != nil {
		return fmt.Errorf("saving setting %s: %w", key, err)
	}
	return nil
}
