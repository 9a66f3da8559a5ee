package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/salon-scheduler/backend/internal/api/middleware"
	"github.com/salon-scheduler/backend/internal/storage"
)

// SettingsResponse represents settings in API responses. Values are strings
// because the settings table is a plain key/value store.
type SettingsResponse struct {
	BusinessName      string `json:"business_name"`
	BusinessURL       string `json:"business_url"`
	BusinessTimeZone  string `json:"business_time_zone"`
	TokenLifetimeDays string `json:"token_lifetime_days"`
	SyncIntervalMin   string `json:"sync_interval_min"`
}

// GetSettings returns all settings.
func GetSettings(db *storage.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		rows, err := db.QueryContext(ctx, "SELECT key, value FROM settings")
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query settings")
			return
		}
		defer rows.Close()

		settings := make(map[string]string)
		for rows.Next() {
			var key, value string
			if err := rows.Scan(&key, &value); err != nil {
				continue
			}
			settings[key] = value
		}

		response := SettingsResponse{
			BusinessName:      settings["business_name"],
			BusinessURL:       settings["business_url"],
			BusinessTimeZone:  settings["business_time_zone"],
			TokenLifetimeDays: settings["token_lifetime_days"],
			SyncIntervalMin:   settings["sync_interval_min"],
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}
}

// UpdateSettings updates settings.
func UpdateSettings(db *storage.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req SettingsResponse
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		settings := map[string]string{
			"business_name":       req.BusinessName,
			"business_url":        req.BusinessURL,
			"business_time_zone":  req.BusinessTimeZone,
			"token_lifetime_days": req.TokenLifetimeDays,
			"sync_interval_min":   req.SyncIntervalMin,
		}

		for key, value := range settings {
			if value == "" {
				continue
			}
			if err := storage.SaveSetting(ctx, db, key, value); err != nil {
				middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to update settings")
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(req)
	}
}
