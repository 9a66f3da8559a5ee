// Package handlers provides HTTP request handlers for the API endpoints.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/salon-scheduler/backend/internal/storage"
	"github.com/salon-scheduler/backend/internal/websocket"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status      string `json:"status"`
	DBConnected bool   `json:"db_connected"`
}

// HealthCheck returns a handler that performs a health check.
func HealthCheck(db *storage.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dbConnected := db.Ping() == nil

		status := "healthy"
		if !dbConnected {
			status = "degraded"
		}

		response := HealthResponse{
			Status:      status,
			DBConnected: dbConnected,
		}

		w.Header().Set("Content-Type", "application/json")
		if status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(response)
	}
}

// StatusResponse represents the system status response.
type StatusResponse struct {
	StaffCount           int `json:"staff_count"`
	CustomersCount       int `json:"customers_count"`
	UpcomingAppointments int `json:"upcoming_appointments"`
	ActiveTokens         int `json:"active_tokens"`
	ConnectionsCount     int `json:"connections_count"`
	ConnectedClients     int `json:"connected_clients"`
}

// Status returns a handler that provides system status information.
func Status(db *storage.DB, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var staffCount int
		db.QueryRowContext(ctx, "SELECT COUNT(*) FROM staff WHERE active = 1").Scan(&staffCount)

		var customersCount int
		db.QueryRowContext(ctx, "SELECT COUNT(*) FROM customers").Scan(&customersCount)

		var upcoming int
		db.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM appointments
			WHERE starts_at > datetime('now') AND status NOT IN ('cancelled', 'no_show')
		`).Scan(&upcoming)

		var activeTokens int
		db.QueryRowContext(ctx, "SELECT COUNT(*) FROM calendar_tokens WHERE active = 1").Scan(&activeTokens)

		var connectionsCount int
		db.QueryRowContext(ctx, "SELECT COUNT(*) FROM provider_connections WHERE status != 'disabled'").Scan(&connectionsCount)

		response := StatusResponse{
			StaffCount:           staffCount,
			CustomersCount:       customersCount,
			UpcomingAppointments: upcoming,
			ActiveTokens:         activeTokens,
			ConnectionsCount:     connectionsCount,
		}
		if hub != nil {
			response.ConnectedClients = hub.ClientCount()
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}
}
