package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/salon-scheduler/backend/internal/api/middleware"
	"github.com/salon-scheduler/backend/internal/provider"
	"github.com/salon-scheduler/backend/internal/storage"
	"github.com/salon-scheduler/backend/internal/storage/models"
	"github.com/salon-scheduler/backend/internal/token"
)

type CreateConnectionRequest struct {
	StaffID            string          `json:"staff_id"`
	Provider           string          `json:"provider"`
	Credentials        json.RawMessage `json:"credentials"`
	ProviderCalendarID string          `json:"provider_calendar_id"`
}

// ListConnections returns all provider connections. Credential material is
// excluded from the response model.
func ListConnections(db *storage.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := db.QueryContext(r.Context(), `
			SELECT id, staff_id, provider, provider_calendar_id, status, sync_error, last_synced_at, created_at, updated_at
			FROM provider_connections ORDER BY created_at
		`)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query connections")
			return
		}
		defer rows.Close()

		conns := []models.ProviderConnection{}
		for rows.Next() {
			var conn models.ProviderConnection
			if err := rows.Scan(
				&conn.ID, &conn.StaffID, &conn.Provider, &conn.ProviderCalendarID,
				&conn.Status, &conn.SyncError, &conn.LastSyncedAt, &conn.CreatedAt, &conn.UpdatedAt,
			); err != nil {
				middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to scan connection")
				return
			}
			conns = append(conns, conn)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(conns)
	}
}

// CreateConnection links a staff member to a provider calendar. The OAuth
// token material is encrypted before it reaches storage.
func CreateConnection(
	staffRepo *storage.StaffRepository,
	connRepo *storage.ConnectionRepository,
	manager *token.Manager,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req CreateConnectionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		if req.StaffID == "" || len(req.Credentials) == 0 {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "staff_id and credentials are required")
			return
		}
		if req.Provider != models.ProviderGoogle {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Unsupported provider")
			return
		}

		staff, err := staffRepo.GetByID(ctx, req.StaffID)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query staff member")
			return
		}
		if staff == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Staff member not found")
			return
		}

		if existing, err := connRepo.GetByStaff(ctx, req.StaffID, req.Provider); err == nil && existing != nil {
			middleware.WriteError(w, http.StatusConflict, middleware.ErrConflict, "Staff member already has a connection for this provider")
			return
		}

		encrypted, err := manager.Encrypt(string(req.Credentials))
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to protect credentials")
			return
		}

		calendarID := req.ProviderCalendarID
		if calendarID == "" {
			calendarID = "primary"
		}

		conn := &models.ProviderConnection{
			StaffID:            req.StaffID,
			Provider:           req.Provider,
			Credentials:        encrypted,
			ProviderCalendarID: calendarID,
		}
		if err := connRepo.Create(ctx, conn); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to create connection")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(conn)
	}
}

// DeleteConnection removes a provider connection.
func DeleteConnection(connRepo *storage.ConnectionRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := connRepo.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Connection not found")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// TriggerStaffSync starts a background provider sync for a staff member's
// connection and returns immediately.
func TriggerStaffSync(connRepo *storage.ConnectionRepository, scheduler *provider.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		staffID := mux.Vars(r)["id"]

		conn, err := connRepo.GetByStaff(r.Context(), staffID, models.ProviderGoogle)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query connection")
			return
		}
		if conn == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Staff member has no provider connection")
			return
		}

		if scheduler == nil {
			middleware.WriteError(w, http.StatusServiceUnavailable, middleware.ErrInternalError, "Provider sync is not configured")
			return
		}

		scheduler.TriggerSync(conn.ID)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "syncing"})
	}
}
