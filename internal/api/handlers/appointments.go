package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/salon-scheduler/backend/internal/api/middleware"
	"github.com/salon-scheduler/backend/internal/storage"
	"github.com/salon-scheduler/backend/internal/storage/models"
	"github.com/salon-scheduler/backend/internal/websocket"
)

type AppointmentRequest struct {
	StaffID    string     `json:"staff_id"`
	CustomerID string     `json:"customer_id"`
	ServiceID  string     `json:"service_id"`
	StartsAt   *time.Time `json:"starts_at"`
	EndsAt     *time.Time `json:"ends_at"`
	Status     string     `json:"status"`
	Notes      *string    `json:"notes"`
}

// ListAppointments returns appointments for a staff member within a window.
// Defaults to the feed window when from/to are not given.
func ListAppointments(repo *storage.AppointmentRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		staffID := r.URL.Query().Get("staff_id")

		if staffID == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "staff_id is required")
			return
		}

		now := time.Now().UTC()
		from := now.Add(-feedWindowPast)
		to := now.Add(feedWindowFuture)

		if raw := r.URL.Query().Get("from"); raw != "" {
			parsed, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "from must be RFC 3339")
				return
			}
			from = parsed
		}
		if raw := r.URL.Query().Get("to"); raw != "" {
			parsed, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "to must be RFC 3339")
				return
			}
			to = parsed
		}

		details, err := repo.ListDetailsByStaff(ctx, staffID, from, to)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query appointments")
			return
		}

		if details == nil {
			details = []models.AppointmentDetail{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(details)
	}
}

// CreateAppointment books a new appointment.
func CreateAppointment(repo *storage.AppointmentRepository, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		if req.StaffID == "" || req.CustomerID == "" || req.ServiceID == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "staff_id, customer_id and service_id are required")
			return
		}
		if req.StartsAt == nil || req.EndsAt == nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "starts_at and ends_at are required")
			return
		}

		status := models.AppointmentPending
		if req.Status != "" {
			status = models.AppointmentStatus(req.Status)
		}
		if !status.Valid() {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Invalid status")
			return
		}

		appt := &models.Appointment{
			StaffID:    req.StaffID,
			CustomerID: req.CustomerID,
			ServiceID:  req.ServiceID,
			StartsAt:   *req.StartsAt,
			EndsAt:     *req.EndsAt,
			Status:     status,
			Notes:      req.Notes,
		}

		if err := repo.Create(r.Context(), appt); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
			return
		}

		broadcastAppointment(hub, appt, "created")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(appt)
	}
}

// GetAppointment returns a single appointment by ID.
func GetAppointment(repo *storage.AppointmentRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appt, err := repo.GetByID(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query appointment")
			return
		}
		if appt == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Appointment not found")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(appt)
	}
}

// UpdateAppointment reschedules or amends an appointment.
func UpdateAppointment(repo *storage.AppointmentRepository, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		var req AppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		appt, err := repo.GetByID(r.Context(), id)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query appointment")
			return
		}
		if appt == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Appointment not found")
			return
		}

		if req.ServiceID != "" {
			appt.ServiceID = req.ServiceID
		}
		if req.StartsAt != nil {
			appt.StartsAt = *req.StartsAt
		}
		if req.EndsAt != nil {
			appt.EndsAt = *req.EndsAt
		}
		if req.Status != "" {
			appt.Status = models.AppointmentStatus(req.Status)
		}
		if req.Notes != nil {
			appt.Notes = req.Notes
		}

		if err := repo.Update(r.Context(), appt); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
			return
		}

		broadcastAppointment(hub, appt, "updated")

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(appt)
	}
}

// UpdateAppointmentStatus transitions an appointment's status.
func UpdateAppointmentStatus(repo *storage.AppointmentRepository, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		var req struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		status := models.AppointmentStatus(req.Status)
		if !status.Valid() {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Invalid status")
			return
		}

		appt, err := repo.GetByID(r.Context(), id)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query appointment")
			return
		}
		if appt == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Appointment not found")
			return
		}

		if err := repo.UpdateStatus(r.Context(), id, status); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to update appointment status")
			return
		}

		appt.Status = status
		broadcastAppointment(hub, appt, "updated")

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(appt)
	}
}

// DeleteAppointment removes an appointment.
func DeleteAppointment(repo *storage.AppointmentRepository, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		appt, err := repo.GetByID(r.Context(), id)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query appointment")
			return
		}
		if appt == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Appointment not found")
			return
		}

		if err := repo.Delete(r.Context(), id); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to delete appointment")
			return
		}

		broadcastAppointment(hub, appt, "deleted")

		w.WriteHeader(http.StatusNoContent)
	}
}

func broadcastAppointment(hub *websocket.Hub, appt *models.Appointment, change string) {
	if hub == nil {
		return
	}
	broadcaster := websocket.NewEventBroadcaster(hub)
	broadcaster.BroadcastAppointmentChanged(appt.ID, appt.StaffID, string(appt.Status), change)
}
