package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/salon-scheduler/backend/internal/api/middleware"
	"github.com/salon-scheduler/backend/internal/storage"
	"github.com/salon-scheduler/backend/internal/storage/models"
)

type StaffRequest struct {
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	Phone  *string `json:"phone"`
	Role   string  `json:"role"`
	Active *bool   `json:"active"`
}

func validStaffRole(role string) bool {
	switch role {
	case models.RoleStylist, models.RoleColorist, models.RoleReceptionist, models.RoleManager:
		return true
	}
	return false
}

// ListStaff returns all staff members.
func ListStaff(repo *storage.StaffRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		staff, err := repo.List(r.Context())
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query staff")
			return
		}

		if staff == nil {
			staff = []models.Staff{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(staff)
	}
}

// CreateStaff adds a new staff member.
func CreateStaff(repo *storage.StaffRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req StaffRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Name and email are required")
			return
		}
		if !validStaffRole(req.Role) {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Invalid role")
			return
		}

		staff := &models.Staff{
			Name:   req.Name,
			Email:  req.Email,
			Phone:  req.Phone,
			Role:   req.Role,
			Active: true,
		}
		if req.Active != nil {
			staff.Active = *req.Active
		}

		if err := repo.Create(r.Context(), staff); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to create staff member")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(staff)
	}
}

// GetStaff returns a single staff member by ID.
func GetStaff(repo *storage.StaffRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		staff, err := repo.GetByID(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query staff member")
			return
		}
		if staff == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Staff member not found")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(staff)
	}
}

// UpdateStaff updates an existing staff member.
func UpdateStaff(repo *storage.StaffRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		var req StaffRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		staff, err := repo.GetByID(r.Context(), id)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query staff member")
			return
		}
		if staff == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Staff member not found")
			return
		}

		if req.Name != "" {
			staff.Name = req.Name
		}
		if req.Email != "" {
			staff.Email = req.Email
		}
		if req.Phone != nil {
			staff.Phone = req.Phone
		}
		if req.Role != "" {
			if !validStaffRole(req.Role) {
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Invalid role")
				return
			}
			staff.Role = req.Role
		}
		if req.Active != nil {
			staff.Active = *req.Active
		}

		if err := repo.Update(r.Context(), staff); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to update staff member")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(staff)
	}
}

// DeleteStaff removes a staff member.
func DeleteStaff(repo *storage.StaffRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := repo.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Staff member not found")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
