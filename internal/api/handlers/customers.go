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

type CustomerRequest struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	Notes     *string `json:"notes"`
}

// ListCustomers returns all customers, optionally filtered by a search term.
func ListCustomers(repo *storage.CustomerRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customers, err := repo.List(r.Context(), r.URL.Query().Get("search"))
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query customers")
			return
		}

		if customers == nil {
			customers = []models.Customer{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(customers)
	}
}

// CreateCustomer adds a new customer.
func CreateCustomer(repo *storage.CustomerRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CustomerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		if strings.TrimSpace(req.FirstName) == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "First name is required")
			return
		}

		customer := &models.Customer{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Email:     req.Email,
			Phone:     req.Phone,
			Notes:     req.Notes,
		}

		if err := repo.Create(r.Context(), customer); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to create customer")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(customer)
	}
}

// GetCustomer returns a single customer by ID.
func GetCustomer(repo *storage.CustomerRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customer, err := repo.GetByID(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query customer")
			return
		}
		if customer == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Customer not found")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(customer)
	}
}

// UpdateCustomer updates an existing customer.
func UpdateCustomer(repo *storage.CustomerRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		var req CustomerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		customer, err := repo.GetByID(r.Context(), id)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query customer")
			return
		}
		if customer == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Customer not found")
			return
		}

		if req.FirstName != "" {
			customer.FirstName = req.FirstName
		}
		if req.LastName != "" {
			customer.LastName = req.LastName
		}
		if req.Email != nil {
			customer.Email = req.Email
		}
		if req.Phone != nil {
			customer.Phone = req.Phone
		}
		if req.Notes != nil {
			customer.Notes = req.Notes
		}

		if err := repo.Update(r.Context(), customer); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to update customer")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(customer)
	}
}

// DeleteCustomer removes a customer.
func DeleteCustomer(repo *storage.CustomerRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := repo.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Customer not found")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
