// Package api provides HTTP routing and handlers for the REST API.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/salon-scheduler/backend/internal/api/handlers"
	"github.com/salon-scheduler/backend/internal/api/middleware"
	"github.com/salon-scheduler/backend/internal/provider"
	"github.com/salon-scheduler/backend/internal/storage"
	"github.com/salon-scheduler/backend/internal/token"
	"github.com/salon-scheduler/backend/internal/websocket"
)

// Config bundles the dependencies the router wires into handlers.
type Config struct {
	DB           *storage.DB
	Hub          *websocket.Hub
	StaticDir    string
	TokenManager *token.Manager
	FeedLimiter  token.RateLimiter
	Scheduler    *provider.Scheduler
}

// NewRouter creates and configures the HTTP router with all API routes.
func NewRouter(cfg Config) *mux.Router {
	staffRepo := storage.NewStaffRepository(cfg.DB)
	customerRepo := storage.NewCustomerRepository(cfg.DB)
	apptRepo := storage.NewAppointmentRepository(cfg.DB)
	tokenRepo := storage.NewTokenRepository(cfg.DB)
	connRepo := storage.NewConnectionRepository(cfg.DB)

	r := mux.NewRouter()

	// Apply global middleware
	r.Use(middleware.Logging)
	r.Use(middleware.ErrorRecovery)

	// Public feed endpoint, authenticated by capability token
	r.HandleFunc("/calendar/ical/staff-feed",
		handlers.StaffFeed(cfg.DB, staffRepo, tokenRepo, apptRepo, cfg.TokenManager, cfg.FeedLimiter)).Methods("GET")

	// API subrouter
	api := r.PathPrefix("/api").Subrouter()

	// Health and status endpoints
	api.HandleFunc("/health", handlers.HealthCheck(cfg.DB)).Methods("GET")
	api.HandleFunc("/status", handlers.Status(cfg.DB, cfg.Hub)).Methods("GET")

	// WebSocket endpoint
	api.HandleFunc("/ws", handlers.WebSocketUpgrade(cfg.Hub)).Methods("GET")

	// Staff endpoints
	api.HandleFunc("/staff", handlers.ListStaff(staffRepo)).Methods("GET")
	api.HandleFunc("/staff", handlers.CreateStaff(staffRepo)).Methods("POST")
	api.HandleFunc("/staff/{id}", handlers.GetStaff(staffRepo)).Methods("GET")
	api.HandleFunc("/staff/{id}", handlers.UpdateStaff(staffRepo)).Methods("PUT")
	api.HandleFunc("/staff/{id}", handlers.DeleteStaff(staffRepo)).Methods("DELETE")

	// Feed token endpoints
	api.HandleFunc("/staff/{id}/feed-token",
		handlers.MintFeedToken(cfg.DB, staffRepo, tokenRepo, cfg.TokenManager, cfg.Hub)).Methods("POST")
	api.HandleFunc("/staff/{id}/feed-token",
		handlers.RevokeFeedToken(tokenRepo, cfg.Hub)).Methods("DELETE")
	api.HandleFunc("/staff/{id}/feed-tokens", handlers.ListFeedTokens(tokenRepo)).Methods("GET")

	// Provider sync trigger
	api.HandleFunc("/staff/{id}/sync", handlers.TriggerStaffSync(connRepo, cfg.Scheduler)).Methods("POST")

	// Customer endpoints
	api.HandleFunc("/customers", handlers.ListCustomers(customerRepo)).Methods("GET")
	api.HandleFunc("/customers", handlers.CreateCustomer(customerRepo)).Methods("POST")
	api.HandleFunc("/customers/{id}", handlers.GetCustomer(customerRepo)).Methods("GET")
	api.HandleFunc("/customers/{id}", handlers.UpdateCustomer(customerRepo)).Methods("PUT")
	api.HandleFunc("/customers/{id}", handlers.DeleteCustomer(customerRepo)).Methods("DELETE")

	// Appointment endpoints
	api.HandleFunc("/appointments", handlers.ListAppointments(apptRepo)).Methods("GET")
	api.HandleFunc("/appointments", handlers.CreateAppointment(apptRepo, cfg.Hub)).Methods("POST")
	api.HandleFunc("/appointments/{id}", handlers.GetAppointment(apptRepo)).Methods("GET")
	api.HandleFunc("/appointments/{id}", handlers.UpdateAppointment(apptRepo, cfg.Hub)).Methods("PUT")
	api.HandleFunc("/appointments/{id}", handlers.UpdateAppointmentStatus(apptRepo, cfg.Hub)).Methods("PATCH")
	api.HandleFunc("/appointments/{id}", handlers.DeleteAppointment(apptRepo, cfg.Hub)).Methods("DELETE")

	// Provider connection endpoints
	api.HandleFunc("/connections", handlers.ListConnections(cfg.DB)).Methods("GET")
	api.HandleFunc("/connections",
		handlers.CreateConnection(staffRepo, connRepo, cfg.TokenManager)).Methods("POST")
	api.HandleFunc("/connections/{id}", handlers.DeleteConnection(connRepo)).Methods("DELETE")

	// Settings endpoints
	api.HandleFunc("/settings", handlers.GetSettings(cfg.DB)).Methods("GET")
	api.HandleFunc("/settings", handlers.UpdateSettings(cfg.DB)).Methods("PUT")

	// Serve static frontend files
	r.PathPrefix("/").Handler(http.FileServer(http.Dir(cfg.StaticDir)))

	return r
}
