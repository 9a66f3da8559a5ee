package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/salon-scheduler/backend/internal/api/middleware"
	"github.com/salon-scheduler/backend/internal/storage"
	"github.com/salon-scheduler/backend/internal/storage/models"
	"github.com/salon-scheduler/backend/internal/token"
	"github.com/salon-scheduler/backend/internal/websocket"
)

type MintTokenRequest struct {
	FeedKind     string `json:"feed_kind"`
	LifetimeDays int    `json:"lifetime_days"`
}

// MintTokenResponse carries the raw secret. It exists only in this response;
// afterwards the server holds nothing but the keyed hash.
type MintTokenResponse struct {
	ID        string    `json:"id"`
	StaffID   string    `json:"staff_id"`
	FeedKind  string    `json:"feed_kind"`
	Token     string    `json:"token"`
	FeedURL   string    `json:"feed_url,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// MintFeedToken issues a new feed token for a staff member, replacing any
// active token of the same kind.
func MintFeedToken(
	db *storage.DB,
	staffRepo *storage.StaffRepository,
	tokenRepo *storage.TokenRepository,
	manager *token.Manager,
	hub *websocket.Hub,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		staffID := mux.Vars(r)["id"]

		var req MintTokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		kind := models.FeedKind(req.FeedKind)
		if req.FeedKind == "" {
			kind = models.FeedKindICalPull
		}
		if !kind.Valid() {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Invalid feed kind")
			return
		}

		staff, err := staffRepo.GetByID(ctx, staffID)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query staff member")
			return
		}
		if staff == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Staff member not found")
			return
		}

		lifetimeDays := req.LifetimeDays
		if lifetimeDays <= 0 {
			settings, err := storage.LoadSettings(ctx, db)
			if err != nil {
				middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to load settings")
				return
			}
			lifetimeDays = settings.TokenLifetimeDays
		}

		secret, expiresAt, err := manager.TokenWithExpiry(time.Duration(lifetimeDays) * 24 * time.Hour)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to generate token")
			return
		}

		record := &models.CalendarToken{
			StaffID:   staffID,
			TokenHash: manager.HashToken(secret),
			FeedKind:  kind,
			Active:    true,
			ExpiresAt: &expiresAt,
		}
		if err := tokenRepo.Create(ctx, record); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to store token")
			return
		}

		if hub != nil {
			websocket.NewEventBroadcaster(hub).BroadcastTokenMinted(record.ID, staffID, string(kind))
		}

		response := MintTokenResponse{
			ID:        record.ID,
			StaffID:   staffID,
			FeedKind:  string(kind),
			Token:     secret,
			ExpiresAt: expiresAt,
		}
		if kind == models.FeedKindICalPull {
			response.FeedURL = "/calendar/ical/staff-feed?token=" + secret
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(response)
	}
}

// ListFeedTokens returns a staff member's tokens. Hashes are never included.
func ListFeedTokens(tokenRepo *storage.TokenRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokens, err := tokenRepo.ListByStaff(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query tokens")
			return
		}

		if tokens == nil {
			tokens = []models.CalendarToken{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(tokens)
	}
}

// RevokeFeedToken deactivates the staff member's active token of the given
// kind. Revocation takes effect on the next feed request.
func RevokeFeedToken(tokenRepo *storage.TokenRepository, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		staffID := mux.Vars(r)["id"]

		kind := models.FeedKind(r.URL.Query().Get("kind"))
		if kind == "" {
			kind = models.FeedKindICalPull
		}
		if !kind.Valid() {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Invalid feed kind")
			return
		}

		record, err := tokenRepo.GetActiveForStaff(ctx, staffID, kind)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query token")
			return
		}
		if record == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "No active token for this staff member")
			return
		}

		if err := tokenRepo.Deactivate(ctx, record.ID); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to revoke token")
			return
		}

		if hub != nil {
			websocket.NewEventBroadcaster(hub).BroadcastTokenRevoked(record.ID, staffID, string(kind))
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
