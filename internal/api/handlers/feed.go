package handlers

import (
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/salon-scheduler/backend/internal/api/middleware"
	"github.com/salon-scheduler/backend/internal/feed"
	"github.com/salon-scheduler/backend/internal/storage"
	"github.com/salon-scheduler/backend/internal/storage/models"
	"github.com/salon-scheduler/backend/internal/token"
)

// Feed window relative to now. The past edge keeps recently finished
// appointments visible in subscribed calendars.
const (
	feedWindowPast   = 30 * 24 * time.Hour
	feedWindowFuture = 90 * 24 * time.Hour
)

// StaffFeed serves a staff member's schedule as an iCalendar document,
// authenticated by a capability token in the query string. Responses never
// distinguish between unknown, inactive and verification-failed tokens.
func StaffFeed(
	db *storage.DB,
	staffRepo *storage.StaffRepository,
	tokenRepo *storage.TokenRepository,
	apptRepo *storage.AppointmentRepository,
	manager *token.Manager,
	limiter token.RateLimiter,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if !limiter.Allow(clientIP(r)) {
			w.Header().Set("Retry-After", "60")
			middleware.WriteError(w, http.StatusTooManyRequests, "rate_limited", "Too many requests")
			return
		}

		secret := r.URL.Query().Get("token")
		if !token.ValidTokenFormat(secret) {
			middleware.WriteError(w, http.StatusUnauthorized, middleware.ErrUnauthorized, "Invalid or unknown token")
			return
		}

		record, err := tokenRepo.GetActiveByHash(ctx, manager.HashToken(secret))
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to look up token")
			return
		}
		if record == nil || !manager.VerifyToken(secret, record.TokenHash) {
			middleware.WriteError(w, http.StatusUnauthorized, middleware.ErrUnauthorized, "Invalid or unknown token")
			return
		}
		if record.FeedKind != models.FeedKindICalPull {
			middleware.WriteError(w, http.StatusUnauthorized, middleware.ErrUnauthorized, "Invalid or unknown token")
			return
		}

		if token.IsExpired(record.ExpiresAt) {
			middleware.WriteError(w, http.StatusGone, "token_expired", "Token has expired. Request a new feed link.")
			return
		}

		staff, err := staffRepo.GetByID(ctx, record.StaffID)
		if err != nil || staff == nil {
			middleware.WriteError(w, http.StatusUnauthorized, middleware.ErrUnauthorized, "Invalid or unknown token")
			return
		}

		if err := tokenRepo.TouchLastAccessed(ctx, record.ID, time.Now().UTC()); err != nil {
			log.Printf("Failed to touch token %s: %v", record.ID, err)
		}

		settings, err := storage.LoadSettings(ctx, db)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to load settings")
			return
		}

		now := time.Now().UTC()
		details, err := apptRepo.ListDetailsByStaff(ctx, staff.ID, now.Add(-feedWindowPast), now.Add(feedWindowFuture))
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to load appointments")
			return
		}

		events := make([]feed.Event, 0, len(details))
		for _, d := range details {
			event, err := feed.EventFromAppointment(d, settings.BusinessTimeZone)
			if err != nil {
				log.Printf("Skipping appointment %s in feed: %v", d.ID, err)
				continue
			}
			events = append(events, event)
		}

		renderer, err := feed.NewRenderer(settings.BusinessTimeZone)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to build feed")
			return
		}

		document, skipped := renderer.Render(staff.Name, events)
		for _, reason := range skipped {
			log.Printf("Skipped feed event for staff %s: %s", staff.ID, reason)
		}

		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="schedule.ics"`)
		w.Header().Set("Cache-Control", "private, max-age=300")
		w.Write([]byte(document))
	}
}

// clientIP resolves the requester address for rate limiting, honoring the
// first hop recorded by a reverse proxy.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if idx := strings.Index(forwarded, ","); idx >= 0 {
			forwarded = forwarded[:idx]
		}
		return strings.TrimSpace(forwarded)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
