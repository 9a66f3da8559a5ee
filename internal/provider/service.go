package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/salon-scheduler/backend/internal/storage"
	"github.com/salon-scheduler/backend/internal/storage/models"
	"github.com/salon-scheduler/backend/internal/token"
)

// defaultHorizon is how far ahead of now appointments are pushed.
const defaultHorizon = 30 * 24 * time.Hour

// calendarAPI is the slice of the provider API the sync service uses.
// Narrowed to an interface so tests can run without network access.
type calendarAPI interface {
	List(ctx context.Context, calendarID string, from, to time.Time) ([]*calendar.Event, error)
	Insert(ctx context.Context, calendarID string, event *calendar.Event) error
	Update(ctx context.Context, calendarID, eventID string, event *calendar.Event) error
}

// SyncService pushes staff schedules into connected provider calendars.
type SyncService struct {
	connRepo *storage.ConnectionRepository
	apptRepo *storage.AppointmentRepository
	tokens   *token.Manager
	business BusinessContext
	horizon  time.Duration
	maxAge   time.Duration

	// newAPI builds a provider client from decrypted credential material.
	newAPI func(ctx context.Context, credentials string) (calendarAPI, error)
}

// NewSyncService creates a sync service. oauthCfg holds the provider OAuth
// application credentials used to refresh staff tokens.
func NewSyncService(
	connRepo *storage.ConnectionRepository,
	apptRepo *storage.AppointmentRepository,
	tokens *token.Manager,
	oauthCfg *oauth2.Config,
	business BusinessContext,
) *SyncService {
	return &SyncService{
		connRepo: connRepo,
		apptRepo: apptRepo,
		tokens:   tokens,
		business: business,
		horizon:  defaultHorizon,
		maxAge:   DefaultMaxSyncAge,
		newAPI: func(ctx context.Context, credentials string) (calendarAPI, error) {
			var tok oauth2.Token
			if err := json.Unmarshal([]byte(credentials), &tok); err != nil {
				return nil, fmt.Errorf("parsing provider credentials: %w", err)
			}

			svc, err := calendar.NewService(ctx, option.WithHTTPClient(oauthCfg.Client(ctx, &tok)))
			if err != nil {
				return nil, fmt.Errorf("creating provider client: %w", err)
			}
			return &googleAPI{svc: svc}, nil
		},
	}
}

// SyncConnection performs one sync pass for a connection: pushes every
// syncable appointment in the horizon window, creating, updating or
// cancelling provider events keyed by the embedded appointment ID.
// Per-event failures are recorded in the result and do not abort the pass.
func (s *SyncService) SyncConnection(ctx context.Context, connectionID string) (*Result, error) {
	conn, err := s.connRepo.GetByID(ctx, connectionID)
	if err != nil {
		return nil, fmt.Errorf("getting connection: %w", err)
	}
	if conn == nil {
		return nil, fmt.Errorf("connection not found: %s", connectionID)
	}

	result := &Result{
		ConnectionID: conn.ID,
		StaffID:      conn.StaffID,
		SyncedAt:     time.Now().UTC(),
	}

	if err := s.connRepo.UpdateSyncState(ctx, conn.ID, models.ConnectionStatusSyncing, nil, nil); err != nil {
		log.Printf("Failed to update connection state: %v", err)
	}

	credentials, err := s.tokens.Decrypt(conn.Credentials)
	if err != nil {
		return s.failSync(ctx, conn, result, fmt.Errorf("decrypting credentials: %w", err))
	}

	api, err := s.newAPI(ctx, credentials)
	if err != nil {
		return s.failSync(ctx, conn, result, err)
	}

	from := time.Now().UTC()
	to := from.Add(s.horizon)

	appointments, err := s.apptRepo.ListSyncableByStaff(ctx, conn.StaffID, from, to)
	if err != nil {
		return s.failSync(ctx, conn, result, fmt.Errorf("listing appointments: %w", err))
	}

	existing, err := s.listOurEvents(ctx, api, conn.ProviderCalendarID, from, to)
	if err != nil {
		return s.failSync(ctx, conn, result, fmt.Errorf("listing provider events: %w", err))
	}

	for _, appt := range appointments {
		event, err := ToProviderEvent(appt, s.business)
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			continue
		}

		if current, ok := existing[appt.ID]; ok {
			if err := api.Update(ctx, conn.ProviderCalendarID, current.Id, event); err != nil {
				_, msg := ClassifyError(err)
				result.Errors = append(result.Errors, msg)
				continue
			}
			if appt.Status.IsCancelled() {
				result.Deleted++
			} else {
				result.Updated++
			}
			continue
		}

		// Nothing to cancel if the provider never saw the event.
		if appt.Status.IsCancelled() {
			continue
		}

		if err := api.Insert(ctx, conn.ProviderCalendarID, event); err != nil {
			_, msg := ClassifyError(err)
			result.Errors = append(result.Errors, msg)
			continue
		}
		result.Created++
	}

	result.Success = len(result.Errors) == 0

	status := models.ConnectionStatusConnected
	var syncError *string
	var syncedAt *time.Time
	if result.Success {
		syncedAt = &result.SyncedAt
	} else {
		status = models.ConnectionStatusError
		msg := fmt.Sprintf("%d event(s) failed to sync", len(result.Errors))
		syncError = &msg
	}
	if err := s.connRepo.UpdateSyncState(ctx, conn.ID, status, syncError, syncedAt); err != nil {
		log.Printf("Failed to update connection state: %v", err)
	}

	log.Printf("Provider sync for staff %s: %s", conn.StaffID, result.Summary())

	return result, nil
}

// SyncDue syncs every connection whose last successful sync is older than
// the staleness threshold.
func (s *SyncService) SyncDue(ctx context.Context) ([]Result, error) {
	conns, err := s.connRepo.ListSyncable(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing connections: %w", err)
	}

	var results []Result
	for _, conn := range conns {
		if !ShouldSync(conn.LastSyncedAt, s.maxAge) {
			continue
		}

		result, err := s.SyncConnection(ctx, conn.ID)
		if err != nil {
			log.Printf("Error syncing connection %s: %v", conn.ID, err)
			if result == nil {
				continue
			}
		}
		results = append(results, *result)
	}

	return results, nil
}

// failSync records a whole-pass failure against the connection. The raw
// error is logged server-side; only a classified message is stored.
func (s *SyncService) failSync(ctx context.Context, conn *models.ProviderConnection, result *Result, err error) (*Result, error) {
	log.Printf("Provider sync failed for connection %s: %v", conn.ID, err)

	_, msg := ClassifyError(err)
	result.Errors = append(result.Errors, msg)

	if updErr := s.connRepo.UpdateSyncState(ctx, conn.ID, models.ConnectionStatusError, &msg, nil); updErr != nil {
		log.Printf("Failed to update connection state: %v", updErr)
	}

	return result, err
}

// listOurEvents retrieves the provider events this system created within
// the window, keyed by appointment ID.
func (s *SyncService) listOurEvents(ctx context.Context, api calendarAPI, calendarID string, from, to time.Time) (map[string]*calendar.Event, error) {
	events, err := api.List(ctx, calendarID, from, to)
	if err != nil {
		return nil, err
	}

	ours := make(map[string]*calendar.Event)
	for _, event := range events {
		if id := ExtractAppointmentID(event); id != "" {
			ours[id] = event
		}
	}

	return ours, nil
}

// googleAPI adapts the Google Calendar service to the calendarAPI interface.
type googleAPI struct {
	svc *calendar.Service
}

func (g *googleAPI) List(ctx context.Context, calendarID string, from, to time.Time) ([]*calendar.Event, error) {
	var events []*calendar.Event

	call := g.svc.Events.List(calendarID).
		Context(ctx).
		SingleEvents(true).
		ShowDeleted(false).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339))

	err := call.Pages(ctx, func(page *calendar.Events) error {
		events = append(events, page.Items...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return events, nil
}

func (g *googleAPI) Insert(ctx context.Context, calendarID string, event *calendar.Event) error {
	_, err := g.svc.Events.Insert(calendarID, event).Context(ctx).Do()
	return err
}

func (g *googleAPI) Update(ctx context.Context, calendarID, eventID string, event *calendar.Event) error {
	_, err := g.svc.Events.Update(calendarID, eventID, event).Context(ctx).Do()
	return err
}
