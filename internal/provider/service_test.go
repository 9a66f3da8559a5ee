package provider

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"

	"github.com/salon-scheduler/backend/internal/storage"
	"github.com/salon-scheduler/backend/internal/storage/models"
	"github.com/salon-scheduler/backend/internal/token"
)

// fakeCalendarAPI stands in for the provider so sync passes run offline.
type fakeCalendarAPI struct {
	events []*calendar.Event

	inserted []*calendar.Event
	updated  map[string]*calendar.Event

	listErr   error
	insertErr error
	updateErr error
}

func (f *fakeCalendarAPI) List(_ context.Context, _ string, _, _ time.Time) ([]*calendar.Event, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.events, nil
}

func (f *fakeCalendarAPI) Insert(_ context.Context, _ string, event *calendar.Event) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, event)
	return nil
}

func (f *fakeCalendarAPI) Update(_ context.Context, _ string, eventID string, event *calendar.Event) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if f.updated == nil {
		f.updated = make(map[string]*calendar.Event)
	}
	f.updated[eventID] = event
	return nil
}

type syncFixture struct {
	db       *storage.DB
	connRepo *storage.ConnectionRepository
	apptRepo *storage.AppointmentRepository
	tokens   *token.Manager
	service  *SyncService
	api      *fakeCalendarAPI

	staffID string
	connID  string
}

func newSyncFixture(t *testing.T) *syncFixture {
	t.Helper()

	db, err := storage.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, storage.RunMigrations(db))

	tokens, err := token.NewManager([]byte("test-hash-key"), []byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	f := &syncFixture{
		db:       db,
		connRepo: storage.NewConnectionRepository(db),
		apptRepo: storage.NewAppointmentRepository(db),
		tokens:   tokens,
		api:      &fakeCalendarAPI{},
	}

	f.service = NewSyncService(f.connRepo, f.apptRepo, tokens, &oauth2.Config{}, testBusiness())
	f.service.newAPI = func(_ context.Context, credentials string) (calendarAPI, error) {
		var tok oauth2.Token
		require.NoError(t, json.Unmarshal([]byte(credentials), &tok))
		return f.api, nil
	}

	ctx := context.Background()

	staff := &models.Staff{Name: "Alex Kim", Email: "alex@example.com", Role: models.RoleStylist, Active: true}
	require.NoError(t, storage.NewStaffRepository(db).Create(ctx, staff))
	f.staffID = staff.ID

	customer := &models.Customer{FirstName: "Dana", LastName: "Reeves"}
	require.NoError(t, storage.NewCustomerRepository(db).Create(ctx, customer))

	_, err = db.Exec(`
		INSERT INTO services (id, name, duration_min, price_cents, active, created_at, updated_at)
		VALUES ('svc-1', 'Balayage', 90, 18000, 1, datetime('now'), datetime('now'))
	`)
	require.NoError(t, err)

	f.createAppointment(t, customer.ID, models.AppointmentConfirmed)

	credentials, err := tokens.Encrypt(`{"access_token":"ya29.test","token_type":"Bearer"}`)
	require.NoError(t, err)

	conn := &models.ProviderConnection{
		StaffID:            f.staffID,
		Provider:           models.ProviderGoogle,
		Credentials:        credentials,
		ProviderCalendarID: "primary",
	}
	require.NoError(t, f.connRepo.Create(ctx, conn))
	f.connID = conn.ID

	return f
}

func (f *syncFixture) createAppointment(t *testing.T, customerID string, status models.AppointmentStatus) *models.Appointment {
	t.Helper()

	starts := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second)
	appt := &models.Appointment{
		StaffID:    f.staffID,
		CustomerID: customerID,
		ServiceID:  "svc-1",
		StartsAt:   starts,
		EndsAt:     starts.Add(90 * time.Minute),
		Status:     status,
	}
	require.NoError(t, f.apptRepo.Create(context.Background(), appt))
	return appt
}

func TestSyncConnectionCreatesEvents(t *testing.T) {
	f := newSyncFixture(t)

	result, err := f.service.SyncConnection(context.Background(), f.connID)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 0, result.Updated)
	assert.Empty(t, result.Errors)
	require.Len(t, f.api.inserted, 1)
	assert.Equal(t, "Balayage — Dana Reeves", f.api.inserted[0].Summary)

	conn, err := f.connRepo.GetByID(context.Background(), f.connID)
	require.NoError(t, err)
	assert.Equal(t, models.ConnectionStatusConnected, conn.Status)
	require.NotNil(t, conn.LastSyncedAt)
}

func TestSyncConnectionUpdatesExistingEvents(t *testing.T) {
	f := newSyncFixture(t)

	appts, err := f.apptRepo.ListSyncableByStaff(context.Background(), f.staffID, time.Now().UTC(), time.Now().UTC().Add(48*time.Hour))
	require.NoError(t, err)
	require.Len(t, appts, 1)

	f.api.events = []*calendar.Event{
		{Id: "provider-ev-1", Description: "salon-appointment-id:" + appts[0].ID},
		{Id: "provider-ev-2", Summary: "Dentist", Description: "not ours"},
	}

	result, err := f.service.SyncConnection(context.Background(), f.connID)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 1, result.Updated)
	assert.Empty(t, f.api.inserted)
	require.Contains(t, f.api.updated, "provider-ev-1")
}

func TestSyncConnectionCancelsExistingEvents(t *testing.T) {
	f := newSyncFixture(t)

	appts, err := f.apptRepo.ListSyncableByStaff(context.Background(), f.staffID, time.Now().UTC(), time.Now().UTC().Add(48*time.Hour))
	require.NoError(t, err)
	require.Len(t, appts, 1)

	require.NoError(t, f.apptRepo.UpdateStatus(context.Background(), appts[0].ID, models.AppointmentCancelled))
	f.api.events = []*calendar.Event{
		{Id: "provider-ev-1", Description: "salon-appointment-id:" + appts[0].ID},
	}

	result, err := f.service.SyncConnection(context.Background(), f.connID)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Deleted)
	require.Contains(t, f.api.updated, "provider-ev-1")
	assert.Equal(t, "cancelled", f.api.updated["provider-ev-1"].Status)
}

func TestSyncConnectionSkipsCancelledWithoutProviderEvent(t *testing.T) {
	f := newSyncFixture(t)

	appts, err := f.apptRepo.ListSyncableByStaff(context.Background(), f.staffID, time.Now().UTC(), time.Now().UTC().Add(48*time.Hour))
	require.NoError(t, err)
	require.NoError(t, f.apptRepo.UpdateStatus(context.Background(), appts[0].ID, models.AppointmentCancelled))

	result, err := f.service.SyncConnection(context.Background(), f.connID)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "no changes", result.Summary())
	assert.Empty(t, f.api.inserted)
}

func TestSyncConnectionRecordsPerEventErrors(t *testing.T) {
	f := newSyncFixture(t)

	f.api.insertErr = &googleapi.Error{Code: 403, Message: "insufficient permissions for calendar"}

	result, err := f.service.SyncConnection(context.Background(), f.connID)
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, 0, result.Created)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, ErrPermissionDenied.Message(), result.Errors[0])
	assert.NotContains(t, result.Errors[0], "insufficient permissions for calendar")

	conn, err := f.connRepo.GetByID(context.Background(), f.connID)
	require.NoError(t, err)
	assert.Equal(t, models.ConnectionStatusError, conn.Status)
	require.NotNil(t, conn.SyncError)
	assert.Nil(t, conn.LastSyncedAt)
}

func TestSyncConnectionFailsWholePassOnListError(t *testing.T) {
	f := newSyncFixture(t)

	f.api.listErr = &googleapi.Error{Code: 401}

	result, err := f.service.SyncConnection(context.Background(), f.connID)
	require.Error(t, err)
	require.NotNil(t, result)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, ErrAuthExpired.Message(), result.Errors[0])

	conn, err := f.connRepo.GetByID(context.Background(), f.connID)
	require.NoError(t, err)
	assert.Equal(t, models.ConnectionStatusError, conn.Status)
}

func TestSyncConnectionBadCredentials(t *testing.T) {
	f := newSyncFixture(t)

	_, err := f.db.Exec("UPDATE provider_connections SET credentials = 'not-an-envelope' WHERE id = ?", f.connID)
	require.NoError(t, err)

	_, err = f.service.SyncConnection(context.Background(), f.connID)
	require.Error(t, err)

	conn, err := f.connRepo.GetByID(context.Background(), f.connID)
	require.NoError(t, err)
	assert.Equal(t, models.ConnectionStatusError, conn.Status)
}

func TestSyncConnectionNotFound(t *testing.T) {
	f := newSyncFixture(t)

	_, err := f.service.SyncConnection(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSyncDueSkipsRecentlySynced(t *testing.T) {
	f := newSyncFixture(t)

	now := time.Now().UTC()
	require.NoError(t, f.connRepo.UpdateSyncState(context.Background(), f.connID, models.ConnectionStatusConnected, nil, &now))

	results, err := f.service.SyncDue(context.Background())
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Empty(t, f.api.inserted)
}

func TestSyncDueSyncsStaleConnections(t *testing.T) {
	f := newSyncFixture(t)

	stale := time.Now().UTC().Add(-2 * time.Hour)
	require.NoError(t, f.connRepo.UpdateSyncState(context.Background(), f.connID, models.ConnectionStatusConnected, nil, &stale))

	results, err := f.service.SyncDue(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].Created)
}
