package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salon-scheduler/backend/internal/storage/models"
)

func TestAppointmentCreateValidation(t *testing.T) {
	db := newTestDB(t)
	repo := NewAppointmentRepository(db)
	staff := createTestStaff(t, db)
	customer := createTestCustomer(t, db)
	serviceID := createTestService(t, db)
	ctx := context.Background()

	start := time.Now().UTC().Add(time.Hour)

	backwards := &models.Appointment{
		StaffID:    staff.ID,
		CustomerID: customer.ID,
		ServiceID:  serviceID,
		StartsAt:   start,
		EndsAt:     start.Add(-time.Hour),
		Status:     models.AppointmentPending,
	}
	err := repo.Create(ctx, backwards)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "end after it starts")

	badStatus := &models.Appointment{
		StaffID:    staff.ID,
		CustomerID: customer.ID,
		ServiceID:  serviceID,
		StartsAt:   start,
		EndsAt:     start.Add(time.Hour),
		Status:     models.AppointmentStatus("waitlisted"),
	}
	err = repo.Create(ctx, badStatus)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "waitlisted")
}

func TestAppointmentListDetailsByStaff(t *testing.T) {
	db := newTestDB(t)
	repo := NewAppointmentRepository(db)
	staff := createTestStaff(t, db)
	other := createTestStaff(t, db)
	customer := createTestCustomer(t, db)
	serviceID := createTestService(t, db)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	inWindow := createTestAppointment(t, db, staff.ID, customer.ID, serviceID, now.Add(2*time.Hour), models.AppointmentConfirmed)
	createTestAppointment(t, db, staff.ID, customer.ID, serviceID, now.Add(100*24*time.Hour), models.AppointmentConfirmed)
	createTestAppointment(t, db, other.ID, customer.ID, serviceID, now.Add(2*time.Hour), models.AppointmentConfirmed)

	details, err := repo.ListDetailsByStaff(ctx, staff.ID, now, now.Add(48*time.Hour))
	require.NoError(t, err)
	require.Len(t, details, 1)

	d := details[0]
	assert.Equal(t, inWindow.ID, d.ID)
	assert.Equal(t, "Dana Reeves", d.CustomerName)
	assert.Equal(t, "+1-555-0142", d.CustomerContact)
	assert.Equal(t, "Alex Kim", d.StaffName)
	assert.Equal(t, "Balayage", d.ServiceName)
}

func TestAppointmentListSyncableByStaff(t *testing.T) {
	db := newTestDB(t)
	repo := NewAppointmentRepository(db)
	staff := createTestStaff(t, db)
	customer := createTestCustomer(t, db)
	serviceID := createTestService(t, db)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	createTestAppointment(t, db, staff.ID, customer.ID, serviceID, now.Add(time.Hour), models.AppointmentPending)
	confirmed := createTestAppointment(t, db, staff.ID, customer.ID, serviceID, now.Add(2*time.Hour), models.AppointmentConfirmed)
	cancelled := createTestAppointment(t, db, staff.ID, customer.ID, serviceID, now.Add(3*time.Hour), models.AppointmentCancelled)

	details, err := repo.ListSyncableByStaff(ctx, staff.ID, now, now.Add(48*time.Hour))
	require.NoError(t, err)
	require.Len(t, details, 2)

	// Pending is excluded; cancelled is included for the explicit signal.
	assert.Equal(t, confirmed.ID, details[0].ID)
	assert.Equal(t, cancelled.ID, details[1].ID)
}

func TestAppointmentUpdateStatus(t *testing.T) {
	db := newTestDB(t)
	repo := NewAppointmentRepository(db)
	staff := createTestStaff(t, db)
	customer := createTestCustomer(t, db)
	serviceID := createTestService(t, db)
	ctx := context.Background()

	appt := createTestAppointment(t, db, staff.ID, customer.ID, serviceID, time.Now().UTC().Add(time.Hour), models.AppointmentPending)

	require.NoError(t, repo.UpdateStatus(ctx, appt.ID, models.AppointmentConfirmed))

	got, err := repo.GetByID(ctx, appt.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.AppointmentConfirmed, got.Status)

	assert.Error(t, repo.UpdateStatus(ctx, appt.ID, models.AppointmentStatus("bogus")))
}

func TestAppointmentGetByIDMissing(t *testing.T) {
	db := newTestDB(t)
	repo := NewAppointmentRepository(db)

	got, err := repo.GetByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLoadSettingsDefaults(t *testing.T) {
	db := newTestDB(t)

	settings, err := LoadSettings(context.Background(), db)
	require.NoError(t, err)

	assert.Equal(t, "America/New_York", settings.BusinessTimeZone)
	assert.Equal(t, 30, settings.TokenLifetimeDays)
	assert.Equal(t, 15, settings.SyncIntervalMin)

	require.NoError(t, SaveSetting(context.Background(), db, "token_lifetime_days", "7"))

	settings, err = LoadSettings(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, 7, settings.TokenLifetimeDays)
}
