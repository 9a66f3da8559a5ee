package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/salon-scheduler/backend/internal/storage/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, RunMigrations(db))
	return db
}

func createTestStaff(t *testing.T, db *DB) *models.Staff {
	t.Helper()

	staff := &models.Staff{
		Name:   "Alex Kim",
		Email:  GenerateID() + "@example.com",
		Role:   models.RoleStylist,
		Active: true,
	}
	require.NoError(t, NewStaffRepository(db).Create(context.Background(), staff))
	return staff
}

func createTestCustomer(t *testing.T, db *DB) *models.Customer {
	t.Helper()

	phone := "+1-555-0142"
	customer := &models.Customer{
		FirstName: "Dana",
		LastName:  "Reeves",
		Phone:     &phone,
	}
	require.NoError(t, NewCustomerRepository(db).Create(context.Background(), customer))
	return customer
}

func createTestService(t *testing.T, db *DB) string {
	t.Helper()

	id := GenerateID()
	_, err := db.Exec(`
		INSERT INTO services (id, name, duration_min, price_cents)
		VALUES (?, 'Balayage', 90, 18000)
	`, id)
	require.NoError(t, err)
	return id
}

func createTestAppointment(t *testing.T, db *DB, staffID, customerID, serviceID string, start time.Time, status models.AppointmentStatus) *models.Appointment {
	t.Helper()

	appt := &models.Appointment{
		StaffID:    staffID,
		CustomerID: customerID,
		ServiceID:  serviceID,
		StartsAt:   start,
		EndsAt:     start.Add(90 * time.Minute),
		Status:     status,
	}
	require.NoError(t, NewAppointmentRepository(db).Create(context.Background(), appt))
	return appt
}
