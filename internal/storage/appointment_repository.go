package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/salon-scheduler/backend/internal/storage/models"
)

// AppointmentRepository provides data access for appointments.
type AppointmentRepository struct {
	BaseRepository
}

// NewAppointmentRepository creates a new appointment repository.
func NewAppointmentRepository(db *DB) *AppointmentRepository {
	return &AppointmentRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Create inserts a new appointment.
func (r *AppointmentRepository) Create(ctx context.Context, appt *models.Appointment) error {
	if !appt.EndsAt.After(appt.StartsAt) {
		return fmt.Errorf("appointment must end after it starts")
	}
	if !appt.Status.Valid() {
		return fmt.Errorf("unknown appointment status: %s", appt.Status)
	}

	appt.ID = GenerateID()
	appt.CreatedAt = r.Now()
	appt.UpdatedAt = r.Now()

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO appointments (
			id, staff_id, customer_id, service_id, starts_at, ends_at, status, notes, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		appt.ID, appt.StaffID, appt.CustomerID, appt.ServiceID,
		appt.StartsAt.UTC(), appt.EndsAt.UTC(), appt.Status, appt.Notes,
		appt.CreatedAt, appt.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("inserting appointment: %w", err)
	}

	return nil
}

// GetByID retrieves an appointment by ID.
func (r *AppointmentRepository) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	appt := &models.Appointment{}

	err := r.DB().QueryRowContext(ctx, `
		SELECT id, staff_id, customer_id, service_id, starts_at, ends_at, status, notes, created_at, updated_at
		FROM appointments WHERE id = ?
	`, id).Scan(
		&appt.ID, &appt.StaffID, &appt.CustomerID, &appt.ServiceID,
		&appt.StartsAt, &appt.EndsAt, &appt.Status, &appt.Notes,
		&appt.CreatedAt, &appt.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying appointment: %w", err)
	}

	return appt, nil
}

const detailColumns = `
	a.id, a.staff_id, a.customer_id, a.service_id, a.starts_at, a.ends_at,
	a.status, a.notes, a.created_at, a.updated_at,
	c.first_name || CASE WHEN c.last_name = '' THEN '' ELSE ' ' || c.last_name END,
	COALESCE(c.phone, c.email, ''),
	st.name, st.email, sv.name
`

const detailJoins = `
	FROM appointments a
	JOIN customers c ON c.id = a.customer_id
	JOIN staff st ON st.id = a.staff_id
	JOIN services sv ON sv.id = a.service_id
`

func scanDetail(rows *sql.Rows) (models.AppointmentDetail, error) {
	var d models.AppointmentDetail
	err := rows.Scan(
		&d.ID, &d.StaffID, &d.CustomerID, &d.ServiceID, &d.StartsAt, &d.EndsAt,
		&d.Status, &d.Notes, &d.CreatedAt, &d.UpdatedAt,
		&d.CustomerName, &d.CustomerContact,
		&d.StaffName, &d.StaffEmail, &d.ServiceName,
	)
	return d, err
}

// ListDetailsByStaff retrieves appointment details for a staff member within
// a time window, ordered by start time. Used for feed rendering.
func (r *AppointmentRepository) ListDetailsByStaff(ctx context.Context, staffID string, from, to time.Time) ([]models.AppointmentDetail, error) {
	rows, err := r.DB().QueryContext(ctx,
		"SELECT "+detailColumns+detailJoins+`
		WHERE a.staff_id = ? AND a.starts_at >= ? AND a.starts_at < ?
		ORDER BY a.starts_at
	`, staffID, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("querying appointments: %w", err)
	}
	defer rows.Close()

	var details []models.AppointmentDetail
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning appointment: %w", err)
		}
		details = append(details, d)
	}

	return details, rows.Err()
}

// ListSyncableByStaff retrieves appointment details a provider sync should
// push: every non-pending appointment starting within the window, including
// cancelled ones so the provider receives an explicit cancellation signal.
func (r *AppointmentRepository) ListSyncableByStaff(ctx context.Context, staffID string, from, to time.Time) ([]models.AppointmentDetail, error) {
	rows, err := r.DB().QueryContext(ctx,
		"SELECT "+detailColumns+detailJoins+`
		WHERE a.staff_id = ? AND a.starts_at >= ? AND a.starts_at < ?
		  AND a.status != ?
		ORDER BY a.starts_at
	`, staffID, from.UTC(), to.UTC(), models.AppointmentPending)
	if err != nil {
		return nil, fmt.Errorf("querying appointments: %w", err)
	}
	defer rows.Close()

	var details []models.AppointmentDetail
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning appointment: %w", err)
		}
		details = append(details, d)
	}

	return details, rows.Err()
}

// Update updates an existing appointment.
func (r *AppointmentRepository) Update(ctx context.Context, appt *models.Appointment) error {
	if !appt.EndsAt.After(appt.StartsAt) {
		return fmt.Errorf("appointment must end after it starts")
	}
	if !appt.Status.Valid() {
		return fmt.Errorf("unknown appointment status: %s", appt.Status)
	}

	appt.UpdatedAt = r.Now()

	result, err := r.DB().ExecContext(ctx, `
		UPDATE appointments SET
			staff_id = ?, customer_id = ?, service_id = ?, starts_at = ?, ends_at = ?,
			status = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`,
		appt.StaffID, appt.CustomerID, appt.ServiceID,
		appt.StartsAt.UTC(), appt.EndsAt.UTC(), appt.Status, appt.Notes,
		appt.UpdatedAt, appt.ID,
	)

	if err != nil {
		return fmt.Errorf("updating appointment: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("appointment not found: %s", appt.ID)
	}

	return nil
}

// UpdateStatus changes only the lifecycle status of an appointment.
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id string, status models.AppointmentStatus) error {
	if !status.Valid() {
		return fmt.Errorf("unknown appointment status: %s", status)
	}

	result, err := r.DB().ExecContext(ctx, `
		UPDATE appointments SET status = ?, updated_at = ? WHERE id = ?
	`, status, r.Now(), id)
	if err != nil {
		return fmt.Errorf("updating appointment status: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("appointment not found: %s", id)
	}

	return nil
}

// Delete removes an appointment by ID.
func (r *AppointmentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB().ExecContext(ctx, "DELETE FROM appointments WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting appointment: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("appointment not found: %s", id)
	}

	return nil
}
