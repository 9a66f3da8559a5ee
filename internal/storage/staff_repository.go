package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/salon-scheduler/backend/internal/storage/models"
)

// StaffRepository provides data access for staff members.
type StaffRepository struct {
	BaseRepository
}

// NewStaffRepository creates a new staff repository.
func NewStaffRepository(db *DB) *StaffRepository {
	return &StaffRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Create inserts a new staff member.
func (r *StaffRepository) Create(ctx context.Context, staff *models.Staff) error {
	staff.ID = GenerateID()
	staff.CreatedAt = r.Now()
	staff.UpdatedAt = r.Now()

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO staff (id, name, email, phone, role, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		staff.ID, staff.Name, staff.Email, staff.Phone, staff.Role,
		staff.Active, staff.CreatedAt, staff.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("inserting staff: %w", err)
	}

	return nil
}

// GetByID retrieves a staff member by ID.
func (r *StaffRepository) GetByID(ctx context.Context, id string) (*models.Staff, error) {
	staff := &models.Staff{}

	err := r.DB().QueryRowContext(ctx, `
		SELECT id, name, email, phone, role, active, created_at, updated_at
		FROM staff WHERE id = ?
	`, id).Scan(
		&staff.ID, &staff.Name, &staff.Email, &staff.Phone, &staff.Role,
		&staff.Active, &staff.CreatedAt, &staff.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying staff: %w", err)
	}

	return staff, nil
}

// List retrieves all staff members ordered by name.
func (r *StaffRepository) List(ctx context.Context) ([]models.Staff, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT id, name, email, phone, role, active, created_at, updated_at
		FROM staff ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("querying staff: %w", err)
	}
	defer rows.Close()

	var members []models.Staff
	for rows.Next() {
		var staff models.Staff
		if err := rows.Scan(
			&staff.ID, &staff.Name, &staff.Email, &staff.Phone, &staff.Role,
			&staff.Active, &staff.CreatedAt, &staff.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning staff: %w", err)
		}
		members = append(members, staff)
	}

	return members, rows.Err()
}

// Update updates an existing staff member.
func (r *StaffRepository) Update(ctx context.Context, staff *models.Staff) error {
	staff.UpdatedAt = r.Now()

	result, err := r.DB().ExecContext(ctx, `
		UPDATE staff SET name = ?, email = ?, phone = ?, role = ?, active = ?, updated_at = ?
		WHERE id = ?
	`,
		staff.Name, staff.Email, staff.Phone, staff.Role, staff.Active,
		staff.UpdatedAt, staff.ID,
	)

	if err != nil {
		return fmt.Errorf("updating staff: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("staff not found: %s", staff.ID)
	}

	return nil
}

// Delete removes a staff member by ID.
func (r *StaffRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB().ExecContext(ctx, "DELETE FROM staff WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting staff: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("staff not found: %s", id)
	}

	return nil
}
