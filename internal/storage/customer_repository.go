package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/salon-scheduler/backend/internal/storage/models"
)

// CustomerRepository provides data access for customers.
type CustomerRepository struct {
	BaseRepository
}

// NewCustomerRepository creates a new customer repository.
func NewCustomerRepository(db *DB) *CustomerRepository {
	return &CustomerRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Create inserts a new customer.
func (r *CustomerRepository) Create(ctx context.Context, customer *models.Customer) error {
	customer.ID = GenerateID()
	customer.CreatedAt = r.Now()
	customer.UpdatedAt = r.Now()

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO customers (id, first_name, last_name, email, phone, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		customer.ID, customer.FirstName, customer.LastName, customer.Email,
		customer.Phone, customer.Notes, customer.CreatedAt, customer.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("inserting customer: %w", err)
	}

	return nil
}

// GetByID retrieves a customer by ID.
func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*models.Customer, error) {
	customer := &models.Customer{}

	err := r.DB().QueryRowContext(ctx, `
		SELECT id, first_name, last_name, email, phone, notes, created_at, updated_at
		FROM customers WHERE id = ?
	`, id).Scan(
		&customer.ID, &customer.FirstName, &customer.LastName, &customer.Email,
		&customer.Phone, &customer.Notes, &customer.CreatedAt, &customer.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying customer: %w", err)
	}

	return customer, nil
}

// List retrieves customers ordered by last then first name. When search is
// non-empty it filters on name, email and phone.
func (r *CustomerRepository) List(ctx context.Context, search string) ([]models.Customer, error) {
	query := `
		SELECT id, first_name, last_name, email, phone, notes, created_at, updated_at
		FROM customers
	`
	var args []any
	if search != "" {
		query += `
		WHERE first_name LIKE ? OR last_name LIKE ? OR email LIKE ? OR phone LIKE ?
		`
		like := "%" + search + "%"
		args = append(args, like, like, like, like)
	}
	query += " ORDER BY last_name, first_name"

	rows, err := r.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying customers: %w", err)
	}
	defer rows.Close()

	var customers []models.Customer
	for rows.Next() {
		var customer models.Customer
		if err := rows.Scan(
			&customer.ID, &customer.FirstName, &customer.LastName, &customer.Email,
			&customer.Phone, &customer.Notes, &customer.CreatedAt, &customer.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning customer: %w", err)
		}
		customers = append(customers, customer)
	}

	return customers, rows.Err()
}

// Update updates an existing customer.
func (r *CustomerRepository) Update(ctx context.Context, customer *models.Customer) error {
	customer.UpdatedAt = r.Now()

	result, err := r.DB().ExecContext(ctx, `
		UPDATE customers SET first_name = ?, last_name = ?, email = ?, phone = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`,
		customer.FirstName, customer.LastName, customer.Email, customer.Phone,
		customer.Notes, customer.UpdatedAt, customer.ID,
	)

	if err != nil {
		return fmt.Errorf("updating customer: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("customer not found: %s", customer.ID)
	}

	return nil
}

// Delete removes a customer by ID.
func (r *CustomerRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB().ExecContext(ctx, "DELETE FROM customers WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting customer: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("customer not found: %s", id)
	}

	return nil
}
