package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/salon-scheduler/backend/internal/storage/models"
)

// ConnectionRepository provides data access for external provider connections.
// Credential material is stored encrypted; this layer never sees plaintext.
type ConnectionRepository struct {
	BaseRepository
}

// NewConnectionRepository creates a new connection repository.
func NewConnectionRepository(db *DB) *ConnectionRepository {
	return &ConnectionRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Create inserts a new provider connection.
func (r *ConnectionRepository) Create(ctx context.Context, conn *models.ProviderConnection) error {
	conn.ID = GenerateID()
	conn.Status = models.ConnectionStatusConnected
	conn.CreatedAt = r.Now()
	conn.UpdatedAt = r.Now()

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO provider_connections (
			id, staff_id, provider, credentials, provider_calendar_id, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		conn.ID, conn.StaffID, conn.Provider, conn.Credentials,
		conn.ProviderCalendarID, conn.Status, conn.CreatedAt, conn.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("inserting connection: %w", err)
	}

	return nil
}

// GetByID retrieves a connection by ID.
func (r *ConnectionRepository) GetByID(ctx context.Context, id string) (*models.ProviderConnection, error) {
	conn := &models.ProviderConnection{}

	err := r.DB().QueryRowContext(ctx, `
		SELECT id, staff_id, provider, credentials, provider_calendar_id,
		       status, sync_error, last_synced_at, created_at, updated_at
		FROM provider_connections WHERE id = ?
	`, id).Scan(
		&conn.ID, &conn.StaffID, &conn.Provider, &conn.Credentials,
		&conn.ProviderCalendarID, &conn.Status, &conn.SyncError,
		&conn.LastSyncedAt, &conn.CreatedAt, &conn.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying connection: %w", err)
	}

	return conn, nil
}

// GetByStaff retrieves the connection for a staff member and provider.
func (r *ConnectionRepository) GetByStaff(ctx context.Context, staffID, provider string) (*models.ProviderConnection, error) {
	conn := &models.ProviderConnection{}

	err := r.DB().QueryRowContext(ctx, `
		SELECT id, staff_id, provider, credentials, provider_calendar_id,
		       status, sync_error, last_synced_at, created_at, updated_at
		FROM provider_connections WHERE staff_id = ? AND provider = ?
	`, staffID, provider).Scan(
		&conn.ID, &conn.StaffID, &conn.Provider, &conn.Credentials,
		&conn.ProviderCalendarID, &conn.Status, &conn.SyncError,
		&conn.LastSyncedAt, &conn.CreatedAt, &conn.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying connection: %w", err)
	}

	return conn, nil
}

// ListSyncable retrieves every connection that is not disabled, ordered by
// the least recently synced first.
func (r *ConnectionRepository) ListSyncable(ctx context.Context) ([]models.ProviderConnection, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT id, staff_id, provider, credentials, provider_calendar_id,
		       status, sync_error, last_synced_at, created_at, updated_at
		FROM provider_connections
		WHERE status != ?
		ORDER BY last_synced_at ASC NULLS FIRST
	`, models.ConnectionStatusDisabled)
	if err != nil {
		return nil, fmt.Errorf("querying connections: %w", err)
	}
	defer rows.Close()

	var conns []models.ProviderConnection
	for rows.Next() {
		var conn models.ProviderConnection
		if err := rows.Scan(
			&conn.ID, &conn.StaffID, &conn.Provider, &conn.Credentials,
			&conn.ProviderCalendarID, &conn.Status, &conn.SyncError,
			&conn.LastSyncedAt, &conn.CreatedAt, &conn.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning connection: %w", err)
		}
		conns = append(conns, conn)
	}

	return conns, rows.Err()
}

// UpdateSyncState records the outcome of a sync pass. lastSyncedAt is only
// advanced on success.
func (r *ConnectionRepository) UpdateSyncState(ctx context.Context, id, status string, syncError *string, syncedAt *time.Time) error {
	_, err := r.DB().ExecContext(ctx, `
		UPDATE provider_connections SET
			status = ?, sync_error = ?, last_synced_at = COALESCE(?, last_synced_at), updated_at = ?
		WHERE id = ?
	`, status, syncError, syncedAt, r.Now(), id)

	if err != nil {
		return fmt.Errorf("updating sync state: %w", err)
	}

	return nil
}

// Delete removes a connection by ID.
func (r *ConnectionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB().ExecContext(ctx, "DELETE FROM provider_connections WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting connection: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("connection not found: %s", id)
	}

	return nil
}
