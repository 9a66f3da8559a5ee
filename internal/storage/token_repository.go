package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/salon-scheduler/backend/internal/storage/models"
)

// TokenRepository provides data access for calendar feed tokens.
// Only token hashes are stored; raw secrets never reach this layer.
type TokenRepository struct {
	BaseRepository
}

// NewTokenRepository creates a new token repository.
func NewTokenRepository(db *DB) *TokenRepository {
	return &TokenRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Create inserts a new calendar token. Any previously active token for the
// same (staff, feed kind) pair is deactivated in the same transaction so the
// partial unique index is never violated.
func (r *TokenRepository) Create(ctx context.Context, token *models.CalendarToken) error {
	token.ID = GenerateID()
	token.Active = true
	token.CreatedAt = r.Now()
	token.UpdatedAt = r.Now()

	return r.Transaction(func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE calendar_tokens SET active = 0, updated_at = ?
			WHERE staff_id = ? AND feed_kind = ? AND active = 1
		`, token.UpdatedAt, token.StaffID, token.FeedKind)
		if err != nil {
			return fmt.Errorf("deactivating previous tokens: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO calendar_tokens (
				id, staff_id, token_hash, feed_kind, active, expires_at, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			token.ID, token.StaffID, token.TokenHash, token.FeedKind,
			token.Active, token.ExpiresAt, token.CreatedAt, token.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("inserting token: %w", err)
		}

		return nil
	})
}

// GetActiveByHash retrieves an active token by its stored hash.
// Returns nil when no active token matches.
func (r *TokenRepository) GetActiveByHash(ctx context.Context, tokenHash string) (*models.CalendarToken, error) {
	token := &models.CalendarToken{}

	err := r.DB().QueryRowContext(ctx, `
		SELECT id, staff_id, token_hash, feed_kind, active, expires_at,
		       last_accessed_at, created_at, updated_at
		FROM calendar_tokens WHERE token_hash = ? AND active = 1
	`, tokenHash).Scan(
		&token.ID, &token.StaffID, &token.TokenHash, &token.FeedKind,
		&token.Active, &token.ExpiresAt, &token.LastAccessedAt,
		&token.CreatedAt, &token.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying token: %w", err)
	}

	return token, nil
}

// GetActiveForStaff retrieves the active token for a (staff, feed kind) pair.
func (r *TokenRepository) GetActiveForStaff(ctx context.Context, staffID string, kind models.FeedKind) (*models.CalendarToken, error) {
	token := &models.CalendarToken{}

	err := r.DB().QueryRowContext(ctx, `
		SELECT id, staff_id, token_hash, feed_kind, active, expires_at,
		       last_accessed_at, created_at, updated_at
		FROM calendar_tokens WHERE staff_id = ? AND feed_kind = ? AND active = 1
	`, staffID, kind).Scan(
		&token.ID, &token.StaffID, &token.TokenHash, &token.FeedKind,
		&token.Active, &token.ExpiresAt, &token.LastAccessedAt,
		&token.CreatedAt, &token.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying token: %w", err)
	}

	return token, nil
}

// ListByStaff retrieves all tokens ever minted for a staff member,
// most recent first.
func (r *TokenRepository) ListByStaff(ctx context.Context, staffID string) ([]models.CalendarToken, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT id, staff_id, token_hash, feed_kind, active, expires_at,
		       last_accessed_at, created_at, updated_at
		FROM calendar_tokens WHERE staff_id = ?
		ORDER BY created_at DESC
	`, staffID)
	if err != nil {
		return nil, fmt.Errorf("querying tokens: %w", err)
	}
	defer rows.Close()

	var tokens []models.CalendarToken
	for rows.Next() {
		var token models.CalendarToken
		if err := rows.Scan(
			&token.ID, &token.StaffID, &token.TokenHash, &token.FeedKind,
			&token.Active, &token.ExpiresAt, &token.LastAccessedAt,
			&token.CreatedAt, &token.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning token: %w", err)
		}
		tokens = append(tokens, token)
	}

	return tokens, rows.Err()
}

// Deactivate revokes a token. The row is kept for audit purposes.
func (r *TokenRepository) Deactivate(ctx context.Context, id string) error {
	result, err := r.DB().ExecContext(ctx, `
		UPDATE calendar_tokens SET active = 0, updated_at = ? WHERE id = ?
	`, r.Now(), id)
	if err != nil {
		return fmt.Errorf("deactivating token: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("token not found: %s", id)
	}

	return nil
}

// TouchLastAccessed records a successful feed pull against the token.
func (r *TokenRepository) TouchLastAccessed(ctx context.Context, id string, at time.Time) error {
	_, err := r.DB().ExecContext(ctx, `
		UPDATE calendar_tokens SET last_accessed_at = ? WHERE id = ?
	`, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("updating last accessed: %w", err)
	}

	return nil
}
