package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Refusal is one recorded artisan refusal of a service request. The ledger is
// append-only; a refusal is never cleared, so a refusing artisan stays
// excluded from that request's candidate pool for good.
type Refusal struct {
	ID               uuid.UUID `db:"id"`
	ServiceRequestID uuid.UUID `db:"service_request_id"`
	ArtisanID        uuid.UUID `db:"artisan_id"`
	Reason           *string   `db:"reason"`
	RefusedAt        time.Time `db:"refused_at"`
}

// Repository provides database operations for the refusal ledger.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new assignments repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// RecordRefusalTx appends a refusal inside the engine's transaction. Recording
// the same (request, artisan) pair twice is a no-op.
func (r *Repository) RecordRefusalTx(ctx context.Context, tx pgx.Tx, requestID, artisanID uuid.UUID, reason *string, at time.Time) error {
	query := `
		INSERT INTO artisan_refusals (id, service_request_id, artisan_id, reason, refused_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (service_request_id, artisan_id) DO NOTHING`

	if _, err := tx.Exec(ctx, query, uuid.New(), requestID, artisanID, reason, at); err != nil {
		return fmt.Errorf("failed to record refusal: %w", err)
	}
	return nil
}

// HasRefused reports whether the artisan previously refused this request.
func (r *Repository) HasRefused(ctx context.Context, requestID, artisanID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM artisan_refusals
			WHERE service_request_id = $1 AND artisan_id = $2
		)`,
		requestID, artisanID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check refusal: %w", err)
	}
	return exists, nil
}

// RefusedArtisans returns the IDs of every artisan that refused the request.
func (r *Repository) RefusedArtisans(ctx context.Context, requestID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT artisan_id FROM artisan_refusals WHERE service_request_id = $1`,
		requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list refusals: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan refusal: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListByRequest returns the full refusal history for a request, oldest first.
func (r *Repository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]Refusal, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, service_request_id, artisan_id, reason, refused_at
		 FROM artisan_refusals WHERE service_request_id = $1 ORDER BY refused_at`,
		requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list refusals: %w", err)
	}
	defer rows.Close()

	var refusals []Refusal
	for rows.Next() {
		var ref Refusal
		if err := rows.Scan(&ref.ID, &ref.ServiceRequestID, &ref.ArtisanID, &ref.Reason, &ref.RefusedAt); err != nil {
			return nil, fmt.Errorf("failed to scan refusal: %w", err)
		}
		refusals = append(refusals, ref)
	}
	return refusals, rows.Err()
}
