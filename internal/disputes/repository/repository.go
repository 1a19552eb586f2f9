package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thimothe-das/fixeo-sub001/internal/requests/domain"
	"github.com/thimothe-das/fixeo-sub001/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Dispute is one party's recorded contestation of the work. A request can
// carry one open dispute per side; resolution closes all of them at once.
type Dispute struct {
	ID               uuid.UUID  `db:"id"`
	ServiceRequestID uuid.UUID  `db:"service_request_id"`
	RaisedBy         string     `db:"raised_by"`
	Reason           *string    `db:"reason"`
	Resolution       *string    `db:"resolution"`
	ResolvedAt       *time.Time `db:"resolved_at"`
	CreatedAt        time.Time  `db:"created_at"`
}

// Evidence is one uploaded file backing a dispute.
type Evidence struct {
	ID          uuid.UUID `db:"id"`
	DisputeID   uuid.UUID `db:"dispute_id"`
	FileKey     string    `db:"file_key"`
	FileName    string    `db:"file_name"`
	ContentType string    `db:"content_type"`
	SizeBytes   int64     `db:"size_bytes"`
	UploadedBy  string    `db:"uploaded_by"`
	CreatedAt   time.Time `db:"created_at"`
}

// Repository provides database operations for disputes.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new disputes repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// OpenTx inserts a dispute inside the lifecycle engine's transaction.
func (r *Repository) OpenTx(ctx context.Context, tx pgx.Tx, requestID uuid.UUID, raisedBy domain.Actor, reason *string, at time.Time) (uuid.UUID, error) {
	id := uuid.New()
	_, err := tx.Exec(ctx,
		`INSERT INTO disputes (id, service_request_id, raised_by, reason, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		id, requestID, string(raisedBy), reason, at)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to open dispute: %w", err)
	}
	return id, nil
}

// ResolveOpenTx closes every open dispute on the request with the admin's
// decision.
func (r *Repository) ResolveOpenTx(ctx context.Context, tx pgx.Tx, requestID uuid.UUID, resolution string, at time.Time) error {
	if _, err := tx.Exec(ctx,
		`UPDATE disputes SET resolution = $2, resolved_at = $3
		 WHERE service_request_id = $1 AND resolved_at IS NULL`,
		requestID, resolution, at); err != nil {
		return fmt.Errorf("failed to resolve disputes: %w", err)
	}
	return nil
}

// GetByID retrieves a dispute.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Dispute, error) {
	var d Dispute
	err := r.pool.QueryRow(ctx,
		`SELECT id, service_request_id, raised_by, reason, resolution, resolved_at, created_at
		 FROM disputes WHERE id = $1`, id).
		Scan(&d.ID, &d.ServiceRequestID, &d.RaisedBy, &d.Reason, &d.Resolution, &d.ResolvedAt, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("dispute not found")
		}
		return nil, fmt.Errorf("failed to get dispute: %w", err)
	}
	return &d, nil
}

// ListByRequest returns all disputes on a request, oldest first.
func (r *Repository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]Dispute, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, service_request_id, raised_by, reason, resolution, resolved_at, created_at
		 FROM disputes WHERE service_request_id = $1 ORDER BY created_at`, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list disputes: %w", err)
	}
	defer rows.Close()

	var disputes []Dispute
	for rows.Next() {
		var d Dispute
		if err := rows.Scan(&d.ID, &d.ServiceRequestID, &d.RaisedBy, &d.Reason, &d.Resolution, &d.ResolvedAt, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan dispute: %w", err)
		}
		disputes = append(disputes, d)
	}
	return disputes, rows.Err()
}

// AddEvidence records an uploaded evidence file.
func (r *Repository) AddEvidence(ctx context.Context, e *Evidence) error {
	if _, err := r.pool.Exec(ctx,
		`INSERT INTO dispute_evidence (id, dispute_id, file_key, file_name, content_type, size_bytes, uploaded_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.DisputeID, e.FileKey, e.FileName, e.ContentType, e.SizeBytes, e.UploadedBy, e.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to add evidence: %w", err)
	}
	return nil
}

// ListEvidence returns the evidence files attached to a dispute.
func (r *Repository) ListEvidence(ctx context.Context, disputeID uuid.UUID) ([]Evidence, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, dispute_id, file_key, file_name, content_type, size_bytes, uploaded_by, created_at
		 FROM dispute_evidence WHERE dispute_id = $1 ORDER BY created_at`, disputeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list evidence: %w", err)
	}
	defer rows.Close()

	var evidence []Evidence
	for rows.Next() {
		var e Evidence
		if err := rows.Scan(&e.ID, &e.DisputeID, &e.FileKey, &e.FileName, &e.ContentType, &e.SizeBytes, &e.UploadedBy, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan evidence: %w", err)
		}
		evidence = append(evidence, e)
	}
	return evidence, rows.Err()
}
