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

// ── Domain Models ─────────────────────────────────────────────────────────────

// ServiceRequest is the database model for a service request.
type ServiceRequest struct {
	ID                uuid.UUID  `db:"id"`
	ClientID          *uuid.UUID `db:"client_id"`
	Title             string     `db:"title"`
	Description       string     `db:"description"`
	Category          string     `db:"category"`
	LocationAddress   string     `db:"location_address"`
	Status            string     `db:"status"`
	AssignedArtisanID *uuid.UUID `db:"assigned_artisan_id"`
	DownPaymentPaid   bool       `db:"down_payment_paid"`
	// EstimatedPriceCents mirrors the active estimate's price so readers never
	// join against billing_estimates for the agreed amount. Nil before the
	// first estimate; rewritten transactionally with every issuance.
	EstimatedPriceCents *int64    `db:"estimated_price_cents"`
	GuestEmail          *string   `db:"guest_email"`
	GuestPhone          *string   `db:"guest_phone"`
	GuestToken          *string   `db:"guest_token"`
	CreatedAt           time.Time `db:"created_at"`
	UpdatedAt           time.Time `db:"updated_at"`
}

// HistoryEntry is one recorded status transition of a service request.
type HistoryEntry struct {
	ID               uuid.UUID  `db:"id"`
	ServiceRequestID uuid.UUID  `db:"service_request_id"`
	FromStatus       *string    `db:"from_status"`
	ToStatus         string     `db:"to_status"`
	Trigger          string     `db:"trigger"`
	ActorRole        string     `db:"actor_role"`
	ActorID          *uuid.UUID `db:"actor_id"`
	CreatedAt        time.Time  `db:"created_at"`
}

const requestNotFoundMsg = "service request not found"

const requestColumns = `id, client_id, title, description, category, location_address,
	status, assigned_artisan_id, down_payment_paid, estimated_price_cents,
	guest_email, guest_phone, guest_token, created_at, updated_at`

// Repository provides database operations for service requests.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new service requests repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanRequest(row pgx.Row) (*ServiceRequest, error) {
	var sr ServiceRequest
	err := row.Scan(
		&sr.ID, &sr.ClientID, &sr.Title, &sr.Description, &sr.Category, &sr.LocationAddress,
		&sr.Status, &sr.AssignedArtisanID, &sr.DownPaymentPaid, &sr.EstimatedPriceCents,
		&sr.GuestEmail, &sr.GuestPhone, &sr.GuestToken,
		&sr.CreatedAt, &sr.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sr, nil
}

// CreateTx inserts a new service request. It runs in the same transaction as
// the initial history entry.
func (r *Repository) CreateTx(ctx context.Context, tx pgx.Tx, sr *ServiceRequest) error {
	query := `
		INSERT INTO service_requests (
			id, client_id, title, description, category, location_address,
			status, assigned_artisan_id, down_payment_paid, estimated_price_cents,
			guest_email, guest_phone, guest_token, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := tx.Exec(ctx, query,
		sr.ID, sr.ClientID, sr.Title, sr.Description, sr.Category, sr.LocationAddress,
		sr.Status, sr.AssignedArtisanID, sr.DownPaymentPaid, sr.EstimatedPriceCents,
		sr.GuestEmail, sr.GuestPhone, sr.GuestToken,
		sr.CreatedAt, sr.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create service request: %w", err)
	}
	return nil
}

// GetByID retrieves a service request by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*ServiceRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM service_requests WHERE id = $1`
	sr, err := scanRequest(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(requestNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get service request: %w", err)
	}
	return sr, nil
}

// GetByGuestToken retrieves a guest-created request by its correlation token.
func (r *Repository) GetByGuestToken(ctx context.Context, token string) (*ServiceRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM service_requests WHERE guest_token = $1`
	sr, err := scanRequest(r.pool.QueryRow(ctx, query, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(requestNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get service request by guest token: %w", err)
	}
	return sr, nil
}

// ListClaimableFor returns the requests open for assignation that the artisan
// has not refused, oldest first. Refusal exclusion happens in SQL so a request
// an artisan turned down never shows up in their pool again.
func (r *Repository) ListClaimableFor(ctx context.Context, artisanID uuid.UUID, limit int) ([]ServiceRequest, error) {
	if limit < 1 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+requestColumns+` FROM service_requests sr
		 WHERE sr.status = $1
		   AND NOT EXISTS (
			SELECT 1 FROM artisan_refusals ar
			WHERE ar.service_request_id = sr.id AND ar.artisan_id = $2
		   )
		 ORDER BY sr.created_at
		 LIMIT $3`,
		string(domain.StatusAwaitingAssignation), artisanID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list claimable requests: %w", err)
	}
	defer rows.Close()

	var out []ServiceRequest
	for rows.Next() {
		sr, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service request: %w", err)
		}
		out = append(out, *sr)
	}
	return out, rows.Err()
}

// History returns the full transition history of a request, oldest first.
func (r *Repository) History(ctx context.Context, requestID uuid.UUID) ([]HistoryEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, service_request_id, from_status, to_status, trigger, actor_role, actor_id, created_at
		 FROM status_history WHERE service_request_id = $1 ORDER BY created_at, id`,
		requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list status history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var h HistoryEntry
		if err := rows.Scan(&h.ID, &h.ServiceRequestID, &h.FromStatus, &h.ToStatus,
			&h.Trigger, &h.ActorRole, &h.ActorID, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, h)
	}
	return entries, rows.Err()
}

// ── Transaction-scoped operations ─────────────────────────────────────────────

// WithTx runs fn inside a transaction. The transaction is rolled back when fn
// returns an error and committed otherwise.
func (r *Repository) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// LockTx loads the request row under FOR UPDATE. The lock is held until the
// surrounding transaction ends and serializes every transition for this
// request; it is what makes concurrent claims and dual responses safe.
func (r *Repository) LockTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*ServiceRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM service_requests WHERE id = $1 FOR UPDATE`
	sr, err := scanRequest(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(requestNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to lock service request: %w", err)
	}
	return sr, nil
}

// UpdateStateTx writes the request's mutable lifecycle columns.
func (r *Repository) UpdateStateTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.Status, assignedArtisanID *uuid.UUID, downPaymentPaid bool, estimatedPriceCents *int64, at time.Time) error {
	result, err := tx.Exec(ctx,
		`UPDATE service_requests
		 SET status = $2, assigned_artisan_id = $3, down_payment_paid = $4,
		     estimated_price_cents = $5, updated_at = $6
		 WHERE id = $1`,
		id, string(status), assignedArtisanID, downPaymentPaid, estimatedPriceCents, at)
	if err != nil {
		return fmt.Errorf("failed to update service request: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(requestNotFoundMsg)
	}
	return nil
}

// AppendHistoryTx records one status transition in the audit trail.
func (r *Repository) AppendHistoryTx(ctx context.Context, tx pgx.Tx, h HistoryEntry) error {
	if _, err := tx.Exec(ctx,
		`INSERT INTO status_history (id, service_request_id, from_status, to_status, trigger, actor_role, actor_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		h.ID, h.ServiceRequestID, h.FromStatus, h.ToStatus, h.Trigger, h.ActorRole, h.ActorID, h.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to append status history: %w", err)
	}
	return nil
}
