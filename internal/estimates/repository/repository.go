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
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ── Domain Models ─────────────────────────────────────────────────────────────

// Estimate is the database model for a billing estimate.
type Estimate struct {
	ID                     uuid.UUID  `db:"id"`
	ServiceRequestID       uuid.UUID  `db:"service_request_id"`
	AdminID                uuid.UUID  `db:"admin_id"`
	Status                 string     `db:"status"`
	RevisionNumber         int        `db:"revision_number"`
	PriceCents             int64      `db:"price_cents"`
	Description            string     `db:"description"`
	ValidUntil             *time.Time `db:"valid_until"`
	ClientAccepted         *bool      `db:"client_accepted"`
	ClientResponseDate     *time.Time `db:"client_response_date"`
	ClientMessage          *string    `db:"client_message"`
	ArtisanAccepted        *bool      `db:"artisan_accepted"`
	ArtisanResponseDate    *time.Time `db:"artisan_response_date"`
	ArtisanRejectionReason *string    `db:"artisan_rejection_reason"`
	RejectedByArtisanID    *uuid.UUID `db:"rejected_by_artisan_id"`
	RejectedAt             *time.Time `db:"rejected_at"`
	CreatedAt              time.Time  `db:"created_at"`
	UpdatedAt              time.Time  `db:"updated_at"`
}

// Item is the database model for one line of an estimate's cost breakdown.
type Item struct {
	ID             uuid.UUID `db:"id"`
	EstimateID     uuid.UUID `db:"estimate_id"`
	Description    string    `db:"description"`
	Quantity       float64   `db:"quantity"`
	UnitPriceCents int64     `db:"unit_price_cents"`
	TotalCents     int64     `db:"total_cents"`
	SortOrder      int       `db:"sort_order"`
}

// DomainState projects the estimate into the lifecycle engine's view.
func (e *Estimate) DomainState() *domain.EstimateState {
	if e == nil {
		return nil
	}
	return &domain.EstimateState{
		ID:                  e.ID,
		Revision:            e.RevisionNumber,
		Status:              domain.EstimateStatus(e.Status),
		ClientAccepted:      e.ClientAccepted,
		ArtisanAccepted:     e.ArtisanAccepted,
		RejectedByArtisanID: e.RejectedByArtisanID,
		PriceCents:          e.PriceCents,
	}
}

// IsExpired reports whether a still-pending estimate has outlived validUntil.
func (e *Estimate) IsExpired(now time.Time) bool {
	return e.Status == string(domain.EstimatePending) &&
		e.ValidUntil != nil && e.ValidUntil.Before(now)
}

const estimateNotFoundMsg = "estimate not found"

const estimateColumns = `id, service_request_id, admin_id, status, revision_number, price_cents,
	description, valid_until, client_accepted, client_response_date, client_message,
	artisan_accepted, artisan_response_date, artisan_rejection_reason,
	rejected_by_artisan_id, rejected_at, created_at, updated_at`

// Repository provides database operations for billing estimates.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new estimates repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanEstimate(row pgx.Row) (*Estimate, error) {
	var e Estimate
	err := row.Scan(
		&e.ID, &e.ServiceRequestID, &e.AdminID, &e.Status, &e.RevisionNumber, &e.PriceCents,
		&e.Description, &e.ValidUntil, &e.ClientAccepted, &e.ClientResponseDate, &e.ClientMessage,
		&e.ArtisanAccepted, &e.ArtisanResponseDate, &e.ArtisanRejectionReason,
		&e.RejectedByArtisanID, &e.RejectedAt, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// GetByID retrieves an estimate, lazily reclassifying it as expired when its
// validity deadline has passed. There is no background timer; expiry is
// evaluated on read.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Estimate, error) {
	query := `SELECT ` + estimateColumns + ` FROM billing_estimates WHERE id = $1`
	e, err := scanEstimate(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(estimateNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get estimate: %w", err)
	}
	return r.reclassifyExpired(ctx, e)
}

// ListByRequest returns all estimates for a request, newest revision first.
func (r *Repository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]Estimate, error) {
	query := `SELECT ` + estimateColumns + `
		FROM billing_estimates WHERE service_request_id = $1
		ORDER BY revision_number DESC`

	rows, err := r.pool.Query(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list estimates: %w", err)
	}
	defer rows.Close()

	var estimates []Estimate
	for rows.Next() {
		e, err := scanEstimate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan estimate: %w", err)
		}
		estimates = append(estimates, *e)
	}
	return estimates, rows.Err()
}

// ItemsByEstimate returns the cost breakdown lines in display order.
func (r *Repository) ItemsByEstimate(ctx context.Context, estimateID uuid.UUID) ([]Item, error) {
	query := `SELECT id, estimate_id, description, quantity, unit_price_cents, total_cents, sort_order
		FROM billing_estimate_items WHERE estimate_id = $1 ORDER BY sort_order`

	rows, err := r.pool.Query(ctx, query, estimateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list estimate items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.EstimateID, &it.Description, &it.Quantity,
			&it.UnitPriceCents, &it.TotalCents, &it.SortOrder); err != nil {
			return nil, fmt.Errorf("failed to scan estimate item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// reclassifyExpired writes the lazy expiry back so later reads agree.
func (r *Repository) reclassifyExpired(ctx context.Context, e *Estimate) (*Estimate, error) {
	if !e.IsExpired(time.Now()) {
		return e, nil
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE billing_estimates SET status = $2, updated_at = now()
		 WHERE id = $1 AND status = $3`,
		e.ID, string(domain.EstimateExpired), string(domain.EstimatePending))
	if err != nil {
		return nil, fmt.Errorf("failed to expire estimate: %w", err)
	}
	e.Status = string(domain.EstimateExpired)
	return e, nil
}

// ── Transaction-scoped operations ─────────────────────────────────────────────
//
// The lifecycle engine composes these inside the per-request transaction it
// owns; the request row lock serializes every estimate mutation for a request.

// CreateTx inserts a new estimate and its breakdown items.
func (r *Repository) CreateTx(ctx context.Context, tx pgx.Tx, e *Estimate, items []Item) error {
	query := `
		INSERT INTO billing_estimates (
			id, service_request_id, admin_id, status, revision_number, price_cents,
			description, valid_until, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	if _, err := tx.Exec(ctx, query,
		e.ID, e.ServiceRequestID, e.AdminID, e.Status, e.RevisionNumber, e.PriceCents,
		e.Description, e.ValidUntil, e.CreatedAt, e.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert estimate: %w", err)
	}

	itemQuery := `
		INSERT INTO billing_estimate_items (
			id, estimate_id, description, quantity, unit_price_cents, total_cents, sort_order
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	for _, it := range items {
		if _, err := tx.Exec(ctx, itemQuery,
			it.ID, e.ID, it.Description, it.Quantity, it.UnitPriceCents, it.TotalCents, it.SortOrder,
		); err != nil {
			return fmt.Errorf("failed to insert estimate item: %w", err)
		}
	}
	return nil
}

// LatestForRequestTx returns the most recently created estimate for the
// request, the authoritative one for the engine. Lazy expiry applies here too
// so a stale pending estimate can never be accepted.
func (r *Repository) LatestForRequestTx(ctx context.Context, tx pgx.Tx, requestID uuid.UUID) (*Estimate, error) {
	query := `SELECT ` + estimateColumns + `
		FROM billing_estimates WHERE service_request_id = $1
		ORDER BY revision_number DESC LIMIT 1`

	e, err := scanEstimate(tx.QueryRow(ctx, query, requestID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest estimate: %w", err)
	}

	if e.IsExpired(time.Now()) {
		if _, err := tx.Exec(ctx,
			`UPDATE billing_estimates SET status = $2, updated_at = now() WHERE id = $1`,
			e.ID, string(domain.EstimateExpired)); err != nil {
			return nil, fmt.Errorf("failed to expire estimate: %w", err)
		}
		e.Status = string(domain.EstimateExpired)
	}
	return e, nil
}

// HasPendingTx reports whether the request already carries a pending estimate.
// At most one may exist at a time.
func (r *Repository) HasPendingTx(ctx context.Context, tx pgx.Tx, requestID uuid.UUID) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM billing_estimates
			WHERE service_request_id = $1 AND status = $2
			  AND (valid_until IS NULL OR valid_until >= now())
		)`,
		requestID, string(domain.EstimatePending)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check pending estimate: %w", err)
	}
	return exists, nil
}

// NextRevisionTx returns the revision number the next estimate should carry.
func (r *Repository) NextRevisionTx(ctx context.Context, tx pgx.Tx, requestID uuid.UUID) (int, error) {
	var max int
	err := tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(revision_number), 0) FROM billing_estimates WHERE service_request_id = $1`,
		requestID).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("failed to get max revision: %w", err)
	}
	return max + 1, nil
}

// SetClientResponseTx stamps the client decision exactly once.
func (r *Repository) SetClientResponseTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, accepted bool, message *string, at time.Time) error {
	result, err := tx.Exec(ctx,
		`UPDATE billing_estimates
		 SET client_accepted = $2, client_response_date = $3, client_message = $4, updated_at = $3
		 WHERE id = $1 AND client_accepted IS NULL`,
		id, accepted, at, message)
	if err != nil {
		return fmt.Errorf("failed to set client response: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.DuplicateResponse("client already responded to this estimate")
	}
	return nil
}

// SetArtisanResponseTx stamps the artisan decision exactly once. On refusal
// the rejection metadata is recorded too.
func (r *Repository) SetArtisanResponseTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, accepted bool, reason *string, artisanID uuid.UUID, at time.Time) error {
	var result pgconn.CommandTag
	var err error
	if accepted {
		result, err = tx.Exec(ctx,
			`UPDATE billing_estimates
			 SET artisan_accepted = true, artisan_response_date = $2, updated_at = $2
			 WHERE id = $1 AND artisan_accepted IS NULL`,
			id, at)
	} else {
		result, err = tx.Exec(ctx,
			`UPDATE billing_estimates
			 SET artisan_accepted = false, artisan_response_date = $2,
			     artisan_rejection_reason = $3, rejected_by_artisan_id = $4, rejected_at = $2,
			     updated_at = $2
			 WHERE id = $1 AND artisan_accepted IS NULL`,
			id, at, reason, artisanID)
	}
	if err != nil {
		return fmt.Errorf("failed to set artisan response: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.DuplicateResponse("artisan already responded to this estimate")
	}
	return nil
}

// ClearArtisanAcceptanceTx resets the artisan latch after a refusal so the
// request can be re-offered; the rejection metadata stays for the audit trail.
func (r *Repository) ClearArtisanAcceptanceTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	if _, err := tx.Exec(ctx,
		`UPDATE billing_estimates
		 SET artisan_accepted = NULL, artisan_response_date = NULL, updated_at = now()
		 WHERE id = $1`,
		id); err != nil {
		return fmt.Errorf("failed to clear artisan acceptance: %w", err)
	}
	return nil
}

// SetStatusTx moves the estimate to a new lifecycle status.
func (r *Repository) SetStatusTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.EstimateStatus) error {
	if _, err := tx.Exec(ctx,
		`UPDATE billing_estimates SET status = $2, updated_at = now() WHERE id = $1`,
		id, string(status)); err != nil {
		return fmt.Errorf("failed to set estimate status: %w", err)
	}
	return nil
}

// SupersedePendingTx rejects any still-pending estimate for the request,
// making room for the new revision; at most one pending may exist.
func (r *Repository) SupersedePendingTx(ctx context.Context, tx pgx.Tx, requestID uuid.UUID) error {
	if _, err := tx.Exec(ctx,
		`UPDATE billing_estimates SET status = $2, updated_at = now()
		 WHERE service_request_id = $1 AND status = $3`,
		requestID, string(domain.EstimateRejected), string(domain.EstimatePending)); err != nil {
		return fmt.Errorf("failed to supersede pending estimate: %w", err)
	}
	return nil
}
