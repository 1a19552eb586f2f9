package service

import (
	"context"
	"time"

	estrepo "github.com/thimothe-das/fixeo-sub001/internal/estimates/repository"
	estservice "github.com/thimothe-das/fixeo-sub001/internal/estimates/service"
	esttransport "github.com/thimothe-das/fixeo-sub001/internal/estimates/transport"
	"github.com/thimothe-das/fixeo-sub001/internal/requests/domain"
	"github.com/thimothe-das/fixeo-sub001/platform/apperr"
	"github.com/thimothe-das/fixeo-sub001/platform/sanitize"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// IssueEstimate prices the request: the first estimate, a mid-work revision
// for extra discovered work, or a re-quote after an artisan refusal. The new
// estimate supersedes any still-pending one.
func (s *Service) IssueEstimate(ctx context.Context, adminID uuid.UUID, req esttransport.CreateEstimateRequest) (*estrepo.Estimate, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.Validation(err.Error())
	}
	if req.ValidUntil != nil && req.ValidUntil.Before(time.Now()) {
		return nil, apperr.Validation("estimate validity deadline is already past")
	}

	var created *estrepo.Estimate
	_, err := s.execute(ctx, req.ServiceRequestID, domain.ActorAdmin, &adminID, responseMeta{},
		func(tx pgx.Tx, view txView) (domain.Event, error) {
			revision, err := s.estimates.NextRevisionTx(ctx, tx, req.ServiceRequestID)
			if err != nil {
				return nil, err
			}
			return domain.EstimateIssued{Revision: revision, PriceCents: req.PriceCents}, nil
		},
		func(tx pgx.Tx, view txView, out *domain.Outcome) error {
			revision := 1
			if view.est != nil {
				revision = view.est.RevisionNumber + 1
			}
			now := time.Now()
			created = &estrepo.Estimate{
				ID:               uuid.New(),
				ServiceRequestID: req.ServiceRequestID,
				AdminID:          adminID,
				Status:           string(domain.EstimatePending),
				RevisionNumber:   revision,
				PriceCents:       req.PriceCents,
				Description:      sanitize.Text(req.Description),
				ValidUntil:       req.ValidUntil,
				CreatedAt:        now,
				UpdatedAt:        now,
			}
			items, err := estservice.BuildItems(created.ID, req.PriceCents, req.Breakdown)
			if err != nil {
				return err
			}
			return s.estimates.CreateTx(ctx, tx, created, items)
		})
	if err != nil {
		return nil, err
	}
	return created, nil
}
