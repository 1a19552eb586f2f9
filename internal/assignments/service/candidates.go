package service

import (
	"context"

	"github.com/google/uuid"
)

// RefusalReader is the slice of the refusal ledger the candidate filter needs.
type RefusalReader interface {
	RefusedArtisans(ctx context.Context, requestID uuid.UUID) ([]uuid.UUID, error)
}

// CandidateFilter removes artisans that already refused a request from
// candidate pools offered to dispatch.
type CandidateFilter struct {
	refusals RefusalReader
}

// NewCandidateFilter creates a new candidate filter.
func NewCandidateFilter(refusals RefusalReader) *CandidateFilter {
	return &CandidateFilter{refusals: refusals}
}

// Eligible returns the candidates that have not refused the request,
// preserving the input order.
func (f *CandidateFilter) Eligible(ctx context.Context, requestID uuid.UUID, candidates []uuid.UUID) ([]uuid.UUID, error) {
	refused, err := f.refusals.RefusedArtisans(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if len(refused) == 0 {
		return candidates, nil
	}

	excluded := make(map[uuid.UUID]struct{}, len(refused))
	for _, id := range refused {
		excluded[id] = struct{}{}
	}

	eligible := make([]uuid.UUID, 0, len(candidates))
	for _, id := range candidates {
		if _, ok := excluded[id]; !ok {
			eligible = append(eligible, id)
		}
	}
	return eligible, nil
}
