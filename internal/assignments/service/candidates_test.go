package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

type fakeRefusals struct {
	refused []uuid.UUID
}

func (f *fakeRefusals) RefusedArtisans(ctx context.Context, requestID uuid.UUID) ([]uuid.UUID, error) {
	return f.refused, nil
}

func TestEligibleExcludesRefusers(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	filter := NewCandidateFilter(&fakeRefusals{refused: []uuid.UUID{b}})

	eligible, err := filter.Eligible(context.Background(), uuid.New(), []uuid.UUID{a, b, c})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(eligible) != 2 {
		t.Fatalf("expected 2 eligible candidates, got %d", len(eligible))
	}
	if eligible[0] != a || eligible[1] != c {
		t.Errorf("expected order preserved with refuser removed, got %v", eligible)
	}
}

func TestEligibleNoRefusals(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	filter := NewCandidateFilter(&fakeRefusals{})

	eligible, err := filter.Eligible(context.Background(), uuid.New(), []uuid.UUID{a, b})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(eligible) != 2 {
		t.Fatalf("expected all candidates eligible, got %d", len(eligible))
	}
}

func TestEligibleAllRefused(t *testing.T) {
	a := uuid.New()
	filter := NewCandidateFilter(&fakeRefusals{refused: []uuid.UUID{a}})

	eligible, err := filter.Eligible(context.Background(), uuid.New(), []uuid.UUID{a})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(eligible) != 0 {
		t.Fatalf("expected empty pool, got %v", eligible)
	}
}
