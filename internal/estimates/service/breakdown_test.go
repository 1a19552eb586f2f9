package service

import (
	"testing"

	"github.com/thimothe-das/fixeo-sub001/internal/estimates/transport"
	"github.com/thimothe-das/fixeo-sub001/platform/apperr"

	"github.com/google/uuid"
)

func TestBuildItemsComputesLineTotals(t *testing.T) {
	estimateID := uuid.New()
	items, err := BuildItems(estimateID, 17500, []transport.BreakdownLine{
		{Description: "Labor", Quantity: 2, UnitPriceCents: 5000},
		{Description: "Parts", Quantity: 1.5, UnitPriceCents: 5000},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].TotalCents != 10000 {
		t.Errorf("expected first line total 10000, got %d", items[0].TotalCents)
	}
	if items[1].TotalCents != 7500 {
		t.Errorf("expected second line total 7500, got %d", items[1].TotalCents)
	}
	if items[0].SortOrder != 0 || items[1].SortOrder != 1 {
		t.Errorf("expected sort order to follow submission order")
	}
	for _, it := range items {
		if it.EstimateID != estimateID {
			t.Errorf("expected item bound to estimate %s, got %s", estimateID, it.EstimateID)
		}
	}
}

func TestBuildItemsRoundsHalfUp(t *testing.T) {
	// 3 x 3.33 EUR = 9.99; 0.333h x 10 EUR rounds to 3.33
	items, err := BuildItems(uuid.New(), 333, []transport.BreakdownLine{
		{Description: "Fractional labor", Quantity: 0.333, UnitPriceCents: 1000},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if items[0].TotalCents != 333 {
		t.Errorf("expected rounded total 333, got %d", items[0].TotalCents)
	}
}

func TestBuildItemsRejectsMismatchedSum(t *testing.T) {
	_, err := BuildItems(uuid.New(), 20000, []transport.BreakdownLine{
		{Description: "Labor", Quantity: 1, UnitPriceCents: 10000},
	})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}

func TestBuildItemsAllowsEmptyBreakdown(t *testing.T) {
	items, err := BuildItems(uuid.New(), 5000, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no items, got %d", len(items))
	}
}

func TestBuildItemsRejectsBadLines(t *testing.T) {
	cases := []struct {
		name string
		line transport.BreakdownLine
	}{
		{"zero quantity", transport.BreakdownLine{Description: "x", Quantity: 0, UnitPriceCents: 100}},
		{"negative quantity", transport.BreakdownLine{Description: "x", Quantity: -1, UnitPriceCents: 100}},
		{"negative unit price", transport.BreakdownLine{Description: "x", Quantity: 1, UnitPriceCents: -100}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := BuildItems(uuid.New(), 100, []transport.BreakdownLine{tc.line})
			if !apperr.IsKind(err, apperr.KindValidation) {
				t.Fatalf("expected invalid input error, got %v", err)
			}
		})
	}
}

func TestBuildItemsRejectsNonPositivePrice(t *testing.T) {
	if _, err := BuildItems(uuid.New(), 0, nil); !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}
