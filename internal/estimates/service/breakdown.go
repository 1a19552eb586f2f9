package service

import (
	"math"

	"github.com/thimothe-das/fixeo-sub001/internal/estimates/repository"
	"github.com/thimothe-das/fixeo-sub001/internal/estimates/transport"
	"github.com/thimothe-das/fixeo-sub001/platform/apperr"
	"github.com/thimothe-das/fixeo-sub001/platform/sanitize"

	"github.com/google/uuid"
)

// lineTotalCents computes quantity x unit price, rounding half up to the cent.
func lineTotalCents(quantity float64, unitPriceCents int64) int64 {
	return int64(math.Round(quantity * float64(unitPriceCents)))
}

// BuildItems turns the submitted breakdown lines into persistable items and
// returns the grand total. Line totals are recomputed server-side; a breakdown
// whose lines do not sum to the declared price is rejected.
func BuildItems(estimateID uuid.UUID, priceCents int64, lines []transport.BreakdownLine) ([]repository.Item, error) {
	if priceCents <= 0 {
		return nil, apperr.Validation("estimate price must be positive")
	}

	items := make([]repository.Item, 0, len(lines))
	var sum int64
	for i, line := range lines {
		if line.Quantity <= 0 {
			return nil, apperr.Validation("breakdown quantity must be positive")
		}
		if line.UnitPriceCents < 0 {
			return nil, apperr.Validation("breakdown unit price cannot be negative")
		}
		total := lineTotalCents(line.Quantity, line.UnitPriceCents)
		sum += total
		items = append(items, repository.Item{
			ID:             uuid.New(),
			EstimateID:     estimateID,
			Description:    sanitize.Text(line.Description),
			Quantity:       line.Quantity,
			UnitPriceCents: line.UnitPriceCents,
			TotalCents:     total,
			SortOrder:      i,
		})
	}

	if len(items) > 0 && sum != priceCents {
		return nil, apperr.Validation("breakdown lines do not sum to the estimate price")
	}
	return items, nil
}
