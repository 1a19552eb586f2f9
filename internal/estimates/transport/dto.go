package transport

import (
	"time"

	"github.com/thimothe-das/fixeo-sub001/internal/estimates/repository"

	"github.com/google/uuid"
)

// BreakdownLine is one submitted line of an estimate's cost breakdown.
type BreakdownLine struct {
	Description    string  `json:"description" validate:"required,max=500"`
	Quantity       float64 `json:"quantity" validate:"required,gt=0"`
	UnitPriceCents int64   `json:"unitPriceCents" validate:"gte=0"`
}

// CreateEstimateRequest is the payload for issuing a new estimate.
type CreateEstimateRequest struct {
	ServiceRequestID uuid.UUID       `json:"serviceRequestId" validate:"required"`
	PriceCents       int64           `json:"priceCents" validate:"required,gt=0"`
	Description      string          `json:"description" validate:"required,max=2000"`
	ValidUntil       *time.Time      `json:"validUntil,omitempty"`
	Breakdown        []BreakdownLine `json:"breakdown,omitempty" validate:"dive"`
}

// RespondRequest is the payload for a party's decision on an estimate.
type RespondRequest struct {
	Accept  bool    `json:"accept"`
	Message *string `json:"message,omitempty" validate:"omitempty,max=2000"`
}

// ItemResponse is one breakdown line as returned to callers.
type ItemResponse struct {
	Description    string  `json:"description"`
	Quantity       float64 `json:"quantity"`
	UnitPriceCents int64   `json:"unitPriceCents"`
	TotalCents     int64   `json:"totalCents"`
}

// EstimateResponse is the API representation of an estimate.
type EstimateResponse struct {
	ID                  uuid.UUID      `json:"id"`
	ServiceRequestID    uuid.UUID      `json:"serviceRequestId"`
	Status              string         `json:"status"`
	RevisionNumber      int            `json:"revisionNumber"`
	PriceCents          int64          `json:"priceCents"`
	Description         string         `json:"description"`
	ValidUntil          *time.Time     `json:"validUntil,omitempty"`
	ClientAccepted      *bool          `json:"clientAccepted,omitempty"`
	ClientResponseDate  *time.Time     `json:"clientResponseDate,omitempty"`
	ArtisanAccepted     *bool          `json:"artisanAccepted,omitempty"`
	ArtisanResponseDate *time.Time     `json:"artisanResponseDate,omitempty"`
	Items               []ItemResponse `json:"items,omitempty"`
	CreatedAt           time.Time      `json:"createdAt"`
}

// ToResponse maps a database estimate and its items to the API shape.
func ToResponse(e *repository.Estimate, items []repository.Item) EstimateResponse {
	resp := EstimateResponse{
		ID:                  e.ID,
		ServiceRequestID:    e.ServiceRequestID,
		Status:              e.Status,
		RevisionNumber:      e.RevisionNumber,
		PriceCents:          e.PriceCents,
		Description:         e.Description,
		ValidUntil:          e.ValidUntil,
		ClientAccepted:      e.ClientAccepted,
		ClientResponseDate:  e.ClientResponseDate,
		ArtisanAccepted:     e.ArtisanAccepted,
		ArtisanResponseDate: e.ArtisanResponseDate,
		CreatedAt:           e.CreatedAt,
	}
	for _, it := range items {
		resp.Items = append(resp.Items, ItemResponse{
			Description:    it.Description,
			Quantity:       it.Quantity,
			UnitPriceCents: it.UnitPriceCents,
			TotalCents:     it.TotalCents,
		})
	}
	return resp
}
