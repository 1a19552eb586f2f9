package transport

import (
	"time"

	"github.com/thimothe-das/fixeo-sub001/internal/requests/repository"

	"github.com/google/uuid"
)

// CreateServiceRequestRequest is the payload for submitting a new request.
// Either ClientID (registered client) or the guest contact fields are set.
type CreateServiceRequestRequest struct {
	ClientID        *uuid.UUID `json:"clientId,omitempty"`
	Title           string     `json:"title" validate:"required,max=200"`
	Description     string     `json:"description" validate:"required,max=5000"`
	Category        string     `json:"category" validate:"required,max=100"`
	LocationAddress string     `json:"locationAddress" validate:"required,max=500"`
	GuestEmail      *string    `json:"guestEmail,omitempty" validate:"omitempty,email"`
	GuestPhone      *string    `json:"guestPhone,omitempty" validate:"omitempty,max=30"`
}

// RespondToEstimateRequest is a client decision on the pending estimate.
type RespondToEstimateRequest struct {
	Accept  bool    `json:"accept"`
	Message *string `json:"message,omitempty" validate:"omitempty,max=2000"`
}

// ArtisanResponseRequest is the assigned artisan's decision on a revision.
type ArtisanResponseRequest struct {
	ArtisanID uuid.UUID `json:"artisanId" validate:"required"`
	Accept    bool      `json:"accept"`
	Reason    *string   `json:"reason,omitempty" validate:"omitempty,max=2000"`
}

// DisputeRequest is a party contesting work instead of validating it.
type DisputeRequest struct {
	Reason *string `json:"reason,omitempty" validate:"omitempty,max=5000"`
}

// ResolveDisputeRequest is the administrative closure of a dispute.
type ResolveDisputeRequest struct {
	Resolution string `json:"resolution" validate:"required,max=5000"`
	Reopen     bool   `json:"reopen"`
}

// ServiceRequestResponse is the API representation of a service request.
type ServiceRequestResponse struct {
	ID                  uuid.UUID  `json:"id"`
	ClientID            *uuid.UUID `json:"clientId,omitempty"`
	Title               string     `json:"title"`
	Description         string     `json:"description"`
	Category            string     `json:"category"`
	LocationAddress     string     `json:"locationAddress"`
	Status              string     `json:"status"`
	AssignedArtisanID   *uuid.UUID `json:"assignedArtisanId,omitempty"`
	DownPaymentPaid     bool       `json:"downPaymentPaid"`
	EstimatedPriceCents *int64     `json:"estimatedPriceCents,omitempty"`
	GuestToken          *string    `json:"guestToken,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

// HistoryEntryResponse is one recorded transition in the audit trail.
type HistoryEntryResponse struct {
	FromStatus *string    `json:"fromStatus,omitempty"`
	ToStatus   string     `json:"toStatus"`
	Trigger    string     `json:"trigger"`
	ActorRole  string     `json:"actorRole"`
	ActorID    *uuid.UUID `json:"actorId,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// ToResponse maps a database request to the API shape.
func ToResponse(sr *repository.ServiceRequest) ServiceRequestResponse {
	return ServiceRequestResponse{
		ID:                  sr.ID,
		ClientID:            sr.ClientID,
		Title:               sr.Title,
		Description:         sr.Description,
		Category:            sr.Category,
		LocationAddress:     sr.LocationAddress,
		Status:              sr.Status,
		AssignedArtisanID:   sr.AssignedArtisanID,
		DownPaymentPaid:     sr.DownPaymentPaid,
		EstimatedPriceCents: sr.EstimatedPriceCents,
		GuestToken:          sr.GuestToken,
		CreatedAt:           sr.CreatedAt,
		UpdatedAt:           sr.UpdatedAt,
	}
}

// ToHistoryResponse maps history entries to the API shape.
func ToHistoryResponse(entries []repository.HistoryEntry) []HistoryEntryResponse {
	out := make([]HistoryEntryResponse, 0, len(entries))
	for _, h := range entries {
		out = append(out, HistoryEntryResponse{
			FromStatus: h.FromStatus,
			ToStatus:   h.ToStatus,
			Trigger:    h.Trigger,
			ActorRole:  h.ActorRole,
			ActorID:    h.ActorID,
			CreatedAt:  h.CreatedAt,
		})
	}
	return out
}
