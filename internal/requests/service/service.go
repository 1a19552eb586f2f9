// Package service implements the service request lifecycle engine. Every
// transition runs as a read-modify-write under the request's row lock, so
// concurrent actors (claiming artisans, responding parties, payment webhooks)
// serialize per request.
package service

import (
	"context"
	"time"

	busevents "github.com/thimothe-das/fixeo-sub001/internal/events"
	"github.com/thimothe-das/fixeo-sub001/internal/requests/domain"
	"github.com/thimothe-das/fixeo-sub001/internal/requests/repository"
	"github.com/thimothe-das/fixeo-sub001/internal/requests/transport"
	"github.com/thimothe-das/fixeo-sub001/platform/apperr"
	"github.com/thimothe-das/fixeo-sub001/platform/events"
	"github.com/thimothe-das/fixeo-sub001/platform/logger"
	"github.com/thimothe-das/fixeo-sub001/platform/phone"
	"github.com/thimothe-das/fixeo-sub001/platform/sanitize"
	"github.com/thimothe-das/fixeo-sub001/platform/validator"

	estrepo "github.com/thimothe-das/fixeo-sub001/internal/estimates/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// RequestStore is the persistence surface the engine needs for requests.
type RequestStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*repository.ServiceRequest, error)
	GetByGuestToken(ctx context.Context, token string) (*repository.ServiceRequest, error)
	ListClaimableFor(ctx context.Context, artisanID uuid.UUID, limit int) ([]repository.ServiceRequest, error)
	History(ctx context.Context, requestID uuid.UUID) ([]repository.HistoryEntry, error)
	WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error
	CreateTx(ctx context.Context, tx pgx.Tx, sr *repository.ServiceRequest) error
	LockTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*repository.ServiceRequest, error)
	UpdateStateTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.Status, assignedArtisanID *uuid.UUID, downPaymentPaid bool, estimatedPriceCents *int64, at time.Time) error
	AppendHistoryTx(ctx context.Context, tx pgx.Tx, h repository.HistoryEntry) error
}

// EstimateStore is the persistence surface the engine needs for estimates.
type EstimateStore interface {
	CreateTx(ctx context.Context, tx pgx.Tx, e *estrepo.Estimate, items []estrepo.Item) error
	LatestForRequestTx(ctx context.Context, tx pgx.Tx, requestID uuid.UUID) (*estrepo.Estimate, error)
	HasPendingTx(ctx context.Context, tx pgx.Tx, requestID uuid.UUID) (bool, error)
	NextRevisionTx(ctx context.Context, tx pgx.Tx, requestID uuid.UUID) (int, error)
	SetClientResponseTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, accepted bool, message *string, at time.Time) error
	SetArtisanResponseTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, accepted bool, reason *string, artisanID uuid.UUID, at time.Time) error
	ClearArtisanAcceptanceTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
	SetStatusTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, status domain.EstimateStatus) error
	SupersedePendingTx(ctx context.Context, tx pgx.Tx, requestID uuid.UUID) error
}

// RefusalLedger records artisan refusals and answers exclusion checks.
type RefusalLedger interface {
	RecordRefusalTx(ctx context.Context, tx pgx.Tx, requestID, artisanID uuid.UUID, reason *string, at time.Time) error
	HasRefused(ctx context.Context, requestID, artisanID uuid.UUID) (bool, error)
}

// DisputeLedger records dispute openings and resolutions.
type DisputeLedger interface {
	OpenTx(ctx context.Context, tx pgx.Tx, requestID uuid.UUID, raisedBy domain.Actor, reason *string, at time.Time) (uuid.UUID, error)
	ResolveOpenTx(ctx context.Context, tx pgx.Tx, requestID uuid.UUID, resolution string, at time.Time) error
}

// GuestTokenIssuer mints the correlation token handed to guest submitters.
type GuestTokenIssuer interface {
	Issue(requestID uuid.UUID) (string, error)
}

// Service orchestrates the request lifecycle.
type Service struct {
	requests  RequestStore
	estimates EstimateStore
	refusals  RefusalLedger
	disputes  DisputeLedger
	tokens    GuestTokenIssuer
	bus       events.Bus
	validate  *validator.Validator
	log       *logger.Logger

	defaultPhoneRegion string
}

// New creates the lifecycle engine.
func New(
	requests RequestStore,
	estimates EstimateStore,
	refusals RefusalLedger,
	disputes DisputeLedger,
	tokens GuestTokenIssuer,
	bus events.Bus,
	validate *validator.Validator,
	log *logger.Logger,
	defaultPhoneRegion string,
) *Service {
	return &Service{
		requests:           requests,
		estimates:          estimates,
		refusals:           refusals,
		disputes:           disputes,
		tokens:             tokens,
		bus:                bus,
		validate:           validate,
		log:                log,
		defaultPhoneRegion: defaultPhoneRegion,
	}
}

// ── Creation and reads ────────────────────────────────────────────────────────

// CreateRequest persists a new request in AWAITING_ESTIMATE. Guest submissions
// (no client ID) get a signed correlation token for later payment matching.
func (s *Service) CreateRequest(ctx context.Context, req transport.CreateServiceRequestRequest) (*repository.ServiceRequest, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.Validation(err.Error())
	}
	if req.ClientID == nil && (req.GuestEmail == nil || *req.GuestEmail == "") {
		return nil, apperr.Validation("guest requests need a contact email")
	}

	var guestPhone *string
	if req.GuestPhone != nil && *req.GuestPhone != "" {
		normalized := phone.NormalizeE164(*req.GuestPhone, s.defaultPhoneRegion)
		guestPhone = &normalized
	}

	now := time.Now()
	sr := &repository.ServiceRequest{
		ID:              uuid.New(),
		ClientID:        req.ClientID,
		Title:           sanitize.Text(req.Title),
		Description:     sanitize.Text(req.Description),
		Category:        sanitize.Text(req.Category),
		LocationAddress: sanitize.Text(req.LocationAddress),
		Status:          string(domain.StatusAwaitingEstimate),
		GuestEmail:      req.GuestEmail,
		GuestPhone:      guestPhone,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if req.ClientID == nil {
		token, err := s.tokens.Issue(sr.ID)
		if err != nil {
			return nil, apperr.Internal("failed to issue guest token")
		}
		sr.GuestToken = &token
	}

	err := s.requests.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.requests.CreateTx(ctx, tx, sr); err != nil {
			return err
		}
		return s.requests.AppendHistoryTx(ctx, tx, repository.HistoryEntry{
			ID:               uuid.New(),
			ServiceRequestID: sr.ID,
			ToStatus:         sr.Status,
			Trigger:          "created",
			ActorRole:        string(domain.ActorClient),
			ActorID:          req.ClientID,
			CreatedAt:        now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, busevents.RequestCreated{
		BaseEvent: events.NewBaseEvent(),
		RequestID: sr.ID,
		IsGuest:   req.ClientID == nil,
	})
	return sr, nil
}

// GetRequest returns a request by ID.
func (s *Service) GetRequest(ctx context.Context, id uuid.UUID) (*repository.ServiceRequest, error) {
	return s.requests.GetByID(ctx, id)
}

// GetRequestByGuestToken returns a guest request by its correlation token.
func (s *Service) GetRequestByGuestToken(ctx context.Context, token string) (*repository.ServiceRequest, error) {
	return s.requests.GetByGuestToken(ctx, token)
}

// ListClaimableFor returns open requests the artisan may claim, excluding
// those they previously refused.
func (s *Service) ListClaimableFor(ctx context.Context, artisanID uuid.UUID, limit int) ([]repository.ServiceRequest, error) {
	return s.requests.ListClaimableFor(ctx, artisanID, limit)
}

// History returns the request's transition audit trail, oldest first.
func (s *Service) History(ctx context.Context, requestID uuid.UUID) ([]repository.HistoryEntry, error) {
	return s.requests.History(ctx, requestID)
}

// ── Lifecycle transitions ─────────────────────────────────────────────────────

// responseMeta carries the per-call payload the outcome writers need.
type responseMeta struct {
	clientMessage *string
	artisanReason *string
	artisanID     uuid.UUID
}

// txView is the locked state a transition evaluates against.
type txView struct {
	sr  *repository.ServiceRequest
	est *estrepo.Estimate
}

// execute runs one lifecycle transition: lock the request row, load the
// authoritative estimate, evaluate the pure transition, persist the outcome
// and its history entry, then publish events after the commit.
func (s *Service) execute(
	ctx context.Context,
	requestID uuid.UUID,
	actorRole domain.Actor,
	actorID *uuid.UUID,
	meta responseMeta,
	makeEvent func(tx pgx.Tx, view txView) (domain.Event, error),
	after func(tx pgx.Tx, view txView, out *domain.Outcome) error,
) (*repository.ServiceRequest, error) {
	var (
		sr      *repository.ServiceRequest
		from    string
		outcome domain.Outcome
		trigger string
	)

	err := s.requests.WithTx(ctx, func(tx pgx.Tx) error {
		locked, err := s.requests.LockTx(ctx, tx, requestID)
		if err != nil {
			return err
		}
		est, err := s.estimates.LatestForRequestTx(ctx, tx, requestID)
		if err != nil {
			return err
		}
		view := txView{sr: locked, est: est}

		ev, err := makeEvent(tx, view)
		if err != nil {
			return err
		}

		st := domain.State{
			Status:            domain.Status(locked.Status),
			AssignedArtisanID: locked.AssignedArtisanID,
			DownPaymentPaid:   locked.DownPaymentPaid,
			Estimate:          est.DomainState(),
		}
		out, err := domain.Transition(st, ev)
		if err != nil {
			return err
		}

		now := time.Now()
		if err := s.applyEstimateWrites(ctx, tx, view, out, meta, now); err != nil {
			return err
		}
		if out.RecordRefusal != nil {
			if err := s.refusals.RecordRefusalTx(ctx, tx, requestID, *out.RecordRefusal, meta.artisanReason, now); err != nil {
				return err
			}
		}
		if after != nil {
			if err := after(tx, view, &out); err != nil {
				return err
			}
		}

		assigned := locked.AssignedArtisanID
		if out.Assign != nil {
			assigned = out.Assign
		}
		if out.Unassign {
			assigned = nil
		}
		paid := locked.DownPaymentPaid || out.SetDownPaymentPaid
		price := locked.EstimatedPriceCents
		if out.SetEstimatedPrice != nil {
			price = out.SetEstimatedPrice
		}

		if out.StatusChanged || out.Assign != nil || out.Unassign || out.SetDownPaymentPaid || out.SetEstimatedPrice != nil {
			if err := s.requests.UpdateStateTx(ctx, tx, requestID, out.Status, assigned, paid, price, now); err != nil {
				return err
			}
		}
		if out.StatusChanged {
			fromStatus := locked.Status
			if err := s.requests.AppendHistoryTx(ctx, tx, repository.HistoryEntry{
				ID:               uuid.New(),
				ServiceRequestID: requestID,
				FromStatus:       &fromStatus,
				ToStatus:         string(out.Status),
				Trigger:          ev.Name(),
				ActorRole:        string(actorRole),
				ActorID:          actorID,
				CreatedAt:        now,
			}); err != nil {
				return err
			}
		}

		from = locked.Status
		locked.Status = string(out.Status)
		locked.AssignedArtisanID = assigned
		locked.DownPaymentPaid = paid
		locked.EstimatedPriceCents = price
		locked.UpdatedAt = now
		sr = locked
		outcome = out
		trigger = ev.Name()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishOutcome(ctx, requestID, from, outcome, trigger, actorRole)
	return sr, nil
}

// applyEstimateWrites persists the estimate side of an outcome against the
// authoritative estimate loaded in the same transaction.
func (s *Service) applyEstimateWrites(ctx context.Context, tx pgx.Tx, view txView, out domain.Outcome, meta responseMeta, now time.Time) error {
	if out.SupersedePending {
		if err := s.estimates.SupersedePendingTx(ctx, tx, view.sr.ID); err != nil {
			return err
		}
	}
	if view.est == nil {
		return nil
	}
	if out.SetClientAccepted != nil {
		if err := s.estimates.SetClientResponseTx(ctx, tx, view.est.ID, *out.SetClientAccepted, meta.clientMessage, now); err != nil {
			return err
		}
	}
	if out.RecordArtisanRejection != nil {
		if err := s.estimates.SetArtisanResponseTx(ctx, tx, view.est.ID, false, meta.artisanReason, *out.RecordArtisanRejection, now); err != nil {
			return err
		}
	} else if out.SetArtisanAccepted != nil {
		if err := s.estimates.SetArtisanResponseTx(ctx, tx, view.est.ID, *out.SetArtisanAccepted, nil, meta.artisanID, now); err != nil {
			return err
		}
	}
	if out.ClearArtisanAcceptance {
		if err := s.estimates.ClearArtisanAcceptanceTx(ctx, tx, view.est.ID); err != nil {
			return err
		}
	}
	if out.EstimateStatus != "" {
		if err := s.estimates.SetStatusTx(ctx, tx, view.est.ID, out.EstimateStatus); err != nil {
			return err
		}
	}
	return nil
}

// publishOutcome emits the post-commit events: the status change itself plus
// one notification intent per recipient the transition named.
func (s *Service) publishOutcome(ctx context.Context, requestID uuid.UUID, from string, out domain.Outcome, trigger string, actorRole domain.Actor) {
	if out.StatusChanged {
		s.log.StatusChanged(requestID.String(), from, string(out.Status), trigger)
		s.bus.Publish(ctx, busevents.StatusChanged{
			BaseEvent:  events.NewBaseEvent(),
			RequestID:  requestID,
			FromStatus: from,
			ToStatus:   string(out.Status),
			Trigger:    trigger,
			ActorRole:  string(actorRole),
		})
	}
	for _, n := range out.Notifications {
		s.bus.Publish(ctx, busevents.NotificationRequested{
			BaseEvent: events.NewBaseEvent(),
			RequestID: requestID,
			Event:     n.Event,
			Recipient: string(n.Recipient),
		})
	}
}

// RespondAsClient records the client's decision on the pending estimate.
func (s *Service) RespondAsClient(ctx context.Context, requestID uuid.UUID, req transport.RespondToEstimateRequest) (*repository.ServiceRequest, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.Validation(err.Error())
	}
	return s.execute(ctx, requestID, domain.ActorClient, nil,
		responseMeta{clientMessage: sanitize.TextPtr(req.Message)},
		func(tx pgx.Tx, view txView) (domain.Event, error) {
			return domain.ClientResponded{Accept: req.Accept}, nil
		}, nil)
}

// RespondAsArtisan records the assigned artisan's decision on a revision.
func (s *Service) RespondAsArtisan(ctx context.Context, requestID uuid.UUID, req transport.ArtisanResponseRequest) (*repository.ServiceRequest, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.Validation(err.Error())
	}
	artisanID := req.ArtisanID
	return s.execute(ctx, requestID, domain.ActorArtisan, &artisanID,
		responseMeta{artisanReason: sanitize.TextPtr(req.Reason), artisanID: artisanID},
		func(tx pgx.Tx, view txView) (domain.Event, error) {
			return domain.ArtisanResponded{ArtisanID: artisanID, Accept: req.Accept}, nil
		}, nil)
}

// Claim assigns an available request to the calling artisan. An artisan that
// previously refused the request is excluded for good.
func (s *Service) Claim(ctx context.Context, requestID, artisanID uuid.UUID) (*repository.ServiceRequest, error) {
	refused, err := s.refusals.HasRefused(ctx, requestID, artisanID)
	if err != nil {
		return nil, err
	}
	if refused {
		return nil, apperr.Forbidden("artisan previously refused this request")
	}
	return s.execute(ctx, requestID, domain.ActorArtisan, &artisanID,
		responseMeta{artisanID: artisanID},
		func(tx pgx.Tx, view txView) (domain.Event, error) {
			return domain.Claimed{ArtisanID: artisanID}, nil
		}, nil)
}

// ConfirmPayment applies a settled payment: the down payment in the estimate
// phase (doubling as client acceptance when none was recorded), or the final
// payment that completes an AWAITING_PAYMENT request.
func (s *Service) ConfirmPayment(ctx context.Context, requestID uuid.UUID) (*repository.ServiceRequest, error) {
	return s.execute(ctx, requestID, domain.ActorPayment, nil, responseMeta{},
		func(tx pgx.Tx, view txView) (domain.Event, error) {
			return domain.PaymentConfirmed{}, nil
		}, nil)
}

// Validate records one side's confirmation that the work is done.
func (s *Service) Validate(ctx context.Context, requestID uuid.UUID, actor domain.Actor, actorID *uuid.UUID) (*repository.ServiceRequest, error) {
	return s.execute(ctx, requestID, actor, actorID, responseMeta{},
		func(tx pgx.Tx, view txView) (domain.Event, error) {
			return domain.WorkValidated{Actor: actor}, nil
		}, nil)
}

// Dispute records one side contesting the work and opens a dispute record.
func (s *Service) Dispute(ctx context.Context, requestID uuid.UUID, actor domain.Actor, actorID *uuid.UUID, req transport.DisputeRequest) (*repository.ServiceRequest, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.Validation(err.Error())
	}
	var disputeID uuid.UUID
	sr, err := s.execute(ctx, requestID, actor, actorID, responseMeta{},
		func(tx pgx.Tx, view txView) (domain.Event, error) {
			return domain.WorkDisputed{Actor: actor}, nil
		},
		func(tx pgx.Tx, view txView, out *domain.Outcome) error {
			id, err := s.disputes.OpenTx(ctx, tx, requestID, actor, sanitize.TextPtr(req.Reason), time.Now())
			if err != nil {
				return err
			}
			disputeID = id
			return nil
		})
	if err != nil {
		return nil, err
	}
	s.bus.Publish(ctx, busevents.DisputeOpened{
		BaseEvent: events.NewBaseEvent(),
		RequestID: requestID,
		DisputeID: disputeID,
		RaisedBy:  string(actor),
	})
	return sr, nil
}

// Cancel withdraws a not-yet-assigned request.
func (s *Service) Cancel(ctx context.Context, requestID uuid.UUID, actorID *uuid.UUID) (*repository.ServiceRequest, error) {
	return s.execute(ctx, requestID, domain.ActorClient, actorID, responseMeta{},
		func(tx pgx.Tx, view txView) (domain.Event, error) {
			return domain.Cancelled{}, nil
		}, nil)
}

// ResolveDispute closes all open disputes on the request with the admin's
// decision, moving the request to RESOLVED or back to IN_PROGRESS.
func (s *Service) ResolveDispute(ctx context.Context, requestID, adminID uuid.UUID, req transport.ResolveDisputeRequest) (*repository.ServiceRequest, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperr.Validation(err.Error())
	}
	return s.execute(ctx, requestID, domain.ActorAdmin, &adminID, responseMeta{},
		func(tx pgx.Tx, view txView) (domain.Event, error) {
			return domain.DisputeResolved{Reopen: req.Reopen}, nil
		},
		func(tx pgx.Tx, view txView, out *domain.Outcome) error {
			return s.disputes.ResolveOpenTx(ctx, tx, requestID, sanitize.Text(req.Resolution), time.Now())
		})
}
