package domain

import (
	"fmt"

	"github.com/thimothe-das/fixeo-sub001/platform/apperr"

	"github.com/google/uuid"
)

// Actor identifies which party is driving a transition.
type Actor string

const (
	ActorClient  Actor = "client"
	ActorArtisan Actor = "artisan"
	ActorAdmin   Actor = "admin"
	ActorPayment Actor = "payment"
)

// Latch names for the dual-acceptance and completion barriers.
const (
	LatchClient  = "client"
	LatchArtisan = "artisan"
)

// EstimateStatus is the lifecycle state of a billing estimate.
type EstimateStatus string

const (
	EstimatePending  EstimateStatus = "pending"
	EstimateAccepted EstimateStatus = "accepted"
	EstimateRejected EstimateStatus = "rejected"
	EstimateExpired  EstimateStatus = "expired"
)

// EstimateState is the engine's view of the authoritative (latest) estimate.
type EstimateState struct {
	ID                  uuid.UUID
	Revision            int
	Status              EstimateStatus
	ClientAccepted      *bool
	ArtisanAccepted     *bool
	RejectedByArtisanID *uuid.UUID
	PriceCents          int64
}

// IsRevision reports whether the estimate supersedes an earlier one.
func (e EstimateState) IsRevision() bool {
	return e.Revision > 1
}

// AcceptanceBarrier builds the dual-acceptance barrier from the estimate's
// response flags. Only meaningful for revision estimates.
func (e EstimateState) AcceptanceBarrier() Barrier {
	b := NewBarrier(LatchClient, LatchArtisan)
	if e.ClientAccepted != nil && *e.ClientAccepted {
		b = b.WithSet(LatchClient)
	}
	if e.ArtisanAccepted != nil && *e.ArtisanAccepted {
		b = b.WithSet(LatchArtisan)
	}
	return b
}

// State is the snapshot the transition function evaluates. It must be read
// under the same transaction that persists the outcome.
type State struct {
	Status            Status
	AssignedArtisanID *uuid.UUID
	DownPaymentPaid   bool
	Estimate          *EstimateState // latest estimate, nil before the first
}

// Event is a lifecycle trigger submitted by one of the actors.
type Event interface {
	Name() string
}

// EstimateIssued is an admin pricing the request (first estimate or revision).
type EstimateIssued struct {
	Revision   int
	PriceCents int64
}

func (EstimateIssued) Name() string { return "estimate_issued" }

// ClientResponded is the client accepting or rejecting the pending estimate.
type ClientResponded struct {
	Accept bool
}

func (ClientResponded) Name() string { return "client_responded" }

// ArtisanResponded is the assigned artisan accepting or refusing a revision.
type ArtisanResponded struct {
	ArtisanID uuid.UUID
	Accept    bool
}

func (ArtisanResponded) Name() string { return "artisan_responded" }

// Claimed is an artisan taking an available request.
type Claimed struct {
	ArtisanID uuid.UUID
}

func (Claimed) Name() string { return "claimed" }

// PaymentConfirmed is the payment gateway reporting a settled payment.
type PaymentConfirmed struct{}

func (PaymentConfirmed) Name() string { return "payment_confirmed" }

// WorkValidated is one side confirming the work is done.
type WorkValidated struct {
	Actor Actor
}

func (WorkValidated) Name() string { return "work_validated" }

// WorkDisputed is one side contesting the work instead of validating it.
type WorkDisputed struct {
	Actor Actor
}

func (WorkDisputed) Name() string { return "work_disputed" }

// Cancelled is the client withdrawing a not-yet-assigned request.
type Cancelled struct{}

func (Cancelled) Name() string { return "cancelled" }

// DisputeResolved is the out-of-band administrative resolution decision.
type DisputeResolved struct {
	Reopen bool
}

func (DisputeResolved) Name() string { return "dispute_resolved" }

// Notify is an abstract side-effect intent: deliver event news to a role.
// Delivery mechanics live outside the engine.
type Notify struct {
	Event     string
	Recipient Actor
}

// Outcome is what a successful transition asks the caller to persist, all
// within the transaction that evaluated the guard.
type Outcome struct {
	Status        Status // resulting status; equals the input when unchanged
	StatusChanged bool   // exactly one StatusHistoryEntry when true

	Assign   *uuid.UUID // set assignedArtisanId
	Unassign bool       // clear assignedArtisanId

	SetDownPaymentPaid bool
	SetEstimatedPrice  *int64 // refresh the request's denormalized price copy

	// Estimate writes.
	SetClientAccepted      *bool
	SetArtisanAccepted     *bool
	ClearArtisanAcceptance bool           // reset flag after refusal so the next offer can set it
	RecordArtisanRejection *uuid.UUID     // stamp rejection metadata with this artisan
	EstimateStatus         EstimateStatus // "" = leave unchanged
	SupersedePending       bool           // mark the artisan-refused pending estimate rejected before issuing anew

	RecordRefusal *uuid.UUID // artisan to append to the assignment ledger

	Notifications []Notify
}

func unchanged(st State) Outcome {
	return Outcome{Status: st.Status}
}

func moveTo(st State, to Status) Outcome {
	return Outcome{Status: to, StatusChanged: to != st.Status}
}

// Transition validates ev against st and returns what to persist. It is a
// pure function: callers re-read st and apply the outcome inside one
// transaction so concurrent actors serialize on the request row.
func Transition(st State, ev Event) (Outcome, error) {
	if st.Status.IsTerminal() {
		// Webhook redelivery after completion must stay a no-op.
		if _, ok := ev.(PaymentConfirmed); ok && st.Status == StatusCompleted {
			return unchanged(st), nil
		}
		return Outcome{}, apperr.InvalidTransition(
			fmt.Sprintf("request is %s, no further transitions", st.Status))
	}

	switch e := ev.(type) {
	case EstimateIssued:
		return applyEstimateIssued(st, e)
	case ClientResponded:
		return applyClientResponse(st, e)
	case ArtisanResponded:
		return applyArtisanResponse(st, e)
	case Claimed:
		return applyClaim(st, e)
	case PaymentConfirmed:
		return applyPaymentConfirmed(st)
	case WorkValidated:
		return applyValidation(st, e)
	case WorkDisputed:
		return applyDispute(st, e)
	case Cancelled:
		return applyCancel(st)
	case DisputeResolved:
		return applyResolution(st, e)
	default:
		return Outcome{}, apperr.Internal(fmt.Sprintf("unknown lifecycle event %T", ev))
	}
}

func applyEstimateIssued(st State, e EstimateIssued) (Outcome, error) {
	switch {
	case st.Status == StatusAwaitingEstimate:
		// First estimate.
	case st.Status == StatusInProgress && st.AssignedArtisanID != nil:
		// Mid-work revision: extra work discovered after assignment.
	case st.Status == StatusAwaitingAssignation && st.Estimate != nil &&
		st.Estimate.Status == EstimatePending && st.Estimate.RejectedByArtisanID != nil:
		// Re-quote after an artisan refused the previous revision.
	case st.Status == StatusAwaitingEstimateAcceptation && st.Estimate != nil &&
		st.Estimate.Status == EstimateExpired:
		// Replacement for an estimate that expired before anyone responded;
		// without this the request would have no way forward.
	default:
		return Outcome{}, apperr.InvalidTransition(
			fmt.Sprintf("cannot issue an estimate while request is %s", st.Status))
	}

	out := moveTo(st, StatusAwaitingEstimateAcceptation)
	out.SupersedePending = st.Estimate != nil && st.Estimate.Status == EstimatePending
	price := e.PriceCents
	out.SetEstimatedPrice = &price
	out.Notifications = append(out.Notifications, Notify{Event: estimateNotifyEvent(e.Revision), Recipient: ActorClient})
	if st.AssignedArtisanID != nil {
		out.Notifications = append(out.Notifications, Notify{Event: estimateNotifyEvent(e.Revision), Recipient: ActorArtisan})
	}
	return out, nil
}

func estimateNotifyEvent(revision int) string {
	if revision > 1 {
		return "estimate_revised"
	}
	return "estimate_created"
}

func applyClientResponse(st State, e ClientResponded) (Outcome, error) {
	if err := respondableEstimate(st); err != nil {
		return Outcome{}, err
	}
	if st.Estimate.ClientAccepted != nil {
		return Outcome{}, apperr.DuplicateResponse("client already responded to this estimate")
	}

	accepted := e.Accept
	if !accepted {
		// Rejection is terminal for the whole request, first estimate or
		// revision alike: revisions are never re-quoted to the client.
		out := moveTo(st, StatusCancelled)
		out.SetClientAccepted = &accepted
		out.EstimateStatus = EstimateRejected
		out.Notifications = append(out.Notifications, Notify{Event: "request_cancelled", Recipient: ActorAdmin})
		if st.AssignedArtisanID != nil {
			// CANCELLED is terminal; no artisan may stay attached to it.
			out.Unassign = true
			out.Notifications = append(out.Notifications, Notify{Event: "request_cancelled", Recipient: ActorArtisan})
		}
		return out, nil
	}

	if !st.Estimate.IsRevision() {
		// First estimate: only the client ever saw it, so a single acceptance
		// opens the request for assignment.
		out := moveTo(st, StatusAwaitingAssignation)
		out.SetClientAccepted = &accepted
		out.EstimateStatus = EstimateAccepted
		out.Notifications = append(out.Notifications, Notify{Event: "estimate_accepted", Recipient: ActorAdmin})
		return out, nil
	}

	// Revision: dual acceptance. The client's flag is one latch; the request
	// advances only when this write completes the barrier.
	_, completed := st.Estimate.AcceptanceBarrier().Set(LatchClient)
	out := unchanged(st)
	if completed {
		out = moveTo(st, StatusInProgress)
		out.EstimateStatus = EstimateAccepted
		out.Notifications = append(out.Notifications, Notify{Event: "work_resumed", Recipient: ActorArtisan})
	}
	out.SetClientAccepted = &accepted
	return out, nil
}

func applyArtisanResponse(st State, e ArtisanResponded) (Outcome, error) {
	if err := respondableEstimate(st); err != nil {
		return Outcome{}, err
	}
	if !st.Estimate.IsRevision() {
		return Outcome{}, apperr.InvalidTransition("artisans respond to revision estimates only")
	}
	if st.AssignedArtisanID == nil || *st.AssignedArtisanID != e.ArtisanID {
		return Outcome{}, apperr.Forbidden("estimate is not assigned to this artisan")
	}
	if st.Estimate.ArtisanAccepted != nil {
		return Outcome{}, apperr.DuplicateResponse("artisan already responded to this estimate")
	}

	if !e.Accept {
		// The refusing artisan walks away: ledger them, free the request, and
		// clear the flag so the next offered artisan can set it.
		out := moveTo(st, StatusAwaitingAssignation)
		out.Unassign = true
		out.RecordRefusal = &e.ArtisanID
		out.RecordArtisanRejection = &e.ArtisanID
		out.ClearArtisanAcceptance = true
		out.Notifications = append(out.Notifications, Notify{Event: "estimate_refused", Recipient: ActorAdmin})
		out.Notifications = append(out.Notifications, Notify{Event: "estimate_refused", Recipient: ActorClient})
		return out, nil
	}

	accepted := true
	_, completed := st.Estimate.AcceptanceBarrier().Set(LatchArtisan)
	out := unchanged(st)
	if completed {
		out = moveTo(st, StatusInProgress)
		out.EstimateStatus = EstimateAccepted
		out.Notifications = append(out.Notifications, Notify{Event: "work_resumed", Recipient: ActorClient})
	}
	out.SetArtisanAccepted = &accepted
	return out, nil
}

func applyClaim(st State, e Claimed) (Outcome, error) {
	// Assignment is checked before the status: a race loser re-reads the row
	// after the winner committed and must see AlreadyAssigned, not a generic
	// status complaint.
	if st.AssignedArtisanID != nil {
		return Outcome{}, apperr.AlreadyAssigned("request already claimed by another artisan")
	}
	if st.Status != StatusAwaitingAssignation {
		return Outcome{}, apperr.InvalidTransition(
			fmt.Sprintf("request is %s, not open for assignment", st.Status))
	}
	if st.Estimate == nil {
		return Outcome{}, apperr.InvalidTransition("request has no estimate to claim against")
	}

	artisanID := e.ArtisanID
	out := moveTo(st, StatusInProgress)
	out.Assign = &artisanID
	out.Notifications = append(out.Notifications, Notify{Event: "request_claimed", Recipient: ActorClient})

	if st.Estimate.IsRevision() && st.Estimate.Status == EstimatePending {
		// Claiming a re-offered revision is accepting the price the client
		// already agreed to; that write is the artisan latch of the barrier.
		accepted := true
		out.SetArtisanAccepted = &accepted
		if _, completed := st.Estimate.AcceptanceBarrier().Set(LatchArtisan); completed {
			out.EstimateStatus = EstimateAccepted
		} else {
			// Client response still outstanding: hold the request until the
			// client's latch completes the barrier.
			out = moveTo(st, StatusAwaitingEstimateAcceptation)
			out.Assign = &artisanID
			out.SetArtisanAccepted = &accepted
			out.Notifications = []Notify{{Event: "request_claimed", Recipient: ActorClient}}
		}
	}
	return out, nil
}

func applyPaymentConfirmed(st State) (Outcome, error) {
	if st.Status == StatusAwaitingPayment {
		// Final payment after both sides validated the work.
		out := moveTo(st, StatusCompleted)
		out.Notifications = append(out.Notifications,
			Notify{Event: "request_completed", Recipient: ActorClient},
			Notify{Event: "request_completed", Recipient: ActorArtisan},
		)
		return out, nil
	}

	if st.DownPaymentPaid {
		// Webhook redelivery: the first confirmation already applied.
		return unchanged(st), nil
	}

	out := unchanged(st)
	out.SetDownPaymentPaid = true

	// The down payment doubles as the client's acceptance of the latest
	// estimate when no explicit response was recorded (guest checkout).
	if st.Estimate != nil && st.Estimate.Status == EstimatePending && st.Estimate.ClientAccepted == nil &&
		st.Status == StatusAwaitingEstimateAcceptation {
		accepted, err := applyClientResponse(st, ClientResponded{Accept: true})
		if err != nil {
			return Outcome{}, err
		}
		accepted.SetDownPaymentPaid = true
		return accepted, nil
	}

	return out, nil
}

func applyValidation(st State, e WorkValidated) (Outcome, error) {
	if e.Actor != ActorClient && e.Actor != ActorArtisan {
		return Outcome{}, apperr.Forbidden("only the client or the artisan can validate")
	}
	if !st.Status.IsValidatable() {
		return Outcome{}, apperr.InvalidTransition(
			fmt.Sprintf("request is %s, not awaiting validation", st.Status))
	}

	b := validationBarrier(st.Status)
	if b.IsSet(string(e.Actor)) {
		return Outcome{}, apperr.DuplicateResponse(
			fmt.Sprintf("%s already validated this request", e.Actor))
	}

	_, completed := b.Set(string(e.Actor))
	if completed {
		out := moveTo(st, StatusAwaitingPayment)
		out.Notifications = append(out.Notifications,
			Notify{Event: "work_validated", Recipient: ActorAdmin},
			Notify{Event: "payment_due", Recipient: ActorClient},
		)
		return out, nil
	}

	first := StatusClientValidated
	other := ActorArtisan
	if e.Actor == ActorArtisan {
		first = StatusArtisanValidated
		other = ActorClient
	}
	out := moveTo(st, first)
	out.Notifications = append(out.Notifications, Notify{Event: "work_validated", Recipient: other})
	return out, nil
}

// validationBarrier reconstructs the completion barrier from the status: the
// one-sided validated states carry the already-set latch.
func validationBarrier(s Status) Barrier {
	b := NewBarrier(string(ActorClient), string(ActorArtisan))
	switch s {
	case StatusClientValidated:
		b = b.WithSet(string(ActorClient))
	case StatusArtisanValidated:
		b = b.WithSet(string(ActorArtisan))
	}
	return b
}

func applyDispute(st State, e WorkDisputed) (Outcome, error) {
	if e.Actor != ActorClient && e.Actor != ActorArtisan {
		return Outcome{}, apperr.Forbidden("only the client or the artisan can dispute")
	}

	var to Status
	switch st.Status {
	case StatusInProgress:
		to = disputedBy(e.Actor)
	case StatusClientValidated:
		if e.Actor == ActorClient {
			return Outcome{}, apperr.InvalidTransition("client cannot dispute after validating")
		}
		to = StatusDisputedByArtisan
	case StatusArtisanValidated:
		if e.Actor == ActorArtisan {
			return Outcome{}, apperr.InvalidTransition("artisan cannot dispute after validating")
		}
		to = StatusDisputedByClient
	case StatusDisputedByClient:
		if e.Actor == ActorClient {
			return Outcome{}, apperr.DuplicateResponse("client already disputed this request")
		}
		to = StatusDisputedByBoth
	case StatusDisputedByArtisan:
		if e.Actor == ActorArtisan {
			return Outcome{}, apperr.DuplicateResponse("artisan already disputed this request")
		}
		to = StatusDisputedByBoth
	case StatusDisputedByBoth:
		return Outcome{}, apperr.DuplicateResponse("both parties already disputed this request")
	default:
		return Outcome{}, apperr.InvalidTransition(
			fmt.Sprintf("request is %s, not disputable", st.Status))
	}

	out := moveTo(st, to)
	out.Notifications = append(out.Notifications, Notify{Event: "dispute_opened", Recipient: ActorAdmin})
	return out, nil
}

func disputedBy(actor Actor) Status {
	if actor == ActorArtisan {
		return StatusDisputedByArtisan
	}
	return StatusDisputedByClient
}

func applyCancel(st State) (Outcome, error) {
	if !st.Status.IsPreAssignment() || st.AssignedArtisanID != nil {
		return Outcome{}, apperr.InvalidTransition(
			fmt.Sprintf("request is %s, past the point of cancellation", st.Status))
	}
	out := moveTo(st, StatusCancelled)
	if st.Estimate != nil && st.Estimate.Status == EstimatePending {
		out.EstimateStatus = EstimateRejected
	}
	out.Notifications = append(out.Notifications, Notify{Event: "request_cancelled", Recipient: ActorAdmin})
	return out, nil
}

func applyResolution(st State, e DisputeResolved) (Outcome, error) {
	if !st.Status.IsDisputed() {
		return Outcome{}, apperr.InvalidTransition(
			fmt.Sprintf("request is %s, there is no dispute to resolve", st.Status))
	}
	to := StatusResolved
	if e.Reopen {
		to = StatusInProgress
	}
	out := moveTo(st, to)
	out.Notifications = append(out.Notifications,
		Notify{Event: "dispute_resolved", Recipient: ActorClient},
		Notify{Event: "dispute_resolved", Recipient: ActorArtisan},
	)
	return out, nil
}

func respondableEstimate(st State) error {
	if st.Estimate == nil {
		return apperr.NotFound("no estimate for this request")
	}
	switch st.Estimate.Status {
	case EstimatePending:
		// fallthrough to status check
	case EstimateExpired:
		return apperr.Expired("estimate validity deadline has passed")
	default:
		return apperr.InvalidTransition(
			fmt.Sprintf("estimate is %s, not awaiting a response", st.Estimate.Status))
	}
	if st.Status != StatusAwaitingEstimateAcceptation {
		return apperr.InvalidTransition(
			fmt.Sprintf("request is %s, not awaiting an estimate response", st.Status))
	}
	return nil
}
