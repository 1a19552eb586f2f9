package domain

import (
	"testing"

	"github.com/thimothe-das/fixeo-sub001/platform/apperr"

	"github.com/google/uuid"
)

func boolPtr(b bool) *bool { return &b }

func pendingEstimate(revision int) *EstimateState {
	return &EstimateState{
		ID:         uuid.New(),
		Revision:   revision,
		Status:     EstimatePending,
		PriceCents: 10000,
	}
}

func TestTransition_FirstEstimateAccepted_OpensAssignment(t *testing.T) {
	st := State{
		Status:   StatusAwaitingEstimateAcceptation,
		Estimate: pendingEstimate(1),
	}

	out, err := Transition(st, ClientResponded{Accept: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != StatusAwaitingAssignation {
		t.Fatalf("expected AWAITING_ASSIGNATION, got %s", out.Status)
	}
	if !out.StatusChanged {
		t.Fatal("expected a status change")
	}
	if out.EstimateStatus != EstimateAccepted {
		t.Fatalf("expected estimate accepted, got %q", out.EstimateStatus)
	}
	if out.SetClientAccepted == nil || !*out.SetClientAccepted {
		t.Fatal("expected clientAccepted = true")
	}
}

func TestTransition_FirstEstimateRejected_CancelsRequest(t *testing.T) {
	st := State{
		Status:   StatusAwaitingEstimateAcceptation,
		Estimate: pendingEstimate(1),
	}

	out, err := Transition(st, ClientResponded{Accept: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != StatusCancelled {
		t.Fatalf("expected CANCELLED, got %s", out.Status)
	}
	if out.EstimateStatus != EstimateRejected {
		t.Fatalf("expected estimate rejected, got %q", out.EstimateStatus)
	}
}

func TestTransition_RevisionRejected_CancelsAndUnassigns(t *testing.T) {
	artisan := uuid.New()
	st := State{
		Status:            StatusAwaitingEstimateAcceptation,
		AssignedArtisanID: &artisan,
		Estimate:          pendingEstimate(2),
	}

	out, err := Transition(st, ClientResponded{Accept: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != StatusCancelled {
		t.Fatalf("expected CANCELLED, got %s", out.Status)
	}
	if !out.Unassign {
		t.Fatal("expected the artisan detached from the cancelled request")
	}
}

func TestTransition_ClientCannotRespondTwice(t *testing.T) {
	st := State{
		Status:   StatusAwaitingEstimateAcceptation,
		Estimate: pendingEstimate(1),
	}
	st.Estimate.ClientAccepted = boolPtr(true)

	_, err := Transition(st, ClientResponded{Accept: true})
	if !apperr.IsKind(err, apperr.KindDuplicateResponse) {
		t.Fatalf("expected DuplicateResponse, got %v", err)
	}
}

func TestTransition_ExpiredEstimateNotAcceptable(t *testing.T) {
	st := State{
		Status:   StatusAwaitingEstimateAcceptation,
		Estimate: pendingEstimate(1),
	}
	st.Estimate.Status = EstimateExpired

	_, err := Transition(st, ClientResponded{Accept: true})
	if !apperr.IsKind(err, apperr.KindExpired) {
		t.Fatalf("expected Expired, got %v", err)
	}
}

func TestTransition_ClaimMovesToInProgress(t *testing.T) {
	artisan := uuid.New()
	est := pendingEstimate(1)
	est.Status = EstimateAccepted
	est.ClientAccepted = boolPtr(true)
	st := State{Status: StatusAwaitingAssignation, Estimate: est}

	out, err := Transition(st, Claimed{ArtisanID: artisan})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != StatusInProgress {
		t.Fatalf("expected IN_PROGRESS, got %s", out.Status)
	}
	if out.Assign == nil || *out.Assign != artisan {
		t.Fatal("expected assignment to the claiming artisan")
	}
}

func TestTransition_ClaimOnAssignedRequestLosesRace(t *testing.T) {
	winner := uuid.New()
	// A race loser may re-read the row before or after the winner's status
	// change committed; both reads must surface AlreadyAssigned.
	for _, status := range []Status{StatusAwaitingAssignation, StatusInProgress} {
		st := State{
			Status:            status,
			AssignedArtisanID: &winner,
			Estimate:          pendingEstimate(1),
		}

		_, err := Transition(st, Claimed{ArtisanID: uuid.New()})
		if !apperr.IsKind(err, apperr.KindAlreadyAssigned) {
			t.Fatalf("status %s: expected AlreadyAssigned, got %v", status, err)
		}
	}
}

func TestTransition_DualAcceptance_Commutative(t *testing.T) {
	artisan := uuid.New()

	base := func() State {
		return State{
			Status:            StatusAwaitingEstimateAcceptation,
			AssignedArtisanID: &artisan,
			Estimate:          pendingEstimate(2),
		}
	}

	apply := func(st State, ev Event) State {
		t.Helper()
		out, err := Transition(st, ev)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		next := st
		next.Status = out.Status
		if out.SetClientAccepted != nil {
			next.Estimate.ClientAccepted = out.SetClientAccepted
		}
		if out.SetArtisanAccepted != nil {
			next.Estimate.ArtisanAccepted = out.SetArtisanAccepted
		}
		return next
	}

	// Client first, artisan second.
	st := base()
	st = apply(st, ClientResponded{Accept: true})
	if st.Status != StatusAwaitingEstimateAcceptation {
		t.Fatalf("first responder must not change status, got %s", st.Status)
	}
	st = apply(st, ArtisanResponded{ArtisanID: artisan, Accept: true})
	if st.Status != StatusInProgress {
		t.Fatalf("client-then-artisan: expected IN_PROGRESS, got %s", st.Status)
	}

	// Artisan first, client second.
	st = base()
	st = apply(st, ArtisanResponded{ArtisanID: artisan, Accept: true})
	if st.Status != StatusAwaitingEstimateAcceptation {
		t.Fatalf("first responder must not change status, got %s", st.Status)
	}
	st = apply(st, ClientResponded{Accept: true})
	if st.Status != StatusInProgress {
		t.Fatalf("artisan-then-client: expected IN_PROGRESS, got %s", st.Status)
	}
}

func TestTransition_ArtisanRefusesRevision(t *testing.T) {
	artisan := uuid.New()
	est := pendingEstimate(2)
	est.ClientAccepted = boolPtr(true)
	st := State{
		Status:            StatusAwaitingEstimateAcceptation,
		AssignedArtisanID: &artisan,
		Estimate:          est,
	}

	out, err := Transition(st, ArtisanResponded{ArtisanID: artisan, Accept: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != StatusAwaitingAssignation {
		t.Fatalf("expected AWAITING_ASSIGNATION, got %s", out.Status)
	}
	if !out.Unassign {
		t.Fatal("expected assignment cleared")
	}
	if out.RecordRefusal == nil || *out.RecordRefusal != artisan {
		t.Fatal("expected refusal recorded for the artisan")
	}
	if !out.ClearArtisanAcceptance {
		t.Fatal("expected artisan acceptance flag cleared for the next offer")
	}
}

func TestTransition_OnlyAssignedArtisanMayRespond(t *testing.T) {
	artisan := uuid.New()
	st := State{
		Status:            StatusAwaitingEstimateAcceptation,
		AssignedArtisanID: &artisan,
		Estimate:          pendingEstimate(2),
	}

	_, err := Transition(st, ArtisanResponded{ArtisanID: uuid.New(), Accept: true})
	if !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("expected Forbidden, got %v", err)
	}
}

func TestTransition_ArtisanCannotRespondToFirstEstimate(t *testing.T) {
	artisan := uuid.New()
	st := State{
		Status:            StatusAwaitingEstimateAcceptation,
		AssignedArtisanID: &artisan,
		Estimate:          pendingEstimate(1),
	}

	_, err := Transition(st, ArtisanResponded{ArtisanID: artisan, Accept: true})
	if !apperr.IsKind(err, apperr.KindInvalidTransition) {
		t.Fatalf("expected InvalidTransition, got %v", err)
	}
}

func TestTransition_Validation_Commutative(t *testing.T) {
	artisan := uuid.New()

	run := func(first, second Actor) Status {
		t.Helper()
		st := State{Status: StatusInProgress, AssignedArtisanID: &artisan}

		out, err := Transition(st, WorkValidated{Actor: first})
		if err != nil {
			t.Fatalf("first validation: %v", err)
		}
		st.Status = out.Status

		out, err = Transition(st, WorkValidated{Actor: second})
		if err != nil {
			t.Fatalf("second validation: %v", err)
		}
		return out.Status
	}

	if got := run(ActorClient, ActorArtisan); got != StatusAwaitingPayment {
		t.Fatalf("client-then-artisan: expected AWAITING_PAYMENT, got %s", got)
	}
	if got := run(ActorArtisan, ActorClient); got != StatusAwaitingPayment {
		t.Fatalf("artisan-then-client: expected AWAITING_PAYMENT, got %s", got)
	}
}

func TestTransition_SameActorCannotValidateTwice(t *testing.T) {
	artisan := uuid.New()
	st := State{Status: StatusClientValidated, AssignedArtisanID: &artisan}

	_, err := Transition(st, WorkValidated{Actor: ActorClient})
	if !apperr.IsKind(err, apperr.KindDuplicateResponse) {
		t.Fatalf("expected DuplicateResponse, got %v", err)
	}
}

func TestTransition_Disputes(t *testing.T) {
	artisan := uuid.New()

	cases := []struct {
		name    string
		from    Status
		actor   Actor
		want    Status
		wantErr apperr.Kind
	}{
		{name: "client disputes in progress", from: StatusInProgress, actor: ActorClient, want: StatusDisputedByClient},
		{name: "artisan disputes in progress", from: StatusInProgress, actor: ActorArtisan, want: StatusDisputedByArtisan},
		{name: "client disputes after artisan validated", from: StatusArtisanValidated, actor: ActorClient, want: StatusDisputedByClient},
		{name: "artisan disputes after client validated", from: StatusClientValidated, actor: ActorArtisan, want: StatusDisputedByArtisan},
		{name: "second dispute by other side", from: StatusDisputedByClient, actor: ActorArtisan, want: StatusDisputedByBoth},
		{name: "second dispute reversed order", from: StatusDisputedByArtisan, actor: ActorClient, want: StatusDisputedByBoth},
		{name: "client cannot dispute after validating", from: StatusClientValidated, actor: ActorClient, wantErr: apperr.KindInvalidTransition},
		{name: "same side cannot dispute twice", from: StatusDisputedByClient, actor: ActorClient, wantErr: apperr.KindDuplicateResponse},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st := State{Status: tc.from, AssignedArtisanID: &artisan}
			out, err := Transition(st, WorkDisputed{Actor: tc.actor})
			if tc.wantErr != apperr.KindUnknown {
				if !apperr.IsKind(err, tc.wantErr) {
					t.Fatalf("expected error kind %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out.Status != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, out.Status)
			}
		})
	}
}

func TestTransition_ResolutionFromDispute(t *testing.T) {
	artisan := uuid.New()
	st := State{Status: StatusDisputedByBoth, AssignedArtisanID: &artisan}

	out, err := Transition(st, DisputeResolved{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != StatusResolved {
		t.Fatalf("expected RESOLVED, got %s", out.Status)
	}

	out, err = Transition(st, DisputeResolved{Reopen: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != StatusInProgress {
		t.Fatalf("expected IN_PROGRESS on reopen, got %s", out.Status)
	}
}

func TestTransition_CancelOnlyBeforeAssignment(t *testing.T) {
	out, err := Transition(State{Status: StatusAwaitingEstimate}, Cancelled{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != StatusCancelled {
		t.Fatalf("expected CANCELLED, got %s", out.Status)
	}

	artisan := uuid.New()
	_, err = Transition(State{Status: StatusInProgress, AssignedArtisanID: &artisan}, Cancelled{})
	if !apperr.IsKind(err, apperr.KindInvalidTransition) {
		t.Fatalf("expected InvalidTransition, got %v", err)
	}
}

func TestTransition_PaymentConfirmed(t *testing.T) {
	t.Run("down payment applies client acceptance", func(t *testing.T) {
		st := State{
			Status:   StatusAwaitingEstimateAcceptation,
			Estimate: pendingEstimate(1),
		}
		out, err := Transition(st, PaymentConfirmed{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !out.SetDownPaymentPaid {
			t.Fatal("expected downPaymentPaid set")
		}
		if out.Status != StatusAwaitingAssignation {
			t.Fatalf("expected AWAITING_ASSIGNATION, got %s", out.Status)
		}
	})

	t.Run("redelivery is a no-op", func(t *testing.T) {
		st := State{
			Status:          StatusAwaitingAssignation,
			DownPaymentPaid: true,
			Estimate:        pendingEstimate(1),
		}
		out, err := Transition(st, PaymentConfirmed{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.StatusChanged || out.SetDownPaymentPaid {
			t.Fatal("expected no writes on redelivery")
		}
	})

	t.Run("final payment completes the request", func(t *testing.T) {
		artisan := uuid.New()
		st := State{
			Status:            StatusAwaitingPayment,
			AssignedArtisanID: &artisan,
			DownPaymentPaid:   true,
		}
		out, err := Transition(st, PaymentConfirmed{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Status != StatusCompleted {
			t.Fatalf("expected COMPLETED, got %s", out.Status)
		}
	})

	t.Run("redelivery after completion stays silent", func(t *testing.T) {
		st := State{Status: StatusCompleted, DownPaymentPaid: true}
		out, err := Transition(st, PaymentConfirmed{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.StatusChanged {
			t.Fatal("expected no transition after completion")
		}
	})
}

func TestTransition_EstimateIssuance(t *testing.T) {
	artisan := uuid.New()

	t.Run("first estimate", func(t *testing.T) {
		out, err := Transition(State{Status: StatusAwaitingEstimate}, EstimateIssued{Revision: 1, PriceCents: 10000})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Status != StatusAwaitingEstimateAcceptation {
			t.Fatalf("expected AWAITING_ESTIMATE_ACCEPTATION, got %s", out.Status)
		}
		if out.SetEstimatedPrice == nil || *out.SetEstimatedPrice != 10000 {
			t.Fatal("expected the request's price copy refreshed")
		}
	})

	t.Run("mid-work revision", func(t *testing.T) {
		est := pendingEstimate(1)
		est.Status = EstimateAccepted
		st := State{Status: StatusInProgress, AssignedArtisanID: &artisan, Estimate: est}
		out, err := Transition(st, EstimateIssued{Revision: 2, PriceCents: 15000})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Status != StatusAwaitingEstimateAcceptation {
			t.Fatalf("expected AWAITING_ESTIMATE_ACCEPTATION, got %s", out.Status)
		}
	})

	t.Run("re-quote after artisan refusal", func(t *testing.T) {
		refusedBy := uuid.New()
		est := pendingEstimate(2)
		est.ClientAccepted = boolPtr(true)
		est.RejectedByArtisanID = &refusedBy
		st := State{Status: StatusAwaitingAssignation, Estimate: est}
		out, err := Transition(st, EstimateIssued{Revision: 3, PriceCents: 12000})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !out.SupersedePending {
			t.Fatal("expected the refused pending estimate to be superseded")
		}
	})

	t.Run("replacement for an expired revision", func(t *testing.T) {
		est := pendingEstimate(2)
		est.Status = EstimateExpired
		st := State{Status: StatusAwaitingEstimateAcceptation, AssignedArtisanID: &artisan, Estimate: est}
		out, err := Transition(st, EstimateIssued{Revision: 3, PriceCents: 11000})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Status != StatusAwaitingEstimateAcceptation {
			t.Fatalf("expected AWAITING_ESTIMATE_ACCEPTATION, got %s", out.Status)
		}
		if out.SupersedePending {
			t.Fatal("expired rows are already closed; nothing to supersede")
		}
		if out.SetEstimatedPrice == nil || *out.SetEstimatedPrice != 11000 {
			t.Fatal("expected the request's price copy refreshed")
		}
	})

	t.Run("illegal while awaiting payment", func(t *testing.T) {
		st := State{Status: StatusAwaitingPayment, AssignedArtisanID: &artisan}
		_, err := Transition(st, EstimateIssued{Revision: 2, PriceCents: 9000})
		if !apperr.IsKind(err, apperr.KindInvalidTransition) {
			t.Fatalf("expected InvalidTransition, got %v", err)
		}
	})
}
