package domain

import "testing"

func TestStatus_Terminal(t *testing.T) {
	for _, s := range []Status{StatusCompleted, StatusCancelled, StatusResolved} {
		if !s.IsTerminal() {
			t.Fatalf("%s should be terminal", s)
		}
		if len(legalEdges[s]) != 0 {
			t.Fatalf("%s is terminal but has outgoing edges", s)
		}
	}
	for _, s := range []Status{StatusAwaitingEstimate, StatusInProgress, StatusDisputedByBoth} {
		if s.IsTerminal() {
			t.Fatalf("%s should not be terminal", s)
		}
	}
}

func TestStatus_EveryEdgeTargetIsKnown(t *testing.T) {
	for from, targets := range legalEdges {
		if !from.IsValid() {
			t.Fatalf("unknown source status %s", from)
		}
		for _, to := range targets {
			if !to.IsValid() {
				t.Fatalf("edge %s -> %s targets unknown status", from, to)
			}
		}
	}
}

func TestValidatePath(t *testing.T) {
	happy := []Status{
		StatusAwaitingEstimate,
		StatusAwaitingEstimateAcceptation,
		StatusAwaitingAssignation,
		StatusInProgress,
		StatusClientValidated,
		StatusAwaitingPayment,
		StatusCompleted,
	}
	if idx := ValidatePath(happy); idx != -1 {
		t.Fatalf("happy path rejected at index %d", idx)
	}

	dispute := []Status{
		StatusAwaitingEstimate,
		StatusAwaitingEstimateAcceptation,
		StatusAwaitingAssignation,
		StatusInProgress,
		StatusDisputedByClient,
		StatusDisputedByBoth,
		StatusResolved,
	}
	if idx := ValidatePath(dispute); idx != -1 {
		t.Fatalf("dispute path rejected at index %d", idx)
	}

	illegal := []Status{StatusAwaitingEstimate, StatusInProgress}
	if idx := ValidatePath(illegal); idx != 1 {
		t.Fatalf("expected illegal edge at index 1, got %d", idx)
	}
}
