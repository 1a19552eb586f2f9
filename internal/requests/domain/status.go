// Package domain provides core business rules for the service-request
// lifecycle: the status machine, the dual-acceptance barrier, and the single
// transition function every mutation goes through.
package domain

// Status is the lifecycle state of a service request.
type Status string

const (
	StatusAwaitingEstimate            Status = "AWAITING_ESTIMATE"
	StatusAwaitingEstimateAcceptation Status = "AWAITING_ESTIMATE_ACCEPTATION"
	StatusAwaitingAssignation         Status = "AWAITING_ASSIGNATION"
	StatusInProgress                  Status = "IN_PROGRESS"
	StatusClientValidated             Status = "CLIENT_VALIDATED"
	StatusArtisanValidated            Status = "ARTISAN_VALIDATED"
	StatusAwaitingPayment             Status = "AWAITING_PAYMENT"
	StatusCompleted                   Status = "COMPLETED"
	StatusDisputedByClient            Status = "DISPUTED_BY_CLIENT"
	StatusDisputedByArtisan           Status = "DISPUTED_BY_ARTISAN"
	StatusDisputedByBoth              Status = "DISPUTED_BY_BOTH"
	StatusResolved                    Status = "RESOLVED"
	StatusCancelled                   Status = "CANCELLED"
)

// AllStatuses lists every status the machine can occupy.
var AllStatuses = []Status{
	StatusAwaitingEstimate,
	StatusAwaitingEstimateAcceptation,
	StatusAwaitingAssignation,
	StatusInProgress,
	StatusClientValidated,
	StatusArtisanValidated,
	StatusAwaitingPayment,
	StatusCompleted,
	StatusDisputedByClient,
	StatusDisputedByArtisan,
	StatusDisputedByBoth,
	StatusResolved,
	StatusCancelled,
}

var terminalStatuses = map[Status]bool{
	StatusCompleted: true,
	StatusCancelled: true,
	StatusResolved:  true,
}

// IsTerminal returns true if no further automated transition can occur.
func (s Status) IsTerminal() bool {
	return terminalStatuses[s]
}

// IsValid reports whether s is a known status value.
func (s Status) IsValid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

var disputedStatuses = map[Status]bool{
	StatusDisputedByClient:  true,
	StatusDisputedByArtisan: true,
	StatusDisputedByBoth:    true,
}

// IsDisputed reports whether the request sits in any dispute branch.
func (s Status) IsDisputed() bool {
	return disputedStatuses[s]
}

// preAssignmentStatuses are the states a client may still cancel from.
var preAssignmentStatuses = map[Status]bool{
	StatusAwaitingEstimate:            true,
	StatusAwaitingEstimateAcceptation: true,
	StatusAwaitingAssignation:         true,
}

// IsPreAssignment reports whether the request has not yet progressed past
// assignment. Cancellation is only legal here.
func (s Status) IsPreAssignment() bool {
	return preAssignmentStatuses[s]
}

// validatableStatuses are the states a completion validation or dispute may be
// submitted from.
var validatableStatuses = map[Status]bool{
	StatusInProgress:      true,
	StatusClientValidated: true,
	StatusArtisanValidated: true,
}

// IsValidatable reports whether a validate or dispute action may target s.
func (s Status) IsValidatable() bool {
	return validatableStatuses[s]
}

// legalEdges is the full transition graph. Used to audit recorded status
// history: any history sequence must walk this graph.
var legalEdges = map[Status][]Status{
	StatusAwaitingEstimate: {
		StatusAwaitingEstimateAcceptation,
		StatusCancelled,
	},
	StatusAwaitingEstimateAcceptation: {
		StatusAwaitingAssignation, // first estimate accepted by client
		StatusInProgress,          // revision: dual acceptance completed
		StatusCancelled,           // rejected, or cancelled pre-assignment
	},
	StatusAwaitingAssignation: {
		StatusInProgress,                  // artisan claims
		StatusAwaitingEstimateAcceptation, // re-quote after artisan refusal, or claim awaiting client response
		StatusCancelled,
	},
	StatusInProgress: {
		StatusClientValidated,
		StatusArtisanValidated,
		StatusAwaitingEstimateAcceptation, // mid-work revision issued
		StatusDisputedByClient,
		StatusDisputedByArtisan,
	},
	StatusClientValidated: {
		StatusAwaitingPayment,
		StatusDisputedByArtisan,
	},
	StatusArtisanValidated: {
		StatusAwaitingPayment,
		StatusDisputedByClient,
	},
	StatusAwaitingPayment: {
		StatusCompleted,
	},
	StatusDisputedByClient: {
		StatusDisputedByBoth,
		StatusResolved,
		StatusInProgress, // admin reopens
	},
	StatusDisputedByArtisan: {
		StatusDisputedByBoth,
		StatusResolved,
		StatusInProgress,
	},
	StatusDisputedByBoth: {
		StatusResolved,
		StatusInProgress,
	},
}

// IsLegalEdge reports whether from → to is an edge of the transition graph.
func IsLegalEdge(from, to Status) bool {
	for _, next := range legalEdges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidatePath checks that a recorded status history walks the transition
// graph, returning the index of the first illegal edge, or -1.
func ValidatePath(path []Status) int {
	for i := 1; i < len(path); i++ {
		if !IsLegalEdge(path[i-1], path[i]) {
			return i
		}
	}
	return -1
}
