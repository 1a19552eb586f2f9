// Package events defines the domain events exchanged between modules over
// the in-process event bus.
package events

import (
	"github.com/thimothe-das/fixeo-sub001/platform/events"

	"github.com/google/uuid"
)

// Event names, matched by Bus.Subscribe.
const (
	RequestCreatedName        = "requests.created"
	StatusChangedName         = "requests.status_changed"
	NotificationRequestedName = "notification.requested"
	DisputeOpenedName         = "disputes.opened"
)

// RequestCreated is published after a service request is persisted.
type RequestCreated struct {
	events.BaseEvent
	RequestID uuid.UUID `json:"requestId"`
	IsGuest   bool      `json:"isGuest"`
}

// EventName returns the unique event identifier.
func (RequestCreated) EventName() string { return RequestCreatedName }

// StatusChanged is published after a lifecycle transition commits.
type StatusChanged struct {
	events.BaseEvent
	RequestID  uuid.UUID `json:"requestId"`
	FromStatus string    `json:"fromStatus"`
	ToStatus   string    `json:"toStatus"`
	Trigger    string    `json:"trigger"`
	ActorRole  string    `json:"actorRole"`
}

// EventName returns the unique event identifier.
func (StatusChanged) EventName() string { return StatusChangedName }

// NotificationRequested asks the notification module to deliver news of a
// lifecycle event to one party. One event per intended recipient.
type NotificationRequested struct {
	events.BaseEvent
	RequestID uuid.UUID `json:"requestId"`
	Event     string    `json:"event"`
	Recipient string    `json:"recipient"`
}

// EventName returns the unique event identifier.
func (NotificationRequested) EventName() string { return NotificationRequestedName }

// DisputeOpened is published when a party contests completed work.
type DisputeOpened struct {
	events.BaseEvent
	RequestID uuid.UUID `json:"requestId"`
	DisputeID uuid.UUID `json:"disputeId"`
	RaisedBy  string    `json:"raisedBy"`
}

// EventName returns the unique event identifier.
func (DisputeOpened) EventName() string { return DisputeOpenedName }
