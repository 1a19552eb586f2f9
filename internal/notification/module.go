// Package notification turns lifecycle events into queued notification
// intents. Delivery itself happens asynchronously from the outbox; this
// module only records what should be sent to whom.
package notification

import (
	"context"
	"fmt"

	domainevents "github.com/thimothe-das/fixeo-sub001/internal/events"
	"github.com/thimothe-das/fixeo-sub001/internal/notification/outbox"
	"github.com/thimothe-das/fixeo-sub001/platform/events"
	"github.com/thimothe-das/fixeo-sub001/platform/logger"

	"github.com/google/uuid"
)

// Outbox is the persistence surface the module writes intents to.
type Outbox interface {
	Insert(ctx context.Context, p outbox.InsertParams) (uuid.UUID, error)
}

// Module subscribes to the event bus and queues notifications.
type Module struct {
	outbox Outbox
	log    *logger.Logger
}

// NewModule creates the notification module.
func NewModule(ob Outbox, log *logger.Logger) *Module {
	return &Module{outbox: ob, log: log}
}

// Subscribe registers the module's handlers on the bus.
func (m *Module) Subscribe(bus events.Bus) {
	bus.Subscribe(domainevents.NotificationRequestedName, events.HandlerFunc(m.onNotificationRequested))
	bus.Subscribe(domainevents.RequestCreatedName, events.HandlerFunc(m.onRequestCreated))
	bus.Subscribe(domainevents.DisputeOpenedName, events.HandlerFunc(m.onDisputeOpened))
}

func (m *Module) onNotificationRequested(ctx context.Context, event events.Event) error {
	e, ok := event.(domainevents.NotificationRequested)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	return m.queue(ctx, e.RequestID, e.Recipient, e.Event, e)
}

func (m *Module) onRequestCreated(ctx context.Context, event events.Event) error {
	e, ok := event.(domainevents.RequestCreated)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	// Submission receipt for the requester, heads-up for the back office.
	if err := m.queue(ctx, e.RequestID, "client", "request_received", e); err != nil {
		return err
	}
	return m.queue(ctx, e.RequestID, "admin", "request_received", e)
}

func (m *Module) onDisputeOpened(ctx context.Context, event events.Event) error {
	e, ok := event.(domainevents.DisputeOpened)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	return m.queue(ctx, e.RequestID, "admin", "dispute_opened", e)
}

func (m *Module) queue(ctx context.Context, requestID uuid.UUID, recipient, event string, payload any) error {
	id, err := m.outbox.Insert(ctx, outbox.InsertParams{
		ServiceRequestID: requestID,
		Recipient:        recipient,
		Event:            event,
		Payload:          payload,
	})
	if err != nil {
		m.log.Error("notification_queue_failed",
			"service_request_id", requestID.String(),
			"event", event,
			"error", err.Error(),
		)
		return err
	}
	m.log.Debug("notification_queued",
		"outbox_id", id.String(),
		"service_request_id", requestID.String(),
		"event", event,
		"recipient", recipient,
	)
	return nil
}
