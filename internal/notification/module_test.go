package notification

import (
	"context"
	"testing"

	domainevents "github.com/thimothe-das/fixeo-sub001/internal/events"
	"github.com/thimothe-das/fixeo-sub001/internal/notification/outbox"
	"github.com/thimothe-das/fixeo-sub001/platform/events"
	"github.com/thimothe-das/fixeo-sub001/platform/logger"

	"github.com/google/uuid"
)

type fakeOutbox struct {
	inserted []outbox.InsertParams
}

func (f *fakeOutbox) Insert(ctx context.Context, p outbox.InsertParams) (uuid.UUID, error) {
	f.inserted = append(f.inserted, p)
	return uuid.New(), nil
}

func newModule() (*Module, *fakeOutbox, *events.InMemoryBus) {
	ob := &fakeOutbox{}
	log := logger.New("development")
	m := NewModule(ob, log)
	bus := events.NewInMemoryBus(log)
	m.Subscribe(bus)
	return m, ob, bus
}

func TestNotificationRequestedQueuesIntent(t *testing.T) {
	_, ob, bus := newModule()
	requestID := uuid.New()

	err := bus.PublishSync(context.Background(), domainevents.NotificationRequested{
		BaseEvent: events.NewBaseEvent(),
		RequestID: requestID,
		Event:     "estimate_created",
		Recipient: "client",
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	if len(ob.inserted) != 1 {
		t.Fatalf("expected one outbox row, got %d", len(ob.inserted))
	}
	got := ob.inserted[0]
	if got.ServiceRequestID != requestID || got.Event != "estimate_created" || got.Recipient != "client" {
		t.Errorf("unexpected outbox params: %+v", got)
	}
}

func TestRequestCreatedNotifiesBothSides(t *testing.T) {
	_, ob, bus := newModule()

	err := bus.PublishSync(context.Background(), domainevents.RequestCreated{
		BaseEvent: events.NewBaseEvent(),
		RequestID: uuid.New(),
		IsGuest:   true,
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	if len(ob.inserted) != 2 {
		t.Fatalf("expected receipt for client and admin, got %d rows", len(ob.inserted))
	}
	recipients := map[string]bool{}
	for _, p := range ob.inserted {
		recipients[p.Recipient] = true
		if p.Event != "request_received" {
			t.Errorf("expected request_received, got %s", p.Event)
		}
	}
	if !recipients["client"] || !recipients["admin"] {
		t.Errorf("expected client and admin recipients, got %v", recipients)
	}
}

func TestDisputeOpenedAlertsAdmin(t *testing.T) {
	_, ob, bus := newModule()

	err := bus.PublishSync(context.Background(), domainevents.DisputeOpened{
		BaseEvent: events.NewBaseEvent(),
		RequestID: uuid.New(),
		DisputeID: uuid.New(),
		RaisedBy:  "artisan",
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	if len(ob.inserted) != 1 || ob.inserted[0].Recipient != "admin" {
		t.Fatalf("expected one admin alert, got %+v", ob.inserted)
	}
}
