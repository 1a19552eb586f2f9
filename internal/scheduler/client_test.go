package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

type testSchedulerConfig struct {
	redisURL string
}

func (c testSchedulerConfig) GetRedisURL() string       { return c.redisURL }
func (c testSchedulerConfig) GetRedisTLSInsecure() bool { return false }
func (c testSchedulerConfig) GetAsynqQueueName() string { return "notifications" }
func (c testSchedulerConfig) GetAsynqConcurrency() int  { return 1 }

func TestEnqueueOutboxDue(t *testing.T) {
	srv := miniredis.RunT(t)

	client, err := NewClient(testSchedulerConfig{redisURL: "redis://" + srv.Addr()})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer client.Close()

	payload := NotificationOutboxDuePayload{
		OutboxID:         "9f4a2c1e-0000-0000-0000-000000000001",
		ServiceRequestID: "9f4a2c1e-0000-0000-0000-000000000002",
	}
	if err := client.EnqueueOutboxDue(context.Background(), payload, time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("EnqueueOutboxDue: %v", err)
	}

	// Scheduled tasks land in the queue's scheduled set until due.
	keys := srv.Keys()
	found := false
	for _, k := range keys {
		if k == "asynq:{notifications}:scheduled" {
			found = true
		}
	}
	if !found {
		t.Fatalf("scheduled task not found in redis, keys: %v", keys)
	}
}

func TestNewClientRequiresRedisURL(t *testing.T) {
	if _, err := NewClient(testSchedulerConfig{}); err == nil {
		t.Fatal("expected error for missing redis url")
	}
}

func TestParseNotificationOutboxDuePayloadRoundTrip(t *testing.T) {
	in := NotificationOutboxDuePayload{OutboxID: "a", ServiceRequestID: "b"}
	task, err := NewNotificationOutboxDueTask(in)
	if err != nil {
		t.Fatalf("NewNotificationOutboxDueTask: %v", err)
	}
	out, err := ParseNotificationOutboxDuePayload(task)
	if err != nil {
		t.Fatalf("ParseNotificationOutboxDuePayload: %v", err)
	}
	if out != in {
		t.Fatalf("payload mismatch: got %+v want %+v", out, in)
	}
}
