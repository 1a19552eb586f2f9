package scheduler

import (
	"context"
	"fmt"

	"github.com/thimothe-das/fixeo-sub001/internal/email"
	"github.com/thimothe-das/fixeo-sub001/internal/notification/outbox"
	requestsrepo "github.com/thimothe-das/fixeo-sub001/internal/requests/repository"
	"github.com/thimothe-das/fixeo-sub001/platform/config"
	"github.com/thimothe-das/fixeo-sub001/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Worker consumes queued tasks and delivers notifications. It runs as its own
// process so email delivery never blocks request handling.
type Worker struct {
	server     *asynq.Server
	mux        *asynq.ServeMux
	outbox     *outbox.Repository
	requests   *requestsrepo.Repository
	sender     email.Sender
	adminEmail string
	portalURL  string
	log        *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, pool *pgxpool.Pool, sender email.Sender, adminEmail, portalURL string, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}
	concurrency := cfg.GetAsynqConcurrency()
	if concurrency <= 0 {
		concurrency = 10
	}

	if sender == nil {
		sender = email.NopSender{}
	}

	w := &Worker{
		server: asynq.NewServer(opt, asynq.Config{
			Concurrency: concurrency,
			Queues:      map[string]int{queue: 1},
		}),
		mux:        asynq.NewServeMux(),
		outbox:     outbox.New(pool),
		requests:   requestsrepo.New(pool),
		sender:     sender,
		adminEmail: adminEmail,
		portalURL:  portalURL,
		log:        log,
	}
	w.mux.HandleFunc(TaskNotificationOutboxDue, w.handleOutboxDue)
	return w, nil
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()
	return w.server.Run(w.mux)
}

func (w *Worker) handleOutboxDue(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseNotificationOutboxDuePayload(task)
	if err != nil {
		// Unparseable payloads never succeed; drop instead of retrying.
		w.log.Error("outbox task payload invalid", "error", err)
		return nil
	}

	outboxID, err := uuid.Parse(payload.OutboxID)
	if err != nil {
		w.log.Error("outbox task id invalid", "outbox_id", payload.OutboxID, "error", err)
		return nil
	}

	rec, err := w.outbox.GetByID(ctx, outboxID)
	if err != nil {
		return fmt.Errorf("load outbox record: %w", err)
	}
	if rec.Status == outbox.StatusSucceeded {
		return nil
	}

	if err := w.outbox.MarkProcessing(ctx, rec.ID); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	to, skip, err := w.resolveRecipient(ctx, rec)
	if err != nil {
		msg := err.Error()
		_ = w.outbox.MarkPending(ctx, rec.ID, &msg)
		return err
	}
	if skip {
		return w.outbox.MarkSucceeded(ctx, rec.ID)
	}

	update := email.LifecycleUpdate(to, rec.Event, rec.ServiceRequestID.String(), w.requestURL(rec.ServiceRequestID))
	if err := w.sender.SendLifecycleUpdate(ctx, update); err != nil {
		msg := err.Error()
		if retried, _ := asynq.GetRetryCount(ctx); retried >= maxRetryOrDefault(ctx) {
			_ = w.outbox.MarkFailed(ctx, rec.ID, msg)
		} else {
			_ = w.outbox.MarkPending(ctx, rec.ID, &msg)
		}
		return fmt.Errorf("send lifecycle update: %w", err)
	}

	if err := w.outbox.MarkSucceeded(ctx, rec.ID); err != nil {
		return fmt.Errorf("mark succeeded: %w", err)
	}

	w.log.Info("notification delivered",
		"outbox_id", rec.ID,
		"service_request_id", rec.ServiceRequestID,
		"recipient", rec.Recipient,
		"event", rec.Event,
	)
	return nil
}

// resolveRecipient maps an outbox recipient role to a deliverable address.
// Artisan accounts live in a separate system, so artisan rows are marked
// delivered without sending.
func (w *Worker) resolveRecipient(ctx context.Context, rec outbox.Record) (to string, skip bool, err error) {
	switch rec.Recipient {
	case "client":
		sr, err := w.requests.GetByID(ctx, rec.ServiceRequestID)
		if err != nil {
			return "", false, fmt.Errorf("load request for recipient: %w", err)
		}
		if sr.GuestEmail == nil || *sr.GuestEmail == "" {
			return "", true, nil
		}
		return *sr.GuestEmail, false, nil
	case "admin":
		if w.adminEmail == "" {
			return "", true, nil
		}
		return w.adminEmail, false, nil
	default:
		return "", true, nil
	}
}

func maxRetryOrDefault(ctx context.Context) int {
	if max, ok := asynq.GetMaxRetry(ctx); ok {
		return max
	}
	return 25 // asynq's default
}

func (w *Worker) requestURL(requestID uuid.UUID) string {
	if w.portalURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/requests/%s", w.portalURL, requestID)
}
