package transport

import "github.com/google/uuid"

// Webhook event types the payment provider sends.
const (
	EventPaymentSucceeded = "payment.succeeded"
	EventPaymentFailed    = "payment.failed"
)

// WebhookPayload is the payment provider's confirmation callback. The payment
// is matched to a request by ID or, for guest checkouts, by correlation token.
type WebhookPayload struct {
	EventType   string     `json:"eventType" validate:"required"`
	PaymentID   string     `json:"paymentId" validate:"required"`
	RequestID   *uuid.UUID `json:"requestId,omitempty"`
	GuestToken  *string    `json:"guestToken,omitempty"`
	AmountCents int64      `json:"amountCents"`
}
