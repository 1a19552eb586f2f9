// Package service processes payment provider callbacks. Confirmations are
// matched to a request and applied through the lifecycle engine; anything
// that cannot be matched or applied is logged as an anomaly for manual
// reconciliation. The webhook must always acknowledge, so nothing here
// surfaces an error to the provider.
package service

import (
	"context"

	"github.com/thimothe-das/fixeo-sub001/internal/payments/transport"
	reqrepo "github.com/thimothe-das/fixeo-sub001/internal/requests/repository"
	"github.com/thimothe-das/fixeo-sub001/platform/apperr"
	"github.com/thimothe-das/fixeo-sub001/platform/logger"

	"github.com/google/uuid"
)

// Engine is the slice of the lifecycle engine payments drive.
type Engine interface {
	ConfirmPayment(ctx context.Context, requestID uuid.UUID) (*reqrepo.ServiceRequest, error)
	GetRequestByGuestToken(ctx context.Context, token string) (*reqrepo.ServiceRequest, error)
}

// TokenVerifier checks signed guest correlation tokens.
type TokenVerifier interface {
	Verify(token string) (uuid.UUID, error)
}

// Service applies payment confirmations.
type Service struct {
	engine Engine
	tokens TokenVerifier
	log    *logger.Logger
}

// New creates the payments service.
func New(engine Engine, tokens TokenVerifier, log *logger.Logger) *Service {
	return &Service{engine: engine, tokens: tokens, log: log}
}

// ProcessWebhook handles one provider callback. It never returns an error:
// redeliveries are no-ops inside the engine, and unmatched or unappliable
// confirmations are logged for reconciliation instead of bounced back to the
// provider, which would only trigger pointless retries.
func (s *Service) ProcessWebhook(ctx context.Context, payload transport.WebhookPayload) {
	log := s.log.WithContext(ctx)

	if payload.EventType != transport.EventPaymentSucceeded {
		log.Info("payment_webhook_ignored",
			"event_type", payload.EventType,
			"payment_id", payload.PaymentID,
		)
		return
	}

	requestID, ok := s.resolveRequest(ctx, payload)
	if !ok {
		return
	}

	if _, err := s.engine.ConfirmPayment(ctx, requestID); err != nil {
		switch {
		case apperr.IsKind(err, apperr.KindNotFound):
			log.PaymentAnomaly("request not found", requestID.String(), "")
		case apperr.IsKind(err, apperr.KindInvalidTransition):
			// e.g. payment for a cancelled request.
			log.PaymentAnomaly("confirmation not applicable: "+err.Error(), requestID.String(), "")
		default:
			log.Error("payment_confirmation_failed",
				"service_request_id", requestID.String(),
				"error", err.Error(),
			)
		}
	}
}

// resolveRequest matches the payload to a request by explicit ID first, then
// by guest correlation token.
func (s *Service) resolveRequest(ctx context.Context, payload transport.WebhookPayload) (uuid.UUID, bool) {
	log := s.log.WithContext(ctx)

	if payload.RequestID != nil {
		return *payload.RequestID, true
	}
	if payload.GuestToken == nil || *payload.GuestToken == "" {
		log.PaymentAnomaly("payload carries neither request id nor guest token", "", "")
		return uuid.Nil, false
	}

	if requestID, err := s.tokens.Verify(*payload.GuestToken); err == nil {
		return requestID, true
	}

	// Tokens are also stored on the request row; the lookup still matches
	// tokens minted before a secret rotation.
	sr, err := s.engine.GetRequestByGuestToken(ctx, *payload.GuestToken)
	if err != nil {
		log.PaymentAnomaly("guest token matches no request", "", *payload.GuestToken)
		return uuid.Nil, false
	}
	return sr.ID, true
}
