package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/thimothe-das/fixeo-sub001/internal/payments/service"
	reqrepo "github.com/thimothe-das/fixeo-sub001/internal/requests/repository"
	"github.com/thimothe-das/fixeo-sub001/platform/apperr"
	"github.com/thimothe-das/fixeo-sub001/platform/httpkit"
	"github.com/thimothe-das/fixeo-sub001/platform/logger"
	"github.com/thimothe-das/fixeo-sub001/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const testSecret = "whsec_test"

type fakeEngine struct {
	confirmed []uuid.UUID
}

func (f *fakeEngine) ConfirmPayment(ctx context.Context, requestID uuid.UUID) (*reqrepo.ServiceRequest, error) {
	f.confirmed = append(f.confirmed, requestID)
	return &reqrepo.ServiceRequest{ID: requestID}, nil
}

func (f *fakeEngine) GetRequestByGuestToken(ctx context.Context, token string) (*reqrepo.ServiceRequest, error) {
	return nil, apperr.NotFound("service request not found")
}

type fakeVerifier struct{}

func (fakeVerifier) Verify(token string) (uuid.UUID, error) {
	return uuid.Nil, apperr.Forbidden("invalid guest token")
}

func newRouter(engine *fakeEngine) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logger.New("development")
	svc := service.New(engine, fakeVerifier{}, log)
	h := New(svc, validator.New(), log, testSecret)

	r := gin.New()
	h.RegisterRoutes(r, httpkit.NewWebhookRateLimiter(log))
	return r
}

func post(r *gin.Engine, secret, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set("X-Webhook-Secret", secret)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWebhookRejectsMissingSecret(t *testing.T) {
	engine := &fakeEngine{}
	w := post(newRouter(engine), "", `{"eventType":"payment.succeeded","paymentId":"p1"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if len(engine.confirmed) != 0 {
		t.Fatal("unauthenticated calls must not reach the service")
	}
}

func TestWebhookRejectsWrongSecret(t *testing.T) {
	w := post(newRouter(&fakeEngine{}), "wrong", `{"eventType":"payment.succeeded","paymentId":"p1"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestWebhookAcknowledgesValidDelivery(t *testing.T) {
	engine := &fakeEngine{}
	requestID := uuid.New()
	body := `{"eventType":"payment.succeeded","paymentId":"p1","requestId":"` + requestID.String() + `"}`

	w := post(newRouter(engine), testSecret, body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(engine.confirmed) != 1 || engine.confirmed[0] != requestID {
		t.Fatalf("expected confirmation for %s, got %v", requestID, engine.confirmed)
	}
}

func TestWebhookAcknowledgesUnmatchedPayment(t *testing.T) {
	// The provider still gets a 2xx when the payment matches nothing.
	w := post(newRouter(&fakeEngine{}), testSecret,
		`{"eventType":"payment.succeeded","paymentId":"p1","guestToken":"unknown"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for unmatched payment, got %d", w.Code)
	}
}

func TestWebhookRejectsMalformedBody(t *testing.T) {
	w := post(newRouter(&fakeEngine{}), testSecret, `{not json`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestWebhookRejectsMissingFields(t *testing.T) {
	w := post(newRouter(&fakeEngine{}), testSecret, `{"eventType":"payment.succeeded"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without payment id, got %d", w.Code)
	}
}
