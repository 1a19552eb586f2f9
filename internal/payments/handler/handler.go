package handler

import (
	"crypto/subtle"
	"net/http"

	"github.com/thimothe-das/fixeo-sub001/internal/payments/service"
	"github.com/thimothe-das/fixeo-sub001/internal/payments/transport"
	"github.com/thimothe-das/fixeo-sub001/platform/httpkit"
	"github.com/thimothe-das/fixeo-sub001/platform/logger"
	"github.com/thimothe-das/fixeo-sub001/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler exposes the payment provider webhook.
type Handler struct {
	svc      *service.Service
	validate *validator.Validator
	log      *logger.Logger
	secret   string
}

// New creates the payments handler. secret is the shared webhook secret the
// provider sends in X-Webhook-Secret.
func New(svc *service.Service, validate *validator.Validator, log *logger.Logger, secret string) *Handler {
	return &Handler{svc: svc, validate: validate, log: log, secret: secret}
}

// RegisterRoutes mounts the webhook route.
func (h *Handler) RegisterRoutes(r gin.IRouter, limiter *httpkit.WebhookRateLimiter) {
	r.POST("/webhooks/payment", limiter.RateLimit(), h.verifySecret(), h.handleWebhook)
}

// verifySecret rejects callers that do not present the shared secret.
func (h *Handler) verifySecret() gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader("X-Webhook-Secret")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(h.secret)) != 1 {
			h.log.Warn("webhook_secret_mismatch", "client_ip", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

// handleWebhook acknowledges every authenticated, well-formed delivery with
// 200 regardless of how processing went: the provider only needs to know the
// callback arrived, and anomalies are handled on our side.
func (h *Handler) handleWebhook(c *gin.Context) {
	var payload transport.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid payload", nil)
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid payload", err.Error())
		return
	}

	h.svc.ProcessWebhook(c.Request.Context(), payload)
	httpkit.OK(c, gin.H{"received": true})
}
