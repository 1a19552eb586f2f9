// Package payments processes provider callbacks that confirm down payments.
package payments

import (
	apphttp "github.com/thimothe-das/fixeo-sub001/internal/http"
	"github.com/thimothe-das/fixeo-sub001/internal/payments/handler"
	"github.com/thimothe-das/fixeo-sub001/internal/payments/service"
	"github.com/thimothe-das/fixeo-sub001/internal/payments/token"
	"github.com/thimothe-das/fixeo-sub001/platform/config"
	"github.com/thimothe-das/fixeo-sub001/platform/logger"
	"github.com/thimothe-das/fixeo-sub001/platform/validator"
)

// ModuleConfig combines the config interfaces the webhook entry point needs.
type ModuleConfig interface {
	config.WebhookConfig
	config.GuestTokenConfig
}

// Module wires the payment webhook endpoint.
type Module struct {
	handler *handler.Handler
}

func NewModule(engine service.Engine, cfg ModuleConfig, val *validator.Validator, log *logger.Logger) *Module {
	verifier := token.NewIssuer(cfg.GetGuestTokenSecret(), cfg.GetGuestTokenTTL())
	svc := service.New(engine, verifier, log)
	h := handler.New(svc, val, log, cfg.GetPaymentWebhookSecret())
	return &Module{handler: h}
}

func (m *Module) Name() string {
	return "payments"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1, ctx.WebhookLimiter)
}

var _ apphttp.Module = (*Module)(nil)
