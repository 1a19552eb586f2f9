// Package disputes stores dispute side records and the evidence files the
// parties submit while a contestation is open.
package disputes

import (
	"github.com/thimothe-das/fixeo-sub001/internal/adapters/storage"
	"github.com/thimothe-das/fixeo-sub001/internal/disputes/handler"
	"github.com/thimothe-das/fixeo-sub001/internal/disputes/repository"
	"github.com/thimothe-das/fixeo-sub001/internal/disputes/service"
	apphttp "github.com/thimothe-das/fixeo-sub001/internal/http"
	"github.com/thimothe-das/fixeo-sub001/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module wires dispute evidence storage and its HTTP routes.
type Module struct {
	repo    *repository.Repository
	service *service.Service
	handler *handler.Handler
}

func NewModule(pool *pgxpool.Pool, objects storage.Service, bucket string, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, objects, bucket, log)
	return &Module{
		repo:    repo,
		service: svc,
		handler: handler.New(svc, log),
	}
}

// Repository exposes the dispute ledger for the lifecycle engine.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

func (m *Module) Name() string {
	return "disputes"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1)
}

var _ apphttp.Module = (*Module)(nil)
