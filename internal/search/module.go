// Package search wires the lead search bounded context: provider-backed
// search sessions, history, and lead management.
package search

import (
	"leadscout_backend/internal/events"
	apphttp "leadscout_backend/internal/http"
	"leadscout_backend/internal/places"
	"leadscout_backend/internal/search/handler"
	"leadscout_backend/internal/search/repository"
	"leadscout_backend/internal/search/service"
	"leadscout_backend/platform/logger"
	"leadscout_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	handler *handler.Handler
	svc     *service.Service
}

func NewModule(pool *pgxpool.Pool, provider places.Provider, bus events.Bus, log *logger.Logger, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, provider, bus, log)
	h := handler.New(svc, val)

	return &Module{handler: h, svc: svc}
}

func (m *Module) Name() string {
	return "search"
}

// Service exposes the session manager to sibling modules (browse).
func (m *Module) Service() *service.Service {
	return m.svc
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected, ctx.SearchRateLimiter.RateLimit())
}

var _ apphttp.Module = (*Module)(nil)
