// Package quota wires the usage quota bounded context.
package quota

import (
	"time"

	"leadscout_backend/internal/events"
	apphttp "leadscout_backend/internal/http"
	"leadscout_backend/internal/quota/handler"
	"leadscout_backend/internal/quota/repository"
	"leadscout_backend/internal/quota/service"
	"leadscout_backend/platform/logger"
	"leadscout_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Module struct {
	handler *handler.Handler
	gate    *service.Gate
}

func NewModule(pool *pgxpool.Pool, cacheTTL time.Duration, bus events.Bus, log *logger.Logger, val *validator.Validator) *Module {
	repo := repository.New(pool)
	gate := service.NewGate(repo, service.NewStateCache(cacheTTL), bus, log)
	h := handler.New(gate, val)

	return &Module{handler: h, gate: gate}
}

func (m *Module) Name() string {
	return "quota"
}

// Gate exposes the quota gate to sibling modules (browse).
func (m *Module) Gate() *service.Gate {
	return m.gate
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected)
}

var _ apphttp.Module = (*Module)(nil)
