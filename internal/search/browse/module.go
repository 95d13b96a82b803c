package browse

import (
	apphttp "leadscout_backend/internal/http"
	quotaservice "leadscout_backend/internal/quota/service"
	searchservice "leadscout_backend/internal/search/service"
	validationservice "leadscout_backend/internal/validation/service"
	"leadscout_backend/platform/logger"
	"leadscout_backend/platform/validator"
)

type Module struct {
	handler *Handler
}

func NewModule(search *searchservice.Service, validation *validationservice.Service, gate *quotaservice.Gate, log *logger.Logger, val *validator.Validator) *Module {
	manager := NewManager(
		sessionAdapter{svc: search},
		overlayAdapter{svc: validation},
		gateAdapter{gate: gate},
		log,
	)
	return &Module{handler: NewHandler(manager, val)}
}

func (m *Module) Name() string {
	return "browse"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected)
}

var _ apphttp.Module = (*Module)(nil)
