package events

import (
	"context"

	"leadscout_backend/platform/logger"
)

// AuditLogger writes one structured log line per domain event. It is the
// baseline bus subscriber: every published event is observable in the logs
// even when no other module consumes it.
type AuditLogger struct {
	log *logger.Logger
}

func NewAuditLogger(log *logger.Logger) *AuditLogger {
	return &AuditLogger{log: log}
}

// RegisterHandlers subscribes the audit logger to every domain event.
func (a *AuditLogger) RegisterHandlers(bus Bus) {
	handler := HandlerFunc(a.handle)
	for _, name := range []string{
		LeadsCaptured{}.EventName(),
		SearchSessionCompleted{}.EventName(),
		LeadsValidated{}.EventName(),
		QuotaIncrementFailed{}.EventName(),
		QuotaUsageReset{}.EventName(),
	} {
		bus.Subscribe(name, handler)
	}
}

func (a *AuditLogger) handle(_ context.Context, event Event) error {
	a.log.Info("domain_event",
		"event", event.EventName(),
		"occurred_at", event.OccurredAt(),
		"payload", event,
	)
	return nil
}
