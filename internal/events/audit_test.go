package events

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"leadscout_backend/platform/logger"

	"github.com/google/uuid"
)

func TestAuditLoggerObservesPublishedEvents(t *testing.T) {
	var buf bytes.Buffer
	log := &logger.Logger{Logger: slog.New(slog.NewTextHandler(&buf, nil))}

	bus := NewInMemoryBus(log)
	NewAuditLogger(log).RegisterHandlers(bus)

	bus.Publish(context.Background(), LeadsCaptured{
		BaseEvent: NewBaseEvent(),
		CompanyID: uuid.New(),
		SessionID: uuid.New(),
		Query:     "padaria",
		Location:  "São Paulo",
		Page:      0,
		Inserted:  20,
	})
	bus.Publish(context.Background(), QuotaIncrementFailed{
		BaseEvent: NewBaseEvent(),
		UserID:    uuid.New(),
		Action:    "leads",
		Amount:    20,
		Reason:    "db down",
	})
	bus.Wait()

	out := buf.String()
	for _, want := range []string{"search.leads.captured", "quota.increment.failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("audit log missing event %q:\n%s", want, out)
		}
	}
}
