// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"leadscout_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Search Domain Events
// =============================================================================

// LeadsCaptured is published after a search page has been fetched and the
// surviving (deduplicated) leads were persisted.
type LeadsCaptured struct {
	BaseEvent
	CompanyID uuid.UUID `json:"companyId"`
	SessionID uuid.UUID `json:"sessionId"`
	Query     string    `json:"query"`
	Location  string    `json:"location"`
	Page      int       `json:"page"`
	Inserted  int       `json:"inserted"`
}

func (e LeadsCaptured) EventName() string { return "search.leads.captured" }

// SearchSessionCompleted is published when a session is explicitly closed.
type SearchSessionCompleted struct {
	BaseEvent
	CompanyID uuid.UUID `json:"companyId"`
	SessionID uuid.UUID `json:"sessionId"`
}

func (e SearchSessionCompleted) EventName() string { return "search.session.completed" }

// =============================================================================
// Validation Domain Events
// =============================================================================

// LeadsValidated is published after a capability validation pass confirmed
// one or more leads as reachable.
type LeadsValidated struct {
	BaseEvent
	CompanyID uuid.UUID   `json:"companyId"`
	LeadIDs   []uuid.UUID `json:"leadIds"`
}

func (e LeadsValidated) EventName() string { return "validation.leads.validated" }

// =============================================================================
// Quota Domain Events
// =============================================================================

// QuotaIncrementFailed is published when a post-success usage increment could
// not be persisted. Consumers reconcile usage out of band; the originating
// operation has already succeeded and is never rolled back.
type QuotaIncrementFailed struct {
	BaseEvent
	UserID uuid.UUID `json:"userId"`
	Action string    `json:"action"`
	Amount int       `json:"amount"`
	Reason string    `json:"reason"`
}

func (e QuotaIncrementFailed) EventName() string { return "quota.increment.failed" }

// QuotaUsageReset is published after a user's usage counters were zeroed at
// the start of a new billing period.
type QuotaUsageReset struct {
	BaseEvent
	UserID uuid.UUID `json:"userId"`
}

func (e QuotaUsageReset) EventName() string { return "quota.usage.reset" }
