// Package service implements the messaging-capability validation overlay.
// Validation is strictly additive: it can only set the capability flag, and
// any validator failure degrades to "no new information", never to an error.
package service

import (
	"context"
	"strings"
	"sync"

	"leadscout_backend/internal/events"
	"leadscout_backend/internal/leads/domain"
	"leadscout_backend/internal/waha"
	"leadscout_backend/platform/logger"
	"leadscout_backend/platform/phone"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const maxConcurrentChecks = 5

// Store is the persistence surface of the overlay.
type Store interface {
	GetLeadsByIDs(ctx context.Context, companyID uuid.UUID, ids []uuid.UUID) ([]domain.Lead, error)
	MarkLeadsWhatsApp(ctx context.Context, companyID uuid.UUID, ids []uuid.UUID) error
}

// Delta reports one lead that was newly confirmed as reachable.
type Delta struct {
	LeadID uuid.UUID `json:"id"`
}

type Service struct {
	repo    Store
	checker waha.Checker
	bus     events.Bus
	log     *logger.Logger
}

func New(repo Store, checker waha.Checker, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, checker: checker, bus: bus, log: log}
}

// Validate checks the given leads against the capability validator and
// persists the flag for confirmed numbers. Only changed leads are returned.
// Leads without a phone and leads already flagged are skipped. A missing or
// failing validator yields an empty delta list, not an error.
func (s *Service) Validate(ctx context.Context, companyID uuid.UUID, leadIDs []uuid.UUID) ([]Delta, error) {
	if len(leadIDs) == 0 {
		return []Delta{}, nil
	}

	leads, err := s.repo.GetLeadsByIDs(ctx, companyID, leadIDs)
	if err != nil {
		s.log.Error("validation_load_failed", "error", err.Error())
		return []Delta{}, nil
	}

	candidates := make([]domain.Lead, 0, len(leads))
	for _, lead := range leads {
		if lead.HasWhatsApp || !lead.HasPhone() {
			continue
		}
		candidates = append(candidates, lead)
	}
	if len(candidates) == 0 || s.checker == nil {
		return []Delta{}, nil
	}

	// A disconnected messaging session cannot answer per-number checks.
	// Fail open before fanning out.
	if connected, err := s.checker.SessionConnected(ctx); err != nil || !connected {
		s.log.Warn("validation_session_unavailable", "company_id", companyID.String())
		return []Delta{}, nil
	}

	var mu sync.Mutex
	confirmed := make([]uuid.UUID, 0, len(candidates))
	degraded := false

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentChecks)
	for _, lead := range candidates {
		g.Go(func() error {
			number := checkNumber(lead)

			exists, err := s.checker.NumberExists(groupCtx, number)
			if err != nil {
				// Fail open: an unreachable validator means no delta,
				// not a failed request.
				mu.Lock()
				degraded = true
				mu.Unlock()
				return nil
			}
			if exists {
				mu.Lock()
				confirmed = append(confirmed, lead.ID)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if degraded {
		s.log.Warn("validation_degraded", "company_id", companyID.String(), "checked", len(candidates))
	}
	if len(confirmed) == 0 {
		return []Delta{}, nil
	}

	if err := s.repo.MarkLeadsWhatsApp(ctx, companyID, confirmed); err != nil {
		s.log.Error("validation_persist_failed", "error", err.Error())
		return []Delta{}, nil
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.LeadsValidated{
			BaseEvent: events.NewBaseEvent(),
			CompanyID: companyID,
			LeadIDs:   confirmed,
		})
	}

	deltas := make([]Delta, 0, len(confirmed))
	for _, id := range confirmed {
		deltas = append(deltas, Delta{LeadID: id})
	}
	return deltas, nil
}

// checkNumber derives the country-prefixed digits the validator is queried
// with. Valid numbers are round-tripped through E.164 formatting; numbers
// the parser rejects are passed through canonicalized.
func checkNumber(lead domain.Lead) string {
	number := lead.PhoneNormalized
	if number == "" {
		number = phone.Canonical(lead.Phone)
	}
	return strings.TrimPrefix(phone.NormalizeE164("+"+number), "+")
}
