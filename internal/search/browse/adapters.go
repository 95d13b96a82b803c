package browse

import (
	"context"

	quotaservice "leadscout_backend/internal/quota/service"
	searchservice "leadscout_backend/internal/search/service"
	validationservice "leadscout_backend/internal/validation/service"

	"github.com/google/uuid"
)

// sessionAdapter narrows the search service to the browser's needs.
type sessionAdapter struct {
	svc *searchservice.Service
}

func (a sessionAdapter) CreateSession(ctx context.Context, callerCompanyID, targetCompanyID, userID uuid.UUID, query, location string) (*SessionPage, error) {
	result, err := a.svc.CreateSession(ctx, callerCompanyID, targetCompanyID, userID, query, location)
	if err != nil {
		return nil, err
	}
	return &SessionPage{SessionID: result.Session.ID, Leads: result.Leads, HasMore: result.HasMore}, nil
}

func (a sessionAdapter) ContinueSession(ctx context.Context, callerCompanyID, sessionID uuid.UUID) (*SessionPage, error) {
	result, err := a.svc.ContinueSession(ctx, callerCompanyID, sessionID)
	if err != nil {
		return nil, err
	}
	return &SessionPage{SessionID: result.Session.ID, Leads: result.Leads, HasMore: result.HasMore}, nil
}

func (a sessionAdapter) CompleteSession(ctx context.Context, callerCompanyID, sessionID uuid.UUID) error {
	_, err := a.svc.CompleteSession(ctx, callerCompanyID, sessionID)
	return err
}

func (a sessionAdapter) DeleteLead(ctx context.Context, companyID, leadID uuid.UUID) error {
	return a.svc.DeleteLead(ctx, companyID, leadID)
}

// overlayAdapter narrows the validation service to ID deltas.
type overlayAdapter struct {
	svc *validationservice.Service
}

func (a overlayAdapter) Validate(ctx context.Context, companyID uuid.UUID, leadIDs []uuid.UUID) ([]uuid.UUID, error) {
	deltas, err := a.svc.Validate(ctx, companyID, leadIDs)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(deltas))
	for _, d := range deltas {
		ids = append(ids, d.LeadID)
	}
	return ids, nil
}

// gateAdapter binds the quota gate to the leads action.
type gateAdapter struct {
	gate *quotaservice.Gate
}

func (a gateAdapter) Allow(ctx context.Context, userID uuid.UUID) (bool, error) {
	decision, err := a.gate.Check(ctx, userID, quotaservice.ActionLeads)
	if err != nil {
		return false, err
	}
	return decision.Allowed, nil
}

func (a gateAdapter) Consume(ctx context.Context, userID uuid.UUID, amount int) {
	a.gate.Increment(ctx, userID, quotaservice.ActionLeads, amount)
}
