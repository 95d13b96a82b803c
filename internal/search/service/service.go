// Package service implements search session orchestration: fetching provider
// pages, deduplicating candidates, and persisting the surviving leads.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"leadscout_backend/internal/events"
	"leadscout_backend/internal/leads/domain"
	"leadscout_backend/internal/places"
	"leadscout_backend/internal/search/repository"
	"leadscout_backend/internal/search/transport"
	"leadscout_backend/platform/apperr"
	"leadscout_backend/platform/logger"
	"leadscout_backend/platform/phone"

	"github.com/google/uuid"
)

const historyListLimit = 100
const leadsListLimit = 1000

// Store is the persistence surface the service needs. Implemented by
// repository.Repository; faked in tests.
type Store interface {
	CreateSession(ctx context.Context, s *repository.Session) error
	GetSession(ctx context.Context, companyID, sessionID uuid.UUID) (*repository.Session, error)
	IncrementSessionPage(ctx context.Context, sessionID uuid.UUID) error
	MarkSessionCompleted(ctx context.Context, sessionID uuid.UUID, at time.Time) error
	SetSessionError(ctx context.Context, sessionID uuid.UUID, message string) error
	DeleteSession(ctx context.Context, companyID, sessionID uuid.UUID) (int64, error)

	SessionFingerprints(ctx context.Context, sessionID uuid.UUID) (map[string]struct{}, error)
	InsertLeads(ctx context.Context, leads []domain.Lead) ([]domain.Lead, error)
	ListLeads(ctx context.Context, companyID uuid.UUID, limit int) ([]domain.Lead, error)
	DeleteLead(ctx context.Context, companyID, leadID uuid.UUID) (int64, error)
	DeleteAllLeads(ctx context.Context, companyID uuid.UUID) (int64, error)
	HistoryLeadNames(ctx context.Context, historyID uuid.UUID) (map[string]struct{}, error)

	CreateHistory(ctx context.Context, h *repository.History) error
	IncrementHistoryResults(ctx context.Context, historyID uuid.UUID, delta int) error
	ListHistory(ctx context.Context, companyID uuid.UUID, limit int) ([]repository.History, error)
}

// SessionResult is the outcome of one fetched page.
type SessionResult struct {
	Session  *repository.Session
	Leads    []domain.Lead
	HasMore  bool
	Inserted int
}

type Service struct {
	repo     Store
	provider places.Provider
	bus      events.Bus
	log      *logger.Logger
}

func New(repo Store, provider places.Provider, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, provider: provider, bus: bus, log: log}
}

// CreateSession opens a new search session for the caller's company and
// fetches its first page. The target company must match the caller's scope.
func (s *Service) CreateSession(ctx context.Context, callerCompanyID, targetCompanyID, userID uuid.UUID, query, location string) (*SessionResult, error) {
	if targetCompanyID != callerCompanyID {
		return nil, apperr.Forbidden("cannot search on behalf of another company").WithOp("search.CreateSession")
	}

	query = strings.TrimSpace(query)
	location = strings.TrimSpace(location)
	if query == "" {
		return nil, apperr.Validation("query is required").WithOp("search.CreateSession")
	}

	now := time.Now().UTC()
	history := &repository.History{
		ID:        uuid.New(),
		CompanyID: callerCompanyID,
		UserID:    userID,
		Query:     query,
		Location:  location,
		CreatedAt: now,
	}
	if err := s.repo.CreateHistory(ctx, history); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to record search history", err).WithOp("search.CreateSession")
	}

	session := &repository.Session{
		ID:          uuid.New(),
		CompanyID:   callerCompanyID,
		UserID:      userID,
		HistoryID:   history.ID,
		Query:       query,
		Location:    location,
		CurrentPage: 0,
		Status:      repository.StatusActive,
		CreatedAt:   now,
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to create search session", err).WithOp("search.CreateSession")
	}

	result, err := s.fetchAndPersist(ctx, session)
	if err != nil {
		return nil, err
	}

	if err := s.repo.IncrementSessionPage(ctx, session.ID); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to advance session page", err).WithOp("search.CreateSession")
	}
	session.CurrentPage++

	return result, nil
}

// ContinueSession fetches the next provider page for an active session.
func (s *Service) ContinueSession(ctx context.Context, callerCompanyID, sessionID uuid.UUID) (*SessionResult, error) {
	session, err := s.getScopedSession(ctx, callerCompanyID, sessionID, "search.ContinueSession")
	if err != nil {
		return nil, err
	}
	if session.Status == repository.StatusCompleted {
		return nil, apperr.Conflict("search session is already completed").WithOp("search.ContinueSession")
	}

	result, err := s.fetchAndPersist(ctx, session)
	if err != nil {
		return nil, err
	}

	if err := s.repo.IncrementSessionPage(ctx, session.ID); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to advance session page", err).WithOp("search.ContinueSession")
	}
	session.CurrentPage++

	return result, nil
}

// CompleteSession closes a session. Completing an already completed session
// is a no-op that returns the session unchanged.
func (s *Service) CompleteSession(ctx context.Context, callerCompanyID, sessionID uuid.UUID) (*repository.Session, error) {
	session, err := s.getScopedSession(ctx, callerCompanyID, sessionID, "search.CompleteSession")
	if err != nil {
		return nil, err
	}
	if session.Status == repository.StatusCompleted {
		return session, nil
	}

	now := time.Now().UTC()
	if err := s.repo.MarkSessionCompleted(ctx, session.ID, now); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to complete session", err).WithOp("search.CompleteSession")
	}
	session.Status = repository.StatusCompleted
	session.CompletedAt = &now

	if s.bus != nil {
		s.bus.Publish(ctx, events.SearchSessionCompleted{
			BaseEvent: events.NewBaseEvent(),
			CompanyID: session.CompanyID,
			SessionID: session.ID,
		})
	}

	return session, nil
}

// fetchAndPersist pulls the page at the session's current offset, drops
// candidates whose fingerprint was already captured in this session (first
// occurrence wins), and stores the survivors.
func (s *Service) fetchAndPersist(ctx context.Context, session *repository.Session) (*SessionResult, error) {
	pageSize := s.provider.PageSize()
	offset := session.CurrentPage * pageSize

	candidates, err := s.provider.Fetch(ctx, session.Query, session.Location, offset)
	if err != nil {
		if setErr := s.repo.SetSessionError(ctx, session.ID, err.Error()); setErr != nil {
			s.log.DatabaseError("search.SetSessionError", setErr)
		}
		return nil, err
	}

	rawCount := len(candidates)
	hasMore := rawCount == pageSize

	seen, err := s.repo.SessionFingerprints(ctx, session.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load session fingerprints", err)
	}

	now := time.Now().UTC()
	batch := make([]domain.Lead, 0, rawCount)
	for _, candidate := range candidates {
		fp := domain.Fingerprint(candidate.Name, candidate.Address, candidate.Phone)
		if _, dup := seen[fp]; dup {
			continue
		}
		seen[fp] = struct{}{}

		normalized := ""
		if candidate.Phone != "" {
			normalized = phone.Canonical(candidate.Phone)
		}

		sessionID := session.ID
		historyID := session.HistoryID
		batch = append(batch, domain.Lead{
			ID:              uuid.New(),
			CompanyID:       session.CompanyID,
			SearchSessionID: &sessionID,
			HistoryID:       &historyID,
			Name:            candidate.Name,
			Phone:           candidate.Phone,
			PhoneNormalized: normalized,
			Fingerprint:     fp,
			Address:         candidate.Address,
			Category:        candidate.Category,
			Website:         candidate.Website,
			Rating:          candidate.Rating,
			ReviewsCount:    candidate.ReviewsCount,
			HasWhatsApp:     false,
			CreatedAt:       now,
		})
	}

	inserted, err := s.repo.InsertLeads(ctx, batch)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to persist leads", err)
	}

	// The history counter tracks stored leads, not raw provider rows. A
	// failed counter update must not undo the insert.
	if len(inserted) > 0 {
		if err := s.repo.IncrementHistoryResults(ctx, session.HistoryID, len(inserted)); err != nil {
			s.log.DatabaseError("search.IncrementHistoryResults", err)
		}
	}

	if s.bus != nil && len(inserted) > 0 {
		s.bus.Publish(ctx, events.LeadsCaptured{
			BaseEvent: events.NewBaseEvent(),
			CompanyID: session.CompanyID,
			SessionID: session.ID,
			Query:     session.Query,
			Location:  session.Location,
			Page:      session.CurrentPage,
			Inserted:  len(inserted),
		})
	}

	return &SessionResult{
		Session:  session,
		Leads:    inserted,
		HasMore:  hasMore,
		Inserted: len(inserted),
	}, nil
}

// LegacySearch serves the original v1 contract: a single page fetch without a
// session, deduplicated by lowercased name within the history record.
func (s *Service) LegacySearch(ctx context.Context, companyID, userID uuid.UUID, req transport.LegacySearchRequest) (*transport.LegacySearchResponse, error) {
	query := strings.TrimSpace(req.Query)
	location := strings.TrimSpace(req.Location)
	if query == "" || location == "" {
		return nil, apperr.Validation("query and location are required").WithOp("search.LegacySearch")
	}

	now := time.Now().UTC()
	var historyID uuid.UUID
	if req.HistoryID != "" {
		parsed, err := uuid.Parse(req.HistoryID)
		if err != nil {
			return nil, apperr.Validation("invalid history id").WithOp("search.LegacySearch")
		}
		historyID = parsed
	} else {
		history := &repository.History{
			ID:        uuid.New(),
			CompanyID: companyID,
			UserID:    userID,
			Query:     query,
			Location:  location,
			CreatedAt: now,
		}
		if err := s.repo.CreateHistory(ctx, history); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "failed to record search history", err).WithOp("search.LegacySearch")
		}
		historyID = history.ID
	}

	candidates, err := s.provider.Fetch(ctx, query, location, req.Start)
	if err != nil {
		return nil, err
	}

	knownNames, err := s.repo.HistoryLeadNames(ctx, historyID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load history leads", err).WithOp("search.LegacySearch")
	}

	batch := make([]domain.Lead, 0, len(candidates))
	for _, candidate := range candidates {
		nameKey := strings.ToLower(strings.TrimSpace(candidate.Name))
		if _, dup := knownNames[nameKey]; dup {
			continue
		}
		knownNames[nameKey] = struct{}{}

		normalized := ""
		if candidate.Phone != "" {
			normalized = phone.Canonical(candidate.Phone)
		}

		hid := historyID
		batch = append(batch, domain.Lead{
			ID:              uuid.New(),
			CompanyID:       companyID,
			HistoryID:       &hid,
			Name:            candidate.Name,
			Phone:           candidate.Phone,
			PhoneNormalized: normalized,
			Fingerprint:     domain.Fingerprint(candidate.Name, candidate.Address, candidate.Phone),
			Address:         candidate.Address,
			Category:        candidate.Category,
			Website:         candidate.Website,
			Rating:          candidate.Rating,
			ReviewsCount:    candidate.ReviewsCount,
			CreatedAt:       now,
		})
	}

	inserted, err := s.repo.InsertLeads(ctx, batch)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to persist leads", err).WithOp("search.LegacySearch")
	}

	if len(inserted) > 0 {
		if err := s.repo.IncrementHistoryResults(ctx, historyID, len(inserted)); err != nil {
			s.log.DatabaseError("search.IncrementHistoryResults", err)
		}
	}

	pageSize := s.provider.PageSize()
	return &transport.LegacySearchResponse{
		Success:   true,
		Count:     len(inserted),
		HasMore:   len(candidates) == pageSize,
		NextStart: req.Start + pageSize,
		HistoryID: historyID.String(),
		Leads:     inserted,
	}, nil
}

// ---------------------------------------------------------------------------
// Listing and deletion
// ---------------------------------------------------------------------------

func (s *Service) History(ctx context.Context, companyID uuid.UUID) ([]repository.History, error) {
	items, err := s.repo.ListHistory(ctx, companyID, historyListLimit)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list search history", err).WithOp("search.History")
	}
	return items, nil
}

func (s *Service) ListLeads(ctx context.Context, companyID uuid.UUID) ([]domain.Lead, error) {
	leads, err := s.repo.ListLeads(ctx, companyID, leadsListLimit)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list leads", err).WithOp("search.ListLeads")
	}
	return leads, nil
}

func (s *Service) DeleteLead(ctx context.Context, companyID, leadID uuid.UUID) error {
	affected, err := s.repo.DeleteLead(ctx, companyID, leadID)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to delete lead", err).WithOp("search.DeleteLead")
	}
	if affected == 0 {
		return apperr.NotFound("lead not found").WithOp("search.DeleteLead")
	}
	return nil
}

func (s *Service) DeleteSession(ctx context.Context, companyID, sessionID uuid.UUID) error {
	affected, err := s.repo.DeleteSession(ctx, companyID, sessionID)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to delete session", err).WithOp("search.DeleteSession")
	}
	if affected == 0 {
		return apperr.NotFound("search session not found").WithOp("search.DeleteSession")
	}
	return nil
}

func (s *Service) ClearLeads(ctx context.Context, companyID uuid.UUID) (int64, error) {
	deleted, err := s.repo.DeleteAllLeads(ctx, companyID)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindInternal, "failed to clear leads", err).WithOp("search.ClearLeads")
	}
	return deleted, nil
}

func (s *Service) getScopedSession(ctx context.Context, companyID, sessionID uuid.UUID, op string) (*repository.Session, error) {
	session, err := s.repo.GetSession(ctx, companyID, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("search session not found").WithOp(op)
		}
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load session", err).WithOp(op)
	}
	return session, nil
}
