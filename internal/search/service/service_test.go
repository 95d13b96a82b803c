package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"leadscout_backend/internal/leads/domain"
	"leadscout_backend/internal/places"
	"leadscout_backend/internal/search/repository"
	"leadscout_backend/internal/search/transport"
	"leadscout_backend/platform/apperr"
	"leadscout_backend/platform/logger"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

type fakeProvider struct {
	pageSize int
	pages    map[int][]places.Candidate
	offsets  []int
	err      error
}

func (p *fakeProvider) Fetch(_ context.Context, _, _ string, offset int) ([]places.Candidate, error) {
	p.offsets = append(p.offsets, offset)
	if p.err != nil {
		return nil, p.err
	}
	return p.pages[offset], nil
}

func (p *fakeProvider) PageSize() int { return p.pageSize }

type fakeStore struct {
	sessions  map[uuid.UUID]*repository.Session
	histories map[uuid.UUID]*repository.History
	leads     []domain.Lead
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions:  make(map[uuid.UUID]*repository.Session),
		histories: make(map[uuid.UUID]*repository.History),
	}
}

func (f *fakeStore) CreateSession(_ context.Context, s *repository.Session) error {
	copied := *s
	f.sessions[s.ID] = &copied
	return nil
}

func (f *fakeStore) GetSession(_ context.Context, companyID, sessionID uuid.UUID) (*repository.Session, error) {
	s, ok := f.sessions[sessionID]
	if !ok || s.CompanyID != companyID {
		return nil, repository.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (f *fakeStore) IncrementSessionPage(_ context.Context, sessionID uuid.UUID) error {
	f.sessions[sessionID].CurrentPage++
	return nil
}

func (f *fakeStore) MarkSessionCompleted(_ context.Context, sessionID uuid.UUID, at time.Time) error {
	s := f.sessions[sessionID]
	if s.Status != repository.StatusCompleted {
		s.Status = repository.StatusCompleted
		s.CompletedAt = &at
	}
	return nil
}

func (f *fakeStore) SetSessionError(_ context.Context, sessionID uuid.UUID, message string) error {
	if s, ok := f.sessions[sessionID]; ok {
		s.ErrorMessage = message
	}
	return nil
}

func (f *fakeStore) DeleteSession(_ context.Context, companyID, sessionID uuid.UUID) (int64, error) {
	s, ok := f.sessions[sessionID]
	if !ok || s.CompanyID != companyID {
		return 0, nil
	}
	delete(f.sessions, sessionID)
	kept := f.leads[:0]
	for _, l := range f.leads {
		if l.SearchSessionID == nil || *l.SearchSessionID != sessionID {
			kept = append(kept, l)
		}
	}
	f.leads = kept
	return 1, nil
}

func (f *fakeStore) SessionFingerprints(_ context.Context, sessionID uuid.UUID) (map[string]struct{}, error) {
	seen := make(map[string]struct{})
	for _, l := range f.leads {
		if l.SearchSessionID != nil && *l.SearchSessionID == sessionID {
			seen[l.Fingerprint] = struct{}{}
		}
	}
	return seen, nil
}

func (f *fakeStore) InsertLeads(_ context.Context, leads []domain.Lead) ([]domain.Lead, error) {
	inserted := make([]domain.Lead, 0, len(leads))
	for _, lead := range leads {
		dup := false
		for _, existing := range f.leads {
			if existing.CompanyID == lead.CompanyID &&
				existing.SearchSessionID != nil && lead.SearchSessionID != nil &&
				*existing.SearchSessionID == *lead.SearchSessionID &&
				existing.Fingerprint == lead.Fingerprint {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		f.leads = append(f.leads, lead)
		inserted = append(inserted, lead)
	}
	return inserted, nil
}

func (f *fakeStore) ListLeads(_ context.Context, companyID uuid.UUID, _ int) ([]domain.Lead, error) {
	out := make([]domain.Lead, 0)
	for _, l := range f.leads {
		if l.CompanyID == companyID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteLead(_ context.Context, companyID, leadID uuid.UUID) (int64, error) {
	for i, l := range f.leads {
		if l.ID == leadID && l.CompanyID == companyID {
			f.leads = append(f.leads[:i], f.leads[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeStore) DeleteAllLeads(_ context.Context, companyID uuid.UUID) (int64, error) {
	var deleted int64
	kept := f.leads[:0]
	for _, l := range f.leads {
		if l.CompanyID == companyID {
			deleted++
			continue
		}
		kept = append(kept, l)
	}
	f.leads = kept
	return deleted, nil
}

func (f *fakeStore) HistoryLeadNames(_ context.Context, historyID uuid.UUID) (map[string]struct{}, error) {
	names := make(map[string]struct{})
	for _, l := range f.leads {
		if l.HistoryID != nil && *l.HistoryID == historyID {
			names[lowerTrim(l.Name)] = struct{}{}
		}
	}
	return names, nil
}

func (f *fakeStore) CreateHistory(_ context.Context, h *repository.History) error {
	copied := *h
	f.histories[h.ID] = &copied
	return nil
}

func (f *fakeStore) IncrementHistoryResults(_ context.Context, historyID uuid.UUID, delta int) error {
	if h, ok := f.histories[historyID]; ok {
		h.ResultsCount += delta
	}
	return nil
}

func (f *fakeStore) ListHistory(_ context.Context, companyID uuid.UUID, _ int) ([]repository.History, error) {
	out := make([]repository.History, 0)
	for _, h := range f.histories {
		if h.CompanyID == companyID {
			out = append(out, *h)
		}
	}
	return out, nil
}

func lowerTrim(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func fullPage(offset, size int) []places.Candidate {
	page := make([]places.Candidate, size)
	for i := range page {
		page[i] = places.Candidate{
			Name:    fmt.Sprintf("Padaria %d", offset+i+1),
			Phone:   fmt.Sprintf("(11) 9%04d-0000", offset+i),
			Address: fmt.Sprintf("Rua %d", offset+i+1),
		}
	}
	return page
}

func newService(provider places.Provider) (*Service, *fakeStore) {
	store := newFakeStore()
	return New(store, provider, nil, logger.New("test")), store
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestCreateSessionFetchesFirstPage(t *testing.T) {
	companyID := uuid.New()
	provider := &fakeProvider{pageSize: 20, pages: map[int][]places.Candidate{0: fullPage(0, 20)}}
	svc, store := newService(provider)

	result, err := svc.CreateSession(context.Background(), companyID, companyID, uuid.New(), "padaria", "São Paulo")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	if len(result.Leads) != 20 {
		t.Errorf("inserted %d leads, want 20", len(result.Leads))
	}
	if !result.HasMore {
		t.Error("full page must report hasMore")
	}
	if result.Session.CurrentPage != 1 {
		t.Errorf("currentPage = %d after create, want 1", result.Session.CurrentPage)
	}
	if len(provider.offsets) != 1 || provider.offsets[0] != 0 {
		t.Errorf("provider offsets = %v, want [0]", provider.offsets)
	}
	if len(store.histories) != 1 {
		t.Fatalf("expected one history record, got %d", len(store.histories))
	}
	for _, h := range store.histories {
		if h.ResultsCount != 20 {
			t.Errorf("history results_count = %d, want 20", h.ResultsCount)
		}
	}
}

func TestCreateSessionScopeMismatch(t *testing.T) {
	provider := &fakeProvider{pageSize: 20}
	svc, _ := newService(provider)

	_, err := svc.CreateSession(context.Background(), uuid.New(), uuid.New(), uuid.New(), "padaria", "SP")
	if !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("expected KindForbidden, got %v", err)
	}
	if len(provider.offsets) != 0 {
		t.Error("provider must not be called on scope mismatch")
	}
}

func TestCreateSessionEmptyQuery(t *testing.T) {
	companyID := uuid.New()
	svc, _ := newService(&fakeProvider{pageSize: 20})

	_, err := svc.CreateSession(context.Background(), companyID, companyID, uuid.New(), "   ", "SP")
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected KindValidation, got %v", err)
	}
}

func TestContinueSessionOffsetArithmetic(t *testing.T) {
	companyID := uuid.New()
	provider := &fakeProvider{pageSize: 20, pages: map[int][]places.Candidate{
		0:  fullPage(0, 20),
		20: fullPage(20, 20),
		40: fullPage(40, 7),
	}}
	svc, _ := newService(provider)

	created, err := svc.CreateSession(context.Background(), companyID, companyID, uuid.New(), "padaria", "SP")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	sessionID := created.Session.ID

	second, err := svc.ContinueSession(context.Background(), companyID, sessionID)
	if err != nil {
		t.Fatalf("ContinueSession page 2: %v", err)
	}
	if !second.HasMore {
		t.Error("full second page must report hasMore")
	}

	third, err := svc.ContinueSession(context.Background(), companyID, sessionID)
	if err != nil {
		t.Fatalf("ContinueSession page 3: %v", err)
	}
	if third.HasMore {
		t.Error("short page must report hasMore=false")
	}
	if len(third.Leads) != 7 {
		t.Errorf("third page inserted %d, want 7", len(third.Leads))
	}

	want := []int{0, 20, 40}
	if len(provider.offsets) != len(want) {
		t.Fatalf("provider offsets = %v, want %v", provider.offsets, want)
	}
	for i, offset := range want {
		if provider.offsets[i] != offset {
			t.Errorf("fetch %d used offset %d, want %d", i, provider.offsets[i], offset)
		}
	}
}

func TestSessionDedupFirstWins(t *testing.T) {
	companyID := uuid.New()
	duplicate := places.Candidate{Name: "Padaria Estrela", Phone: "(11) 98765-4321", Address: "Rua A"}
	provider := &fakeProvider{pageSize: 3, pages: map[int][]places.Candidate{
		0: {duplicate, {Name: "Padaria Lua", Address: "Rua B"}, duplicate},
		3: {duplicate, {Name: "Padaria Sol", Address: "Rua C"}, {Name: "Padaria Mar", Address: "Rua D"}},
	}}
	svc, store := newService(provider)

	first, err := svc.CreateSession(context.Background(), companyID, companyID, uuid.New(), "padaria", "SP")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if len(first.Leads) != 2 {
		t.Fatalf("first page inserted %d, want 2 (in-page duplicate dropped)", len(first.Leads))
	}

	second, err := svc.ContinueSession(context.Background(), companyID, first.Session.ID)
	if err != nil {
		t.Fatalf("ContinueSession: %v", err)
	}
	if len(second.Leads) != 2 {
		t.Fatalf("second page inserted %d, want 2 (cross-page duplicate dropped)", len(second.Leads))
	}

	if len(store.leads) != 4 {
		t.Errorf("store holds %d leads, want 4", len(store.leads))
	}
}

func TestContinueCompletedSessionFails(t *testing.T) {
	companyID := uuid.New()
	provider := &fakeProvider{pageSize: 20, pages: map[int][]places.Candidate{0: fullPage(0, 20)}}
	svc, _ := newService(provider)

	created, err := svc.CreateSession(context.Background(), companyID, companyID, uuid.New(), "padaria", "SP")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	if _, err := svc.CompleteSession(context.Background(), companyID, created.Session.ID); err != nil {
		t.Fatalf("CompleteSession: %v", err)
	}

	_, err = svc.ContinueSession(context.Background(), companyID, created.Session.ID)
	if !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("expected KindConflict, got %v", err)
	}
}

func TestCompleteSessionIdempotent(t *testing.T) {
	companyID := uuid.New()
	provider := &fakeProvider{pageSize: 20, pages: map[int][]places.Candidate{0: fullPage(0, 20)}}
	svc, _ := newService(provider)

	created, err := svc.CreateSession(context.Background(), companyID, companyID, uuid.New(), "padaria", "SP")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	first, err := svc.CompleteSession(context.Background(), companyID, created.Session.ID)
	if err != nil {
		t.Fatalf("first complete: %v", err)
	}
	if first.CompletedAt == nil {
		t.Fatal("completedAt not set")
	}

	second, err := svc.CompleteSession(context.Background(), companyID, created.Session.ID)
	if err != nil {
		t.Fatalf("second complete must be a no-op, got %v", err)
	}
	if !second.CompletedAt.Equal(*first.CompletedAt) {
		t.Error("second complete changed completedAt")
	}
}

func TestContinueUnknownSession(t *testing.T) {
	svc, _ := newService(&fakeProvider{pageSize: 20})

	_, err := svc.ContinueSession(context.Background(), uuid.New(), uuid.New())
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("expected KindNotFound, got %v", err)
	}
}

func TestProviderErrorRecordedOnSession(t *testing.T) {
	companyID := uuid.New()
	provider := &fakeProvider{pageSize: 20, pages: map[int][]places.Candidate{0: fullPage(0, 20)}}
	svc, store := newService(provider)

	created, err := svc.CreateSession(context.Background(), companyID, companyID, uuid.New(), "padaria", "SP")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	provider.err = apperr.Upstream("quota exhausted")
	_, err = svc.ContinueSession(context.Background(), companyID, created.Session.ID)
	if !apperr.IsKind(err, apperr.KindUpstream) {
		t.Fatalf("expected KindUpstream, got %v", err)
	}

	session := store.sessions[created.Session.ID]
	if session.ErrorMessage == "" {
		t.Error("provider failure not recorded on session")
	}
	if session.Status != repository.StatusActive {
		t.Error("failed fetch must leave the session active and retryable")
	}
}

func TestLegacySearchNameDedup(t *testing.T) {
	companyID := uuid.New()
	provider := &fakeProvider{pageSize: 3, pages: map[int][]places.Candidate{
		0: {
			{Name: "Padaria Estrela", Address: "Rua A"},
			{Name: "Padaria Lua", Address: "Rua B"},
			{Name: "Padaria Estrela", Address: "Rua Z"}, // same name, different address
		},
	}}
	svc, _ := newService(provider)

	result, err := svc.LegacySearch(context.Background(), companyID, uuid.New(), transport.LegacySearchRequest{
		Query:    "padaria",
		Location: "São Paulo",
	})
	if err != nil {
		t.Fatalf("LegacySearch: %v", err)
	}

	if !result.Success {
		t.Error("success flag not set")
	}
	if result.Count != 2 {
		t.Errorf("count = %d, want 2 (name dedup)", result.Count)
	}
	if !result.HasMore {
		t.Error("full page must report hasMore")
	}
	if result.NextStart != 3 {
		t.Errorf("nextStart = %d, want 3", result.NextStart)
	}
	if result.HistoryID == "" {
		t.Error("history id missing")
	}
}

func TestEndToEndPadariaScenario(t *testing.T) {
	companyID := uuid.New()
	provider := &fakeProvider{pageSize: 20, pages: map[int][]places.Candidate{
		0:  fullPage(0, 20),
		20: fullPage(20, 20),
	}}
	svc, store := newService(provider)

	created, err := svc.CreateSession(context.Background(), companyID, companyID, uuid.New(), "padaria", "São Paulo")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	for _, lead := range created.Leads {
		if lead.PhoneNormalized == "" {
			t.Fatalf("lead %s missing normalized phone", lead.Name)
		}
		if lead.PhoneNormalized[:2] != "55" {
			t.Errorf("normalized phone %q lacks country prefix", lead.PhoneNormalized)
		}
		if lead.HasWhatsApp {
			t.Error("fresh leads must start without the capability flag")
		}
	}

	more, err := svc.ContinueSession(context.Background(), companyID, created.Session.ID)
	if err != nil {
		t.Fatalf("ContinueSession: %v", err)
	}
	if len(more.Leads) != 20 {
		t.Errorf("second page inserted %d, want 20", len(more.Leads))
	}

	session, err := svc.CompleteSession(context.Background(), companyID, created.Session.ID)
	if err != nil {
		t.Fatalf("CompleteSession: %v", err)
	}
	if session.Status != repository.StatusCompleted {
		t.Errorf("status = %s, want completed", session.Status)
	}

	all, _ := store.ListLeads(context.Background(), companyID, 0)
	if len(all) != 40 {
		t.Errorf("total captured leads = %d, want 40", len(all))
	}
}
