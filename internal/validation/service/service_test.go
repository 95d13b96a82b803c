package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"leadscout_backend/internal/leads/domain"
	"leadscout_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	mu    sync.Mutex
	leads map[uuid.UUID]*domain.Lead

	loadErr error
	markErr error
	marked  []uuid.UUID
}

func newFakeStore(leads ...domain.Lead) *fakeStore {
	store := &fakeStore{leads: make(map[uuid.UUID]*domain.Lead)}
	for i := range leads {
		store.leads[leads[i].ID] = &leads[i]
	}
	return store
}

func (f *fakeStore) GetLeadsByIDs(_ context.Context, companyID uuid.UUID, ids []uuid.UUID) ([]domain.Lead, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	out := make([]domain.Lead, 0, len(ids))
	for _, id := range ids {
		if l, ok := f.leads[id]; ok && l.CompanyID == companyID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeStore) MarkLeadsWhatsApp(_ context.Context, _ uuid.UUID, ids []uuid.UUID) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		if l, ok := f.leads[id]; ok {
			l.HasWhatsApp = true
		}
	}
	f.marked = append(f.marked, ids...)
	return nil
}

type fakeChecker struct {
	mu          sync.Mutex
	exists      map[string]bool
	err         error
	calls       []string
	sessionDown bool
	sessionErr  error
}

func (f *fakeChecker) NumberExists(_ context.Context, phone string) (bool, error) {
	f.mu.Lock()
	f.calls = append(f.calls, phone)
	f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	return f.exists[phone], nil
}

func (f *fakeChecker) SessionConnected(_ context.Context) (bool, error) {
	if f.sessionErr != nil {
		return false, f.sessionErr
	}
	return !f.sessionDown, nil
}

func lead(companyID uuid.UUID, phone string, hasWhatsApp bool) domain.Lead {
	return domain.Lead{
		ID:              uuid.New(),
		CompanyID:       companyID,
		Name:            "Padaria",
		Phone:           phone,
		PhoneNormalized: phone,
		HasWhatsApp:     hasWhatsApp,
	}
}

func TestValidateReturnsOnlyDeltas(t *testing.T) {
	companyID := uuid.New()
	reachable := lead(companyID, "5511987654321", false)
	unreachable := lead(companyID, "5511900000000", false)
	store := newFakeStore(reachable, unreachable)
	checker := &fakeChecker{exists: map[string]bool{"5511987654321": true}}
	svc := New(store, checker, nil, logger.New("test"))

	deltas, err := svc.Validate(context.Background(), companyID, []uuid.UUID{reachable.ID, unreachable.ID})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if len(deltas) != 1 || deltas[0].LeadID != reachable.ID {
		t.Fatalf("deltas = %+v, want only the reachable lead", deltas)
	}
	if !store.leads[reachable.ID].HasWhatsApp {
		t.Error("confirmed lead not persisted")
	}
	if store.leads[unreachable.ID].HasWhatsApp {
		t.Error("unreachable lead must stay unflagged")
	}
}

func TestValidateSkipsFlaggedAndPhoneless(t *testing.T) {
	companyID := uuid.New()
	flagged := lead(companyID, "5511987654321", true)
	phoneless := lead(companyID, "", false)
	store := newFakeStore(flagged, phoneless)
	checker := &fakeChecker{exists: map[string]bool{}}
	svc := New(store, checker, nil, logger.New("test"))

	deltas, err := svc.Validate(context.Background(), companyID, []uuid.UUID{flagged.ID, phoneless.ID})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if len(deltas) != 0 {
		t.Errorf("deltas = %+v, want none", deltas)
	}
	if len(checker.calls) != 0 {
		t.Errorf("checker called %d times for skippable leads", len(checker.calls))
	}
}

func TestValidateFailsOpenOnCheckerError(t *testing.T) {
	companyID := uuid.New()
	l := lead(companyID, "5511987654321", false)
	store := newFakeStore(l)
	checker := &fakeChecker{err: errors.New("connection refused")}
	svc := New(store, checker, nil, logger.New("test"))

	deltas, err := svc.Validate(context.Background(), companyID, []uuid.UUID{l.ID})
	if err != nil {
		t.Fatalf("checker failure must not surface as an error, got %v", err)
	}
	if len(deltas) != 0 {
		t.Errorf("deltas = %+v, want none on degraded validator", deltas)
	}
	if store.leads[l.ID].HasWhatsApp {
		t.Error("degraded validation must not flag leads")
	}
}

func TestValidateFailsOpenOnDisconnectedSession(t *testing.T) {
	companyID := uuid.New()
	l := lead(companyID, "5511987654321", false)

	tests := []struct {
		name    string
		checker *fakeChecker
	}{
		{"session not working", &fakeChecker{sessionDown: true, exists: map[string]bool{"5511987654321": true}}},
		{"session status error", &fakeChecker{sessionErr: errors.New("connection refused")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore(l)
			svc := New(store, tt.checker, nil, logger.New("test"))

			deltas, err := svc.Validate(context.Background(), companyID, []uuid.UUID{l.ID})
			if err != nil || len(deltas) != 0 {
				t.Fatalf("got deltas=%v err=%v, want empty and nil", deltas, err)
			}
			if len(tt.checker.calls) != 0 {
				t.Errorf("number checked %d times through an unavailable session", len(tt.checker.calls))
			}
			if store.leads[l.ID].HasWhatsApp {
				t.Error("lead flagged through an unavailable session")
			}
		})
	}
}

func TestValidateChecksCanonicalNumber(t *testing.T) {
	companyID := uuid.New()
	raw := domain.Lead{
		ID:        uuid.New(),
		CompanyID: companyID,
		Name:      "Padaria",
		Phone:     "(11) 98765-4321",
	}
	store := newFakeStore(raw)
	checker := &fakeChecker{exists: map[string]bool{"5511987654321": true}}
	svc := New(store, checker, nil, logger.New("test"))

	deltas, err := svc.Validate(context.Background(), companyID, []uuid.UUID{raw.ID})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(checker.calls) != 1 || checker.calls[0] != "5511987654321" {
		t.Fatalf("checker called with %v, want the country-prefixed digits", checker.calls)
	}
	if len(deltas) != 1 || deltas[0].LeadID != raw.ID {
		t.Fatalf("deltas = %+v, want the confirmed lead", deltas)
	}
}

func TestValidateFailsOpenOnStoreErrors(t *testing.T) {
	companyID := uuid.New()
	l := lead(companyID, "5511987654321", false)

	t.Run("load failure", func(t *testing.T) {
		store := newFakeStore(l)
		store.loadErr = errors.New("db down")
		svc := New(store, &fakeChecker{}, nil, logger.New("test"))

		deltas, err := svc.Validate(context.Background(), companyID, []uuid.UUID{l.ID})
		if err != nil || len(deltas) != 0 {
			t.Fatalf("got deltas=%v err=%v, want empty and nil", deltas, err)
		}
	})

	t.Run("persist failure", func(t *testing.T) {
		store := newFakeStore(l)
		store.markErr = errors.New("db down")
		checker := &fakeChecker{exists: map[string]bool{"5511987654321": true}}
		svc := New(store, checker, nil, logger.New("test"))

		deltas, err := svc.Validate(context.Background(), companyID, []uuid.UUID{l.ID})
		if err != nil || len(deltas) != 0 {
			t.Fatalf("got deltas=%v err=%v, want empty and nil", deltas, err)
		}
	})
}

func TestValidateWithoutChecker(t *testing.T) {
	companyID := uuid.New()
	l := lead(companyID, "5511987654321", false)
	svc := New(newFakeStore(l), nil, nil, logger.New("test"))

	deltas, err := svc.Validate(context.Background(), companyID, []uuid.UUID{l.ID})
	if err != nil || len(deltas) != 0 {
		t.Fatalf("got deltas=%v err=%v, want empty and nil", deltas, err)
	}
}
