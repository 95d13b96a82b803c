// Package browse implements interactive lead browsing on top of search
// sessions: a per-user page cache, a selection tracker, and quota gating.
// It mirrors what the original result-browsing UI kept in memory.
package browse

import (
	"context"
	"sync"

	"leadscout_backend/internal/leads/domain"
	"leadscout_backend/platform/apperr"
	"leadscout_backend/platform/logger"

	"github.com/google/uuid"
)

// ErrBusy is returned when a Search or GoToPage call arrives while another
// one is still running. Concurrent requests are rejected, never queued.
var ErrBusy = apperr.Conflict("another search operation is in progress")

// SessionManager is the slice of the search service the browser needs.
type SessionManager interface {
	CreateSession(ctx context.Context, callerCompanyID, targetCompanyID, userID uuid.UUID, query, location string) (*SessionPage, error)
	ContinueSession(ctx context.Context, callerCompanyID, sessionID uuid.UUID) (*SessionPage, error)
	CompleteSession(ctx context.Context, callerCompanyID, sessionID uuid.UUID) error
	DeleteLead(ctx context.Context, companyID, leadID uuid.UUID) error
}

// SessionPage is one fetched page of a session.
type SessionPage struct {
	SessionID uuid.UUID
	Leads     []domain.Lead
	HasMore   bool
}

// Overlay runs capability validation and returns the IDs that changed.
type Overlay interface {
	Validate(ctx context.Context, companyID uuid.UUID, leadIDs []uuid.UUID) ([]uuid.UUID, error)
}

// QuotaGate gates searches and records consumed leads.
type QuotaGate interface {
	Allow(ctx context.Context, userID uuid.UUID) (bool, error)
	Consume(ctx context.Context, userID uuid.UUID, amount int)
}

// Outcome is the result of a Search call. QuotaDenied is a normal outcome:
// no session was opened and no error occurred.
type Outcome struct {
	QuotaDenied bool
	Page        int
	Leads       []domain.Lead
	HasMore     bool
}

// Browser holds one user's browsing state. Pages are cached 1-based; deleted
// lead IDs are remembered so a fetch that races a delete cannot resurrect the
// lead; the selection survives page cache eviction by keeping full objects.
type Browser struct {
	mu sync.Mutex

	sessions SessionManager
	overlay  Overlay
	quota    QuotaGate
	log      *logger.Logger

	companyID uuid.UUID
	userID    uuid.UUID

	sessionID   *uuid.UUID
	query       string
	location    string
	currentPage int
	hasMore     bool
	processing  bool

	pages         map[int][]domain.Lead
	deleted       map[uuid.UUID]struct{}
	selectedIDs   map[uuid.UUID]struct{}
	selectedLeads []domain.Lead
}

func NewBrowser(sessions SessionManager, overlay Overlay, quota QuotaGate, log *logger.Logger, companyID, userID uuid.UUID) *Browser {
	return &Browser{
		sessions:    sessions,
		overlay:     overlay,
		quota:       quota,
		log:         log,
		companyID:   companyID,
		userID:      userID,
		pages:       make(map[int][]domain.Lead),
		deleted:     make(map[uuid.UUID]struct{}),
		selectedIDs: make(map[uuid.UUID]struct{}),
	}
}

// Search starts a new top-level search. The page cache and the deleted-id set
// are reset; the selection is kept so leads picked from an earlier search stay
// picked. A denied quota short-circuits before any session is opened.
func (b *Browser) Search(ctx context.Context, query, location string) (*Outcome, error) {
	if err := b.begin(); err != nil {
		return nil, err
	}
	defer b.end()

	allowed, err := b.quota.Allow(ctx, b.userID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return &Outcome{QuotaDenied: true}, nil
	}

	page, err := b.sessions.CreateSession(ctx, b.companyID, b.companyID, b.userID, query, location)
	if err != nil {
		return nil, err
	}

	leads := b.runOverlay(ctx, page.Leads)

	b.mu.Lock()
	b.sessionID = &page.SessionID
	b.query = query
	b.location = location
	b.pages = make(map[int][]domain.Lead)
	b.deleted = make(map[uuid.UUID]struct{})
	b.currentPage = 1
	b.hasMore = page.HasMore
	b.storePageLocked(1, leads)
	visible := b.pages[1]
	b.mu.Unlock()

	b.quota.Consume(ctx, b.userID, len(leads))

	return &Outcome{Page: 1, Leads: visible, HasMore: page.HasMore}, nil
}

// GoToPage navigates to a 1-based page. Cached pages are served without
// touching the provider; the next page of an open session is fetched on a
// cache miss.
func (b *Browser) GoToPage(ctx context.Context, n int) (*Outcome, error) {
	if n < 1 {
		return nil, apperr.Validation("page must be positive")
	}

	if err := b.begin(); err != nil {
		return nil, err
	}
	defer b.end()

	b.mu.Lock()
	sessionID := b.sessionID
	cached, hit := b.pages[n]
	fetchable := b.hasMore && n == b.lastCachedPageLocked()+1
	b.mu.Unlock()

	if sessionID == nil {
		return nil, apperr.Conflict("no active search")
	}
	if hit {
		b.mu.Lock()
		b.currentPage = n
		b.mu.Unlock()
		return &Outcome{Page: n, Leads: cached, HasMore: b.HasMore()}, nil
	}
	if !fetchable {
		return nil, apperr.Validation("page not available")
	}

	page, err := b.sessions.ContinueSession(ctx, b.companyID, *sessionID)
	if err != nil {
		return nil, err
	}

	leads := b.runOverlay(ctx, page.Leads)

	b.mu.Lock()
	b.hasMore = page.HasMore
	b.currentPage = n
	b.storePageLocked(n, leads)
	visible := b.pages[n]
	b.mu.Unlock()

	b.quota.Consume(ctx, b.userID, len(leads))

	return &Outcome{Page: n, Leads: visible, HasMore: page.HasMore}, nil
}

// DeleteLead removes a lead everywhere: from storage, from every cached page,
// from the selection, and from any page cached after this call.
func (b *Browser) DeleteLead(ctx context.Context, leadID uuid.UUID) error {
	if err := b.sessions.DeleteLead(ctx, b.companyID, leadID); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.deleted[leadID] = struct{}{}
	for n, page := range b.pages {
		b.pages[n] = withoutLead(page, leadID)
	}
	if _, ok := b.selectedIDs[leadID]; ok {
		delete(b.selectedIDs, leadID)
		b.selectedLeads = withoutLead(b.selectedLeads, leadID)
	}
	return nil
}

// ToggleSelect flips a lead's membership in the selection. Selecting requires
// the lead to be present in some cached page; deselecting always works.
func (b *Browser) ToggleSelect(leadID uuid.UUID) (selected bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.selectedIDs[leadID]; ok {
		delete(b.selectedIDs, leadID)
		b.selectedLeads = withoutLead(b.selectedLeads, leadID)
		return false, nil
	}

	for _, page := range b.pages {
		for _, lead := range page {
			if lead.ID == leadID {
				b.selectedIDs[leadID] = struct{}{}
				b.selectedLeads = append(b.selectedLeads, lead)
				return true, nil
			}
		}
	}
	return false, apperr.NotFound("lead not visible in any cached page")
}

// Selection returns the selected lead objects. The objects outlive page
// eviction: downstream consumers read this list, not the page cache.
func (b *Browser) Selection() []domain.Lead {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.Lead, len(b.selectedLeads))
	copy(out, b.selectedLeads)
	return out
}

// EvictPage drops one page snapshot from the cache. Selection is unaffected.
func (b *Browser) EvictPage(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.pages, n)
}

// VisibleLeads returns the current page's snapshot.
func (b *Browser) VisibleLeads() []domain.Lead {
	b.mu.Lock()
	defer b.mu.Unlock()
	page := b.pages[b.currentPage]
	out := make([]domain.Lead, len(page))
	copy(out, page)
	return out
}

// CurrentPage returns the 1-based page being viewed, 0 before any search.
func (b *Browser) CurrentPage() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentPage
}

// HasMore reports whether the session can fetch another page.
func (b *Browser) HasMore() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hasMore
}

// Complete closes the underlying session.
func (b *Browser) Complete(ctx context.Context) error {
	b.mu.Lock()
	sessionID := b.sessionID
	b.mu.Unlock()

	if sessionID == nil {
		return apperr.Conflict("no active search")
	}
	if err := b.sessions.CompleteSession(ctx, b.companyID, *sessionID); err != nil {
		return err
	}

	b.mu.Lock()
	b.hasMore = false
	b.mu.Unlock()
	return nil
}

// ---------------------------------------------------------------------------
// internals
// ---------------------------------------------------------------------------

func (b *Browser) begin() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.processing {
		return ErrBusy
	}
	b.processing = true
	return nil
}

func (b *Browser) end() {
	b.mu.Lock()
	b.processing = false
	b.mu.Unlock()
}

// storePageLocked writes a page snapshot, honoring deletions that happened
// before the write finished.
func (b *Browser) storePageLocked(n int, leads []domain.Lead) {
	kept := make([]domain.Lead, 0, len(leads))
	for _, lead := range leads {
		if _, gone := b.deleted[lead.ID]; gone {
			continue
		}
		kept = append(kept, lead)
	}
	b.pages[n] = kept
}

func (b *Browser) lastCachedPageLocked() int {
	last := 0
	for n := range b.pages {
		if n > last {
			last = n
		}
	}
	return last
}

// runOverlay validates a fresh batch and applies the returned deltas. The
// overlay fails open, so a degraded validator just leaves flags unset.
func (b *Browser) runOverlay(ctx context.Context, leads []domain.Lead) []domain.Lead {
	if b.overlay == nil || len(leads) == 0 {
		return leads
	}

	ids := make([]uuid.UUID, 0, len(leads))
	for _, lead := range leads {
		ids = append(ids, lead.ID)
	}

	changed, err := b.overlay.Validate(ctx, b.companyID, ids)
	if err != nil {
		b.log.Warn("browse_overlay_error", "error", err.Error())
		return leads
	}

	changedSet := make(map[uuid.UUID]struct{}, len(changed))
	for _, id := range changed {
		changedSet[id] = struct{}{}
	}
	for i := range leads {
		if _, ok := changedSet[leads[i].ID]; ok {
			leads[i].HasWhatsApp = true
		}
	}
	return leads
}

// withoutLead filters into a fresh slice. Cached pages are handed out to
// callers, so compacting in place would corrupt snapshots they still hold.
func withoutLead(leads []domain.Lead, leadID uuid.UUID) []domain.Lead {
	kept := make([]domain.Lead, 0, len(leads))
	for _, lead := range leads {
		if lead.ID != leadID {
			kept = append(kept, lead)
		}
	}
	return kept
}
