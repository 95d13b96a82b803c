// Package repository persists search sessions, captured leads, and search
// history. All queries are scoped by company_id.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leadscout_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Session statuses.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
)

// ErrNotFound is returned when a scoped row does not exist.
var ErrNotFound = errors.New("not found")

type Session struct {
	ID           uuid.UUID
	CompanyID    uuid.UUID
	UserID       uuid.UUID
	HistoryID    uuid.UUID
	Query        string
	Location     string
	CurrentPage  int
	Status       string
	ErrorMessage string
	CreatedAt    time.Time
	CompletedAt  *time.Time
}

type History struct {
	ID           uuid.UUID
	CompanyID    uuid.UUID
	UserID       uuid.UUID
	Query        string
	Location     string
	ResultsCount int
	CreatedAt    time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ---------------------------------------------------------------------------
// Sessions
// ---------------------------------------------------------------------------

func (r *Repository) CreateSession(ctx context.Context, s *Session) error {
	query := `
		INSERT INTO search_sessions (id, company_id, user_id, history_id, query, location, current_page, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		s.ID, s.CompanyID, s.UserID, s.HistoryID, s.Query, s.Location, s.CurrentPage, s.Status, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert search session: %w", err)
	}
	return nil
}

func (r *Repository) GetSession(ctx context.Context, companyID, sessionID uuid.UUID) (*Session, error) {
	query := `
		SELECT id, company_id, user_id, history_id, query, location, current_page, status,
		       COALESCE(error_message, ''), created_at, completed_at
		FROM search_sessions
		WHERE id = $1 AND company_id = $2`

	var s Session
	err := r.pool.QueryRow(ctx, query, sessionID, companyID).Scan(
		&s.ID, &s.CompanyID, &s.UserID, &s.HistoryID, &s.Query, &s.Location,
		&s.CurrentPage, &s.Status, &s.ErrorMessage, &s.CreatedAt, &s.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get search session: %w", err)
	}
	return &s, nil
}

func (r *Repository) IncrementSessionPage(ctx context.Context, sessionID uuid.UUID) error {
	query := `UPDATE search_sessions SET current_page = current_page + 1 WHERE id = $1`
	if _, err := r.pool.Exec(ctx, query, sessionID); err != nil {
		return fmt.Errorf("increment session page: %w", err)
	}
	return nil
}

// MarkSessionCompleted sets the session's terminal state. The WHERE guard
// keeps the first completion timestamp on repeated calls.
func (r *Repository) MarkSessionCompleted(ctx context.Context, sessionID uuid.UUID, at time.Time) error {
	query := `
		UPDATE search_sessions
		SET status = $2, completed_at = $3
		WHERE id = $1 AND status <> $2`
	if _, err := r.pool.Exec(ctx, query, sessionID, StatusCompleted, at); err != nil {
		return fmt.Errorf("complete search session: %w", err)
	}
	return nil
}

func (r *Repository) SetSessionError(ctx context.Context, sessionID uuid.UUID, message string) error {
	query := `UPDATE search_sessions SET error_message = $2 WHERE id = $1`
	if _, err := r.pool.Exec(ctx, query, sessionID, message); err != nil {
		return fmt.Errorf("set session error: %w", err)
	}
	return nil
}

func (r *Repository) DeleteSession(ctx context.Context, companyID, sessionID uuid.UUID) (int64, error) {
	// Leads reference the session with ON DELETE CASCADE.
	query := `DELETE FROM search_sessions WHERE id = $1 AND company_id = $2`
	tag, err := r.pool.Exec(ctx, query, sessionID, companyID)
	if err != nil {
		return 0, fmt.Errorf("delete search session: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ---------------------------------------------------------------------------
// Leads
// ---------------------------------------------------------------------------

// SessionFingerprints returns the fingerprints already captured in a session.
func (r *Repository) SessionFingerprints(ctx context.Context, sessionID uuid.UUID) (map[string]struct{}, error) {
	query := `SELECT fingerprint FROM leads WHERE search_session_id = $1`

	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session fingerprints: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	for rows.Next() {
		var fp string
		if err := rows.Scan(&fp); err != nil {
			return nil, err
		}
		seen[fp] = struct{}{}
	}
	return seen, rows.Err()
}

// InsertLeads persists a batch of leads. Rows colliding with the session
// dedup index are silently skipped; only actually inserted rows are returned.
func (r *Repository) InsertLeads(ctx context.Context, leads []domain.Lead) ([]domain.Lead, error) {
	if len(leads) == 0 {
		return nil, nil
	}

	query := `
		INSERT INTO leads (id, company_id, search_session_id, history_id, name, phone, phone_normalized,
		                   fingerprint, address, category, website, rating, reviews_count, has_whatsapp, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (company_id, search_session_id, fingerprint) DO NOTHING`

	inserted := make([]domain.Lead, 0, len(leads))
	for _, lead := range leads {
		tag, err := r.pool.Exec(ctx, query,
			lead.ID, lead.CompanyID, lead.SearchSessionID, lead.HistoryID, lead.Name,
			nullable(lead.Phone), nullable(lead.PhoneNormalized), lead.Fingerprint,
			nullable(lead.Address), nullable(lead.Category), nullable(lead.Website),
			lead.Rating, lead.ReviewsCount, lead.HasWhatsApp, lead.CreatedAt)
		if err != nil {
			return inserted, fmt.Errorf("insert lead: %w", err)
		}
		if tag.RowsAffected() > 0 {
			inserted = append(inserted, lead)
		}
	}
	return inserted, nil
}

const leadColumns = `
	id, company_id, search_session_id, history_id, name,
	COALESCE(phone, ''), COALESCE(phone_normalized, ''), fingerprint,
	COALESCE(address, ''), COALESCE(category, ''), COALESCE(website, ''),
	rating, reviews_count, has_whatsapp, created_at`

func (r *Repository) ListLeads(ctx context.Context, companyID uuid.UUID, limit int) ([]domain.Lead, error) {
	query := `SELECT ` + leadColumns + `
		FROM leads WHERE company_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, companyID, limit)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()
	return scanLeads(rows)
}

func (r *Repository) LeadsBySession(ctx context.Context, companyID, sessionID uuid.UUID) ([]domain.Lead, error) {
	query := `SELECT ` + leadColumns + `
		FROM leads WHERE company_id = $1 AND search_session_id = $2
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, companyID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list session leads: %w", err)
	}
	defer rows.Close()
	return scanLeads(rows)
}

func (r *Repository) DeleteLead(ctx context.Context, companyID, leadID uuid.UUID) (int64, error) {
	query := `DELETE FROM leads WHERE id = $1 AND company_id = $2`
	tag, err := r.pool.Exec(ctx, query, leadID, companyID)
	if err != nil {
		return 0, fmt.Errorf("delete lead: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *Repository) DeleteAllLeads(ctx context.Context, companyID uuid.UUID) (int64, error) {
	query := `DELETE FROM leads WHERE company_id = $1`
	tag, err := r.pool.Exec(ctx, query, companyID)
	if err != nil {
		return 0, fmt.Errorf("clear leads: %w", err)
	}
	return tag.RowsAffected(), nil
}

// HistoryLeadNames returns lowercased lead names already attached to a
// history record. Used by the legacy endpoint's name-based dedup.
func (r *Repository) HistoryLeadNames(ctx context.Context, historyID uuid.UUID) (map[string]struct{}, error) {
	query := `SELECT LOWER(TRIM(name)) FROM leads WHERE history_id = $1`

	rows, err := r.pool.Query(ctx, query, historyID)
	if err != nil {
		return nil, fmt.Errorf("load history lead names: %w", err)
	}
	defer rows.Close()

	names := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names[name] = struct{}{}
	}
	return names, rows.Err()
}

// ---------------------------------------------------------------------------
// History
// ---------------------------------------------------------------------------

func (r *Repository) CreateHistory(ctx context.Context, h *History) error {
	query := `
		INSERT INTO search_history (id, company_id, user_id, query, location, results_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		h.ID, h.CompanyID, h.UserID, h.Query, h.Location, h.ResultsCount, h.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert search history: %w", err)
	}
	return nil
}

func (r *Repository) IncrementHistoryResults(ctx context.Context, historyID uuid.UUID, delta int) error {
	query := `UPDATE search_history SET results_count = results_count + $2 WHERE id = $1`
	if _, err := r.pool.Exec(ctx, query, historyID, delta); err != nil {
		return fmt.Errorf("increment history results: %w", err)
	}
	return nil
}

func (r *Repository) ListHistory(ctx context.Context, companyID uuid.UUID, limit int) ([]History, error) {
	query := `
		SELECT id, company_id, user_id, query, location, results_count, created_at
		FROM search_history
		WHERE company_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, companyID, limit)
	if err != nil {
		return nil, fmt.Errorf("list search history: %w", err)
	}
	defer rows.Close()

	items := make([]History, 0)
	for rows.Next() {
		var h History
		if err := rows.Scan(&h.ID, &h.CompanyID, &h.UserID, &h.Query, &h.Location, &h.ResultsCount, &h.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, h)
	}
	return items, rows.Err()
}

func scanLeads(rows pgx.Rows) ([]domain.Lead, error) {
	leads := make([]domain.Lead, 0)
	for rows.Next() {
		var l domain.Lead
		if err := rows.Scan(
			&l.ID, &l.CompanyID, &l.SearchSessionID, &l.HistoryID, &l.Name,
			&l.Phone, &l.PhoneNormalized, &l.Fingerprint,
			&l.Address, &l.Category, &l.Website,
			&l.Rating, &l.ReviewsCount, &l.HasWhatsApp, &l.CreatedAt); err != nil {
			return nil, err
		}
		leads = append(leads, l)
	}
	return leads, rows.Err()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
