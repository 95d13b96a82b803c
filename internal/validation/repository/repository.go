// Package repository persists capability validation results on leads.
package repository

import (
	"context"
	"fmt"

	"leadscout_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) GetLeadsByIDs(ctx context.Context, companyID uuid.UUID, ids []uuid.UUID) ([]domain.Lead, error) {
	query := `
		SELECT id, company_id, search_session_id, history_id, name,
		       COALESCE(phone, ''), COALESCE(phone_normalized, ''), fingerprint,
		       COALESCE(address, ''), COALESCE(category, ''), COALESCE(website, ''),
		       rating, reviews_count, has_whatsapp, created_at
		FROM leads
		WHERE company_id = $1 AND id = ANY($2)`

	rows, err := r.pool.Query(ctx, query, companyID, ids)
	if err != nil {
		return nil, fmt.Errorf("load leads for validation: %w", err)
	}
	defer rows.Close()

	leads := make([]domain.Lead, 0, len(ids))
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

func (r *Repository) MarkLeadsWhatsApp(ctx context.Context, companyID uuid.UUID, ids []uuid.UUID) error {
	query := `UPDATE leads SET has_whatsapp = TRUE WHERE company_id = $1 AND id = ANY($2)`
	if _, err := r.pool.Exec(ctx, query, companyID, ids); err != nil {
		return fmt.Errorf("mark leads whatsapp: %w", err)
	}
	return nil
}
