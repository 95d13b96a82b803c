// Package repository persists per-user usage quotas.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a user has no quota row.
var ErrNotFound = errors.New("quota not found")

// UserQuota is one user's plan limits and usage counters. A limit of -1
// means unlimited; a limit of 0 means the action is disabled.
type UserQuota struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	CompanyID      uuid.UUID
	PlanType       string
	LeadsLimit     int
	LeadsUsed      int
	CampaignsLimit int
	CampaignsUsed  int
	MessagesLimit  int
	MessagesSent   int
	ResetDate      time.Time
	UpdatedAt      time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) GetByUser(ctx context.Context, userID uuid.UUID) (*UserQuota, error) {
	query := `
		SELECT id, user_id, company_id, plan_type, leads_limit, leads_used,
		       campaigns_limit, campaigns_used, messages_limit, messages_sent,
		       reset_date, updated_at
		FROM user_quotas
		WHERE user_id = $1`

	var q UserQuota
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&q.ID, &q.UserID, &q.CompanyID, &q.PlanType, &q.LeadsLimit, &q.LeadsUsed,
		&q.CampaignsLimit, &q.CampaignsUsed, &q.MessagesLimit, &q.MessagesSent,
		&q.ResetDate, &q.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user quota: %w", err)
	}
	return &q, nil
}

// IncrementUsage bumps the counter for one action.
func (r *Repository) IncrementUsage(ctx context.Context, userID uuid.UUID, action string, amount int) error {
	column, err := usageColumn(action)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE user_quotas
		SET %s = %s + $2, updated_at = NOW()
		WHERE user_id = $1`, column, column)

	tag, err := r.pool.Exec(ctx, query, userID, amount)
	if err != nil {
		return fmt.Errorf("increment quota usage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ResetUsage zeroes all counters and advances the reset date by one month.
func (r *Repository) ResetUsage(ctx context.Context, userID uuid.UUID) error {
	query := `
		UPDATE user_quotas
		SET leads_used = 0, campaigns_used = 0, messages_sent = 0,
		    reset_date = reset_date + INTERVAL '1 month', updated_at = NOW()
		WHERE user_id = $1`

	tag, err := r.pool.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("reset quota usage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DueForReset lists user IDs whose reset date has passed.
func (r *Repository) DueForReset(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	query := `
		SELECT user_id FROM user_quotas
		WHERE reset_date <= $1
		ORDER BY reset_date ASC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list quotas due for reset: %w", err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func usageColumn(action string) (string, error) {
	switch action {
	case "leads":
		return "leads_used", nil
	case "campaigns":
		return "campaigns_used", nil
	case "messages":
		return "messages_sent", nil
	default:
		return "", fmt.Errorf("unknown quota action %q", action)
	}
}
