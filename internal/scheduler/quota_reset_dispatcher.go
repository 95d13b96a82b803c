package scheduler

import (
	"context"
	"time"

	"leadscout_backend/internal/quota/repository"
	"leadscout_backend/platform/config"
	"leadscout_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// QuotaResetDispatcher periodically scans for quota rows whose billing
// period has ended and enqueues a reset task for each.
type QuotaResetDispatcher struct {
	client *Client
	repo   *repository.Repository
	log    *logger.Logger
}

func NewQuotaResetDispatcher(cfg config.SchedulerConfig, pool *pgxpool.Pool, log *logger.Logger) (*QuotaResetDispatcher, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}

	return &QuotaResetDispatcher{
		client: client,
		repo:   repository.New(pool),
		log:    log,
	}, nil
}

func (d *QuotaResetDispatcher) Close() error {
	if d == nil {
		return nil
	}
	return d.client.Close()
}

func (d *QuotaResetDispatcher) Run(ctx context.Context) {
	if d == nil || d.client == nil || d.repo == nil {
		return
	}

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		userIDs, err := d.repo.DueForReset(ctx, time.Now(), 100)
		if err != nil {
			d.log.Warn("quota reset scan failed", "error", err)
			continue
		}
		if len(userIDs) == 0 {
			continue
		}

		for _, userID := range userIDs {
			payload := QuotaResetPayload{UserID: userID.String()}
			if err := d.client.EnqueueQuotaReset(ctx, payload); err != nil {
				d.log.Warn("failed to enqueue quota reset", "userId", userID, "error", err)
				continue
			}
		}

		d.log.Info("quota resets dispatched", "count", len(userIDs))
	}
}
