package scheduler

import (
	"context"
	"errors"
	"fmt"

	"leadscout_backend/internal/events"
	"leadscout_backend/internal/quota/repository"
	"leadscout_backend/platform/config"
	"leadscout_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	repo   *repository.Repository
	bus    events.Bus
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, pool *pgxpool.Pool, bus events.Bus, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		repo:   repository.New(pool),
		bus:    bus,
		log:    log,
	}

	mux.HandleFunc(TaskQuotaReset, w.handleQuotaReset)

	return w, nil
}

func (w *Worker) handleQuotaReset(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseQuotaResetPayload(task)
	if err != nil {
		return err
	}

	userID, err := uuid.Parse(payload.UserID)
	if err != nil {
		return err
	}

	if err := w.repo.ResetUsage(ctx, userID); err != nil {
		// The quota row may have been deleted between dispatch and execution.
		if errors.Is(err, repository.ErrNotFound) {
			w.log.Warn("quota reset skipped, no quota row", "userId", userID)
			return nil
		}
		return err
	}

	w.log.Info("quota usage reset", "userId", userID)

	if w.bus != nil {
		w.bus.Publish(ctx, events.QuotaUsageReset{
			BaseEvent: events.NewBaseEvent(),
			UserID:    userID,
		})
	}

	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
