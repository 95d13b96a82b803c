// Package service implements the quota gate: pre-action checks and
// post-success usage increments.
package service

import (
	"context"
	"errors"
	"time"

	"leadscout_backend/internal/events"
	"leadscout_backend/internal/quota/repository"
	"leadscout_backend/platform/apperr"
	"leadscout_backend/platform/cache"
	"leadscout_backend/platform/logger"

	"github.com/google/uuid"
)

// UnlimitedLimit is the sentinel meaning the action is not metered.
const UnlimitedLimit = -1

// Quota actions.
const (
	ActionLeads     = "leads"
	ActionCampaigns = "campaigns"
	ActionMessages  = "messages"
)

// Store is the persistence surface of the gate.
type Store interface {
	GetByUser(ctx context.Context, userID uuid.UUID) (*repository.UserQuota, error)
	IncrementUsage(ctx context.Context, userID uuid.UUID, action string, amount int) error
}

// Decision is the outcome of a quota check. A denied decision is a normal
// result, not an error.
type Decision struct {
	Allowed   bool `json:"allowed"`
	Unlimited bool `json:"unlimited"`
	Used      int  `json:"used"`
	Limit     int  `json:"limit"`
}

type quotaState struct {
	used      int
	limit     int
	unlimited bool
}

// Gate answers "may this user perform this action" and records usage after
// the fact. Observed unlimited states are cached so repeat checks for
// unmetered users skip the store entirely until the cache entry expires.
type Gate struct {
	repo  Store
	cache *cache.TTL[quotaState]
	bus   events.Bus
	log   *logger.Logger
}

func NewGate(repo Store, stateCache *cache.TTL[quotaState], bus events.Bus, log *logger.Logger) *Gate {
	return &Gate{repo: repo, cache: stateCache, bus: bus, log: log}
}

// NewStateCache builds the TTL cache used by the gate.
func NewStateCache(ttl time.Duration) *cache.TTL[quotaState] {
	return cache.NewTTL[quotaState](ttl, nil)
}

// Check reports whether the user may perform the action once.
// Unknown users are treated as having no quota row: denied with zero limits.
func (g *Gate) Check(ctx context.Context, userID uuid.UUID, action string) (Decision, error) {
	key := cacheKey(userID, action)

	if state, ok := g.cache.Get(key); ok && state.unlimited {
		return Decision{Allowed: true, Unlimited: true, Used: state.used, Limit: UnlimitedLimit}, nil
	}

	quota, err := g.repo.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Decision{Allowed: false, Used: 0, Limit: 0}, nil
		}
		return Decision{}, apperr.Wrap(apperr.KindInternal, "failed to load quota", err).WithOp("quota.Check")
	}

	used, limit, err := usage(quota, action)
	if err != nil {
		return Decision{}, apperr.Validation(err.Error()).WithOp("quota.Check")
	}

	state := quotaState{used: used, limit: limit, unlimited: limit == UnlimitedLimit}
	g.cache.Set(key, state)

	decision := Decision{
		Allowed:   state.unlimited || used < limit,
		Unlimited: state.unlimited,
		Used:      used,
		Limit:     limit,
	}
	g.log.QuotaEvent("check", action, used, limit)
	return decision, nil
}

// Increment records completed usage. It is best-effort: a failure is logged
// and published for reconciliation but never returned to the caller's
// success path.
func (g *Gate) Increment(ctx context.Context, userID uuid.UUID, action string, amount int) {
	if amount <= 0 {
		return
	}

	// Usage is recorded even for unmetered users; it feeds reporting.
	if err := g.repo.IncrementUsage(ctx, userID, action, amount); err != nil {
		g.log.Error("quota_increment_failed",
			"user_id", userID.String(), "action", action, "amount", amount, "error", err.Error())
		if g.bus != nil {
			g.bus.Publish(ctx, events.QuotaIncrementFailed{
				BaseEvent: events.NewBaseEvent(),
				UserID:    userID,
				Action:    action,
				Amount:    amount,
				Reason:    err.Error(),
			})
		}
		return
	}

	g.cache.Forget(cacheKey(userID, action))
	g.log.QuotaEvent("increment", action, amount, 0)
}

// Current returns the full quota row for display.
func (g *Gate) Current(ctx context.Context, userID uuid.UUID) (*repository.UserQuota, error) {
	quota, err := g.repo.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("no quota configured for user").WithOp("quota.Current")
		}
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load quota", err).WithOp("quota.Current")
	}
	return quota, nil
}

func usage(q *repository.UserQuota, action string) (used, limit int, err error) {
	switch action {
	case ActionLeads:
		return q.LeadsUsed, q.LeadsLimit, nil
	case ActionCampaigns:
		return q.CampaignsUsed, q.CampaignsLimit, nil
	case ActionMessages:
		return q.MessagesSent, q.MessagesLimit, nil
	default:
		return 0, 0, errors.New("unknown quota action")
	}
}

func cacheKey(userID uuid.UUID, action string) string {
	return userID.String() + ":" + action
}
