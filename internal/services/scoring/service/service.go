// Package service contains the scoring engine workflows
package service

import (
	"context"
	"fmt"
	"time"

	"sigscore/internal/modkit/repokit"
	"sigscore/internal/platform/config"
	perr "sigscore/internal/platform/errors"
	"sigscore/internal/platform/logger"
	pnet "sigscore/internal/platform/net"
	"sigscore/internal/platform/store"
	outboxdom "sigscore/internal/services/outbox/domain"
	outboxsvc "sigscore/internal/services/outbox/service"
	"sigscore/internal/services/scoring/domain"
	"sigscore/internal/services/scoring/repo"
)

// Config tunes the scoring engine
type Config struct {
	WindowDays   int
	TrendPct     float64
	Weights      domain.Weights
	LockTTL      time.Duration
	StaleAfter   time.Duration
	TickEvery    time.Duration
	Concurrency  int
	LeaseBatch   int
	RetryBackoff time.Duration
	MaxRetries   int
}

// FromConfig reads SCORING_ settings
func FromConfig(cfg config.Conf) Config {
	c := cfg.Prefix("SCORING_")
	d := domain.DefaultWeights()
	w := domain.Weights{
		Velocity:  c.MayFloat64("WEIGHT_VELOCITY", d.Velocity),
		Breadth:   c.MayFloat64("WEIGHT_BREADTH", d.Breadth),
		Recency:   c.MayFloat64("WEIGHT_RECENCY", d.Recency),
		Diversity: c.MayFloat64("WEIGHT_DIVERSITY", d.Diversity),
	}
	if !w.Valid() {
		logger.Get().Panic().
			Float64("velocity", w.Velocity).
			Float64("breadth", w.Breadth).
			Float64("recency", w.Recency).
			Float64("diversity", w.Diversity).
			Msg("scoring weights must sum to 1.0")
	}
	return Config{
		WindowDays:   c.MayInt("WINDOW_DAYS", 90),
		TrendPct:     c.MayFloat64("TREND_PCT", 0.20),
		Weights:      w,
		LockTTL:      c.MayDuration("LOCK_TTL", 30*time.Second),
		StaleAfter:   c.MayDuration("STALE_AFTER", 6*time.Hour),
		TickEvery:    c.MayDuration("TICK_EVERY", time.Minute),
		Concurrency:  c.MayInt("CONCURRENCY", 4),
		LeaseBatch:   c.MayInt("LEASE_BATCH", 50),
		RetryBackoff: c.MayDuration("RETRY_BACKOFF", 5*time.Second),
		MaxRetries:   c.MayInt("MAX_RETRIES", 3),
	}
}

// ChangeListener is notified after a snapshot lands with a different score
// implemented by the alerts module; delivery is best effort
type ChangeListener interface {
	OnScoreChange(ctx context.Context, prev *domain.AccountScore, cur domain.AccountScore)
}

// Service defines the scoring service contract
type Service interface {
	domain.ServicePort
}

// Svc implements the scoring engine
type Svc struct {
	Repo     repo.Repo
	binder   repokit.Binder[repo.Repo]
	db       repokit.TxRunner
	rds      store.Redis
	outbox   outboxsvc.Recorder
	listener ChangeListener
	cfg      Config
	log      logger.Logger
}

// New constructs a scoring service
// rds and outbox may be nil; the version CAS alone still serializes writers
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo], rds store.Redis, ob outboxsvc.Recorder, cfg Config) *Svc {
	if db == nil {
		panic("scoring.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("scoring.Service requires a non nil Repo binder")
	}
	return &Svc{
		Repo:   binder.Bind(db),
		binder: binder,
		db:     db,
		rds:    rds,
		outbox: ob,
		cfg:    cfg,
		log:    *logger.Named("scoring"),
	}
}

// WithListener attaches the score change listener after construction
func (s *Svc) WithListener(l ChangeListener) *Svc {
	s.listener = l
	return s
}

// Compute recomputes the account score and appends an immutable snapshot
// a failed computation leaves the previous snapshot untouched
func (s *Svc) Compute(ctx context.Context, accountID string) (domain.AccountScore, error) {
	orgID := pnet.OrgID(ctx)
	if orgID == "" {
		return domain.AccountScore{}, perr.Validationf("missing organization scope")
	}

	ok, err := s.Repo.AccountExists(ctx, orgID, accountID)
	if err != nil {
		return domain.AccountScore{}, err
	}
	if !ok {
		return domain.AccountScore{}, perr.NotFoundf("account %s not found", accountID)
	}

	// short per-account lock keeps concurrent recomputes from duplicating work
	if s.rds != nil {
		key := fmt.Sprintf("score:lock:%s", accountID)
		got, err := s.rds.SetNX(ctx, key, "1", int(s.cfg.LockTTL.Seconds()))
		if err != nil {
			s.log.Warn().Err(err).Msg("score lock unavailable")
		} else if !got {
			return domain.AccountScore{}, perr.RateLimitedf("recompute already in progress for account %s", accountID)
		} else {
			defer func() { _ = s.rds.Del(context.WithoutCancel(ctx), key) }()
		}
	}

	now := time.Now().UTC()
	stats, err := s.Repo.WindowStats(ctx, orgID, accountID, now, s.cfg.WindowDays)
	if err != nil {
		return domain.AccountScore{}, perr.Wrap(err, perr.ErrorCodeComputation, "scoring input unavailable")
	}

	var prev *domain.AccountScore
	latest, err := s.Repo.Latest(ctx, orgID, accountID)
	switch {
	case err == nil:
		prev = &latest
	case perr.IsCode(err, perr.ErrorCodeNotFound):
		// first computation for this account
	default:
		return domain.AccountScore{}, perr.Wrap(err, perr.ErrorCodeComputation, "prior snapshot unavailable")
	}

	snapshot := s.build(orgID, accountID, stats, prev, now)

	err = repokit.WithTx(ctx, s.db, func(q repokit.Queryer) error {
		r := s.binder.Bind(q)
		inserted, err := r.InsertSnapshot(ctx, snapshot)
		if err != nil {
			return err
		}
		if !inserted {
			return perr.Conflictf("concurrent recompute won for account %s", accountID)
		}
		if s.outbox == nil {
			return nil
		}
		if err := s.outbox.Append(ctx, q, orgID, outboxdom.TopicScoreComputed, snapshot); err != nil {
			return err
		}
		if prev == nil || prev.Score != snapshot.Score {
			return s.outbox.Append(ctx, q, orgID, outboxdom.TopicScoreChanged, scoreChange{Prev: prev, Cur: snapshot})
		}
		return nil
	})
	if err != nil {
		return domain.AccountScore{}, err
	}

	if s.listener != nil && (prev == nil || prev.Score != snapshot.Score) {
		s.listener.OnScoreChange(ctx, prev, snapshot)
	}
	return snapshot, nil
}

// scoreChange is the score.changed payload
type scoreChange struct {
	Prev *domain.AccountScore `json:"previous,omitempty"`
	Cur  domain.AccountScore  `json:"current"`
}

// build assembles the snapshot; pure given its inputs
func (s *Svc) build(orgID, accountID string, stats domain.WindowStats, prev *domain.AccountScore, now time.Time) domain.AccountScore {
	factors := domain.FactorsFor(s.cfg.Weights, stats)
	score := domain.Composite(factors)

	trend := domain.TrendStable
	version := int64(1)
	if prev != nil {
		trend = domain.TrendFor(prev.Score, score, s.cfg.TrendPct)
		version = prev.Version + 1
	}

	return domain.AccountScore{
		AccountID:   accountID,
		OrgID:       orgID,
		Score:       score,
		Tier:        domain.TierFor(score),
		Trend:       trend,
		Factors:     factors,
		SignalCount: stats.SignalCount,
		UserCount:   stats.DistinctActors,
		Version:     version,
		ComputedAt:  now,
	}
}

// Get returns the current snapshot for an account
func (s *Svc) Get(ctx context.Context, accountID string) (domain.AccountScore, error) {
	orgID := pnet.OrgID(ctx)
	if orgID == "" {
		return domain.AccountScore{}, perr.Validationf("missing organization scope")
	}
	score, err := s.Repo.Latest(ctx, orgID, accountID)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return domain.AccountScore{}, perr.NotFoundf("no score for account %s", accountID)
	}
	return score, err
}

// Top lists accounts by current score, optionally filtered by tier
func (s *Svc) Top(ctx context.Context, in domain.TopInput) ([]domain.AccountScore, error) {
	orgID := pnet.OrgID(ctx)
	if orgID == "" {
		return nil, perr.Validationf("missing organization scope")
	}
	if in.Tier != "" {
		switch domain.Tier(in.Tier) {
		case domain.TierHot, domain.TierWarm, domain.TierCold, domain.TierInactive:
		default:
			return nil, perr.WithField(perr.Validationf("unknown tier %q", in.Tier), "tier")
		}
	}
	return s.Repo.Top(ctx, orgID, in.Tier, in.Limit)
}
