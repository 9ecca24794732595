package service

import (
	"context"
	"time"

	perr "sigscore/internal/platform/errors"
	"sigscore/internal/platform/logger"
	pnet "sigscore/internal/platform/net"
)

// Run starts the scheduled recompute loop
// stale accounts are leased in small batches and processed concurrently with
// a simple semaphore; per-account failures are retried with backoff and never
// block other accounts
func (s *Svc) Run(ctx context.Context) error {
	log := *logger.Named("scoring-worker")
	sem := make(chan struct{}, max(1, s.cfg.Concurrency))
	ticker := time.NewTicker(s.cfg.TickEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			orgs, err := s.Repo.OrgIDs(ctx)
			if err != nil {
				log.Error().Err(err).Msg("list orgs failed")
				continue
			}
			cutoff := time.Now().UTC().Add(-s.cfg.StaleAfter)
			for _, org := range orgs {
				orgCtx := pnet.WithRequest(ctx, "", org)
				accounts, err := s.Repo.StaleAccounts(orgCtx, org, cutoff, s.cfg.LeaseBatch)
				if err != nil {
					log.Error().Err(err).Str("org", org).Msg("lease stale accounts failed")
					continue
				}
				for i := range accounts {
					sem <- struct{}{}
					accountID := accounts[i]
					go func() {
						defer func() { <-sem }()
						s.recomputeWithRetry(orgCtx, accountID, log)
					}()
				}
			}
		}
	}
}

// recomputeWithRetry retries retryable failures with a fixed backoff
func (s *Svc) recomputeWithRetry(ctx context.Context, accountID string, log logger.Logger) {
	var err error
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.cfg.RetryBackoff * time.Duration(attempt)):
			}
		}
		if _, err = s.Compute(ctx, accountID); err == nil {
			return
		}
		if !perr.Retryable(err) {
			break
		}
	}
	log.Warn().Err(err).Str("account", accountID).Msg("scheduled recompute failed")
}
