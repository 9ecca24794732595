package service

import (
	"context"
	"time"

	"sigscore/internal/modkit/repokit"
	perr "sigscore/internal/platform/errors"
	"sigscore/internal/services/alerts/domain"
	scoredom "sigscore/internal/services/scoring/domain"
	sigdom "sigscore/internal/services/signals/domain"
)

// OnScoreChange implements the scoring change listener
// evaluation trouble never propagates back into the scoring path
func (s *Svc) OnScoreChange(ctx context.Context, prev *scoredom.AccountScore, cur scoredom.AccountScore) {
	if err := s.EvaluateAccount(ctx, prev, cur); err != nil {
		s.log.Error().Err(err).Str("account", cur.AccountID).Msg("alert evaluation failed")
	}
}

// EvaluateAccount runs every enabled score driven rule against the new snapshot
// per rule failures are isolated so one bad rule cannot starve the rest
func (s *Svc) EvaluateAccount(ctx context.Context, prev *scoredom.AccountScore, cur scoredom.AccountScore) error {
	rules, err := s.Repo.EnabledRules(ctx, cur.OrgID)
	if err != nil {
		return err
	}

	obs := domain.Observation{Prev: prev, Cur: cur, Now: time.Now().UTC()}
	lastSignalLoaded := false
	baselines := map[float64]*scoredom.AccountScore{}

	var firstErr error
	for _, rule := range rules {
		if rule.Trigger.SignalDriven() {
			continue
		}
		// inactivity triggers need the newest signal timestamp; fetched once
		if !lastSignalLoaded && needsLastSignal(rule.Trigger) {
			ts, err := s.Repo.LastSignalAt(ctx, cur.OrgID, cur.AccountID)
			if err != nil {
				s.log.Warn().Err(err).Str("account", cur.AccountID).Msg("last signal lookup failed")
			} else {
				obs.LastSignalAt = ts
			}
			lastSignalLoaded = true
		}
		// change triggers compare against the snapshot at window start,
		// fetched once per distinct window length
		obs.Baseline = nil
		if needsBaseline(rule.Trigger) {
			days := rule.Conditions.Float(domain.CondDays)
			b, ok := baselines[days]
			if !ok {
				b = s.loadBaseline(ctx, cur, days, obs.Now)
				baselines[days] = b
			}
			obs.Baseline = b
		}
		if err := s.evaluateRule(ctx, rule, obs); err != nil {
			s.log.Error().Err(err).Str("rule", rule.ID).Str("account", cur.AccountID).Msg("rule evaluation failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// evaluateRule applies one rule to one observation and persists the outcome
func (s *Svc) evaluateRule(ctx context.Context, rule domain.Rule, obs domain.Observation) error {
	state, err := s.Repo.GetState(ctx, rule.ID, obs.Cur.AccountID)
	switch {
	case err == nil:
	case perr.IsCode(err, perr.ErrorCodeNotFound):
		state = domain.RuleState{RuleID: rule.ID, AccountID: obs.Cur.AccountID}
	default:
		return err
	}

	fire, nextActive := domain.Evaluate(rule, state.Active, obs)
	if !fire {
		if nextActive == state.Active {
			return nil
		}
		state.Active = nextActive
		state.UpdatedAt = obs.Now
		return s.Repo.UpsertState(ctx, state)
	}

	event := s.newEvent(rule, obs.Cur.AccountID)
	event.Before = obs.Prev
	if obs.Baseline != nil {
		event.Before = obs.Baseline
	}
	event.After = &obs.Cur

	// the event row and the edge flag land together or not at all
	err = repokit.WithTx(ctx, s.db, func(q repokit.Queryer) error {
		r := s.binder.Bind(q)
		if err := r.InsertEvent(ctx, event); err != nil {
			return err
		}
		state.Active = nextActive
		state.UpdatedAt = obs.Now
		return r.UpsertState(ctx, state)
	})
	if err != nil {
		return err
	}

	s.dispatch(ctx, rule.Channels, event)
	return nil
}

// OnSignal implements the signals listener for new_hot_signal rules
// runs off the ingestion path; ingest latency never pays for evaluation
func (s *Svc) OnSignal(ctx context.Context, sig sigdom.Signal) {
	if sig.AccountID == "" {
		return
	}
	base := context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(base, s.cfg.DispatchTimeout)
		defer cancel()
		if err := s.EvaluateSignal(ctx, sig); err != nil {
			s.log.Error().Err(err).Str("signal", sig.ID).Msg("signal alert evaluation failed")
		}
	}()
}

// EvaluateSignal fires every matching new_hot_signal rule for the signal
// these rules are level free and fire per matching signal
func (s *Svc) EvaluateSignal(ctx context.Context, sig sigdom.Signal) error {
	rules, err := s.Repo.EnabledRules(ctx, sig.OrgID)
	if err != nil {
		return err
	}
	var firstErr error
	for _, rule := range rules {
		if !domain.MatchesSignal(rule, string(sig.SourceType)) {
			continue
		}
		event := s.newEvent(rule, sig.AccountID)
		event.SignalID = sig.ID
		if err := s.Repo.InsertEvent(ctx, event); err != nil {
			s.log.Error().Err(err).Str("rule", rule.ID).Str("signal", sig.ID).Msg("signal alert insert failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		s.dispatch(ctx, rule.Channels, event)
	}
	return firstErr
}

func needsLastSignal(t domain.TriggerType) bool {
	return t == domain.TriggerEngagementDrop || t == domain.TriggerAccountInactive
}

func needsBaseline(t domain.TriggerType) bool {
	return t == domain.TriggerScoreDrop || t == domain.TriggerScoreRise
}

// loadBaseline resolves the window-start snapshot for a change rule
// nil when the account has no prior snapshot, which keeps the rule quiet
func (s *Svc) loadBaseline(ctx context.Context, cur scoredom.AccountScore, days float64, now time.Time) *scoredom.AccountScore {
	cutoff := now.Add(-time.Duration(days*24) * time.Hour)
	b, err := s.Repo.BaselineScore(ctx, cur.OrgID, cur.AccountID, cutoff)
	switch {
	case err == nil && b.Version < cur.Version:
		return &b
	case err == nil:
		// the only snapshot on record is the one being evaluated
		return nil
	case perr.IsCode(err, perr.ErrorCodeNotFound):
		return nil
	default:
		s.log.Warn().Err(err).Str("account", cur.AccountID).Msg("baseline score lookup failed")
		return nil
	}
}
