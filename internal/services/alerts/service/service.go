// Package service contains the alert evaluator workflows
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"sigscore/internal/modkit/repokit"
	"sigscore/internal/platform/config"
	perr "sigscore/internal/platform/errors"
	"sigscore/internal/platform/logger"
	pnet "sigscore/internal/platform/net"
	"sigscore/internal/services/alerts/domain"
	"sigscore/internal/services/alerts/notify"
	"sigscore/internal/services/alerts/repo"
	scoredom "sigscore/internal/services/scoring/domain"
	sigdom "sigscore/internal/services/signals/domain"
)

// Config tunes the alert evaluator
type Config struct {
	SlackWebhookURL string
	DispatchTimeout time.Duration
}

// FromConfig reads ALERTS_ settings
func FromConfig(cfg config.Conf) Config {
	c := cfg.Prefix("ALERTS_")
	return Config{
		SlackWebhookURL: c.MayString("SLACK_WEBHOOK_URL", ""),
		DispatchTimeout: c.MayDuration("DISPATCH_TIMEOUT", 30*time.Second),
	}
}

// ScoreSource reads the current score snapshot for test fires
// implemented by the scoring module
type ScoreSource interface {
	Get(ctx context.Context, accountID string) (scoredom.AccountScore, error)
}

// Service defines the alerts service contract
type Service interface {
	domain.ServicePort
}

// Svc implements the alert evaluator
type Svc struct {
	Repo       repo.Repo
	binder     repokit.Binder[repo.Repo]
	db         repokit.TxRunner
	dispatcher *notify.Dispatcher
	scores     ScoreSource
	cfg        Config
	log        logger.Logger
}

// New constructs an alerts service
// scores may be nil; test fires then run without a current snapshot
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo], scores ScoreSource, cfg Config) *Svc {
	if db == nil {
		panic("alerts.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("alerts.Service requires a non nil Repo binder")
	}
	log := *logger.Named("alerts")
	return &Svc{
		Repo:       binder.Bind(db),
		binder:     binder,
		db:         db,
		dispatcher: notify.NewDispatcher(notify.NewSlack(cfg.SlackWebhookURL), nil, log),
		scores:     scores,
		cfg:        cfg,
		log:        log,
	}
}

// WithDispatcher swaps the dispatcher, used by tests
func (s *Svc) WithDispatcher(d *notify.Dispatcher) *Svc {
	s.dispatcher = d
	return s
}

// CreateRule validates and stores a new alert rule
func (s *Svc) CreateRule(ctx context.Context, in domain.RuleInput) (domain.Rule, error) {
	orgID := pnet.OrgID(ctx)
	if orgID == "" {
		return domain.Rule{}, perr.Validationf("missing organization scope")
	}
	trigger, err := validateRule(in)
	if err != nil {
		return domain.Rule{}, err
	}
	now := time.Now().UTC()
	rule := domain.Rule{
		ID:         uuid.NewString(),
		OrgID:      orgID,
		Name:       in.Name,
		Trigger:    trigger,
		Conditions: in.Conditions,
		Channels:   in.Channels,
		Enabled:    in.Enabled,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.Repo.InsertRule(ctx, rule); err != nil {
		return domain.Rule{}, err
	}
	return rule, nil
}

// UpdateRule replaces an existing rule's configuration
func (s *Svc) UpdateRule(ctx context.Context, id string, in domain.RuleInput) (domain.Rule, error) {
	orgID := pnet.OrgID(ctx)
	if orgID == "" {
		return domain.Rule{}, perr.Validationf("missing organization scope")
	}
	existing, err := s.Repo.GetRule(ctx, orgID, id)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return domain.Rule{}, perr.NotFoundf("rule %s not found", id)
	}
	if err != nil {
		return domain.Rule{}, err
	}
	trigger, err := validateRule(in)
	if err != nil {
		return domain.Rule{}, err
	}
	rule := existing
	rule.Name = in.Name
	rule.Trigger = trigger
	rule.Conditions = in.Conditions
	rule.Channels = in.Channels
	rule.Enabled = in.Enabled
	rule.UpdatedAt = time.Now().UTC()
	if err := s.Repo.UpdateRule(ctx, rule); err != nil {
		return domain.Rule{}, err
	}
	return rule, nil
}

// DeleteRule removes a rule; its firing history stays
func (s *Svc) DeleteRule(ctx context.Context, id string) error {
	orgID := pnet.OrgID(ctx)
	if orgID == "" {
		return perr.Validationf("missing organization scope")
	}
	if _, err := s.Repo.GetRule(ctx, orgID, id); err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return perr.NotFoundf("rule %s not found", id)
		}
		return err
	}
	return s.Repo.DeleteRule(ctx, orgID, id)
}

// GetRule returns one rule
func (s *Svc) GetRule(ctx context.Context, id string) (domain.Rule, error) {
	orgID := pnet.OrgID(ctx)
	if orgID == "" {
		return domain.Rule{}, perr.Validationf("missing organization scope")
	}
	rule, err := s.Repo.GetRule(ctx, orgID, id)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return domain.Rule{}, perr.NotFoundf("rule %s not found", id)
	}
	return rule, err
}

// ListRules lists the org's rules
func (s *Svc) ListRules(ctx context.Context, in domain.ListRulesInput) ([]domain.Rule, error) {
	orgID := pnet.OrgID(ctx)
	if orgID == "" {
		return nil, perr.Validationf("missing organization scope")
	}
	return s.Repo.ListRules(ctx, orgID, in)
}

// Events pages through the firing history
func (s *Svc) Events(ctx context.Context, in domain.ListEventsInput) (domain.EventPage, error) {
	orgID := pnet.OrgID(ctx)
	if orgID == "" {
		return domain.EventPage{}, perr.Validationf("missing organization scope")
	}
	events, total, err := s.Repo.Events(ctx, orgID, in)
	if err != nil {
		return domain.EventPage{}, err
	}
	if in.Limit <= 0 {
		in.Limit = 50
	}
	return domain.EventPage{Events: events, Total: total, Limit: in.Limit, Offset: in.Offset}, nil
}

// TestFire fires a rule once on demand
// bypasses the enabled flag and the edge suppression state
func (s *Svc) TestFire(ctx context.Context, id string, in domain.TestInput) (domain.Event, error) {
	orgID := pnet.OrgID(ctx)
	if orgID == "" {
		return domain.Event{}, perr.Validationf("missing organization scope")
	}
	rule, err := s.Repo.GetRule(ctx, orgID, id)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return domain.Event{}, perr.NotFoundf("rule %s not found", id)
	}
	if err != nil {
		return domain.Event{}, err
	}

	event := s.newEvent(rule, in.AccountID)
	event.Test = true
	if s.scores != nil {
		if cur, err := s.scores.Get(ctx, in.AccountID); err == nil {
			event.After = &cur
		}
	}
	if err := s.Repo.InsertEvent(ctx, event); err != nil {
		return domain.Event{}, err
	}
	s.dispatch(ctx, rule.Channels, event)
	return event, nil
}

func (s *Svc) newEvent(rule domain.Rule, accountID string) domain.Event {
	return domain.Event{
		ID:        uuid.NewString(),
		OrgID:     rule.OrgID,
		RuleID:    rule.ID,
		RuleName:  rule.Name,
		AccountID: accountID,
		Trigger:   rule.Trigger,
		FiredAt:   time.Now().UTC(),
	}
}

// dispatch fans the event out without holding the caller
// event persistence already happened, so delivery trouble is log-only
func (s *Svc) dispatch(ctx context.Context, ch domain.Channels, event domain.Event) {
	if s.dispatcher == nil {
		return
	}
	base := context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(base, s.cfg.DispatchTimeout)
		defer cancel()
		s.dispatcher.Dispatch(ctx, ch, event)
	}()
}

func validateRule(in domain.RuleInput) (domain.TriggerType, error) {
	trigger := domain.TriggerType(in.Trigger)
	if !trigger.Valid() {
		return "", perr.WithField(perr.Validationf("unknown trigger type %q", in.Trigger), "triggerType")
	}
	cond := domain.Conditions(in.Conditions)
	switch trigger {
	case domain.TriggerScoreDrop:
		if cond.Float(domain.CondDropPct) <= 0 {
			return "", perr.WithField(perr.Validationf("score_drop requires a positive drop_pct"), "conditions")
		}
		if cond.Float(domain.CondDays) <= 0 {
			return "", perr.WithField(perr.Validationf("score_drop requires a positive days window"), "conditions")
		}
	case domain.TriggerScoreRise:
		if cond.Float(domain.CondRisePct) <= 0 {
			return "", perr.WithField(perr.Validationf("score_rise requires a positive rise_pct"), "conditions")
		}
		if cond.Float(domain.CondDays) <= 0 {
			return "", perr.WithField(perr.Validationf("score_rise requires a positive days window"), "conditions")
		}
	case domain.TriggerScoreThreshold:
		t := cond.Float(domain.CondThreshold)
		if t <= 0 || t >= 100 {
			return "", perr.WithField(perr.Validationf("score_threshold requires a threshold strictly between 0 and 100"), "conditions")
		}
		switch cond.String(domain.CondDirection) {
		case domain.DirectionBelow, domain.DirectionAbove:
		default:
			return "", perr.WithField(perr.Validationf("score_threshold requires direction %q or %q", domain.DirectionBelow, domain.DirectionAbove), "conditions")
		}
	case domain.TriggerEngagementDrop, domain.TriggerAccountInactive:
		if cond.Float(domain.CondDays) <= 0 {
			return "", perr.WithField(perr.Validationf("%s requires a positive days value", trigger), "conditions")
		}
	case domain.TriggerNewHotSignal:
		sources := cond.Strings(domain.CondSourceTypes)
		if len(sources) == 0 {
			return "", perr.WithField(perr.Validationf("new_hot_signal requires a non-empty source_types list"), "conditions")
		}
		for _, src := range sources {
			if !sigdom.SourceType(src).Valid() {
				return "", perr.WithField(perr.Validationf("unknown source type %q", src), "conditions")
			}
		}
	}
	return trigger, nil
}
