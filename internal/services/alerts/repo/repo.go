// Package repo provides postgres access for alert rules, state, and events
package repo

import (
	"context"
	"encoding/json"
	"time"

	"sigscore/internal/modkit/repokit"
	perr "sigscore/internal/platform/errors"
	pstr "sigscore/internal/platform/strings"
	"sigscore/internal/services/alerts/domain"
	scoredom "sigscore/internal/services/scoring/domain"
)

// Repo is the persistence surface for the alert evaluator
type Repo interface {
	InsertRule(ctx context.Context, r domain.Rule) error
	UpdateRule(ctx context.Context, r domain.Rule) error
	DeleteRule(ctx context.Context, orgID, id string) error
	GetRule(ctx context.Context, orgID, id string) (domain.Rule, error)
	ListRules(ctx context.Context, orgID string, in domain.ListRulesInput) ([]domain.Rule, error)
	// EnabledRules returns every enabled rule for the org; the service
	// splits them by trigger kind
	EnabledRules(ctx context.Context, orgID string) ([]domain.Rule, error)

	// GetState returns the edge tracker for a (rule, account) pair
	// a missing row reads as inactive
	GetState(ctx context.Context, ruleID, accountID string) (domain.RuleState, error)
	UpsertState(ctx context.Context, st domain.RuleState) error

	InsertEvent(ctx context.Context, e domain.Event) error
	Events(ctx context.Context, orgID string, in domain.ListEventsInput) ([]domain.Event, int64, error)

	// LastSignalAt returns the newest signal timestamp for the account
	// zero time when the account has no signals
	LastSignalAt(ctx context.Context, orgID, accountID string) (time.Time, error)

	// BaselineScore returns the newest snapshot at or before the cutoff,
	// falling back to the account's oldest snapshot when history starts
	// inside the window. NotFound when no snapshot exists at all
	BaselineScore(ctx context.Context, orgID, accountID string, cutoff time.Time) (scoredom.AccountScore, error)
}

type (
	// PG is a binder that can bind the repo to a Queryer or TxRunner
	PG struct{}
	// queries implements the Repo interface
	queries struct{ q repokit.Queryer }
)

// NewPG returns a binder that can bind the repo to a Queryer or TxRunner
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind wires a Queryer to the repo
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

const ruleCols = `id, org_id, name, trigger_type, conditions, channels, enabled, created_at, updated_at`

func (r *queries) InsertRule(ctx context.Context, rule domain.Rule) error {
	conditions, channels, err := ruleJSON(rule)
	if err != nil {
		return err
	}
	const sql = `
insert into alert_rules (id, org_id, name, trigger_type, conditions, channels, enabled, created_at, updated_at)
values ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`
	return repokit.ExecOne(ctx, r.q, sql,
		rule.ID, rule.OrgID, rule.Name, string(rule.Trigger), conditions, channels,
		rule.Enabled, rule.CreatedAt, rule.UpdatedAt,
	)
}

func (r *queries) UpdateRule(ctx context.Context, rule domain.Rule) error {
	conditions, channels, err := ruleJSON(rule)
	if err != nil {
		return err
	}
	const sql = `
update alert_rules
set name = $3, trigger_type = $4, conditions = $5, channels = $6, enabled = $7, updated_at = $8
where org_id = $1 and id = $2
`
	return repokit.ExecOne(ctx, r.q, sql,
		rule.OrgID, rule.ID, rule.Name, string(rule.Trigger), conditions, channels,
		rule.Enabled, rule.UpdatedAt,
	)
}

func (r *queries) DeleteRule(ctx context.Context, orgID, id string) error {
	const sql = `delete from alert_rules where org_id = $1 and id = $2`
	return repokit.ExecOne(ctx, r.q, sql, orgID, id)
}

func (r *queries) GetRule(ctx context.Context, orgID, id string) (domain.Rule, error) {
	const sql = `select ` + ruleCols + ` from alert_rules where org_id = $1 and id = $2`
	return repokit.One(ctx, r.q, scanRule, sql, orgID, id)
}

func (r *queries) ListRules(ctx context.Context, orgID string, in domain.ListRulesInput) ([]domain.Rule, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = 100
	}
	const sql = `
select ` + ruleCols + `
from alert_rules
where org_id = $1
and ($2::bool is null or enabled = $2)
order by created_at asc, id asc
limit $3 offset $4
`
	return repokit.Many(ctx, r.q, scanRule, sql, orgID, in.Enabled, limit, in.Offset)
}

func (r *queries) EnabledRules(ctx context.Context, orgID string) ([]domain.Rule, error) {
	const sql = `
select ` + ruleCols + `
from alert_rules
where org_id = $1 and enabled
order by created_at asc, id asc
`
	return repokit.Many(ctx, r.q, scanRule, sql, orgID)
}

func (r *queries) GetState(ctx context.Context, ruleID, accountID string) (domain.RuleState, error) {
	const sql = `
select rule_id, account_id, active, updated_at
from alert_rule_state
where rule_id = $1 and account_id = $2
`
	return repokit.One(ctx, r.q, scanState, sql, ruleID, accountID)
}

func (r *queries) UpsertState(ctx context.Context, st domain.RuleState) error {
	const sql = `
insert into alert_rule_state (rule_id, account_id, active, updated_at)
values ($1, $2, $3, $4)
on conflict (rule_id, account_id) do update set active = excluded.active, updated_at = excluded.updated_at
`
	return repokit.ExecOne(ctx, r.q, sql, st.RuleID, st.AccountID, st.Active, st.UpdatedAt)
}

func (r *queries) InsertEvent(ctx context.Context, e domain.Event) error {
	before, err := snapshotJSON(e.Before)
	if err != nil {
		return err
	}
	after, err := snapshotJSON(e.After)
	if err != nil {
		return err
	}
	const sql = `
insert into alert_events (id, org_id, rule_id, rule_name, account_id, trigger_type,
                          snapshot_before, snapshot_after, signal_id, is_test, fired_at)
values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`
	return repokit.ExecOne(ctx, r.q, sql,
		e.ID, e.OrgID, e.RuleID, e.RuleName, e.AccountID, string(e.Trigger),
		before, after, pstr.SQLNull(e.SignalID), e.Test, e.FiredAt,
	)
}

func (r *queries) Events(ctx context.Context, orgID string, in domain.ListEventsInput) ([]domain.Event, int64, error) {
	limit := in.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	const countSQL = `
select count(*)
from alert_events
where org_id = $1
and ($2 = '' or rule_id::text = $2)
and ($3 = '' or account_id = $3)
`
	total, err := repokit.Scalar[int64](ctx, r.q, countSQL, orgID, in.RuleID, in.AccountID)
	if err != nil {
		return nil, 0, err
	}
	const sql = `
select id, org_id, rule_id, rule_name, account_id, trigger_type,
       snapshot_before, snapshot_after, coalesce(signal_id, ''), is_test, fired_at
from alert_events
where org_id = $1
and ($2 = '' or rule_id::text = $2)
and ($3 = '' or account_id = $3)
order by fired_at desc, id desc
limit $4 offset $5
`
	events, err := repokit.Many(ctx, r.q, scanEvent, sql, orgID, in.RuleID, in.AccountID, limit, in.Offset)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func (r *queries) LastSignalAt(ctx context.Context, orgID, accountID string) (time.Time, error) {
	const sql = `
select coalesce(max(ts), 'epoch'::timestamptz)
from signals
where org_id = $1 and account_id::text = $2
`
	ts, err := repokit.Scalar[time.Time](ctx, r.q, sql, orgID, accountID)
	if err != nil {
		return time.Time{}, err
	}
	if ts.Unix() <= 0 {
		return time.Time{}, nil
	}
	return ts, nil
}

const baselineCols = `account_id, org_id, score, tier, trend, version, computed_at`

func (r *queries) BaselineScore(ctx context.Context, orgID, accountID string, cutoff time.Time) (scoredom.AccountScore, error) {
	const atOrBefore = `
select ` + baselineCols + `
from account_scores
where org_id = $1 and account_id = $2 and computed_at <= $3
order by computed_at desc, version desc
limit 1
`
	s, err := repokit.One(ctx, r.q, scanBaseline, atOrBefore, orgID, accountID, cutoff)
	if err == nil {
		return s, nil
	}
	if !perr.IsCode(err, perr.ErrorCodeNotFound) {
		return scoredom.AccountScore{}, err
	}
	const oldest = `
select ` + baselineCols + `
from account_scores
where org_id = $1 and account_id = $2
order by computed_at asc, version asc
limit 1
`
	return repokit.One(ctx, r.q, scanBaseline, oldest, orgID, accountID)
}

func ruleJSON(rule domain.Rule) (conditions, channels []byte, err error) {
	if conditions, err = json.Marshal(rule.Conditions); err != nil {
		return nil, nil, err
	}
	if channels, err = json.Marshal(rule.Channels); err != nil {
		return nil, nil, err
	}
	return conditions, channels, nil
}

func snapshotJSON(s *scoredom.AccountScore) ([]byte, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

func scanRule(row repokit.Row) (domain.Rule, error) {
	var (
		rule       domain.Rule
		trigger    string
		conditions []byte
		channels   []byte
	)
	if err := row.Scan(&rule.ID, &rule.OrgID, &rule.Name, &trigger, &conditions, &channels,
		&rule.Enabled, &rule.CreatedAt, &rule.UpdatedAt); err != nil {
		return rule, err
	}
	rule.Trigger = domain.TriggerType(trigger)
	if len(conditions) > 0 {
		if err := json.Unmarshal(conditions, &rule.Conditions); err != nil {
			return rule, err
		}
	}
	if len(channels) > 0 {
		if err := json.Unmarshal(channels, &rule.Channels); err != nil {
			return rule, err
		}
	}
	return rule, nil
}

func scanBaseline(row repokit.Row) (scoredom.AccountScore, error) {
	var (
		s     scoredom.AccountScore
		tier  string
		trend string
	)
	if err := row.Scan(&s.AccountID, &s.OrgID, &s.Score, &tier, &trend, &s.Version, &s.ComputedAt); err != nil {
		return s, err
	}
	s.Tier = scoredom.Tier(tier)
	s.Trend = scoredom.Trend(trend)
	return s, nil
}

func scanState(row repokit.Row) (domain.RuleState, error) {
	var st domain.RuleState
	err := row.Scan(&st.RuleID, &st.AccountID, &st.Active, &st.UpdatedAt)
	return st, err
}

func scanEvent(row repokit.Row) (domain.Event, error) {
	var (
		e       domain.Event
		trigger string
		before  []byte
		after   []byte
	)
	if err := row.Scan(&e.ID, &e.OrgID, &e.RuleID, &e.RuleName, &e.AccountID, &trigger,
		&before, &after, &e.SignalID, &e.Test, &e.FiredAt); err != nil {
		return e, err
	}
	e.Trigger = domain.TriggerType(trigger)
	if len(before) > 0 {
		e.Before = new(scoredom.AccountScore)
		if err := json.Unmarshal(before, e.Before); err != nil {
			return e, err
		}
	}
	if len(after) > 0 {
		e.After = new(scoredom.AccountScore)
		if err := json.Unmarshal(after, e.After); err != nil {
			return e, err
		}
	}
	return e, nil
}
