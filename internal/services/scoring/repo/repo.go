// Package repo provides postgres access for account scores
package repo

import (
	"context"
	"encoding/json"
	"time"

	"sigscore/internal/modkit/repokit"
	"sigscore/internal/services/scoring/domain"
)

// Repo is the persistence surface for scoring
type Repo interface {
	AccountExists(ctx context.Context, orgID, accountID string) (bool, error)
	WindowStats(ctx context.Context, orgID, accountID string, now time.Time, windowDays int) (domain.WindowStats, error)
	Latest(ctx context.Context, orgID, accountID string) (domain.AccountScore, error)
	// InsertSnapshot appends a new version row; reports false when the
	// version already exists, which means a concurrent recompute won
	InsertSnapshot(ctx context.Context, s domain.AccountScore) (bool, error)
	Top(ctx context.Context, orgID, tier string, limit int) ([]domain.AccountScore, error)
	StaleAccounts(ctx context.Context, orgID string, olderThan time.Time, limit int) ([]string, error)
	OrgIDs(ctx context.Context) ([]string, error)
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

func (r *queries) AccountExists(ctx context.Context, orgID, accountID string) (bool, error) {
	const sql = `select exists(select 1 from accounts where org_id = $1 and id = $2)`
	return repokit.Scalar[bool](ctx, r.q, sql, orgID, accountID)
}

func (r *queries) WindowStats(ctx context.Context, orgID, accountID string, now time.Time, windowDays int) (domain.WindowStats, error) {
	st := domain.WindowStats{Now: now, WindowDays: windowDays}
	winStart := now.AddDate(0, 0, -windowDays)
	priorStart := now.AddDate(0, 0, -2*windowDays)

	const sql = `
select
  count(*) filter (where ts >= $3)                                as cur,
  count(*) filter (where ts >= $4 and ts < $3)                    as prior,
  count(distinct coalesce(actor_id, 'anonymous')) filter (where ts >= $3) as actors,
  count(distinct type) filter (where ts >= $3)                    as types,
  coalesce(max(ts) filter (where ts >= $3), 'epoch'::timestamptz) as last_ts
from signals
where org_id = $1 and account_id = $2 and ts < $5
`
	var last time.Time
	if err := r.q.QueryRow(ctx, sql, orgID, accountID, winStart, priorStart, now).
		Scan(&st.SignalCount, &st.PriorCount, &st.DistinctActors, &st.DistinctTypes, &last); err != nil {
		return st, err
	}
	if last.Unix() > 0 {
		st.LastSignalAt = last
	}
	return st, nil
}

const scoreCols = `account_id, org_id, score, tier, trend, factors, signal_count, user_count, version, computed_at`

func scanScore(row repokit.Row) (domain.AccountScore, error) {
	var (
		s       domain.AccountScore
		tier    string
		trend   string
		factors []byte
	)
	if err := row.Scan(&s.AccountID, &s.OrgID, &s.Score, &tier, &trend,
		&factors, &s.SignalCount, &s.UserCount, &s.Version, &s.ComputedAt); err != nil {
		return s, err
	}
	s.Tier = domain.Tier(tier)
	s.Trend = domain.Trend(trend)
	if len(factors) > 0 {
		if err := json.Unmarshal(factors, &s.Factors); err != nil {
			return s, err
		}
	}
	return s, nil
}

func (r *queries) Latest(ctx context.Context, orgID, accountID string) (domain.AccountScore, error) {
	const sql = `
select ` + scoreCols + `
from account_scores
where org_id = $1 and account_id = $2
order by version desc
limit 1
`
	return repokit.One(ctx, r.q, scanScore, sql, orgID, accountID)
}

func (r *queries) InsertSnapshot(ctx context.Context, s domain.AccountScore) (bool, error) {
	factors, err := json.Marshal(s.Factors)
	if err != nil {
		return false, err
	}
	const sql = `
insert into account_scores (account_id, org_id, score, tier, trend, factors, signal_count, user_count, version, computed_at)
values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
on conflict (account_id, version) do nothing
`
	tag, err := r.q.Exec(ctx, sql, s.AccountID, s.OrgID, s.Score, string(s.Tier), string(s.Trend),
		factors, s.SignalCount, s.UserCount, s.Version, s.ComputedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *queries) Top(ctx context.Context, orgID, tier string, limit int) ([]domain.AccountScore, error) {
	if limit <= 0 {
		limit = 20
	}
	const sql = `
select ` + scoreCols + `
from (
  select distinct on (account_id) ` + scoreCols + `
  from account_scores
  where org_id = $1
  order by account_id, version desc
) latest
where ($2 = '' or tier = $2)
order by score desc, account_id asc
limit $3
`
	return repokit.Many(ctx, r.q, scanScore, sql, orgID, tier, limit)
}

// StaleAccounts lists accounts with window activity whose latest snapshot is
// missing or older than the cutoff
func (r *queries) StaleAccounts(ctx context.Context, orgID string, olderThan time.Time, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 50
	}
	const sql = `
select a.id
from accounts a
left join lateral (
  select computed_at from account_scores s
  where s.account_id = a.id
  order by version desc limit 1
) latest on true
where a.org_id = $1
and exists (select 1 from signals g where g.org_id = a.org_id and g.account_id = a.id)
and (latest.computed_at is null or latest.computed_at < $2)
order by latest.computed_at asc nulls first
limit $3
`
	return repokit.Many(ctx, r.q, scanID, sql, orgID, olderThan, limit)
}

func (r *queries) OrgIDs(ctx context.Context) ([]string, error) {
	return repokit.Many(ctx, r.q, scanID, `select distinct org_id from accounts`)
}

func scanID(row repokit.Row) (string, error) {
	var id string
	err := row.Scan(&id)
	return id, err
}
