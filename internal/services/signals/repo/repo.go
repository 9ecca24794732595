// Package repo provides postgres access for signals
package repo

import (
	"context"
	"encoding/json"

	"sigscore/internal/modkit/repokit"
	pstr "sigscore/internal/platform/strings"
	"sigscore/internal/services/signals/domain"
)

// Repo is the minimal persistence surface for signals
type Repo interface {
	// Insert writes the signal and reports whether a row was actually created
	// an existing (org_id, dedup_key) pair makes this a no-op returning false
	Insert(ctx context.Context, s domain.Signal) (bool, error)
	GetByDedupKey(ctx context.Context, orgID, key string) (domain.Signal, error)
	List(ctx context.Context, orgID string, in domain.ListInput) ([]domain.Signal, error)
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

func (r *queries) Insert(ctx context.Context, s domain.Signal) (bool, error) {
	meta, err := json.Marshal(s.Metadata)
	if err != nil {
		return false, err
	}
	const sql = `
insert into signals (id, org_id, source_type, actor_id, contact_id, account_id, type, metadata, ts, dedup_key)
values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
on conflict (org_id, dedup_key) do nothing
`
	tag, err := r.q.Exec(ctx, sql,
		s.ID, s.OrgID, string(s.SourceType), pstr.SQLNull(s.ActorID), pstr.SQLNull(s.ContactID),
		pstr.SQLNull(s.AccountID), string(s.Type), meta, s.Timestamp, s.DedupKey,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *queries) GetByDedupKey(ctx context.Context, orgID, key string) (domain.Signal, error) {
	const sql = `
select id, org_id, source_type, coalesce(actor_id, ''), coalesce(contact_id::text, ''),
       coalesce(account_id::text, ''), type, metadata, ts, dedup_key, created_at
from signals
where org_id = $1 and dedup_key = $2
`
	return repokit.One(ctx, r.q, scanSignal, sql, orgID, key)
}

func (r *queries) List(ctx context.Context, orgID string, in domain.ListInput) ([]domain.Signal, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = 100
	}
	const sql = `
select id, org_id, source_type, coalesce(actor_id, ''), coalesce(contact_id::text, ''),
       coalesce(account_id::text, ''), type, metadata, ts, dedup_key, created_at
from signals
where org_id = $1
and ($2 = '' or account_id::text = $2)
and ($3 = '' or source_type = $3)
and ($4 = '' or type = $4)
order by ts desc
limit $5 offset $6
`
	return repokit.Many(ctx, r.q, scanSignal, sql, orgID, in.AccountID, in.Source, in.Type, limit, in.Offset)
}

func scanSignal(row repokit.Row) (domain.Signal, error) {
	var (
		s    domain.Signal
		src  string
		typ  string
		meta []byte
	)
	if err := row.Scan(&s.ID, &s.OrgID, &src, &s.ActorID, &s.ContactID, &s.AccountID,
		&typ, &meta, &s.Timestamp, &s.DedupKey, &s.CreatedAt); err != nil {
		return s, err
	}
	s.SourceType = domain.SourceType(src)
	s.Type = domain.SignalType(typ)
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &s.Metadata); err != nil {
			return s, err
		}
	}
	return s, nil
}
