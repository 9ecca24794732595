// Package repo provides postgres access for the outbox
package repo

import (
	"context"
	"time"

	"sigscore/internal/modkit/repokit"
	"sigscore/internal/services/outbox/domain"
)

// Repo is the minimal persistence surface for outbox rows
type Repo interface {
	Append(ctx context.Context, id, orgID, topic string, payload []byte) error
	Pending(ctx context.Context, limit int) ([]domain.Event, error)
	MarkDispatched(ctx context.Context, ids []string, at time.Time) error
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

func (r *queries) Append(ctx context.Context, id, orgID, topic string, payload []byte) error {
	const sql = `
insert into outbox_events (id, org_id, topic, payload)
values ($1, $2, $3, $4)
`
	_, err := r.q.Exec(ctx, sql, id, orgID, topic, payload)
	return err
}

func (r *queries) Pending(ctx context.Context, limit int) ([]domain.Event, error) {
	const sql = `
select id, org_id, topic, payload, created_at
from outbox_events
where dispatched_at is null
order by created_at asc
limit $1
`
	rows, err := r.q.Query(ctx, sql, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Event
	for rows.Next() {
		var ev domain.Event
		if err := rows.Scan(&ev.ID, &ev.OrgID, &ev.Topic, &ev.Payload, &ev.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (r *queries) MarkDispatched(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	const sql = `
update outbox_events
set dispatched_at = $2
where id = any($1) and dispatched_at is null
`
	_, err := r.q.Exec(ctx, sql, ids, at)
	return err
}
