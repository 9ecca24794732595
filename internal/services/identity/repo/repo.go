// Package repo provides postgres access for contacts and identities
package repo

import (
	"context"
	"encoding/json"

	"sigscore/internal/modkit/repokit"
	pstr "sigscore/internal/platform/strings"
	"sigscore/internal/services/identity/domain"
)

// SharedEdge is one pair of contacts linked by a shared identity value
type SharedEdge struct {
	ContactA    string
	ContactB    string
	Value       string
	ConfidenceA float64
	ConfidenceB float64
}

// Repo is the persistence surface for identity resolution
type Repo interface {
	FindByTypeValue(ctx context.Context, orgID string, t domain.IdentityType, value string) ([]domain.Identity, error)
	IdentitiesByContact(ctx context.Context, orgID, contactID string) ([]domain.Identity, error)
	InsertIdentity(ctx context.Context, id domain.Identity) (bool, error)
	MoveIdentity(ctx context.Context, identityID, contactID string) error
	BumpConfidence(ctx context.Context, identityID string, confidence float64, verified bool) error
	DeleteIdentity(ctx context.Context, identityID string) error

	CreateContact(ctx context.Context, c domain.Contact) error
	GetContact(ctx context.Context, orgID, id string) (domain.Contact, error)
	ContactsByIDs(ctx context.Context, orgID string, ids []string) ([]domain.Contact, error)
	ContactsForUpdate(ctx context.Context, orgID string, ids []string) ([]domain.Contact, error)
	AccountByDomain(ctx context.Context, orgID, dom string) (string, error)
	SetContactAccount(ctx context.Context, orgID, contactID, accountID string) error
	DeleteContact(ctx context.Context, orgID, id string) error

	SharedValueEdges(ctx context.Context, orgID string) ([]SharedEdge, error)
	ReassignOwnership(ctx context.Context, orgID, fromContact, toContact string) error
	SignalMetadata(ctx context.Context, orgID, contactID string, limit int) ([]map[string]any, error)
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

const identityCols = `id, org_id, contact_id, type, value, verified, confidence, created_at`

func scanIdentity(row repokit.Row) (domain.Identity, error) {
	var (
		ident domain.Identity
		typ   string
	)
	if err := row.Scan(&ident.ID, &ident.OrgID, &ident.ContactID, &typ,
		&ident.Value, &ident.Verified, &ident.Confidence, &ident.CreatedAt); err != nil {
		return ident, err
	}
	ident.Type = domain.IdentityType(typ)
	return ident, nil
}

func (r *queries) FindByTypeValue(ctx context.Context, orgID string, t domain.IdentityType, value string) ([]domain.Identity, error) {
	const sql = `
select ` + identityCols + `
from identities
where org_id = $1 and type = $2 and value = $3
order by confidence desc, created_at asc
`
	return repokit.Many(ctx, r.q, scanIdentity, sql, orgID, string(t), value)
}

func (r *queries) IdentitiesByContact(ctx context.Context, orgID, contactID string) ([]domain.Identity, error) {
	const sql = `
select ` + identityCols + `
from identities
where org_id = $1 and contact_id = $2
order by confidence desc, created_at asc
`
	return repokit.Many(ctx, r.q, scanIdentity, sql, orgID, contactID)
}

func (r *queries) InsertIdentity(ctx context.Context, id domain.Identity) (bool, error) {
	const sql = `
insert into identities (id, org_id, contact_id, type, value, verified, confidence)
values ($1, $2, $3, $4, $5, $6, $7)
on conflict (org_id, contact_id, type, value) do nothing
`
	tag, err := r.q.Exec(ctx, sql, id.ID, id.OrgID, id.ContactID, string(id.Type), id.Value, id.Verified, id.Confidence)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *queries) MoveIdentity(ctx context.Context, identityID, contactID string) error {
	return repokit.ExecOne(ctx, r.q, `update identities set contact_id = $2 where id = $1`, identityID, contactID)
}

func (r *queries) BumpConfidence(ctx context.Context, identityID string, confidence float64, verified bool) error {
	return repokit.ExecOne(ctx, r.q,
		`update identities set confidence = $2, verified = $3 where id = $1`,
		identityID, confidence, verified)
}

func (r *queries) DeleteIdentity(ctx context.Context, identityID string) error {
	_, err := r.q.Exec(ctx, `delete from identities where id = $1`, identityID)
	return err
}

func (r *queries) CreateContact(ctx context.Context, c domain.Contact) error {
	const sql = `
insert into contacts (id, org_id, name, account_id)
values ($1, $2, $3, $4)
`
	_, err := r.q.Exec(ctx, sql, c.ID, c.OrgID, pstr.SQLNull(c.Name), pstr.SQLNull(c.AccountID))
	return err
}

func scanContact(row repokit.Row) (domain.Contact, error) {
	var c domain.Contact
	err := row.Scan(&c.ID, &c.OrgID, &c.Name, &c.AccountID, &c.CreatedAt)
	return c, err
}

func (r *queries) GetContact(ctx context.Context, orgID, id string) (domain.Contact, error) {
	const sql = `
select id, org_id, coalesce(name, ''), coalesce(account_id::text, ''), created_at
from contacts
where org_id = $1 and id = $2
`
	return repokit.One(ctx, r.q, scanContact, sql, orgID, id)
}

func (r *queries) ContactsByIDs(ctx context.Context, orgID string, ids []string) ([]domain.Contact, error) {
	const sql = `
select id, org_id, coalesce(name, ''), coalesce(account_id::text, ''), created_at
from contacts
where org_id = $1 and id = any($2)
order by created_at asc, id asc
`
	return repokit.Many(ctx, r.q, scanContact, sql, orgID, ids)
}

// AccountByDomain resolves a company account from a folded domain value
func (r *queries) AccountByDomain(ctx context.Context, orgID, dom string) (string, error) {
	const sql = `
select id from accounts where org_id = $1 and domain = $2
`
	return repokit.Scalar[string](ctx, r.q, sql, orgID, dom)
}

// ContactsForUpdate locks the named rows for the life of the surrounding tx
// ordered by id so concurrent merges acquire locks in the same sequence
func (r *queries) ContactsForUpdate(ctx context.Context, orgID string, ids []string) ([]domain.Contact, error) {
	const sql = `
select id, org_id, coalesce(name, ''), coalesce(account_id::text, ''), created_at
from contacts
where org_id = $1 and id = any($2)
order by id
for update
`
	return repokit.Many(ctx, r.q, scanContact, sql, orgID, ids)
}

func (r *queries) SetContactAccount(ctx context.Context, orgID, contactID, accountID string) error {
	_, err := r.q.Exec(ctx,
		`update contacts set account_id = $3 where org_id = $1 and id = $2 and account_id is null`,
		orgID, contactID, accountID)
	return err
}

func (r *queries) DeleteContact(ctx context.Context, orgID, id string) error {
	return repokit.ExecOne(ctx, r.q, `delete from contacts where org_id = $1 and id = $2`, orgID, id)
}

func (r *queries) SharedValueEdges(ctx context.Context, orgID string) ([]SharedEdge, error) {
	const sql = `
select a.contact_id, b.contact_id, a.value, a.confidence, b.confidence
from identities a
join identities b
  on a.org_id = b.org_id and a.type = b.type and a.value = b.value
 and a.contact_id < b.contact_id
where a.org_id = $1
`
	rows, err := r.q.Query(ctx, sql, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SharedEdge
	for rows.Next() {
		var e SharedEdge
		if err := rows.Scan(&e.ContactA, &e.ContactB, &e.Value, &e.ConfidenceA, &e.ConfidenceB); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ReassignOwnership moves signals, activities, and deals between contacts
func (r *queries) ReassignOwnership(ctx context.Context, orgID, fromContact, toContact string) error {
	stmts := []string{
		`update signals set contact_id = $3 where org_id = $1 and contact_id = $2`,
		`update activities set contact_id = $3 where org_id = $1 and contact_id = $2`,
		`update deals set contact_id = $3 where org_id = $1 and contact_id = $2`,
	}
	for _, sql := range stmts {
		if _, err := r.q.Exec(ctx, sql, orgID, fromContact, toContact); err != nil {
			return err
		}
	}
	return nil
}

func (r *queries) SignalMetadata(ctx context.Context, orgID, contactID string, limit int) ([]map[string]any, error) {
	if limit <= 0 {
		limit = 500
	}
	const sql = `
select metadata
from signals
where org_id = $1 and contact_id = $2 and metadata is not null
order by ts desc
limit $3
`
	return repokit.Many(ctx, r.q, scanMeta, sql, orgID, contactID, limit)
}

func scanMeta(row repokit.Row) (map[string]any, error) {
	var raw []byte
	if err := row.Scan(&raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}
