package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"sigscore/internal/modkit/repokit"
	perr "sigscore/internal/platform/errors"
	pnet "sigscore/internal/platform/net"
	"sigscore/internal/services/identity/domain"
	"sigscore/internal/services/identity/repo"
)

type fakeDB struct{}

func (fakeDB) Exec(context.Context, string, ...any) (repokit.CommandTag, error) { return nil, nil }
func (fakeDB) Query(context.Context, string, ...any) (repokit.Rows, error)      { return nil, nil }
func (fakeDB) QueryRow(context.Context, string, ...any) repokit.Row             { return nil }
func (f fakeDB) Tx(_ context.Context, fn func(q repokit.Queryer) error) error   { return fn(f) }

// memRepo is an in-memory identity store with the same uniqueness rules
// the postgres schema enforces
type memRepo struct {
	mu         sync.Mutex
	contacts   map[string]domain.Contact
	identities map[string]domain.Identity
	reassigned [][2]string
	metadata   map[string][]map[string]any
	accounts   map[string]string // domain -> account id
}

func newMemRepo() *memRepo {
	return &memRepo{
		contacts:   map[string]domain.Contact{},
		identities: map[string]domain.Identity{},
		metadata:   map[string][]map[string]any{},
		accounts:   map[string]string{},
	}
}

func (m *memRepo) FindByTypeValue(_ context.Context, orgID string, t domain.IdentityType, value string) ([]domain.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Identity
	for _, id := range m.identities {
		if id.OrgID == orgID && id.Type == t && id.Value == value {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	return out, nil
}

func (m *memRepo) IdentitiesByContact(_ context.Context, orgID, contactID string) ([]domain.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Identity
	for _, id := range m.identities {
		if id.OrgID == orgID && id.ContactID == contactID {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memRepo) InsertIdentity(_ context.Context, id domain.Identity) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ex := range m.identities {
		if ex.OrgID == id.OrgID && ex.ContactID == id.ContactID && ex.Type == id.Type && ex.Value == id.Value {
			return false, nil
		}
	}
	m.identities[id.ID] = id
	return true, nil
}

func (m *memRepo) MoveIdentity(_ context.Context, identityID, contactID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.identities[identityID]
	id.ContactID = contactID
	m.identities[identityID] = id
	return nil
}

func (m *memRepo) BumpConfidence(_ context.Context, identityID string, confidence float64, verified bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.identities[identityID]
	id.Confidence = confidence
	id.Verified = verified
	m.identities[identityID] = id
	return nil
}

func (m *memRepo) DeleteIdentity(_ context.Context, identityID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.identities, identityID)
	return nil
}

func (m *memRepo) CreateContact(_ context.Context, c domain.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	m.contacts[c.ID] = c
	return nil
}

func (m *memRepo) GetContact(_ context.Context, orgID, id string) (domain.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[id]
	if !ok || c.OrgID != orgID {
		return domain.Contact{}, perr.NotFoundf("contact not found")
	}
	return c, nil
}

func (m *memRepo) ContactsByIDs(_ context.Context, orgID string, ids []string) ([]domain.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Contact
	for _, id := range ids {
		if c, ok := m.contacts[id]; ok && c.OrgID == orgID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memRepo) ContactsForUpdate(ctx context.Context, orgID string, ids []string) ([]domain.Contact, error) {
	return m.ContactsByIDs(ctx, orgID, ids)
}

func (m *memRepo) AccountByDomain(_ context.Context, orgID, dom string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.accounts[dom]; ok {
		return id, nil
	}
	return "", perr.NotFoundf("account not found")
}

func (m *memRepo) SetContactAccount(_ context.Context, orgID, contactID, accountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.contacts[contactID]
	c.AccountID = accountID
	m.contacts[contactID] = c
	return nil
}

func (m *memRepo) DeleteContact(_ context.Context, orgID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.contacts, id)
	return nil
}

func (m *memRepo) SharedValueEdges(context.Context, string) ([]repo.SharedEdge, error) { return nil, nil }

func (m *memRepo) ReassignOwnership(_ context.Context, orgID, fromContact, toContact string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reassigned = append(m.reassigned, [2]string{fromContact, toContact})
	return nil
}

func (m *memRepo) SignalMetadata(_ context.Context, orgID, contactID string, limit int) ([]map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.metadata[contactID], nil
}

type memBinder struct{ r *memRepo }

func (b memBinder) Bind(repokit.Queryer) repo.Repo { return b.r }

func newTestSvc(r *memRepo) *Svc {
	return New(fakeDB{}, memBinder{r: r}, domain.DefaultConfidence())
}

func orgCtx() context.Context {
	return pnet.WithRequest(context.Background(), "req-test", "org-1")
}

func seedContact(m *memRepo, id, accountID string, created time.Time) {
	m.contacts[id] = domain.Contact{ID: id, OrgID: "org-1", AccountID: accountID, CreatedAt: created}
}

func seedIdentity(m *memRepo, id, contactID string, t domain.IdentityType, value string, conf float64, verified bool) {
	m.identities[id] = domain.Identity{
		ID: id, OrgID: "org-1", ContactID: contactID,
		Type: t, Value: value, Confidence: conf, Verified: verified,
	}
}

func TestMerge_UnionsIdentitySets(t *testing.T) {
	t.Parallel()

	m := newMemRepo()
	base := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	seedContact(m, "primary", "", base)
	seedContact(m, "dup1", "acct-9", base.Add(time.Hour))
	seedContact(m, "dup2", "", base.Add(2*time.Hour))

	seedIdentity(m, "i1", "primary", domain.IdentEmail, "dev@example.com", 0.90, false)
	seedIdentity(m, "i2", "primary", domain.IdentGitHub, "octocat", 0.80, false)
	seedIdentity(m, "i3", "dup1", domain.IdentEmail, "dev@example.com", 0.95, true)
	seedIdentity(m, "i4", "dup1", domain.IdentNPM, "devnpm", 0.70, false)
	seedIdentity(m, "i5", "dup2", domain.IdentTwitter, "dev_tw", 0.60, false)

	svc := newTestSvc(m)
	if err := svc.Merge(orgCtx(), domain.MergeInput{PrimaryID: "primary", DuplicateIDs: []string{"dup1", "dup2"}}); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	if _, ok := m.contacts["dup1"]; ok {
		t.Fatal("dup1 survived the merge")
	}
	if _, ok := m.contacts["dup2"]; ok {
		t.Fatal("dup2 survived the merge")
	}

	idents, err := svc.Identities(orgCtx(), "primary")
	if err != nil {
		t.Fatalf("Identities: %v", err)
	}
	got := map[string]domain.Identity{}
	for _, id := range idents {
		if id.ContactID != "primary" {
			t.Fatalf("identity %s still on contact %s", id.ID, id.ContactID)
		}
		k := string(id.Type) + ":" + id.Value
		if _, dup := got[k]; dup {
			t.Fatalf("duplicate identity pair %s after merge", k)
		}
		got[k] = id
	}
	key := func(typ domain.IdentityType, value string) string { return string(typ) + ":" + value }
	want := []string{
		key(domain.IdentEmail, "dev@example.com"),
		key(domain.IdentGitHub, "octocat"),
		key(domain.IdentNPM, "devnpm"),
		key(domain.IdentTwitter, "dev_tw"),
	}
	if len(got) != len(want) {
		t.Fatalf("got %d identities, want %d: %v", len(got), len(want), got)
	}
	for _, k := range want {
		if _, ok := got[k]; !ok {
			t.Fatalf("merged set missing %s", k)
		}
	}

	// the duplicate's stronger verified email claim wins
	email := got[key(domain.IdentEmail, "dev@example.com")]
	if email.Confidence != 0.95 || !email.Verified {
		t.Fatalf("shared email kept conf=%v verified=%v, want 0.95/true", email.Confidence, email.Verified)
	}

	// primary inherits the account association it lacked
	if m.contacts["primary"].AccountID != "acct-9" {
		t.Fatalf("primary account = %q, want acct-9", m.contacts["primary"].AccountID)
	}

	// every duplicate had its activity reassigned
	if len(m.reassigned) != 2 {
		t.Fatalf("reassigned %d contacts, want 2", len(m.reassigned))
	}
}

func TestMerge_RejectsPrimaryAsDuplicate(t *testing.T) {
	t.Parallel()

	svc := newTestSvc(newMemRepo())
	err := svc.Merge(orgCtx(), domain.MergeInput{PrimaryID: "c1", DuplicateIDs: []string{"c1"}})
	if !perr.IsCode(err, perr.ErrorCodeConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestMerge_MissingContactAborts(t *testing.T) {
	t.Parallel()

	m := newMemRepo()
	seedContact(m, "primary", "", time.Now().UTC())
	svc := newTestSvc(m)

	err := svc.Merge(orgCtx(), domain.MergeInput{PrimaryID: "primary", DuplicateIDs: []string{"ghost"}})
	if !perr.IsCode(err, perr.ErrorCodeConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
	if _, ok := m.contacts["primary"]; !ok {
		t.Fatal("aborted merge must leave the primary untouched")
	}
}

func TestResolve_ExactMatchReusesContact(t *testing.T) {
	t.Parallel()

	m := newMemRepo()
	seedContact(m, "c1", "", time.Now().UTC())
	seedIdentity(m, "i1", "c1", domain.IdentEmail, "dev@example.com", 0.90, false)
	svc := newTestSvc(m)

	contactID, err := svc.Resolve(orgCtx(), domain.ActorHints{Email: "Dev@Example.COM", GitHub: "octocat"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if contactID != "c1" {
		t.Fatalf("contact = %s, want c1", contactID)
	}

	idents, err := svc.Identities(orgCtx(), "c1")
	if err != nil {
		t.Fatalf("Identities: %v", err)
	}
	if len(idents) != 2 {
		t.Fatalf("got %d identities, want email plus github", len(idents))
	}
}

func TestResolve_NoMatchCreatesContact(t *testing.T) {
	t.Parallel()

	m := newMemRepo()
	svc := newTestSvc(m)

	contactID, err := svc.Resolve(orgCtx(), domain.ActorHints{GitHub: "fresh"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if contactID == "" {
		t.Fatal("expected a new contact id")
	}
	if _, ok := m.contacts[contactID]; !ok {
		t.Fatal("contact row not created")
	}
}

func TestHintsFromMetadata(t *testing.T) {
	t.Parallel()

	h := HintsFromMetadata(map[string]any{
		"author_email":   "dev@example.com",
		"github_login":   "octocat",
		"company_domain": "example.com",
		"client_ip":      "10.0.0.1",
		"stars":          float64(42),
	})
	if h.Email != "dev@example.com" || h.GitHub != "octocat" || h.Domain != "example.com" || h.IP != "10.0.0.1" {
		t.Fatalf("hints = %+v", h)
	}
	if !HintsFromMetadata(map[string]any{"stars": float64(1)}).Empty() {
		t.Fatal("numeric-only metadata should yield no hints")
	}
}
