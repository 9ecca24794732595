// Package service contains identity resolution workflows
package service

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"sigscore/internal/modkit/repokit"
	"sigscore/internal/platform/config"
	perr "sigscore/internal/platform/errors"
	"sigscore/internal/platform/logger"
	pnet "sigscore/internal/platform/net"
	"sigscore/internal/services/identity/domain"
	"sigscore/internal/services/identity/repo"
)

// Service defines the identity service contract
type Service interface {
	domain.ServicePort
}

// Svc implements the identity service
type Svc struct {
	Repo   repo.Repo
	binder repokit.Binder[repo.Repo]
	db     repokit.TxRunner
	conf   domain.ConfidenceTable
	log    logger.Logger
}

// FromConfig reads IDENTITY_ confidence overrides
func FromConfig(cfg config.Conf) domain.ConfidenceTable {
	c := cfg.Prefix("IDENTITY_")
	d := domain.DefaultConfidence()
	return domain.ConfidenceTable{
		VerifiedEmail:  c.MayFloat64("CONFIDENCE_VERIFIED_EMAIL", d.VerifiedEmail),
		Email:          c.MayFloat64("CONFIDENCE_EMAIL", d.Email),
		VerifiedHandle: c.MayFloat64("CONFIDENCE_VERIFIED_HANDLE", d.VerifiedHandle),
		Handle:         c.MayFloat64("CONFIDENCE_HANDLE", d.Handle),
		Domain:         c.MayFloat64("CONFIDENCE_DOMAIN", d.Domain),
		IP:             c.MayFloat64("CONFIDENCE_IP", d.IP),
	}
}

// New constructs an identity service
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo], conf domain.ConfidenceTable) *Svc {
	if db == nil {
		panic("identity.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("identity.Service requires a non nil Repo binder")
	}
	return &Svc{
		Repo:   binder.Bind(db),
		binder: binder,
		db:     db,
		conf:   conf,
		log:    *logger.Named("identity"),
	}
}

// Resolve maps actor hints to a canonical contact
// hints are tried in descending confidence order; the first exact match wins
// and the remaining hints become new identities on that contact
func (s *Svc) Resolve(ctx context.Context, hints domain.ActorHints) (string, error) {
	orgID := pnet.OrgID(ctx)
	if orgID == "" {
		return "", perr.Validationf("missing organization scope")
	}
	pairs := hints.Pairs()
	if len(pairs) == 0 {
		return "", nil
	}

	var contactID string
	for _, p := range pairs {
		matches, err := s.Repo.FindByTypeValue(ctx, orgID, p.Type, p.Value)
		if err != nil {
			return "", err
		}
		if len(matches) > 0 {
			// repo orders by confidence desc; the head is the best claim
			contactID = matches[0].ContactID
			break
		}
	}

	if contactID == "" {
		contactID = uuid.NewString()
		if err := s.Repo.CreateContact(ctx, domain.Contact{ID: contactID, OrgID: orgID}); err != nil {
			return "", err
		}
	}

	// union: attach any hint the contact does not carry yet
	for _, p := range pairs {
		ident := domain.Identity{
			ID:         uuid.NewString(),
			OrgID:      orgID,
			ContactID:  contactID,
			Type:       p.Type,
			Value:      p.Value,
			Verified:   p.Verified,
			Confidence: s.conf.For(p.Type, p.Verified),
		}
		if _, err := s.Repo.InsertIdentity(ctx, ident); err != nil {
			return "", err
		}
	}
	return contactID, nil
}

// Identities returns the identity graph for a contact
func (s *Svc) Identities(ctx context.Context, contactID string) ([]domain.Identity, error) {
	orgID := pnet.OrgID(ctx)
	if orgID == "" {
		return nil, perr.Validationf("missing organization scope")
	}
	if _, err := s.Repo.GetContact(ctx, orgID, contactID); err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return nil, perr.NotFoundf("contact %s not found", contactID)
		}
		return nil, err
	}
	return s.Repo.IdentitiesByContact(ctx, orgID, contactID)
}

// FindDuplicates clusters contacts sharing identity values
// primary choice is deterministic: earliest created contact, id as tie-break,
// so repeated runs return the same grouping
func (s *Svc) FindDuplicates(ctx context.Context) ([]domain.DuplicateGroup, error) {
	orgID := pnet.OrgID(ctx)
	if orgID == "" {
		return nil, perr.Validationf("missing organization scope")
	}
	edges, err := s.Repo.SharedValueEdges(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if len(edges) == 0 {
		return nil, nil
	}

	pairs := make([][2]string, 0, len(edges))
	sharedBy := map[string]map[string]float64{} // root-agnostic: contact pair key -> per value max conf
	for _, e := range edges {
		pairs = append(pairs, [2]string{e.ContactA, e.ContactB})
		for _, c := range []struct {
			id   string
			conf float64
		}{{e.ContactA, e.ConfidenceA}, {e.ContactB, e.ConfidenceB}} {
			if sharedBy[c.id] == nil {
				sharedBy[c.id] = map[string]float64{}
			}
			if c.conf > sharedBy[c.id][e.Value] {
				sharedBy[c.id][e.Value] = c.conf
			}
		}
	}

	groups := domain.Cluster(pairs)
	out := make([]domain.DuplicateGroup, 0, len(groups))
	for _, members := range groups {
		contacts, err := s.Repo.ContactsByIDs(ctx, orgID, members)
		if err != nil {
			return nil, err
		}
		if len(contacts) < 2 {
			continue
		}
		// repo orders by created_at asc, id asc
		primary := contacts[0].ID

		valueSet := map[string]float64{}
		for _, m := range members {
			for v, conf := range sharedBy[m] {
				if conf > valueSet[v] {
					valueSet[v] = conf
				}
			}
		}
		values := make([]string, 0, len(valueSet))
		confs := make([]float64, 0, len(valueSet))
		for v := range valueSet {
			values = append(values, v)
		}
		sort.Strings(values)
		for _, v := range values {
			confs = append(confs, valueSet[v])
		}

		ids := make([]string, 0, len(contacts))
		for _, c := range contacts {
			ids = append(ids, c.ID)
		}
		out = append(out, domain.DuplicateGroup{
			PrimaryID:         primary,
			ContactIDs:        ids,
			SharedIdentities:  values,
			OverallConfidence: domain.GroupConfidence(confs),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PrimaryID < out[j].PrimaryID })
	return out, nil
}

// Merge folds duplicate contacts into the primary in one transaction
// irreversible; either every ownership transfer lands or none do
func (s *Svc) Merge(ctx context.Context, in domain.MergeInput) error {
	orgID := pnet.OrgID(ctx)
	if orgID == "" {
		return perr.Validationf("missing organization scope")
	}
	for _, d := range in.DuplicateIDs {
		if d == in.PrimaryID {
			return perr.Conflictf("primary contact cannot be one of its duplicates")
		}
	}

	return repokit.WithTx(ctx, s.db, func(q repokit.Queryer) error {
		r := s.binder.Bind(q)

		all := append([]string{in.PrimaryID}, in.DuplicateIDs...)
		locked, err := r.ContactsForUpdate(ctx, orgID, all)
		if err != nil {
			return err
		}
		if len(locked) != len(all) {
			return perr.Conflictf("contact missing or already merged")
		}

		var primary domain.Contact
		for _, c := range locked {
			if c.ID == in.PrimaryID {
				primary = c
			}
		}

		primaryIdents, err := r.IdentitiesByContact(ctx, orgID, in.PrimaryID)
		if err != nil {
			return err
		}
		byKey := map[string]domain.Identity{}
		for _, ident := range primaryIdents {
			byKey[string(ident.Type)+"\x00"+ident.Value] = ident
		}

		for _, dupID := range in.DuplicateIDs {
			if err := r.ReassignOwnership(ctx, orgID, dupID, in.PrimaryID); err != nil {
				return err
			}

			dupIdents, err := r.IdentitiesByContact(ctx, orgID, dupID)
			if err != nil {
				return err
			}
			for _, ident := range dupIdents {
				key := string(ident.Type) + "\x00" + ident.Value
				existing, ok := byKey[key]
				if !ok {
					if err := r.MoveIdentity(ctx, ident.ID, in.PrimaryID); err != nil {
						return err
					}
					ident.ContactID = in.PrimaryID
					byKey[key] = ident
					continue
				}
				// both sides carry the pair, keep the stronger claim
				if ident.Confidence > existing.Confidence || (ident.Verified && !existing.Verified) {
					if err := r.BumpConfidence(ctx, existing.ID, ident.Confidence, ident.Verified || existing.Verified); err != nil {
						return err
					}
					existing.Confidence = ident.Confidence
					existing.Verified = ident.Verified || existing.Verified
					byKey[key] = existing
				}
				if err := r.DeleteIdentity(ctx, ident.ID); err != nil {
					return err
				}
			}

			// inherit a company association the primary lacks
			if primary.AccountID == "" {
				for _, c := range locked {
					if c.ID == dupID && c.AccountID != "" {
						if err := r.SetContactAccount(ctx, orgID, in.PrimaryID, c.AccountID); err != nil {
							return err
						}
						primary.AccountID = c.AccountID
						break
					}
				}
			}

			if err := r.DeleteContact(ctx, orgID, dupID); err != nil {
				return err
			}
		}
		return nil
	})
}

// Enrich mines already-ingested signal history for new identities
// additive only; existing identity rows are never altered
func (s *Svc) Enrich(ctx context.Context, contactID string) (domain.EnrichResult, error) {
	orgID := pnet.OrgID(ctx)
	if orgID == "" {
		return domain.EnrichResult{}, perr.Validationf("missing organization scope")
	}
	contact, err := s.Repo.GetContact(ctx, orgID, contactID)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return domain.EnrichResult{}, perr.NotFoundf("contact %s not found", contactID)
		}
		return domain.EnrichResult{}, err
	}

	metas, err := s.Repo.SignalMetadata(ctx, orgID, contactID, 500)
	if err != nil {
		return domain.EnrichResult{}, err
	}

	var res domain.EnrichResult
	for _, meta := range metas {
		for _, p := range HintsFromMetadata(meta).Pairs() {
			ident := domain.Identity{
				ID:         uuid.NewString(),
				OrgID:      orgID,
				ContactID:  contactID,
				Type:       p.Type,
				Value:      p.Value,
				Verified:   p.Verified,
				Confidence: s.conf.For(p.Type, p.Verified),
			}
			inserted, err := s.Repo.InsertIdentity(ctx, ident)
			if err != nil {
				return res, err
			}
			if inserted {
				res.IdentitiesAdded++
			}
			if p.Type == domain.IdentDomain && contact.AccountID == "" {
				accountID, err := s.Repo.AccountByDomain(ctx, orgID, p.Value)
				if err == nil && accountID != "" {
					if err := s.Repo.SetContactAccount(ctx, orgID, contactID, accountID); err != nil {
						return res, err
					}
					contact.AccountID = accountID
					res.CompanyResolved = true
				} else if err != nil && !perr.IsCode(err, perr.ErrorCodeNotFound) {
					return res, err
				}
			}
		}
	}
	return res, nil
}

// HintsFromMetadata lifts well-known metadata keys into actor hints
func HintsFromMetadata(meta map[string]any) domain.ActorHints {
	get := func(keys ...string) string {
		for _, k := range keys {
			if v, ok := meta[k].(string); ok && v != "" {
				return v
			}
		}
		return ""
	}
	return domain.ActorHints{
		Email:    get("email", "author_email", "committer_email"),
		GitHub:   get("github", "github_login"),
		NPM:      get("npm", "npm_user"),
		Twitter:  get("twitter", "twitter_handle"),
		LinkedIn: get("linkedin"),
		IP:       get("ip", "client_ip"),
		Domain:   get("domain", "company_domain", "email_domain"),
	}
}

// ResolveActor implements the signals resolver port
// the actor id itself becomes a hint typed by the source connector
func (s *Svc) ResolveActor(ctx context.Context, source string, actorID string, meta map[string]any) (string, string, error) {
	hints := HintsFromMetadata(meta)
	if actorID != "" {
		switch source {
		case "github":
			if hints.GitHub == "" {
				hints.GitHub = actorID
			}
		case "npm", "pypi", "docker":
			if hints.NPM == "" {
				hints.NPM = actorID
			}
		case "twitter":
			if hints.Twitter == "" {
				hints.Twitter = actorID
			}
		case "linkedin":
			if hints.LinkedIn == "" {
				hints.LinkedIn = actorID
			}
		default:
			if hints.Email == "" && looksLikeEmail(actorID) {
				hints.Email = actorID
			}
		}
	}
	if hints.Empty() {
		return "", "", nil
	}
	contactID, err := s.Resolve(ctx, hints)
	if err != nil || contactID == "" {
		return "", "", err
	}
	orgID := pnet.OrgID(ctx)
	contact, err := s.Repo.GetContact(ctx, orgID, contactID)
	if err != nil {
		return contactID, "", nil
	}
	return contactID, contact.AccountID, nil
}

func looksLikeEmail(s string) bool {
	at := -1
	for i, r := range s {
		if r == '@' {
			if at >= 0 {
				return false
			}
			at = i
		}
	}
	return at > 0 && at < len(s)-1
}
