// Package service contains signal ingestion workflows
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sigscore/internal/modkit/repokit"
	"sigscore/internal/platform/config"
	perr "sigscore/internal/platform/errors"
	"sigscore/internal/platform/logger"
	pnet "sigscore/internal/platform/net"
	"sigscore/internal/platform/net/http/bind"
	"sigscore/internal/platform/store"
	outboxdom "sigscore/internal/services/outbox/domain"
	outboxsvc "sigscore/internal/services/outbox/service"
	"sigscore/internal/services/signals/domain"
	"sigscore/internal/services/signals/repo"
)

// BatchCap is the hard limit on batch ingestion size
const BatchCap = 1000

// Config tunes the dedup gate
type Config struct {
	// IdempotencyTTL bounds the redis dedup window
	IdempotencyTTL time.Duration
}

// FromConfig reads SIGNALS_ settings
func FromConfig(cfg config.Conf) Config {
	c := cfg.Prefix("SIGNALS_")
	return Config{
		IdempotencyTTL: c.MayDuration("IDEMPOTENCY_TTL", 24*time.Hour),
	}
}

// Service defines the signals service contract
type Service interface {
	domain.ServicePort
}

// ContactResolver attaches a canonical contact and account to an incoming signal
// implemented by the identity module; nil disables attachment at ingest time
type ContactResolver interface {
	ResolveActor(ctx context.Context, source string, actorID string, meta map[string]any) (contactID, accountID string, err error)
}

// SignalListener observes freshly stored signals, duplicates excluded
// implemented by the alerts module; delivery is best effort
type SignalListener interface {
	OnSignal(ctx context.Context, sig domain.Signal)
}

// Svc implements the signals service
type Svc struct {
	Repo     repo.Repo
	binder   repokit.Binder[repo.Repo]
	db       repokit.TxRunner
	rds      store.Redis
	ch       store.Clickhouse
	outbox   outboxsvc.Recorder
	res      ContactResolver
	listener SignalListener
	cfg      Config
	log      logger.Logger
}

// New constructs a signals service
// rds, ch, and outbox may be nil; the gate then runs on postgres uniqueness alone
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo], rds store.Redis, ch store.Clickhouse, ob outboxsvc.Recorder, cfg Config) *Svc {
	if db == nil {
		panic("signals.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("signals.Service requires a non nil Repo binder")
	}
	return &Svc{
		Repo:   binder.Bind(db),
		binder: binder,
		db:     db,
		rds:    rds,
		ch:     ch,
		outbox: ob,
		cfg:    cfg,
		log:    *logger.Named("signals"),
	}
}

// WithResolver attaches the identity resolver port after construction
// called from api wiring once the identity module exists
func (s *Svc) WithResolver(res ContactResolver) *Svc {
	s.res = res
	return s
}

// WithListener attaches the signal listener after construction
func (s *Svc) WithListener(l SignalListener) *Svc {
	s.listener = l
	return s
}

// Ingest runs one signal through the dedup gate
// duplicate delivery is an expected transport condition, never an error
func (s *Svc) Ingest(ctx context.Context, in domain.IngestInput) (domain.IngestResult, error) {
	orgID := pnet.OrgID(ctx)
	if orgID == "" {
		return domain.IngestResult{}, perr.Validationf("missing organization scope")
	}
	if err := validateInput(in); err != nil {
		return domain.IngestResult{}, err
	}

	sig := buildSignal(orgID, in)

	// attach contact and account before the write so scoring sees ownership
	if s.res != nil && sig.ContactID == "" {
		contactID, accountID, err := s.res.ResolveActor(ctx, string(sig.SourceType), sig.ActorID, sig.Metadata)
		if err != nil {
			// resolution trouble must not reject ingestion
			s.log.Warn().Err(err).Str("actor", sig.Actor()).Msg("identity resolution failed")
		} else {
			sig.ContactID = contactID
			if sig.AccountID == "" {
				sig.AccountID = accountID
			}
		}
	}

	// redis window first: a hit short-circuits straight to the stored row
	if s.rds != nil {
		set, err := s.rds.SetNX(ctx, dedupKey(orgID, sig.DedupKey), sig.ID, int(s.cfg.IdempotencyTTL.Seconds()))
		if err != nil {
			// cache trouble must not reject ingestion, fall through to pg
			s.log.Warn().Err(err).Msg("dedup cache unavailable")
		} else if !set {
			existing, err := s.Repo.GetByDedupKey(ctx, orgID, sig.DedupKey)
			if err == nil {
				return domain.IngestResult{Signal: existing, IsDuplicate: true}, nil
			}
			if !perr.IsCode(err, perr.ErrorCodeNotFound) {
				return domain.IngestResult{}, err
			}
			// cache knows the key but pg does not; treat as first delivery
		}
	}

	var inserted bool
	err := repokit.WithTx(ctx, s.db, func(q repokit.Queryer) error {
		var err error
		inserted, err = s.binder.Bind(q).Insert(ctx, sig)
		if err != nil {
			return err
		}
		if inserted && s.outbox != nil {
			return s.outbox.Append(ctx, q, orgID, outboxdom.TopicSignalCreated, sig)
		}
		return nil
	})
	if err != nil {
		return domain.IngestResult{}, err
	}

	if !inserted {
		existing, err := s.Repo.GetByDedupKey(ctx, orgID, sig.DedupKey)
		if err != nil {
			return domain.IngestResult{}, err
		}
		return domain.IngestResult{Signal: existing, IsDuplicate: true}, nil
	}

	s.mirror(ctx, sig)
	if s.listener != nil {
		s.listener.OnSignal(ctx, sig)
	}
	return domain.IngestResult{Signal: sig, IsDuplicate: false}, nil
}

// IngestBatch validates and ingests each entry independently
func (s *Svc) IngestBatch(ctx context.Context, in domain.BatchInput) (domain.BatchSummary, error) {
	if len(in.Signals) == 0 {
		return domain.BatchSummary{}, perr.Validationf("empty batch")
	}
	if len(in.Signals) > BatchCap {
		return domain.BatchSummary{}, perr.Validationf("batch exceeds %d signals", BatchCap)
	}

	sum := domain.BatchSummary{Total: len(in.Signals), Results: make([]domain.BatchItemResult, 0, len(in.Signals))}
	for i, item := range in.Signals {
		res := domain.BatchItemResult{Index: i}
		if err := bind.ValidateStruct(item); err != nil {
			res.Error = perr.WireFrom(err).Message
			sum.Failed++
			sum.Results = append(sum.Results, res)
			continue
		}
		out, err := s.Ingest(ctx, item)
		if err != nil {
			res.Error = perr.WireFrom(err).Message
			sum.Failed++
		} else {
			res.SignalID = out.Signal.ID
			res.IsDuplicate = out.IsDuplicate
			sum.Succeeded++
		}
		sum.Results = append(sum.Results, res)
	}
	return sum, nil
}

// List returns recent signals for the org
func (s *Svc) List(ctx context.Context, in domain.ListInput) ([]domain.Signal, error) {
	orgID := pnet.OrgID(ctx)
	if orgID == "" {
		return nil, perr.Validationf("missing organization scope")
	}
	return s.Repo.List(ctx, orgID, in)
}

// DailyStats reads day buckets from the clickhouse mirror
func (s *Svc) DailyStats(ctx context.Context, days int) ([]domain.DailyStatRow, error) {
	orgID := pnet.OrgID(ctx)
	if orgID == "" {
		return nil, perr.Validationf("missing organization scope")
	}
	if s.ch == nil {
		return nil, perr.Unavailablef("analytics mirror not configured")
	}
	if days <= 0 || days > 365 {
		days = 30
	}
	const sql = `
select toString(toDate(ts)) as day, count() as c
from signals_mirror
where org_id = ? and ts >= now() - interval ? day
group by day
order by day asc
`
	rows, err := s.ch.Query(ctx, sql, orgID, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.DailyStatRow
	for rows.Next() {
		var r domain.DailyStatRow
		if err := rows.Scan(&r.Day, &r.Count); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// mirror fans the signal out to clickhouse, best effort
func (s *Svc) mirror(ctx context.Context, sig domain.Signal) {
	if s.ch == nil {
		return
	}
	cols := []string{"org_id", "id", "source_type", "actor_id", "account_id", "type", "ts"}
	row := []any{sig.OrgID, sig.ID, string(sig.SourceType), sig.Actor(), sig.AccountID, string(sig.Type), sig.Timestamp}
	if err := s.ch.Insert(ctx, "signals_mirror", cols, [][]any{row}); err != nil {
		s.log.Warn().Err(err).Str("signal", sig.ID).Msg("clickhouse mirror failed")
	}
}

func validateInput(in domain.IngestInput) error {
	if !domain.SourceType(in.SourceType).Valid() {
		return perr.WithField(perr.Validationf("unknown source_type %q", in.SourceType), "source_type")
	}
	if !domain.SignalType(in.Type).Valid() {
		return perr.WithField(perr.Validationf("unknown type %q", in.Type), "type")
	}
	return nil
}

func buildSignal(orgID string, in domain.IngestInput) domain.Signal {
	ts := time.Now().UTC()
	if in.Timestamp != nil {
		ts = in.Timestamp.UTC()
	}
	key := in.IdempotencyKey
	if key == "" {
		key = domain.Fingerprint(domain.SourceType(in.SourceType), in.ActorID, domain.SignalType(in.Type), in.Metadata)
	}
	return domain.Signal{
		ID:         uuid.NewString(),
		OrgID:      orgID,
		SourceType: domain.SourceType(in.SourceType),
		ActorID:    in.ActorID,
		AccountID:  in.AccountID,
		Type:       domain.SignalType(in.Type),
		Metadata:   in.Metadata,
		Timestamp:  ts,
		DedupKey:   key,
		CreatedAt:  time.Now().UTC(),
	}
}

func dedupKey(orgID, key string) string {
	return fmt.Sprintf("signals:dedup:%s:%s", orgID, key)
}
