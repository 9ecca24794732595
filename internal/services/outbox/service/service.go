// Package service contains outbox workflows
package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"sigscore/internal/modkit/repokit"
	perr "sigscore/internal/platform/errors"
	"sigscore/internal/platform/logger"
	"sigscore/internal/services/outbox/domain"
	"sigscore/internal/services/outbox/repo"
)

// Recorder appends taxonomy events inside a caller-owned transaction
// producers pass the same Queryer their own writes run on so the event row
// commits or rolls back with the domain write
type Recorder interface {
	Append(ctx context.Context, q repokit.Queryer, orgID, topic string, payload any) error
}

// Service defines the outbox service contract
type Service interface {
	Recorder
	Drain(ctx context.Context, limit int) (int, error)
}

// Svc implements the outbox service
type Svc struct {
	binder repokit.Binder[repo.Repo]
	db     repokit.TxRunner
	log    logger.Logger
}

// New constructs an outbox service
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo]) *Svc {
	if db == nil {
		panic("outbox.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("outbox.Service requires a non nil Repo binder")
	}
	return &Svc{binder: binder, db: db, log: *logger.Named("outbox")}
}

// Append writes one event row on the caller's Queryer
func (s *Svc) Append(ctx context.Context, q repokit.Queryer, orgID, topic string, payload any) error {
	if !domain.KnownTopic(topic) {
		return perr.InvalidArgf("unknown outbox topic %q", topic)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeJSON, "marshal outbox payload")
	}
	return s.binder.Bind(q).Append(ctx, uuid.NewString(), orgID, topic, body)
}

// Drain marks up to limit pending rows dispatched after logging them
// the log sink stands in for the delivery transport, which is out of scope
func (s *Svc) Drain(ctx context.Context, limit int) (int, error) {
	r := s.binder.Bind(s.db)
	pending, err := r.Pending(ctx, limit)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}
	ids := make([]string, 0, len(pending))
	for _, ev := range pending {
		s.log.Info().
			Str("topic", ev.Topic).
			Str("org", ev.OrgID).
			RawJSON("payload", ev.Payload).
			Msg("outbox dispatch")
		ids = append(ids, ev.ID)
	}
	if err := r.MarkDispatched(ctx, ids, time.Now().UTC()); err != nil {
		return 0, err
	}
	return len(ids), nil
}
