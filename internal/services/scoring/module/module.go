// Package module wires scoring into the API using modkit
package module

import (
	"net/http"

	modkit "sigscore/internal/modkit"
	"sigscore/internal/modkit/httpkit"
	str "sigscore/internal/platform/strings"
	scorehttp "sigscore/internal/services/scoring/http"
	scorerepo "sigscore/internal/services/scoring/repo"
	scoresvc "sigscore/internal/services/scoring/service"

	outboxsvc "sigscore/internal/services/outbox/service"
)

// Module implements the scoring module
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws   []func(http.Handler) http.Handler
	ports any

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)

	svc *scoresvc.Svc
}

// New constructs the scoring module
func New(deps modkit.Deps, recorder outboxsvc.Recorder, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("scoring"), modkit.WithPrefix("/accounts")}, opts...)...)

	repo := scorerepo.NewPG()
	svc := scoresvc.New(deps.PG, repo, deps.RDS, recorder, scoresvc.FromConfig(deps.Cfg))

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		subrouter: b.Subrouter,
		svc:       svc,
	}
	m.ports = Ports{Scores: svc}

	external := b.Register
	m.register = func(r httpkit.Router) {
		scorehttp.Register(r, m.svc)
		if external != nil {
			external(r)
		}
	}
	return m
}

// MountRoutes mounts the module routes on the given router
func (m *Module) MountRoutes(r httpkit.Router) {
	httpkit.MountUnder(r, m.prefix, m.mws, func(rr httpkit.Router) {
		if m.subrouter != nil {
			rr = m.subrouter(rr)
		}
		if m.register != nil {
			m.register(rr)
		}
	})
}

// Name returns the module name
func (m *Module) Name() string { return str.MustString(m.name, "module name") }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return str.MustPrefix(m.prefix) }

// Service exposes the concrete service for worker and listener wiring
func (m *Module) Service() *scoresvc.Svc { return m.svc }
