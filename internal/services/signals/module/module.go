// Package module wires signals into the API using modkit
package module

import (
	"net/http"

	modkit "sigscore/internal/modkit"
	"sigscore/internal/modkit/httpkit"
	str "sigscore/internal/platform/strings"
	sighttp "sigscore/internal/services/signals/http"
	sigrepo "sigscore/internal/services/signals/repo"
	sigsvc "sigscore/internal/services/signals/service"

	outboxsvc "sigscore/internal/services/outbox/service"
)

// Module implements the signals module
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws   []func(http.Handler) http.Handler
	ports any

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)

	svc *sigsvc.Svc
}

// New constructs the signals module
// recorder and resolver may be nil in tests; the gate then skips outbox rows
// and contact attachment
func New(deps modkit.Deps, recorder outboxsvc.Recorder, resolver sigsvc.ContactResolver, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("signals"), modkit.WithPrefix("/signals")}, opts...)...)

	repo := sigrepo.NewPG()
	svc := sigsvc.New(deps.PG, repo, deps.RDS, deps.CH, recorder, sigsvc.FromConfig(deps.Cfg))
	if resolver != nil {
		svc.WithResolver(resolver)
	}

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		subrouter: b.Subrouter,
		svc:       svc,
	}
	m.ports = Ports{Ingestor: svc}

	external := b.Register
	m.register = func(r httpkit.Router) {
		sighttp.Register(r, m.svc)
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

// Service exposes the concrete service for listener and worker wiring
func (m *Module) Service() *sigsvc.Svc { return m.svc }
