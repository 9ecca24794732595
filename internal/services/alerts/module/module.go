// Package module wires alerting into the API using modkit
package module

import (
	"net/http"

	modkit "sigscore/internal/modkit"
	"sigscore/internal/modkit/httpkit"
	str "sigscore/internal/platform/strings"
	alerthttp "sigscore/internal/services/alerts/http"
	alertrepo "sigscore/internal/services/alerts/repo"
	alertsvc "sigscore/internal/services/alerts/service"
)

// Module implements the alerts module
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws   []func(http.Handler) http.Handler
	ports any

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)

	svc *alertsvc.Svc
}

// New constructs the alerts module
// scores may be nil in tests; test fires then omit the current snapshot
func New(deps modkit.Deps, scores alertsvc.ScoreSource, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("alerts"), modkit.WithPrefix("/alerts")}, opts...)...)

	repo := alertrepo.NewPG()
	svc := alertsvc.New(deps.PG, repo, scores, alertsvc.FromConfig(deps.Cfg))

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		subrouter: b.Subrouter,
		svc:       svc,
	}
	m.ports = Ports{Rules: svc}

	external := b.Register
	m.register = func(r httpkit.Router) {
		alerthttp.Register(r, m.svc)
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

// Service exposes the concrete service for listener wiring
func (m *Module) Service() *alertsvc.Svc { return m.svc }
