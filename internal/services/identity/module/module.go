// Package module wires identity into the API using modkit
package module

import (
	"net/http"

	modkit "sigscore/internal/modkit"
	"sigscore/internal/modkit/httpkit"
	str "sigscore/internal/platform/strings"
	identhttp "sigscore/internal/services/identity/http"
	identrepo "sigscore/internal/services/identity/repo"
	identsvc "sigscore/internal/services/identity/service"
)

// Module implements the identity module
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws   []func(http.Handler) http.Handler
	ports any

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)

	svc *identsvc.Svc
}

// New constructs the identity module
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("identity"), modkit.WithPrefix("/contacts")}, opts...)...)

	repo := identrepo.NewPG()
	svc := identsvc.New(deps.PG, repo, identsvc.FromConfig(deps.Cfg))

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		subrouter: b.Subrouter,
		svc:       svc,
	}
	m.ports = Ports{Resolver: svc}

	external := b.Register
	m.register = func(r httpkit.Router) {
		identhttp.Register(r, m.svc)
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

// Service exposes the concrete service for cross-module wiring
func (m *Module) Service() *identsvc.Svc { return m.svc }
