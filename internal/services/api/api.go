// Package api provides the HTTP API for the application
package api

import (
	"sigscore/internal/platform/config"
	"sigscore/internal/platform/logger"
	phttp "sigscore/internal/platform/net/http"
	"sigscore/internal/platform/store"

	modkit "sigscore/internal/modkit"
	"sigscore/internal/modkit/httpkit"
	"sigscore/internal/modkit/module"
	"sigscore/internal/modkit/swaggerkit"

	alertsmod "sigscore/internal/services/alerts/module"
	identitymod "sigscore/internal/services/identity/module"
	outboxrepo "sigscore/internal/services/outbox/repo"
	outboxsvc "sigscore/internal/services/outbox/service"
	scoringmod "sigscore/internal/services/scoring/module"
	signalsmod "sigscore/internal/services/signals/module"
)

// Options are the API options
type Options struct {
	Config         config.Conf
	Store          *store.Store
	Logger         *logger.Logger
	EnableSwagger  bool
	EnableProfiler bool
}

// Wiring holds the constructed modules so worker binaries can reuse them
type Wiring struct {
	Outbox   *outboxsvc.Svc
	Signals  *signalsmod.Module
	Identity *identitymod.Module
	Scoring  *scoringmod.Module
	Alerts   *alertsmod.Module
}

// Build wires every module without mounting any routes
// identity resolves actors for signals, scoring feeds alerts, and the alerts
// evaluator watches both score changes and fresh signals
func Build(opt Options) Wiring {
	deps := modkit.Deps{
		Cfg: opt.Config,
		PG:  opt.Store.PG,
		CH:  opt.Store.CH,
		RDS: opt.Store.RDS,
	}

	outbox := outboxsvc.New(deps.PG, outboxrepo.NewPG())

	identity := identitymod.New(deps)
	signals := signalsmod.New(deps, outbox, identity.Service())
	scoring := scoringmod.New(deps, outbox)
	alerts := alertsmod.New(deps, scoring.Service())

	scoring.Service().WithListener(alerts.Service())
	signals.Service().WithListener(alerts.Service())

	return Wiring{
		Outbox:   outbox,
		Signals:  signals,
		Identity: identity,
		Scoring:  scoring,
		Alerts:   alerts,
	}
}

// Mount mounts the API service onto the given router
func Mount(r phttp.Router, opt Options) Wiring {
	w := Build(opt)

	mods := []module.Module{
		w.Signals,
		w.Identity,
		w.Scoring,
		w.Alerts,
	}

	// versioned API with a common middleware stack
	httpkit.MountAPIV1(r, httpkit.CommonStack(), func(api httpkit.Router) {
		swaggerkit.Mount(r, opt.EnableSwagger)
		phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

		for _, m := range mods {
			// register each module's ports under its own name for cross module lookups
			module.Register(m.Name(), m.Ports())

			m.MountRoutes(api)
		}
	})

	return w
}
