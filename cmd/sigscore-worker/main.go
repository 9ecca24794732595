package main

import (
	"context"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"sigscore/internal/platform/config"
	"sigscore/internal/platform/logger"
	"sigscore/internal/platform/store"

	"sigscore/internal/services/api"
)

func main() {
	root := config.New()
	workerCfg := root.Prefix("WORKER_")

	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, storeConfig(root), store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	// same wiring as the API, minus the routes
	w := api.Build(api.Options{Config: root, Store: st, Logger: l})

	var wg sync.WaitGroup

	// scheduled recompute of stale account scores
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := w.Scoring.Service().Run(ctx); err != nil && ctx.Err() == nil {
			l.Error().Err(err).Msg("scoring worker stopped")
		}
	}()

	// outbox drain to the log sink
	drainEvery := workerCfg.MayDuration("OUTBOX_DRAIN_EVERY", 15*time.Second)
	drainBatch := workerCfg.MayInt("OUTBOX_DRAIN_BATCH", 100)
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(drainEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := w.Outbox.Drain(ctx, drainBatch)
				if err != nil {
					l.Error().Err(err).Msg("outbox drain failed")
					continue
				}
				if n > 0 {
					l.Debug().Int("dispatched", n).Msg("outbox drained")
				}
			}
		}
	}()

	<-ctx.Done()
	l.Info().Msg("shutting down")
	wg.Wait()
}

// storeConfig reads the backend settings shared by every binary
func storeConfig(root config.Conf) store.Config {
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_")
	rdsCfg := root.Prefix("SERVICE_REDIS_")

	return store.Config{
		AppName: "sigscore",
		PG: store.PGConfig{
			Enabled:     true,
			URL:         pgCfg.MustString("DBURL"),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		},
		CH: store.CHConfig{
			Enabled:    chCfg.MayBool("ENABLED", false),
			URL:        chCfg.MayString("DBURL", ""),
			ClientName: "sigscore-worker",
		},
		RDS: store.RedisConfig{
			Enabled: rdsCfg.MayBool("ENABLED", true),
			Addr:    rdsCfg.MayString("ADDR", "localhost:6379"),
			DB:      rdsCfg.MayInt("DB", 0),
		},
	}
}
