// @title         Sigscore API
// @version       0.1.0
// @description   Signal ingestion, identity resolution, account scoring, and alerting

package main

import (
	"context"

	"sigscore/internal/platform/config"
	"sigscore/internal/platform/logger"
	phttp "sigscore/internal/platform/net/http"
	"sigscore/internal/platform/store"

	"sigscore/internal/services/api"
)

func main() {
	root := config.New()
	apiCfg := root.Prefix("CORE_")

	l := logger.Get()

	st, err := store.Open(context.Background(), storeConfig(root), store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	// http server (reads CORE_API_PORT)
	srv := phttp.NewServer(apiCfg)

	api.Mount(
		srv.Router(),
		api.Options{
			Config:         root,
			Store:          st,
			Logger:         l,
			EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
			EnableProfiler: apiCfg.MayBool("PROFILER", false),
		},
	)

	if err := srv.Run(context.Background()); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
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
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 8)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		},
		CH: store.CHConfig{
			Enabled:    chCfg.MayBool("ENABLED", false),
			URL:        chCfg.MayString("DBURL", ""),
			ClientName: "sigscore-api",
		},
		RDS: store.RedisConfig{
			Enabled: rdsCfg.MayBool("ENABLED", true),
			Addr:    rdsCfg.MayString("ADDR", "localhost:6379"),
			DB:      rdsCfg.MayInt("DB", 0),
		},
	}
}
