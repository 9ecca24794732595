package main

import (
	"flag"

	"sigscore/internal/platform/config"
	"sigscore/internal/platform/logger"
	"sigscore/migrations"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

func main() {
	root := config.New()
	pgCfg := root.Prefix("SERVICE_PGSQL_")

	l := logger.Get()

	var (
		fCommand = flag.String("command", "up", "goose command: up, down, status, version")
	)
	flag.Parse()

	db, err := goose.OpenDBWithDriver("pgx", pgCfg.MustString("DBURL"))
	if err != nil {
		l.Panic().Err(err).Msg("open database failed")
	}
	defer func() {
		if err := db.Close(); err != nil {
			l.Error().Err(err).Msg("failed to close database")
		}
	}()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		l.Panic().Err(err).Msg("set dialect failed")
	}

	switch *fCommand {
	case "up":
		err = goose.Up(db, ".")
	case "down":
		err = goose.Down(db, ".")
	case "status":
		err = goose.Status(db, ".")
	case "version":
		err = goose.Version(db, ".")
	default:
		l.Panic().Str("command", *fCommand).Msg("unknown command")
	}
	if err != nil {
		l.Panic().Err(err).Str("command", *fCommand).Msg("migration failed")
	}

	l.Info().Str("command", *fCommand).Msg("migrations complete")
}
