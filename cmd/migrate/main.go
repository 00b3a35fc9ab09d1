// Command migrate aplica el esquema embebido con goose.
//
//	migrate up | down | status | version | redo | reset
//	migrate to <versión>
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jhoicas/pos-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/pos-ledger/migrations"
	"github.com/jhoicas/pos-ledger/pkg/config"
	"github.com/jhoicas/pos-ledger/pkg/logger"
	"github.com/jhoicas/pos-ledger/pkg/migrate"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "uso: migrate <up|down|status|version|redo|reset|to VERSION>")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()
	db := postgres.OpenDB(pool)
	defer db.Close()

	command := os.Args[1]
	switch command {
	case "to":
		if len(os.Args) < 3 {
			log.Fatal().Msg("falta la versión destino")
		}
		err = migrate.MigrateToVersion(ctx, db, migrations.FS, os.Args[2])
	default:
		err = migrate.Run(ctx, db, migrations.FS, command, os.Args[2:]...)
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", command).Msg("migración")
	}
	log.Info().Str("command", command).Msg("migración completada")
}
