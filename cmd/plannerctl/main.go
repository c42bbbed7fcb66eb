package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/myplanner/internal/admin"
	"github.com/dmitrijs2005/myplanner/internal/logging"
	"github.com/dmitrijs2005/myplanner/internal/server"
	"github.com/dmitrijs2005/myplanner/internal/server/config"
	"github.com/dmitrijs2005/myplanner/internal/server/repositories/repomanager"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if admin.IsUsage(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := logging.NewJSONLogger(os.Stderr, slog.LevelWarn)

	db, err := repomanager.OpenPostgres(ctx, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repomanager.NewPostgresRepositoryManager().RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	comp, err := server.Wire(cfg, db, logger)
	if err != nil {
		return err
	}

	return admin.NewApp(comp.Auth, comp.Ledger, os.Stdin, os.Stdout).Run(ctx, os.Args[1:])
}
