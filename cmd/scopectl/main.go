package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Simplici0/scopeworks/internal/cli"
	"github.com/Simplici0/scopeworks/internal/config"
	"github.com/Simplici0/scopeworks/internal/db"
	"github.com/Simplici0/scopeworks/internal/logging"
	"github.com/Simplici0/scopeworks/internal/migrations"
	"github.com/Simplici0/scopeworks/internal/seed"
	"github.com/Simplici0/scopeworks/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var (
		database *sql.DB
		logger   *zap.Logger
	)
	defer func() {
		if database != nil {
			database.Close()
		}
		if logger != nil {
			logger.Sync()
		}
	}()

	app := &cli.App{
		DBPath:   cfg.DBPath,
		LogLevel: cfg.LogLevel,
	}
	app.Connect = func(app *cli.App) error {
		var err error
		logger, err = logging.NewLogger(app.LogLevel, cfg.LogFormat, "scopectl")
		if err != nil {
			return err
		}
		database, err = db.Open(app.DBPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}

		uow := db.NewUnitOfWork(database, logger.Named("db"))
		app.Catalog = service.NewCatalogService(uow, service.WithLogger(logger))
		app.Projects = service.NewProjectService(uow, service.WithLogger(logger))
		app.Migrate = func() (int64, error) {
			if err := migrations.Up(database, logger); err != nil {
				return 0, err
			}
			return migrations.Version(database, logger)
		}
		app.Seed = func(ctx context.Context) (seed.Stats, error) {
			return seed.Run(ctx, uow, seed.Config{
				AdminEmail:    cfg.AdminEmail,
				AdminPassword: cfg.AdminPassword,
			})
		}
		return nil
	}

	return cli.NewRootCmd(app).Execute()
}
