package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mydarah/bot/bot"
	"github.com/mydarah/bot/config"
	"github.com/mydarah/bot/database"
	"github.com/mydarah/bot/handlers"
	"github.com/mydarah/bot/logger"
	"github.com/mydarah/bot/services"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (defaults to $DARAH_CONFIG, then config/config.yaml)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatalf(ctx, "Error loading configuration: %v", err)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Development); err != nil {
		logger.Fatalf(ctx, "Error initializing logger: %v", err)
	}
	defer logger.Sync()
	logger.Info(ctx, "Starting blood donation trend bot...")

	lookups, err := config.LoadLookups(cfg.Lookups.Path)
	if err != nil {
		logger.Fatalf(ctx, "Error loading lookup tables: %v", err)
	}
	logger.Infof(ctx, "Lookups loaded: %d hospitals, %d state colours", len(lookups.HospitalStates), len(lookups.StateColors))

	var db *sql.DB
	var versions *database.SourceVersionStore
	if cfg.Database.Enabled {
		db, err = database.Open(ctx, cfg.Database)
		if err != nil {
			logger.Fatalf(ctx, "Error initializing database: %v", err)
		}
		defer database.Close(ctx, db)
		versions = database.NewSourceVersionStore(db)
	}

	// Keep a nil store out of the interface.
	var dataService *services.DataService
	if versions != nil {
		dataService = services.NewDataService(cfg, lookups, versions)
	} else {
		dataService = services.NewDataService(cfg, lookups, nil)
	}
	dataService.InitLastKnownPublished(ctx)

	// No partial start: without all five datasets there is nothing to serve.
	if err := dataService.Refresh(ctx); err != nil {
		logger.Fatalf(ctx, "Error loading datasets: %v", err)
	}
	dataService.StartRefresher(ctx)

	reportService := services.NewReportService(dataService, cfg, lookups)

	if cfg.Server.Enabled {
		deps := handlers.Deps{Data: dataService, Reports: reportService}
		if db != nil {
			deps.DB = db
			deps.Versions = versions
		}
		server := handlers.NewServer(deps, cfg.Logging.Development)
		go func() {
			if err := server.Serve(":" + cfg.Server.Port); err != nil {
				logger.Errorf(ctx, "Admin API stopped: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Errorf(ctx, "Admin API shutdown: %v", err)
			}
		}()
	}

	telegram, err := bot.New(cfg.Telegram, reportService)
	if err != nil {
		logger.Fatalf(ctx, "Error starting telegram bot: %v", err)
	}
	if err := telegram.Run(ctx); err != nil {
		logger.Errorf(ctx, "Bot stopped with error: %v", err)
	}
	logger.Info(ctx, "Shutting down...")
}
