// Package main implements the taskmanager CLI and Telegram bot server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"task-manager/internal/config"
	"task-manager/internal/logger"
	"task-manager/internal/repository"
	"task-manager/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

type rootOptions struct {
	dbPath   string
	logLevel string
	noSeed   bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "taskmanager",
		Short:         "Personal task manager with recurring tasks",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "SQLite database path (overrides DATABASE_URL)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
	root.PersistentFlags().BoolVar(&opts.noSeed, "no-seed", false, "start empty instead of with example tasks")

	root.AddCommand(
		newServeCmd(opts),
		newListCmd(opts),
		newStatsCmd(opts),
		newPreviewCmd(opts),
		newExportCmd(opts),
		newImportCmd(opts),
	)
	return root
}

// app holds the wired services for one command run.
type app struct {
	cfg       config.Config
	log       *logrus.Logger
	db        *gorm.DB
	store     *service.TaskStore
	prefs     *service.PreferencesService
	exporter  *service.ExportService
	reminders *service.ReminderService
}

func openApp(ctx context.Context, opts *rootOptions) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if opts.dbPath != "" {
		cfg.DatabaseURL = opts.dbPath
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if opts.noSeed {
		cfg.SeedExamples = false
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	db, err := repository.NewDB(cfg.DatabaseURL, log)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}

	kv := repository.NewKVRepository(db)
	store := service.NewTaskStore(kv, log, time.Now, cfg.SeedExamples)
	if err := store.Load(ctx); err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	prefs := service.NewPreferencesService(kv, log)

	return &app{
		cfg:       cfg,
		log:       log,
		db:        db,
		store:     store,
		prefs:     prefs,
		exporter:  service.NewExportService(store, prefs, time.Now),
		reminders: service.NewReminderService(store),
	}, nil
}

func (a *app) Close() {
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
