package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"task-manager/internal/bot"
	"task-manager/internal/service"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot with autosave, overdue refresh and reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

type intervalJob struct {
	name     string
	interval time.Duration
	run      func(context.Context) error
}

func runServe(ctx context.Context, opts *rootOptions) error {
	a, err := openApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.cfg.RequireTelegram(); err != nil {
		return err
	}

	telegramBot, err := bot.New(a.cfg.TelegramToken, a.store, a.reminders, a.prefs, a.exporter, &a.cfg, a.log)
	if err != nil {
		return err
	}

	scheduler := service.NewSchedulerService(time.Local, a.log)
	runJob := func(name string, run func(context.Context) error) func() {
		return func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := run(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
				a.log.WithError(err).WithField("job", name).Warn("scheduled job failed")
			}
		}
	}

	jobs := []intervalJob{
		{name: "autosave", interval: a.cfg.AutosaveInterval, run: a.store.Save},
		{name: "refresh", interval: a.cfg.RefreshInterval, run: func(ctx context.Context) error {
			return telegramBot.NotifyOverdue(ctx, a.store.Refresh())
		}},
	}
	// A fixed report time replaces the report interval.
	if a.cfg.ReportTime == "" {
		jobs = append(jobs, intervalJob{name: "report", interval: a.cfg.ReportInterval, run: telegramBot.SendReports})
	} else if _, err := scheduler.ScheduleDaily("report", a.cfg.ReportTime, runJob("report", telegramBot.SendReports)); err != nil {
		return err
	}

	for _, job := range jobs {
		if job.interval <= 0 {
			continue
		}
		if _, err := scheduler.ScheduleInterval(job.name, job.interval, runJob(job.name, job.run)); err != nil {
			return err
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	a.log.WithField("tasks", len(a.store.All())).Info("task manager bot started")
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("bot stopped with error: %w", err)
	}

	if err := a.store.Save(context.Background()); err != nil {
		a.log.WithError(err).Error("final save failed")
	}
	a.log.Info("shutdown complete")
	return nil
}
