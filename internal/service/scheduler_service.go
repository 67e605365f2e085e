package service

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// SchedulerService runs the store's background jobs (autosave, overdue
// refresh, reports) on a cron. Panicking jobs are recovered and logged.
type SchedulerService struct {
	cron *cron.Cron
	log  *logrus.Logger
}

func NewSchedulerService(loc *time.Location, log *logrus.Logger) *SchedulerService {
	if loc == nil {
		loc = time.Local
	}
	return &SchedulerService{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(cronLogger{log: log})),
		),
		log: log,
	}
}

// ScheduleDaily runs job every day at clock time at ("HH:MM").
func (s *SchedulerService) ScheduleDaily(name, at string, job func()) (cron.EntryID, error) {
	spec, err := buildDailySpec(at)
	if err != nil {
		return 0, fmt.Errorf("schedule %s: %w", name, err)
	}
	return s.add(name, spec, job)
}

// ScheduleInterval runs job every interval, truncated to whole seconds with
// a one second minimum.
func (s *SchedulerService) ScheduleInterval(name string, interval time.Duration, job func()) (cron.EntryID, error) {
	if interval <= 0 {
		return 0, fmt.Errorf("schedule %s: interval must be positive, got %s", name, interval)
	}
	every := max(interval.Truncate(time.Second), time.Second)
	return s.add(name, fmt.Sprintf("@every %s", every), job)
}

func (s *SchedulerService) add(name, spec string, job func()) (cron.EntryID, error) {
	log := s.log.WithField("job", name)
	id, err := s.cron.AddFunc(spec, func() {
		started := time.Now()
		job()
		log.WithField("took", time.Since(started)).Debug("job finished")
	})
	if err != nil {
		return 0, fmt.Errorf("schedule %s: %w", name, err)
	}
	log.WithFields(logrus.Fields{"entry": id, "spec": spec}).Debug("job scheduled")
	return id, nil
}

// Cancel removes a job. Unknown ids are ignored.
func (s *SchedulerService) Cancel(id cron.EntryID) {
	s.cron.Remove(id)
}

// Jobs reports how many jobs are registered.
func (s *SchedulerService) Jobs() int {
	return len(s.cron.Entries())
}

func (s *SchedulerService) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *SchedulerService) Stop() {
	<-s.cron.Stop().Done()
}

// buildDailySpec turns "HH:MM" into a six-field cron spec
// (second minute hour dom month dow).
func buildDailySpec(at string) (string, error) {
	t, err := time.Parse("15:04", at)
	if err != nil {
		return "", fmt.Errorf("invalid time %q, expected HH:MM", at)
	}
	return fmt.Sprintf("0 %d %d * * *", t.Minute(), t.Hour()), nil
}

// cronLogger adapts logrus to cron.Logger.
type cronLogger struct {
	log *logrus.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.WithFields(kvFields(keysAndValues)).Debug("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.WithError(err).WithFields(kvFields(keysAndValues)).Error("cron: " + msg)
}

func kvFields(keysAndValues []any) logrus.Fields {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}
