// Package scheduler runs the daily background jobs on a cron schedule.
package scheduler

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler wraps cron with named jobs and slog logging.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
	jobs   map[string]cron.EntryID
}

func New(loc *time.Location, logger *slog.Logger) *Scheduler {
	logger = logger.With("component", "scheduler")
	cl := cronLogger{logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger: logger,
		jobs:   make(map[string]cron.EntryID),
	}
}

// ScheduleDaily registers job to run every day at HH:MM.
func (s *Scheduler) ScheduleDaily(name, timeStr string, job func()) error {
	spec, err := buildDailySpec(timeStr)
	if err != nil {
		return err
	}
	return s.add(name, spec, job)
}

// ScheduleWeekly registers job to run on day at HH:MM.
func (s *Scheduler) ScheduleWeekly(name string, day time.Weekday, timeStr string, job func()) error {
	spec, err := buildDailySpec(timeStr)
	if err != nil {
		return err
	}
	spec = strings.TrimSuffix(spec, "*") + strconv.Itoa(int(day))
	return s.add(name, spec, job)
}

func (s *Scheduler) add(name, spec string, job func()) error {
	if _, dup := s.jobs[name]; dup {
		return fmt.Errorf("job %q already scheduled", name)
	}
	id, err := s.cron.AddFunc(spec, func() {
		start := time.Now()
		job()
		s.logger.Info("job finished", "job", name, "duration", time.Since(start))
	})
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	s.jobs[name] = id
	s.logger.Debug("job scheduled", "job", name, "spec", spec)
	return nil
}

// RunNow runs a registered job synchronously.
func (s *Scheduler) RunNow(name string) error {
	id, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	s.cron.Entry(id).WrappedJob.Run()
	return nil
}

// Next reports when a registered job runs next. It is zero before Start.
func (s *Scheduler) Next(name string) time.Time {
	return s.cron.Entry(s.jobs[name]).Next
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func buildDailySpec(timeStr string) (string, error) {
	parts := strings.Split(timeStr, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid time %q, expected HH:MM", timeStr)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour in %q", timeStr)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid minute in %q", timeStr)
	}
	// second minute hour dom month dow
	return fmt.Sprintf("0 %d %d * * *", minute, hour), nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error(msg, append(keysAndValues, "error", err)...)
}
