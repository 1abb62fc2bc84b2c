package enforcer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/vmunix/curatarr/internal/rules"
)

// Scheduler fires enforcement runs on cron schedules: one global schedule
// for the whole engine plus optional per-group overrides. Every trigger
// goes through the coordinator's single-flight gate, so an overlapping
// schedule skips instead of stacking runs.
type Scheduler struct {
	cron    *cron.Cron
	coord   *Coordinator
	rules   *rules.Store
	spec    string
	logger  *slog.Logger
	started bool
}

// NewScheduler creates a scheduler. spec is the global cron schedule; an
// empty spec disables the global run and leaves only per-group schedules.
func NewScheduler(coord *Coordinator, store *rules.Store, spec string, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:   cron.New(),
		coord:  coord,
		rules:  store,
		spec:   spec,
		logger: logger.With("component", "scheduler"),
	}
}

// Start registers the schedules and starts the cron loop. Groups carrying
// their own CronSchedule run on it instead of the global schedule.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.started {
		return fmt.Errorf("scheduler already started")
	}

	if s.spec != "" {
		if _, err := s.cron.AddFunc(s.spec, func() { s.runAll(ctx) }); err != nil {
			return fmt.Errorf("invalid schedule %q: %w", s.spec, err)
		}
	}

	active := true
	groups, err := s.rules.ListGroups(rules.GroupFilter{IsActive: &active})
	if err != nil {
		return fmt.Errorf("list rule groups: %w", err)
	}
	for _, g := range groups {
		if g.CronSchedule == "" {
			continue
		}
		id := g.ID
		if _, err := s.cron.AddFunc(g.CronSchedule, func() { s.runOne(ctx, id) }); err != nil {
			return fmt.Errorf("invalid schedule %q on group %q: %w", g.CronSchedule, g.Name, err)
		}
		s.logger.Info("registered group schedule", "group", g.Name, "schedule", g.CronSchedule)
	}

	s.cron.Start()
	s.started = true
	return nil
}

// Stop halts the cron loop and waits for an in-flight trigger to return.
func (s *Scheduler) Stop() {
	if !s.started {
		return
	}
	<-s.cron.Stop().Done()
	s.started = false
}

func (s *Scheduler) runAll(ctx context.Context) {
	summary, err := s.coord.Run(ctx)
	s.report(summary, err)
}

func (s *Scheduler) runOne(ctx context.Context, groupID int64) {
	summary, err := s.coord.RunOne(ctx, groupID)
	s.report(summary, err)
}

func (s *Scheduler) report(summary *Summary, err error) {
	switch {
	case errors.Is(err, ErrAlreadyRunning):
		s.logger.Info("run still in progress, skipping trigger")
	case err != nil:
		s.logger.Error("scheduled run failed", "error", err)
	default:
		s.logger.Info("scheduled run complete",
			"run_id", summary.RunID, "handled", summary.Handled,
			"failures", summary.Failures)
	}
}
