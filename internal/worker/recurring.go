package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DueProcessor books due recurring transactions and advances subscriptions.
type DueProcessor interface {
	ProcessDue(ctx context.Context, now time.Time) (booked, advanced int, err error)
}

// RecurringScheduler runs a DueProcessor on a cron schedule.
type RecurringScheduler struct {
	processor DueProcessor
	schedule  cron.Schedule
	spec      string
	now       func() time.Time
}

func NewRecurringScheduler(spec string, processor DueProcessor) (*RecurringScheduler, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}
	return &RecurringScheduler{
		processor: processor,
		schedule:  schedule,
		spec:      spec,
		now:       time.Now,
	}, nil
}

// RunOnce processes everything due now.
func (s *RecurringScheduler) RunOnce(ctx context.Context) error {
	now := s.now()
	booked, advanced, err := s.processor.ProcessDue(ctx, now)
	if err != nil {
		return fmt.Errorf("process due items: %w", err)
	}
	slog.InfoContext(ctx, "Recurring processing complete",
		"transactions_booked", booked,
		"subscriptions_advanced", advanced,
		"next_run", s.schedule.Next(now).Format(time.RFC3339))
	return nil
}

// Run processes once at startup, then on every schedule tick until ctx is
// done. Runs never overlap.
func (s *RecurringScheduler) Run(ctx context.Context) error {
	if err := s.RunOnce(ctx); err != nil {
		slog.ErrorContext(ctx, "Initial recurring processing failed", "error", err)
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	c.Schedule(s.schedule, cron.FuncJob(func() {
		if err := s.RunOnce(ctx); err != nil {
			slog.ErrorContext(ctx, "Recurring processing failed", "error", err)
		}
	}))
	c.Start()
	slog.InfoContext(ctx, "Recurring scheduler started", "schedule", s.spec)

	<-ctx.Done()
	<-c.Stop().Done()
	slog.InfoContext(ctx, "Recurring scheduler stopped")
	return nil
}
