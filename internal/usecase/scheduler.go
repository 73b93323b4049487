package usecase

import (
	"context"
	"log/slog"
	"time"

	"MonkHerald/internal/ports"
)

// minWait prevents a thrashing loop where a wake fires, the re-check
// no-ops, and scheduling immediately recomputes a near-zero wait.
const minWait = 60 * time.Second

const dateLayout = "2006-01-02"

// BatchRunner is the daily work the scheduler triggers.
type BatchRunner interface {
	ProcessDay(ctx context.Context, now time.Time) error
}

// SchedulerDeps wires the scheduler's collaborators.
type SchedulerDeps struct {
	Ledger     ports.RunLedger
	Batch      BatchRunner
	Risk       ports.RiskJob
	Location   *time.Location
	WakeHour   int
	WakeMinute int
	Logger     *slog.Logger
}

// Scheduler guarantees the pipeline runs exactly once per calendar day in
// the configured timezone. The run-date ledger write is the sole commit
// point for "did today run": a crash before it is retried at next startup,
// a crash after it is never retried.
type Scheduler struct {
	ledger     ports.RunLedger
	batch      BatchRunner
	risk       ports.RiskJob
	location   *time.Location
	wakeHour   int
	wakeMinute int
	logger     *slog.Logger
	now        func() time.Time
}

// NewScheduler builds the daily loop from its dependencies.
func NewScheduler(deps SchedulerDeps) *Scheduler {
	location := deps.Location
	if location == nil {
		location = time.UTC
	}

	return &Scheduler{
		ledger:     deps.Ledger,
		batch:      deps.Batch,
		risk:       deps.Risk,
		location:   location,
		wakeHour:   deps.WakeHour,
		wakeMinute: deps.WakeMinute,
		logger:     deps.Logger,
		now:        time.Now,
	}
}

// NextWake computes the next wake instant: today at the configured time in
// the scheduler timezone, moved to tomorrow when already past, and moved
// one more day when the resulting wait is under the minimum threshold.
func (s *Scheduler) NextWake(now time.Time) time.Time {
	local := now.In(s.location)
	target := time.Date(local.Year(), local.Month(), local.Day(), s.wakeHour, s.wakeMinute, 0, 0, s.location)

	if !target.After(now) {
		target = target.AddDate(0, 0, 1)
	}
	if target.Sub(now) < minWait {
		target = target.AddDate(0, 0, 1)
	}

	return target
}

// Run executes the startup catch-up check and then loops forever: sleep
// until the next wake instant, re-verify against the ledger, run. It
// returns only when ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.shouldRun(s.now()) {
		s.info("catch-up required, running immediately")
		s.runBatch(ctx)
	} else {
		s.info("already ran today, waiting for tomorrow")
	}

	for {
		now := s.now()
		wake := s.NextWake(now)
		s.info("sleeping", "until", wake.Format(time.RFC3339), "wait", wake.Sub(now).Round(time.Second).String())

		timer := time.NewTimer(wake.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		// The date may have changed if the process overslept across
		// midnight, so the ledger check is repeated before running.
		if s.shouldRun(s.now()) {
			s.runBatch(ctx)
		} else {
			s.warn("woke up but today is already recorded, skipping")
		}
	}
}

// shouldRun reports whether today's batch is still pending. A ledger read
// failure counts as pending: the worst case is a retried batch the dedup
// store already protects.
func (s *Scheduler) shouldRun(now time.Time) bool {
	last, err := s.ledger.LastSuccess()
	if err != nil {
		s.warn("cannot read run ledger, assuming batch is pending", "error", err)
		return true
	}
	return last != s.today(now)
}

// runBatch executes the pipeline and then the risk job sequentially; the
// risk job never starts until the pipeline has exited. Only the pipeline's
// outcome gates the ledger write.
func (s *Scheduler) runBatch(ctx context.Context) {
	s.info("triggering daily batch")
	batchErr := s.batch.ProcessDay(ctx, s.now().In(s.location))

	if s.risk != nil {
		s.info("triggering risk analysis")
		if err := s.risk.Run(ctx); err != nil {
			s.warn("risk job failed", "error", err)
		}
	}

	if batchErr != nil {
		s.error("batch failed, will retry at next check", "error", batchErr)
		return
	}

	date := s.today(s.now())
	if err := s.ledger.RecordSuccess(date); err != nil {
		s.error("batch succeeded but could not be recorded", "error", err)
		return
	}
	s.info("batch recorded", "date", date)
}

func (s *Scheduler) today(now time.Time) string {
	return now.In(s.location).Format(dateLayout)
}

func (s *Scheduler) info(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s *Scheduler) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

func (s *Scheduler) error(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Error(msg, args...)
	}
}
