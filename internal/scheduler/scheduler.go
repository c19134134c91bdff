// Package scheduler triggers poll cycles on cron expressions.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rahulcharvekar/reconciliation-service/internal/ingest"
	"github.com/rahulcharvekar/reconciliation-service/internal/logging"
)

// PollFunc runs one poll cycle.
type PollFunc func(ctx context.Context) (ingest.PollReport, error)

// Job is one scheduled poll. An empty Spec disables it.
type Job struct {
	Name string
	Spec string
	Poll PollFunc
}

// Scheduler runs jobs on a cron. A job never overlaps with itself; a tick
// arriving while the previous run is still busy is skipped.
type Scheduler struct {
	cron   *cron.Cron
	logger logging.Logger
	ctx    context.Context
	cancel context.CancelFunc
	jobs   int
}

// New builds a scheduler evaluating specs in timezone. Specs use the
// standard five field cron syntax plus descriptors such as "@every 5m".
func New(timezone string, jobs []Job, logger logging.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}

	cl := cronLogger{logger: logger.WithField(logging.FieldComponent, "scheduler")}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:   cron.New(cron.WithLocation(loc), cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		logger: cl.logger,
		ctx:    ctx,
		cancel: cancel,
	}

	for _, job := range jobs {
		if job.Spec == "" {
			continue
		}
		if _, err := s.cron.AddFunc(job.Spec, s.run(job)); err != nil {
			cancel()
			return nil, fmt.Errorf("unable to schedule %s poll %q: %w", job.Name, job.Spec, err)
		}
		s.logger.Info("Scheduled poll", logging.F(logging.FieldFormat, job.Name), logging.F("spec", job.Spec))
		s.jobs++
	}
	return s, nil
}

func (s *Scheduler) run(job Job) func() {
	return func() {
		start := time.Now()
		report, err := job.Poll(s.ctx)
		log := s.logger.WithFields(logging.F(logging.FieldFormat, job.Name), logging.F(logging.FieldDuration, time.Since(start).Milliseconds()))
		if err != nil {
			log.WithError(err).Error("Scheduled poll failed")
			return
		}
		log.Info("Scheduled poll finished",
			logging.F("discovered", report.Discovered),
			logging.F("quarantined", report.Quarantined))
	}
}

// Jobs is the number of enabled jobs.
func (s *Scheduler) Jobs() int { return s.jobs }

// Start begins firing jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels running polls and waits for them to return, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger feeds cron's key/value logging into logging.Logger.
type cronLogger struct {
	logger logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, pairs(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.WithError(err).Error(msg, pairs(keysAndValues)...)
}

func pairs(kv []interface{}) []logging.Field {
	fields := make([]logging.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields = append(fields, logging.F(fmt.Sprint(kv[i]), kv[i+1]))
	}
	return fields
}
