package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"IndexTrend/internal/logger"
	"IndexTrend/internal/model"
	"IndexTrend/internal/notifier"
)

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context) (*model.RunSummary, error)
	Last() *model.RunSummary
}

// Scheduler runs the pipeline on a cron schedule, at most one run at a time.
type Scheduler struct {
	Cron      *cron.Cron
	Runner    Runner
	IndexName string
	Ctx       context.Context

	running sync.Mutex
}

// NewScheduler creates a new Scheduler evaluating cron expressions in loc.
// Expressions carry a leading seconds field.
func NewScheduler(ctx context.Context, runner Runner, indexName string, loc *time.Location) *Scheduler {
	log := cronLogger{}
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(loc),
			cron.WithLogger(log),
			cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)),
		),
		Runner:    runner,
		IndexName: indexName,
		Ctx:       ctx,
	}
}

// Register adds the update task.
func (s *Scheduler) Register(expr string) error {
	if _, err := s.Cron.AddFunc(expr, func() { s.RunNow() }); err != nil {
		return fmt.Errorf("register update task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	logger.Infof("scheduler started")
}

// Stop stops the cron scheduler and waits for a running update to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	logger.Infof("scheduler stopped")
}

// RunNow executes an update immediately. ok is false when another run is
// still in progress and nothing was started.
func (s *Scheduler) RunNow() (sum *model.RunSummary, ok bool) {
	if !s.running.TryLock() {
		logger.Warnf("update already running, skipping")
		return nil, false
	}
	defer s.running.Unlock()

	logger.Infof("running scheduled update")
	sum, err := s.Runner.Run(s.Ctx)
	if err != nil {
		logger.Errorf("scheduled update: %v", err)
	}
	return sum, true
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch command {
	case "/run":
		sum, ok := s.RunNow()
		if !ok {
			return "⏳ An update is already running"
		}
		// Done and Failed runs notify on their own.
		if sum.State == model.StateNoNewData {
			return notifier.FormatRunSummary(s.IndexName, sum)
		}
		return ""
	case "/status":
		last := s.Runner.Last()
		if last == nil {
			return "No runs yet"
		}
		return notifier.FormatRunSummary(s.IndexName, last)
	default:
		return "Available commands:\n• /run\n• /status"
	}
}

// cronLogger routes cron's own messages through the application logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debugf("cron: %s %v", msg, keysAndValues)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Errorf("cron: %s: %v %v", msg, err, keysAndValues)
}
