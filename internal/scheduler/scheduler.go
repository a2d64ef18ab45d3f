package scheduler

import (
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Job is a named unit of scheduled work.
type Job interface {
	Run() error
	Name() string
}

// Scheduler manages background jobs on cron schedules.
type Scheduler struct {
	cron *cron.Cron
}

// New creates a stopped scheduler.
func New() *Scheduler {
	return &Scheduler{cron: cron.New()}
}

// Start begins running registered jobs on their schedules.
func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("scheduler started")
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	slog.Info("scheduler stopped")
}

// AddJob registers a job with a cron schedule. Schedule examples:
//
//	"@every 15m"   - every 15 minutes
//	"@hourly"      - every hour
//	"0 9 * * 1-5"  - 9 AM weekdays
//
// Job failures are logged, never fatal.
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		slog.Debug("running job", "job", job.Name())
		if err := job.Run(); err != nil {
			slog.Error("job failed", "job", job.Name(), "error", err)
			return
		}
		slog.Debug("job completed", "job", job.Name())
	})
	if err != nil {
		return fmt.Errorf("scheduler.AddJob: %s: %w", job.Name(), err)
	}
	slog.Info("job registered", "job", job.Name(), "schedule", schedule)
	return nil
}

// JobFunc adapts a plain function to the Job interface.
type JobFunc struct {
	JobName string
	Fn      func() error
}

func (j JobFunc) Run() error   { return j.Fn() }
func (j JobFunc) Name() string { return j.JobName }
