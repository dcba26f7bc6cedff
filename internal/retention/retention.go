// Package retention periodically trims the saved calculation history.
package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/iwvelando/mortgage-calculator/internal/history"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Trimmer is the part of a history store the job needs.
type Trimmer interface {
	Trim(ctx context.Context, keep int) (int, error)
}

var _ Trimmer = history.Store(nil)

// Job trims a store down to a fixed number of entries.
type Job struct {
	store   Trimmer
	keep    int
	timeout time.Duration
	logger  *zap.Logger
}

// NewJob returns a job keeping the newest keep entries of store.
func NewJob(store Trimmer, keep int, logger *zap.Logger) *Job {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Job{store: store, keep: keep, timeout: 30 * time.Second, logger: logger}
}

// Run performs one trim pass. It implements cron.Job.
func (j *Job) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	removed, err := j.store.Trim(ctx, j.keep)
	if err != nil {
		j.logger.Error("history retention failed",
			zap.String("op", "retention.Run"),
			zap.Error(err),
		)
		return
	}
	if removed > 0 {
		j.logger.Info(fmt.Sprintf("removed %d saved calculations beyond the newest %d", removed, j.keep),
			zap.String("op", "retention.Run"),
		)
	}
}

// Scheduler runs a Job on a cron schedule.
type Scheduler struct {
	cron *cron.Cron
}

// Start schedules job with spec (standard five-field cron or a descriptor
// such as @hourly) and starts it. A nil Scheduler is returned when spec is
// empty or keep is not positive.
func Start(spec string, job *Job) (*Scheduler, error) {
	if spec == "" || job.keep <= 0 {
		job.logger.Debug("history retention disabled",
			zap.String("op", "retention.Start"),
		)
		return nil, nil
	}

	c := cron.New()
	if _, err := c.AddJob(spec, cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(job)); err != nil {
		return nil, fmt.Errorf("invalid retention schedule %q: %w", spec, err)
	}
	c.Start()

	job.logger.Info(fmt.Sprintf("history retention scheduled %q keeping %d entries", spec, job.keep),
		zap.String("op", "retention.Start"),
	)
	return &Scheduler{cron: c}, nil
}

// Stop stops scheduling and waits for a running trim to finish. It is safe
// to call on a nil Scheduler.
func (s *Scheduler) Stop() {
	if s == nil {
		return
	}
	<-s.cron.Stop().Done()
}
