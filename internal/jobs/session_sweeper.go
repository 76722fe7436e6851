package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"peerprep/interview/internal/session"
)

// Sweeper is the part of the session controller the sweep job drives.
type Sweeper interface {
	SweepIdle(ctx context.Context, now time.Time) (session.SweepStats, error)
}

// SessionSweeperJob abandons expired sessions and nudges idle candidates.
type SessionSweeperJob struct {
	sweeper  Sweeper
	schedule string
	cron     *cron.Cron
	logger   *zap.Logger
	now      func() time.Time
}

const DefaultSweepSchedule = "@every 1m"

func NewSessionSweeperJob(sweeper Sweeper, schedule string, logger *zap.Logger) *SessionSweeperJob {
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionSweeperJob{
		sweeper:  sweeper,
		schedule: schedule,
		cron:     cron.New(),
		logger:   logger,
		now:      time.Now,
	}
}

func (j *SessionSweeperJob) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, func() { j.RunOnce(context.Background()) }); err != nil {
		return fmt.Errorf("failed to schedule session sweep: %w", err)
	}
	j.cron.Start()
	j.logger.Info("session sweeper started", zap.String("schedule", j.schedule))
	return nil
}

// Stop waits for a running sweep to finish.
func (j *SessionSweeperJob) Stop() {
	<-j.cron.Stop().Done()
}

func (j *SessionSweeperJob) RunOnce(ctx context.Context) session.SweepStats {
	stats, err := j.sweeper.SweepIdle(ctx, j.now())
	if err != nil {
		j.logger.Error("session sweep failed", zap.Error(err))
		return stats
	}
	if stats.Abandoned > 0 || stats.Nudged > 0 {
		j.logger.Info("session sweep",
			zap.Int("abandoned", stats.Abandoned),
			zap.Int("nudged", stats.Nudged))
	}
	return stats
}
