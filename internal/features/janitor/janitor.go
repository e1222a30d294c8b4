package janitor

import (
	"context"
	"time"

	"go-inspect/internal/config"
	"go-inspect/internal/features/operation"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Janitor sweeps terminal operations past the retention window out of the
// history store on a daily schedule.
type Janitor struct {
	repo      operation.Repository
	logger    *zap.Logger
	retention time.Duration

	scheduler *cron.Cron
}

func NewJanitor(repo operation.Repository, cfg *config.Config, logger *zap.Logger) *Janitor {
	return &Janitor{
		repo:      repo,
		logger:    logger,
		retention: time.Duration(cfg.RetentionDays) * 24 * time.Hour,
	}
}

func (j *Janitor) Start(ctx context.Context) error {
	if j.retention <= 0 {
		j.logger.Info("retention sweep disabled")
		return nil
	}

	j.scheduler = cron.New()

	if _, err := j.scheduler.AddFunc("@daily", j.Sweep); err != nil {
		return err
	}

	j.scheduler.Start()
	j.logger.Info("retention sweep scheduled",
		zap.Duration("retention", j.retention))
	return nil
}

func (j *Janitor) Stop() error {
	if j.scheduler != nil {
		j.scheduler.Stop()
	}
	return nil
}

// Sweep deletes terminal operations created before the retention cutoff.
// Running operations are never touched regardless of age. A non-positive
// retention means history is kept forever.
func (j *Janitor) Sweep() {
	if j.retention <= 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-j.retention)
	deleted, err := j.repo.DeleteTerminalBefore(ctx, cutoff)
	if err != nil {
		j.logger.Error("retention sweep failed", zap.Error(err))
		return
	}

	if deleted > 0 {
		j.logger.Info("retention sweep completed",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff))
	}
}
