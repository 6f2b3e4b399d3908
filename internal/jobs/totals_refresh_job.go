package jobs

import (
	"context"
	"time"

	"github.com/FluxtonX/partner-sub002/internal/service"
	"go.uber.org/zap"
)

// TotalsRefreshJobName is the name of the cached-totals refresh job
const TotalsRefreshJobName = "totals_refresh"

// TotalsRefresher recomputes cached totals of every draft estimate
type TotalsRefresher interface {
	RefreshAllTotals(ctx context.Context) (service.RefreshSummary, error)
}

// TotalsRefreshJob keeps the cached totals of draft estimates in line with
// the current business settings and fee schedule.
type TotalsRefreshJob struct {
	refresher TotalsRefresher
	logger    *zap.Logger
	timeout   time.Duration
}

func NewTotalsRefreshJob(refresher TotalsRefresher, logger *zap.Logger, timeout time.Duration) *TotalsRefreshJob {
	return &TotalsRefreshJob{
		refresher: refresher,
		logger:    logger,
		timeout:   timeout,
	}
}

// Run executes one refresh bounded by the job timeout.
func (j *TotalsRefreshJob) Run() {
	ctx := context.Background()
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	start := time.Now()
	summary, err := j.refresher.RefreshAllTotals(ctx)
	if err != nil {
		j.logger.Error("totals refresh job finished with errors",
			zap.Int("businesses", summary.Businesses),
			zap.Int("estimates", summary.Estimates),
			zap.Int("failed", summary.Failed),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return
	}

	j.logger.Info("totals refresh job completed",
		zap.Int("businesses", summary.Businesses),
		zap.Int("estimates", summary.Estimates),
		zap.Duration("duration", time.Since(start)))
}

// RegisterTotalsRefreshJob registers the refresh on cronExpr. With runOnStartup
// one refresh also starts immediately in a background goroutine.
func RegisterTotalsRefreshJob(scheduler *Scheduler, refresher TotalsRefresher, logger *zap.Logger, cronExpr string, timeout time.Duration, runOnStartup bool) (*TotalsRefreshJob, error) {
	job := NewTotalsRefreshJob(refresher, logger, timeout)
	if err := scheduler.AddJob(TotalsRefreshJobName, cronExpr, job.Run); err != nil {
		return nil, err
	}

	if runOnStartup {
		go job.Run()
	}
	return job, nil
}
