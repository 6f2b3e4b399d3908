package jobs_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/FluxtonX/partner-sub002/internal/jobs"
	"github.com/FluxtonX/partner-sub002/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRefresher struct {
	calls    atomic.Int32
	deadline atomic.Bool
	err      error
}

func (f *fakeRefresher) RefreshAllTotals(ctx context.Context) (service.RefreshSummary, error) {
	f.calls.Add(1)
	_, ok := ctx.Deadline()
	f.deadline.Store(ok)
	return service.RefreshSummary{Businesses: 2, Estimates: 5}, f.err
}

func TestScheduler_AddAndRemoveJob(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop())

	require.NoError(t, s.AddJob("b", "@every 1h", func() {}))
	require.NoError(t, s.AddJob("a", "0 0 3 * * *", func() {}))
	assert.Equal(t, []string{"a", "b"}, s.JobNames())

	assert.Error(t, s.AddJob("a", "@every 1h", func() {}), "duplicate name")
	assert.Error(t, s.AddJob("c", "not a cron", func() {}))

	require.NoError(t, s.RemoveJob("a"))
	assert.Equal(t, []string{"b"}, s.JobNames())
	assert.Error(t, s.RemoveJob("a"))
}

func TestScheduler_RejectsFiveFieldWithoutSeconds(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop())
	assert.Error(t, s.AddJob("x", "0 3 * * *", func() {}))
}

func TestScheduler_RunsJobs(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop())

	ran := make(chan struct{}, 1)
	require.NoError(t, s.AddJob("tick", "* * * * * *", func() {
		select {
		case ran <- struct{}{}:
		default:
		}
	}))

	s.Start()
	defer func() { <-s.Stop().Done() }()

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run")
	}
}

func TestTotalsRefreshJob_Run(t *testing.T) {
	refresher := &fakeRefresher{}
	job := jobs.NewTotalsRefreshJob(refresher, zap.NewNop(), time.Minute)

	job.Run()

	assert.Equal(t, int32(1), refresher.calls.Load())
	assert.True(t, refresher.deadline.Load())
}

func TestTotalsRefreshJob_RunWithError(t *testing.T) {
	refresher := &fakeRefresher{err: errors.New("db down")}
	job := jobs.NewTotalsRefreshJob(refresher, zap.NewNop(), 0)

	assert.NotPanics(t, job.Run)
	assert.Equal(t, int32(1), refresher.calls.Load())
	assert.False(t, refresher.deadline.Load())
}

func TestRegisterTotalsRefreshJob(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop())
	refresher := &fakeRefresher{}

	job, err := jobs.RegisterTotalsRefreshJob(s, refresher, zap.NewNop(), "0 0 3 * * *", time.Minute, true)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, []string{jobs.TotalsRefreshJobName}, s.JobNames())

	assert.Eventually(t, func() bool { return refresher.calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	_, err = jobs.RegisterTotalsRefreshJob(s, refresher, zap.NewNop(), "0 0 3 * * *", time.Minute, false)
	assert.Error(t, err)
}

func TestScheduler_NextRun(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop())
	require.NoError(t, s.AddJob("nightly", "0 0 3 * * *", func() {}))

	_, ok := s.NextRun("missing")
	assert.False(t, ok)

	s.Start()
	defer s.Stop()

	next, ok := s.NextRun("nightly")
	require.True(t, ok)
	assert.True(t, next.After(time.Now()))
	assert.Equal(t, 3, next.Hour())
}
