package scheduler

import (
	"context"
	"errors"
	"testing"

	achievement "algomancy.gg/deckhub/internal/modules/achievement/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRefresher struct {
	summary     achievement.RefreshSummary
	err         error
	calls       int
	concurrency int
}

func (f *fakeRefresher) RefreshAll(_ context.Context, concurrency int) (achievement.RefreshSummary, error) {
	f.calls++
	f.concurrency = concurrency
	return f.summary, f.err
}

func TestRegister_InvalidSpec(t *testing.T) {
	s := NewScheduler(nil)
	err := s.Register(NewXPReconcileJob(&fakeRefresher{}, "not a cron", 2, nil))
	assert.Error(t, err)
	assert.Empty(t, s.JobNames())
}

func TestRunJob(t *testing.T) {
	refresher := &fakeRefresher{summary: achievement.RefreshSummary{Total: 3, Refreshed: 3}}
	s := NewScheduler(nil)
	require.NoError(t, s.Register(NewXPReconcileJob(refresher, "", 6, nil)))

	require.NoError(t, s.RunJob(context.Background(), "xp-reconcile"))
	assert.Equal(t, 1, refresher.calls)
	assert.Equal(t, 6, refresher.concurrency)

	assert.Error(t, s.RunJob(context.Background(), "missing"))
}

func TestXPReconcileJob_ReportsFailures(t *testing.T) {
	job := NewXPReconcileJob(&fakeRefresher{summary: achievement.RefreshSummary{Total: 4, Refreshed: 3, Failed: 1}}, "", 1, nil)
	assert.ErrorContains(t, job.Run(context.Background()), "1 of 4")

	job = NewXPReconcileJob(&fakeRefresher{err: errors.New("db down")}, "", 1, nil)
	assert.ErrorContains(t, job.Run(context.Background()), "db down")
}

func TestStartStop(t *testing.T) {
	s := NewScheduler(nil)
	require.NoError(t, s.Register(NewXPReconcileJob(&fakeRefresher{}, "30 3 * * *", 1, nil)))
	assert.Equal(t, []string{"xp-reconcile"}, s.JobNames())

	s.Start()
	s.Stop(context.Background())
}
