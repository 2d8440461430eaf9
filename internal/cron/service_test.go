package cron

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/genmedia-backend/pkg/logger"
	"github.com/angelmondragon/genmedia-backend/pkg/metrics"
)

type fakeLock struct {
	held     bool
	acquired int
	released int
	err      error
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.held {
		return false, nil
	}
	f.held = true
	f.acquired++
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.held = false
	f.released++
	return nil
}

type testJob struct {
	name     string
	err      error
	panics   bool
	runs     int
	deadline time.Time
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(ctx context.Context) error {
	t.runs++
	t.deadline, _ = ctx.Deadline()
	if t.panics {
		panic("nil map write")
	}
	return t.err
}

func newTestService(t *testing.T, lock Lock, reg prometheus.Registerer, jobs ...Job) *Service {
	t.Helper()
	registry, err := NewRegistry(jobs...)
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard}),
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(reg),
	})
	require.NoError(t, err)
	return svc
}

func TestServiceRunOnceRunsEveryJobAndCombinesErrors(t *testing.T) {
	broken := &testJob{name: "broken", err: errors.New("boom")}
	exploding := &testJob{name: "exploding", panics: true}
	ok := &testJob{name: "ok"}
	lock := &fakeLock{}
	svc := newTestService(t, lock, prometheus.NewRegistry(), broken, exploding, ok)

	err := svc.RunOnce(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "job broken: boom")
	assert.ErrorContains(t, err, "job exploding panicked")

	assert.Equal(t, 1, broken.runs)
	assert.Equal(t, 1, exploding.runs)
	assert.Equal(t, 1, ok.runs)
	assert.Equal(t, 1, lock.released)
	assert.False(t, lock.held)
}

func TestServiceBoundsEachJob(t *testing.T) {
	job := &testJob{name: "reaper"}
	svc := newTestService(t, &fakeLock{}, prometheus.NewRegistry(), job)

	before := time.Now()
	require.NoError(t, svc.RunOnce(context.Background()))
	require.False(t, job.deadline.IsZero())
	assert.WithinDuration(t, before.Add(defaultInterval), job.deadline, time.Second)
}

func TestServiceSkipsCycleWhenLockIsHeld(t *testing.T) {
	reg := prometheus.NewRegistry()
	job := &testJob{name: "reaper"}
	lock := &fakeLock{held: true}
	svc := newTestService(t, lock, reg, job)

	require.NoError(t, svc.RunOnce(context.Background()))
	assert.Zero(t, job.runs)
	assert.Zero(t, lock.released)

	expected := `
# HELP genmedia_cron_cycles_skipped_total Cycles skipped because the maintenance lock was held elsewhere.
# TYPE genmedia_cron_cycles_skipped_total counter
genmedia_cron_cycles_skipped_total 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "genmedia_cron_cycles_skipped_total"))
}

func TestServiceReportsLockErrors(t *testing.T) {
	job := &testJob{name: "reaper"}
	svc := newTestService(t, &fakeLock{err: errors.New("redis down")}, prometheus.NewRegistry(), job)

	assert.ErrorContains(t, svc.RunOnce(context.Background()), "lock acquire")
	assert.Zero(t, job.runs)
}

func TestServiceRunStopsOnCancel(t *testing.T) {
	job := &testJob{name: "reaper"}
	svc := newTestService(t, &fakeLock{}, nil, job)
	assert.Equal(t, defaultInterval, svc.Interval())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, svc.Run(ctx), context.DeadlineExceeded)
	assert.Equal(t, 1, job.runs)
}

func TestNewServiceRequiresLock(t *testing.T) {
	_, err := NewService(ServiceParams{Logger: logger.New(logger.Options{Output: io.Discard})})
	assert.ErrorContains(t, err, "lock required")
}
