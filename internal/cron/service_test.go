package cron

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gastaldl/lojaflow/pkg/logger"
	"github.com/gastaldl/lojaflow/pkg/metrics"
)

type fakeLock struct {
	held       bool
	acquireErr error
	acquires   int
	releases   int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	f.acquires++
	if f.acquireErr != nil {
		return false, f.acquireErr
	}
	if f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.releases++
	f.held = false
	return nil
}

type testJob struct {
	name string
	err  error
	runs int
}

func (j *testJob) Name() string { return j.name }

func (j *testJob) Run(context.Context) error {
	j.runs++
	return j.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Output: &bytes.Buffer{}})
}

func TestNewServiceValidatesParams(t *testing.T) {
	job := &testJob{name: "a"}

	_, err := NewService(ServiceParams{Lock: &fakeLock{}, Jobs: []Job{job}})
	assert.Error(t, err)

	_, err = NewService(ServiceParams{Logger: testLogger(), Jobs: []Job{job}})
	assert.Error(t, err)

	_, err = NewService(ServiceParams{Logger: testLogger(), Lock: &fakeLock{}, Jobs: []Job{nil}})
	assert.Error(t, err)

	_, err = NewService(ServiceParams{Logger: testLogger(), Lock: &fakeLock{}, Jobs: []Job{job}, Schedule: "every tuesday"})
	assert.Error(t, err)

	svc, err := NewService(ServiceParams{Logger: testLogger(), Lock: &fakeLock{}, Jobs: []Job{job}})
	require.NoError(t, err)
	assert.Equal(t, DefaultSchedule, svc.Schedule())
}

func TestNextRunHonoursScheduleAndLocation(t *testing.T) {
	saoPaulo, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Lock:     &fakeLock{},
		Jobs:     []Job{&testJob{name: "a"}},
		Schedule: "30 3 * * *",
		Location: saoPaulo,
	})
	require.NoError(t, err)

	from := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	next := svc.NextRun(from)
	assert.Equal(t, time.Date(2025, 3, 11, 6, 30, 0, 0, time.UTC), next.UTC())

	every, err := NewService(ServiceParams{Logger: testLogger(), Lock: &fakeLock{}, Jobs: []Job{&testJob{name: "a"}}, Schedule: "@every 6h"})
	require.NoError(t, err)
	assert.Equal(t, from.Add(6*time.Hour), every.NextRun(from).UTC())
}

func TestRunOnceRunsEveryJobAndCombinesFailures(t *testing.T) {
	reg := prometheus.NewRegistry()
	ok := &testJob{name: "ok"}
	bad := &testJob{name: "bad", err: errors.New("boom")}
	after := &testJob{name: "after"}
	lock := &fakeLock{}

	svc, err := NewService(ServiceParams{
		Logger:  testLogger(),
		Jobs:    []Job{ok, bad, after},
		Lock:    lock,
		Metrics: metrics.NewJobMetrics(reg),
	})
	require.NoError(t, err)

	ran, err := svc.RunOnce(context.Background())
	assert.True(t, ran)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad: boom")

	assert.Equal(t, 1, ok.runs)
	assert.Equal(t, 1, bad.runs)
	assert.Equal(t, 1, after.runs)
	assert.Equal(t, 1, lock.releases)
	assert.False(t, lock.held)

	count, err := testutil.GatherAndCount(reg, "maintenance_job_runs_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestRunOnceSkipsWhenLockHeld(t *testing.T) {
	job := &testJob{name: "a"}
	lock := &fakeLock{held: true}
	svc, err := NewService(ServiceParams{Logger: testLogger(), Jobs: []Job{job}, Lock: lock})
	require.NoError(t, err)

	ran, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, ran)
	assert.Zero(t, job.runs)
	assert.Zero(t, lock.releases)
}

func TestRunOnceSurfacesLockError(t *testing.T) {
	job := &testJob{name: "a"}
	svc, err := NewService(ServiceParams{
		Logger: testLogger(),
		Jobs:   []Job{job},
		Lock:   &fakeLock{acquireErr: errors.New("redis down")},
	})
	require.NoError(t, err)

	_, err = svc.RunOnce(context.Background())
	require.Error(t, err)
	assert.Zero(t, job.runs)
}

type signalJob struct {
	ran chan struct{}
}

func (j *signalJob) Name() string { return "signal" }

func (j *signalJob) Run(context.Context) error {
	j.ran <- struct{}{}
	return nil
}

func TestRunExecutesImmediatelyAndStopsOnCancel(t *testing.T) {
	job := &signalJob{ran: make(chan struct{}, 1)}
	svc, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Jobs:     []Job{job},
		Lock:     &LocalLock{},
		Schedule: "@every 1h",
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	select {
	case <-job.ran:
	case <-time.After(time.Second):
		t.Fatal("first cycle did not run")
	}
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
