package pipeline_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/couchcryptid/disaster-feed-sync/internal/pipeline"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRunner struct {
	calls chan struct{}
	err   error
}

func (m *countingRunner) RunOnce(_ context.Context) (pipeline.Result, error) {
	m.calls <- struct{}{}
	return pipeline.Result{PassID: "pass"}, m.err
}

func waitCall(t *testing.T, calls <-chan struct{}) {
	t.Helper()
	select {
	case <-calls:
	case <-time.After(time.Second):
		t.Fatal("runner was not called")
	}
}

func TestScheduler_RunsImmediatelyThenOnInterval(t *testing.T) {
	clock := clockwork.NewFakeClockAt(testNow)
	runner := &countingRunner{calls: make(chan struct{}, 10), err: errors.New("feed down")}
	s := pipeline.NewScheduler(runner, clock, 30*time.Second, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	waitCall(t, runner.calls)

	waitCtx, waitCancel := context.WithTimeout(context.Background(), time.Second)
	defer waitCancel()
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))

	clock.Advance(30 * time.Second)
	waitCall(t, runner.calls)

	clock.Advance(30 * time.Second)
	waitCall(t, runner.calls)

	cancel()
	require.NoError(t, <-done)
}

func TestScheduler_SkippedPassKeepsRunning(t *testing.T) {
	clock := clockwork.NewFakeClockAt(testNow)
	runner := &countingRunner{calls: make(chan struct{}, 10), err: pipeline.ErrPassInProgress}
	s := pipeline.NewScheduler(runner, clock, time.Minute, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	waitCall(t, runner.calls)
	waitCtx, waitCancel := context.WithTimeout(context.Background(), time.Second)
	defer waitCancel()
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))
	clock.Advance(time.Minute)
	waitCall(t, runner.calls)

	cancel()
	assert.NoError(t, <-done)
}
