package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeSweeper struct {
	calls atomic.Int64
	err   error
}

func (f *fakeSweeper) Sweep(context.Context, time.Time) (int64, int64, error) {
	f.calls.Add(1)
	return 1, 0, f.err
}

func TestSchedulerTicksUntilCancelled(t *testing.T) {
	sweeper := &fakeSweeper{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := New(sweeper, 10*time.Millisecond, log)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return sweeper.calls.Load() >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}

	// No ticks after shutdown.
	settled := sweeper.calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, sweeper.calls.Load())
}

func TestSchedulerSurvivesSweepErrors(t *testing.T) {
	sweeper := &fakeSweeper{err: context.DeadlineExceeded}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := New(sweeper, 10*time.Millisecond, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Start(ctx)

	// A failing sweep is logged and the loop keeps ticking.
	assert.Eventually(t, func() bool {
		return sweeper.calls.Load() >= 3
	}, time.Second, 5*time.Millisecond)
}
