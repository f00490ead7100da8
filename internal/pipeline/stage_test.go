package pipeline_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ernestobalbinse/HurriAid/internal/pipeline"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunParallel_TasksRunConcurrently(t *testing.T) {
	// Each task waits for the other to start; sequential execution would time out.
	started := make(chan struct{}, 2)
	barrier := func(ctx context.Context) error {
		started <- struct{}{}
		deadline := time.After(2 * time.Second)
		for len(started) < 2 {
			select {
			case <-deadline:
				return errors.New("other task never started")
			case <-ctx.Done():
				return ctx.Err()
			default:
				time.Sleep(time.Millisecond)
			}
		}
		return nil
	}

	res := pipeline.RunParallel(context.Background(), clockwork.NewRealClock(),
		pipeline.Task{Name: "a", Run: barrier},
		pipeline.Task{Name: "b", Run: barrier},
	)
	assert.Empty(t, res.Errors)
	assert.Len(t, res.Durations, 2)
}

func TestRunParallel_ErrorDoesNotCancelOthers(t *testing.T) {
	var ran atomic.Bool
	res := pipeline.RunParallel(context.Background(), clockwork.NewRealClock(),
		pipeline.Task{Name: "fails", Run: func(context.Context) error { return errBoom }},
		pipeline.Task{Name: "slow", Run: func(ctx context.Context) error {
			time.Sleep(20 * time.Millisecond)
			ran.Store(ctx.Err() == nil)
			return nil
		}},
	)

	require.ErrorIs(t, res.Errors["fails"], errBoom)
	assert.NotContains(t, res.Errors, "slow")
	assert.True(t, ran.Load())
	assert.GreaterOrEqual(t, res.Durations["slow"], 20*time.Millisecond)
	assert.GreaterOrEqual(t, res.Total, res.Durations["slow"])
}

func TestRunParallel_RecoversPanics(t *testing.T) {
	res := pipeline.RunParallel(context.Background(), clockwork.NewRealClock(),
		pipeline.Task{Name: "explodes", Run: func(context.Context) error { panic("kaboom") }},
	)

	require.Error(t, res.Errors["explodes"])
	assert.Contains(t, res.Errors["explodes"].Error(), "kaboom")
}

func TestRunParallel_NoTasks(t *testing.T) {
	res := pipeline.RunParallel(context.Background(), clockwork.NewFakeClock())
	assert.Empty(t, res.Durations)
	assert.Empty(t, res.Errors)
	assert.Zero(t, res.Total)
}
