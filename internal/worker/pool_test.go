package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecute_KeepsInputOrder(t *testing.T) {
	p := NewPool[int, int](4, func(ctx context.Context, n int) (int, error) {
		return n * n, nil
	})
	inputs := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	results := p.Execute(context.Background(), inputs)

	require.Len(t, results, len(inputs))
	for i, r := range results {
		assert.True(t, r.Done)
		assert.Equal(t, inputs[i], r.Input)
		assert.Equal(t, inputs[i]*inputs[i], r.Result)
	}
}

func TestExecute_CollectsErrors(t *testing.T) {
	boom := errors.New("boom")
	p := NewPool[int, int](2, func(ctx context.Context, n int) (int, error) {
		if n%2 == 0 {
			return 0, boom
		}
		return n, nil
	})
	results := p.Execute(context.Background(), []int{1, 2, 3, 4})
	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, boom)
	assert.NoError(t, results[2].Err)
	assert.ErrorIs(t, results[3].Err, boom)
}

func TestExecute_ProgressIsMonotonic(t *testing.T) {
	var last int32
	var calls int32
	p := NewPool[int, struct{}](8, func(ctx context.Context, n int) (struct{}, error) {
		return struct{}{}, nil
	}).OnProgress(func(done, total int, _ int) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, 100, total)
		assert.Equal(t, atomic.LoadInt32(&last)+1, int32(done))
		atomic.StoreInt32(&last, int32(done))
	})

	inputs := make([]int, 100)
	p.Execute(context.Background(), inputs)
	assert.Equal(t, int32(100), atomic.LoadInt32(&calls))
}

func TestExecute_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran int32
	p := NewPool[int, int](2, func(ctx context.Context, n int) (int, error) {
		atomic.AddInt32(&ran, 1)
		return n, nil
	})
	results := p.Execute(ctx, []int{1, 2, 3})
	require.Len(t, results, 3)

	done := 0
	for _, r := range results {
		if r.Done {
			done++
		}
	}
	assert.Equal(t, int(atomic.LoadInt32(&ran)), done)
}

func TestNewPool_ClampsWorkers(t *testing.T) {
	p := NewPool[int, int](0, func(ctx context.Context, n int) (int, error) { return n, nil })
	assert.Equal(t, 1, p.workers)
}
