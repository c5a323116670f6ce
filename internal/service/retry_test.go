package service

import (
	"context"
	"errors"
	"testing"

	"social-hub/internal/repository"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestWithOptimisticRetry(t *testing.T) {
	ctx := context.Background()

	calls := 0
	err := withOptimisticRetry(ctx, zap.NewNop(), "always conflicts", 3, func() error {
		calls++
		return repository.ErrVersionConflict
	})
	assert.ErrorIs(t, err, ErrConcurrencyConflict)
	assert.True(t, IsTransient(err))
	assert.Equal(t, 4, calls)

	calls = 0
	err = withOptimisticRetry(ctx, zap.NewNop(), "second try", 3, func() error {
		calls++
		if calls == 1 {
			return repository.ErrVersionConflict
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)

	// 其他错误不重试
	boom := errors.New("boom")
	calls = 0
	err = withOptimisticRetry(ctx, zap.NewNop(), "fails", 3, func() error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, IsTransient(err))
	assert.Equal(t, 1, calls)
}

func TestWithOptimisticRetryReplaysTxConflict(t *testing.T) {
	ctx := context.Background()
	deadlock := errors.Join(repository.ErrTxConflict, errors.New("Error 1213: Deadlock found"))
	assert.True(t, IsTransient(deadlock))

	calls := 0
	err := withOptimisticRetry(ctx, zap.NewNop(), "deadlocks once", 3, func() error {
		calls++
		if calls == 1 {
			return deadlock
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)

	calls = 0
	err = withOptimisticRetry(ctx, zap.NewNop(), "always deadlocks", 1, func() error {
		calls++
		return deadlock
	})
	assert.ErrorIs(t, err, ErrConcurrencyConflict)
	assert.True(t, IsTransient(err))
	assert.Equal(t, 2, calls)
}

func TestWithOptimisticRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := withOptimisticRetry(ctx, zap.NewNop(), "cancelled", 3, func() error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
