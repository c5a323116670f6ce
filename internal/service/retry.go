package service

import (
	"context"
	"errors"
	"fmt"

	"social-hub/internal/repository"

	"go.uber.org/zap"
)

// DefaultMaxRetries 乐观并发冲突的默认重试次数
const DefaultMaxRetries = 3

// withOptimisticRetry 执行一次读-改-写周期，版本冲突或事务被数据库中止时重新执行
// 共执行 maxRetries+1 次，仍冲突则返回 ErrConcurrencyConflict
func withOptimisticRetry(ctx context.Context, log *zap.Logger, op string, maxRetries int, fn func() error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := fn()
		if !retryable(err) {
			return err
		}
		if attempt >= maxRetries {
			log.Warn("乐观并发冲突重试耗尽",
				zap.String("op", op),
				zap.Int("attempts", attempt+1),
			)
			return fmt.Errorf("%s: %w", op, ErrConcurrencyConflict)
		}
		log.Debug("乐观并发冲突，重试", zap.String("op", op), zap.Int("attempt", attempt+1))
	}
}

// retryable 版本冲突与死锁等事务冲突都可以整体重放
func retryable(err error) bool {
	return errors.Is(err, repository.ErrVersionConflict) || errors.Is(err, repository.ErrTxConflict)
}
