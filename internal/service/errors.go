package service

import (
	"errors"
	"fmt"

	"social-hub/internal/repository"
)

// 业务错误，操作边界统一返回这些哨兵错误（可能经过 %w 包装）
var (
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidState        = errors.New("invalid state")
	ErrDuplicateRequest    = errors.New("duplicate request")
	ErrSelfRequest         = errors.New("cannot send a friend request to yourself")
	ErrEmptyContent        = errors.New("content is empty")
	ErrConcurrencyConflict = errors.New("concurrency conflict")
	ErrInvalidArgument     = errors.New("invalid argument")
)

// IsTransient 是否为可重试的临时错误
// 未经服务层重放的事务冲突（如发消息时的死锁）同样交给客户端重试
func IsTransient(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict) || errors.Is(err, repository.ErrTxConflict)
}

// notFound 把仓储层的未找到错误包装为业务错误
func notFound(what string, err error) error {
	if errors.Is(err, repository.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}
