package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

// 仓储层错误，服务层据此映射业务错误，不直接依赖 gorm 的错误类型
var (
	ErrRecordNotFound  = errors.New("record not found")
	ErrVersionConflict = errors.New("version conflict")
	ErrDuplicate       = errors.New("duplicate record")
	ErrStateChanged    = errors.New("state changed")
	// ErrTxConflict 事务因死锁、锁等待超时或串行化失败被数据库中止，整体重试即可
	ErrTxConflict = errors.New("transaction conflict")
)

// 各方言表示事务冲突的错误码
const (
	mysqlDeadlock        = 1213 // ER_LOCK_DEADLOCK
	mysqlLockWaitTimeout = 1205 // ER_LOCK_WAIT_TIMEOUT

	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// translate 把驱动错误转换为仓储错误
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRecordNotFound
	}
	if isTxConflict(err) {
		return errors.Join(ErrTxConflict, err)
	}
	return err
}

func isTxConflict(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDeadlock || myErr.Number == mysqlLockWaitTimeout
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code == sqlite3.ErrBusy || liteErr.Code == sqlite3.ErrLocked
	}
	return false
}
