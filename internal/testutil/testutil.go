package testutil

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"social-hub/config"
	"social-hub/internal/model"
	"social-hub/pkg/db"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB 在临时目录中打开一个已迁移的 sqlite 数据库，测试结束时关闭
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := db.Open(config.DatabaseConfig{
		Driver:   db.DriverSQLite,
		Database: filepath.Join(t.TempDir(), "social.db"),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })

	require.NoError(t, db.AutoMigrate(gdb, model.All()...))
	return gdb
}

// Clock 每次调用前进固定步长的测试时钟
type Clock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewClock 创建从 start 开始、每次前进 step 的时钟
func NewClock(start time.Time, step time.Duration) *Clock {
	return &Clock{now: start.UTC(), step: step}
}

// Now 返回当前时间并前进一步
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now
	c.now = c.now.Add(c.step)
	return now
}
