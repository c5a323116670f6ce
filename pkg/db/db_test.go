package db

import (
	"context"
	"path/filepath"
	"testing"

	"social-hub/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

type sample struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func TestOpenSQLite(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	gdb, err := Open(config.DatabaseConfig{
		Driver:   DriverSQLite,
		Database: filepath.Join(t.TempDir(), "nested", "sample.db"),
	}, zap.New(core))
	require.NoError(t, err)

	require.NoError(t, AutoMigrate(gdb, &sample{}))
	require.NoError(t, gdb.Create(&sample{Name: "a"}).Error)
	require.NoError(t, HealthCheck(gdb))

	// 失败的SQL记录为错误日志
	err = gdb.Exec("SELECT * FROM missing_table").Error
	require.Error(t, err)
	assert.Equal(t, 1, logs.FilterMessage("SQL执行失败").Len())

	require.NoError(t, Close(gdb))
	assert.Error(t, HealthCheck(gdb))
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "oracle"}, nil)
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}

func TestGormLoggerLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewGormLogger(zap.New(core), 0)
	ctx := context.Background()

	l.Info(ctx, "hidden %d", 1)
	l.Warn(ctx, "shown %d", 2)
	assert.Equal(t, 1, logs.Len())

	verbose := l.LogMode(gormlogger.Info)
	verbose.Info(ctx, "now shown")
	assert.Equal(t, 2, logs.Len())

	silent := l.LogMode(gormlogger.Silent)
	silent.Error(ctx, "dropped")
	assert.Equal(t, 2, logs.Len())

}

func TestNilHandles(t *testing.T) {
	assert.Error(t, HealthCheck(nil))
	assert.Error(t, AutoMigrate(nil))
	assert.NoError(t, Close(nil))
}
