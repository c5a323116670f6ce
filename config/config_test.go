package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  port: "9090"
database:
  driver: sqlite
  database: data/social.db
engine:
  maxRetries: 5
websocket:
  pingInterval: 10s
redis:
  enabled: false
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "data/social.db", cfg.Database.Database)
	assert.Equal(t, 5, cfg.Engine.MaxRetries)
	assert.Equal(t, 10*time.Second, cfg.WebSocket.PingInterval)
	assert.False(t, cfg.Redis.Enabled)

	// 文件未给出的字段保持默认值
	assert.Equal(t, "shared a post", cfg.Engine.ShareContent)
	assert.Equal(t, 90*time.Second, cfg.WebSocket.ReadTimeout)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("ENGINE_MAX_RETRIES", "1")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("DB_SLOW_THRESHOLD", "1s")
	t.Setenv("ENGINE_SHARE_CONTENT", "reposted")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, 1, cfg.Engine.MaxRetries)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, time.Second, cfg.Database.SlowThreshold)
	assert.Equal(t, "reposted", cfg.Engine.ShareContent)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 3, cfg.Engine.MaxRetries)
}

func TestLoadRejectsMaxRetriesBelowOne(t *testing.T) {
	path := writeConfig(t, sampleYAML)

	for _, v := range []string{"0", "-2"} {
		t.Run("env "+v, func(t *testing.T) {
			t.Setenv("ENGINE_MAX_RETRIES", v)
			_, err := Load(path)
			assert.ErrorContains(t, err, "engine.maxRetries must be at least 1")
		})
	}

	_, err := Load(writeConfig(t, "engine:\n  maxRetries: 0\n"))
	assert.ErrorContains(t, err, "engine.maxRetries must be at least 1")

	assert.NoError(t, getDefaultConfig().Validate())
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [unterminated"))
	assert.Error(t, err)
}
