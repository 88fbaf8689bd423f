package providers

import (
	"os"
	"path/filepath"
	"studyd/internal/structures"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults(t *testing.T) {
	conf := &structures.Config{}
	applyDefaults(conf)

	assert.Equal(t, 5*time.Minute, conf.Tracker.SessionMin)
	assert.Equal(t, 10, conf.Board.ShowMax)
	assert.Equal(t, "user", conf.Gateway.Transport)
	assert.Equal(t, 6, conf.Gateway.Retries)
	assert.Equal(t, time.Second, conf.Gateway.Backoff)
	assert.Equal(t, 5, conf.Storage.FlushRetries)
	assert.Equal(t, 200*time.Millisecond, conf.Storage.FlushBackoff)
	assert.Equal(t, 1500*time.Millisecond, conf.Export.Timeout)
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	conf := &structures.Config{}
	conf.Tracker.SessionMin = 10 * time.Minute
	conf.Gateway.Transport = "bot"
	applyDefaults(conf)

	assert.Equal(t, 10*time.Minute, conf.Tracker.SessionMin)
	assert.Equal(t, "bot", conf.Gateway.Transport)
}

func TestNewConfigProvider_MissingFile(t *testing.T) {
	flags := &structures.CliFlags{ConfigPath: filepath.Join(t.TempDir(), "absent.yaml")}
	_, err := NewConfigProvider(flags)
	assert.Error(t, err)
}

func TestNewConfigProvider_LoadsYaml(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `
tracker:
  pollInterval: 30s
  flushInterval: 5m
board:
  postHour: 22
  timezone: Asia/Tashkent
glyphs:
  cachePath: ` + filepath.Join(dir, "glyphs.json") + `
  hydrateInterval: 1h
scheduler:
  statePath: ` + filepath.Join(dir, "state.json") + `
  checkInterval: 1m
storage:
  dbPath: ` + filepath.Join(dir, "ledger.db") + `
gateway:
  baseUrl: http://127.0.0.1:8081
  room: study-room
  channel: "-100123"
  transport: user
  requestTimeout: 10s
webServer:
  host: 127.0.0.1
  port: 8080
logger:
  level: info
  mode: 0644
  dir: ` + dir + `
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	conf, err := NewConfigProvider(&structures.CliFlags{ConfigPath: path, DebugMode: true})
	require.NoError(t, err)

	assert.Equal(t, "StudyTrackerDaemon", conf.AppName)
	assert.True(t, conf.Debug)
	assert.Equal(t, "study-room", conf.Gateway.Room)
	assert.Equal(t, 22, conf.Board.PostHour)
	assert.Equal(t, 5*time.Minute, conf.Tracker.SessionMin)
}
