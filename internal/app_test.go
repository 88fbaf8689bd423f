package internal

import (
	"os"
	"path/filepath"
	"studyd/internal/structures"
	"studyd/internal/testutil"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResetPostingState_RemovesStateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version":1,"last_posted_date":"2026-08-01"}`), 0644))

	conf := &structures.Config{}
	conf.Scheduler.StatePath = path
	resetPostingState(conf, &testutil.MockLogger{})

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestResetPostingState_MissingFileIsFine(t *testing.T) {
	conf := &structures.Config{}
	conf.Scheduler.StatePath = filepath.Join(t.TempDir(), "absent.json")

	logger := &testutil.MockLogger{}
	resetPostingState(conf, logger)
	assert.Empty(t, logger.Logs)
}
