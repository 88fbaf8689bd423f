package store_test

import (
	"os"
	"path/filepath"
	"studyd/internal/store"
	"studyd/internal/structures"
	"studyd/internal/testutil"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func archiverConfig(t *testing.T) *structures.Config {
	t.Helper()
	dir := t.TempDir()
	return &structures.Config{
		Storage: structures.StorageConfig{
			DBPath:        filepath.Join(dir, "ledger.db"),
			ArchiveDir:    filepath.Join(dir, "archive"),
			RetentionDays: 7,
			FlushRetries:  3,
			FlushBackoff:  time.Millisecond,
		},
	}
}

func TestArchiver_MovesOldDaysToCompressedFiles(t *testing.T) {
	conf := archiverConfig(t)
	s, err := store.NewAccumulationStore(conf, &testutil.MockLogger{}, testutil.NewMockMetrics(), time.UTC)
	require.NoError(t, err)
	defer s.Close()

	old := time.Now().UTC().AddDate(0, 0, -30)
	recent := time.Now().UTC().AddDate(0, 0, -1)
	_, err = s.AddSpan(span(7, old.Truncate(24*time.Hour).Add(10*time.Hour), time.Hour), true)
	require.NoError(t, err)
	_, err = s.AddSpan(span(7, recent.Truncate(24*time.Hour).Add(10*time.Hour), time.Hour), true)
	require.NoError(t, err)

	comp, err := store.NewZstdCompressor()
	require.NoError(t, err)
	defer comp.Close()

	a := store.NewArchiver(conf, s, comp, &testutil.MockLogger{}, time.UTC)
	a.Run()

	oldDate := old.Format("2006-01-02")
	path := filepath.Join(conf.Storage.ArchiveDir, oldDate+".ledger.zst")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	jsonData, err := comp.Decompress(data)
	require.NoError(t, err)
	var file store.ArchiveFile
	require.NoError(t, json.Unmarshal(jsonData, &file))
	assert.Equal(t, oldDate, file.Date)
	require.Len(t, file.Rows, 1)
	assert.Equal(t, int64(7), file.Rows[0].UserID)
	assert.Equal(t, int64(3600), file.Rows[0].Raw)

	// The archived day left the live ledger; the recent one stayed.
	days, err := s.DaysBefore("9999-12-31")
	require.NoError(t, err)
	assert.Equal(t, []string{recent.Format("2006-01-02")}, days)
}

func TestArchiver_DisabledWithoutRetention(t *testing.T) {
	conf := archiverConfig(t)
	conf.Storage.RetentionDays = 0
	s, err := store.NewAccumulationStore(conf, &testutil.MockLogger{}, testutil.NewMockMetrics(), time.UTC)
	require.NoError(t, err)
	defer s.Close()

	old := time.Now().UTC().AddDate(0, 0, -30)
	_, err = s.AddSpan(span(7, old, time.Hour), true)
	require.NoError(t, err)

	comp, err := store.NewZstdCompressor()
	require.NoError(t, err)
	defer comp.Close()

	store.NewArchiver(conf, s, comp, &testutil.MockLogger{}, time.UTC).Run()

	days, err := s.DaysBefore("9999-12-31")
	require.NoError(t, err)
	assert.Len(t, days, 1)
}
