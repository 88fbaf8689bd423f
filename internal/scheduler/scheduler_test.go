package scheduler

import (
	"os"
	"path/filepath"
	"studyd/internal/models"
	"studyd/internal/structures"
	"studyd/internal/testutil"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(dir string) *structures.Config {
	return &structures.Config{
		Board: structures.BoardConfig{PostHour: 22, PostMinute: 0, Timezone: "UTC"},
		Scheduler: structures.SchedulerConfig{
			StatePath:      filepath.Join(dir, "state.json"),
			ManualFlagPath: filepath.Join(dir, "post_now.flag"),
			CheckInterval:  time.Minute,
		},
	}
}

func newTestScheduler(t *testing.T, svc *testutil.MockBoardService) (*Scheduler, *structures.Config) {
	t.Helper()
	conf := testConfig(t.TempDir())
	s := NewScheduler(conf, &testutil.MockLogger{}, nil, nil, nil, nil, svc, time.UTC).(*Scheduler)
	s.state = models.SchedulerState{Version: models.SchedulerStateVersion}
	return s, conf
}

// afterPost is a moment past the daily post time.
func afterPost(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 22, 30, 0, 0, time.UTC)
}

func beforePost(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, time.UTC)
}

var day = time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

func TestScheduler_DailyPostAfterPostTime(t *testing.T) {
	svc := &testutil.MockBoardService{}
	s, _ := newTestScheduler(t, svc)
	s.state.LastPostedDate = "2026-08-19"

	s.checkPost(beforePost(day))
	assert.Empty(t, svc.PostCalls())

	s.checkPost(afterPost(day))
	calls := svc.PostCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "daily", calls[0].Trigger)
	assert.Equal(t, "2026-08-20", s.state.LastPostedDate)

	// The same day never posts twice.
	s.checkPost(afterPost(day).Add(time.Hour))
	assert.Len(t, svc.PostCalls(), 1)
}

func TestScheduler_BackfillDrainsOldestFirst(t *testing.T) {
	svc := &testutil.MockBoardService{}
	s, _ := newTestScheduler(t, svc)
	s.state.LastPostedDate = "2026-08-16"
	s.state.Backfill = []string{"2026-08-17", "2026-08-18", "2026-08-19"}

	s.checkPost(beforePost(day))

	calls := svc.PostCalls()
	require.Len(t, calls, 3)
	for i, want := range []string{"2026-08-17", "2026-08-18", "2026-08-19"} {
		assert.Equal(t, "backfill", calls[i].Trigger)
		assert.Equal(t, want, calls[i].Ref.Format(models.DateLayout))
		// Each backfill renders as of that day's scheduled post time.
		assert.Equal(t, 22, calls[i].Ref.Hour())
	}
	assert.Empty(t, s.state.Backfill)
	assert.Equal(t, "2026-08-19", s.state.LastPostedDate)
}

func TestScheduler_BackfillFailureStopsAndRetries(t *testing.T) {
	svc := &testutil.MockBoardService{PostErr: assert.AnError}
	s, _ := newTestScheduler(t, svc)
	s.state.Backfill = []string{"2026-08-18", "2026-08-19"}

	s.checkPost(beforePost(day))

	// The queue is untouched so the next check retries from the same day.
	assert.Equal(t, []string{"2026-08-18", "2026-08-19"}, s.state.Backfill)

	svc.PostErr = nil
	s.checkPost(beforePost(day))
	assert.Empty(t, s.state.Backfill)
}

func TestScheduler_ManualDoesNotAdvanceDaily(t *testing.T) {
	svc := &testutil.MockBoardService{}
	s, _ := newTestScheduler(t, svc)
	s.state.LastPostedDate = "2026-08-20" // today already posted

	s.TriggerManual()
	s.checkPost(afterPost(day))

	calls := svc.PostCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "manual", calls[0].Trigger)
	assert.Equal(t, "2026-08-20", s.state.LastPostedDate)

	// The trigger is one-shot.
	s.checkPost(afterPost(day).Add(time.Minute))
	assert.Len(t, svc.PostCalls(), 1)
}

func TestScheduler_ManualCollapsesIntoDueDaily(t *testing.T) {
	svc := &testutil.MockBoardService{}
	s, _ := newTestScheduler(t, svc)
	s.state.LastPostedDate = "2026-08-19"

	// Manual trigger and daily due in the same pass: exactly one message,
	// and it counts as the daily post.
	s.TriggerManual()
	s.checkPost(afterPost(day))

	calls := svc.PostCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "daily", calls[0].Trigger)
	assert.Equal(t, "2026-08-20", s.state.LastPostedDate)

	s.checkPost(afterPost(day).Add(time.Minute))
	assert.Len(t, svc.PostCalls(), 1)
}

func TestScheduler_ManualFlagFileConsumed(t *testing.T) {
	svc := &testutil.MockBoardService{}
	s, conf := newTestScheduler(t, svc)
	s.state.LastPostedDate = "2026-08-20"
	require.NoError(t, os.WriteFile(conf.Scheduler.ManualFlagPath, nil, 0644))

	s.checkPost(beforePost(day))

	calls := svc.PostCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "manual", calls[0].Trigger)
	_, err := os.Stat(conf.Scheduler.ManualFlagPath)
	assert.True(t, os.IsNotExist(err))
}

func TestScheduler_DailyFailureRetries(t *testing.T) {
	svc := &testutil.MockBoardService{PostErr: assert.AnError}
	s, _ := newTestScheduler(t, svc)
	s.state.LastPostedDate = "2026-08-19"

	s.checkPost(afterPost(day))
	assert.Equal(t, "2026-08-19", s.state.LastPostedDate)

	svc.PostErr = nil
	s.checkPost(afterPost(day).Add(time.Minute))
	assert.Equal(t, "2026-08-20", s.state.LastPostedDate)
}

func TestScheduler_RestoreComputesMissedDays(t *testing.T) {
	svc := &testutil.MockBoardService{}
	s, conf := newTestScheduler(t, svc)

	today := time.Now().UTC()
	last := today.AddDate(0, 0, -3).Format(models.DateLayout)
	state := models.SchedulerState{Version: models.SchedulerStateVersion, LastPostedDate: last}
	data, err := json.Marshal(&state)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(conf.Scheduler.StatePath, data, 0644))

	require.NoError(t, s.Restore())

	want := []string{
		today.AddDate(0, 0, -2).Format(models.DateLayout),
		today.AddDate(0, 0, -1).Format(models.DateLayout),
	}
	assert.Equal(t, want, s.state.Backfill)
	assert.Equal(t, last, s.state.LastPostedDate)
}

func TestScheduler_RestoreFreshAndCorrupt(t *testing.T) {
	svc := &testutil.MockBoardService{}
	s, conf := newTestScheduler(t, svc)

	require.NoError(t, s.Restore())
	assert.Empty(t, s.state.LastPostedDate)

	require.NoError(t, os.WriteFile(conf.Scheduler.StatePath, []byte("not json"), 0644))
	require.NoError(t, s.Restore())
	assert.Empty(t, s.state.LastPostedDate)
}

func TestScheduler_PersistRoundtrip(t *testing.T) {
	svc := &testutil.MockBoardService{}
	s, conf := newTestScheduler(t, svc)
	s.state.LastPostedDate = "2026-08-20"
	require.NoError(t, s.Persist())

	s2 := NewScheduler(conf, &testutil.MockLogger{}, nil, nil, nil, nil, svc, time.UTC).(*Scheduler)
	require.NoError(t, s2.Restore())
	assert.Equal(t, "2026-08-20", s2.state.LastPostedDate)
}
