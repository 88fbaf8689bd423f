package board

import (
	"studyd/internal/models"
	"studyd/internal/structures"
	"studyd/internal/testutil"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var anchor = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

func testBoardConfig() *structures.Config {
	return &structures.Config{
		Board: structures.BoardConfig{ShowMax: 10, Timezone: "UTC"},
	}
}

func newTestEngine(t *testing.T, ms *testutil.MockStore) EngineInterface {
	t.Helper()
	aliases, err := NewAliasResolver(testBoardConfig(), &testutil.MockLogger{}, ms)
	require.NoError(t, err)
	return NewEngine(testBoardConfig(), &testutil.MockLogger{}, ms, aliases, time.UTC)
}

func addDay(t *testing.T, ms *testutil.MockStore, id int64, day time.Time, d time.Duration) {
	t.Helper()
	_, err := ms.AddSpan(models.Session{
		Identity: id,
		Start:    day.Add(10 * time.Hour),
		End:      day.Add(10 * time.Hour).Add(d),
	}, true)
	require.NoError(t, err)
}

func TestEngine_DayWindowOrderingAndTies(t *testing.T) {
	ms := testutil.NewMockStore(time.UTC, anchor)
	day := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	addDay(t, ms, 7, day, 90*time.Minute)
	addDay(t, ms, 9, day, 2*time.Hour)
	addDay(t, ms, 5, day, 90*time.Minute)

	e := newTestEngine(t, ms)
	w, err := e.Compute(models.WindowDay, day.Add(22*time.Hour))
	require.NoError(t, err)

	require.Len(t, w.Entries, 3)
	assert.Equal(t, int64(9), w.Entries[0].Identity)
	assert.Equal(t, 1, w.Entries[0].Rank)

	// Tie: both 90-minute entries share rank 2, ordered by identity.
	assert.Equal(t, int64(5), w.Entries[1].Identity)
	assert.Equal(t, 2, w.Entries[1].Rank)
	assert.Equal(t, int64(7), w.Entries[2].Identity)
	assert.Equal(t, 2, w.Entries[2].Rank)

	assert.Equal(t, int64(120), w.Entries[0].Minutes)
	assert.Equal(t, models.WindowDay, w.Kind)
	assert.Equal(t, w.Start, w.End)
}

func TestEngine_EmptyWindow(t *testing.T) {
	ms := testutil.NewMockStore(time.UTC, anchor)
	e := newTestEngine(t, ms)

	w, err := e.Compute(models.WindowDay, time.Date(2026, 8, 20, 22, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, w.Entries)
}

func TestEngine_WeekBlocksFromAnchor(t *testing.T) {
	ms := testutil.NewMockStore(time.UTC, anchor)
	// Aug 1 is day 1, so Aug 8 opens week 2.
	addDay(t, ms, 7, time.Date(2026, 8, 7, 0, 0, 0, 0, time.UTC), time.Hour)
	addDay(t, ms, 7, time.Date(2026, 8, 8, 0, 0, 0, 0, time.UTC), time.Hour)

	e := newTestEngine(t, ms)
	w, err := e.Compute(models.WindowWeek, time.Date(2026, 8, 10, 22, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, 2, w.Index)
	assert.Equal(t, "2026-08-08", w.Start.Format(models.DateLayout))
	// The block end clamps to the reference day.
	assert.Equal(t, "2026-08-10", w.End.Format(models.DateLayout))
	// Only the Aug 8 hour falls inside week 2.
	require.Len(t, w.Entries, 1)
	assert.Equal(t, int64(3600), w.Entries[0].Seconds)
}

func TestEngine_MonthBlockIndex(t *testing.T) {
	ms := testutil.NewMockStore(time.UTC, anchor)
	e := newTestEngine(t, ms)

	// Day 31 of the group's life sits in the second 30-day block.
	w, err := e.Compute(models.WindowMonth, time.Date(2026, 8, 31, 22, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 2, w.Index)
	assert.Equal(t, "2026-08-31", w.Start.Format(models.DateLayout))
}

func TestEngine_DayIndex(t *testing.T) {
	ms := testutil.NewMockStore(time.UTC, anchor)
	e := newTestEngine(t, ms)

	idx, err := e.DayIndex(time.Date(2026, 8, 1, 23, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	idx, err = e.DayIndex(time.Date(2026, 8, 20, 1, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 20, idx)
}

func TestEngine_AliasFoldsIdentities(t *testing.T) {
	ms := testutil.NewMockStore(time.UTC, anchor)
	require.NoError(t, ms.CacheUser(7, "Ann", "ann"))
	require.NoError(t, ms.CacheUser(8, "Ann Alt", "ann_alt"))
	day := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	addDay(t, ms, 7, day, time.Hour)
	addDay(t, ms, 8, day, time.Hour)

	conf := testBoardConfig()
	conf.Board.Aliases = map[string][]string{"Ann": {"@ann", "@ann_alt"}}
	aliases, err := NewAliasResolver(conf, &testutil.MockLogger{}, ms)
	require.NoError(t, err)
	e := NewEngine(conf, &testutil.MockLogger{}, ms, aliases, time.UTC)

	w, err := e.Compute(models.WindowDay, day.Add(22*time.Hour))
	require.NoError(t, err)

	require.Len(t, w.Entries, 1)
	assert.Equal(t, int64(7200), w.Entries[0].Seconds)
	assert.Equal(t, "Ann", w.Entries[0].Label)
}

func TestEngine_ShowMaxTruncates(t *testing.T) {
	ms := testutil.NewMockStore(time.UTC, anchor)
	day := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	for id := int64(1); id <= 15; id++ {
		addDay(t, ms, id, day, time.Duration(id)*time.Minute)
	}

	conf := testBoardConfig()
	conf.Board.ShowMax = 5
	aliases, err := NewAliasResolver(conf, &testutil.MockLogger{}, ms)
	require.NoError(t, err)
	e := NewEngine(conf, &testutil.MockLogger{}, ms, aliases, time.UTC)

	w, err := e.Compute(models.WindowDay, day.Add(22*time.Hour))
	require.NoError(t, err)
	assert.Len(t, w.Entries, 5)
	assert.Equal(t, int64(15), w.Entries[0].Identity)
}
