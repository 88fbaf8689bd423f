package controllers

import (
	"net/http"
	"net/http/httptest"
	"studyd/internal/models"
	"studyd/internal/providers"
	"studyd/internal/structures"
	"studyd/internal/testutil"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApiController(t *testing.T) *ApiController {
	t.Helper()
	conf := &structures.Config{}
	cache := providers.NewCacheProvider(conf, &testutil.MockLogger{})
	ms := testutil.NewMockStore(time.UTC, time.Time{})
	return NewApiController(&testutil.MockLogger{}, &testutil.MockBoardService{}, ms, cache)
}

func TestGetBoard_DefaultsToDay(t *testing.T) {
	ac := newApiController(t)

	req := httptest.NewRequest(http.MethodGet, "/boards", nil)
	w := httptest.NewRecorder()
	ac.GetBoard(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var window models.LeaderboardWindow
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &window))
	assert.Equal(t, models.WindowDay, window.Kind)
}

func TestGetBoard_KindSelection(t *testing.T) {
	ac := newApiController(t)

	for _, kind := range []string{"week", "month"} {
		req := httptest.NewRequest(http.MethodGet, "/boards?kind="+kind, nil)
		w := httptest.NewRecorder()
		ac.GetBoard(w, req)

		var window models.LeaderboardWindow
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &window))
		assert.Equal(t, models.WindowKind(kind), window.Kind)
	}
}

func TestGetSessionVersion(t *testing.T) {
	ac := newApiController(t)

	req := httptest.NewRequest(http.MethodGet, "/session-version", nil)
	w := httptest.NewRecorder()
	ac.GetSessionVersion(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		SessionVersion int64 `json:"session_version"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.SessionVersion)
}

func TestGetBoard_ServedFromCacheOnRepeat(t *testing.T) {
	conf := &structures.Config{
		Cache:   structures.CacheConfig{Enabled: true, Size: 1},
		Tracker: structures.TrackerConfig{PollInterval: 30 * time.Second},
	}
	cache := providers.NewCacheProvider(conf, &testutil.MockLogger{})
	ms := testutil.NewMockStore(time.UTC, time.Time{})
	ac := NewApiController(&testutil.MockLogger{}, &testutil.MockBoardService{}, ms, cache)

	req := httptest.NewRequest(http.MethodGet, "/boards", nil)
	w1 := httptest.NewRecorder()
	ac.GetBoard(w1, req)
	w2 := httptest.NewRecorder()
	ac.GetBoard(w2, req)

	assert.Equal(t, w1.Body.String(), w2.Body.String())
}
