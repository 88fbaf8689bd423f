package controllers

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"studyd/internal/glyphs"
	"studyd/internal/structures"
	"studyd/internal/testutil"
	"studyd/internal/tracker"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHealthController(t *testing.T) *HealthController {
	t.Helper()
	conf := &structures.Config{
		Glyphs: structures.GlyphsConfig{CachePath: filepath.Join(t.TempDir(), "glyphs.json")},
		Tracker: structures.TrackerConfig{
			PollInterval:  30 * time.Second,
			FlushInterval: 5 * time.Minute,
			SessionMin:    5 * time.Minute,
		},
	}
	ms := testutil.NewMockStore(time.UTC, time.Time{})
	trk := tracker.NewTracker(conf, &testutil.MockLogger{}, testutil.NewMockMetrics(), ms, time.UTC)
	resolver := glyphs.NewGlyphResolver(conf, &testutil.MockLogger{}, testutil.NewMockMetrics(), &testutil.MockReferenceFetcher{})
	return NewHealthController(trk, resolver)
}

func TestHealth_ReportsStatus(t *testing.T) {
	hc := newHealthController(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	hc.Health(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, float64(0), resp["open_sessions"])
	// Nothing hydrated yet: every glyph serves from the default tier.
	assert.Equal(t, true, resp["glyph_degraded"])
}

func TestHealth_RejectsNonGet(t *testing.T) {
	hc := newHealthController(t)

	req := httptest.NewRequest(http.MethodPost, "/health", nil)
	w := httptest.NewRecorder()
	hc.Health(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
