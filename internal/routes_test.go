package internal

import (
	"net/http"
	"net/http/httptest"
	"studyd/internal/controllers"
	"studyd/internal/providers"
	"studyd/internal/structures"
	"studyd/internal/testutil"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRouter(t *testing.T) providers.RouterProviderInterface {
	t.Helper()
	conf := &structures.Config{}
	cache := providers.NewCacheProvider(conf, &testutil.MockLogger{})
	ms := testutil.NewMockStore(time.UTC, time.Time{})
	ac := controllers.NewApiController(&testutil.MockLogger{}, &testutil.MockBoardService{}, ms, cache)
	return InitRoutes(ac, conf)
}

func TestInitRoutes_RegistersEndpoints(t *testing.T) {
	routes := testRouter(t).GetRoutes()

	urls := make([]string, 0, len(routes))
	for _, r := range routes {
		urls = append(urls, r.Url)
	}
	assert.ElementsMatch(t, []string{"/boards", "/session-version"}, urls)
}

func TestInitRoutes_MethodEnforcement(t *testing.T) {
	routes := testRouter(t).GetRoutes()

	for _, route := range routes {
		req := httptest.NewRequest(http.MethodDelete, route.Url, nil)
		w := httptest.NewRecorder()
		route.Handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, route.Url)

		req = httptest.NewRequest(http.MethodGet, route.Url, nil)
		w = httptest.NewRecorder()
		route.Handler.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, route.Url)
	}
}
