package controllers

import (
	"net/http"
	"studyd/internal/models"
	"studyd/internal/providers"
	"studyd/internal/services"
	"studyd/internal/store"

	json "github.com/goccy/go-json"
)

type ApiController struct {
	logger  providers.Logger
	service services.BoardServiceInterface
	ledger  store.AccumulationStoreInterface
	cache   providers.CacheProviderInterface
}

func NewApiController(logger providers.Logger, service services.BoardServiceInterface, ledger store.AccumulationStoreInterface, cache providers.CacheProviderInterface) *ApiController {
	return &ApiController{
		logger:  logger,
		service: service,
		ledger:  ledger,
		cache:   cache,
	}
}

func getKind(r *http.Request) models.WindowKind {
	switch r.URL.Query().Get("kind") {
	case "week":
		return models.WindowWeek
	case "month":
		return models.WindowMonth
	default:
		return models.WindowDay
	}
}

func (ac *ApiController) serveFromCacheOrCompute(w http.ResponseWriter, cacheKey string, compute func() (any, error)) {
	if data, ok := ac.cache.Get(cacheKey); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	result, err := compute()
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	gson, err := json.Marshal(result)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	ac.cache.Set(cacheKey, gson)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

// GetBoard serves the current window for ?kind=day|week|month, cached for
// one poll interval.
func (ac *ApiController) GetBoard(w http.ResponseWriter, r *http.Request) {
	kind := getKind(r)
	ac.serveFromCacheOrCompute(w, "board:"+string(kind), func() (any, error) {
		return ac.service.Window(kind)
	})
}

type sessionVersionResponse struct {
	SessionVersion int64 `json:"session_version"`
}

// GetSessionVersion exposes the opaque counter that changes whenever the
// tracked group resets; consumers use it to detect stale data.
func (ac *ApiController) GetSessionVersion(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, "session-version", func() (any, error) {
		version, err := ac.ledger.SessionVersion()
		if err != nil {
			return nil, err
		}
		return sessionVersionResponse{SessionVersion: version}, nil
	})
}
