// movie-service/internal/api/router.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// APIPrefix префикс публичного API.
const APIPrefix = "/api/v1"

// RouterConfig параметры, не относящиеся к обработчикам.
type RouterConfig struct {
	CORSOrigins       []string
	RateLimitRequests int // 0 отключает лимит
	RateLimitWindow   time.Duration
}

// NewRouter собирает маршруты. Завершающий слэш в путях API необязателен.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	router := mux.NewRouter()
	router.Use(RequestID, h.AccessLog)

	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)

	apiRouter := router.PathPrefix(APIPrefix).Subrouter()
	apiRouter.Use(h.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

	h.route(apiRouter, OpListMovies, http.MethodGet, "/movie", h.ListMovies)
	h.route(apiRouter, OpGetMovie, http.MethodGet, "/movie/{id:[0-9]+}", h.GetMovie)
	h.route(apiRouter, OpListShots, http.MethodGet, "/movie/{id:[0-9]+}/shots", h.ListShots)
	h.route(apiRouter, OpFilterOptions, http.MethodGet, "/filters", h.FilterOptions)

	h.route(apiRouter, OpListActors, http.MethodGet, "/actor", h.ListActors)
	h.route(apiRouter, OpGetActor, http.MethodGet, "/actor/{id:[0-9]+}", h.GetActor)

	h.route(apiRouter, OpCreateReview, http.MethodPost, "/review", h.CreateReview)
	h.route(apiRouter, OpDeleteReview, http.MethodDelete, "/review/{id:[0-9]+}", h.DeleteReview)
	h.route(apiRouter, OpCreateRating, http.MethodPost, "/rating", h.CreateRating)

	h.route(apiRouter, OpIssueToken, http.MethodPost, "/auth/token", h.IssueToken)

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return CORS(origins)(router)
}

// route регистрирует путь с завершающим слэшем и без него.
func (h *Handler) route(r *mux.Router, op Operation, method, path string, fn http.HandlerFunc) {
	handler := instrument(op, h.guard(op, fn))
	path = strings.TrimSuffix(path, "/")
	r.HandleFunc(path, handler).Methods(method)
	r.HandleFunc(path+"/", handler).Methods(method)
}
