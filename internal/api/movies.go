// movie-service/internal/api/movies.go
package api

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/goccy/go-json"

	"movie-service/internal/cache"
	"movie-service/internal/clientip"
	"movie-service/internal/filter"
	"movie-service/internal/metrics"
	"movie-service/internal/pagination"
	"movie-service/internal/reviewtree"
	"movie-service/internal/store"
)

// ListMovies список опубликованных фильмов с фильтрами, агрегатами рейтинга и пагинацией.
func (h *Handler) ListMovies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	f, err := filter.Parse(q)
	if err != nil {
		h.respondStoreError(w, r, err, "parse filters")
		return
	}
	page, err := pagination.ParsePage(q, h.opts.PageSize)
	if err != nil {
		h.respondStoreError(w, r, err, "parse page")
		return
	}
	base, err := url.Parse(requestURL(r))
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, "Invalid request URL")
		return
	}

	params := store.MovieListParams{
		Filter:   f,
		ClientIP: clientip.Resolve(r),
		Page:     page.Number,
		PageSize: page.Size,
	}
	items, total, err := h.store.ListMovies(ctx, params)
	if err != nil {
		h.respondStoreError(w, r, err, "retrieve movies")
		return
	}

	h.logger.DebugContext(ctx, "Movies list retrieved",
		slog.Int("count_returned", len(items)), slog.Int("total_available", total), slog.Bool("filtered", !f.IsZero()))
	h.respondJSON(w, r, http.StatusOK, pagination.NewEnvelope(base, page, total, items))
}

// GetMovie детальная карточка фильма с деревом отзывов. Ответ не зависит от
// клиента и кэшируется до изменения отзывов фильма.
func (h *Handler) GetMovie(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := pathID(r, "id")
	if !ok {
		h.respondError(w, r, http.StatusNotFound, store.ErrMovieNotFound.Error())
		return
	}
	key := cache.MovieDetailKey(id)

	if body, hit, err := h.cache.Get(ctx, key); err != nil {
		metrics.CacheRequests.WithLabelValues("error").Inc()
		h.logger.WarnContext(ctx, "Cache lookup failed", slog.String("key", key), slog.String("error", err.Error()))
	} else if hit {
		metrics.CacheRequests.WithLabelValues("hit").Inc()
		h.respondRaw(w, http.StatusOK, body)
		return
	} else {
		metrics.CacheRequests.WithLabelValues("miss").Inc()
	}

	detail, err := h.store.GetMovie(ctx, id)
	if err != nil {
		h.respondStoreError(w, r, err, "retrieve movie")
		return
	}
	reviews, err := h.store.ListReviews(ctx, id)
	if err != nil {
		h.respondStoreError(w, r, err, "retrieve reviews")
		return
	}
	tree, anomalies := reviewtree.Build(id, reviews)
	for _, a := range anomalies {
		metrics.ReviewTreeAnomalies.WithLabelValues(string(a.Kind)).Inc()
		h.logger.WarnContext(ctx, "Review left out of review tree",
			slog.Int64("movieID", id), slog.Int64("reviewID", a.ReviewID), slog.String("kind", string(a.Kind)))
	}
	detail.Reviews = tree
	h.logger.DebugContext(ctx, "Review tree built",
		slog.Int64("movieID", id), slog.Int("roots", len(tree)), slog.Int("reviews", reviewtree.Count(tree)))

	body, err := json.Marshal(detail)
	if err != nil {
		h.respondStoreError(w, r, err, "encode movie")
		return
	}
	if err := h.cache.Set(ctx, key, body, h.opts.CacheTTL); err != nil {
		h.logger.WarnContext(ctx, "Cache store failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	h.respondRaw(w, http.StatusOK, body)
}

// ListShots кадры опубликованного фильма.
func (h *Handler) ListShots(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.respondError(w, r, http.StatusNotFound, store.ErrMovieNotFound.Error())
		return
	}
	shots, err := h.store.ListShots(r.Context(), id)
	if err != nil {
		h.respondStoreError(w, r, err, "retrieve shots")
		return
	}
	h.respondJSON(w, r, http.StatusOK, shots)
}

// FilterOptions жанры и годы для построения фильтров на клиенте.
func (h *Handler) FilterOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := h.store.FilterOptions(r.Context())
	if err != nil {
		h.respondStoreError(w, r, err, "retrieve filter options")
		return
	}
	h.respondJSON(w, r, http.StatusOK, opts)
}

// invalidateMovie сбрасывает кэш карточки фильма; ошибка кэша не прерывает запрос.
func (h *Handler) invalidateMovie(r *http.Request, movieID int64) {
	key := cache.MovieDetailKey(movieID)
	if err := h.cache.Delete(r.Context(), key); err != nil {
		h.logger.WarnContext(r.Context(), "Cache invalidation failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}
