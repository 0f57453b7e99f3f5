package api

import (
	"errors"
	"fmt"
	"net/http"

	"movie-service/internal/clientip"
	"movie-service/internal/domain"
	"movie-service/internal/metrics"
	"movie-service/internal/store"
)

// CreateRating ставит или перезаписывает оценку фильма от адреса клиента.
func (h *Handler) CreateRating(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req domain.CreateRatingRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		metrics.RatingUpserts.WithLabelValues("invalid").Inc()
		h.respondStoreError(w, r, err, "decode rating")
		return
	}

	ip := clientip.Resolve(r)
	rating, err := h.store.UpsertRating(ctx, ip, req.Star, req.Movie)
	if err != nil {
		if errors.Is(err, store.ErrMovieNotFound) {
			err = fmt.Errorf("%w: %w", errInvalidReference, err)
		}
		if statusFor(err) < http.StatusInternalServerError {
			metrics.RatingUpserts.WithLabelValues("invalid").Inc()
		} else {
			metrics.RatingUpserts.WithLabelValues("error").Inc()
		}
		h.respondStoreError(w, r, err, "save rating")
		return
	}

	metrics.RatingUpserts.WithLabelValues("ok").Inc()
	h.respondJSON(w, r, http.StatusCreated, rating)
}
