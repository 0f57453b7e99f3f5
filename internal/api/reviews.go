// movie-service/internal/api/reviews.go
package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"movie-service/internal/domain"
	"movie-service/internal/store"
)

// CreateReview добавляет отзыв или ответ на отзыв того же фильма.
func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req domain.CreateReviewRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.respondStoreError(w, r, err, "decode review")
		return
	}

	review := &domain.Review{
		Email:    req.Email,
		Name:     req.Name,
		Text:     req.Text,
		ParentID: req.Parent,
		MovieID:  req.Movie,
	}
	if err := h.store.CreateReview(ctx, review); err != nil {
		if errors.Is(err, store.ErrMovieNotFound) {
			err = fmt.Errorf("%w: %w", errInvalidReference, err)
		}
		h.respondStoreError(w, r, err, "create review")
		return
	}
	h.invalidateMovie(r, review.MovieID)

	h.logger.InfoContext(ctx, "Review created", slog.Int64("reviewID", review.ID), slog.Int64("movieID", review.MovieID))
	h.respondJSON(w, r, http.StatusCreated, review)
}

// DeleteReview удаляет отзыв (только суперпользователь).
func (h *Handler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.respondError(w, r, http.StatusNotFound, store.ErrReviewNotFound.Error())
		return
	}
	ctx := r.Context()
	movieID, err := h.store.DeleteReview(ctx, id)
	if err != nil {
		h.respondStoreError(w, r, err, "delete review")
		return
	}
	h.invalidateMovie(r, movieID)
	subject := ""
	if claims := ClaimsFromContext(ctx); claims != nil {
		subject = claims.Subject
	}
	h.logger.InfoContext(ctx, "Review deleted",
		slog.Int64("reviewID", id), slog.Int64("movieID", movieID), slog.String("deletedBy", subject))
	w.WriteHeader(http.StatusNoContent)
}
