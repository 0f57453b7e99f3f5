// movie-service/internal/store/sql_reviews.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"movie-service/internal/domain"
)

// CreateReview сохраняет отзыв. Фильм должен быть опубликован, а родитель,
// если указан, принадлежать тому же фильму.
func (s *SQLStore) CreateReview(ctx context.Context, review *domain.Review) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op после Commit

	if err := s.published(ctx, tx, review.MovieID); err != nil {
		return err
	}
	if review.ParentID != nil {
		var parentMovie int64
		err := tx.GetContext(ctx, &parentMovie, s.q(`SELECT movie_id FROM reviews WHERE id = ?`), *review.ParentID)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && parentMovie != review.MovieID) {
			return ErrParentReviewMismatch
		}
		if err != nil {
			return fmt.Errorf("failed to load parent review: %w", err)
		}
	}

	err = s.insertReturningID(ctx, tx, &review.ID,
		`INSERT INTO reviews (email, name, text, parent_id, movie_id) VALUES (?, ?, ?, ?, ?)`,
		review.Email, review.Name, review.Text, review.ParentID, review.MovieID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrMovieNotFound
		}
		return fmt.Errorf("failed to create review: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit review: %w", err)
	}
	s.logger.InfoContext(ctx, "Review created", slog.Int64("reviewID", review.ID), slog.Int64("movieID", review.MovieID))
	return nil
}

func (s *SQLStore) DeleteReview(ctx context.Context, id int64) (int64, error) {
	var movieID int64
	err := s.db.GetContext(ctx, &movieID, s.q(`DELETE FROM reviews WHERE id = ? RETURNING movie_id`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrReviewNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to delete review: %w", err)
	}
	s.logger.InfoContext(ctx, "Review deleted", slog.Int64("reviewID", id), slog.Int64("movieID", movieID))
	return movieID, nil
}

func (s *SQLStore) ListReviews(ctx context.Context, movieID int64) ([]domain.Review, error) {
	reviews := []domain.Review{}
	err := s.db.SelectContext(ctx, &reviews, s.q(`SELECT id, email, name, text, parent_id, movie_id
		FROM reviews WHERE movie_id = ? ORDER BY id`), movieID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}
