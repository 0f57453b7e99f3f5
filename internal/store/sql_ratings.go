package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"movie-service/internal/domain"
)

// UpsertRating атомарно создаёт или перезаписывает оценку через ON CONFLICT по
// уникальному индексу (ip, movie_id). Гонка двух запросов с одного адреса не
// может породить вторую строку.
func (s *SQLStore) UpsertRating(ctx context.Context, ip string, star int, movieID int64) (*domain.Rating, error) {
	// WHERE в SELECT обязателен для SQLite: без него ON CONFLICT разбирается как часть JOIN.
	query := s.q(`INSERT INTO ratings (ip, star_id, movie_id)
		SELECT ?, s.id, m.id FROM rating_stars s, movies m
		WHERE s.value = ? AND m.id = ? AND m.draft = ?
		ON CONFLICT (ip, movie_id) DO UPDATE SET star_id = excluded.star_id
		RETURNING id`)

	var id int64
	err := s.db.GetContext(ctx, &id, query, ip, star, movieID, false)
	if errors.Is(err, sql.ErrNoRows) {
		// Ни одна строка не вставлена: выясняем, чего не хватило.
		if err := s.published(ctx, s.db, movieID); err != nil {
			return nil, err
		}
		return nil, ErrStarNotFound
	}
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrMovieNotFound
		}
		s.logger.ErrorContext(ctx, "Failed to upsert rating", slog.Int64("movieID", movieID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to upsert rating: %w", err)
	}

	s.logger.InfoContext(ctx, "Rating upserted", slog.Int64("ratingID", id), slog.Int64("movieID", movieID), slog.Int("star", star))
	return &domain.Rating{ID: id, IP: ip, Star: star, MovieID: movieID}, nil
}
