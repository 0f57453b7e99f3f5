// movie-service/internal/store/sql_movies.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"movie-service/internal/domain"
	"movie-service/internal/rating"

	"github.com/jmoiron/sqlx"
)

// movieListRow строка выборки списка: поля фильма и сырые агрегаты рейтинга.
type movieListRow struct {
	ID          int64  `db:"id"`
	Title       string `db:"title"`
	Tagline     string `db:"tagline"`
	CategoryID  *int64 `db:"category_id"`
	Poster      string `db:"poster"`
	RatingCount int64  `db:"rating_count"`
	StarSum     int64  `db:"star_sum"`
	ClientHits  int64  `db:"rating_user"`
}

func (r movieListRow) item() domain.MovieListItem {
	agg := rating.Aggregate{Count: r.RatingCount, StarSum: r.StarSum, ClientHits: r.ClientHits}
	return domain.MovieListItem{
		ID:         r.ID,
		Title:      r.Title,
		Tagline:    r.Tagline,
		CategoryID: r.CategoryID,
		RatingUser: agg.RatingUser(),
		MiddleStar: agg.MiddleStar(),
		Poster:     r.Poster,
	}
}

// movieWhere условия фильтра по опубликованным фильмам.
func movieWhere(params MovieListParams) (string, []any) {
	conditions := []string{"m.draft = ?"}
	args := []any{false}

	f := params.Filter
	if len(f.Genres) > 0 {
		conditions = append(conditions, `m.id IN (
			SELECT mg.movie_id FROM movie_genres mg
			JOIN genres g ON g.id = mg.genre_id
			WHERE g.name IN (?))`)
		args = append(args, f.Genres)
	}
	if f.YearMin != nil {
		conditions = append(conditions, "m.year >= ?")
		args = append(args, *f.YearMin)
	}
	if f.YearMax != nil {
		conditions = append(conditions, "m.year <= ?")
		args = append(args, *f.YearMax)
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// ListMovies возвращает страницу фильмов. Агрегаты рейтинга считаются в том же
// запросе, что и выборка, без отдельного запроса на каждый фильм.
func (s *SQLStore) ListMovies(ctx context.Context, params MovieListParams) ([]domain.MovieListItem, int, error) {
	where, whereArgs := movieWhere(params)

	countQuery, countArgs, err := sqlx.In(`SELECT COUNT(*) FROM movies m`+where, whereArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}
	var total int
	if err := s.db.GetContext(ctx, &total, s.q(countQuery), countArgs...); err != nil {
		s.logger.ErrorContext(ctx, "Failed to count movies in DB", slog.String("error", err.Error()))
		return nil, 0, fmt.Errorf("failed to count movies: %w", err)
	}
	if total == 0 || params.offset() >= total {
		return []domain.MovieListItem{}, total, nil
	}

	selectQuery := `SELECT m.id, m.title, m.tagline, m.category_id, m.poster,
			COUNT(r.id) AS rating_count,
			COALESCE(SUM(s.value), 0) AS star_sum,
			COALESCE(SUM(CASE WHEN r.ip = ? THEN 1 ELSE 0 END), 0) AS rating_user
		FROM movies m
		LEFT JOIN ratings r ON r.movie_id = m.id
		LEFT JOIN rating_stars s ON s.id = r.star_id` + where + `
		GROUP BY m.id, m.title, m.tagline, m.category_id, m.poster
		ORDER BY m.id
		LIMIT ? OFFSET ?`
	args := append([]any{params.ClientIP}, whereArgs...)
	args = append(args, params.PageSize, params.offset())

	selectQuery, args, err = sqlx.In(selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list query: %w", err)
	}

	s.logger.DebugContext(ctx, "Executing List movies select query", slog.Any("args", args))
	var rows []movieListRow
	if err := s.db.SelectContext(ctx, &rows, s.q(selectQuery), args...); err != nil {
		s.logger.ErrorContext(ctx, "Failed to list movies from DB", slog.String("error", err.Error()))
		return nil, 0, fmt.Errorf("failed to list movies: %w", err)
	}

	items := make([]domain.MovieListItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, r.item())
	}
	return items, total, nil
}

type movieRow struct {
	ID            int64        `db:"id"`
	Title         string       `db:"title"`
	Tagline       string       `db:"tagline"`
	Description   string       `db:"description"`
	Poster        string       `db:"poster"`
	Year          int          `db:"year"`
	Country       string       `db:"country"`
	WorldPremiere sql.NullTime `db:"world_premiere"`
	Budget        int64        `db:"budget"`
	FeesInUSA     int64        `db:"fees_in_usa"`
	FeesInWorld   int64        `db:"fees_in_world"`
	CategoryID    *int64       `db:"category_id"`
	Category      *string      `db:"category"`
	URL           string       `db:"url"`
}

func (r movieRow) movie() *domain.Movie {
	m := &domain.Movie{
		ID:          r.ID,
		Title:       r.Title,
		Tagline:     r.Tagline,
		Description: r.Description,
		Poster:      r.Poster,
		Year:        r.Year,
		Country:     r.Country,
		Budget:      r.Budget,
		FeesInUSA:   r.FeesInUSA,
		FeesInWorld: r.FeesInWorld,
		CategoryID:  r.CategoryID,
		URL:         r.URL,
	}
	if r.WorldPremiere.Valid {
		m.WorldPremiere = r.WorldPremiere.Time.In(time.UTC)
	}
	return m
}

// GetMovie находит опубликованный фильм по ID вместе со связями.
func (s *SQLStore) GetMovie(ctx context.Context, id int64) (*domain.MovieDetail, error) {
	var row movieRow
	query := s.q(`SELECT m.id, m.title, m.tagline, m.description, m.poster, m.year, m.country,
			m.world_premiere, m.budget, m.fees_in_usa, m.fees_in_world, m.category_id,
			c.name AS category, m.url
		FROM movies m
		LEFT JOIN categories c ON c.id = m.category_id
		WHERE m.id = ? AND m.draft = ?`)

	s.logger.DebugContext(ctx, "Executing GetMovie query", slog.Int64("movieID", id))
	if err := s.db.GetContext(ctx, &row, query, id, false); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		s.logger.ErrorContext(ctx, "Failed to get movie from DB", slog.Int64("movieID", id), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get movie by ID: %w", err)
	}

	var directors, actors []domain.ActorShort
	err := s.db.SelectContext(ctx, &directors, s.q(`SELECT a.id, a.name, a.image
		FROM actors a JOIN movie_directors md ON md.actor_id = a.id
		WHERE md.movie_id = ? ORDER BY a.id`), id)
	if err != nil {
		return nil, fmt.Errorf("failed to load directors: %w", err)
	}
	err = s.db.SelectContext(ctx, &actors, s.q(`SELECT a.id, a.name, a.image
		FROM actors a JOIN movie_actors ma ON ma.actor_id = a.id
		WHERE ma.movie_id = ? ORDER BY a.id`), id)
	if err != nil {
		return nil, fmt.Errorf("failed to load actors: %w", err)
	}
	var genres []string
	err = s.db.SelectContext(ctx, &genres, s.q(`SELECT g.name
		FROM genres g JOIN movie_genres mg ON mg.genre_id = g.id
		WHERE mg.movie_id = ? ORDER BY g.id`), id)
	if err != nil {
		return nil, fmt.Errorf("failed to load genres: %w", err)
	}

	return domain.NewMovieDetail(row.movie(), row.Category, directors, actors, genres), nil
}

func (s *SQLStore) GetMovieSummary(ctx context.Context, id int64) (*domain.MovieSummary, error) {
	var row struct {
		ID          int64  `db:"id"`
		Title       string `db:"title"`
		Year        int    `db:"year"`
		RatingCount int64  `db:"rating_count"`
		StarSum     int64  `db:"star_sum"`
	}
	query := s.q(`SELECT m.id, m.title, m.year,
			COUNT(r.id) AS rating_count,
			COALESCE(SUM(s.value), 0) AS star_sum
		FROM movies m
		LEFT JOIN ratings r ON r.movie_id = m.id
		LEFT JOIN rating_stars s ON s.id = r.star_id
		WHERE m.id = ? AND m.draft = ?
		GROUP BY m.id, m.title, m.year`)
	if err := s.db.GetContext(ctx, &row, query, id, false); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		return nil, fmt.Errorf("failed to get movie summary: %w", err)
	}
	agg := rating.Aggregate{Count: row.RatingCount, StarSum: row.StarSum}
	return &domain.MovieSummary{ID: row.ID, Title: row.Title, Year: row.Year, MiddleStar: agg.MiddleStar()}, nil
}

func (s *SQLStore) published(ctx context.Context, ext sqlx.QueryerContext, id int64) error {
	var found int64
	err := sqlx.GetContext(ctx, ext, &found, s.q(`SELECT id FROM movies WHERE id = ? AND draft = ?`), id, false)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrMovieNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check movie: %w", err)
	}
	return nil
}

func (s *SQLStore) ListShots(ctx context.Context, movieID int64) ([]domain.MovieShot, error) {
	if err := s.published(ctx, s.db, movieID); err != nil {
		return nil, err
	}
	shots := []domain.MovieShot{}
	err := s.db.SelectContext(ctx, &shots, s.q(`SELECT id, title, description, image, movie_id
		FROM movie_shots WHERE movie_id = ? ORDER BY id`), movieID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shots: %w", err)
	}
	return shots, nil
}

// FilterOptions все жанры и различные годы опубликованных фильмов.
func (s *SQLStore) FilterOptions(ctx context.Context) (*domain.FilterOptions, error) {
	opts := &domain.FilterOptions{Genres: []domain.Genre{}, Years: []int{}}
	if err := s.db.SelectContext(ctx, &opts.Genres,
		`SELECT id, name, description, url FROM genres ORDER BY name, id`); err != nil {
		return nil, fmt.Errorf("failed to list genres: %w", err)
	}
	if err := s.db.SelectContext(ctx, &opts.Years,
		s.q(`SELECT DISTINCT year FROM movies WHERE draft = ? ORDER BY year`), false); err != nil {
		return nil, fmt.Errorf("failed to list years: %w", err)
	}
	return opts, nil
}
