// movie-service/internal/store/sql_store.go
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"movie-service/internal/domain"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq" // Драйвер PostgreSQL и коды ошибок
	"github.com/mattn/go-sqlite3"
)

// SQLStore реализует Store поверх sqlx. Запросы пишутся с плейсхолдерами "?"
// и переводятся в синтаксис драйвера через Rebind, поэтому один код работает
// и с PostgreSQL, и с SQLite.
type SQLStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

var _ Store = (*SQLStore)(nil)

// NewSQLStore создает новый экземпляр SQLStore.
func NewSQLStore(db *sqlx.DB, logger *slog.Logger) (*SQLStore, error) {
	if db == nil {
		return nil, errors.New("database connection (db) cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLStore{db: db, logger: logger}, nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) q(query string) string {
	return s.db.Rebind(query)
}

// isUniqueViolation 23505 в PostgreSQL, SQLITE_CONSTRAINT_UNIQUE в SQLite.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// isForeignKeyViolation 23503 в PostgreSQL, SQLITE_CONSTRAINT_FOREIGNKEY в SQLite.
func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23503"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	return false
}

func (s *SQLStore) insertReturningID(ctx context.Context, ext sqlx.QueryerContext, dest *int64, query string, args ...any) error {
	err := sqlx.GetContext(ctx, ext, dest, s.q(query+" RETURNING id"), args...)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (s *SQLStore) CreateCategory(ctx context.Context, c *domain.Category) error {
	err := s.insertReturningID(ctx, s.db, &c.ID,
		`INSERT INTO categories (name, description, url) VALUES (?, ?, ?)`,
		c.Name, c.Description, c.URL)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

func (s *SQLStore) CreateGenre(ctx context.Context, g *domain.Genre) error {
	err := s.insertReturningID(ctx, s.db, &g.ID,
		`INSERT INTO genres (name, description, url) VALUES (?, ?, ?)`,
		g.Name, g.Description, g.URL)
	if err != nil {
		return fmt.Errorf("failed to create genre: %w", err)
	}
	return nil
}

func (s *SQLStore) CreateActor(ctx context.Context, a *domain.Actor) error {
	err := s.insertReturningID(ctx, s.db, &a.ID,
		`INSERT INTO actors (name, age, description, image) VALUES (?, ?, ?, ?)`,
		a.Name, a.Age, a.Description, a.Image)
	if err != nil {
		return fmt.Errorf("failed to create actor: %w", err)
	}
	return nil
}

// CreateMovie сохраняет фильм вместе со связями в одной транзакции.
func (s *SQLStore) CreateMovie(ctx context.Context, m *domain.Movie, links domain.MovieLinks) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op после Commit

	var premiere any
	if !m.WorldPremiere.IsZero() {
		premiere = m.WorldPremiere
	}
	err = s.insertReturningID(ctx, tx, &m.ID,
		`INSERT INTO movies (title, tagline, description, poster, year, country, world_premiere,
			budget, fees_in_usa, fees_in_world, category_id, url, draft)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.Title, m.Tagline, m.Description, m.Poster, m.Year, m.Country, premiere,
		m.Budget, m.FeesInUSA, m.FeesInWorld, m.CategoryID, m.URL, m.Draft)
	if err != nil {
		return fmt.Errorf("failed to create movie: %w", err)
	}

	joins := []struct {
		table, column string
		ids           []int64
	}{
		{"movie_genres", "genre_id", links.GenreIDs},
		{"movie_actors", "actor_id", links.ActorIDs},
		{"movie_directors", "actor_id", links.DirectorIDs},
	}
	for _, j := range joins {
		query := s.q(fmt.Sprintf(`INSERT INTO %s (movie_id, %s) VALUES (?, ?)`, j.table, j.column))
		for _, id := range j.ids {
			if _, err := tx.ExecContext(ctx, query, m.ID, id); err != nil {
				return fmt.Errorf("failed to link movie to %s %d: %w", j.table, id, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit movie: %w", err)
	}
	s.logger.InfoContext(ctx, "Movie created", slog.Int64("movieID", m.ID), slog.String("title", m.Title))
	return nil
}

func (s *SQLStore) CreateShot(ctx context.Context, sh *domain.MovieShot) error {
	err := s.insertReturningID(ctx, s.db, &sh.ID,
		`INSERT INTO movie_shots (title, description, image, movie_id) VALUES (?, ?, ?, ?)`,
		sh.Title, sh.Description, sh.Image, sh.MovieID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrMovieNotFound
		}
		return fmt.Errorf("failed to create shot: %w", err)
	}
	return nil
}

func (s *SQLStore) EnsureStars(ctx context.Context, values []int) error {
	query := s.q(`INSERT INTO rating_stars (value) VALUES (?) ON CONFLICT (value) DO NOTHING`)
	for _, v := range values {
		if _, err := s.db.ExecContext(ctx, query, v); err != nil {
			return fmt.Errorf("failed to insert star %d: %w", v, err)
		}
	}
	return nil
}

// SetDraft публикует фильм (draft=false) или снимает его с публикации.
func (s *SQLStore) SetDraft(ctx context.Context, movieID int64, draft bool) error {
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE movies SET draft = ? WHERE id = ?`), draft, movieID)
	if err != nil {
		return fmt.Errorf("failed to update draft flag: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMovieNotFound
	}
	s.logger.InfoContext(ctx, "Movie draft flag updated", slog.Int64("movieID", movieID), slog.Bool("draft", draft))
	return nil
}
