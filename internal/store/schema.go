package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Поддерживаемые драйверы database/sql.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// schema общая DDL; {{pk}} и {{bool_false}} подставляются под диалект.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS categories (
		id {{pk}},
		name VARCHAR(150) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		url VARCHAR(160) NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS genres (
		id {{pk}},
		name VARCHAR(100) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		url VARCHAR(160) NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS actors (
		id {{pk}},
		name VARCHAR(100) NOT NULL,
		age SMALLINT NOT NULL DEFAULT 0,
		description TEXT NOT NULL DEFAULT '',
		image VARCHAR(255) NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS movies (
		id {{pk}},
		title VARCHAR(100) NOT NULL,
		tagline VARCHAR(100) NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		poster VARCHAR(255) NOT NULL DEFAULT '',
		year SMALLINT NOT NULL,
		country VARCHAR(30) NOT NULL DEFAULT '',
		world_premiere DATE,
		budget BIGINT NOT NULL DEFAULT 0,
		fees_in_usa BIGINT NOT NULL DEFAULT 0,
		fees_in_world BIGINT NOT NULL DEFAULT 0,
		category_id BIGINT REFERENCES categories(id) ON DELETE SET NULL,
		url VARCHAR(130) NOT NULL UNIQUE,
		draft BOOLEAN NOT NULL DEFAULT {{bool_false}}
	)`,
	`CREATE TABLE IF NOT EXISTS movie_genres (
		movie_id BIGINT NOT NULL REFERENCES movies(id) ON DELETE CASCADE,
		genre_id BIGINT NOT NULL REFERENCES genres(id) ON DELETE CASCADE,
		PRIMARY KEY (movie_id, genre_id)
	)`,
	`CREATE TABLE IF NOT EXISTS movie_actors (
		movie_id BIGINT NOT NULL REFERENCES movies(id) ON DELETE CASCADE,
		actor_id BIGINT NOT NULL REFERENCES actors(id) ON DELETE CASCADE,
		PRIMARY KEY (movie_id, actor_id)
	)`,
	`CREATE TABLE IF NOT EXISTS movie_directors (
		movie_id BIGINT NOT NULL REFERENCES movies(id) ON DELETE CASCADE,
		actor_id BIGINT NOT NULL REFERENCES actors(id) ON DELETE CASCADE,
		PRIMARY KEY (movie_id, actor_id)
	)`,
	`CREATE TABLE IF NOT EXISTS movie_shots (
		id {{pk}},
		title VARCHAR(100) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		image VARCHAR(255) NOT NULL DEFAULT '',
		movie_id BIGINT NOT NULL REFERENCES movies(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS rating_stars (
		id {{pk}},
		value SMALLINT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS ratings (
		id {{pk}},
		ip VARCHAR(45) NOT NULL,
		star_id BIGINT NOT NULL REFERENCES rating_stars(id) ON DELETE CASCADE,
		movie_id BIGINT NOT NULL REFERENCES movies(id) ON DELETE CASCADE,
		UNIQUE (ip, movie_id)
	)`,
	`CREATE TABLE IF NOT EXISTS reviews (
		id {{pk}},
		email VARCHAR(254) NOT NULL,
		name VARCHAR(100) NOT NULL,
		text VARCHAR(5000) NOT NULL,
		parent_id BIGINT REFERENCES reviews(id) ON DELETE SET NULL,
		movie_id BIGINT NOT NULL REFERENCES movies(id) ON DELETE CASCADE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reviews_movie ON reviews (movie_id)`,
	`CREATE INDEX IF NOT EXISTS idx_ratings_movie ON ratings (movie_id)`,
	`CREATE INDEX IF NOT EXISTS idx_movies_year ON movies (year)`,
}

func dialect(driver string) (*strings.Replacer, error) {
	switch driver {
	case DriverPostgres:
		return strings.NewReplacer("{{pk}}", "BIGSERIAL PRIMARY KEY", "{{bool_false}}", "FALSE"), nil
	case DriverSQLite:
		return strings.NewReplacer("{{pk}}", "INTEGER PRIMARY KEY AUTOINCREMENT", "{{bool_false}}", "0"), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Migrate создаёт недостающие таблицы. Повторный запуск безопасен.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	r, err := dialect(db.DriverName())
	if err != nil {
		return err
	}
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op после Commit

	for _, stmt := range schema {
		if _, err := tx.ExecContext(ctx, r.Replace(stmt)); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}
	return nil
}

// DefaultStars значения справочника звёзд.
func DefaultStars() []int {
	return []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
}

// Open подключается к базе. Для sqlite включаются внешние ключи, а пул
// ограничен одним соединением, чтобы база ":memory:" была общей.
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	if _, err := dialect(driver); err != nil {
		return nil, err
	}
	if driver == DriverSQLite && !strings.Contains(dsn, "_foreign_keys") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_foreign_keys=on"
	}
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	return db, nil
}
