// movie-service/internal/store/store.go
package store

import (
	"context"
	"errors"

	"movie-service/internal/domain"
	"movie-service/internal/filter"
)

var (
	ErrMovieNotFound  = errors.New("movie not found")
	ErrActorNotFound  = errors.New("actor not found")
	ErrReviewNotFound = errors.New("review not found")
	// ErrStarNotFound значение звезды отсутствует в справочнике rating_stars.
	ErrStarNotFound = errors.New("rating star not found")
	// ErrParentReviewMismatch родительский отзыв не существует или относится к другому фильму.
	ErrParentReviewMismatch = errors.New("parent review does not belong to the movie")
	ErrAlreadyExists        = errors.New("record already exists")
)

// MovieListParams параметры выборки списка фильмов.
type MovieListParams struct {
	Filter   filter.MovieFilter
	ClientIP string // rating_user считается для этого адреса
	Page     int
	PageSize int
}

func (p MovieListParams) offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// MovieStore публичные операции чтения каталога. Черновики недоступны.
type MovieStore interface {
	// ListMovies возвращает страницу фильмов с агрегатами рейтинга и общее число подходящих фильмов.
	ListMovies(ctx context.Context, params MovieListParams) ([]domain.MovieListItem, int, error)
	// GetMovie возвращает детальное представление без отзывов.
	GetMovie(ctx context.Context, id int64) (*domain.MovieDetail, error)
	GetMovieSummary(ctx context.Context, id int64) (*domain.MovieSummary, error)
	ListShots(ctx context.Context, movieID int64) ([]domain.MovieShot, error)
	FilterOptions(ctx context.Context) (*domain.FilterOptions, error)
}

type ActorStore interface {
	ListActors(ctx context.Context) ([]domain.ActorShort, error)
	GetActor(ctx context.Context, id int64) (*domain.Actor, error)
}

type RatingStore interface {
	// UpsertRating создаёт или перезаписывает оценку пары (ip, movie) одной атомарной операцией.
	UpsertRating(ctx context.Context, ip string, star int, movieID int64) (*domain.Rating, error)
}

type ReviewStore interface {
	CreateReview(ctx context.Context, review *domain.Review) error
	// DeleteReview удаляет отзыв и возвращает ID его фильма. Ответы становятся корневыми.
	DeleteReview(ctx context.Context, id int64) (int64, error)
	// ListReviews все отзывы фильма по возрастанию ID, включая ответы.
	ListReviews(ctx context.Context, movieID int64) ([]domain.Review, error)
}

// Curator операции наполнения каталога (CLI), в HTTP не публикуются.
type Curator interface {
	CreateCategory(ctx context.Context, c *domain.Category) error
	CreateGenre(ctx context.Context, g *domain.Genre) error
	CreateActor(ctx context.Context, a *domain.Actor) error
	CreateMovie(ctx context.Context, m *domain.Movie, links domain.MovieLinks) error
	CreateShot(ctx context.Context, s *domain.MovieShot) error
	// EnsureStars добавляет отсутствующие значения звёзд.
	EnsureStars(ctx context.Context, values []int) error
	SetDraft(ctx context.Context, movieID int64, draft bool) error
}

// Store полный набор операций хранилища.
type Store interface {
	MovieStore
	ActorStore
	RatingStore
	ReviewStore
	Curator
	Ping(ctx context.Context) error
}
