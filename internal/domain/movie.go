// movie-service/internal/domain/movie.go
package domain

import (
	"time"
)

// Category категория фильма (например, "Фильмы", "Мультфильмы")
type Category struct {
	ID          int64  `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`
	URL         string `json:"url" db:"url"`
}

// Genre жанр. Фильтр списка фильмов сопоставляет жанры по Name, а не по ID.
type Genre struct {
	ID          int64  `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`
	URL         string `json:"url" db:"url"`
}

// Movie представляет основную доменную модель фильма
type Movie struct {
	ID            int64     `json:"id" db:"id"`
	Title         string    `json:"title" db:"title"`
	Tagline       string    `json:"tagline" db:"tagline"`
	Description   string    `json:"description" db:"description"`
	Poster        string    `json:"poster" db:"poster"`
	Year          int       `json:"year" db:"year"`
	Country       string    `json:"country" db:"country"`
	WorldPremiere time.Time `json:"world_premiere" db:"world_premiere"`
	Budget        int64     `json:"budget" db:"budget"`
	FeesInUSA     int64     `json:"fees_in_usa" db:"fees_in_usa"`
	FeesInWorld   int64     `json:"fees_in_world" db:"fees_in_world"`
	CategoryID    *int64    `json:"category" db:"category_id"`
	URL           string    `json:"url" db:"url"`
	Draft         bool      `json:"-" db:"draft"` // черновики не видны в публичных эндпоинтах
}

// MovieLinks связи фильма со справочниками (многие-ко-многим).
type MovieLinks struct {
	GenreIDs    []int64
	ActorIDs    []int64
	DirectorIDs []int64
}

// MovieShot кадр из фильма
type MovieShot struct {
	ID          int64  `json:"id" db:"id"`
	Title       string `json:"title" db:"title"`
	Description string `json:"description" db:"description"`
	Image       string `json:"image" db:"image"`
	MovieID     int64  `json:"movie" db:"movie_id"`
}

// MovieListItem элемент списка фильмов вместе с вычисляемыми полями рейтинга.
type MovieListItem struct {
	ID         int64    `json:"id" db:"id"`
	Title      string   `json:"title" db:"title"`
	Tagline    string   `json:"tagline" db:"tagline"`
	CategoryID *int64   `json:"category" db:"category_id"`
	RatingUser int64    `json:"rating_user"`
	MiddleStar *float64 `json:"middle_star"` // nil, если оценок нет
	Poster     string   `json:"poster" db:"poster"`
}

// MovieDetail полный вывод фильма (без поля draft).
type MovieDetail struct {
	ID            int64        `json:"id"`
	Title         string       `json:"title"`
	Tagline       string       `json:"tagline"`
	Description   string       `json:"description"`
	Poster        string       `json:"poster"`
	Year          int          `json:"year"`
	Country       string       `json:"country"`
	WorldPremiere string       `json:"world_premiere"`
	Budget        int64        `json:"budget"`
	FeesInUSA     int64        `json:"fees_in_usa"`
	FeesInWorld   int64        `json:"fees_in_world"`
	URL           string       `json:"url"`
	Category      *string      `json:"category"`
	Directors     []ActorShort `json:"directors"`
	Actors        []ActorShort `json:"actors"`
	Genres        []string     `json:"genres"`
	Reviews       []ReviewNode `json:"reviews"`
}

// NewMovieDetail собирает детальное представление фильма. Отзывы заполняются отдельно.
func NewMovieDetail(m *Movie, category *string, directors, actors []ActorShort, genres []string) *MovieDetail {
	d := &MovieDetail{
		ID:          m.ID,
		Title:       m.Title,
		Tagline:     m.Tagline,
		Description: m.Description,
		Poster:      m.Poster,
		Year:        m.Year,
		Country:     m.Country,
		Budget:      m.Budget,
		FeesInUSA:   m.FeesInUSA,
		FeesInWorld: m.FeesInWorld,
		URL:         m.URL,
		Category:    category,
		Directors:   nonNil(directors),
		Actors:      nonNil(actors),
		Genres:      nonNil(genres),
		Reviews:     []ReviewNode{},
	}
	if !m.WorldPremiere.IsZero() {
		d.WorldPremiere = m.WorldPremiere.Format(time.DateOnly)
	}
	return d
}

// FilterOptions значения для построения фильтров на клиенте.
type FilterOptions struct {
	Genres []Genre `json:"genres"`
	Years  []int   `json:"years"`
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// MovieSummary краткие сведения о фильме для межсервисных запросов.
type MovieSummary struct {
	ID         int64
	Title      string
	Year       int
	MiddleStar *float64
}
