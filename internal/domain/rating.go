package domain

// RatingStar значение звезды рейтинга из фиксированного справочника.
type RatingStar struct {
	ID    int64 `json:"id" db:"id"`
	Value int   `json:"value" db:"value"`
}

// Rating оценка фильма. На пару (IP, MovieID) приходится не более одной записи.
type Rating struct {
	ID      int64  `json:"id" db:"id"`
	IP      string `json:"ip" db:"ip"`
	Star    int    `json:"star" db:"star"`
	MovieID int64  `json:"movie" db:"movie_id"`
}

// CreateRatingRequest тело запроса на установку рейтинга.
type CreateRatingRequest struct {
	Star  int   `json:"star" validate:"required"`
	Movie int64 `json:"movie" validate:"required,gt=0"`
}
