package domain

// Actor актёр или режиссёр. Роль определяется связью с фильмом, а не самой записью.
type Actor struct {
	ID          int64  `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Age         int    `json:"age" db:"age"`
	Description string `json:"description" db:"description"`
	Image       string `json:"image" db:"image"`
}

// ActorShort краткий вывод актёра для списков.
type ActorShort struct {
	ID    int64  `json:"id" db:"id"`
	Name  string `json:"name" db:"name"`
	Image string `json:"image" db:"image"`
}
