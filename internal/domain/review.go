// movie-service/internal/domain/review.go
package domain

// Review представляет модель отзыва. ParentID == nil у корневых отзывов.
type Review struct {
	ID       int64  `json:"id" db:"id"`
	Email    string `json:"email" db:"email"`
	Name     string `json:"name" db:"name"`
	Text     string `json:"text" db:"text"`
	ParentID *int64 `json:"parent" db:"parent_id"`
	MovieID  int64  `json:"movie" db:"movie_id"`
}

// ReviewNode узел дерева отзывов. Ссылка на родителя в вывод не попадает.
type ReviewNode struct {
	ID       int64        `json:"id"`
	Name     string       `json:"name"`
	Text     string       `json:"text"`
	Children []ReviewNode `json:"children"`
}

// CreateReviewRequest определяет тело запроса для создания нового отзыва.
type CreateReviewRequest struct {
	Email  string `json:"email" validate:"required,email,max=254"`
	Name   string `json:"name" validate:"required,min=1,max=100"`
	Text   string `json:"text" validate:"required,min=1,max=5000"`
	Parent *int64 `json:"parent,omitempty" validate:"omitempty,gt=0"`
	Movie  int64  `json:"movie" validate:"required,gt=0"`
}
