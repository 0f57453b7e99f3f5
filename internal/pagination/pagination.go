// Package pagination реализует постраничный вывод с конвертом
// {links: {next, previous}, count, results}.
package pagination

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ErrInvalidPage номер страницы не является положительным целым.
var ErrInvalidPage = errors.New("invalid page")

// ParamPage параметр номера страницы.
const ParamPage = "page"

// Page запрошенная страница.
type Page struct {
	Number int
	Size   int
}

// Offset смещение первой записи страницы.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// ParsePage читает номер страницы из запроса. Размер страницы фиксирован конфигурацией.
func ParsePage(q url.Values, size int) (Page, error) {
	if size <= 0 {
		return Page{}, fmt.Errorf("page size must be positive, got %d", size)
	}
	raw := strings.TrimSpace(q.Get(ParamPage))
	if raw == "" {
		return Page{Number: 1, Size: size}, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return Page{}, fmt.Errorf("%w: %q", ErrInvalidPage, raw)
	}
	return Page{Number: n, Size: size}, nil
}

// Links ссылки на соседние страницы; nil сериализуется как null.
type Links struct {
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
}

// Envelope ответ со страницей результатов.
type Envelope[T any] struct {
	Links   Links `json:"links"`
	Count   int   `json:"count"`
	Results []T   `json:"results"`
}

// NewEnvelope оборачивает страницу. base: абсолютный URL запроса, остальные его
// параметры сохраняются в ссылках. Страница за пределами диапазона даёт next = nil.
func NewEnvelope[T any](base *url.URL, p Page, count int, results []T) Envelope[T] {
	if results == nil {
		results = []T{}
	}
	env := Envelope[T]{Count: count, Results: results}
	if p.Number*p.Size < count {
		env.Links.Next = pageLink(base, p.Number+1)
	}
	if p.Number > 1 {
		env.Links.Previous = pageLink(base, p.Number-1)
	}
	return env
}

func pageLink(base *url.URL, number int) *string {
	u := *base
	q := u.Query()
	if number <= 1 {
		q.Del(ParamPage)
	} else {
		q.Set(ParamPage, strconv.Itoa(number))
	}
	u.RawQuery = q.Encode()
	link := u.String()
	return &link
}
