// Package filter разбирает параметры фильтрации списка фильмов.
package filter

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ErrInvalidYear год в фильтре не является целым числом.
var ErrInvalidYear = errors.New("invalid year filter")

// Параметры запроса.
const (
	ParamGenres  = "genres"
	ParamYearMin = "year_min"
	ParamYearMax = "year_max"
)

// MovieFilter фильтр по жанрам (по имени, семантика "in") и диапазону годов (включительно).
// Пустой фильтр ничего не ограничивает.
type MovieFilter struct {
	Genres  []string
	YearMin *int
	YearMax *int
}

// Parse строит фильтр из query-параметров. genres принимается как через запятую,
// так и повторяющимся параметром.
func Parse(q url.Values) (MovieFilter, error) {
	var f MovieFilter

	seen := make(map[string]struct{})
	for _, raw := range q[ParamGenres] {
		for _, name := range strings.Split(raw, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			f.Genres = append(f.Genres, name)
		}
	}

	var err error
	if f.YearMin, err = parseYear(q, ParamYearMin); err != nil {
		return MovieFilter{}, err
	}
	if f.YearMax, err = parseYear(q, ParamYearMax); err != nil {
		return MovieFilter{}, err
	}
	return f, nil
}

func parseYear(q url.Values, key string) (*int, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil, nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s=%q", ErrInvalidYear, key, raw)
	}
	return &year, nil
}

// IsZero сообщает, что фильтр пустой.
func (f MovieFilter) IsZero() bool {
	return len(f.Genres) == 0 && f.YearMin == nil && f.YearMax == nil
}

// MatchYear проверяет попадание года в диапазон.
func (f MovieFilter) MatchYear(year int) bool {
	if f.YearMin != nil && year < *f.YearMin {
		return false
	}
	if f.YearMax != nil && year > *f.YearMax {
		return false
	}
	return true
}

// MatchGenres истинно, если фильтр по жанрам не задан или хотя бы один жанр фильма входит в набор.
func (f MovieFilter) MatchGenres(names []string) bool {
	if len(f.Genres) == 0 {
		return true
	}
	for _, n := range names {
		for _, g := range f.Genres {
			if n == g {
				return true
			}
		}
	}
	return false
}

// Match применяет все предикаты фильтра (через AND).
func (f MovieFilter) Match(year int, genreNames []string) bool {
	return f.MatchYear(year) && f.MatchGenres(genreNames)
}
