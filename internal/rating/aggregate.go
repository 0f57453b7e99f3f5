// Package rating содержит агрегацию оценок фильма: средняя звезда и признак
// "клиент уже оценил".
package rating

// Aggregate накопленные значения по одному фильму за один проход.
type Aggregate struct {
	Count      int64 // количество оценок фильма
	StarSum    int64 // сумма значений звёзд
	ClientHits int64 // сколько оценок оставил текущий клиент
}

// Add учитывает одну оценку. own истинно, если оценка принадлежит текущему клиенту.
func (a *Aggregate) Add(star int, own bool) {
	a.Count++
	a.StarSum += int64(star)
	if own {
		a.ClientHits++
	}
}

// MiddleStar среднее значение звезды. Для фильма без оценок возвращает nil:
// ноль означал бы "оценён на минимальный балл".
func (a Aggregate) MiddleStar() *float64 {
	if a.Count == 0 {
		return nil
	}
	avg := float64(a.StarSum) / float64(a.Count)
	return &avg
}

// RatingUser количество оценок текущего клиента (0 или 1 при соблюдении уникальности).
func (a Aggregate) RatingUser() int64 {
	return a.ClientHits
}
