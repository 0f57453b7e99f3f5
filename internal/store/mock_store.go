package store

import (
	"context"
	"log/slog"
	"slices"
	"sort"
	"sync" // Для защиты доступа к in-memory картам

	"movie-service/internal/domain"
	"movie-service/internal/rating"
)

// MockStore хранит каталог в памяти. Используется в тестах и при database.driver=memory.
// Семантика совпадает с SQLStore, включая уникальность (ip, movie) для оценок.
type MockStore struct {
	mu     sync.RWMutex
	logger *slog.Logger
	nextID int64

	categories map[int64]domain.Category
	genres     map[int64]domain.Genre
	actors     map[int64]domain.Actor
	movies     map[int64]domain.Movie
	links      map[int64]domain.MovieLinks
	shots      map[int64]domain.MovieShot
	stars      map[int]int64 // value -> id
	ratings    map[ratingKey]domain.Rating
	reviews    map[int64]domain.Review
}

type ratingKey struct {
	ip      string
	movieID int64
}

var _ Store = (*MockStore)(nil)

func NewMockStore() *MockStore {
	return &MockStore{
		logger:     slog.Default(),
		categories: make(map[int64]domain.Category),
		genres:     make(map[int64]domain.Genre),
		actors:     make(map[int64]domain.Actor),
		movies:     make(map[int64]domain.Movie),
		links:      make(map[int64]domain.MovieLinks),
		shots:      make(map[int64]domain.MovieShot),
		stars:      make(map[int]int64),
		ratings:    make(map[ratingKey]domain.Rating),
		reviews:    make(map[int64]domain.Review),
	}
}

func (m *MockStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *MockStore) Ping(context.Context) error { return nil }

// publishedLocked вызывается под m.mu.
func (m *MockStore) publishedLocked(id int64) (domain.Movie, error) {
	movie, ok := m.movies[id]
	if !ok || movie.Draft {
		return domain.Movie{}, ErrMovieNotFound
	}
	return movie, nil
}

func (m *MockStore) aggregateLocked(movieID int64, clientIP string) rating.Aggregate {
	var agg rating.Aggregate
	for key, r := range m.ratings {
		if key.movieID == movieID {
			agg.Add(r.Star, key.ip == clientIP)
		}
	}
	return agg
}

func (m *MockStore) genreNamesLocked(movieID int64) []string {
	var names []string
	for _, id := range m.links[movieID].GenreIDs {
		if g, ok := m.genres[id]; ok {
			names = append(names, g.Name)
		}
	}
	return names
}

func (m *MockStore) ListMovies(_ context.Context, params MovieListParams) ([]domain.MovieListItem, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []domain.Movie
	for _, movie := range m.movies {
		if movie.Draft {
			continue
		}
		if !params.Filter.Match(movie.Year, m.genreNamesLocked(movie.ID)) {
			continue
		}
		matched = append(matched, movie)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := len(matched)
	start := params.offset()
	if start >= total {
		return []domain.MovieListItem{}, total, nil
	}
	end := min(start+params.PageSize, total)

	items := make([]domain.MovieListItem, 0, end-start)
	for _, movie := range matched[start:end] {
		agg := m.aggregateLocked(movie.ID, params.ClientIP)
		items = append(items, domain.MovieListItem{
			ID:         movie.ID,
			Title:      movie.Title,
			Tagline:    movie.Tagline,
			CategoryID: movie.CategoryID,
			RatingUser: agg.RatingUser(),
			MiddleStar: agg.MiddleStar(),
			Poster:     movie.Poster,
		})
	}
	return items, total, nil
}

func (m *MockStore) actorsLocked(ids []int64) []domain.ActorShort {
	out := []domain.ActorShort{}
	for _, id := range slices.Sorted(slices.Values(ids)) {
		if a, ok := m.actors[id]; ok {
			out = append(out, domain.ActorShort{ID: a.ID, Name: a.Name, Image: a.Image})
		}
	}
	return out
}

func (m *MockStore) GetMovie(_ context.Context, id int64) (*domain.MovieDetail, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	movie, err := m.publishedLocked(id)
	if err != nil {
		return nil, err
	}
	var category *string
	if movie.CategoryID != nil {
		if c, ok := m.categories[*movie.CategoryID]; ok {
			name := c.Name
			category = &name
		}
	}
	links := m.links[id]
	var genres []string
	for _, gid := range slices.Sorted(slices.Values(links.GenreIDs)) {
		if g, ok := m.genres[gid]; ok {
			genres = append(genres, g.Name)
		}
	}
	return domain.NewMovieDetail(&movie, category, m.actorsLocked(links.DirectorIDs), m.actorsLocked(links.ActorIDs), genres), nil
}

func (m *MockStore) GetMovieSummary(_ context.Context, id int64) (*domain.MovieSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	movie, err := m.publishedLocked(id)
	if err != nil {
		return nil, err
	}
	agg := m.aggregateLocked(id, "")
	return &domain.MovieSummary{ID: movie.ID, Title: movie.Title, Year: movie.Year, MiddleStar: agg.MiddleStar()}, nil
}

func (m *MockStore) ListShots(_ context.Context, movieID int64) ([]domain.MovieShot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, err := m.publishedLocked(movieID); err != nil {
		return nil, err
	}
	shots := []domain.MovieShot{}
	for _, sh := range m.shots {
		if sh.MovieID == movieID {
			shots = append(shots, sh)
		}
	}
	sort.Slice(shots, func(i, j int) bool { return shots[i].ID < shots[j].ID })
	return shots, nil
}

func (m *MockStore) FilterOptions(context.Context) (*domain.FilterOptions, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	opts := &domain.FilterOptions{Genres: []domain.Genre{}, Years: []int{}}
	for _, g := range m.genres {
		opts.Genres = append(opts.Genres, g)
	}
	sort.Slice(opts.Genres, func(i, j int) bool {
		if opts.Genres[i].Name != opts.Genres[j].Name {
			return opts.Genres[i].Name < opts.Genres[j].Name
		}
		return opts.Genres[i].ID < opts.Genres[j].ID
	})
	seen := make(map[int]bool)
	for _, movie := range m.movies {
		if !movie.Draft && !seen[movie.Year] {
			seen[movie.Year] = true
			opts.Years = append(opts.Years, movie.Year)
		}
	}
	sort.Ints(opts.Years)
	return opts, nil
}

func (m *MockStore) ListActors(context.Context) ([]domain.ActorShort, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]int64, 0, len(m.actors))
	for id := range m.actors {
		ids = append(ids, id)
	}
	return m.actorsLocked(ids), nil
}

func (m *MockStore) GetActor(_ context.Context, id int64) (*domain.Actor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.actors[id]
	if !ok {
		return nil, ErrActorNotFound
	}
	return &a, nil
}

// UpsertRating выполняется под эксклюзивной блокировкой, что эквивалентно ON CONFLICT.
func (m *MockStore) UpsertRating(ctx context.Context, ip string, star int, movieID int64) (*domain.Rating, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.publishedLocked(movieID); err != nil {
		return nil, err
	}
	if _, ok := m.stars[star]; !ok {
		return nil, ErrStarNotFound
	}

	key := ratingKey{ip: ip, movieID: movieID}
	r, exists := m.ratings[key]
	if !exists {
		r = domain.Rating{ID: m.id(), IP: ip, MovieID: movieID}
	}
	r.Star = star
	m.ratings[key] = r
	m.logger.DebugContext(ctx, "Mock rating upserted", slog.Int64("ratingID", r.ID), slog.Bool("updated", exists))
	return &r, nil
}

func (m *MockStore) CreateReview(_ context.Context, review *domain.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.publishedLocked(review.MovieID); err != nil {
		return err
	}
	if review.ParentID != nil {
		parent, ok := m.reviews[*review.ParentID]
		if !ok || parent.MovieID != review.MovieID {
			return ErrParentReviewMismatch
		}
	}
	review.ID = m.id()
	stored := *review
	if review.ParentID != nil {
		parentID := *review.ParentID
		stored.ParentID = &parentID
	}
	m.reviews[review.ID] = stored
	return nil
}

func (m *MockStore) DeleteReview(_ context.Context, id int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.reviews[id]
	if !ok {
		return 0, ErrReviewNotFound
	}
	delete(m.reviews, id)
	// ON DELETE SET NULL
	for childID, child := range m.reviews {
		if child.ParentID != nil && *child.ParentID == id {
			child.ParentID = nil
			m.reviews[childID] = child
		}
	}
	return r.MovieID, nil
}

func (m *MockStore) ListReviews(_ context.Context, movieID int64) ([]domain.Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	reviews := []domain.Review{}
	for _, r := range m.reviews {
		if r.MovieID == movieID {
			reviews = append(reviews, r)
		}
	}
	sort.Slice(reviews, func(i, j int) bool { return reviews[i].ID < reviews[j].ID })
	return reviews, nil
}

func (m *MockStore) CreateCategory(_ context.Context, c *domain.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.categories {
		if existing.URL == c.URL {
			return ErrAlreadyExists
		}
	}
	c.ID = m.id()
	m.categories[c.ID] = *c
	return nil
}

func (m *MockStore) CreateGenre(_ context.Context, g *domain.Genre) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.genres {
		if existing.URL == g.URL {
			return ErrAlreadyExists
		}
	}
	g.ID = m.id()
	m.genres[g.ID] = *g
	return nil
}

func (m *MockStore) CreateActor(_ context.Context, a *domain.Actor) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a.ID = m.id()
	m.actors[a.ID] = *a
	return nil
}

func (m *MockStore) CreateMovie(_ context.Context, movie *domain.Movie, links domain.MovieLinks) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.movies {
		if existing.URL == movie.URL {
			return ErrAlreadyExists
		}
	}
	movie.ID = m.id()
	m.movies[movie.ID] = *movie
	m.links[movie.ID] = domain.MovieLinks{
		GenreIDs:    slices.Clone(links.GenreIDs),
		ActorIDs:    slices.Clone(links.ActorIDs),
		DirectorIDs: slices.Clone(links.DirectorIDs),
	}
	return nil
}

func (m *MockStore) CreateShot(_ context.Context, sh *domain.MovieShot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.movies[sh.MovieID]; !ok {
		return ErrMovieNotFound
	}
	sh.ID = m.id()
	m.shots[sh.ID] = *sh
	return nil
}

func (m *MockStore) EnsureStars(_ context.Context, values []int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, v := range values {
		if _, ok := m.stars[v]; !ok {
			m.stars[v] = m.id()
		}
	}
	return nil
}

func (m *MockStore) SetDraft(_ context.Context, movieID int64, draft bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	movie, ok := m.movies[movieID]
	if !ok {
		return ErrMovieNotFound
	}
	movie.Draft = draft
	m.movies[movieID] = movie
	return nil
}
