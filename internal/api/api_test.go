package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-service/internal/cache"
	"movie-service/internal/domain"
	"movie-service/internal/pagination"
	"movie-service/internal/store"
	"movie-service/pkg/auth"
)

const (
	testSecret   = "0123456789abcdef0123456789abcdef"
	testAdmin    = "admin"
	testPassword = "s3cret-pass"
)

type fixture struct {
	store  *store.MockStore
	tokens auth.TokenManager
	router http.Handler
	m1, m2 domain.Movie
	draft  domain.Movie
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	s := store.NewMockStore()
	require.NoError(t, s.EnsureStars(ctx, store.DefaultStars()))
	drama := domain.Genre{Name: "Drama", URL: "drama"}
	comedy := domain.Genre{Name: "Comedy", URL: "comedy"}
	require.NoError(t, s.CreateGenre(ctx, &drama))
	require.NoError(t, s.CreateGenre(ctx, &comedy))

	f := &fixture{store: s}
	create := func(dst *domain.Movie, title string, year int, draft bool, genre int64) {
		*dst = domain.Movie{Title: title, Year: year, URL: fmt.Sprintf("%s-%d", title, year), Draft: draft}
		require.NoError(t, s.CreateMovie(ctx, dst, domain.MovieLinks{GenreIDs: []int64{genre}}))
	}
	create(&f.m1, "M1", 2001, false, drama.ID)
	create(&f.m2, "M2", 2010, false, comedy.ID)
	create(&f.draft, "D", 2015, true, drama.ID)

	tm, err := auth.NewTokenManager(testSecret, time.Hour)
	require.NoError(t, err)
	f.tokens = tm
	hash, err := auth.HashPassword(testPassword)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(s, cache.NewMemoryCache(), tm, logger, nil, Options{
		PageSize:          1,
		CacheTTL:          time.Minute,
		AdminUsername:     testAdmin,
		AdminPasswordHash: hash,
	})
	f.router = NewRouter(h, RouterConfig{})
	return f
}

func (f *fixture) do(t *testing.T, method, target string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func fromIP(ip string) http.Header {
	return http.Header{"X-Forwarded-For": []string{ip}}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestListMoviesEnvelope(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/movie/", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	env := decode[pagination.Envelope[domain.MovieListItem]](t, rec)
	assert.Equal(t, 2, env.Count)
	require.Len(t, env.Results, 1)
	assert.Equal(t, f.m1.ID, env.Results[0].ID)
	assert.Nil(t, env.Results[0].MiddleStar)
	assert.Zero(t, env.Results[0].RatingUser)
	require.NotNil(t, env.Links.Next)
	assert.Equal(t, "http://example.com/api/v1/movie/?page=2", *env.Links.Next)
	assert.Nil(t, env.Links.Previous)

	rec = f.do(t, http.MethodGet, "/api/v1/movie?page=2&genres=Comedy&genres=Drama", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	env = decode[pagination.Envelope[domain.MovieListItem]](t, rec)
	require.Len(t, env.Results, 1)
	assert.Equal(t, f.m2.ID, env.Results[0].ID)
	assert.Nil(t, env.Links.Next)
	require.NotNil(t, env.Links.Previous)
	assert.Contains(t, *env.Links.Previous, "genres=Comedy")
	assert.NotContains(t, *env.Links.Previous, "page=")

	rec = f.do(t, http.MethodGet, "/api/v1/movie/?page=9", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	env = decode[pagination.Envelope[domain.MovieListItem]](t, rec)
	assert.Empty(t, env.Results)
	assert.Nil(t, env.Links.Next)
	assert.JSONEq(t, `{"links":{"next":null,"previous":"http://example.com/api/v1/movie/?page=8"},"count":2,"results":[]}`, rec.Body.String())
}

func TestListMoviesRejectsBadQuery(t *testing.T) {
	f := newFixture(t)
	for _, target := range []string{
		"/api/v1/movie/?year_min=abc",
		"/api/v1/movie/?year_max=20x0",
		"/api/v1/movie/?page=0",
		"/api/v1/movie/?page=last",
	} {
		rec := f.do(t, http.MethodGet, target, nil, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.Contains(t, decode[map[string]string](t, rec), "error")
	}
}

func TestRatingAggregationPerClient(t *testing.T) {
	f := newFixture(t)
	rate := func(ip string, star int, movie int64) *httptest.ResponseRecorder {
		return f.do(t, http.MethodPost, "/api/v1/rating/", map[string]any{"star": star, "movie": movie}, fromIP(ip))
	}

	require.Equal(t, http.StatusCreated, rate("10.0.0.1", 5, f.m1.ID).Code)
	rec := rate("10.0.0.1", 3, f.m1.ID)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 3, decode[domain.Rating](t, rec).Star)
	require.Equal(t, http.StatusCreated, rate("10.0.0.3", 5, f.m1.ID).Code)

	item := func(ip string) domain.MovieListItem {
		rec := f.do(t, http.MethodGet, "/api/v1/movie/", nil, fromIP(ip))
		require.Equal(t, http.StatusOK, rec.Code)
		env := decode[pagination.Envelope[domain.MovieListItem]](t, rec)
		require.NotEmpty(t, env.Results)
		return env.Results[0]
	}

	a := item("10.0.0.1")
	require.NotNil(t, a.MiddleStar)
	assert.InDelta(t, 4.0, *a.MiddleStar, 1e-9)
	assert.EqualValues(t, 1, a.RatingUser)

	b := item("10.0.0.2")
	require.NotNil(t, b.MiddleStar)
	assert.InDelta(t, 4.0, *b.MiddleStar, 1e-9)
	assert.Zero(t, b.RatingUser)
}

func TestRatingRejectsInvalidReferences(t *testing.T) {
	f := newFixture(t)
	cases := []struct {
		name string
		body any
	}{
		{"unknown star", map[string]any{"star": 11, "movie": f.m1.ID}},
		{"unknown movie", map[string]any{"star": 5, "movie": 9999}},
		{"draft movie", map[string]any{"star": 5, "movie": f.draft.ID}},
		{"missing movie", map[string]any{"star": 5}},
		{"malformed", "not an object"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/api/v1/rating/", tc.body, fromIP("10.0.0.1"))
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestMovieDetailReviewTree(t *testing.T) {
	f := newFixture(t)
	path := fmt.Sprintf("/api/v1/movie/%d/", f.m1.ID)

	rec := f.do(t, http.MethodGet, path, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[domain.MovieDetail](t, rec)
	assert.Equal(t, "M1", detail.Title)
	assert.Equal(t, []string{"Drama"}, detail.Genres)
	assert.Empty(t, detail.Reviews)

	review := func(parent *int64, text string) domain.Review {
		body := map[string]any{"email": "a@example.com", "name": "A", "text": text, "movie": f.m1.ID}
		if parent != nil {
			body["parent"] = *parent
		}
		rec := f.do(t, http.MethodPost, "/api/v1/review/", body, nil)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		return decode[domain.Review](t, rec)
	}
	r1 := review(nil, "R1")
	r2 := review(&r1.ID, "R2")
	review(&r2.ID, "R3")

	// создание отзыва сбрасывает кэш карточки
	rec = f.do(t, http.MethodGet, path, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	detail = decode[domain.MovieDetail](t, rec)
	require.Len(t, detail.Reviews, 1)
	assert.Equal(t, "R1", detail.Reviews[0].Text)
	require.Len(t, detail.Reviews[0].Children, 1)
	assert.Equal(t, "R2", detail.Reviews[0].Children[0].Text)
	require.Len(t, detail.Reviews[0].Children[0].Children, 1)
	assert.Equal(t, "R3", detail.Reviews[0].Children[0].Children[0].Text)
	assert.NotNil(t, detail.Reviews[0].Children[0].Children[0].Children)
	assert.NotContains(t, rec.Body.String(), `"parent"`)
	assert.NotContains(t, rec.Body.String(), `"draft"`)

	again := f.do(t, http.MethodGet, path, nil, nil)
	assert.Equal(t, rec.Body.String(), again.Body.String())
}

func TestMovieDetailNotFound(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/movie/%d/", f.draft.ID), nil, nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/v1/movie/9999/", nil, nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/v1/movie/abc/", nil, nil).Code)
}

func TestCreateReviewValidation(t *testing.T) {
	f := newFixture(t)
	other := domain.Review{Email: "b@example.com", Name: "B", Text: "on M2", MovieID: f.m2.ID}
	require.NoError(t, f.store.CreateReview(context.Background(), &other))

	cases := []struct {
		name string
		body map[string]any
	}{
		{"bad email", map[string]any{"email": "nope", "name": "A", "text": "t", "movie": f.m1.ID}},
		{"empty text", map[string]any{"email": "a@example.com", "name": "A", "text": "", "movie": f.m1.ID}},
		{"draft movie", map[string]any{"email": "a@example.com", "name": "A", "text": "t", "movie": f.draft.ID}},
		{"parent on other movie", map[string]any{"email": "a@example.com", "name": "A", "text": "t", "movie": f.m1.ID, "parent": other.ID}},
		{"missing parent", map[string]any{"email": "a@example.com", "name": "A", "text": "t", "movie": f.m1.ID, "parent": 9999}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/api/v1/review/", tc.body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func (f *fixture) bearer(t *testing.T, role string) http.Header {
	t.Helper()
	token, _, err := f.tokens.Generate("someone", role)
	require.NoError(t, err)
	return http.Header{"Authorization": []string{"Bearer " + token}}
}

func TestDeleteReviewRequiresSuperuser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	root := domain.Review{Email: "a@example.com", Name: "A", Text: "root", MovieID: f.m1.ID}
	require.NoError(t, f.store.CreateReview(ctx, &root))
	child := domain.Review{Email: "a@example.com", Name: "A", Text: "child", MovieID: f.m1.ID, ParentID: &root.ID}
	require.NoError(t, f.store.CreateReview(ctx, &child))
	path := fmt.Sprintf("/api/v1/review/%d/", root.ID)

	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodDelete, path, nil, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodDelete, path, nil,
		http.Header{"Authorization": []string{"Bearer garbage"}}).Code)
	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodDelete, path, nil, f.bearer(t, "viewer")).Code)

	rec := f.do(t, http.MethodDelete, path, nil, f.bearer(t, auth.RoleSuperuser))
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodDelete, path, nil, f.bearer(t, auth.RoleSuperuser)).Code)

	detail := decode[domain.MovieDetail](t, f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/movie/%d", f.m1.ID), nil, nil))
	require.Len(t, detail.Reviews, 1)
	assert.Equal(t, "child", detail.Reviews[0].Text, "children of a deleted review become roots")
}

func TestDeleteReviewLogsSubject(t *testing.T) {
	f := newFixture(t)
	review := domain.Review{Email: "a@example.com", Name: "A", Text: "spam", MovieID: f.m2.ID}
	require.NoError(t, f.store.CreateReview(context.Background(), &review))

	var logs bytes.Buffer
	h := NewHandler(f.store, nil, f.tokens, slog.New(slog.NewJSONHandler(&logs, nil)), nil, Options{})
	router := NewRouter(h, RouterConfig{})

	req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/v1/review/%d/", review.ID), nil)
	req.Header.Set("Authorization", f.bearer(t, auth.RoleSuperuser).Get("Authorization"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, logs.String(), `"msg":"Review deleted"`)
	assert.Contains(t, logs.String(), `"deletedBy":"someone"`)
}

func TestGuardPassesClaims(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.store, nil, f.tokens, slog.New(slog.NewTextHandler(io.Discard, nil)), nil, Options{})

	var got *auth.Claims
	next := func(w http.ResponseWriter, r *http.Request) {
		got = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/review/1/", nil)
	req.Header.Set("Authorization", f.bearer(t, auth.RoleSuperuser).Get("Authorization"))
	rec := httptest.NewRecorder()
	h.guard(OpDeleteReview, next)(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, "someone", got.Subject)

	got = nil
	req = httptest.NewRequest(http.MethodGet, "/api/v1/movie/", nil)
	h.guard(OpListMovies, next)(httptest.NewRecorder(), req)
	assert.Nil(t, got, "public operations carry no claims")
}

func TestIssueToken(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/auth/token/", map[string]string{"username": testAdmin, "password": "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = f.do(t, http.MethodPost, "/api/v1/auth/token/", map[string]string{"username": "root", "password": testPassword}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = f.do(t, http.MethodPost, "/api/v1/auth/token/", map[string]string{"username": testAdmin}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/auth/token/", map[string]string{"username": testAdmin, "password": testPassword}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[TokenResponse](t, rec)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.True(t, resp.ExpiresAt.After(time.Now()))

	claims, err := f.tokens.Validate(resp.AccessToken)
	require.NoError(t, err)
	assert.True(t, claims.IsSuperuser())
	assert.Equal(t, testAdmin, claims.Subject)
}

func TestIssueTokenDisabled(t *testing.T) {
	h := NewHandler(store.NewMockStore(), nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)), nil, Options{})
	router := NewRouter(h, RouterConfig{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token/", bytes.NewBufferString(`{"username":"admin","password":"x"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/review/1/", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPermissionTable(t *testing.T) {
	assert.Equal(t, CapabilitySuperuser, Required(OpDeleteReview))
	assert.Equal(t, CapabilitySuperuser, Required(Operation("movies.delete")), "unknown operations fail closed")
	for _, op := range []Operation{OpListMovies, OpGetMovie, OpListShots, OpFilterOptions, OpListActors, OpGetActor, OpCreateReview, OpCreateRating, OpIssueToken} {
		assert.Equal(t, CapabilityAnyone, Required(op), op)
	}
}

func TestRateLimit(t *testing.T) {
	h := NewHandler(store.NewMockStore(), nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)), nil, Options{})
	router := NewRouter(h, RouterConfig{RateLimitRequests: 2, RateLimitWindow: time.Minute})

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/actor/", nil)
		req.Header.Set("X-Forwarded-For", "10.1.1.1")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/actor/", nil)
	req.Header.Set("X-Forwarded-For", "10.1.1.2")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, "limit is per client address")
}

func TestRequestIDAndHealth(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/healthz", nil, http.Header{RequestIDHeader: []string{"req-42"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-42", rec.Header().Get(RequestIDHeader))

	rec = f.do(t, http.MethodGet, "/api/v1/filters/", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
	opts := decode[domain.FilterOptions](t, rec)
	assert.Equal(t, []int{2001, 2010}, opts.Years)
}
