// movie-service/internal/api/handler.go
package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"movie-service/internal/cache"
	"movie-service/internal/filter"
	"movie-service/internal/pagination"
	"movie-service/internal/store"
	"movie-service/pkg/auth"
)

// maxBodyBytes ограничение тела запроса.
const maxBodyBytes = 1 << 20

var (
	errBadPayload = errors.New("invalid request payload")
	// errInvalidReference тело запроса ссылается на несуществующий или неопубликованный фильм.
	errInvalidReference = errors.New("invalid reference")
)

// Options параметры HTTP-обработчиков.
type Options struct {
	PageSize          int
	CacheTTL          time.Duration
	AdminUsername     string
	AdminPasswordHash string
}

// Handler содержит зависимости для HTTP обработчиков.
type Handler struct {
	store     store.Store
	cache     cache.Cache
	tokens    auth.TokenManager // nil: выдача токенов отключена
	logger    *slog.Logger
	validator *validator.Validate
	opts      Options
}

// NewHandler создает новый экземпляр Handler. cache и tokens могут быть nil.
func NewHandler(s store.Store, c cache.Cache, tm auth.TokenManager, l *slog.Logger, v *validator.Validate, opts Options) *Handler {
	if c == nil {
		c = cache.NewMemoryCache()
	}
	if l == nil {
		l = slog.Default()
	}
	if v == nil {
		v = validator.New(validator.WithRequiredStructEnabled())
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 10
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Minute
	}
	return &Handler{store: s, cache: c, tokens: tm, logger: l, validator: v, opts: opts}
}

// --- Вспомогательные функции ---

func (h *Handler) respondJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			h.logger.ErrorContext(r.Context(), "Failed to encode JSON response", slog.String("error", err.Error()), slog.String("path", r.URL.Path))
		}
	}
}

func (h *Handler) respondRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.respondJSON(w, r, status, map[string]string{"error": message})
}

// statusFor единая таблица соответствия ошибок HTTP-статусам.
func statusFor(err error) int {
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, errInvalidReference),
		errors.Is(err, errBadPayload),
		errors.Is(err, store.ErrStarNotFound),
		errors.Is(err, store.ErrParentReviewMismatch),
		errors.Is(err, filter.ErrInvalidYear),
		errors.Is(err, pagination.ErrInvalidPage),
		errors.As(err, &verrs):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrMovieNotFound),
		errors.Is(err, store.ErrActorNotFound),
		errors.Is(err, store.ErrReviewNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondStoreError пишет ответ по ошибке; внутренние детали 5xx клиенту не отдаются.
func (h *Handler) respondStoreError(w http.ResponseWriter, r *http.Request, err error, action string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "Failed to "+action, slog.String("error", err.Error()))
		h.respondError(w, r, status, "Failed to "+action)
		return
	}
	h.logger.InfoContext(r.Context(), "Request rejected", slog.String("action", action), slog.Int("status", status), slog.String("error", err.Error()))
	h.respondError(w, r, status, err.Error())
}

// decodeJSON читает и валидирует тело запроса.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer body.Close()
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		return fmt.Errorf("%w: %s", errBadPayload, err.Error())
	}
	if err := h.validator.StructCtx(r.Context(), dst); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// pathID числовой параметр маршрута; маршруты ограничивают его цифрами.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// requestURL абсолютный URL запроса для ссылок пагинации.
func requestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		scheme = proto
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}
