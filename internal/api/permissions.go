package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"movie-service/pkg/auth"
)

// Operation операция HTTP API; используется как ключ таблицы прав и как метка метрик.
type Operation string

const (
	OpListMovies    Operation = "movies.list"
	OpGetMovie      Operation = "movies.get"
	OpListShots     Operation = "movies.shots"
	OpFilterOptions Operation = "movies.filters"
	OpListActors    Operation = "actors.list"
	OpGetActor      Operation = "actors.get"
	OpCreateReview  Operation = "reviews.create"
	OpDeleteReview  Operation = "reviews.delete"
	OpCreateRating  Operation = "ratings.upsert"
	OpIssueToken    Operation = "auth.token"
)

// Capability требование к вызывающему.
type Capability int

const (
	CapabilityAnyone Capability = iota
	CapabilitySuperuser
)

// permissions явная таблица прав. Операция без записи требует суперпользователя.
var permissions = map[Operation]Capability{
	OpListMovies:    CapabilityAnyone,
	OpGetMovie:      CapabilityAnyone,
	OpListShots:     CapabilityAnyone,
	OpFilterOptions: CapabilityAnyone,
	OpListActors:    CapabilityAnyone,
	OpGetActor:      CapabilityAnyone,
	OpCreateReview:  CapabilityAnyone,
	OpCreateRating:  CapabilityAnyone,
	OpIssueToken:    CapabilityAnyone,
	OpDeleteReview:  CapabilitySuperuser,
}

// Required возвращает требование для операции.
func Required(op Operation) Capability {
	if c, ok := permissions[op]; ok {
		return c
	}
	return CapabilitySuperuser
}

type claimsKey struct{}

// ClaimsFromContext claims проверенного токена, если он был предъявлен.
func ClaimsFromContext(ctx context.Context) *auth.Claims {
	c, _ := ctx.Value(claimsKey{}).(*auth.Claims)
	return c
}

// guard проверяет право на операцию до вызова обработчика.
func (h *Handler) guard(op Operation, next http.HandlerFunc) http.HandlerFunc {
	required := Required(op)
	return func(w http.ResponseWriter, r *http.Request) {
		if required == CapabilityAnyone {
			next(w, r)
			return
		}

		ctx := r.Context()
		if h.tokens == nil {
			h.respondError(w, r, http.StatusUnauthorized, "Authentication is not configured")
			return
		}
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			h.logger.WarnContext(ctx, "Authorization header missing", slog.String("operation", string(op)))
			h.respondError(w, r, http.StatusUnauthorized, "Authorization header required")
			return
		}
		// Ожидаем токен в формате "Bearer <token>"
		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
			h.respondError(w, r, http.StatusUnauthorized, "Invalid Authorization header format")
			return
		}
		claims, err := h.tokens.Validate(token)
		if err != nil {
			h.logger.WarnContext(ctx, "Invalid or expired token", slog.String("error", err.Error()))
			h.respondError(w, r, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		if !claims.IsSuperuser() {
			h.logger.WarnContext(ctx, "Operation forbidden", slog.String("operation", string(op)), slog.String("subject", claims.Subject))
			h.respondError(w, r, http.StatusForbidden, "Superuser role required")
			return
		}
		next(w, r.WithContext(context.WithValue(ctx, claimsKey{}, claims)))
	}
}
