package api

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"

	"movie-service/pkg/auth"
)

// TokenRequest учётные данные суперпользователя.
type TokenRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Password string `json:"password" validate:"required,max=128"`
}

type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// IssueToken выдаёт bearer-токен суперпользователя по логину и паролю из конфигурации.
func (h *Handler) IssueToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.tokens == nil || h.opts.AdminPasswordHash == "" {
		h.respondError(w, r, http.StatusNotFound, "Authentication is not configured")
		return
	}

	var req TokenRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.respondStoreError(w, r, err, "decode credentials")
		return
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.opts.AdminUsername)) == 1
	passOK := auth.CheckPasswordHash(req.Password, h.opts.AdminPasswordHash)
	if !userOK || !passOK {
		h.logger.WarnContext(ctx, "Invalid credentials", slog.String("username", req.Username))
		h.respondError(w, r, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	token, expiresAt, err := h.tokens.Generate(req.Username, auth.RoleSuperuser)
	if err != nil {
		h.respondStoreError(w, r, err, "issue token")
		return
	}
	h.logger.InfoContext(ctx, "Superuser token issued", slog.String("username", req.Username))
	h.respondJSON(w, r, http.StatusOK, TokenResponse{AccessToken: token, TokenType: "Bearer", ExpiresAt: expiresAt.UTC()})
}
