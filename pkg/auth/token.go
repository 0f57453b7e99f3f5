// movie-service/pkg/auth/token.go
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RoleSuperuser роль, открывающая удаление отзывов.
const RoleSuperuser = "superuser"

const issuer = "movie-service"

// ErrInvalidToken токен не прошёл проверку подписи, срока или формата.
var ErrInvalidToken = errors.New("invalid token")

// TokenManager предоставляет методы для генерации и валидации JWT токенов.
type TokenManager interface {
	Generate(subject, role string) (string, time.Time, error)
	Validate(tokenString string) (*Claims, error)
}

// jwtManager реализует TokenManager.
type jwtManager struct {
	secretKey     []byte        // Секретный ключ для подписи токенов
	tokenDuration time.Duration // Длительность жизни токена
	now           func() time.Time
}

// Claims определяет структуру данных, хранимых в JWT. Subject содержит имя пользователя.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// IsSuperuser роль токена даёт права суперпользователя.
func (c *Claims) IsSuperuser() bool {
	return c != nil && c.Role == RoleSuperuser
}

// NewTokenManager создает новый экземпляр jwtManager. Для HS256 ключ не короче 32 байт.
func NewTokenManager(secretKey string, tokenDuration time.Duration) (TokenManager, error) {
	if len(secretKey) < 32 {
		return nil, errors.New("JWT secret key must be at least 32 bytes")
	}
	if tokenDuration <= 0 {
		return nil, errors.New("token duration must be positive")
	}
	return &jwtManager{
		secretKey:     []byte(secretKey),
		tokenDuration: tokenDuration,
		now:           time.Now,
	}, nil
}

// Generate создает новый JWT токен и возвращает момент его истечения.
func (m *jwtManager) Generate(subject, role string) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.tokenDuration)
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, expiresAt, nil
}

// Validate проверяет JWT токен и возвращает извлеченные из него Claims.
func (m *jwtManager) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return m.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
