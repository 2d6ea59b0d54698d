package service

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessClaims — проверенные клеймы access токена внешнего identity
// provider'а: идентификатор, роль и контактный email получателя.
type AccessClaims struct {
	UserID uuid.UUID
	Role   string
	Email  string
}

// TokenManager проверяет access токены внешнего identity provider'а.
// Ядро само токены не выпускает: сюда приходит только opaque идентификатор
// и проверенные клеймы.
type TokenManager struct {
	accessSecret []byte
}

// NewTokenManager создаёт менеджер токенов.
func NewTokenManager(accessSecret string) *TokenManager {
	return &TokenManager{accessSecret: []byte(accessSecret)}
}

// ParseAccess извлекает клеймы из access токена. Email и роль опциональны:
// отсутствующий клейм приходит пустой строкой.
func (m *TokenManager) ParseAccess(token string) (AccessClaims, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return m.accessSecret, nil
	})
	if err != nil || !parsed.Valid {
		return AccessClaims{}, err
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return AccessClaims{}, jwt.ErrTokenInvalidClaims
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return AccessClaims{}, jwt.ErrTokenInvalidClaims
	}

	userID, err := uuid.Parse(sub)
	if err != nil {
		return AccessClaims{}, err
	}

	role, _ := claims["role"].(string)
	email, _ := claims["email"].(string)

	return AccessClaims{UserID: userID, Role: role, Email: email}, nil
}
