package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Stanzin7/USVisaBridge-sub000/internal/service"
)

// Context ключи для gin.Context.
const (
	ContextUserIDKey = "userID"
	ContextRoleKey   = "role"
)

// ProfileProvisioner заводит контактный профиль получателя. Учётные записи
// живут во внешнем identity provider'е, поэтому строка в profiles появляется
// при первом аутентифицированном запросе, а не при регистрации.
type ProfileProvisioner interface {
	EnsureExists(ctx context.Context, id uuid.UUID, email, role string) error
}

// AuthMiddleware проверяет JWT access токен и гарантирует, что у пользователя
// есть строка профиля до того, как запрос дойдёт до хэндлера: на неё ссылаются
// внешние ключи заявок, подписок и оповещений.
func AuthMiddleware(tokens *service.TokenManager, profiles ProfileProvisioner) gin.HandlerFunc {
	// Кеш на процесс: upsert профиля выполняется один раз на userID.
	// Смена email в identity provider'е подхватится после рестарта.
	var provisioned sync.Map

	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "требуется авторизация"})
			return
		}

		raw := strings.TrimPrefix(auth, "Bearer ")
		claims, err := tokens.ParseAccess(raw)
		if err != nil || claims.UserID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "токен невалиден"})
			return
		}

		if _, seen := provisioned.Load(claims.UserID); !seen {
			if err := profiles.EnsureExists(c.Request.Context(), claims.UserID, claims.Email, claims.Role); err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "не удалось подготовить профиль"})
				return
			}
			provisioned.Store(claims.UserID, struct{}{})
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextRoleKey, claims.Role)
		c.Next()
	}
}
