package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Stanzin7/USVisaBridge-sub000/internal/models"
)

// AdminOnly пропускает только пользователей с ролью admin.
// Ставится после AuthMiddleware.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := c.Get(ContextRoleKey)
		if !ok || role != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "нет прав"})
			return
		}
		c.Next()
	}
}
