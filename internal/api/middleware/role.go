package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/academy_server/internal/model"
	"github.com/qs3c/academy_server/internal/pkg/response"
)

// RequireAdmin 仅管理员（教练）可访问，需在 Auth 之后使用
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetUserID(c); !ok {
			response.AuthError(c, "")
			c.Abort()
			return
		}

		if GetRole(c) != model.RoleAdmin {
			response.PermissionError(c, "需要管理员权限")
			c.Abort()
			return
		}

		c.Next()
	}
}
