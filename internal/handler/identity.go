package handler

import (
	"social-hub/internal/model"
	"social-hub/internal/service"
	"social-hub/pkg/jwt"
	"social-hub/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	// ContextUserIDKey 内部用户ID在gin.Context中的键名
	ContextUserIDKey = "user_id"
	// ContextUserKey 当前用户在gin.Context中的键名
	ContextUserKey = "user"
)

// IdentityMiddleware 把令牌主体解析为内部用户，需挂在 JWT 中间件之后
// 用户不存在（含已注销）时返回 404，不继续处理
func IdentityMiddleware(users *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject := jwt.GetSubject(c)
		if subject == "" {
			response.Unauthorized(c, "未认证")
			c.Abort()
			return
		}

		user, err := users.Resolve(c.Request.Context(), subject)
		if err != nil {
			respondError(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserIDKey, user.ID)
		c.Set(ContextUserKey, user)
		c.Next()
	}
}

// currentUserID 当前请求的内部用户ID
func currentUserID(c *gin.Context) uint {
	return c.GetUint(ContextUserIDKey)
}

// currentUser 当前请求的用户
func currentUser(c *gin.Context) *model.User {
	if v, ok := c.Get(ContextUserKey); ok {
		if u, ok := v.(*model.User); ok {
			return u
		}
	}
	return nil
}
