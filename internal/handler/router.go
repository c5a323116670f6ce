package handler

import (
	"context"
	"net/http"
	"time"

	"social-hub/internal/service"
	"social-hub/pkg/jwt"
	"social-hub/pkg/logger"
	"social-hub/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthChecker 依赖健康检查
type HealthChecker func(ctx context.Context) error

// Deps 路由依赖
type Deps struct {
	Log      *zap.Logger
	JWT      *jwt.JWTService
	Users    *service.UserService
	Friends  *service.FriendService
	Feed     *service.FeedService
	Posts    *service.PostService
	Messages *service.MessageService
	// WebSocket 为 nil 时不注册 /ws
	WebSocket gin.HandlerFunc
	// Health 名称 -> 检查函数，例如 db、redis
	Health map[string]HealthChecker
}

// NewRouter 创建Gin路由
func NewRouter(d Deps) *gin.Engine {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}

	router := gin.New()
	router.Use(logger.RequestLogger(log))
	router.Use(logger.RecoveryMiddleware(log))

	router.GET("/health", healthHandler(d.Health))
	if d.WebSocket != nil {
		router.GET("/ws", d.WebSocket)
	}

	userHandler := NewUserHandler(d.Users)
	friendHandler := NewFriendHandler(d.Friends, d.Feed)
	postHandler := NewPostHandler(d.Posts)
	messageHandler := NewMessageHandler(d.Messages)

	v1 := router.Group("/api/v1")
	v1.Use(d.JWT.AuthMiddleware(log))
	{
		// 注册同步只需要有效令牌，此时用户可能还不存在
		v1.PUT("/users/me", userHandler.Provision)

		authed := v1.Group("")
		authed.Use(IdentityMiddleware(d.Users))

		users := authed.Group("/users")
		{
			users.GET("/me", userHandler.Me)
			users.DELETE("/me", userHandler.DeleteMe)
		}

		requests := authed.Group("/friend-requests")
		{
			requests.POST("", friendHandler.SendRequest)
			requests.GET("/incoming", friendHandler.Incoming)
			requests.GET("/outgoing", friendHandler.Outgoing)
			requests.POST("/:id/accept", friendHandler.Accept)
			requests.POST("/:id/decline", friendHandler.Decline)
		}

		authed.GET("/friends", friendHandler.ListFriends)

		conversations := authed.Group("/conversations")
		{
			conversations.GET("/:id/messages", messageHandler.ListMessages)
			conversations.POST("/:id/messages", messageHandler.SendMessage)
			conversations.PUT("/:id/read", messageHandler.MarkRead)
		}

		posts := authed.Group("/posts")
		{
			posts.POST("", postHandler.CreatePost)
			posts.GET("/:id", postHandler.GetPost)
			posts.DELETE("/:id", postHandler.DeletePost)
			posts.POST("/:id/like", postHandler.LikePost)
			posts.POST("/:id/share", postHandler.SharePost)
			posts.POST("/:id/comments", postHandler.AddComment)
			posts.POST("/:id/comments/:comment_id/like", postHandler.LikeComment)
			posts.POST("/:id/comments/:comment_id/replies", postHandler.AddReply)
			posts.POST("/:id/comments/:comment_id/replies/:reply_id/like", postHandler.LikeReply)
		}
	}

	return router
}

// healthHandler 健康检查，任一依赖异常时返回 503
func healthHandler(checks map[string]HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		status := "ok"
		deps := gin.H{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = "degraded"
				deps[name] = err.Error()
				continue
			}
			deps[name] = "ok"
		}

		if status != "ok" {
			c.JSON(http.StatusOK, response.Response{
				Code:      response.CodeServiceUnavailable,
				Message:   status,
				Data:      deps,
				Retryable: true,
			})
			return
		}
		response.Success(c, gin.H{
			"status": status,
			"deps":   deps,
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}
