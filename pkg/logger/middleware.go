package logger

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLogger 请求日志中间件，按状态码选择日志级别
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("ip", c.ClientIP()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("user_agent", c.Request.UserAgent()),
		}
		errs := c.Errors.ByType(gin.ErrorTypePrivate).String()
		if errs != "" {
			fields = append(fields, zap.String("error", errs))
		}

		// 业务错误统一以200返回，内部错误通过 c.Error 记录
		switch {
		case status >= http.StatusInternalServerError, errs != "":
			log.Error("HTTP请求错误", fields...)
		case status >= http.StatusBadRequest:
			log.Warn("HTTP请求警告", fields...)
		default:
			log.Info("HTTP请求", fields...)
		}
	}
}

// RecoveryMiddleware panic恢复中间件
func RecoveryMiddleware(log *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Error("HTTP请求发生panic",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("ip", c.ClientIP()),
			zap.String("error", fmt.Sprint(recovered)),
			zap.Stack("stack"),
		)
		c.AbortWithStatus(http.StatusInternalServerError)
	})
}
