package handler

import (
	"errors"
	"strconv"

	"social-hub/internal/service"
	"social-hub/pkg/response"

	"github.com/gin-gonic/gin"
)

// respondError 把业务错误映射为响应码；未识别的错误记入请求日志并返回500
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		response.ErrorWithDetails(c, response.CodeNotFound, "资源不存在", err)
	case errors.Is(err, service.ErrForbidden):
		response.ErrorWithDetails(c, response.CodeForbidden, "无权操作", err)
	case errors.Is(err, service.ErrInvalidState):
		response.ErrorWithDetails(c, response.CodeConflict, "当前状态不允许该操作", err)
	case errors.Is(err, service.ErrDuplicateRequest):
		response.ErrorWithDetails(c, response.CodeConflict, "重复的好友请求", err)
	case errors.Is(err, service.ErrSelfRequest):
		response.ErrorWithDetails(c, response.CodeBadRequest, "不能向自己发送好友请求", err)
	case errors.Is(err, service.ErrEmptyContent):
		response.ErrorWithDetails(c, response.CodeBadRequest, "内容不能为空", err)
	case errors.Is(err, service.ErrInvalidArgument):
		response.ErrorWithDetails(c, response.CodeBadRequest, "参数错误", err)
	case service.IsTransient(err):
		response.ErrorWithDetails(c, response.CodeServiceUnavailable, "并发冲突，请重试", err)
	default:
		_ = c.Error(err)
		response.ErrorWithDetails(c, response.CodeInternalError, "服务器内部错误", err)
	}
}

// paramID 解析路径中的数字ID
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.BadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}
