package response

import (
	"net/http"
	"time"

	"social-hub/internal/model"

	"github.com/gin-gonic/gin"
)

// 业务错误码，与HTTP状态码语义一致
const (
	CodeSuccess            = 0
	CodeBadRequest         = 400
	CodeUnauthorized       = 401
	CodeForbidden          = 403
	CodeNotFound           = 404
	CodeConflict           = 409
	CodeInternalError      = 500
	CodeServiceUnavailable = 503
)

// Response 统一响应结构
type Response struct {
	Code      int         `json:"code"`                // 状态码：0表示成功，其他表示错误
	Message   string      `json:"message"`             // 响应消息
	Data      interface{} `json:"data,omitempty"`      // 响应数据
	Retryable bool        `json:"retryable,omitempty"` // 临时错误，可原样重试
	Error     string      `json:"error,omitempty"`     // 错误详情（仅在开发环境显示）
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// SuccessWithMessage 带自定义消息的成功响应
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: message,
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
	})
}

// ErrorWithDetails 带错误详情的错误响应
func ErrorWithDetails(c *gin.Context, code int, message string, err error) {
	response := Response{
		Code:      code,
		Message:   message,
		Retryable: code == CodeServiceUnavailable,
	}

	// 在开发环境下显示错误详情
	if gin.Mode() == gin.DebugMode && err != nil {
		response.Error = err.Error()
	}

	c.JSON(http.StatusOK, response)
}

// BadRequest 400错误
func BadRequest(c *gin.Context, message string) {
	Error(c, CodeBadRequest, message)
}

// Unauthorized 401错误
func Unauthorized(c *gin.Context, message string) {
	Error(c, CodeUnauthorized, message)
}

// Forbidden 403错误
func Forbidden(c *gin.Context, message string) {
	Error(c, CodeForbidden, message)
}

// NotFound 404错误
func NotFound(c *gin.Context, message string) {
	Error(c, CodeNotFound, message)
}

// InternalError 500错误
func InternalError(c *gin.Context, message string) {
	Error(c, CodeInternalError, message)
}

const timeLayout = time.RFC3339

// UserInfo 用户信息
type UserInfo struct {
	ID          uint   `json:"id"`
	DisplayName string `json:"displayName"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	PhotoURL    string `json:"photoURL"`
	CreatedAt   string `json:"createdAt"`
}

// FilterUserInfo 用户信息投影，不暴露外部身份ID
func FilterUserInfo(user *model.User) *UserInfo {
	if user == nil {
		return nil
	}

	return &UserInfo{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Email:       user.Email,
		PhotoURL:    user.PhotoURL,
		CreatedAt:   user.CreatedAt.UTC().Format(timeLayout),
	}
}

// FriendRequestInfo 好友请求信息
type FriendRequestInfo struct {
	ID          uint    `json:"id"`
	FromUserID  uint    `json:"fromUserId"`
	ToUserID    uint    `json:"toUserId"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"createdAt"`
	RespondedAt *string `json:"respondedAt"`
}

// FilterFriendRequest 好友请求投影
func FilterFriendRequest(req *model.FriendRequest) *FriendRequestInfo {
	if req == nil {
		return nil
	}

	info := &FriendRequestInfo{
		ID:         req.ID,
		FromUserID: req.FromUserID,
		ToUserID:   req.ToUserID,
		Status:     req.Status,
		CreatedAt:  req.CreatedAt.UTC().Format(timeLayout),
	}
	if req.RespondedAt != nil {
		at := req.RespondedAt.UTC().Format(timeLayout)
		info.RespondedAt = &at
	}
	return info
}

// FilterFriendRequests 批量投影
func FilterFriendRequests(reqs []*model.FriendRequest) []*FriendRequestInfo {
	out := make([]*FriendRequestInfo, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, FilterFriendRequest(r))
	}
	return out
}

// MessageResponse 消息响应
type MessageResponse struct {
	ID             uint   `json:"id"`
	ConversationID uint   `json:"conversationId"`
	SenderID       uint   `json:"senderId"`
	Content        string `json:"content"`
	Read           bool   `json:"read"`
	CreatedAt      string `json:"createdAt"`
}

// FilterMessageInfo 过滤消息信息
func FilterMessageInfo(message *model.Message) *MessageResponse {
	if message == nil {
		return nil
	}

	return &MessageResponse{
		ID:             message.ID,
		ConversationID: message.ConversationID,
		SenderID:       message.SenderID,
		Content:        message.Content,
		Read:           message.IsRead,
		CreatedAt:      message.CreatedAt.UTC().Format(timeLayout),
	}
}

// FilterMessages 批量投影
func FilterMessages(messages []*model.Message) []*MessageResponse {
	out := make([]*MessageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, FilterMessageInfo(m))
	}
	return out
}
