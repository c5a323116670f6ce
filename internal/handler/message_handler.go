package handler

import (
	"strconv"

	"social-hub/internal/service"
	"social-hub/pkg/response"

	"github.com/gin-gonic/gin"
)

// MessageHandler 消息处理器
type MessageHandler struct {
	service *service.MessageService
}

// NewMessageHandler 创建MessageHandler实例
func NewMessageHandler(s *service.MessageService) *MessageHandler {
	return &MessageHandler{service: s}
}

// SendMessage 发送消息
func (h *MessageHandler) SendMessage(c *gin.Context) {
	convID, ok := paramID(c, "id")
	if !ok {
		return
	}

	type req struct {
		Content string `json:"content"`
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	message, err := h.service.SendMessage(c.Request.Context(), convID, currentUserID(c), r.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMessage(c, "消息发送成功", response.FilterMessageInfo(message))
}

// ListMessages 获取会话消息历史
func (h *MessageHandler) ListMessages(c *gin.Context) {
	convID, ok := paramID(c, "id")
	if !ok {
		return
	}

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if err != nil {
		pageSize = 20
	}

	messages, err := h.service.ListMessages(c.Request.Context(), convID, currentUserID(c), page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{
		"messages":  response.FilterMessages(messages),
		"page":      page,
		"page_size": pageSize,
	})
}

// MarkRead 标记会话已读
func (h *MessageHandler) MarkRead(c *gin.Context) {
	convID, ok := paramID(c, "id")
	if !ok {
		return
	}
	n, err := h.service.MarkConversationRead(c.Request.Context(), convID, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"updated": n})
}
