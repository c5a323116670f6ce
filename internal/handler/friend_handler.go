package handler

import (
	"social-hub/internal/service"
	"social-hub/pkg/response"

	"github.com/gin-gonic/gin"
)

// FriendHandler 好友请求与好友列表
type FriendHandler struct {
	friends *service.FriendService
	feed    *service.FeedService
}

func NewFriendHandler(friends *service.FriendService, feed *service.FeedService) *FriendHandler {
	return &FriendHandler{friends: friends, feed: feed}
}

// SendRequest 发起好友请求
func (h *FriendHandler) SendRequest(c *gin.Context) {
	type req struct {
		ToUserID uint `json:"to_user_id" binding:"required"`
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	fr, err := h.friends.SendFriendRequest(c.Request.Context(), currentUserID(c), r.ToUserID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMessage(c, "好友请求已发送", response.FilterFriendRequest(fr))
}

// Incoming 收到的待处理请求
func (h *FriendHandler) Incoming(c *gin.Context) {
	reqs, err := h.friends.ListIncomingRequests(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, response.FilterFriendRequests(reqs))
}

// Outgoing 发出的待处理请求
func (h *FriendHandler) Outgoing(c *gin.Context) {
	reqs, err := h.friends.ListOutgoingRequests(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, response.FilterFriendRequests(reqs))
}

// Accept 接受好友请求
func (h *FriendHandler) Accept(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	result, err := h.friends.AcceptFriendRequest(c.Request.Context(), id, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, result)
}

// Decline 拒绝好友请求
func (h *FriendHandler) Decline(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	result, err := h.friends.DeclineFriendRequest(c.Request.Context(), id, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, result)
}

// ListFriends 好友列表及会话摘要
func (h *FriendHandler) ListFriends(c *gin.Context) {
	summaries, err := h.feed.ListFriendsWithConversationSummary(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, summaries)
}
