package handler

import (
	"errors"
	"io"

	"social-hub/internal/model"
	"social-hub/internal/service"
	"social-hub/pkg/response"

	"github.com/gin-gonic/gin"
)

// PostHandler 帖子与互动
type PostHandler struct {
	service *service.PostService
}

func NewPostHandler(s *service.PostService) *PostHandler {
	return &PostHandler{service: s}
}

type contentReq struct {
	Content string `json:"content"`
}

// CreatePost 发布帖子
func (h *PostHandler) CreatePost(c *gin.Context) {
	var r contentReq
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	post, err := h.service.CreatePost(c.Request.Context(), currentUserID(c), r.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, post)
}

// GetPost 获取帖子
func (h *PostHandler) GetPost(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	post, err := h.service.GetPost(c.Request.Context(), id, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, post)
}

// DeletePost 删除帖子
func (h *PostHandler) DeletePost(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeletePost(c.Request.Context(), id, currentUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"success": true})
}

// LikePost 切换帖子点赞
func (h *PostHandler) LikePost(c *gin.Context) {
	h.toggle(c, model.TargetPost)
}

// LikeComment 切换评论点赞
func (h *PostHandler) LikeComment(c *gin.Context) {
	h.toggle(c, model.TargetComment)
}

// LikeReply 切换回复点赞
func (h *PostHandler) LikeReply(c *gin.Context) {
	h.toggle(c, model.TargetReply)
}

func (h *PostHandler) toggle(c *gin.Context, kind model.TargetKind) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	target := model.LikeTarget{
		Kind:      kind,
		PostID:    id,
		CommentID: c.Param("comment_id"),
		ReplyID:   c.Param("reply_id"),
	}
	result, err := h.service.ToggleLike(c.Request.Context(), target, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, result)
}

// AddComment 发表评论
func (h *PostHandler) AddComment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var r contentReq
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	comment, err := h.service.AddComment(c.Request.Context(), id, currentUserID(c), r.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, comment)
}

// AddReply 回复评论
func (h *PostHandler) AddReply(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var r contentReq
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	reply, err := h.service.AddReply(c.Request.Context(), id, c.Param("comment_id"), currentUserID(c), r.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, reply)
}

// SharePost 分享帖子，content 可省略
func (h *PostHandler) SharePost(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	type req struct {
		Content *string `json:"content"`
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, err.Error())
		return
	}
	result, err := h.service.SharePost(c.Request.Context(), id, currentUserID(c), r.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, result)
}
