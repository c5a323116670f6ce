package handler

import (
	"errors"
	"io"

	"social-hub/internal/service"
	"social-hub/pkg/jwt"
	"social-hub/pkg/response"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	service *service.UserService
}

func NewUserHandler(s *service.UserService) *UserHandler {
	return &UserHandler{service: s}
}

// Provision 身份提供方注册同步：按令牌主体创建或更新用户资料
func (h *UserHandler) Provision(c *gin.Context) {
	type req struct {
		DisplayName string `json:"displayName"`
		FirstName   string `json:"firstName"`
		LastName    string `json:"lastName"`
		Email       string `json:"email"`
		PhotoURL    string `json:"photoURL"`
	}
	var r req
	// 请求体可以为空，此时只登记身份
	if err := c.ShouldBindJSON(&r); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.service.Provision(c.Request.Context(), service.ProvisionInput{
		ExternalID:  jwt.GetSubject(c),
		DisplayName: r.DisplayName,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Email:       r.Email,
		PhotoURL:    r.PhotoURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, response.FilterUserInfo(user))
}

// Me 当前用户资料
func (h *UserHandler) Me(c *gin.Context) {
	response.Success(c, response.FilterUserInfo(currentUser(c)))
}

// DeleteMe 注销当前用户（软删除）
func (h *UserHandler) DeleteMe(c *gin.Context) {
	if err := h.service.SoftDelete(c.Request.Context(), currentUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMessage(c, "用户已注销", nil)
}
