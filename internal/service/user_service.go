package service

import (
	"context"
	"fmt"
	"strings"

	"social-hub/internal/model"
	"social-hub/internal/repository"

	"go.uber.org/zap"
)

// UserService 身份解析与用户资料
type UserService struct {
	settings
	repo *repository.UserRepository
}

func NewUserService(repo *repository.UserRepository, opts ...Option) *UserService {
	return &UserService{settings: newSettings("user_service", opts), repo: repo}
}

// ProvisionInput 身份提供方同步过来的用户资料
type ProvisionInput struct {
	ExternalID  string
	DisplayName string
	FirstName   string
	LastName    string
	Email       string
	PhotoURL    string
}

// Resolve 外部身份ID -> 用户，纯查询
func (s *UserService) Resolve(ctx context.Context, externalID string) (*model.User, error) {
	if strings.TrimSpace(externalID) == "" {
		return nil, fmt.Errorf("resolve user: %w", ErrNotFound)
	}
	u, err := s.repo.GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, notFound("resolve user", err)
	}
	return u, nil
}

// GetByID 按ID获取用户
func (s *UserService) GetByID(ctx context.Context, id uint) (*model.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound("get user", err)
	}
	return u, nil
}

// GetByIDs 批量获取用户，按ID索引
func (s *UserService) GetByIDs(ctx context.Context, ids []uint) (map[uint]*model.User, error) {
	users, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*model.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	return byID, nil
}

// Provision 注册同步钩子：按外部身份ID幂等地创建或更新用户
func (s *UserService) Provision(ctx context.Context, in ProvisionInput) (*model.User, error) {
	externalID := strings.TrimSpace(in.ExternalID)
	if externalID == "" {
		return nil, fmt.Errorf("external id is required: %w", ErrInvalidArgument)
	}

	displayName := strings.TrimSpace(in.DisplayName)
	if displayName == "" {
		displayName = strings.TrimSpace(strings.TrimSpace(in.FirstName) + " " + strings.TrimSpace(in.LastName))
	}
	if displayName == "" {
		displayName = externalID
	}

	u, err := s.repo.Upsert(ctx, &model.User{
		ExternalID:  externalID,
		DisplayName: displayName,
		FirstName:   strings.TrimSpace(in.FirstName),
		LastName:    strings.TrimSpace(in.LastName),
		Email:       strings.TrimSpace(in.Email),
		PhotoURL:    strings.TrimSpace(in.PhotoURL),
	})
	if err != nil {
		// 已软删除的身份不会被恢复
		return nil, notFound("provision user", err)
	}

	s.log.Info("用户资料同步", zap.Uint("user_id", u.ID), zap.String("external_id", externalID))
	return u, nil
}

// SoftDelete 软删除用户，历史帖子与评论中的ID保持有效
func (s *UserService) SoftDelete(ctx context.Context, userID uint) error {
	if err := s.repo.SoftDelete(ctx, userID); err != nil {
		return notFound("delete user", err)
	}
	s.log.Info("用户已软删除", zap.Uint("user_id", userID))
	return nil
}
