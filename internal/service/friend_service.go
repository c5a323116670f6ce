package service

import (
	"context"
	"errors"
	"fmt"

	"social-hub/internal/model"
	"social-hub/internal/repository"

	"go.uber.org/zap"
)

// FriendService 好友请求与好友关系
type FriendService struct {
	settings
	friends    *repository.FriendRepository
	users      *repository.UserRepository
	maxRetries int
}

func NewFriendService(friends *repository.FriendRepository, users *repository.UserRepository, opts ...Option) *FriendService {
	return &FriendService{
		settings:   newSettings("friend_service", opts),
		friends:    friends,
		users:      users,
		maxRetries: DefaultMaxRetries,
	}
}

// RespondResult 接受或拒绝好友请求的结果
type RespondResult struct {
	Success        bool  `json:"success"`
	ConversationID *uint `json:"conversationId,omitempty"`
}

// SendFriendRequest 发起好友请求
func (s *FriendService) SendFriendRequest(ctx context.Context, from, to uint) (*model.FriendRequest, error) {
	if from == to {
		return nil, ErrSelfRequest
	}
	if _, err := s.users.GetByID(ctx, to); err != nil {
		return nil, notFound("send friend request", err)
	}

	already, err := s.friends.AreFriends(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if already {
		return nil, fmt.Errorf("already friends: %w", ErrDuplicateRequest)
	}

	req := &model.FriendRequest{FromUserID: from, ToUserID: to}
	if err := s.friends.CreateRequest(ctx, req); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("pending request exists: %w", ErrDuplicateRequest)
		}
		return nil, err
	}

	s.log.Info("好友请求已发送",
		zap.Uint("request_id", req.ID),
		zap.Uint("from", from),
		zap.Uint("to", to),
	)
	return req, nil
}

// loadForResponse 接受/拒绝共用的前置检查
func (s *FriendService) loadForResponse(ctx context.Context, requestID, actor uint) (*model.FriendRequest, error) {
	req, err := s.friends.GetRequest(ctx, requestID)
	if err != nil {
		return nil, notFound("friend request", err)
	}
	if req.ToUserID != actor {
		return nil, fmt.Errorf("friend request %d: %w", requestID, ErrForbidden)
	}
	if !req.IsPending() {
		return nil, fmt.Errorf("friend request %d is %s: %w", requestID, req.Status, ErrInvalidState)
	}
	return req, nil
}

// AcceptFriendRequest 接受好友请求
// 状态变更、双向好友边与会话查找或创建在同一事务中完成；并发接受时只有一个成功
func (s *FriendService) AcceptFriendRequest(ctx context.Context, requestID, actor uint) (*RespondResult, error) {
	req, err := s.loadForResponse(ctx, requestID, actor)
	if err != nil {
		return nil, err
	}

	// 互相接受对方请求时数据库可能判定死锁并中止其中一个事务，整体重放即可
	var conv *model.Conversation
	err = withOptimisticRetry(ctx, s.log, "accept friend request", s.maxRetries, func() error {
		var txErr error
		conv, txErr = s.friends.AcceptRequest(ctx, req, s.timestamp())
		return txErr
	})
	if err != nil {
		if errors.Is(err, repository.ErrStateChanged) {
			return nil, fmt.Errorf("friend request %d already resolved: %w", requestID, ErrInvalidState)
		}
		s.log.Error("接受好友请求失败", zap.Uint("request_id", requestID), zap.Error(err))
		return nil, err
	}

	s.log.Info("好友请求已接受",
		zap.Uint("request_id", requestID),
		zap.Uint("from", req.FromUserID),
		zap.Uint("to", req.ToUserID),
		zap.Uint("conversation_id", conv.ID),
	)
	return &RespondResult{Success: true, ConversationID: &conv.ID}, nil
}

// DeclineFriendRequest 拒绝好友请求，除请求状态外无其他副作用
func (s *FriendService) DeclineFriendRequest(ctx context.Context, requestID, actor uint) (*RespondResult, error) {
	req, err := s.loadForResponse(ctx, requestID, actor)
	if err != nil {
		return nil, err
	}

	if err := s.friends.DeclineRequest(ctx, req, s.timestamp()); err != nil {
		if errors.Is(err, repository.ErrStateChanged) {
			return nil, fmt.Errorf("friend request %d already resolved: %w", requestID, ErrInvalidState)
		}
		return nil, err
	}

	s.log.Info("好友请求已拒绝", zap.Uint("request_id", requestID))
	return &RespondResult{Success: true}, nil
}

// ListIncomingRequests 收到的待处理请求
func (s *FriendService) ListIncomingRequests(ctx context.Context, userID uint) ([]*model.FriendRequest, error) {
	return s.friends.ListIncoming(ctx, userID)
}

// ListOutgoingRequests 发出的待处理请求
func (s *FriendService) ListOutgoingRequests(ctx context.Context, userID uint) ([]*model.FriendRequest, error) {
	return s.friends.ListOutgoing(ctx, userID)
}

// ListFriendIDs 好友ID列表
func (s *FriendService) ListFriendIDs(ctx context.Context, userID uint) ([]uint, error) {
	return s.friends.ListFriendIDs(ctx, userID)
}
