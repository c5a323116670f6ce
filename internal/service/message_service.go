package service

import (
	"context"
	"fmt"
	"strings"

	"social-hub/internal/model"
	"social-hub/internal/repository"
	"social-hub/pkg/websocket"

	"go.uber.org/zap"
)

// Notifier 实时推送；接收方不在线时由实现方负责离线暂存
type Notifier interface {
	Push(ctx context.Context, userID uint, event websocket.Event) error
}

// MessageService 会话消息
type MessageService struct {
	settings
	conversations *repository.ConversationRepository
	notifier      Notifier
}

// NewMessageService notifier 为 nil 时不做实时推送
func NewMessageService(conversations *repository.ConversationRepository, notifier Notifier, opts ...Option) *MessageService {
	return &MessageService{
		settings:      newSettings("message_service", opts),
		conversations: conversations,
		notifier:      notifier,
	}
}

// participantConversation 加载会话并校验参与者
func (s *MessageService) participantConversation(ctx context.Context, conversationID, userID uint) (*model.Conversation, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, notFound("conversation", err)
	}
	if !conv.HasParticipant(userID) {
		return nil, fmt.Errorf("conversation %d: %w", conversationID, ErrForbidden)
	}
	return conv, nil
}

// SendMessage 在已有会话中发送消息，并推进会话的最后消息缓存
func (s *MessageService) SendMessage(ctx context.Context, conversationID, sender uint, content string) (*model.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	conv, err := s.participantConversation(ctx, conversationID, sender)
	if err != nil {
		return nil, err
	}

	msg := &model.Message{
		ConversationID: conv.ID,
		SenderID:       sender,
		Content:        content,
		CreatedAt:      s.timestamp(),
	}
	if err := s.conversations.AppendMessage(ctx, msg); err != nil {
		s.log.Error("保存消息失败", zap.Uint("conversation_id", conv.ID), zap.Error(err))
		return nil, err
	}

	if s.notifier != nil {
		recipient := conv.Peer(sender)
		event := websocket.Event{
			Type:           websocket.EventChat,
			MessageID:      msg.ID,
			ConversationID: conv.ID,
			SenderID:       sender,
			Content:        msg.Content,
			CreatedAt:      msg.CreatedAt,
		}
		// 推送失败不影响消息已落库
		if err := s.notifier.Push(ctx, recipient, event); err != nil {
			s.log.Warn("消息推送失败",
				zap.Uint("message_id", msg.ID),
				zap.Uint("recipient", recipient),
				zap.Error(err),
			)
		}
	}

	return msg, nil
}

// ListMessages 分页获取会话消息历史，最新的在前
func (s *MessageService) ListMessages(ctx context.Context, conversationID, userID uint, page, pageSize int) ([]*model.Message, error) {
	if _, err := s.participantConversation(ctx, conversationID, userID); err != nil {
		return nil, err
	}

	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20 // 默认每页20条
	}
	if page < 1 {
		page = 1
	}
	return s.conversations.ListMessages(ctx, conversationID, pageSize, (page-1)*pageSize)
}

// MarkConversationRead 将对方发送的未读消息标记为已读，返回更新条数
func (s *MessageService) MarkConversationRead(ctx context.Context, conversationID, reader uint) (int64, error) {
	conv, err := s.participantConversation(ctx, conversationID, reader)
	if err != nil {
		return 0, err
	}
	n, err := s.conversations.MarkRead(ctx, conversationID, reader)
	if err != nil {
		return 0, err
	}
	s.log.Debug("会话已读", zap.Uint("conversation_id", conversationID), zap.Int64("updated", n))

	// 通知对方消息已被阅读
	if n > 0 && s.notifier != nil {
		peer := conv.Peer(reader)
		err := s.notifier.Push(ctx, peer, websocket.Event{
			Type:           websocket.EventRead,
			ConversationID: conversationID,
			SenderID:       reader,
			CreatedAt:      s.timestamp(),
		})
		if err != nil {
			s.log.Warn("已读回执推送失败",
				zap.Uint("conversation_id", conversationID),
				zap.Uint("recipient", peer),
				zap.Error(err),
			)
		}
	}
	return n, nil
}
