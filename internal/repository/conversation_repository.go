package repository

import (
	"context"

	"social-hub/internal/model"

	"gorm.io/gorm"
)

// ConversationRepository 会话与消息数据仓储
type ConversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository 创建ConversationRepository实例
func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// GetByID 根据ID获取会话
func (r *ConversationRepository) GetByID(ctx context.Context, id uint) (*model.Conversation, error) {
	var conv model.Conversation
	if err := r.db.WithContext(ctx).First(&conv, id).Error; err != nil {
		return nil, translate(err)
	}
	return &conv, nil
}

// FindByPair 按无序用户对查找会话
func (r *ConversationRepository) FindByPair(ctx context.Context, a, b uint) (*model.Conversation, error) {
	low, high := model.OrderedPair(a, b)
	var conv model.Conversation
	err := r.db.WithContext(ctx).
		Where("user_low = ? AND user_high = ?", low, high).
		First(&conv).Error
	if err != nil {
		return nil, translate(err)
	}
	return &conv, nil
}

// CountByPair 统计用户对的会话数量
func (r *ConversationRepository) CountByPair(ctx context.Context, a, b uint) (int64, error) {
	low, high := model.OrderedPair(a, b)
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Conversation{}).
		Where("user_low = ? AND user_high = ?", low, high).
		Count(&count).Error
	return count, err
}

// ListForUser 用户参与的全部会话
func (r *ConversationRepository) ListForUser(ctx context.Context, userID uint) ([]*model.Conversation, error) {
	var convs []*model.Conversation
	err := r.db.WithContext(ctx).
		Where("user_low = ? OR user_high = ?", userID, userID).
		Find(&convs).Error
	return convs, err
}

// AppendMessage 写入消息并推进会话的最后消息缓存
// 推进条件保证 last_message_at 不会回退到更早的消息
func (r *ConversationRepository) AppendMessage(ctx context.Context, msg *model.Message) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		return tx.Model(&model.Conversation{}).
			Where("id = ? AND (last_message_at IS NULL OR last_message_at <= ?)", msg.ConversationID, msg.CreatedAt).
			Updates(map[string]interface{}{
				"last_message":    msg.Content,
				"last_message_at": msg.CreatedAt,
			}).Error
	})
	return translate(err)
}

// ListMessages 分页获取会话消息，最新的在前
func (r *ConversationRepository) ListMessages(ctx context.Context, conversationID uint, limit, offset int) ([]*model.Message, error) {
	var messages []*model.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	return messages, err
}

// MarkRead 把会话中他人发送的未读消息标记为已读，返回更新条数
func (r *ConversationRepository) MarkRead(ctx context.Context, conversationID, readerID uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conversationID, readerID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

type unreadRow struct {
	ConversationID uint
	Unread         int64
}

// UnreadCounts 一次分组查询统计多个会话中他人发给 userID 的未读数
// 没有未读消息的会话不出现在结果中
func (r *ConversationRepository) UnreadCounts(ctx context.Context, userID uint, conversationIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(conversationIDs))
	if len(conversationIDs) == 0 {
		return counts, nil
	}

	var rows []unreadRow
	err := r.db.WithContext(ctx).
		Model(&model.Message{}).
		Select("conversation_id, COUNT(*) AS unread").
		Where("conversation_id IN ? AND sender_id <> ? AND is_read = ?", conversationIDs, userID, false).
		Group("conversation_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.ConversationID] = row.Unread
	}
	return counts, nil
}
