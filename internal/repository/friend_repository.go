package repository

import (
	"context"
	"time"

	"social-hub/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FriendRepository 好友请求、好友边与会话创建的数据仓储
type FriendRepository struct {
	db *gorm.DB
}

// NewFriendRepository 创建FriendRepository实例
func NewFriendRepository(db *gorm.DB) *FriendRepository {
	return &FriendRepository{db: db}
}

// CreateRequest 创建待处理的好友请求
// 同方向已有待处理请求时唯一索引冲突，返回 ErrDuplicate
func (r *FriendRepository) CreateRequest(ctx context.Context, req *model.FriendRequest) error {
	req.Status = model.FriendRequestPending
	req.PendingKey = model.PendingKeyFor(req.FromUserID, req.ToUserID)

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(req)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrDuplicate
	}
	return nil
}

// GetRequest 按ID查询好友请求
func (r *FriendRepository) GetRequest(ctx context.Context, id uint) (*model.FriendRequest, error) {
	var req model.FriendRequest
	if err := r.db.WithContext(ctx).First(&req, id).Error; err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

// ListIncoming 用户收到的待处理请求
func (r *FriendRepository) ListIncoming(ctx context.Context, userID uint) ([]*model.FriendRequest, error) {
	return r.listPending(ctx, "to_user_id", userID)
}

// ListOutgoing 用户发出的待处理请求
func (r *FriendRepository) ListOutgoing(ctx context.Context, userID uint) ([]*model.FriendRequest, error) {
	return r.listPending(ctx, "from_user_id", userID)
}

func (r *FriendRepository) listPending(ctx context.Context, column string, userID uint) ([]*model.FriendRequest, error) {
	var reqs []*model.FriendRequest
	err := r.db.WithContext(ctx).
		Where(column+" = ? AND status = ?", userID, model.FriendRequestPending).
		Order("created_at DESC, id DESC").
		Find(&reqs).Error
	return reqs, err
}

// AcceptRequest 在一个事务内完成接受好友请求的全部写入：
// 状态 pending -> accepted、双向好友边、按无序用户对查找或创建会话
// 请求已不是 pending 时返回 ErrStateChanged，事务不产生任何写入；
// 数据库因死锁等原因中止事务时返回 ErrTxConflict
func (r *FriendRepository) AcceptRequest(ctx context.Context, req *model.FriendRequest, at time.Time) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := resolveRequest(tx, req.ID, model.FriendRequestAccepted, at); err != nil {
			return err
		}

		if err := insertEdges(tx, req.FromUserID, req.ToUserID, at); err != nil {
			return err
		}

		found, err := findOrCreateConversation(tx, req.FromUserID, req.ToUserID)
		if err != nil {
			return err
		}
		conv = *found
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}

	req.Status = model.FriendRequestAccepted
	req.RespondedAt = &at
	req.PendingKey = nil
	return &conv, nil
}

// DeclineRequest 拒绝好友请求，仅改变请求本身
func (r *FriendRepository) DeclineRequest(ctx context.Context, req *model.FriendRequest, at time.Time) error {
	if err := resolveRequest(r.db.WithContext(ctx), req.ID, model.FriendRequestDeclined, at); err != nil {
		return err
	}
	req.Status = model.FriendRequestDeclined
	req.RespondedAt = &at
	req.PendingKey = nil
	return nil
}

// resolveRequest 条件更新 pending 状态，并发处理同一请求时只有一个能成功
func resolveRequest(tx *gorm.DB, id uint, status string, at time.Time) error {
	res := tx.Model(&model.FriendRequest{}).
		Where("id = ? AND status = ?", id, model.FriendRequestPending).
		Updates(map[string]interface{}{
			"status":       status,
			"responded_at": at,
			"pending_key":  nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStateChanged
	}
	return nil
}

// insertEdges 写入双向好友边
// 两行总是按 (low, high)、(high, low) 的顺序插入，互相接受对方请求的两个事务加锁顺序一致
func insertEdges(tx *gorm.DB, a, b uint, at time.Time) error {
	low, high := model.OrderedPair(a, b)
	edges := []model.Friendship{
		{UserID: low, FriendID: high, CreatedAt: at},
		{UserID: high, FriendID: low, CreatedAt: at},
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&edges).Error
}

// findOrCreateConversation 依赖 (user_low, user_high) 唯一索引，冲突时读取已存在的会话
func findOrCreateConversation(tx *gorm.DB, a, b uint) (*model.Conversation, error) {
	low, high := model.OrderedPair(a, b)

	candidate := model.Conversation{UserLow: low, UserHigh: high}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&candidate).Error; err != nil {
		return nil, err
	}

	var conv model.Conversation
	if err := tx.Where("user_low = ? AND user_high = ?", low, high).First(&conv).Error; err != nil {
		return nil, translate(err)
	}
	return &conv, nil
}

// AreFriends 判断两人是否已是好友
func (r *FriendRepository) AreFriends(ctx context.Context, a, b uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Friendship{}).
		Where("user_id = ? AND friend_id = ?", a, b).
		Count(&count).Error
	return count > 0, err
}

// ListFriendIDs 用户的好友ID列表，按ID升序
func (r *FriendRepository) ListFriendIDs(ctx context.Context, userID uint) ([]uint, error) {
	ids := make([]uint, 0)
	err := r.db.WithContext(ctx).
		Model(&model.Friendship{}).
		Where("user_id = ?", userID).
		Order("friend_id ASC").
		Pluck("friend_id", &ids).Error
	return ids, err
}
