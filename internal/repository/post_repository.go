package repository

import (
	"context"
	"time"

	"social-hub/internal/model"

	"gorm.io/gorm"
)

// PostRepository 帖子文档仓储
// 帖子线程（评论、回复、点赞、分享）整体读写，写入通过 version 做比较并交换
type PostRepository struct {
	db *gorm.DB
}

// NewPostRepository 创建PostRepository实例
func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

// Create 创建帖子
func (r *PostRepository) Create(ctx context.Context, post *model.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

// GetByID 读取帖子文档及其版本号
func (r *PostRepository) GetByID(ctx context.Context, id uint) (*model.Post, error) {
	var post model.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

// UpdateThread 以读取时的版本号为条件整体写回线程
// 版本已被其他写入推进时返回 ErrVersionConflict，调用方应重新读取后重试
func (r *PostRepository) UpdateThread(ctx context.Context, post *model.Post) error {
	return updateThread(r.db.WithContext(ctx), post)
}

func updateThread(tx *gorm.DB, post *model.Post) error {
	res := tx.Model(&model.Post{}).
		Where("id = ? AND version = ?", post.ID, post.Version).
		Updates(map[string]interface{}{
			"likes":    post.Likes,
			"comments": post.Comments,
			"shares":   post.Shares,
			"version":  post.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	post.Version++
	return nil
}

// CreateShare 在一个事务内创建分享帖并向原帖追加分享记录
// 原帖版本冲突时整个事务回滚，分享帖不会残留
func (r *PostRepository) CreateShare(ctx context.Context, source, sharePost *model.Post, at time.Time) (*model.Share, error) {
	var share model.Share
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(sharePost).Error; err != nil {
			return err
		}
		share = model.NewShare(sharePost.AuthorID, sharePost.ID, at)
		source.AppendShare(share)
		return updateThread(tx, source)
	})
	if err != nil {
		return nil, translate(err)
	}
	return &share, nil
}

// Delete 删除帖子，嵌入的评论、回复、点赞与分享记录随文档一起删除
func (r *PostRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Post{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// CountDerivatives 统计以 originalID 为原帖的分享帖数量
func (r *PostRepository) CountDerivatives(ctx context.Context, originalID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Post{}).
		Where("original_post_id = ?", originalID).
		Count(&count).Error
	return count, err
}
