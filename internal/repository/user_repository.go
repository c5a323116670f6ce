package repository

import (
	"context"

	"social-hub/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository 用户数据仓储
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建UserRepository实例
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByExternalID 按外部身份ID查询未删除的用户
func (r *UserRepository) GetByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// GetByID 按ID查询未删除的用户
func (r *UserRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// GetByIDs 批量查询用户，结果按ID升序，已删除或不存在的ID被忽略
func (r *UserRepository) GetByIDs(ctx context.Context, ids []uint) ([]*model.User, error) {
	users := make([]*model.User, 0, len(ids))
	if len(ids) == 0 {
		return users, nil
	}
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&users).Error
	return users, err
}

// Upsert 按 ExternalID 插入或更新资料字段
// 已软删除的用户既不会被恢复也不会被改写，返回 ErrRecordNotFound
func (r *UserRepository) Upsert(ctx context.Context, user *model.User) (*model.User, error) {
	db := r.db.WithContext(ctx)
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_id"}},
		DoNothing: true,
	}).Create(user)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// 已存在：更新只作用于未删除的行
		err := db.Model(&model.User{}).
			Where("external_id = ?", user.ExternalID).
			Updates(map[string]interface{}{
				"display_name": user.DisplayName,
				"first_name":   user.FirstName,
				"last_name":    user.LastName,
				"email":        user.Email,
				"photo_url":    user.PhotoURL,
			}).Error
		if err != nil {
			return nil, err
		}
	}
	return r.GetByExternalID(ctx, user.ExternalID)
}

// SoftDelete 软删除用户
func (r *UserRepository) SoftDelete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.User{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}
