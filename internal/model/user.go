package model

import (
	"time"

	"gorm.io/gorm"
)

// User 用户模型
// ExternalID 为外部身份提供方签发的用户标识，唯一
// 用户只做软删除（DeletedAt），历史帖子与评论中的用户ID始终有效

type User struct {
	ID          uint           `gorm:"primaryKey"`
	ExternalID  string         `gorm:"type:varchar(128);not null;uniqueIndex;comment:外部身份ID"`
	DisplayName string         `gorm:"type:varchar(128);comment:显示名称"`
	FirstName   string         `gorm:"type:varchar(64);comment:名"`
	LastName    string         `gorm:"type:varchar(64);comment:姓"`
	Email       string         `gorm:"type:varchar(128);index;comment:邮箱"`
	PhotoURL    string         `gorm:"type:varchar(255);comment:头像URL"`
	CreatedAt   time.Time      `gorm:"comment:创建时间"`
	UpdatedAt   time.Time      `gorm:"comment:更新时间"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

// TableName 指定表名（因全局配置使用单数表名，这里与结构体名一致为 user）
func (User) TableName() string { return "user" }

// All 需要自动迁移的全部模型
func All() []interface{} {
	return []interface{}{
		&User{},
		&Friendship{},
		&FriendRequest{},
		&Conversation{},
		&Message{},
		&Post{},
	}
}
