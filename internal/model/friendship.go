package model

import "time"

// Friendship 好友边
// 每对好友总是同时存在 (A,B) 与 (B,A) 两行，由接受好友请求的事务一并写入
type Friendship struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_friendship_pair,priority:1;comment:用户ID"`
	FriendID  uint      `gorm:"not null;uniqueIndex:idx_friendship_pair,priority:2;index;comment:好友ID"`
	CreatedAt time.Time `gorm:"comment:创建时间"`
}

func (Friendship) TableName() string { return "friendship" }
