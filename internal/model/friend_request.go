package model

import (
	"fmt"
	"time"
)

// 好友请求状态
const (
	FriendRequestPending  = "pending"
	FriendRequestAccepted = "accepted"
	FriendRequestDeclined = "declined"
)

// FriendRequest 好友请求
// PendingKey 仅在 pending 状态下非空，唯一索引保证同一方向只有一个待处理请求；
// 处理后置为 NULL，允许之后重新发起
type FriendRequest struct {
	ID          uint       `gorm:"primaryKey"`
	FromUserID  uint       `gorm:"not null;index;comment:发起人ID"`
	ToUserID    uint       `gorm:"not null;index;comment:接收人ID"`
	Status      string     `gorm:"type:varchar(16);not null;default:'pending';comment:状态"`
	PendingKey  *string    `gorm:"type:varchar(64);uniqueIndex;comment:待处理唯一键"`
	RespondedAt *time.Time `gorm:"comment:处理时间"`
	CreatedAt   time.Time  `gorm:"comment:创建时间"`
	UpdatedAt   time.Time  `gorm:"comment:更新时间"`
}

func (FriendRequest) TableName() string { return "friend_request" }

// PendingKeyFor 有序用户对的待处理唯一键
func PendingKeyFor(from, to uint) *string {
	key := fmt.Sprintf("%d:%d", from, to)
	return &key
}

// IsPending 是否待处理
func (r *FriendRequest) IsPending() bool {
	return r.Status == FriendRequestPending
}
