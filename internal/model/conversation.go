package model

import "time"

// Conversation 两人会话
// 参与者按 (UserLow, UserHigh) 规范化存储，唯一索引保证每个无序用户对最多一个会话
type Conversation struct {
	ID            uint       `gorm:"primaryKey"`
	UserLow       uint       `gorm:"not null;uniqueIndex:idx_conversation_pair,priority:1;comment:较小的参与者ID"`
	UserHigh      uint       `gorm:"not null;uniqueIndex:idx_conversation_pair,priority:2;index;comment:较大的参与者ID"`
	LastMessage   string     `gorm:"type:text;comment:最后一条消息"`
	LastMessageAt *time.Time `gorm:"index;comment:最后一条消息时间"`
	CreatedAt     time.Time  `gorm:"comment:创建时间"`
	UpdatedAt     time.Time  `gorm:"comment:更新时间"`
}

func (Conversation) TableName() string { return "conversation" }

// OrderedPair 返回无序用户对的规范形式
func OrderedPair(a, b uint) (low, high uint) {
	if a < b {
		return a, b
	}
	return b, a
}

// HasParticipant 判断用户是否为会话参与者
func (c *Conversation) HasParticipant(userID uint) bool {
	return c.UserLow == userID || c.UserHigh == userID
}

// Peer 返回会话中的另一方
func (c *Conversation) Peer(userID uint) uint {
	if c.UserLow == userID {
		return c.UserHigh
	}
	return c.UserLow
}
