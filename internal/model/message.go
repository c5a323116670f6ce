package model

import "time"

// Message 会话内的聊天消息
// idx_message_unread 覆盖未读数统计查询 (conversation_id, is_read, sender_id)
type Message struct {
	ID             uint      `gorm:"primaryKey"`
	ConversationID uint      `gorm:"not null;index:idx_message_unread,priority:1;comment:会话ID"`
	SenderID       uint      `gorm:"not null;index:idx_message_unread,priority:3;comment:发送者ID"`
	Content        string    `gorm:"type:text;not null;comment:消息内容"`
	IsRead         bool      `gorm:"not null;default:false;index:idx_message_unread,priority:2;comment:是否已读"`
	CreatedAt      time.Time `gorm:"index;comment:创建时间"`
}

func (Message) TableName() string { return "message" }
