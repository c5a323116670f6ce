package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// OfflineEvent 离线推送事件，接收方上线后按时间顺序补发
type OfflineEvent struct {
	Type           string    `json:"type"`
	MessageID      uint      `json:"message_id"`
	ConversationID uint      `json:"conversation_id"`
	SenderID       uint      `json:"sender_id"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// 离线消息相关常量
const (
	OfflineKeyPrefix   = "sh:offline:"      // 离线消息key前缀
	OfflineTTL         = 7 * 24 * time.Hour // 7天过期
	OfflineMaxMessages = 100                // 每个用户最多保存的离线事件数
)

func offlineKey(userID uint) string {
	return OfflineKeyPrefix + strconv.FormatUint(uint64(userID), 10)
}

// PushOffline 写入离线事件（最新的在列表头部）
func (c *Client) PushOffline(ctx context.Context, receiverID uint, event *OfflineEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化离线消息失败: %w", err)
	}

	key := offlineKey(receiverID)
	pipe := c.rdb.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.Expire(ctx, key, OfflineTTL)
	pipe.LTrim(ctx, key, 0, OfflineMaxMessages-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("添加离线消息失败: %w", err)
	}
	return nil
}

// DrainOffline 取出并清空离线事件，按写入先后返回
func (c *Client) DrainOffline(ctx context.Context, receiverID uint) ([]*OfflineEvent, error) {
	key := offlineKey(receiverID)

	pipe := c.rdb.TxPipeline()
	rangeCmd := pipe.LRange(ctx, key, 0, -1)
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("获取离线消息失败: %w", err)
	}

	raw := rangeCmd.Val()
	events := make([]*OfflineEvent, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var event OfflineEvent
		if err := json.Unmarshal([]byte(raw[i]), &event); err != nil {
			continue // 跳过无法解析的消息
		}
		events = append(events, &event)
	}
	return events, nil
}

// OfflineCount 获取用户离线事件数量
func (c *Client) OfflineCount(ctx context.Context, receiverID uint) (int64, error) {
	count, err := c.rdb.LLen(ctx, offlineKey(receiverID)).Result()
	if err != nil {
		return 0, fmt.Errorf("获取离线消息数量失败: %w", err)
	}
	return count, nil
}
