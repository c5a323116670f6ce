package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// 在线状态相关常量
const (
	PresenceKeyPrefix = "sh:presence:user:" // 用户在线状态key前缀
	OnlineUsersKey    = "sh:online:users"   // 在线用户集合key
	PresenceTTL       = 2 * time.Minute     // 在线状态TTL（2倍心跳周期）
)

func presenceKey(userID uint) string {
	return PresenceKeyPrefix + strconv.FormatUint(uint64(userID), 10)
}

// SetOnline 标记用户在线
func (c *Client) SetOnline(ctx context.Context, userID uint) error {
	pipe := c.rdb.TxPipeline()
	pipe.Set(ctx, presenceKey(userID), time.Now().UTC().Unix(), PresenceTTL)
	pipe.SAdd(ctx, OnlineUsersKey, userID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("设置用户在线状态失败: %w", err)
	}
	return nil
}

// SetOffline 标记用户离线
func (c *Client) SetOffline(ctx context.Context, userID uint) error {
	pipe := c.rdb.TxPipeline()
	pipe.Del(ctx, presenceKey(userID))
	pipe.SRem(ctx, OnlineUsersKey, userID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("移除用户在线状态失败: %w", err)
	}
	return nil
}

// RefreshPresence 心跳续期；key 已过期时重新写入
func (c *Client) RefreshPresence(ctx context.Context, userID uint) error {
	ok, err := c.rdb.Expire(ctx, presenceKey(userID), PresenceTTL).Result()
	if err != nil {
		return fmt.Errorf("刷新用户在线状态失败: %w", err)
	}
	if !ok {
		return c.SetOnline(ctx, userID)
	}
	return nil
}

// IsOnline 检查用户是否在线
func (c *Client) IsOnline(ctx context.Context, userID uint) (bool, error) {
	n, err := c.rdb.Exists(ctx, presenceKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("检查用户在线状态失败: %w", err)
	}
	return n > 0, nil
}

// OnlineMany 批量查询在线状态，一次往返
func (c *Client) OnlineMany(ctx context.Context, userIDs []uint) (map[uint]bool, error) {
	result := make(map[uint]bool, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}

	pipe := c.rdb.Pipeline()
	cmds := make([]*redis.IntCmd, len(userIDs))
	for i, id := range userIDs {
		cmds[i] = pipe.Exists(ctx, presenceKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("批量获取在线状态失败: %w", err)
	}

	for i, id := range userIDs {
		result[id] = cmds[i].Val() > 0
	}
	return result, nil
}

// CleanExpiredPresence 清理集合中TTL已过期的用户（定期任务）
func (c *Client) CleanExpiredPresence(ctx context.Context) (int, error) {
	members, err := c.rdb.SMembers(ctx, OnlineUsersKey).Result()
	if err != nil {
		return 0, fmt.Errorf("获取在线用户列表失败: %w", err)
	}

	removed := 0
	for _, member := range members {
		id, err := strconv.ParseUint(member, 10, 64)
		if err != nil {
			continue
		}
		online, err := c.IsOnline(ctx, uint(id))
		if err != nil || online {
			continue
		}
		if err := c.rdb.SRem(ctx, OnlineUsersKey, member).Err(); err == nil {
			removed++
		}
	}
	return removed, nil
}
