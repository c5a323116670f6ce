package redis

import (
	"context"
	"fmt"
	"time"

	"social-hub/config"

	"github.com/redis/go-redis/v9"
)

// Client Redis连接句柄，在 main 中创建并显式传入各组件
type Client struct {
	rdb *redis.Client
}

// NewClient 创建Redis连接并测试连通性
func NewClient(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		// 连接池配置
		PoolSize:     10,              // 连接池大小
		MinIdleConns: 5,               // 最小空闲连接
		MaxRetries:   3,               // 最大重试次数
		DialTimeout:  5 * time.Second, // 连接超时
		ReadTimeout:  3 * time.Second, // 读超时
		WriteTimeout: 3 * time.Second, // 写超时
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis连接失败: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Wrap 包装已有的 go-redis 客户端
func Wrap(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

// Close 关闭Redis连接
func (c *Client) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

// HealthCheck 检查Redis健康状态
func (c *Client) HealthCheck(ctx context.Context) error {
	if c == nil || c.rdb == nil {
		return fmt.Errorf("redis客户端未初始化")
	}
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis连接异常: %w", err)
	}
	return nil
}
