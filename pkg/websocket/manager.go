package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"social-hub/pkg/redis"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// 推送事件类型
const (
	EventChat = "chat"
	EventRead = "read"
)

// Event 推送给客户端的事件
type Event struct {
	Type           string    `json:"type"`
	MessageID      uint      `json:"message_id,omitempty"`
	ConversationID uint      `json:"conversation_id,omitempty"`
	SenderID       uint      `json:"sender_id,omitempty"`
	Content        string    `json:"content,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	Offline        bool      `json:"offline,omitempty"`
}

// OfflineStore 离线事件暂存
type OfflineStore interface {
	PushOffline(ctx context.Context, receiverID uint, event *redis.OfflineEvent) error
	DrainOffline(ctx context.Context, receiverID uint) ([]*redis.OfflineEvent, error)
}

// PresenceStore 在线状态
type PresenceStore interface {
	SetOnline(ctx context.Context, userID uint) error
	SetOffline(ctx context.Context, userID uint) error
	RefreshPresence(ctx context.Context, userID uint) error
}

// Client 代表一个WebSocket连接的用户
type Client struct {
	UserID uint
	Conn   *websocket.Conn
	Send   chan []byte
}

// NewClient 创建连接客户端
func NewClient(userID uint, conn *websocket.Conn) *Client {
	return &Client{UserID: userID, Conn: conn, Send: make(chan []byte, 256)}
}

// Manager 管理所有在线用户的WebSocket连接
// 离线时事件写入 OfflineStore，上线后按顺序补发
type Manager struct {
	clients  map[uint]*Client
	lock     sync.RWMutex
	offline  OfflineStore
	presence PresenceStore
	log      *zap.Logger
}

// NewManager offline 与 presence 可为 nil（未启用Redis）
func NewManager(log *zap.Logger, offline OfflineStore, presence PresenceStore) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		clients:  make(map[uint]*Client),
		offline:  offline,
		presence: presence,
		log:      log.With(zap.String("component", "ws_manager")),
	}
}

// AddClient 登记新连接；同一用户的旧连接被替换
func (m *Manager) AddClient(ctx context.Context, client *Client) {
	m.lock.Lock()
	if old, ok := m.clients[client.UserID]; ok && old != client {
		close(old.Send)
	}
	m.clients[client.UserID] = client
	m.lock.Unlock()

	if m.presence != nil {
		if err := m.presence.SetOnline(ctx, client.UserID); err != nil {
			m.log.Warn("设置在线状态失败", zap.Uint("user_id", client.UserID), zap.Error(err))
		}
	}
	m.flushOffline(ctx, client)
}

// RemoveClient 移除连接；只移除仍是当前登记的那个连接
func (m *Manager) RemoveClient(ctx context.Context, client *Client) {
	m.lock.Lock()
	current, ok := m.clients[client.UserID]
	if ok && current == client {
		close(client.Send)
		delete(m.clients, client.UserID)
	}
	m.lock.Unlock()

	if ok && current == client && m.presence != nil {
		if err := m.presence.SetOffline(ctx, client.UserID); err != nil {
			m.log.Warn("设置离线状态失败", zap.Uint("user_id", client.UserID), zap.Error(err))
		}
	}
}

// Heartbeat 客户端心跳，续期在线状态
func (m *Manager) Heartbeat(ctx context.Context, userID uint) {
	if m.presence == nil {
		return
	}
	if err := m.presence.RefreshPresence(ctx, userID); err != nil {
		m.log.Warn("刷新在线状态失败", zap.Uint("user_id", userID), zap.Error(err))
	}
}

// IsOnline 用户是否在本进程有活跃连接
func (m *Manager) IsOnline(userID uint) bool {
	m.lock.RLock()
	defer m.lock.RUnlock()
	_, ok := m.clients[userID]
	return ok
}

// Push 推送事件给指定用户，不在线或发送缓冲已满时写入离线队列
func (m *Manager) Push(ctx context.Context, userID uint, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化推送事件失败: %w", err)
	}

	m.lock.RLock()
	client, ok := m.clients[userID]
	delivered := false
	if ok {
		select {
		case client.Send <- data:
			delivered = true
		default:
		}
	}
	m.lock.RUnlock()

	if delivered {
		return nil
	}
	if m.offline == nil {
		return nil
	}
	return m.offline.PushOffline(ctx, userID, toOffline(event))
}

// flushOffline 补发离线事件
func (m *Manager) flushOffline(ctx context.Context, client *Client) {
	if m.offline == nil {
		return
	}
	events, err := m.offline.DrainOffline(ctx, client.UserID)
	if err != nil {
		m.log.Warn("获取离线消息失败", zap.Uint("user_id", client.UserID), zap.Error(err))
		return
	}

	for _, e := range events {
		event := fromOffline(e)
		event.Offline = true
		data, err := json.Marshal(event)
		if err != nil {
			continue
		}
		if !m.send(client, data) {
			// 缓冲已满或连接已被替换，剩余事件放回队列
			_ = m.offline.PushOffline(ctx, client.UserID, e)
		}
	}
}

func (m *Manager) send(client *Client, data []byte) bool {
	m.lock.RLock()
	defer m.lock.RUnlock()
	if m.clients[client.UserID] != client {
		return false
	}
	select {
	case client.Send <- data:
		return true
	default:
		return false
	}
}

func toOffline(e Event) *redis.OfflineEvent {
	return &redis.OfflineEvent{
		Type:           e.Type,
		MessageID:      e.MessageID,
		ConversationID: e.ConversationID,
		SenderID:       e.SenderID,
		Content:        e.Content,
		CreatedAt:      e.CreatedAt,
	}
}

func fromOffline(e *redis.OfflineEvent) Event {
	return Event{
		Type:           e.Type,
		MessageID:      e.MessageID,
		ConversationID: e.ConversationID,
		SenderID:       e.SenderID,
		Content:        e.Content,
		CreatedAt:      e.CreatedAt,
	}
}
