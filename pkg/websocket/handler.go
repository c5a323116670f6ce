package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"social-hub/config"
	"social-hub/pkg/jwt"
	"social-hub/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许跨域
	},
}

// TokenVerifier 校验身份提供方签发的令牌
type TokenVerifier interface {
	ValidateToken(token string) (*jwt.CustomClaims, error)
}

// IdentityFunc 令牌主体（外部身份ID）-> 内部用户ID
type IdentityFunc func(ctx context.Context, subject string) (uint, error)

// ReadFunc 客户端确认已读某个会话
type ReadFunc func(ctx context.Context, conversationID, userID uint) (int64, error)

// Handler WebSocket 接入
type Handler struct {
	manager  *Manager
	verifier TokenVerifier
	identity IdentityFunc
	onRead   ReadFunc
	cfg      config.WebSocketConfig
	log      *zap.Logger
}

// NewHandler 创建WebSocket处理器，onRead 可为 nil
func NewHandler(manager *Manager, verifier TokenVerifier, identity IdentityFunc, onRead ReadFunc, cfg config.WebSocketConfig, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		manager:  manager,
		verifier: verifier,
		identity: identity,
		onRead:   onRead,
		cfg:      cfg,
		log:      log.With(zap.String("component", "ws_handler")),
	}
}

// inbound 客户端上行消息
type inbound struct {
	Type           string `json:"type"`
	ConversationID uint   `json:"conversation_id"`
}

// ServeWS Gin路由处理函数
func (h *Handler) ServeWS(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = strings.TrimPrefix(c.GetHeader("Sec-WebSocket-Protocol"), "Bearer ")
	}
	if token == "" {
		response.Unauthorized(c, "缺少token")
		return
	}

	claims, err := h.verifier.ValidateToken(token)
	if err != nil {
		response.Unauthorized(c, "token无效或已过期")
		return
	}
	userID, err := h.identity(c.Request.Context(), claims.Subject)
	if err != nil {
		h.log.Warn("WebSocket身份解析失败", zap.String("subject", claims.Subject), zap.Error(err))
		response.Unauthorized(c, "用户不存在或已注销")
		return
	}

	// 回显子协议，避免客户端提示 "Server sent no subprotocol"
	respHeader := http.Header{}
	if protocol := c.GetHeader("Sec-WebSocket-Protocol"); protocol != "" {
		respHeader.Set("Sec-WebSocket-Protocol", protocol)
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, respHeader)
	if err != nil {
		h.log.Warn("WebSocket升级失败", zap.Error(err))
		return
	}

	// 连接的生命周期与请求无关，使用独立上下文
	ctx := context.Background()
	client := NewClient(userID, conn)
	h.manager.AddClient(ctx, client)
	h.log.Info("WebSocket已连接", zap.Uint("user_id", userID))

	go h.writePump(client)
	h.readPump(ctx, client)

	h.manager.RemoveClient(ctx, client)
	_ = conn.Close()
	h.log.Info("WebSocket已断开", zap.Uint("user_id", userID))
}

// writePump 写协程 + 定时发送ping心跳
func (h *Handler) writePump(client *Client) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-client.Send:
			if !ok {
				_ = client.Conn.WriteControl(websocket.CloseMessage, nil, time.Now().Add(time.Second))
				return
			}
			if err := client.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := client.Conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second)); err != nil {
				return
			}
		}
	}
}

// readPump 读协程（接收心跳/已读确认），超时未收到任何读事件则断开
func (h *Handler) readPump(ctx context.Context, client *Client) {
	conn := client.Conn
	_ = conn.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout))
	})

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout))

		var msg inbound
		if err := json.Unmarshal(payload, &msg); err != nil {
			continue
		}
		switch msg.Type {
		case "heartbeat":
			h.manager.Heartbeat(ctx, client.UserID)
		case "ack_read":
			if h.onRead == nil || msg.ConversationID == 0 {
				continue
			}
			if _, err := h.onRead(ctx, msg.ConversationID, client.UserID); err != nil {
				h.log.Debug("已读确认失败",
					zap.Uint("user_id", client.UserID),
					zap.Uint("conversation_id", msg.ConversationID),
					zap.Error(err),
				)
			}
		}
	}
}
