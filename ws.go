package feed_sdk

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/cydxin/prompt-feed-sdk/feedsync"
	"github.com/cydxin/prompt-feed-sdk/service"
)

const (
	// Time 写入超时时间
	writeWait = 10 * time.Second

	// Time pong超时时间
	pongWait = 60 * time.Second

	// Send 对应的ping 必须小于pong
	pingPeriod = (pongWait * 9) / 10

	// Maximum 上行只有订阅帧，不需要很大
	maxMessageSize = 4096

	// 单连接最多订阅数
	maxSubscriptions = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for SDK
	},
}

// Client ws和hub的连接
type Client struct {
	hub *WsHub

	// 🔗链接
	conn *websocket.Conn

	// 消息缓冲区
	send chan []byte

	// UserID 和用户关联，0 为匿名
	UserID uint64

	// 会话ID
	SessionID string

	mu     sync.Mutex
	closed bool
	// sub_id -> 总线订阅
	subs map[string]feedsync.Unsubscribe
}

// enqueue 非阻塞写入发送缓冲，缓冲满或连接已关闭时丢弃
func (c *Client) enqueue(b []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- b:
		return true
	default:
		return false
	}
}

func (c *Client) sendJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		c.hub.log.Warn("encode ws frame", "err", err)
		return
	}
	if !c.enqueue(b) {
		c.hub.log.Debug("ws frame dropped", "session", c.SessionID)
	}
}

// shutdown 释放全部订阅并关闭发送通道，只执行一次
func (c *Client) shutdown() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	subs := c.subs
	c.subs = nil
	close(c.send)
	c.mu.Unlock()

	for _, unsub := range subs {
		unsub()
	}
}

// readPump 将消息从client (websocket 连接) 到hub管理。
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.quit:
			c.shutdown()
		}
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { _ = c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Info("ws read error", "session", c.SessionID, "err", err)
			}
			break
		}
		c.hub.handleFrame(c, message)
	}
}

// writePump 将消息从hub管理写到具体的client (websocket 连接)。
// 每帧一个 JSON，不合并，客户端按帧解码。
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.hub.log.Debug("ws ping failed", "session", c.SessionID)
				return
			}
		}
	}
}

// WsHub 管理全部连接；每个连接上的订阅直接挂在 Redis 总线上
type WsHub struct {
	bus service.Subscriber
	log *slog.Logger

	clients map[*Client]bool
	// 用户ID -> 该用户所有活跃的 Websocket 连接（支持多设备）
	userClients map[uint64][]*Client

	register   chan *Client
	unregister chan *Client
	quit       chan struct{}
	closeOnce  sync.Once
	mu         sync.RWMutex
}

// NewWsHub bus 为空时订阅请求一律回 error 帧
func NewWsHub(bus service.Subscriber, log *slog.Logger) *WsHub {
	if log == nil {
		log = slog.Default()
	}
	return &WsHub{
		bus:         bus,
		log:         log.With("component", "ws"),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		quit:        make(chan struct{}),
		clients:     make(map[*Client]bool),
		userClients: make(map[uint64][]*Client),
	}
}

func (h *WsHub) Run() {
	for {
		select {
		case <-h.quit:
			h.mu.Lock()
			clients := make([]*Client, 0, len(h.clients))
			for c := range h.clients {
				clients = append(clients, c)
			}
			h.clients = make(map[*Client]bool)
			h.userClients = make(map[uint64][]*Client)
			h.mu.Unlock()
			for _, c := range clients {
				c.shutdown()
			}
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.userClients[client.UserID] = append(h.userClients[client.UserID], client)
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				if userConns, exists := h.userClients[client.UserID]; exists {
					for i, conn := range userConns {
						if conn == client {
							h.userClients[client.UserID] = append(userConns[:i], userConns[i+1:]...)
							break
						}
					}
					if len(h.userClients[client.UserID]) == 0 {
						delete(h.userClients, client.UserID)
					}
				}
			}
			h.mu.Unlock()
			client.shutdown()
		}
	}
}

// Close 断开全部连接，之后 Run 退出
func (h *WsHub) Close() {
	h.closeOnce.Do(func() { close(h.quit) })
}

// Online 当前连接数
func (h *WsHub) Online() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// UserConnections 某个用户当前的连接数（多设备）
func (h *WsHub) UserConnections(userID uint64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.userClients[userID])
}

// ServeWS 处理ws的请求
func (h *WsHub) ServeWS(w http.ResponseWriter, r *http.Request, userID uint64) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Info("ws upgrade failed", "err", err)
		return
	}

	client := &Client{
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, 256),
		UserID:    userID,
		SessionID: uuid.NewString(),
		subs:      make(map[string]feedsync.Unsubscribe),
	}
	select {
	case h.register <- client:
	case <-h.quit:
		_ = conn.Close()
		return
	}
	h.log.Info("ws connected", "user_id", userID, "session", client.SessionID)

	go client.writePump()
	go client.readPump()

	// 不要 select{} 永久阻塞 handler；连接生命周期由 readPump/writePump 控制。
}
