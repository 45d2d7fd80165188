package ws

import (
	"Alumnet/internal/pkg/consts"
	log "log/slog"
	"net/http"
	"sort"
	"sync"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

const sendBufferSize = 64

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Frame 推送给客户端的事件帧
type Frame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Hub 进程内在线表：每个用户只保留最近一次连接
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	users   map[string]*Client
	closed  bool
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		users:   make(map[string]*Client),
	}
}

// NormalizeUserID 握手参数中的 "undefined"/"null"/空串视为匿名
func NormalizeUserID(raw string) string {
	switch raw {
	case "", consts.AnonymousUndefined, consts.AnonymousNull:
		return ""
	default:
		return raw
	}
}

// Serve 升级连接并阻塞到连接断开
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID string) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := newClient(h, conn, userID)
	if !h.register(client) {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		_ = conn.Close()
		return nil
	}

	go client.writePump()
	client.readPump()
	return nil
}

func (h *Hub) register(c *Client) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}
	h.clients[c] = struct{}{}
	if c.userID != "" {
		if prev, ok := h.users[c.userID]; ok && prev != c {
			log.Info("WS session replaced", "userID", c.userID)
		}
		h.users[c.userID] = c
	}
	total := len(h.clients)
	h.mu.Unlock()

	log.Info("WS connected", "userID", c.userID, "clients", total)
	h.broadcastOnlineUsers()
	return true
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	// 已被新连接顶替时不删除映射
	if c.userID != "" && h.users[c.userID] == c {
		delete(h.users, c.userID)
	}
	close(c.send)
	total := len(h.clients)
	h.mu.Unlock()

	log.Info("WS disconnected", "userID", c.userID, "clients", total)
	h.broadcastOnlineUsers()
}

// OnlineUsers 当前在线用户 ID，升序
func (h *Hub) OnlineUsers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.onlineUsersLocked()
}

func (h *Hub) onlineUsersLocked() []string {
	ids := make([]string, 0, len(h.users))
	for id := range h.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// IsOnline 用户是否在线
func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.users[userID]
	return ok
}

// EmitToUser 尽力投递，不在线或缓冲区已满时丢弃
func (h *Hub) EmitToUser(userID, event string, payload any) bool {
	if userID == "" {
		return false
	}
	data, err := json.Marshal(&Frame{Event: event, Data: payload})
	if err != nil {
		log.Error("WS frame marshal failed", "event", event, "err", err)
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	c, ok := h.users[userID]
	if !ok {
		return false
	}
	if !c.trySend(data) {
		log.Warn("WS send buffer full, event dropped", "userID", userID, "event", event)
		return false
	}
	return true
}

func (h *Hub) broadcastOnlineUsers() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data, err := json.Marshal(&Frame{Event: consts.EventGetOnlineUsers, Data: h.onlineUsersLocked()})
	if err != nil {
		log.Error("WS frame marshal failed", "event", consts.EventGetOnlineUsers, "err", err)
		return
	}
	for c := range h.clients {
		if !c.trySend(data) {
			log.Warn("WS send buffer full, presence update dropped", "userID", c.userID)
		}
	}
}

// Close 断开所有连接并拒绝新连接
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		if c.conn != nil {
			conns = append(conns, c.conn)
		}
	}
	h.mu.Unlock()

	for _, conn := range conns {
		_ = conn.Close()
	}
	log.Info("WS hub closed", "connections", len(conns))
}
