package gateway

import (
	"encoding/json"
	"sync"

	"coaching_app_client/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// UI push 事件種類
const (
	// EventMessage live channel 收到對方訊息
	EventMessage = "message_received"
	// EventAlert 平台本地 alert(帶 notification id 供點擊 round-trip)
	EventAlert = "alert"
	// EventPopup badge 彈窗狀態變化
	EventPopup = "popup"
	// EventSnapshot 通知 snapshot 換新
	EventSnapshot = "notifications"
)

// Event 推給前端的事件封包
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Hub 聚合所有 UI websocket 連線，事件廣播給每個掛著的前端
type Hub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// NewHub create Hub
func NewHub() *Hub {
	return &Hub{conns: map[*websocket.Conn]struct{}{}}
}

// Broadcast 序列化事件後寫給所有連線，寫失敗的連線直接剔除
func (h *Hub) Broadcast(evt Event) {
	b, err := json.Marshal(evt)
	if err != nil {
		logger.Log.Errorf("ui event marshal failed", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			conn.Close()
			delete(h.conns, conn)
		}
	}
}

func (h *Hub) add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = struct{}{}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, conn)
}

// RegisterRoutes 注册 gateway 共用路由: UI 事件流 /ws、/metrics、/health
func RegisterRoutes(r *fiber.App, hub *Hub) {
	r.Get("/ws", websocket.New(func(c *websocket.Conn) {
		hub.add(c)
		defer func() {
			hub.remove(c)
			c.Close()
		}()

		// 前端只收不發，read loop 只為了偵測斷線
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}))

	r.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	r.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
}
