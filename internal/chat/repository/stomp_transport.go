package repository

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"coaching_app_client/internal/chat/domain"
	"coaching_app_client/pkg/logger"
	"coaching_app_client/pkg/metrics"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	topicPrefix     = "/topic/conversation."
	sendDestination = "/app/chat.sendMessage"

	pingPeriod = 30 * time.Second
)

// MessageHandler 收到 inbound 訊息時的回呼
type MessageHandler func(msg domain.ChatMessage)

// MessageTransport live channel 的存取介面
// 單一實體 socket 多工多個 conversation topic，以 reference counting 管理生命週期
type MessageTransport interface {
	Acquire()
	Release()
	Subscribe(conversationID int64, handler MessageHandler) error
	Unsubscribe(conversationID int64)
	Publish(msg domain.OutboundMessage) error
	Connected() bool
}

type stompSubscription struct {
	id      string
	handler MessageHandler
}

// StompTransport STOMP over websocket 實作
// 連線失敗只降級不報錯，訊息持久化仍走 REST
type StompTransport struct {
	wsURL         string
	token         string
	retryInterval time.Duration
	retryMax      time.Duration

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	refs      int
	subs      map[int64]*stompSubscription
	running   bool
	stopCh    chan struct{}

	// 單一 writer，gorilla 不允許並發寫
	writeMu sync.Mutex
}

// NewStompTransport create StompTransport
func NewStompTransport(wsURL, token string, retryInterval, retryMax time.Duration) *StompTransport {
	if retryInterval <= 0 {
		retryInterval = 2 * time.Second
	}
	if retryMax < retryInterval {
		retryMax = 30 * time.Second
	}
	return &StompTransport{
		wsURL:         wsURL,
		token:         token,
		retryInterval: retryInterval,
		retryMax:      retryMax,
		subs:          map[int64]*stompSubscription{},
	}
}

// Acquire 增加引用，首次引用時懶連線
func (t *StompTransport) Acquire() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.refs++
	if !t.running {
		t.running = true
		t.stopCh = make(chan struct{})
		go t.run(t.stopCh)
	}
}

// Release 減少引用，歸零時關閉 socket
func (t *StompTransport) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.refs > 0 {
		t.refs--
	}
	if t.refs == 0 && t.running {
		t.running = false
		close(t.stopCh)
		if t.conn != nil {
			t.conn.Close()
		}
	}
}

// Subscribe 訂閱 conversation topic，同 id 重複訂閱為 no-op
// 未連線時僅登記，重連成功後自動補送 SUBSCRIBE
func (t *StompTransport) Subscribe(conversationID int64, handler MessageHandler) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.subs[conversationID]; ok {
		return nil
	}

	sub := &stompSubscription{id: uuid.New().String(), handler: handler}
	t.subs[conversationID] = sub

	if t.connected {
		return t.writeFrame(subscribeFrame(conversationID, sub.id))
	}
	return nil
}

// Unsubscribe 取消 conversation topic 的訂閱
func (t *StompTransport) Unsubscribe(conversationID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	sub, ok := t.subs[conversationID]
	if !ok {
		return
	}
	delete(t.subs, conversationID)

	if t.connected {
		f := NewStompFrame(frameUnsubscribe, nil).Set("id", sub.id)
		if err := t.writeFrame(f); err != nil {
			logger.Log.Warn("stomp unsubscribe write failed", zap.Error(err))
		}
	}
}

// Publish 將 outbound payload 發佈到 send destination
// 僅 best-effort fan-out，權威寫入是 REST
func (t *StompTransport) Publish(msg domain.OutboundMessage) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.connected {
		return domain.ErrTransportUnavailable
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	f := NewStompFrame(frameSend, body).
		Set("destination", sendDestination).
		Set("content-type", "application/json").
		Set("content-length", strconv.Itoa(len(body)))
	return t.writeFrame(f)
}

// Connected 回報 live channel 是否可用
func (t *StompTransport) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

// run 連線迴圈：斷線後指數退避重連，重連後補訂閱
func (t *StompTransport) run(stop chan struct{}) {
	backoff := t.retryInterval

	for {
		select {
		case <-stop:
			return
		default:
		}

		conn, err := t.dial()
		if err != nil {
			metrics.TransportReconnects.Inc()
			logger.Log.Warn("live channel connect failed, chat degrades to REST-only", zap.Error(err))

			select {
			case <-stop:
				return
			case <-time.After(backoff):
			}
			if backoff *= 2; backoff > t.retryMax {
				backoff = t.retryMax
			}
			continue
		}
		backoff = t.retryInterval

		t.mu.Lock()
		// Release 可能在 dial 途中發生；stop 已關就不得再發佈這條連線
		select {
		case <-stop:
			t.mu.Unlock()
			conn.Close()
			return
		default:
		}
		t.conn = conn
		t.connected = true
		// 斷線期間登記的訂閱在這裡補送
		for convID, sub := range t.subs {
			if err := t.writeFrame(subscribeFrame(convID, sub.id)); err != nil {
				logger.Log.Warn("stomp resubscribe failed", zap.Int64("conversation_id", convID), zap.Error(err))
			}
		}
		t.mu.Unlock()
		logger.Log.Info("live channel connected", zap.String("url", t.wsURL))

		t.readLoop(conn, stop)

		t.mu.Lock()
		// 只清掉自己發佈的連線，重新 Acquire 後新迴圈的狀態不得被動到
		if t.conn == conn {
			t.connected = false
			t.conn = nil
		}
		t.mu.Unlock()
		conn.Close()
	}
}

// dial 建立 websocket 並完成 STOMP handshake
func (t *StompTransport) dial() (*websocket.Conn, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+t.token)

	conn, _, err := websocket.DefaultDialer.Dial(t.wsURL, header)
	if err != nil {
		return nil, err
	}

	connect := NewStompFrame(frameConnect, nil).
		Set("accept-version", "1.1,1.2").
		Set("heart-beat", "0,0").
		Set("Authorization", "Bearer "+t.token)
	if err := writeFrameTo(conn, connect); err != nil {
		conn.Close()
		return nil, err
	}

	// 等 CONNECTED，中間的 heart-beat 略過
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			conn.Close()
			return nil, err
		}
		f, err := DecodeStompFrame(data)
		if err != nil {
			conn.Close()
			return nil, err
		}
		if f == nil {
			continue
		}
		if f.Command == frameError {
			conn.Close()
			return nil, fmt.Errorf("stomp handshake rejected: %s", f.Headers["message"])
		}
		if f.Command == frameConnected {
			conn.SetReadDeadline(time.Time{})
			return conn, nil
		}
	}
}

// readLoop 讀取 MESSAGE frame 並分派給訂閱 handler，直到連線出錯
func (t *StompTransport) readLoop(conn *websocket.Conn, stop chan struct{}) {
	done := make(chan struct{})
	defer close(done)

	// 定期發送 Ping 維持連線
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				t.writeMu.Lock()
				err := conn.WriteMessage(websocket.PingMessage, []byte("ping"))
				t.writeMu.Unlock()
				if err != nil {
					return
				}
			case <-done:
				return
			case <-stop:
				return
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-stop:
			default:
				logger.Log.Warn("live channel dropped", zap.Error(err))
			}
			return
		}

		frame, err := DecodeStompFrame(data)
		if err != nil {
			logger.Log.Warn("stomp frame decode failed", zap.Error(err))
			continue
		}
		if frame == nil || frame.Command != frameMessage {
			continue
		}
		t.dispatch(frame)
	}
}

// dispatch 依 subscription header 找 handler；缺 header 時退回 destination 解析
func (t *StompTransport) dispatch(frame *StompFrame) {
	var msg domain.ChatMessage
	if err := json.Unmarshal(frame.Body, &msg); err != nil {
		logger.Log.Error("inbound message unmarshal failed", zap.Error(err))
		return
	}

	t.mu.Lock()
	var handler MessageHandler
	subID := frame.Headers["subscription"]
	for convID, sub := range t.subs {
		if sub.id == subID || topicPrefix+strconv.FormatInt(convID, 10) == frame.Headers["destination"] {
			handler = sub.handler
			break
		}
	}
	t.mu.Unlock()

	if handler == nil {
		logger.Log.Debug("message for unknown subscription dropped", zap.Int64("conversation_id", msg.ConversationID))
		return
	}
	metrics.MessagesReceived.Inc()
	handler(msg)
}

// writeFrame caller 須持有 t.mu
func (t *StompTransport) writeFrame(f *StompFrame) error {
	if t.conn == nil {
		return domain.ErrTransportUnavailable
	}
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return t.conn.WriteMessage(websocket.TextMessage, f.Encode())
}

func writeFrameTo(conn *websocket.Conn, f *StompFrame) error {
	return conn.WriteMessage(websocket.TextMessage, f.Encode())
}

func subscribeFrame(conversationID int64, subID string) *StompFrame {
	return NewStompFrame(frameSubscribe, nil).
		Set("id", subID).
		Set("destination", topicPrefix+strconv.FormatInt(conversationID, 10))
}
