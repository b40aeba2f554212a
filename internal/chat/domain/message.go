package domain

import "time"

// Conversation 表示 user 與 coach 的 1對1 聊天脈絡
// id 由後端以無序參與者對決定，同一對人永遠解析到同一個 id
type Conversation struct {
	ID      int64 `json:"id"`
	UserID  int64 `json:"user_id"`
	CoachID int64 `json:"coach_id"`
}

// ChatMessage 表示一則後端已持久化的聊天訊息
type ChatMessage struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	SenderID       int64     `json:"sender_id"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// ClientMessage UI 用的投影，不落地
type ClientMessage struct {
	ID     int64  `json:"id"`
	Text   string `json:"text"`
	FromMe bool   `json:"from_me"`
}

// OutboundMessage 發佈到 live channel 的 payload
// 帶 sender id，接收端一律以 message id 去重，不依賴 broker 不回送
type OutboundMessage struct {
	ConversationID int64  `json:"conversationId"`
	SenderID       int64  `json:"senderId"`
	Content        string `json:"content"`
}

// Projection derive ClientMessage by comparing sender to the session principal
func (m ChatMessage) Projection(selfID int64) ClientMessage {
	return ClientMessage{
		ID:     m.ID,
		Text:   m.Content,
		FromMe: m.SenderID == selfID,
	}
}
