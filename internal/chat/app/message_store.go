package app

import (
	"sync"

	"coaching_app_client/internal/chat/domain"
)

// MessageStore 當前開啟 conversation 的訊息序列
// append-only、以 message id 去重、呈現到達序
// 切換 conversation 時整個丟棄重建，不做部分合併
type MessageStore struct {
	selfID int64

	mu      sync.Mutex
	order   []int64
	byID    map[int64]domain.ChatMessage
	mounted bool
}

// NewMessageStore create MessageStore for the session principal
func NewMessageStore(selfID int64) *MessageStore {
	return &MessageStore{
		selfID:  selfID,
		byID:    map[int64]domain.ChatMessage{},
		mounted: true,
	}
}

// Append set-insert by message id
// 同一則訊息從 echo 與 broadcast 兩條路徑到達時，第二次為 no-op
// unmount 之後一律 no-op，遲到的 in-flight 回應不得改動已拆除的 store
func (s *MessageStore) Append(msg domain.ChatMessage) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.mounted {
		return false
	}
	if _, ok := s.byID[msg.ID]; ok {
		return false
	}
	s.byID[msg.ID] = msg
	s.order = append(s.order, msg.ID)
	return true
}

// List 依到達序回傳 UI 投影
func (s *MessageStore) List() []domain.ClientMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.ClientMessage, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id].Projection(s.selfID))
	}
	return out
}

// Len count of stored messages
func (s *MessageStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// Unmount 關閉 conversation view 時拆除 store
func (s *MessageStore) Unmount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mounted = false
}
