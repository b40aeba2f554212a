package app

import (
	"os"
	"testing"
	"time"

	"coaching_app_client/internal/chat/domain"
	"coaching_app_client/pkg/logger"

	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	dir, _ := os.MkdirTemp("", "chat_app_test")
	logger.Log = logger.Initialize("chat_app_test", dir)
	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

// 同一 id 從 echo 與 broadcast 兩條路徑進來只保留一筆
func TestMessageStore_AppendDeduplicatesByID(t *testing.T) {
	store := NewMessageStore(1)

	msg := domain.ChatMessage{ID: 101, ConversationID: 42, SenderID: 1, Content: "hello", CreatedAt: time.Now()}

	assert.True(t, store.Append(msg))
	assert.False(t, store.Append(msg))
	assert.Equal(t, 1, store.Len())
}

// 呈現到達序，不重排 createdAt
func TestMessageStore_ListKeepsArrivalOrder(t *testing.T) {
	store := NewMessageStore(1)

	later := domain.ChatMessage{ID: 2, SenderID: 9, Content: "second created, first arrived", CreatedAt: time.Now().Add(time.Minute)}
	earlier := domain.ChatMessage{ID: 1, SenderID: 1, Content: "first created, second arrived", CreatedAt: time.Now()}

	store.Append(later)
	store.Append(earlier)

	list := store.List()
	assert.Len(t, list, 2)
	assert.Equal(t, int64(2), list[0].ID)
	assert.Equal(t, int64(1), list[1].ID)
}

// fromMe 投影以 session principal 比對 sender
func TestMessageStore_ProjectionFromMe(t *testing.T) {
	store := NewMessageStore(1)

	store.Append(domain.ChatMessage{ID: 10, SenderID: 1, Content: "mine"})
	store.Append(domain.ChatMessage{ID: 11, SenderID: 2, Content: "theirs"})

	list := store.List()
	assert.True(t, list[0].FromMe)
	assert.False(t, list[1].FromMe)
	assert.Equal(t, "mine", list[0].Text)
}

// unmount 之後遲到的 append 不得改動 store
func TestMessageStore_UnmountGuardsLateAppend(t *testing.T) {
	store := NewMessageStore(1)
	store.Append(domain.ChatMessage{ID: 1, SenderID: 1, Content: "before close"})

	store.Unmount()

	assert.False(t, store.Append(domain.ChatMessage{ID: 2, SenderID: 2, Content: "after close"}))
	assert.Equal(t, 1, store.Len())
}
