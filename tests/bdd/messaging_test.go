package bdd

import (
	"context"
	"fmt"
	"sync"
	"time"

	chatapp "coaching_app_client/internal/chat/app"
	chatdomain "coaching_app_client/internal/chat/domain"
	chatrepo "coaching_app_client/internal/chat/repository"
)

// fakeChatBackend in-memory 聊天後端，紀錄持久化的訊息
type fakeChatBackend struct {
	mu             sync.Mutex
	conversationID int64
	nextID         int64
	persisted      []chatdomain.ChatMessage
}

func (f *fakeChatBackend) GetOrCreateConversation(_ context.Context, userID, coachID int64) (*chatdomain.Conversation, error) {
	return &chatdomain.Conversation{ID: f.conversationID, UserID: userID, CoachID: coachID}, nil
}

func (f *fakeChatBackend) FetchMessages(_ context.Context, _ int64) ([]chatdomain.ChatMessage, error) {
	return nil, nil
}

func (f *fakeChatBackend) SendMessage(_ context.Context, conversationID, senderID int64, content string) (*chatdomain.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	msg := chatdomain.ChatMessage{
		ID:             100 + f.nextID,
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      time.Now(),
	}
	f.persisted = append(f.persisted, msg)
	return &msg, nil
}

// fakeLiveChannel in-process transport，Deliver 模擬 broker fan-out
type fakeLiveChannel struct {
	mu       sync.Mutex
	handlers map[int64]chatrepo.MessageHandler
}

func (f *fakeLiveChannel) Acquire() {}
func (f *fakeLiveChannel) Release() {}

func (f *fakeLiveChannel) Subscribe(conversationID int64, handler chatrepo.MessageHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[conversationID] = handler
	return nil
}

func (f *fakeLiveChannel) Unsubscribe(conversationID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.handlers, conversationID)
}

func (f *fakeLiveChannel) Publish(_ chatdomain.OutboundMessage) error { return nil }
func (f *fakeLiveChannel) Connected() bool                            { return true }

func (f *fakeLiveChannel) Deliver(conversationID int64, msg chatdomain.ChatMessage) {
	f.mu.Lock()
	handler := f.handlers[conversationID]
	f.mu.Unlock()
	if handler != nil {
		handler(msg)
	}
}

var (
	chatBackend    *fakeChatBackend
	liveChannel    *fakeLiveChannel
	conversationUC *chatapp.ConversationUseCase
	lastSent       chatdomain.ClientMessage
)

func resetMessagingState() {
	chatBackend = &fakeChatBackend{}
	liveChannel = &fakeLiveChannel{handlers: map[int64]chatrepo.MessageHandler{}}
	conversationUC = chatapp.NewConversationUseCase(chatBackend, liveChannel, currentSession)
	lastSent = chatdomain.ClientMessage{}
}

func theBackendResolvesConversation(_, _, conversationID int) error {
	chatBackend.conversationID = int64(conversationID)
	return nil
}

func memberOpensConversationWithCoach(_, coachID int) error {
	_, err := conversationUC.Open(context.Background(), int64(coachID))
	return err
}

func theOpenConversationIDShouldBe(expected int) error {
	if got := conversationUC.ConversationID(); got != int64(expected) {
		return fmt.Errorf("expected conversation %d, but got %d", expected, got)
	}
	return nil
}

func memberSends(_ int, content string) error {
	sent, err := conversationUC.Send(context.Background(), content)
	if err != nil {
		return err
	}
	lastSent = sent
	return nil
}

func theBackendShouldHavePersisted(content string, conversationID int) error {
	chatBackend.mu.Lock()
	defer chatBackend.mu.Unlock()
	for _, msg := range chatBackend.persisted {
		if msg.Content == content && msg.ConversationID == int64(conversationID) {
			return nil
		}
	}
	return fmt.Errorf("%q not persisted in conversation %d", content, conversationID)
}

func theMessageListShouldShowAsMine(content string) error {
	return findMessage(content, true)
}

func theMessageListShouldShowAsTheirs(content string) error {
	return findMessage(content, false)
}

func findMessage(content string, fromMe bool) error {
	for _, msg := range conversationUC.Messages() {
		if msg.Text == content && msg.FromMe == fromMe {
			return nil
		}
	}
	return fmt.Errorf("%q (fromMe=%v) not in message list", content, fromMe)
}

func theLiveChannelDeliversMessage(id int, content string, coachID int) error {
	liveChannel.Deliver(conversationUC.ConversationID(), chatdomain.ChatMessage{
		ID:             int64(id),
		ConversationID: conversationUC.ConversationID(),
		SenderID:       int64(coachID),
		Content:        content,
		CreatedAt:      time.Now(),
	})
	return nil
}

// broker 把自己發的訊息也回送一份，id 去重必須擋下
func theLiveChannelDeliversEcho() error {
	if lastSent.ID == 0 {
		return fmt.Errorf("no message sent yet")
	}
	liveChannel.Deliver(conversationUC.ConversationID(), chatdomain.ChatMessage{
		ID:             lastSent.ID,
		ConversationID: conversationUC.ConversationID(),
		SenderID:       currentSession.UserID,
		Content:        lastSent.Text,
		CreatedAt:      time.Now(),
	})
	return nil
}

func theMessageListShouldContain(expected int) error {
	if got := len(conversationUC.Messages()); got != expected {
		return fmt.Errorf("expected %d messages, but got %d", expected, got)
	}
	return nil
}
