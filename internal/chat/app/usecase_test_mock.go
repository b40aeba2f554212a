package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"coaching_app_client/internal/chat/domain"
	"coaching_app_client/internal/chat/repository"
	"coaching_app_client/pkg/session"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/mock"
)

// MockConversationRepository Mock ConversationRepository
type MockConversationRepository struct {
	mock.Mock
}

// GetOrCreateConversation mock resolve conversation id
func (m *MockConversationRepository) GetOrCreateConversation(ctx context.Context, userID, coachID int64) (*domain.Conversation, error) {
	args := m.Called(ctx, userID, coachID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

// FetchMessages mock load history
func (m *MockConversationRepository) FetchMessages(ctx context.Context, conversationID int64) ([]domain.ChatMessage, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.ChatMessage), args.Error(1)
	}
	return nil, args.Error(1)
}

// SendMessage mock persist message
func (m *MockConversationRepository) SendMessage(ctx context.Context, conversationID, senderID int64, content string) (*domain.ChatMessage, error) {
	args := m.Called(ctx, conversationID, senderID, content)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.ChatMessage), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockMessageTransport Mock MessageTransport，保留 handler 以便模擬 broadcast
type MockMessageTransport struct {
	mock.Mock

	mu       sync.Mutex
	handlers map[int64]repository.MessageHandler
}

// Acquire mock acquire
func (m *MockMessageTransport) Acquire() {
	m.Called()
}

// Release mock release
func (m *MockMessageTransport) Release() {
	m.Called()
}

// Subscribe mock subscribe，登記 handler
func (m *MockMessageTransport) Subscribe(conversationID int64, handler repository.MessageHandler) error {
	m.mu.Lock()
	if m.handlers == nil {
		m.handlers = map[int64]repository.MessageHandler{}
	}
	m.handlers[conversationID] = handler
	m.mu.Unlock()

	args := m.Called(conversationID)
	return args.Error(0)
}

// Unsubscribe mock unsubscribe
func (m *MockMessageTransport) Unsubscribe(conversationID int64) {
	m.mu.Lock()
	delete(m.handlers, conversationID)
	m.mu.Unlock()
	m.Called(conversationID)
}

// Publish mock publish
func (m *MockMessageTransport) Publish(msg domain.OutboundMessage) error {
	args := m.Called(msg)
	return args.Error(0)
}

// Connected mock connected
func (m *MockMessageTransport) Connected() bool {
	args := m.Called()
	return args.Bool(0)
}

// Deliver 模擬 broker 推送一則 inbound 訊息
func (m *MockMessageTransport) Deliver(conversationID int64, msg domain.ChatMessage) {
	m.mu.Lock()
	handler := m.handlers[conversationID]
	m.mu.Unlock()
	if handler != nil {
		handler(msg)
	}
}

// newTestSession 以真實 JWT 建立測試 session
func newTestSession(t *testing.T, userID int64, role string) *session.Session {
	t.Helper()

	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	tokenStr, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test_secret"))
	if err != nil {
		t.Fatalf("sign test token: %v", err)
	}

	s, err := session.New(tokenStr)
	if err != nil {
		t.Fatalf("parse test token: %v", err)
	}
	return s
}
