package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"coaching_app_client/internal/chat/domain"
	errprocess "coaching_app_client/pkg/err"
	"coaching_app_client/pkg/session"
)

// ConversationRepository 後端聊天 REST API 的存取介面
type ConversationRepository interface {
	GetOrCreateConversation(ctx context.Context, userID, coachID int64) (*domain.Conversation, error)
	FetchMessages(ctx context.Context, conversationID int64) ([]domain.ChatMessage, error)
	SendMessage(ctx context.Context, conversationID, senderID int64, content string) (*domain.ChatMessage, error)
}

// ChatAPIRepository REST 實作，持久化永遠走這條路徑
type ChatAPIRepository struct {
	baseURL string
	session *session.Session
	client  *http.Client
}

// NewChatAPIRepository create ChatAPIRepository
func NewChatAPIRepository(baseURL string, s *session.Session, timeout time.Duration) *ChatAPIRepository {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ChatAPIRepository{
		baseURL: baseURL,
		session: s,
		client:  &http.Client{Timeout: timeout},
	}
}

// GetOrCreateConversation 取得(或建立)兩位參與者的 conversation id
func (r *ChatAPIRepository) GetOrCreateConversation(ctx context.Context, userID, coachID int64) (*domain.Conversation, error) {
	q := url.Values{}
	q.Set("userId", strconv.FormatInt(userID, 10))
	q.Set("coachId", strconv.FormatInt(coachID, 10))

	var conv domain.Conversation
	if err := r.do(ctx, http.MethodPost, "/conversations/getOrCreate", q, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// FetchMessages 取回 conversation 的完整歷史(時間序)
func (r *ChatAPIRepository) FetchMessages(ctx context.Context, conversationID int64) ([]domain.ChatMessage, error) {
	var msgs []domain.ChatMessage
	path := fmt.Sprintf("/conversations/%d/messages", conversationID)
	if err := r.do(ctx, http.MethodGet, path, nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// SendMessage 持久化一則訊息，回傳後端確認(含 server-assigned id)的訊息
func (r *ChatAPIRepository) SendMessage(ctx context.Context, conversationID, senderID int64, content string) (*domain.ChatMessage, error) {
	q := url.Values{}
	q.Set("senderId", strconv.FormatInt(senderID, 10))
	q.Set("content", content)

	var msg domain.ChatMessage
	path := fmt.Sprintf("/conversations/%d/sendMessage", conversationID)
	if err := r.do(ctx, http.MethodPost, path, q, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// do 發出帶 bearer token 的 JSON 請求
func (r *ChatAPIRepository) do(ctx context.Context, method, path string, query url.Values, out interface{}) error {
	u := r.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", r.session.Authorization())
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		errMsg := fmt.Sprintf("%s %s: status %d: %s", method, path, resp.StatusCode, string(body))
		return errprocess.Set(errMsg)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
