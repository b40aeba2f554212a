package app

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"coaching_app_client/internal/chat/domain"
	"coaching_app_client/internal/chat/repository"
	"coaching_app_client/pkg/logger"
	"coaching_app_client/pkg/metrics"
	"coaching_app_client/pkg/session"

	"go.uber.org/zap"
)

// ConversationUseCase 負責 conversation 的解析、live channel 與收發訊息
type ConversationUseCase struct {
	repo      repository.ConversationRepository
	transport repository.MessageTransport
	session   *session.Session

	mu             sync.Mutex
	conversationID int64
	store          *MessageStore

	// UI push callback，inbound 訊息進 store 後通知前端
	onMessage func(domain.ClientMessage)
}

// NewConversationUseCase create ConversationUseCase
func NewConversationUseCase(
	repo repository.ConversationRepository,
	transport repository.MessageTransport,
	s *session.Session,
) *ConversationUseCase {
	return &ConversationUseCase{
		repo:      repo,
		transport: transport,
		session:   s,
	}
}

// SetMessageListener 註冊 inbound 訊息的 UI 回呼
func (uc *ConversationUseCase) SetMessageListener(fn func(domain.ClientMessage)) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.onMessage = fn
}

// Open 解析(或建立) conversation、訂閱 topic 並載入歷史
// 同一 conversation 重複開啟為 no-op；開啟新的會先拆掉舊的
func (uc *ConversationUseCase) Open(ctx context.Context, peerID int64) ([]domain.ClientMessage, error) {
	// 參與者對依角色排定 userId/coachId，後端以無序對決定 id
	userID, coachID := uc.session.UserID, peerID
	if uc.session.IsCoach() {
		userID, coachID = peerID, uc.session.UserID
	}

	conv, err := uc.repo.GetOrCreateConversation(ctx, userID, coachID)
	if err != nil {
		logger.Log.Errorf("conversation resolve failed", err, zap.Int64("peer_id", peerID))
		return nil, fmt.Errorf("%w: %v", domain.ErrResolutionFailed, err)
	}
	if conv == nil || conv.ID <= 0 {
		return nil, domain.ErrResolutionFailed
	}

	uc.mu.Lock()
	if uc.conversationID == conv.ID && uc.store != nil {
		list := uc.store.List()
		uc.mu.Unlock()
		return list, nil
	}
	uc.closeLocked()

	store := NewMessageStore(uc.session.UserID)
	uc.conversationID = conv.ID
	uc.store = store
	uc.mu.Unlock()

	uc.transport.Acquire()
	if err := uc.transport.Subscribe(conv.ID, func(msg domain.ChatMessage) {
		uc.handleInbound(conv.ID, store, msg)
	}); err != nil {
		// 訂閱失敗只降級，send 仍走 REST
		logger.Log.Warn("live subscription unavailable", zap.Int64("conversation_id", conv.ID), zap.Error(err))
	}

	history, err := uc.repo.FetchMessages(ctx, conv.ID)
	if err != nil {
		uc.mu.Lock()
		uc.closeLocked()
		uc.mu.Unlock()
		logger.Log.Errorf("history load failed", err, zap.Int64("conversation_id", conv.ID))
		return nil, fmt.Errorf("%w: %v", domain.ErrHistoryLoadFailed, err)
	}

	// 歷史先於任何 live append，以後端時間序進 store
	for _, m := range history {
		store.Append(m)
	}
	return store.List(), nil
}

// Send 驗證內容、REST 持久化、echo 進 store、再 best-effort 發佈
// REST 失敗不得動到 store；publish 失敗僅記錄(對方重載歷史可補)
func (uc *ConversationUseCase) Send(ctx context.Context, content string) (domain.ClientMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return domain.ClientMessage{}, domain.ErrEmptyContent
	}

	uc.mu.Lock()
	convID := uc.conversationID
	store := uc.store
	uc.mu.Unlock()
	if convID == 0 || store == nil {
		return domain.ClientMessage{}, domain.ErrNoConversation
	}

	msg, err := uc.repo.SendMessage(ctx, convID, uc.session.UserID, content)
	if err != nil {
		logger.Log.Errorf("message send failed", err, zap.Int64("conversation_id", convID))
		return domain.ClientMessage{}, fmt.Errorf("%w: %v", domain.ErrSendFailed, err)
	}
	metrics.MessagesSent.Inc()

	// server-confirmed echo；id 去重擋下 broker 若有的回送
	store.Append(*msg)

	if err := uc.transport.Publish(domain.OutboundMessage{
		ConversationID: convID,
		SenderID:       uc.session.UserID,
		Content:        content,
	}); err != nil {
		logger.Log.Warn("broadcast skipped", zap.Int64("conversation_id", convID), zap.Error(err))
	}

	return msg.Projection(uc.session.UserID), nil
}

// Messages 當前 store 的到達序投影
func (uc *ConversationUseCase) Messages() []domain.ClientMessage {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if uc.store == nil {
		return nil
	}
	return uc.store.List()
}

// ConversationID 當前開啟的 conversation，0 表示沒有
func (uc *ConversationUseCase) ConversationID() int64 {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.conversationID
}

// Close 離開 conversation view：退訂、釋放 transport、拆 store
func (uc *ConversationUseCase) Close() {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.closeLocked()
}

// closeLocked caller 須持有 uc.mu
func (uc *ConversationUseCase) closeLocked() {
	if uc.conversationID == 0 {
		return
	}
	uc.transport.Unsubscribe(uc.conversationID)
	uc.transport.Release()
	if uc.store != nil {
		uc.store.Unmount()
	}
	uc.conversationID = 0
	uc.store = nil
}

// handleInbound live 訊息進 store；不屬於當前 conversation 的直接丟棄
func (uc *ConversationUseCase) handleInbound(convID int64, store *MessageStore, msg domain.ChatMessage) {
	if msg.ConversationID != 0 && msg.ConversationID != convID {
		return
	}
	if !store.Append(msg) {
		return
	}

	uc.mu.Lock()
	fn := uc.onMessage
	uc.mu.Unlock()
	if fn != nil {
		fn(msg.Projection(uc.session.UserID))
	}
}
