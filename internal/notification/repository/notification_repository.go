package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"coaching_app_client/internal/notification/domain"
	errprocess "coaching_app_client/pkg/err"
	"coaching_app_client/pkg/session"
)

// NotificationRepository 後端通知 REST API 的存取介面
type NotificationRepository interface {
	FetchAll(ctx context.Context, userID int64) ([]domain.Notification, error)
	UnreadCount(ctx context.Context, userID int64) (int, error)
	MarkRead(ctx context.Context, notificationID int64) error
	MarkAllRead(ctx context.Context, userID int64) error
}

// NotificationAPIRepository REST 實作
// 後端沒有 since cursor，每次都取完整清單，由 client 端做 diff
type NotificationAPIRepository struct {
	baseURL string
	session *session.Session
	client  *http.Client
}

// NewNotificationAPIRepository create NotificationAPIRepository
func NewNotificationAPIRepository(baseURL string, s *session.Session, timeout time.Duration) *NotificationAPIRepository {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &NotificationAPIRepository{
		baseURL: baseURL,
		session: s,
		client:  &http.Client{Timeout: timeout},
	}
}

// FetchAll 取回使用者的完整通知清單
func (r *NotificationAPIRepository) FetchAll(ctx context.Context, userID int64) ([]domain.Notification, error) {
	var list []domain.Notification
	path := fmt.Sprintf("/notifications/user/%d", userID)
	if err := r.do(ctx, http.MethodGet, path, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// UnreadCount 後端計算的未讀數
func (r *NotificationAPIRepository) UnreadCount(ctx context.Context, userID int64) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	path := fmt.Sprintf("/notifications/user/%d/unread-count", userID)
	if err := r.do(ctx, http.MethodGet, path, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// MarkRead 單則通知標記已讀
func (r *NotificationAPIRepository) MarkRead(ctx context.Context, notificationID int64) error {
	path := fmt.Sprintf("/notifications/%d/read", notificationID)
	return r.do(ctx, http.MethodPut, path, nil)
}

// MarkAllRead 全部標記已讀
func (r *NotificationAPIRepository) MarkAllRead(ctx context.Context, userID int64) error {
	path := fmt.Sprintf("/notifications/user/%d/read-all", userID)
	return r.do(ctx, http.MethodPut, path, nil)
}

func (r *NotificationAPIRepository) do(ctx context.Context, method, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, nil)
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
