package app

import (
	"context"
	"sync"

	"coaching_app_client/internal/notification/domain"
	"coaching_app_client/internal/notification/repository"

	"github.com/stretchr/testify/mock"
)

// MockNotificationRepository Mock NotificationRepository
type MockNotificationRepository struct {
	mock.Mock
}

// FetchAll mock fetch full notification list
func (m *MockNotificationRepository) FetchAll(ctx context.Context, userID int64) ([]domain.Notification, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Notification), args.Error(1)
	}
	return nil, args.Error(1)
}

// UnreadCount mock backend unread count
func (m *MockNotificationRepository) UnreadCount(ctx context.Context, userID int64) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

// MarkRead mock mark single read
func (m *MockNotificationRepository) MarkRead(ctx context.Context, notificationID int64) error {
	args := m.Called(ctx, notificationID)
	return args.Error(0)
}

// MarkAllRead mock mark all read
func (m *MockNotificationRepository) MarkAllRead(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// RecordingScheduler 記下每個排程的 alert，斷言用
type RecordingScheduler struct {
	mu     sync.Mutex
	alerts []repository.LocalAlert
}

// Schedule record alert
func (s *RecordingScheduler) Schedule(alert repository.LocalAlert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, alert)
	return nil
}

// Alerts copy of recorded alerts
func (s *RecordingScheduler) Alerts() []repository.LocalAlert {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]repository.LocalAlert, len(s.alerts))
	copy(out, s.alerts)
	return out
}
