package app

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"coaching_app_client/internal/notification/domain"
	"coaching_app_client/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestMain(m *testing.M) {
	dir, _ := os.MkdirTemp("", "notification_app_test")
	logger.Log = logger.Initialize("notification_app_test", dir)
	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

func newTestPoller(repo *MockNotificationRepository) (*NotificationPoller, *RecordingScheduler) {
	scheduler := &RecordingScheduler{}
	dispatcher := NewAlertDispatcher(scheduler, nil)
	return NewNotificationPoller(repo, dispatcher, 7, time.Minute), scheduler
}

// 首次 poll 只建立基準 snapshot，歷史通知不出 alert
func TestNotificationPoller_FirstPollNeverAlerts(t *testing.T) {
	repo := new(MockNotificationRepository)
	poller, scheduler := newTestPoller(repo)

	repo.On("FetchAll", mock.Anything, int64(7)).Return([]domain.Notification{
		{ID: 5, Title: "old", Read: false},
	}, nil).Once()

	assert.NoError(t, poller.pollOnce())

	assert.Empty(t, scheduler.Alerts())
	assert.Equal(t, 1, poller.UnreadCount())
	assert.Len(t, poller.Snapshot(), 1)
}

// diff 單調性：每則通知恰好 alert 一次，重複 snapshot 不再觸發
func TestNotificationPoller_DiffMonotonic(t *testing.T) {
	repo := new(MockNotificationRepository)
	poller, scheduler := newTestPoller(repo)

	n1 := domain.Notification{ID: 1, Title: "first"}
	n2 := domain.Notification{ID: 2, Title: "second"}

	repo.On("FetchAll", mock.Anything, int64(7)).Return([]domain.Notification{}, nil).Once()
	repo.On("FetchAll", mock.Anything, int64(7)).Return([]domain.Notification{n1}, nil).Once()
	repo.On("FetchAll", mock.Anything, int64(7)).Return([]domain.Notification{n1, n2}, nil).Once()
	repo.On("FetchAll", mock.Anything, int64(7)).Return([]domain.Notification{n1, n2}, nil).Once()

	poller.pollOnce() // S0 = []
	poller.pollOnce() // S1 = [n1] -> alert n1
	poller.pollOnce() // S2 = [n1,n2] -> alert n2
	poller.pollOnce() // S2 unchanged -> no alert

	alerts := scheduler.Alerts()
	assert.Len(t, alerts, 2)
	assert.Equal(t, int64(1), alerts[0].NotificationID)
	assert.Equal(t, int64(2), alerts[1].NotificationID)
}

// 場景：poll#1 一則未讀不出 alert；poll#2 多了一則，恰好為 id=6 出一個 alert
func TestNotificationPoller_PollingScenario(t *testing.T) {
	repo := new(MockNotificationRepository)
	poller, scheduler := newTestPoller(repo)

	repo.On("FetchAll", mock.Anything, int64(7)).Return([]domain.Notification{
		{ID: 5, Title: "weekly check-in", Read: false},
	}, nil).Once()
	repo.On("FetchAll", mock.Anything, int64(7)).Return([]domain.Notification{
		{ID: 5, Title: "weekly check-in", Read: false},
		{ID: 6, Title: "coach replied", Read: false},
	}, nil).Once()

	poller.pollOnce()
	assert.Equal(t, 1, poller.UnreadCount())
	assert.Empty(t, scheduler.Alerts())

	poller.pollOnce()
	alerts := scheduler.Alerts()
	assert.Len(t, alerts, 1)
	assert.Equal(t, int64(6), alerts[0].NotificationID)
	assert.Equal(t, 2, poller.UnreadCount())
}

// poll 失敗沿用上一份 snapshot，不 diff、不 alert
func TestNotificationPoller_PollFailureRetainsSnapshot(t *testing.T) {
	repo := new(MockNotificationRepository)
	poller, scheduler := newTestPoller(repo)

	repo.On("FetchAll", mock.Anything, int64(7)).Return([]domain.Notification{
		{ID: 1, Title: "kept"},
	}, nil).Once()
	repo.On("FetchAll", mock.Anything, int64(7)).Return(nil, errors.New("timeout")).Once()

	poller.pollOnce()
	err := poller.pollOnce()

	assert.ErrorIs(t, err, domain.ErrPollFailed)
	assert.Len(t, poller.Snapshot(), 1)
	assert.Empty(t, scheduler.Alerts())
}

// read-all 之後未讀數歸零
func TestNotificationPoller_MarkAllRead(t *testing.T) {
	repo := new(MockNotificationRepository)
	poller, _ := newTestPoller(repo)

	repo.On("FetchAll", mock.Anything, int64(7)).Return([]domain.Notification{
		{ID: 1, Read: false},
		{ID: 2, Read: false},
	}, nil).Once()
	repo.On("MarkAllRead", mock.Anything, int64(7)).Return(nil)

	poller.pollOnce()
	assert.Equal(t, 2, poller.UnreadCount())

	assert.NoError(t, poller.MarkAllRead(context.Background()))
	assert.Equal(t, 0, poller.UnreadCount())
	repo.AssertExpectations(t)
}

// 單則 mark read 失敗時樂觀狀態要還原
func TestNotificationPoller_MarkReadFailureReverts(t *testing.T) {
	repo := new(MockNotificationRepository)
	poller, _ := newTestPoller(repo)

	repo.On("FetchAll", mock.Anything, int64(7)).Return([]domain.Notification{
		{ID: 1, Read: false},
	}, nil).Once()
	repo.On("MarkRead", mock.Anything, int64(1)).Return(errors.New("409"))

	poller.pollOnce()
	err := poller.MarkRead(context.Background(), 1)

	assert.ErrorIs(t, err, domain.ErrMarkReadFailed)
	assert.Equal(t, 1, poller.UnreadCount())
}

// 後端未讀數透傳；失敗時回報 PollFailed，本地 badge 不受影響
func TestNotificationPoller_RemoteUnreadCount(t *testing.T) {
	repo := new(MockNotificationRepository)
	poller, _ := newTestPoller(repo)

	repo.On("UnreadCount", mock.Anything, int64(7)).Return(3, nil).Once()

	count, err := poller.RemoteUnreadCount(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 3, count)

	repo.On("UnreadCount", mock.Anything, int64(7)).Return(0, errors.New("timeout")).Once()

	_, err = poller.RemoteUnreadCount(context.Background())
	assert.ErrorIs(t, err, domain.ErrPollFailed)
	repo.AssertExpectations(t)
}

// Refresh 走同一條 poll 路徑(手動觸發)
func TestNotificationPoller_StartStopAndRefresh(t *testing.T) {
	repo := new(MockNotificationRepository)
	poller, scheduler := newTestPoller(repo)

	repo.On("FetchAll", mock.Anything, int64(7)).Return([]domain.Notification{}, nil).Once()
	repo.On("FetchAll", mock.Anything, int64(7)).Return([]domain.Notification{{ID: 9, Title: "fresh"}}, nil)

	poller.Start()
	defer poller.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for len(poller.Snapshot()) == 0 && time.Now().Before(deadline) {
		poller.Refresh()
		time.Sleep(10 * time.Millisecond)
	}

	assert.Len(t, poller.Snapshot(), 1)
	alerts := scheduler.Alerts()
	assert.Len(t, alerts, 1)
	assert.Equal(t, int64(9), alerts[0].NotificationID)
}
