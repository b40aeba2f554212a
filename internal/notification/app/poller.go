package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"coaching_app_client/internal/notification/domain"
	"coaching_app_client/internal/notification/repository"
	"coaching_app_client/pkg/logger"
	"coaching_app_client/pkg/metrics"

	"go.uber.org/zap"
)

// fetchTimeout 單次 poll 的上限
const fetchTimeout = 15 * time.Second

// NotificationPoller 定期(或手動觸發)拉取完整通知清單並對前一份 snapshot 做 diff
// 後端沒有 since cursor，novelty 是 session 相對的：首次 poll 不產生任何 alert
type NotificationPoller struct {
	repo       repository.NotificationRepository
	dispatcher *AlertDispatcher
	userID     int64
	interval   time.Duration

	mu       sync.Mutex
	snapshot domain.Snapshot
	primed   bool
	running  bool
	stopCh   chan struct{}

	// 手動觸發(screen focus / pull-to-refresh)
	triggerCh chan struct{}

	// snapshot 換新後的 UI 回呼
	onSnapshot func(domain.Snapshot)
}

// NewNotificationPoller create NotificationPoller
func NewNotificationPoller(
	repo repository.NotificationRepository,
	dispatcher *AlertDispatcher,
	userID int64,
	interval time.Duration,
) *NotificationPoller {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &NotificationPoller{
		repo:       repo,
		dispatcher: dispatcher,
		userID:     userID,
		interval:   interval,
		triggerCh:  make(chan struct{}, 1),
	}
}

// SetSnapshotListener 註冊 snapshot 換新的 UI 回呼
func (p *NotificationPoller) SetSnapshotListener(fn func(domain.Snapshot)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onSnapshot = fn
}

// Start 啟動輪詢迴圈，重複呼叫為 no-op
// timer 是單例，unmount 時 Stop 清掉，避免重疊輪詢
func (p *NotificationPoller) Start() {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.stopCh = make(chan struct{})
	stop := p.stopCh
	p.mu.Unlock()

	go p.loop(stop)
}

// Stop 停止輪詢
func (p *NotificationPoller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.running = false
	close(p.stopCh)
}

// Refresh 立即觸發一次 poll(screen focus、下拉更新)，滿了就丟掉不阻塞
func (p *NotificationPoller) Refresh() {
	select {
	case p.triggerCh <- struct{}{}:
	default:
	}
}

func (p *NotificationPoller) loop(stop chan struct{}) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// 啟動先拉一次(首份 snapshot，不出 alert)
	p.pollOnce()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.pollOnce()
		case <-p.triggerCh:
			p.pollOnce()
		}
	}
}

// pollOnce 單次 poll：fetch -> diff -> 換 snapshot -> dispatch
func (p *NotificationPoller) pollOnce() error {
	metrics.PollTotal.Inc()

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	list, err := p.repo.FetchAll(ctx, p.userID)
	if err != nil {
		// 失敗就沿用上一份 snapshot，不 diff，避免假的「全部消失/全部新增」
		metrics.PollFailures.Inc()
		logger.Log.Warn("notification poll failed, snapshot retained", zap.Error(err))
		return fmt.Errorf("%w: %v", domain.ErrPollFailed, err)
	}

	current := domain.Snapshot(list)

	p.mu.Lock()
	var fresh []domain.Notification
	if p.primed {
		fresh = current.DiffNew(p.snapshot)
	} else {
		// session 首份 snapshot：歷史通知不合成 alert
		p.primed = true
	}
	p.snapshot = current
	onSnapshot := p.onSnapshot
	p.mu.Unlock()

	metrics.UnreadGauge.Set(float64(current.UnreadCount()))

	if len(fresh) > 0 {
		metrics.NewNotifications.Add(float64(len(fresh)))
		p.dispatcher.Dispatch(fresh)
	}
	if onSnapshot != nil {
		onSnapshot(current)
	}
	return nil
}

// Snapshot 最近一次成功 poll 的清單
func (p *NotificationPoller) Snapshot() domain.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(domain.Snapshot, len(p.snapshot))
	copy(out, p.snapshot)
	return out
}

// UnreadCount 未讀 badge 數 == snapshot 中 read=false 的數量
func (p *NotificationPoller) UnreadCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot.UnreadCount()
}

// RemoteUnreadCount 透傳後端計算的未讀數；badge 顯示仍以本地 snapshot 重算為準
func (p *NotificationPoller) RemoteUnreadCount(ctx context.Context) (int, error) {
	count, err := p.repo.UnreadCount(ctx, p.userID)
	if err != nil {
		logger.Log.Warn("backend unread count unavailable", zap.Error(err))
		return 0, fmt.Errorf("%w: %v", domain.ErrPollFailed, err)
	}
	return count, nil
}

// MarkRead 樂觀切 read 旗標；後端失敗就還原，下一次 poll 會再校正
func (p *NotificationPoller) MarkRead(ctx context.Context, notificationID int64) error {
	p.toggleRead(notificationID, true)

	if err := p.repo.MarkRead(ctx, notificationID); err != nil {
		p.toggleRead(notificationID, false)
		logger.Log.Errorf("mark read failed", err, zap.Int64("notification_id", notificationID))
		return fmt.Errorf("%w: %v", domain.ErrMarkReadFailed, err)
	}
	return nil
}

// MarkAllRead 全部標記已讀
func (p *NotificationPoller) MarkAllRead(ctx context.Context) error {
	p.mu.Lock()
	before := make(domain.Snapshot, len(p.snapshot))
	copy(before, p.snapshot)
	for i := range p.snapshot {
		p.snapshot[i].Read = true
	}
	p.mu.Unlock()

	if err := p.repo.MarkAllRead(ctx, p.userID); err != nil {
		p.mu.Lock()
		p.snapshot = before
		p.mu.Unlock()
		logger.Log.Errorf("mark all read failed", err)
		return fmt.Errorf("%w: %v", domain.ErrMarkReadFailed, err)
	}

	metrics.UnreadGauge.Set(0)
	return nil
}

func (p *NotificationPoller) toggleRead(notificationID int64, read bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.snapshot {
		if p.snapshot[i].ID == notificationID {
			p.snapshot[i].Read = read
			break
		}
	}
}
