package app

import (
	"sync"
	"time"

	"coaching_app_client/internal/notification/domain"
)

// PopupListener 狀態變化回呼(推給 UI 播動畫)
type PopupListener func(state domain.PopupState, source *domain.Notification)

// BadgePopup 徽章彈窗狀態機
// Idle -> Animating -> Shown -> Dismissing -> Idle
// 同時最多一個實例；Shown 中再觸發會換掉來源並重播動畫，不疊彈窗
type BadgePopup struct {
	entrance time.Duration
	dismiss  time.Duration

	mu       sync.Mutex
	state    domain.PopupState
	source   *domain.Notification
	gen      int // 換來源/重播時遞增，擋下過期 timer 的轉移
	listener PopupListener
}

// NewBadgePopup create BadgePopup with animation durations
func NewBadgePopup(entrance, dismiss time.Duration) *BadgePopup {
	if entrance <= 0 {
		entrance = 600 * time.Millisecond
	}
	if dismiss <= 0 {
		dismiss = 300 * time.Millisecond
	}
	return &BadgePopup{
		entrance: entrance,
		dismiss:  dismiss,
		state:    domain.PopupIdle,
	}
}

// SetListener 註冊狀態回呼
func (p *BadgePopup) SetListener(fn PopupListener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listener = fn
}

// Trigger 進場：Idle 起播，Animating/Shown 換來源重播
func (p *BadgePopup) Trigger(n domain.Notification) {
	p.mu.Lock()
	p.gen++
	gen := p.gen
	p.state = domain.PopupAnimating
	p.source = &n
	p.notifyLocked()
	p.mu.Unlock()

	time.AfterFunc(p.entrance, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.gen != gen || p.state != domain.PopupAnimating {
			return
		}
		p.state = domain.PopupShown
		p.notifyLocked()
	})
}

// TriggerAggregate counter badge 點擊時以合成摘要觸發
func (p *BadgePopup) TriggerAggregate(count int) {
	p.Trigger(domain.AggregateBadge(count))
}

// Dismiss 明確關閉(點外面、關閉鈕)，僅在 Shown 有效
func (p *BadgePopup) Dismiss() {
	p.mu.Lock()
	if p.state != domain.PopupShown {
		p.mu.Unlock()
		return
	}
	p.gen++
	gen := p.gen
	p.state = domain.PopupDismissing
	p.notifyLocked()
	p.mu.Unlock()

	time.AfterFunc(p.dismiss, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.gen != gen || p.state != domain.PopupDismissing {
			return
		}
		p.state = domain.PopupIdle
		p.source = nil
		p.notifyLocked()
	})
}

// State current popup state
func (p *BadgePopup) State() domain.PopupState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Alert 當前彈窗的 view state
func (p *BadgePopup) Alert() domain.BadgeAlert {
	p.mu.Lock()
	defer p.mu.Unlock()
	return domain.BadgeAlert{
		SourceNotification: p.source,
		Visible:            p.state == domain.PopupAnimating || p.state == domain.PopupShown,
	}
}

// notifyLocked caller 須持有 p.mu
func (p *BadgePopup) notifyLocked() {
	if p.listener != nil {
		p.listener(p.state, p.source)
	}
}
