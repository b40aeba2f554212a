package app

import (
	"coaching_app_client/internal/notification/domain"
	"coaching_app_client/internal/notification/repository"
	"coaching_app_client/pkg/logger"

	"go.uber.org/zap"
)

// AlertDispatcher 把 diff 出來的新通知轉成平台本地 alert
// 只能拿 diff 結果呼叫，不能拿整份 snapshot，否則同一則會重複跳 alert
type AlertDispatcher struct {
	scheduler repository.AlertScheduler
	popup     *BadgePopup
}

// NewAlertDispatcher create AlertDispatcher
func NewAlertDispatcher(scheduler repository.AlertScheduler, popup *BadgePopup) *AlertDispatcher {
	return &AlertDispatcher{
		scheduler: scheduler,
		popup:     popup,
	}
}

// Dispatch 每則新通知恰好排一個 alert；徽章類的另外進彈窗狀態機
func (d *AlertDispatcher) Dispatch(fresh []domain.Notification) {
	for _, n := range fresh {
		if err := d.scheduler.Schedule(repository.LocalAlert{
			Title:          n.Title,
			Body:           n.Content,
			NotificationID: n.ID,
		}); err != nil {
			logger.Log.Errorf("schedule local alert failed", err, zap.Int64("notification_id", n.ID))
		}

		if n.BadgeFlavored() && d.popup != nil {
			d.popup.Trigger(n)
		}
	}
}
