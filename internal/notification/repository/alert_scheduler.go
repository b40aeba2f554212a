package repository

import (
	"coaching_app_client/pkg/logger"

	"go.uber.org/zap"
)

// LocalAlert 丟給平台通知介面的 payload
// NotificationID 必須跟著 round-trip，點擊後才能 mark-as-read 回到來源通知
type LocalAlert struct {
	Title          string `json:"title"`
	Body           string `json:"body"`
	NotificationID int64  `json:"notification_id"`
}

// AlertScheduler 平台本地通知的介面(fire-and-forget，立即觸發)
type AlertScheduler interface {
	Schedule(alert LocalAlert) error
}

// AlertSink 實際送出通知的出口(gateway 的 UI push 等)
type AlertSink func(alert LocalAlert)

// LocalAlertScheduler 把 alert 轉交給掛上來的 sink
type LocalAlertScheduler struct {
	sinks []AlertSink
}

// NewLocalAlertScheduler create LocalAlertScheduler
func NewLocalAlertScheduler(sinks ...AlertSink) *LocalAlertScheduler {
	return &LocalAlertScheduler{sinks: sinks}
}

// AddSink 追加一個出口
func (s *LocalAlertScheduler) AddSink(sink AlertSink) {
	s.sinks = append(s.sinks, sink)
}

// Schedule fire-and-forget 送出本地通知
func (s *LocalAlertScheduler) Schedule(alert LocalAlert) error {
	logger.Log.Info("local alert scheduled",
		zap.Int64("notification_id", alert.NotificationID),
		zap.String("title", alert.Title),
	)
	for _, sink := range s.sinks {
		sink(alert)
	}
	return nil
}
