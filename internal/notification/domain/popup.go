package domain

// PopupState badge 彈窗動畫狀態機的狀態
type PopupState int

const (
	// PopupIdle 無彈窗
	PopupIdle PopupState = iota
	// PopupAnimating 進場動畫中(scale + fade + icon spin + pulse)
	PopupAnimating
	// PopupShown 動畫完成，彈窗可互動
	PopupShown
	// PopupDismissing 退場淡出中
	PopupDismissing
)

// String state name for logs & UI events
func (s PopupState) String() string {
	switch s {
	case PopupIdle:
		return "idle"
	case PopupAnimating:
		return "animating"
	case PopupShown:
		return "shown"
	case PopupDismissing:
		return "dismissing"
	default:
		return "unknown"
	}
}

// BadgeAlert 彈窗的瞬態 view state，dismiss 後銷毀
type BadgeAlert struct {
	SourceNotification *Notification `json:"source_notification"`
	Visible            bool          `json:"visible"`
}
