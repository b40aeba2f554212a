package domain

import "errors"

var (
	// ErrPollFailed 本次 fetch 失敗，沿用上一份 snapshot，不做 diff
	ErrPollFailed = errors.New("notification poll failed")

	// ErrMarkReadFailed read 旗標寫入失敗，樂觀狀態已還原
	ErrMarkReadFailed = errors.New("mark notification read failed")
)
