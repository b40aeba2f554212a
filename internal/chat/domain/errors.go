package domain

import "errors"

var (
	// ErrResolutionFailed conversation get-or-create 未取得可用 id
	ErrResolutionFailed = errors.New("conversation resolution failed")

	// ErrSendFailed REST 寫入失敗，訊息不得進入本地 store
	ErrSendFailed = errors.New("message send failed")

	// ErrHistoryLoadFailed 解析成功但歷史載入失敗，channel 已拆除
	ErrHistoryLoadFailed = errors.New("history load failed")

	// ErrTransportUnavailable live channel 未連線，僅降級不致命
	ErrTransportUnavailable = errors.New("live transport unavailable")

	// ErrEmptyContent 訊息內容 trim 後為空
	ErrEmptyContent = errors.New("message content is empty")

	// ErrNoConversation 尚未開啟任何 conversation
	ErrNoConversation = errors.New("no open conversation")
)
