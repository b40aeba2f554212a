package domain

import (
	"fmt"
	"strings"
	"time"
)

// badgeKeyword 徽章類通知的關鍵字啟發式(觀察到的後端沒有結構化 type 欄位)
const badgeKeyword = "badge"

// Notification 後端擁有的通知，client 只能切 read 旗標
type Notification struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Sender    string    `json:"sender"`
	CreatedAt time.Time `json:"created_at"`
	Read      bool      `json:"read"`
}

// BadgeFlavored title 或 content 含 "badge"(不分大小寫)時走彈窗動畫
func (n Notification) BadgeFlavored() bool {
	return strings.Contains(strings.ToLower(n.Title), badgeKeyword) ||
		strings.Contains(strings.ToLower(n.Content), badgeKeyword)
}

// AggregateBadge N 則待處理徽章通知的合成摘要(counter badge 點擊時用)
func AggregateBadge(count int) Notification {
	return Notification{
		Title:   "New badges earned",
		Content: fmt.Sprintf("You have %d new badge notifications", count),
	}
}

// Snapshot 最近一次 poll 取回的完整通知清單，整份換新不做合併
type Snapshot []Notification

// IDSet snapshot 內的 id 集合
func (s Snapshot) IDSet() map[int64]struct{} {
	set := make(map[int64]struct{}, len(s))
	for _, n := range s {
		set[n.ID] = struct{}{}
	}
	return set
}

// UnreadCount read=false 的數量，UI 的未讀 badge 必須等於這個值
func (s Snapshot) UnreadCount() int {
	count := 0
	for _, n := range s {
		if !n.Read {
			count++
		}
	}
	return count
}

// DiffNew 以 id 集合差集找出本次新出現的通知
// 通知建立後不可變，內容變化不視為新；read 切換由 client 驅動，也不算新
func (s Snapshot) DiffNew(prev Snapshot) []Notification {
	seen := prev.IDSet()
	var fresh []Notification
	for _, n := range s {
		if _, ok := seen[n.ID]; !ok {
			fresh = append(fresh, n)
		}
	}
	return fresh
}
