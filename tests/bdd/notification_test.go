package bdd

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	notiapp "coaching_app_client/internal/notification/app"
	notidomain "coaching_app_client/internal/notification/domain"
	notirepo "coaching_app_client/internal/notification/repository"
)

// fakeNotificationBackend 可替換清單的通知後端
type fakeNotificationBackend struct {
	mu   sync.Mutex
	list []notidomain.Notification
}

func (f *fakeNotificationBackend) setList(list []notidomain.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.list = list
}

func (f *fakeNotificationBackend) FetchAll(_ context.Context, _ int64) ([]notidomain.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]notidomain.Notification, len(f.list))
	copy(out, f.list)
	return out, nil
}

func (f *fakeNotificationBackend) UnreadCount(_ context.Context, _ int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, n := range f.list {
		if !n.Read {
			count++
		}
	}
	return count, nil
}

func (f *fakeNotificationBackend) MarkRead(_ context.Context, _ int64) error    { return nil }
func (f *fakeNotificationBackend) MarkAllRead(_ context.Context, _ int64) error { return nil }

// recordingAlertScheduler 紀錄排程過的 alert
type recordingAlertScheduler struct {
	mu     sync.Mutex
	alerts []notirepo.LocalAlert
}

func (r *recordingAlertScheduler) Schedule(alert notirepo.LocalAlert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, alert)
	return nil
}

func (r *recordingAlertScheduler) scheduledIDs() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int64, 0, len(r.alerts))
	for _, a := range r.alerts {
		ids = append(ids, a.NotificationID)
	}
	return ids
}

var (
	notiBackend   *fakeNotificationBackend
	alertRecorder *recordingAlertScheduler
	badgePopup    *notiapp.BadgePopup
	poller        *notiapp.NotificationPoller
	snapshotCh    chan notidomain.Snapshot
	pollerStarted bool
)

func resetNotificationState() {
	if poller != nil && pollerStarted {
		poller.Stop()
	}
	notiBackend = &fakeNotificationBackend{}
	alertRecorder = &recordingAlertScheduler{}
	badgePopup = notiapp.NewBadgePopup(5*time.Millisecond, 5*time.Millisecond)
	dispatcher := notiapp.NewAlertDispatcher(alertRecorder, badgePopup)
	poller = notiapp.NewNotificationPoller(notiBackend, dispatcher, currentSession.UserID, time.Hour)
	snapshotCh = make(chan notidomain.Snapshot, 4)
	ch := snapshotCh
	poller.SetSnapshotListener(func(s notidomain.Snapshot) {
		select {
		case ch <- s:
		default:
		}
	})
	pollerStarted = false
}

// "1:welcome,5:coach replied" 形式的清單
func theBackendNotificationListIs(spec string) error {
	var list []notidomain.Notification
	for _, part := range strings.Split(spec, ",") {
		idTitle := strings.SplitN(part, ":", 2)
		if len(idTitle) != 2 {
			return fmt.Errorf("bad notification spec %q", part)
		}
		id, err := strconv.ParseInt(idTitle[0], 10, 64)
		if err != nil {
			return fmt.Errorf("bad notification id %q", idTitle[0])
		}
		list = append(list, notidomain.Notification{
			ID:        id,
			Title:     idTitle[1],
			Sender:    "coach",
			CreatedAt: time.Now(),
		})
	}
	notiBackend.setList(list)
	return nil
}

func aNotificationPollCompletes() error {
	if !pollerStarted {
		poller.Start()
		pollerStarted = true
	} else {
		poller.Refresh()
	}

	select {
	case <-snapshotCh:
		return nil
	case <-time.After(2 * time.Second):
		return fmt.Errorf("poll did not complete in time")
	}
}

func noLocalAlertsShouldBeScheduled() error {
	if ids := alertRecorder.scheduledIDs(); len(ids) != 0 {
		return fmt.Errorf("expected no alerts, but got %v", ids)
	}
	return nil
}

func theUnreadCountShouldBe(expected int) error {
	if got := poller.UnreadCount(); got != expected {
		return fmt.Errorf("expected unread count %d, but got %d", expected, got)
	}
	return nil
}

func localAlertsShouldBeScheduledForIDs(spec string) error {
	var want []int64
	for _, part := range strings.Split(spec, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return fmt.Errorf("bad id %q", part)
		}
		want = append(want, id)
	}

	got := alertRecorder.scheduledIDs()
	if len(got) != len(want) {
		return fmt.Errorf("expected alerts for %v, but got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			return fmt.Errorf("expected alerts for %v, but got %v", want, got)
		}
	}
	return nil
}

func theBadgePopupSourceShouldBe(expected int) error {
	src := badgePopup.Alert().SourceNotification
	if src == nil {
		return fmt.Errorf("popup has no source notification")
	}
	if src.ID != int64(expected) {
		return fmt.Errorf("expected popup source %d, but got %d", expected, src.ID)
	}
	return nil
}
