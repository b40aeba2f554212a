package main

import (
	"fmt"
	"log"
	"os"
	"time"

	chatapp "coaching_app_client/internal/chat/app"
	chatdomain "coaching_app_client/internal/chat/domain"
	chatrepo "coaching_app_client/internal/chat/repository"
	chatrouter "coaching_app_client/internal/chat/router"
	"coaching_app_client/internal/gateway"
	notiapp "coaching_app_client/internal/notification/app"
	notidomain "coaching_app_client/internal/notification/domain"
	notirepo "coaching_app_client/internal/notification/repository"
	notirouter "coaching_app_client/internal/notification/router"
	"coaching_app_client/pkg/config"
	"coaching_app_client/pkg/logger"
	"coaching_app_client/pkg/session"

	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.ClientDaemon, config.EnvConfig.ClientDaemonLogPath)
	cfg := config.LoadConfig[config.Client](config.EnvConfig.ClientDaemon, config.EnvConfig.ClientDaemonYAMLPath)

	// session：登入流程發的 bearer token，principal 從 claims 讀
	s, err := session.New(config.EnvConfig.SessionToken)
	if err != nil {
		logger.Log.Fatal("invalid session token", zap.Error(err))
	}
	if s.Expired() {
		logger.Log.Fatal("session token expired, login again")
	}
	logger.Log.Info("session ready", zap.Int64("user_id", s.UserID), zap.String("role", string(s.Role)))

	// UI event hub(本機前端經 /ws 收事件)
	hub := gateway.NewHub()

	// chat：REST repository + 共享 STOMP transport + usecase
	timeout := time.Duration(cfg.Backend.Timeout) * time.Second
	chatRepo := chatrepo.NewChatAPIRepository(cfg.Backend.BaseURL, s, timeout)
	transport := chatrepo.NewStompTransport(cfg.Backend.WSURL, s.Token(), cfg.Transport.RetryInterval, cfg.Transport.RetryMax)
	conversationUC := chatapp.NewConversationUseCase(chatRepo, transport, s)

	// notification：poller + dispatcher + badge popup
	notiRepo := notirepo.NewNotificationAPIRepository(cfg.Backend.BaseURL, s, timeout)
	popup := notiapp.NewBadgePopup(cfg.Popup.Entrance, cfg.Popup.Dismiss)
	scheduler := notirepo.NewLocalAlertScheduler()
	dispatcher := notiapp.NewAlertDispatcher(scheduler, popup)
	poller := notiapp.NewNotificationPoller(notiRepo, dispatcher, s.UserID, cfg.Poll.Interval)

	// 核心事件接上 UI push
	conversationUC.SetMessageListener(func(msg chatdomain.ClientMessage) {
		hub.Broadcast(gateway.Event{Type: gateway.EventMessage, Payload: msg})
	})
	scheduler.AddSink(func(alert notirepo.LocalAlert) {
		hub.Broadcast(gateway.Event{Type: gateway.EventAlert, Payload: alert})
	})
	popup.SetListener(func(state notidomain.PopupState, source *notidomain.Notification) {
		hub.Broadcast(gateway.Event{Type: gateway.EventPopup, Payload: fiber.Map{
			"state":  state.String(),
			"source": source,
		}})
	})
	poller.SetSnapshotListener(func(snapshot notidomain.Snapshot) {
		hub.Broadcast(gateway.Event{Type: gateway.EventSnapshot, Payload: fiber.Map{
			"notifications": snapshot,
			"unread_count":  snapshot.UnreadCount(),
		}})
	})

	poller.Start()
	defer poller.Stop()

	// 啟動 Fiber gateway
	r := fiber.New()
	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", config.EnvConfig.ClientDaemonLogPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	r.Use(fiber_log.New(fiber_log.Config{
		Output: file,
	}))

	gateway.RegisterRoutes(r, hub)
	chatrouter.RegisterRoutes(r, conversationUC)
	notirouter.RegisterRoutes(r, poller, popup)

	port := ":" + cfg.Port
	log.Printf("Client daemon gateway listening on %s", port)
	if err := r.Listen(port); err != nil {
		log.Fatalf("Failed to start Fiber: %v", err)
	}
}
