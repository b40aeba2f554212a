package router

import (
	"errors"
	"strconv"

	"coaching_app_client/internal/notification/app"
	"coaching_app_client/internal/notification/domain"

	"github.com/gofiber/fiber/v2"
)

// aggregateRequest counter badge 點擊時的合成彈窗請求
type aggregateRequest struct {
	Count int `json:"count"`
}

// RegisterRoutes 注册通知與彈窗相關的路由(給本機 UI 用)
func RegisterRoutes(r *fiber.App, poller *app.NotificationPoller, popup *app.BadgePopup) {
	grp := r.Group("/notifications")

	// 最近一次成功 poll 的完整 snapshot
	grp.Get("/", func(c *fiber.Ctx) error {
		snapshot := poller.Snapshot()
		return c.JSON(fiber.Map{
			"notifications": snapshot,
			"unread_count":  snapshot.UnreadCount(),
		})
	})

	// 未讀 badge 數，恆等於 snapshot 中 read=false 的數量
	// remote=true 時改透傳後端計數(與本地重算對帳用)
	grp.Get("/unread-count", func(c *fiber.Ctx) error {
		if c.QueryBool("remote") {
			count, err := poller.RemoteUnreadCount(c.Context())
			if err != nil {
				return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "unread count unavailable"})
			}
			return c.JSON(fiber.Map{"count": count})
		}
		return c.JSON(fiber.Map{"count": poller.UnreadCount()})
	})

	// screen focus / 下拉更新觸發立即 poll
	grp.Post("/refresh", func(c *fiber.Ctx) error {
		poller.Refresh()
		return c.SendStatus(fiber.StatusAccepted)
	})

	grp.Put("/read-all", func(c *fiber.Ctx) error {
		if err := poller.MarkAllRead(c.Context()); err != nil {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "mark all read failed"})
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	// alert 點擊後以 round-trip 的 notification id 標記已讀
	grp.Put("/:id/read", func(c *fiber.Ctx) error {
		id, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil || id <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid notification id"})
		}

		if err := poller.MarkRead(c.Context(), id); err != nil {
			if errors.Is(err, domain.ErrMarkReadFailed) {
				return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "mark read failed"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "mark read failed"})
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	// badge 彈窗
	pop := r.Group("/popup")

	pop.Get("/", func(c *fiber.Ctx) error {
		alert := popup.Alert()
		return c.JSON(fiber.Map{
			"state": popup.State().String(),
			"alert": alert,
		})
	})

	// counter badge 點擊：N 則待處理徽章的合成摘要
	pop.Post("/aggregate", func(c *fiber.Ctx) error {
		var req aggregateRequest
		if err := c.BodyParser(&req); err != nil || req.Count <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "count required"})
		}
		popup.TriggerAggregate(req.Count)
		return c.SendStatus(fiber.StatusAccepted)
	})

	pop.Post("/dismiss", func(c *fiber.Ctx) error {
		popup.Dismiss()
		return c.SendStatus(fiber.StatusAccepted)
	})
}
