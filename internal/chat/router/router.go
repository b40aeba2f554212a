package router

import (
	"errors"

	"coaching_app_client/internal/chat/app"
	"coaching_app_client/internal/chat/domain"

	"github.com/gofiber/fiber/v2"
)

// openRequest 前端開啟 conversation 的請求
type openRequest struct {
	PeerID int64 `json:"peer_id"`
}

// sendRequest 前端送訊息的請求
type sendRequest struct {
	Content string `json:"content"`
}

// RegisterRoutes 注册 conversation 相關的路由(給本機 UI 用)
func RegisterRoutes(r *fiber.App, chatUC *app.ConversationUseCase) {
	grp := r.Group("/conversations")

	// 開啟(或切換) conversation：解析 id、訂閱 topic、回歷史
	grp.Post("/open", func(c *fiber.Ctx) error {
		var req openRequest
		if err := c.BodyParser(&req); err != nil || req.PeerID <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "peer_id required"})
		}

		messages, err := chatUC.Open(c.Context(), req.PeerID)
		if err != nil {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "conversation unavailable"})
		}
		return c.JSON(fiber.Map{
			"conversation_id": chatUC.ConversationID(),
			"messages":        messages,
		})
	})

	// 送出訊息：REST 持久化成功才清輸入框，失敗回 retryable 錯誤
	grp.Post("/send", func(c *fiber.Ctx) error {
		var req sendRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
		}

		sent, err := chatUC.Send(c.Context(), req.Content)
		switch {
		case errors.Is(err, domain.ErrEmptyContent):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "message is empty"})
		case errors.Is(err, domain.ErrNoConversation):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "no open conversation"})
		case err != nil:
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "send failed, retry"})
		}
		return c.JSON(sent)
	})

	// 當前 store 的訊息(到達序)
	grp.Get("/messages", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"conversation_id": chatUC.ConversationID(),
			"messages":        chatUC.Messages(),
		})
	})

	// 離開 conversation view：退訂並拆 store
	grp.Post("/close", func(c *fiber.Ctx) error {
		chatUC.Close()
		return c.SendStatus(fiber.StatusNoContent)
	})
}
