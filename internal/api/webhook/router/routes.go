// Package webhookrouter đăng ký route webhook Meta Messenger.
// Hai route này KHÔNG qua auth middleware: Meta gọi thẳng vào endpoint,
// xác thực bằng verify token (GET) và chữ ký HMAC (POST).
package webhookrouter

import (
	"fmt"

	fbsvc "alpha_crm/internal/api/fb/service"
	"alpha_crm/internal/api/middleware"
	apirouter "alpha_crm/internal/api/router"
	webhookhdl "alpha_crm/internal/api/webhook/handler"
	webhooksvc "alpha_crm/internal/api/webhook/service"

	"github.com/gofiber/fiber/v3"
)

// Register đăng ký route webhook lên group /api
func Register(base fiber.Router, v1 fiber.Router, r *apirouter.Router) error {
	events, err := webhooksvc.NewWebhookEventService()
	if err != nil {
		return fmt.Errorf("khởi tạo webhook event service thất bại: %w", err)
	}
	logs, err := webhooksvc.NewWebhookLogService()
	if err != nil {
		return fmt.Errorf("khởi tạo webhook log service thất bại: %w", err)
	}
	pages, err := fbsvc.NewFbPageService()
	if err != nil {
		return fmt.Errorf("khởi tạo page service thất bại: %w", err)
	}
	conversations, err := fbsvc.NewFbConversationService()
	if err != nil {
		return fmt.Errorf("khởi tạo conversation service thất bại: %w", err)
	}
	messages, err := fbsvc.NewFbMessageItemService()
	if err != nil {
		return fmt.Errorf("khởi tạo message service thất bại: %w", err)
	}
	contacts, err := fbsvc.NewContactExtractorService(conversations, messages)
	if err != nil {
		return fmt.Errorf("khởi tạo contact extractor thất bại: %w", err)
	}

	processor := webhooksvc.NewWebhookProcessor(events, pages, conversations, messages, contacts)
	handler := webhookhdl.NewMetaWebhookHandler(logs, processor)

	base.Get("/webhooks/meta", handler.HandleVerify)
	base.Post("/webhooks/meta", handler.HandlePayload)

	// Route quản trị: xem lại payload webhook thô, yêu cầu auth
	auth := middleware.AuthMiddleware()
	apirouter.RegisterRouteWithMiddleware(v1, "/webhook/logs", "GET", "/", []fiber.Handler{auth}, handler.HandleListLogs)

	return nil
}
