// Package webhookhdl nhận webhook Messenger từ Meta: verify subscription (GET)
// và nhận event (POST). Endpoint POST luôn ack 200 ngay rồi mới xử lý nền —
// Meta sẽ retry và cuối cùng vô hiệu hóa subscription nếu endpoint trả lỗi chậm.
package webhookhdl

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"time"

	basehdl "alpha_crm/internal/api/base/handler"
	webhookdto "alpha_crm/internal/api/webhook/dto"
	webhooksvc "alpha_crm/internal/api/webhook/service"
	"alpha_crm/internal/common"
	"alpha_crm/internal/global"
	"alpha_crm/internal/logger"

	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// processTimeout giới hạn thời gian xử lý nền một payload webhook
const processTimeout = 30 * time.Second

// MetaWebhookHandler xử lý endpoint webhook của Meta Messenger
type MetaWebhookHandler struct {
	logs      *webhooksvc.WebhookLogService
	processor *webhooksvc.WebhookProcessor
}

// NewMetaWebhookHandler tạo MetaWebhookHandler mới
func NewMetaWebhookHandler(logs *webhooksvc.WebhookLogService, processor *webhooksvc.WebhookProcessor) *MetaWebhookHandler {
	return &MetaWebhookHandler{logs: logs, processor: processor}
}

// HandleVerify xử lý GET verify subscription của Meta.
// Meta gửi hub.mode=subscribe kèm verify token; token khớp thì echo lại
// hub.challenge dạng plain text, sai thì 403.
func (h *MetaWebhookHandler) HandleVerify(c fiber.Ctx) error {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token != "" && token == global.ServerConfig.MetaWebhookVerifyToken {
		return c.Status(common.StatusOK).SendString(challenge)
	}
	return basehdl.JSONResponse(c, common.StatusForbidden, fiber.Map{
		"error": "Verify token không hợp lệ",
	})
}

// HandlePayload xử lý POST event từ Meta.
// Chữ ký sai mặc định chỉ ghi log cảnh báo (fail-open) để không mất event khi
// cấu hình app secret lệch; bật MetaStrictSignature để từ chối hẳn với 403.
func (h *MetaWebhookHandler) HandlePayload(c fiber.Ctx) error {
	log := logger.GetAppLogger()
	body := append([]byte(nil), c.Body()...)

	signatureValid := VerifySignature(global.ServerConfig.MetaAppSecret, body, c.Get("X-Hub-Signature-256"))
	if !signatureValid {
		if global.ServerConfig.MetaStrictSignature {
			log.Warn("Chữ ký webhook không hợp lệ, từ chối payload")
			return basehdl.JSONResponse(c, common.StatusForbidden, fiber.Map{
				"error": "Chữ ký không hợp lệ",
			})
		}
		log.Warn("Chữ ký webhook không hợp lệ, vẫn xử lý (chế độ lenient)")
	}

	if err := h.logs.SaveRaw(c.Context(), body, signatureValid); err != nil {
		log.WithError(err).Warn("Lưu raw payload webhook thất bại")
	}

	var payload webhookdto.MetaWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		log.WithError(err).Warn("Payload webhook không parse được, vẫn ack 200")
		return c.Status(common.StatusOK).SendString("EVENT_RECEIVED")
	}
	if payload.Object != "page" {
		return c.Status(common.StatusOK).SendString("EVENT_RECEIVED")
	}

	// Ack trước, xử lý sau: request context sẽ bị hủy khi response trả về
	// nên goroutine dùng context riêng có timeout.
	go func(p webhookdto.MetaWebhookPayload) {
		ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
		defer cancel()
		stats := h.processor.ProcessPayload(ctx, &p)
		if stats.ErrorCount > 0 {
			log.WithFields(map[string]interface{}{
				"eventCount": stats.EventCount,
				"errorCount": stats.ErrorCount,
			}).Warn("Xử lý payload webhook có lỗi")
		}
	}(payload)

	return c.Status(common.StatusOK).SendString("EVENT_RECEIVED")
}

// HandleListLogs danh sách payload webhook thô, mới nhận trước
// (GET /api/v1/webhook/logs). Route quản trị, phục vụ debug delivery.
func (h *MetaWebhookHandler) HandleListLogs(c fiber.Ctx) error {
	page, _ := strconv.ParseInt(c.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.Query("limit", "20"), 10, 64)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	opts := options.Find().SetSort(bson.D{{Key: "receivedAt", Value: -1}})
	result, err := h.logs.FindWithPagination(c.Context(), bson.M{"source": "meta"}, page, limit, opts)
	if err != nil {
		logger.GetErrorLogger().WithError(err).Error("Truy vấn webhook logs thất bại")
		return basehdl.JSONResponse(c, common.StatusInternalServerError, fiber.Map{
			"error": "Không truy vấn được webhook logs",
		})
	}
	return basehdl.JSONResponse(c, common.StatusOK, result)
}

// VerifySignature kiểm tra chữ ký X-Hub-Signature-256 của Meta.
// Header có dạng "sha256=<hex HMAC-SHA256 của body với app secret>".
func VerifySignature(appSecret string, body []byte, header string) bool {
	const prefix = "sha256="
	if appSecret == "" || len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return false
	}
	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(header[len(prefix):]))
}
