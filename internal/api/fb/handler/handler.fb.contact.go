package fbhdl

import (
	"context"

	basehdl "alpha_crm/internal/api/base/handler"
	fbsvc "alpha_crm/internal/api/fb/service"
	"alpha_crm/internal/logger"

	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FbContactHandler xử lý các route contact candidate
type FbContactHandler struct {
	contacts *fbsvc.ContactExtractorService
}

// NewFbContactHandler tạo FbContactHandler mới
func NewFbContactHandler(contacts *fbsvc.ContactExtractorService) *FbContactHandler {
	return &FbContactHandler{contacts: contacts}
}

// HandleRescan quét lại toàn bộ hội thoại để trích số điện thoại
// (POST /api/contacts/rescan). Response shape theo contract dashboard:
// {contactCount, conversationCount, skippedCount, errorCount?}.
func (h *FbContactHandler) HandleRescan(c fiber.Ctx) error {
	result, err := h.contacts.RescanAll(context.Background())
	if err != nil {
		return writeDashboardError(c, err)
	}
	logger.GetAppLogger().WithFields(map[string]interface{}{
		"contacts":      result.ContactCount,
		"conversations": result.ConversationCount,
		"skipped":       result.SkippedCount,
		"errors":        result.ErrorCount,
	}).Info("Rescan contact candidate hoàn tất")
	logger.LogAction("contact_rescan", c, map[string]interface{}{
		"contactCount":      result.ContactCount,
		"conversationCount": result.ConversationCount,
	})
	return basehdl.JSONResponse(c, fiber.StatusOK, result)
}

// HandleListContacts danh sách contact candidate, mới thấy gần nhất trước
// (GET /api/contacts).
func (h *FbContactHandler) HandleListContacts(c fiber.Ctx) error {
	page, limit := parsePagination(c)
	opts := options.Find().SetSort(bson.D{{Key: "lastSeenAt", Value: -1}})
	result, err := h.contacts.FindWithPagination(context.Background(), bson.M{}, page, limit, opts)
	if err != nil {
		return writeDashboardError(c, err)
	}
	return basehdl.JSONResponse(c, fiber.StatusOK, result)
}

// HandleMarkConverted đánh dấu một candidate đã chốt thành khách hàng
// (POST /api/contacts/:id/convert). Số đã converted không bị trích lại
// ở các lượt quét sau.
func (h *FbContactHandler) HandleMarkConverted(c fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return basehdl.JSONResponse(c, fiber.StatusBadRequest, fiber.Map{"error": "Id không hợp lệ"})
	}
	contact, err := h.contacts.MarkConverted(context.Background(), id)
	if err != nil {
		return writeDashboardError(c, err)
	}
	logger.LogCRUD("update", "contact_candidate", c.Params("id"), c, map[string]interface{}{
		"status": contact.Status,
		"phone":  contact.Phone,
	})
	return basehdl.JSONResponse(c, fiber.StatusOK, contact)
}
