package fbhdl

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	basehdl "alpha_crm/internal/api/base/handler"
	fbdto "alpha_crm/internal/api/fb/dto"
	fbsvc "alpha_crm/internal/api/fb/service"
	"alpha_crm/internal/common"
	"alpha_crm/internal/global"
	"alpha_crm/internal/logger"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson"
)

// FbInboxHandler xử lý các route inbox của dashboard: danh sách hội thoại,
// tin nhắn theo hội thoại, gửi tin và đồng bộ.
// Các route này trả shape thuần theo contract của dashboard (không bọc
// envelope), riêng lỗi gửi tin có dạng {error, code} để client nhận diện
// vi phạm cửa sổ 24 giờ qua code 10.
type FbInboxHandler struct {
	conversations *fbsvc.FbConversationService
	messages      *fbsvc.FbMessageItemService
	sender        *fbsvc.FbSendService
	sync          *fbsvc.FbSyncService
}

// NewFbInboxHandler tạo FbInboxHandler mới
func NewFbInboxHandler(sender *fbsvc.FbSendService, sync *fbsvc.FbSyncService) (*FbInboxHandler, error) {
	conversations, err := fbsvc.NewFbConversationService()
	if err != nil {
		return nil, err
	}
	messages, err := fbsvc.NewFbMessageItemService()
	if err != nil {
		return nil, err
	}
	return &FbInboxHandler{
		conversations: conversations,
		messages:      messages,
		sender:        sender,
		sync:          sync,
	}, nil
}

// writeDashboardError trả lỗi theo shape {error, code?} của dashboard.
// Vi phạm cửa sổ 24h mang thêm code 10; các lỗi khác chỉ có message.
func writeDashboardError(c fiber.Ctx, err error) error {
	var appErr *common.Error
	if errors.As(err, &appErr) {
		body := fiber.Map{"error": appErr.Message}
		if appErr.Code.Code == common.ErrCodeFbWindow.Code {
			body["code"] = common.MessagingWindowViolationCode
		}
		return basehdl.JSONResponse(c, appErr.StatusCode, body)
	}
	return basehdl.JSONResponse(c, fiber.StatusInternalServerError, fiber.Map{"error": "Lỗi hệ thống"})
}

// HandleListConversations danh sách hội thoại mới nhất trước (GET /api/messages).
// Query: pageId lọc theo trang, cursor/limit phân trang theo cursor.
// Trả {conversations, nextCursor}: nextCursor rỗng nghĩa là hết trang.
func (h *FbInboxHandler) HandleListConversations(c fiber.Ctx) error {
	cursor := c.Query("cursor")
	limit, _ := strconv.ParseInt(c.Query("limit", "20"), 10, 64)

	filter := bson.M{}
	if pageId := c.Query("pageId"); pageId != "" {
		filter["pageId"] = pageId
	}

	conversations, nextCursor, err := h.conversations.FindPageByUpdatedTime(context.Background(), filter, cursor, limit)
	if err != nil {
		return writeDashboardError(c, err)
	}
	return basehdl.JSONResponse(c, fiber.StatusOK, fbdto.ConversationPage{
		Conversations: conversations,
		NextCursor:    nextCursor,
	})
}

// HandleConversationMessages một trang tin nhắn của hội thoại
// (GET /api/conversation/:id/messages?after=&limit=).
func (h *FbInboxHandler) HandleConversationMessages(c fiber.Ctx) error {
	conversationId := c.Params("id")
	after := c.Query("after")
	limit, _ := strconv.ParseInt(c.Query("limit", "50"), 10, 64)

	messages, nextCursor, total, err := h.messages.FindByConversationId(context.Background(), conversationId, after, limit)
	if err != nil {
		return writeDashboardError(c, err)
	}
	return basehdl.JSONResponse(c, fiber.StatusOK, fbdto.MessagePage{
		Messages:   messages,
		NextCursor: nextCursor,
		Total:      total,
	})
}

// HandleGetConversation chi tiết một hội thoại kèm toàn bộ tin nhắn
// (GET /api/conversations/:id). serverTimings ghi thời lượng từng bước
// để dashboard soi độ trễ phía server.
func (h *FbInboxHandler) HandleGetConversation(c fiber.Ctx) error {
	ctx := context.Background()
	conversationId := c.Params("id")
	timings := map[string]string{}

	start := time.Now()
	conversation, err := h.conversations.FindOneByConversationId(ctx, conversationId)
	timings["conversation"] = fmt.Sprintf("%.1fms", float64(time.Since(start).Microseconds())/1000)
	if errors.Is(err, common.ErrNotFound) {
		// Hội thoại chưa có trong store: quét Graph tìm và đồng bộ tại chỗ
		// để link trực tiếp từ notification vẫn mở được hội thoại mới.
		userId, _ := c.Locals("userID").(string)
		start = time.Now()
		conversation, err = h.sync.LookupConversation(ctx, userId, conversationId)
		timings["graphLookup"] = fmt.Sprintf("%.1fms", float64(time.Since(start).Microseconds())/1000)
	}
	if err != nil {
		return writeDashboardError(c, err)
	}

	start = time.Now()
	messages, err := h.messages.FindAllAscending(ctx, conversationId)
	timings["messages"] = fmt.Sprintf("%.1fms", float64(time.Since(start).Microseconds())/1000)
	if err != nil {
		return writeDashboardError(c, err)
	}

	return basehdl.JSONResponse(c, fiber.StatusOK, fbdto.ConversationDetail{
		Conversation:  &conversation,
		Messages:      messages,
		ServerTimings: timings,
	})
}

// HandleMarkRead tắt cờ unread của hội thoại (POST /api/conversations/:id/read)
func (h *FbInboxHandler) HandleMarkRead(c fiber.Ctx) error {
	conversationId := c.Params("id")
	if err := h.conversations.MarkRead(context.Background(), conversationId); err != nil {
		return writeDashboardError(c, err)
	}
	return basehdl.JSONResponse(c, fiber.StatusOK, fiber.Map{"success": true})
}

// HandleSend gửi tin nhắn đến khách (POST /api/inbox/send).
// Thành công: {success, messageId, recipientId}. Thất bại: {error, code?}
// với code 10 khi vi phạm cửa sổ 24 giờ.
func (h *FbInboxHandler) HandleSend(c fiber.Ctx) error {
	var input fbdto.SendMessageInput
	if err := c.Bind().Body(&input); err != nil {
		return basehdl.JSONResponse(c, fiber.StatusBadRequest, fiber.Map{"error": "Request body không hợp lệ"})
	}
	if err := validateSendInput(input); err != nil {
		return writeDashboardError(c, err)
	}

	userId, _ := c.Locals("userID").(string)
	result, err := h.sender.Send(context.Background(), userId, input)
	if err != nil {
		return writeDashboardError(c, err)
	}
	logger.LogSend(input.PageId+"_"+input.Psid, c, map[string]interface{}{
		"messageId": result.MessageId,
		"pageId":    input.PageId,
	})
	return basehdl.JSONResponse(c, fiber.StatusOK, result)
}

// HandleSyncInbox kích hoạt một lượt đồng bộ Graph cho mọi trang đang bật
// isSync (POST /api/inbox/sync). Chạy đồng bộ trong request vì dashboard
// gọi thủ công và cần kết quả để hiển thị.
func (h *FbInboxHandler) HandleSyncInbox(c fiber.Ctx) error {
	userId, _ := c.Locals("userID").(string)
	stats, err := h.sync.SyncAllPages(context.Background(), userId)
	if err != nil {
		return writeDashboardError(c, err)
	}
	logger.GetAppLogger().WithFields(map[string]interface{}{
		"pages":         stats.PageCount,
		"conversations": stats.ConversationCount,
		"messages":      stats.MessageCount,
	}).Info("Đồng bộ inbox hoàn tất")
	return basehdl.JSONResponse(c, fiber.StatusOK, stats)
}

// validateSendInput chạy validator trên input gửi tin.
// Tag không thuộc danh sách cho phép rơi vào đây (validator message_tag)
// trước cả khi chạm tới pipeline gửi.
func validateSendInput(input fbdto.SendMessageInput) error {
	if global.Validate == nil {
		return nil
	}
	if err := global.Validate.Struct(input); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			first := validationErrors[0]
			return common.NewError(common.ErrCodeValidationInput,
				fmt.Sprintf("Trường %s không hợp lệ (%s)", first.Field(), first.Tag()),
				common.StatusBadRequest, nil)
		}
		return common.ErrInvalidInput
	}
	return nil
}

// parsePagination đọc page/limit từ query với giới hạn an toàn
func parsePagination(c fiber.Ctx) (page, limit int64) {
	page, _ = strconv.ParseInt(c.Query("page", "1"), 10, 64)
	limit, _ = strconv.ParseInt(c.Query("limit", "20"), 10, 64)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
