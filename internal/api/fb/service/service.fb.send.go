package fbsvc

import (
	"context"
	"fmt"
	"time"

	fbdto "alpha_crm/internal/api/fb/dto"
	"alpha_crm/internal/api/fb/graph"
	fbmodels "alpha_crm/internal/api/fb/models"
	"alpha_crm/internal/common"
	"alpha_crm/internal/global"
	"alpha_crm/internal/logger"
	"alpha_crm/internal/utility"
)

// messagingWindow cửa sổ gửi tin tiêu chuẩn của Meta: 24 giờ kể từ
// tin nhắn gần nhất của khách. Ngoài cửa sổ chỉ được gửi kèm message tag.
const messagingWindow = 24 * time.Hour

// FbSendService pipeline gửi tin từ dashboard đến khách qua Send API.
// Thứ tự xử lý: validate → kiểm tra cửa sổ 24h → phân giải token → gọi
// Graph → ghi tin + audit best-effort. Kiểm tra cửa sổ chạy TRƯỚC khi
// gọi Graph để vi phạm chính sách không tốn một round-trip upstream.
type FbSendService struct {
	graphClient   *graph.Client
	tokens        *FbTokenService
	pages         *FbPageService
	conversations *FbConversationService
	messages      *FbMessageItemService
	audits        *AuditLogService

	now func() time.Time // cho test đóng băng thời gian
}

// NewFbSendService tạo FbSendService từ các service thành phần
func NewFbSendService(graphClient *graph.Client, tokens *FbTokenService,
	pages *FbPageService, conversations *FbConversationService,
	messages *FbMessageItemService, audits *AuditLogService) *FbSendService {
	return &FbSendService{
		graphClient:   graphClient,
		tokens:        tokens,
		pages:         pages,
		conversations: conversations,
		messages:      messages,
		audits:        audits,
		now:           time.Now,
	}
}

// composeSenderName ghép tên hiển thị của tin agent gửi: "Tên trang (Tên admin)".
// Thiếu phần nào thì thay bằng nhãn mặc định để tên luôn đủ hai vế.
func composeSenderName(pageName, adminName string) string {
	if pageName == "" {
		pageName = "Page"
	}
	if adminName == "" {
		adminName = "Admin"
	}
	return fmt.Sprintf("%s (%s)", pageName, adminName)
}

// withinMessagingWindow kiểm tra thời điểm now còn trong cửa sổ 24 giờ
// kể từ tin gần nhất của khách. lastCustomerAt rỗng (khách chưa từng nhắn)
// được coi là TRONG cửa sổ: hội thoại mới chưa có tin khách không bị chặn.
// Timestamp không parse được coi là ngoài cửa sổ.
func withinMessagingWindow(lastCustomerAt string, now time.Time) bool {
	if lastCustomerAt == "" {
		return true
	}
	t, err := time.Parse(time.RFC3339, lastCustomerAt)
	if err != nil {
		return false
	}
	return now.UTC().Sub(t) <= messagingWindow
}

// checkWindow kiểm tra chính sách cửa sổ 24 giờ cho một lần gửi.
// Trong cửa sổ: gửi tự do. Ngoài cửa sổ: bắt buộc tag thuộc danh sách
// Meta cho phép, nếu không trả ErrWindowPolicy.
func (s *FbSendService) checkWindow(ctx context.Context, conversationId, tag string) error {
	lastCustomerAt, err := s.messages.LastCustomerMessageAt(ctx, conversationId)
	if err != nil {
		return err
	}
	if withinMessagingWindow(lastCustomerAt, s.now()) {
		return nil
	}
	if tag != "" && global.IsAllowedMessageTag(tag) {
		return nil
	}
	return common.ErrWindowPolicy
}

// Send gửi một tin nhắn đến khách và ghi lại kết quả.
// Lỗi ghi DB/audit sau khi Graph đã nhận tin KHÔNG làm fail request:
// tin đã đi rồi, webhook echo hoặc lần đồng bộ sau sẽ vá lại dữ liệu.
func (s *FbSendService) Send(ctx context.Context, userId string, input fbdto.SendMessageInput) (*fbdto.SendMessageResult, error) {
	if input.Message == "" && input.AttachmentUrl == "" {
		return nil, common.NewError(common.ErrCodeValidationInput,
			"Cần có nội dung tin nhắn hoặc URL đính kèm", common.StatusBadRequest, nil)
	}

	conversationId := BuildConversationId(input.PageId, input.Psid)
	if err := s.checkWindow(ctx, conversationId, input.Tag); err != nil {
		return nil, err
	}

	token, err := s.tokens.GetPageAccessToken(ctx, userId, input.PageId)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, common.NewError(common.ErrCodeAuthToken,
			fmt.Sprintf("Trang %s chưa có access token", input.PageId), common.StatusUnauthorized, nil)
	}

	result, err := s.graphClient.SendMessage(ctx, token, graph.SendPayload{
		Psid:          input.Psid,
		Text:          input.Message,
		AttachmentUrl: input.AttachmentUrl,
		Tag:           input.Tag,
	})
	if err != nil {
		return nil, err
	}

	s.recordSentMessage(ctx, userId, conversationId, input, result)

	return &fbdto.SendMessageResult{
		Success:     true,
		MessageId:   result.MessageID,
		RecipientId: result.RecipientID,
	}, nil
}

// recordSentMessage ghi tin vừa gửi vào store và audit log (best-effort)
func (s *FbSendService) recordSentMessage(ctx context.Context, userId, conversationId string, input fbdto.SendMessageInput, result *graph.SendResult) {
	log := logger.GetAppLogger()
	sentAt := s.now().UTC().Format(time.RFC3339)

	pageName := ""
	if page, err := s.pages.FindOneByPageID(ctx, input.PageId); err == nil {
		pageName = page.PageName
	}

	message := fbmodels.FbMessageItem{
		ConversationId: conversationId,
		MessageId:      result.MessageID,
		From:           fbmodels.MessageFromAgent,
		Text:           input.Message,
		At:             sentAt,
		SenderName:     composeSenderName(pageName, input.AdminName),
	}
	if input.AttachmentUrl != "" {
		message.Attachments = []fbmodels.FbAttachment{{Type: "image", URL: input.AttachmentUrl}}
	}

	if _, err := s.messages.UpsertMessage(ctx, message); err != nil {
		log.WithError(err).WithFields(map[string]interface{}{
			"conversationId": conversationId,
			"messageId":      result.MessageID,
		}).Warn("Ghi tin đã gửi vào store thất bại, chờ webhook echo vá lại")
	}
	if err := s.conversations.ApplyMessage(ctx, message); err != nil {
		log.WithError(err).WithFields(map[string]interface{}{
			"conversationId": conversationId,
		}).Warn("Cập nhật tóm tắt hội thoại sau khi gửi thất bại")
	}

	if err := s.audits.LogSend(ctx, fbmodels.AuditLog{
		Action:         "send_message",
		UserID:         userId,
		AdminName:      input.AdminName,
		PageId:         input.PageId,
		ConversationId: conversationId,
		Detail:         utility.TruncateString(input.Message, 200),
	}); err != nil {
		log.WithError(err).Warn("Ghi audit log gửi tin thất bại")
	}
}
