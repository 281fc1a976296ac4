package webhooksvc

import (
	"context"
	"fmt"
	"time"

	fbmodels "alpha_crm/internal/api/fb/models"
	fbsvc "alpha_crm/internal/api/fb/service"
	webhookdto "alpha_crm/internal/api/webhook/dto"
	"alpha_crm/internal/logger"
)

// Các dependency của WebhookProcessor, tách interface để test thay được
// bằng implementation giả không cần MongoDB.

type eventLedger interface {
	MarkProcessed(ctx context.Context, eventId, pageId string) (bool, error)
}

type pageSource interface {
	FindOneByPageID(ctx context.Context, pageId string) (fbmodels.FbPage, error)
}

type conversationStore interface {
	ApplyMessage(ctx context.Context, message fbmodels.FbMessageItem) error
	UpsertSummary(ctx context.Context, conv fbmodels.FbConversation) (fbmodels.FbConversation, error)
	FindOneByConversationId(ctx context.Context, conversationId string) (fbmodels.FbConversation, error)
}

type messageStore interface {
	UpsertMessage(ctx context.Context, message fbmodels.FbMessageItem) (fbmodels.FbMessageItem, error)
}

type contactScanner interface {
	ScanMessage(ctx context.Context, conv fbmodels.FbConversation, message fbmodels.FbMessageItem) (int, error)
}

// WebhookProcessor biến payload webhook Meta thành dữ liệu inbox.
// Mỗi sự kiện messaging là một đơn vị lỗi độc lập: event hỏng chỉ được đếm
// và ghi log, các event còn lại trong cùng payload vẫn được xử lý.
type WebhookProcessor struct {
	events        eventLedger
	pages         pageSource
	conversations conversationStore
	messages      messageStore
	contacts      contactScanner
}

// NewWebhookProcessor tạo WebhookProcessor từ các service thành phần
func NewWebhookProcessor(events eventLedger, pages pageSource,
	conversations conversationStore, messages messageStore,
	contacts contactScanner) *WebhookProcessor {
	return &WebhookProcessor{
		events:        events,
		pages:         pages,
		conversations: conversations,
		messages:      messages,
		contacts:      contacts,
	}
}

// ProcessStats kết quả xử lý một payload webhook
type ProcessStats struct {
	EventCount     int `json:"eventCount"`
	DuplicateCount int `json:"duplicateCount"`
	SkippedCount   int `json:"skippedCount"`
	ErrorCount     int `json:"errorCount"`
}

// BuildEventId ghép khóa idempotency cho một sự kiện messaging.
// Dựa trên mid vì Meta giữ mid ổn định giữa các lần gửi lại.
func BuildEventId(pageId string, entryTime int64, mid string) string {
	return fmt.Sprintf("%s_%d_%s", pageId, entryTime, mid)
}

// NormalizeMessaging chuyển một sự kiện messaging thô thành FbMessageItem.
// Trả về ok=false cho sự kiện không phải tin nhắn hoặc thiếu mid.
// Echo (trang tự gửi) được giữ lại với from=agent để hội thoại đủ hai chiều;
// với echo thì PSID của khách nằm ở recipient thay vì sender.
func NormalizeMessaging(pageId string, m webhookdto.MetaMessaging) (fbmodels.FbMessageItem, bool) {
	if m.Message == nil || m.Message.Mid == "" {
		return fbmodels.FbMessageItem{}, false
	}

	psid := m.Sender.ID
	from := fbmodels.MessageFromCustomer
	if m.Message.IsEcho || m.Sender.ID == pageId {
		psid = m.Recipient.ID
		from = fbmodels.MessageFromAgent
	}
	if psid == "" {
		return fbmodels.FbMessageItem{}, false
	}

	item := fbmodels.FbMessageItem{
		ConversationId: fbsvc.BuildConversationId(pageId, psid),
		MessageId:      m.Message.Mid,
		From:           from,
		Text:           m.Message.Text,
		At:             time.UnixMilli(m.Timestamp).UTC().Format(time.RFC3339),
	}
	for _, att := range m.Message.Attachments {
		if att.Payload.URL == "" {
			continue
		}
		attType := att.Type
		switch attType {
		case "image", "video", "audio":
		default:
			attType = "file"
		}
		item.Attachments = append(item.Attachments, fbmodels.FbAttachment{
			Type: attType,
			URL:  att.Payload.URL,
		})
	}
	return item, true
}

// ProcessPayload xử lý toàn bộ sự kiện messaging trong một payload webhook.
// Được gọi sau khi đã ack 200 cho Meta nên mọi lỗi chỉ ghi log và đếm.
func (p *WebhookProcessor) ProcessPayload(ctx context.Context, payload *webhookdto.MetaWebhookPayload) *ProcessStats {
	log := logger.GetAppLogger()
	stats := &ProcessStats{}

	for _, entry := range payload.Entry {
		for _, messaging := range entry.Messaging {
			item, ok := NormalizeMessaging(entry.ID, messaging)
			if !ok {
				stats.SkippedCount++
				continue
			}

			eventId := BuildEventId(entry.ID, messaging.Timestamp, item.MessageId)
			seen, err := p.events.MarkProcessed(ctx, eventId, entry.ID)
			if err != nil {
				stats.ErrorCount++
				log.WithError(err).WithFields(map[string]interface{}{
					"eventId": eventId,
				}).Warn("Ghi nhận event webhook thất bại, bỏ qua event")
				continue
			}
			if seen {
				stats.DuplicateCount++
				continue
			}

			if err := p.applyMessage(ctx, entry.ID, item); err != nil {
				stats.ErrorCount++
				log.WithError(err).WithFields(map[string]interface{}{
					"conversationId": item.ConversationId,
					"messageId":      item.MessageId,
				}).Warn("Xử lý tin nhắn webhook thất bại")
				continue
			}
			stats.EventCount++
		}
	}
	return stats
}

// applyMessage ghi tin nhắn vào store và cập nhật tóm tắt hội thoại
func (p *WebhookProcessor) applyMessage(ctx context.Context, pageId string, item fbmodels.FbMessageItem) error {
	if _, err := p.messages.UpsertMessage(ctx, item); err != nil {
		return err
	}
	if err := p.conversations.ApplyMessage(ctx, item); err != nil {
		return err
	}

	// Gắn tên trang vào hội thoại nếu đã biết trang, best-effort
	log := logger.GetAppLogger()
	if page, err := p.pages.FindOneByPageID(ctx, pageId); err == nil && page.PageName != "" {
		conv := fbmodels.FbConversation{
			ConversationId: item.ConversationId,
			PageId:         pageId,
			PageName:       page.PageName,
		}
		if _, psid, ok := splitPagePsid(item.ConversationId, pageId); ok {
			conv.Psid = psid
		}
		if _, err := p.conversations.UpsertSummary(ctx, conv); err != nil {
			log.WithError(err).WithFields(map[string]interface{}{
				"conversationId": item.ConversationId,
			}).Warn("Gắn tên trang vào hội thoại thất bại")
		}
	}

	// Quét số điện thoại trong tin của khách
	if item.From == fbmodels.MessageFromCustomer {
		conv, err := p.conversations.FindOneByConversationId(ctx, item.ConversationId)
		if err != nil {
			return err
		}
		if _, err := p.contacts.ScanMessage(ctx, conv, item); err != nil {
			log.WithError(err).WithFields(map[string]interface{}{
				"conversationId": item.ConversationId,
			}).Warn("Quét số điện thoại từ webhook thất bại")
		}
	}
	return nil
}

// splitPagePsid tách psid khi đã biết pageId, tránh nhập nhằng dấu gạch dưới
func splitPagePsid(conversationId, pageId string) (string, string, bool) {
	prefix := pageId + "_"
	if len(conversationId) <= len(prefix) || conversationId[:len(prefix)] != prefix {
		return "", "", false
	}
	return pageId, conversationId[len(prefix):], true
}
