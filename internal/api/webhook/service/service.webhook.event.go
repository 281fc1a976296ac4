package webhooksvc

import (
	"context"
	"errors"
	"time"

	basesvc "alpha_crm/internal/api/base/service"
	webhookmodels "alpha_crm/internal/api/webhook/models"
	"alpha_crm/internal/common"
	"alpha_crm/internal/global"
)

// WebhookEventService quản lý bảng idempotency của webhook.
// Mỗi event đã xử lý được insert một bản ghi với eventId unique;
// Meta gửi lại cùng event thì insert đụng duplicate và event bị bỏ qua.
type WebhookEventService struct {
	*basesvc.BaseServiceMongoImpl[webhookmodels.WebhookEvent]
}

// NewWebhookEventService tạo WebhookEventService mới
func NewWebhookEventService() (*WebhookEventService, error) {
	collection, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.WebhookEvents)
	if !exist {
		return nil, common.NewError(common.ErrCodeDatabaseConnection,
			"Không tìm thấy collection webhook_events", common.StatusInternalServerError, nil)
	}
	return &WebhookEventService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[webhookmodels.WebhookEvent](collection),
	}, nil
}

// MarkProcessed ghi nhận một eventId đã xử lý.
// Trả về true nếu event đã được ghi nhận trước đó (duplicate delivery).
func (s *WebhookEventService) MarkProcessed(ctx context.Context, eventId, pageId string) (bool, error) {
	_, err := s.InsertOne(ctx, webhookmodels.WebhookEvent{
		EventId:    eventId,
		PageId:     pageId,
		ReceivedAt: time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, common.ErrDuplicate) {
			return true, nil
		}
		return false, err
	}
	return false, nil
}
