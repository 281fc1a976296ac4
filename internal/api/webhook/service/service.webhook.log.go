package webhooksvc

import (
	"context"
	"time"

	basesvc "alpha_crm/internal/api/base/service"
	webhookmodels "alpha_crm/internal/api/webhook/models"
	"alpha_crm/internal/common"
	"alpha_crm/internal/global"
)

// WebhookLogService lưu payload webhook thô phục vụ debug
type WebhookLogService struct {
	*basesvc.BaseServiceMongoImpl[webhookmodels.WebhookLog]
}

// NewWebhookLogService tạo WebhookLogService mới
func NewWebhookLogService() (*WebhookLogService, error) {
	collection, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.WebhookLogs)
	if !exist {
		return nil, common.NewError(common.ErrCodeDatabaseConnection,
			"Không tìm thấy collection webhook_logs", common.StatusInternalServerError, nil)
	}
	return &WebhookLogService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[webhookmodels.WebhookLog](collection),
	}, nil
}

// SaveRaw lưu một payload thô. Best-effort — caller chỉ ghi log khi lỗi.
func (s *WebhookLogService) SaveRaw(ctx context.Context, payload []byte, signatureValid bool) error {
	_, err := s.InsertOne(ctx, webhookmodels.WebhookLog{
		Source:         "meta",
		Payload:        string(payload),
		SignatureValid: signatureValid,
		ReceivedAt:     time.Now().UTC(),
	})
	return err
}
