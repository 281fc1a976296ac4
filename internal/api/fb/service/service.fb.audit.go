package fbsvc

import (
	"context"

	basesvc "alpha_crm/internal/api/base/service"
	fbmodels "alpha_crm/internal/api/fb/models"
	"alpha_crm/internal/common"
	"alpha_crm/internal/global"
)

// AuditLogService ghi audit log các thao tác nhạy cảm (gửi tin, đổi token)
type AuditLogService struct {
	*basesvc.BaseServiceMongoImpl[fbmodels.AuditLog]
}

// NewAuditLogService tạo AuditLogService mới
func NewAuditLogService() (*AuditLogService, error) {
	collection, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.AuditLogs)
	if !exist {
		return nil, common.NewError(common.ErrCodeDatabaseConnection,
			"Không tìm thấy collection audit_logs", common.StatusInternalServerError, nil)
	}
	return &AuditLogService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[fbmodels.AuditLog](collection),
	}, nil
}

// LogSend ghi một bản ghi audit cho thao tác gửi tin.
// Caller quyết định có nuốt lỗi hay không — audit là best-effort.
func (s *AuditLogService) LogSend(ctx context.Context, entry fbmodels.AuditLog) error {
	if entry.Action == "" {
		entry.Action = "send_message"
	}
	_, err := s.InsertOne(ctx, entry)
	return err
}

// LogTokenChange ghi audit cho thao tác cập nhật token của trang
func (s *AuditLogService) LogTokenChange(ctx context.Context, userId, pageId string) error {
	_, err := s.InsertOne(ctx, fbmodels.AuditLog{
		Action: "set_token",
		UserID: userId,
		PageId: pageId,
	})
	return err
}
