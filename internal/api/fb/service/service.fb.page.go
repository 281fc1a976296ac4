package fbsvc

import (
	"context"

	basesvc "alpha_crm/internal/api/base/service"
	fbmodels "alpha_crm/internal/api/fb/models"
	"alpha_crm/internal/common"
	"alpha_crm/internal/global"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FbPageService quản lý trang Facebook
type FbPageService struct {
	*basesvc.BaseServiceMongoImpl[fbmodels.FbPage]
}

// NewFbPageService tạo FbPageService mới
func NewFbPageService() (*FbPageService, error) {
	collection, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.FbPages)
	if !exist {
		return nil, common.NewError(common.ErrCodeDatabaseConnection,
			"Không tìm thấy collection fb_pages", common.StatusInternalServerError, nil)
	}
	return &FbPageService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[fbmodels.FbPage](collection),
	}, nil
}

// IsPageExist kiểm tra trang đã tồn tại theo pageId
func (s *FbPageService) IsPageExist(ctx context.Context, pageId string) (bool, error) {
	return s.DocumentExists(ctx, bson.M{"pageId": pageId})
}

// FindOneByPageID tìm một trang theo pageId (khóa nghiệp vụ, không phải _id)
func (s *FbPageService) FindOneByPageID(ctx context.Context, pageId string) (fbmodels.FbPage, error) {
	return s.FindOne(ctx, bson.M{"pageId": pageId}, nil)
}

// FindAll lấy toàn bộ trang, sắp theo tên
func (s *FbPageService) FindAll(ctx context.Context) ([]fbmodels.FbPage, error) {
	opts := options.Find().SetSort(bson.D{{Key: "pageName", Value: 1}})
	return s.Find(ctx, bson.M{}, opts)
}

// FindAllSynced lấy các trang đang bật đồng bộ inbox
func (s *FbPageService) FindAllSynced(ctx context.Context) ([]fbmodels.FbPage, error) {
	opts := options.Find().SetSort(bson.D{{Key: "pageName", Value: 1}})
	return s.Find(ctx, bson.M{"isSync": true}, opts)
}

// UpsertPage ghi đè thông tin trang theo pageId, tạo mới nếu chưa có.
// Dùng khi webhook hoặc đồng bộ Graph mang về thông tin trang.
func (s *FbPageService) UpsertPage(ctx context.Context, page fbmodels.FbPage) (fbmodels.FbPage, error) {
	update := &basesvc.UpdateData{
		Set: bson.M{
			"pageName": page.PageName,
			"category": page.Category,
			"avatar":   page.Avatar,
			"isSync":   page.IsSync,
		},
	}
	return s.Upsert(ctx, bson.M{"pageId": page.PageId}, update)
}
