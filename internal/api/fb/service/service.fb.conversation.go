package fbsvc

import (
	"context"
	"errors"
	"fmt"

	basesvc "alpha_crm/internal/api/base/service"
	fbmodels "alpha_crm/internal/api/fb/models"
	"alpha_crm/internal/common"
	"alpha_crm/internal/global"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FbConversationService quản lý hội thoại inbox
type FbConversationService struct {
	*basesvc.BaseServiceMongoImpl[fbmodels.FbConversation]
}

// NewFbConversationService tạo FbConversationService mới
func NewFbConversationService() (*FbConversationService, error) {
	collection, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.FbConversations)
	if !exist {
		return nil, common.NewError(common.ErrCodeDatabaseConnection,
			"Không tìm thấy collection fb_conversations", common.StatusInternalServerError, nil)
	}
	return &FbConversationService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[fbmodels.FbConversation](collection),
	}, nil
}

// BuildConversationId ghép danh tính hội thoại từ pageId và psid
func BuildConversationId(pageId, psid string) string {
	return fmt.Sprintf("%s_%s", pageId, psid)
}

// FindOneByConversationId tìm hội thoại theo danh tính "{pageId}_{psid}"
func (s *FbConversationService) FindOneByConversationId(ctx context.Context, conversationId string) (fbmodels.FbConversation, error) {
	return s.FindOne(ctx, bson.M{"conversationId": conversationId}, nil)
}

// conversationPageFilter dựng filter Mongo cho một trang hội thoại sau cursor.
// Cursor so sánh theo cặp (updatedTime, conversationId) để hội thoại trùng
// updatedTime nằm vắt qua ranh giới trang không bị bỏ sót.
func conversationPageFilter(base bson.M, after string) bson.M {
	filter := bson.M{}
	for k, v := range base {
		filter[k] = v
	}
	if after == "" {
		return filter
	}
	updatedTime, conversationId := decodePageCursor(after)
	if conversationId == "" {
		filter["updatedTime"] = bson.M{"$lt": updatedTime}
		return filter
	}
	filter["$or"] = []bson.M{
		{"updatedTime": bson.M{"$lt": updatedTime}},
		{"updatedTime": updatedTime, "conversationId": bson.M{"$lt": conversationId}},
	}
	return filter
}

// FindPageByUpdatedTime đọc một trang hội thoại, mới cập nhật trước.
// after là cursor (updatedTime|conversationId) trả từ trang trước; rỗng thì
// trả trang đầu. filter lọc thêm theo pageId nếu dashboard chỉ xem một trang.
func (s *FbConversationService) FindPageByUpdatedTime(ctx context.Context, filter bson.M, after string, limit int64) ([]fbmodels.FbConversation, string, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if filter == nil {
		filter = bson.M{}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "updatedTime", Value: -1}, {Key: "conversationId", Value: -1}}).
		SetLimit(limit)
	conversations, err := s.Find(ctx, conversationPageFilter(filter, after), opts)
	if err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if int64(len(conversations)) == limit && len(conversations) > 0 {
		last := conversations[len(conversations)-1]
		nextCursor = encodePageCursor(last.UpdatedTime, last.ConversationId)
	}
	return conversations, nextCursor, nil
}

// UpsertSummary ghi đè thông tin tóm tắt hội thoại theo danh tính (pageId, psid).
// Chỉ set các trường có giá trị để đồng bộ Graph không xóa dữ liệu webhook đã ghi.
func (s *FbConversationService) UpsertSummary(ctx context.Context, conv fbmodels.FbConversation) (fbmodels.FbConversation, error) {
	set := bson.M{
		"conversationId": conv.ConversationId,
		"pageId":         conv.PageId,
		"psid":           conv.Psid,
	}
	if conv.PageName != "" {
		set["pageName"] = conv.PageName
	}
	if conv.CustomerName != "" {
		set["customerName"] = conv.CustomerName
	}
	if conv.CustomerPicture != "" {
		set["customerPicture"] = conv.CustomerPicture
	}
	if conv.UpdatedTime != "" {
		set["updatedTime"] = conv.UpdatedTime
	}

	update := &basesvc.UpdateData{Set: set}
	return s.Upsert(ctx, bson.M{"pageId": conv.PageId, "psid": conv.Psid}, update)
}

// ApplyMessage cập nhật tóm tắt hội thoại khi có tin nhắn mới:
// updatedTime/lastMessageAt nhảy lên thời điểm tin, tin từ khách bật cờ unread.
// Chỉ cập nhật khi tin mới hơn tin cuối đã ghi để webhook đến trễ không lùi hội thoại.
func (s *FbConversationService) ApplyMessage(ctx context.Context, message fbmodels.FbMessageItem) error {
	pageId, psid, ok := SplitConversationId(message.ConversationId)
	if !ok {
		return common.ErrInvalidFormat
	}

	set := bson.M{
		"conversationId": message.ConversationId,
		"pageId":         pageId,
		"psid":           psid,
		"updatedTime":    message.At,
		"lastMessageAt":  message.At,
		"lastMessageText": messageSummaryText(message),
	}
	if message.From == fbmodels.MessageFromCustomer {
		set["unread"] = true
		if message.SenderName != "" {
			set["customerName"] = message.SenderName
		}
	}

	filter := bson.M{
		"pageId": pageId,
		"psid":   psid,
		"$or": []bson.M{
			{"lastMessageAt": bson.M{"$lt": message.At}},
			{"lastMessageAt": bson.M{"$exists": false}},
		},
	}
	_, err := s.Upsert(ctx, filter, &basesvc.UpdateData{Set: set})
	if err != nil {
		// Tin cũ hơn tin cuối: filter không khớp nhưng upsert sẽ đụng unique
		// index (pageId, psid) khi hội thoại đã tồn tại. Đây không phải lỗi.
		if errors.Is(err, common.ErrDuplicate) {
			return nil
		}
		return err
	}
	return nil
}

// MarkRead tắt cờ unread của hội thoại
func (s *FbConversationService) MarkRead(ctx context.Context, conversationId string) error {
	_, err := s.UpdateOne(ctx, bson.M{"conversationId": conversationId},
		&basesvc.UpdateData{Set: bson.M{"unread": false}}, nil)
	return err
}

// SplitConversationId tách danh tính "{pageId}_{psid}" về hai thành phần.
// PSID không chứa "_" nên tách tại dấu "_" cuối cùng.
func SplitConversationId(conversationId string) (pageId, psid string, ok bool) {
	for i := len(conversationId) - 1; i >= 0; i-- {
		if conversationId[i] == '_' {
			pageId, psid = conversationId[:i], conversationId[i+1:]
			return pageId, psid, pageId != "" && psid != ""
		}
	}
	return "", "", false
}

// messageSummaryText rút gọn nội dung tin để hiển thị ở danh sách hội thoại
func messageSummaryText(message fbmodels.FbMessageItem) string {
	if message.Text != "" {
		return message.Text
	}
	if len(message.Attachments) > 0 {
		switch message.Attachments[0].Type {
		case "image":
			return "[Hình ảnh]"
		case "video":
			return "[Video]"
		default:
			return "[Tệp đính kèm]"
		}
	}
	return ""
}
